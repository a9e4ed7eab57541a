package models

import "time"

type RecordingStartRequest struct {
	CandidateName string `json:"candidateName"`
}

type RecordingChunkRequest struct {
	VideoBlob string `json:"videoBlob"`
}

// RecordingInfo is the in-memory view of a recording in progress.
type RecordingInfo struct {
	ID            string    `json:"id"`
	InterviewID   string    `json:"interviewId"`
	CandidateName string    `json:"candidateName"`
	StartTime     time.Time `json:"startTime"`
	LastChunkAt   time.Time `json:"lastChunkAt"`
	IsRecording   bool      `json:"isRecording"`
	ChunksCount   int       `json:"chunksCount"`
	Bytes         int64     `json:"bytes"`
}

type RecordingStatusResponse struct {
	Status          *RecordingInfo  `json:"status"`
	RecordingStatus RecordingStatus `json:"recordingStatus"`
	VideoURL        *string         `json:"videoUrl"`
}

// InterviewFinalized is published once per interview when it reaches a terminal state.
type InterviewFinalized struct {
	InterviewID    string          `json:"interviewId"`
	Status         InterviewStatus `json:"status"`
	Reason         EndReason       `json:"reason"`
	IntegrityScore int             `json:"integrityScore"`
	EndedAt        time.Time       `json:"endedAt"`
}
