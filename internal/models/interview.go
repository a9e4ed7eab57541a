package models

import "time"

type InterviewStatus string

const (
	StatusScheduled  InterviewStatus = "scheduled"
	StatusActive     InterviewStatus = "active"
	StatusCompleted  InterviewStatus = "completed"
	StatusTerminated InterviewStatus = "terminated"
)

// IsTerminal reports whether no further lifecycle transition can happen.
func (s InterviewStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusTerminated
}

type RecordingStatus string

const (
	RecordingNotStarted RecordingStatus = "not_started"
	RecordingActive     RecordingStatus = "recording"
	RecordingCompleted  RecordingStatus = "completed"
	RecordingFailed     RecordingStatus = "failed"
)

// EndReason identifies which trigger finalized an interview.
type EndReason string

const (
	EndExplicit       EndReason = "explicit_end"
	EndCandidateLeft  EndReason = "candidate_left"
	EndConnectionLost EndReason = "connection_lost"
)

// TerminalStatus maps an end reason to the status it produces.
func (r EndReason) TerminalStatus() InterviewStatus {
	if r == EndExplicit {
		return StatusCompleted
	}
	return StatusTerminated
}

func (r EndReason) Valid() bool {
	switch r {
	case EndExplicit, EndCandidateLeft, EndConnectionLost:
		return true
	}
	return false
}

// Participant is a name/email identity for either side of an interview.
type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Interview is one scheduled proctored session.
// EndTime is set iff Status is terminal; the stats fields are only written by finalize.
type Interview struct {
	ID               string          `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	SessionID        string          `gorm:"uniqueIndex;size:36;not null" json:"sessionId" bson:"sessionId"`
	InterviewCode    string          `gorm:"uniqueIndex;size:6;not null" json:"interviewCode" bson:"interviewCode"`
	CandidateName    string          `gorm:"not null" json:"candidateName" bson:"candidateName"`
	CandidateEmail   string          `gorm:"uniqueIndex;not null" json:"candidateEmail" bson:"candidateEmail"`
	InterviewerName  string          `gorm:"not null" json:"interviewerName" bson:"interviewerName"`
	InterviewerEmail string          `gorm:"index;not null" json:"interviewerEmail" bson:"interviewerEmail"`
	Status           InterviewStatus `gorm:"index;size:16;not null;default:scheduled" json:"status" bson:"status"`
	StartTime        time.Time       `json:"startTime" bson:"startTime"`
	EndTime          *time.Time      `json:"endTime,omitempty" bson:"endTime,omitempty"`

	Duration              int `json:"duration" bson:"duration"` // minutes
	TotalEvents           int `gorm:"default:0" json:"totalEvents" bson:"totalEvents"`
	FocusLostCount        int `gorm:"default:0" json:"focusLostCount" bson:"focusLostCount"`
	SuspiciousEventsCount int `gorm:"default:0" json:"suspiciousEventsCount" bson:"suspiciousEventsCount"`
	IntegrityScore        int `gorm:"default:100" json:"integrityScore" bson:"integrityScore"`

	VideoURL        *string         `json:"videoUrl" bson:"videoUrl,omitempty"`
	RecordingStatus RecordingStatus `gorm:"size:16;default:not_started" json:"recordingStatus" bson:"recordingStatus"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// FinalStats is the set of derived fields written atomically with the terminal status.
type FinalStats struct {
	Status                InterviewStatus
	EndTime               time.Time
	Duration              int
	TotalEvents           int
	FocusLostCount        int
	SuspiciousEventsCount int
	IntegrityScore        int
}

type ScheduleRequest struct {
	CandidateName    string `json:"candidateName"`
	CandidateEmail   string `json:"candidateEmail"`
	InterviewerName  string `json:"interviewerName"`
	InterviewerEmail string `json:"interviewerEmail"`
}

type JoinResponse struct {
	Interview *Interview `json:"interview"`
	Token     string     `json:"token"`
}

type EndResponse struct {
	Interview    *Interview `json:"interview"`
	Transitioned bool       `json:"transitioned"`
}
