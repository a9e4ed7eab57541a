package models

import "time"

// Role is asserted by a participant when joining a room.
type Role string

const (
	RoleCandidate   Role = "candidate"
	RoleInterviewer Role = "interviewer"
)

func (r Role) Valid() bool { return r == RoleCandidate || r == RoleInterviewer }

// Real-time signal names.
const (
	SignalJoin                  = "join-interview"
	SignalJoined                = "joined"
	SignalCandidateStarted      = "candidate-started-interview"
	SignalEndInterview          = "end-interview"
	SignalCandidateEnded        = "candidate-ended-interview"
	SignalCandidateLeaving      = "candidate-leaving"
	SignalProctoringEvent       = "proctoring-event"
	SignalVideoFrame            = "candidate-video-frame"
	SignalInterviewEnded        = "interview-ended"
	SignalCandidateDisconnected = "candidate-disconnected"
	SignalPing                  = "ping"
	SignalPong                  = "pong"
	SignalError                 = "error"
)

type WSFrame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type JoinRequest struct {
	InterviewID string `json:"interviewId"`
	Token       string `json:"token"`
}

type JoinAck struct {
	InterviewID string `json:"interviewId"`
	Role        Role   `json:"role"`
	ClientID    string `json:"clientId"`
}

type CandidateStarted struct {
	InterviewID string `json:"interviewId"`
	Message     string `json:"message"`
}

type InterviewEnded struct {
	InterviewID    string          `json:"interviewId"`
	Status         InterviewStatus `json:"status"`
	IntegrityScore int             `json:"integrityScore"`
	EndedBy        string          `json:"endedBy"`
	Transitioned   bool            `json:"transitioned"`
}

type CandidateDisconnected struct {
	InterviewID  string          `json:"interviewId"`
	Status       InterviewStatus `json:"status"`
	Reason       EndReason       `json:"reason"`
	Message      string          `json:"message"`
	Timestamp    time.Time       `json:"timestamp"`
	Transitioned bool            `json:"transitioned"`
}

// VideoFrame is a compressed still image from the candidate's camera.
type VideoFrame struct {
	InterviewID string `json:"interviewId"`
	Image       string `json:"image"`
	Timestamp   int64  `json:"timestamp"`
}
