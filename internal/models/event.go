package models

import (
	"time"

	"gorm.io/datatypes"
)

type EventType string

const (
	EventFocusLost        EventType = "focus_lost"
	EventFaceMissing      EventType = "face_missing"
	EventMultipleFaces    EventType = "multiple_faces"
	EventSuspiciousObject EventType = "suspicious_object"
	EventEyeClosure       EventType = "eye_closure"
	EventDrowsiness       EventType = "drowsiness"
	EventAudioDetected    EventType = "audio_detected"
)

var EventTypes = []EventType{
	EventFocusLost,
	EventFaceMissing,
	EventMultipleFaces,
	EventSuspiciousObject,
	EventEyeClosure,
	EventDrowsiness,
	EventAudioDetected,
}

func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Suspicious reports whether the type counts toward suspiciousEventsCount.
func (t EventType) Suspicious() bool {
	return t == EventSuspiciousObject || t == EventMultipleFaces || t == EventFaceMissing
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// Event is one integrity signal reported by the detector. Immutable once stored.
// Timestamp is the detector's occurrence time; CreatedAt is server receipt time.
type Event struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	InterviewID string            `gorm:"index:idx_event_interview_ts,priority:1;size:36;not null" json:"interviewId" bson:"interviewId"`
	EventType   EventType         `gorm:"size:32;not null" json:"eventType" bson:"eventType"`
	Severity    Severity          `gorm:"size:8;not null;default:medium" json:"severity" bson:"severity"`
	Message     string            `gorm:"type:text;not null" json:"message" bson:"message"`
	Metadata    datatypes.JSONMap `json:"metadata" bson:"metadata"`
	Timestamp   time.Time         `gorm:"index:idx_event_interview_ts,priority:2" json:"timestamp" bson:"timestamp"`
	CreatedAt   time.Time         `json:"createdAt" bson:"createdAt"`
}

// DetectorEvent is the callback payload posted by the external detector.
// Timestamp is unix seconds, possibly fractional.
type DetectorEvent struct {
	EventType EventType      `json:"eventType"`
	Severity  Severity       `json:"severity"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp *float64       `json:"timestamp"`
}

// ToEvent converts the payload, defaulting severity to medium and the
// timestamp to receivedAt when the detector omitted them.
func (d DetectorEvent) ToEvent(interviewID string, receivedAt time.Time) *Event {
	ts := receivedAt
	if d.Timestamp != nil && *d.Timestamp > 0 {
		sec := int64(*d.Timestamp)
		nsec := int64((*d.Timestamp - float64(sec)) * 1e9)
		ts = time.Unix(sec, nsec).UTC()
	}
	severity := d.Severity
	if severity == "" {
		severity = SeverityMedium
	}
	metadata := datatypes.JSONMap{}
	for k, v := range d.Metadata {
		metadata[k] = v
	}
	return &Event{
		InterviewID: interviewID,
		EventType:   d.EventType,
		Severity:    severity,
		Message:     d.Message,
		Metadata:    metadata,
		Timestamp:   ts,
	}
}

type EventPage struct {
	Events     []Event    `json:"events"`
	Pagination Pagination `json:"pagination"`
}
