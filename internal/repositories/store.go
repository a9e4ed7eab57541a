package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/avinasha18/interview-proctor/internal/models"
)

const (
	DefaultEventPageSize = 50
	MaxEventPageSize     = 500
)

// InterviewStore persists interview records. Activate and Finalize are
// compare-and-set writes: they report false when the expected status no
// longer holds, without modifying anything.
type InterviewStore interface {
	Create(ctx context.Context, interview *models.Interview) error
	GetByID(ctx context.Context, id string) (*models.Interview, error)
	GetByCode(ctx context.Context, code string) (*models.Interview, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	CandidateEmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, page, limit int) ([]models.Interview, int64, error)
	ListByInterviewer(ctx context.Context, email string) ([]models.Interview, error)
	ListByCandidate(ctx context.Context, email string) ([]models.Interview, error)
	Activate(ctx context.Context, id string, startTime time.Time) (bool, error)
	Finalize(ctx context.Context, id string, stats models.FinalStats) (bool, error)
	UpdateRecording(ctx context.Context, id string, status models.RecordingStatus, videoURL *string) error
	Ping(ctx context.Context) error
}

// EventStore is the append-only integrity event log.
type EventStore interface {
	Append(ctx context.Context, event *models.Event) error
	ListByInterview(ctx context.Context, interviewID string, page, pageSize int) ([]models.Event, int64, error)
	AllByInterview(ctx context.Context, interviewID string) ([]models.Event, error)
}

// ValidateEvent checks the closed enumerations. Metadata is never inspected.
func ValidateEvent(e *models.Event) error {
	if e == nil {
		return fmt.Errorf("%w: event is required", models.ErrValidation)
	}
	if e.InterviewID == "" {
		return fmt.Errorf("%w: interviewId is required", models.ErrValidation)
	}
	if !e.EventType.Valid() {
		return fmt.Errorf("%w: unknown eventType %q", models.ErrValidation, e.EventType)
	}
	if !e.Severity.Valid() {
		return fmt.Errorf("%w: unknown severity %q", models.ErrValidation, e.Severity)
	}
	if e.Message == "" {
		return fmt.Errorf("%w: message is required", models.ErrValidation)
	}
	return nil
}

// NormalizePage clamps 1-based page numbers and page sizes.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultEventPageSize
	}
	if pageSize > MaxEventPageSize {
		pageSize = MaxEventPageSize
	}
	return page, pageSize
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", models.ErrStorage, op, err)
}
