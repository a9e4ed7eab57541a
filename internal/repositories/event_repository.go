package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avinasha18/interview-proctor/internal/models"
)

type EventRepository struct {
	DB *gorm.DB
}

func (r *EventRepository) Append(ctx context.Context, event *models.Event) error {
	if err := ValidateEvent(event); err != nil {
		return err
	}
	event.ID = uuid.New().String()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	// stored in UTC so text-backed timestamp columns still sort chronologically
	event.Timestamp = event.Timestamp.UTC()
	if err := r.DB.WithContext(ctx).Create(event).Error; err != nil {
		return storageErr("append event", err)
	}
	return nil
}

// ListByInterview returns one page of events, newest detector timestamp first.
func (r *EventRepository) ListByInterview(ctx context.Context, interviewID string, page, pageSize int) ([]models.Event, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Event{}).Where("interview_id = ?", interviewID).Count(&total).Error; err != nil {
		return nil, 0, storageErr("count events", err)
	}

	events := []models.Event{}
	err := r.DB.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order(byTimestamp(true)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&events).Error
	if err != nil {
		return nil, 0, storageErr("list events", err)
	}
	return events, total, nil
}

// AllByInterview returns the full log in chronological order.
func (r *EventRepository) AllByInterview(ctx context.Context, interviewID string) ([]models.Event, error) {
	events := []models.Event{}
	err := r.DB.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order(byTimestamp(false)).
		Find(&events).Error
	if err != nil {
		return nil, storageErr("load events", err)
	}
	return events, nil
}

// byTimestamp quotes the column; "timestamp" is a keyword in postgres.
func byTimestamp(desc bool) clause.OrderBy {
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "timestamp"}, Desc: desc},
		{Column: clause.Column{Name: "created_at"}, Desc: desc},
	}}
}

// ensure interface conformance
var (
	_ EventStore     = (*EventRepository)(nil)
	_ InterviewStore = (*InterviewRepository)(nil)
)
