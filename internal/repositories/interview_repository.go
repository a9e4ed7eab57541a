package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/avinasha18/interview-proctor/internal/models"
)

type InterviewRepository struct {
	DB *gorm.DB
}

func (r *InterviewRepository) Create(ctx context.Context, interview *models.Interview) error {
	err := r.DB.WithContext(ctx).Create(interview).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: interview code or candidate email already in use", models.ErrConflict)
	}
	if err != nil {
		return storageErr("create interview", err)
	}
	return nil
}

func (r *InterviewRepository) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *InterviewRepository) GetByCode(ctx context.Context, code string) (*models.Interview, error) {
	return r.first(ctx, "interview_code = ?", code)
}

func (r *InterviewRepository) first(ctx context.Context, query string, arg any) (*models.Interview, error) {
	var interview models.Interview
	err := r.DB.WithContext(ctx).Where(query, arg).First(&interview).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: interview", models.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("load interview", err)
	}
	return &interview, nil
}

func (r *InterviewRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, "interview_code = ?", code)
}

func (r *InterviewRepository) CandidateEmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "candidate_email = ?", email)
}

func (r *InterviewRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Interview{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, storageErr("count interviews", err)
	}
	return count > 0, nil
}

func (r *InterviewRepository) List(ctx context.Context, page, limit int) ([]models.Interview, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Interview{}).Count(&total).Error; err != nil {
		return nil, 0, storageErr("count interviews", err)
	}
	interviews := []models.Interview{}
	err := r.DB.WithContext(ctx).
		Order("start_time DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&interviews).Error
	if err != nil {
		return nil, 0, storageErr("list interviews", err)
	}
	return interviews, total, nil
}

func (r *InterviewRepository) ListByInterviewer(ctx context.Context, email string) ([]models.Interview, error) {
	return r.listWhere(ctx, "interviewer_email = ?", email)
}

func (r *InterviewRepository) ListByCandidate(ctx context.Context, email string) ([]models.Interview, error) {
	return r.listWhere(ctx, "candidate_email = ?", email)
}

func (r *InterviewRepository) listWhere(ctx context.Context, query string, arg any) ([]models.Interview, error) {
	interviews := []models.Interview{}
	if err := r.DB.WithContext(ctx).Where(query, arg).Order("start_time DESC").Find(&interviews).Error; err != nil {
		return nil, storageErr("list interviews", err)
	}
	return interviews, nil
}

// Activate moves scheduled -> active in a single conditional update.
func (r *InterviewRepository) Activate(ctx context.Context, id string, startTime time.Time) (bool, error) {
	result := r.DB.WithContext(ctx).
		Model(&models.Interview{}).
		Where("id = ? AND status = ?", id, models.StatusScheduled).
		Updates(map[string]any{
			"status":     models.StatusActive,
			"start_time": startTime,
		})
	if result.Error != nil {
		return false, storageErr("activate interview", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Finalize writes the terminal status and all derived stats together, only
// if the interview is still active.
func (r *InterviewRepository) Finalize(ctx context.Context, id string, stats models.FinalStats) (bool, error) {
	result := r.DB.WithContext(ctx).
		Model(&models.Interview{}).
		Where("id = ? AND status = ?", id, models.StatusActive).
		Updates(map[string]any{
			"status":                  stats.Status,
			"end_time":                stats.EndTime,
			"duration":                stats.Duration,
			"total_events":            stats.TotalEvents,
			"focus_lost_count":        stats.FocusLostCount,
			"suspicious_events_count": stats.SuspiciousEventsCount,
			"integrity_score":         stats.IntegrityScore,
		})
	if result.Error != nil {
		return false, storageErr("finalize interview", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *InterviewRepository) UpdateRecording(ctx context.Context, id string, status models.RecordingStatus, videoURL *string) error {
	updates := map[string]any{"recording_status": status}
	if videoURL != nil {
		updates["video_url"] = *videoURL
	}
	result := r.DB.WithContext(ctx).Model(&models.Interview{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return storageErr("update recording", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: interview", models.ErrNotFound)
	}
	return nil
}

func (r *InterviewRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return storageErr("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}
