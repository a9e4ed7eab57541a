package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avinasha18/interview-proctor/internal/metrics"
	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/repositories"
	"github.com/avinasha18/interview-proctor/internal/scoring"
)

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength      = 6
	maxCodeAttempts = 5
)

// InterviewService owns the interview lifecycle: scheduled -> active -> completed|terminated.
type InterviewService struct {
	interviews repositories.InterviewStore
	events     repositories.EventStore
	notifier   FinalizeNotifier
	logger     *zap.Logger
	now        func() time.Time
	newCode    func() (string, error)
}

// FinalizeNotifier is told about each interview exactly once, by the
// Finalize call that performed the transition.
type FinalizeNotifier interface {
	InterviewFinalized(ctx context.Context, evt models.InterviewFinalized)
}

func NewInterviewService(interviews repositories.InterviewStore, events repositories.EventStore, logger *zap.Logger) *InterviewService {
	return &InterviewService{
		interviews: interviews,
		events:     events,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newCode:    generateCode,
	}
}

func (s *InterviewService) SetNotifier(n FinalizeNotifier) { s.notifier = n }

// Create schedules a new interview with a fresh join code.
func (s *InterviewService) Create(ctx context.Context, candidate, interviewer models.Participant) (*models.Interview, error) {
	candidate, err := normalizeParticipant("candidate", candidate)
	if err != nil {
		return nil, err
	}
	interviewer, err = normalizeParticipant("interviewer", interviewer)
	if err != nil {
		return nil, err
	}

	taken, err := s.interviews.CandidateEmailExists(ctx, candidate.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: an interview already exists for %s", models.ErrConflict, candidate.Email)
	}

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	interview := &models.Interview{
		ID:               uuid.New().String(),
		SessionID:        uuid.New().String(),
		InterviewCode:    code,
		CandidateName:    candidate.Name,
		CandidateEmail:   candidate.Email,
		InterviewerName:  interviewer.Name,
		InterviewerEmail: interviewer.Email,
		Status:           models.StatusScheduled,
		StartTime:        s.now(),
		IntegrityScore:   scoring.BaseScore,
		RecordingStatus:  models.RecordingNotStarted,
	}
	if err := s.interviews.Create(ctx, interview); err != nil {
		return nil, err
	}
	s.logger.Info("interview scheduled",
		zap.String("interviewId", interview.ID),
		zap.String("code", interview.InterviewCode),
		zap.String("interviewer", interview.InterviewerEmail))
	return interview, nil
}

func (s *InterviewService) uniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		exists, err := s.interviews.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: could not allocate a unique interview code", models.ErrConflict)
}

func generateCode() (string, error) {
	b := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

func normalizeParticipant(role string, p models.Participant) (models.Participant, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Name == "" {
		return p, fmt.Errorf("%w: %s name is required", models.ErrValidation, role)
	}
	if !ValidEmail(p.Email) {
		return p, fmt.Errorf("%w: %s email %q is invalid", models.ErrValidation, role, p.Email)
	}
	return p, nil
}

// ValidEmail accepts a bare address (no display name).
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Activate moves the interview behind joinCode from scheduled to active.
func (s *InterviewService) Activate(ctx context.Context, joinCode string) (*models.Interview, error) {
	code := strings.ToUpper(strings.TrimSpace(joinCode))
	if code == "" {
		return nil, fmt.Errorf("%w: interview code is required", models.ErrValidation)
	}
	interview, err := s.interviews.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if interview.Status != models.StatusScheduled {
		return nil, fmt.Errorf("%w: interview is %s", models.ErrInvalidState, interview.Status)
	}

	startedAt := s.now()
	ok, err := s.interviews.Activate(ctx, interview.ID, startedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: interview was already started", models.ErrInvalidState)
	}
	interview.Status = models.StatusActive
	interview.StartTime = startedAt
	s.logger.Info("interview activated", zap.String("interviewId", interview.ID))
	return interview, nil
}

// Finalize ends an active interview. Repeated calls return the stored terminal
// record with transitioned=false; only the first caller writes.
func (s *InterviewService) Finalize(ctx context.Context, id string, reason models.EndReason) (*models.Interview, bool, error) {
	if !reason.Valid() {
		return nil, false, fmt.Errorf("%w: unknown end reason %q", models.ErrValidation, reason)
	}
	interview, err := s.interviews.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	switch {
	case interview.Status.IsTerminal():
		metrics.Finalized(string(reason), false)
		return interview, false, nil
	case interview.Status == models.StatusScheduled:
		return nil, false, fmt.Errorf("%w: interview has not started", models.ErrInvalidState)
	}

	events, err := s.events.AllByInterview(ctx, id)
	if err != nil {
		return nil, false, err
	}
	tally := scoring.Tally(events)
	endTime := s.now()
	stats := models.FinalStats{
		Status:                reason.TerminalStatus(),
		EndTime:               endTime,
		Duration:              durationMinutes(interview.StartTime, endTime),
		TotalEvents:           tally.TotalEvents,
		FocusLostCount:        tally.FocusLostCount,
		SuspiciousEventsCount: tally.SuspiciousEventsCount,
		IntegrityScore:        tally.IntegrityScore,
	}

	won, err := s.interviews.Finalize(ctx, id, stats)
	if err != nil {
		return nil, false, err
	}
	metrics.Finalized(string(reason), won)
	if !won {
		current, err := s.interviews.GetByID(ctx, id)
		if err != nil {
			return nil, false, err
		}
		return current, false, nil
	}

	interview.Status = stats.Status
	interview.EndTime = &endTime
	interview.Duration = stats.Duration
	interview.TotalEvents = stats.TotalEvents
	interview.FocusLostCount = stats.FocusLostCount
	interview.SuspiciousEventsCount = stats.SuspiciousEventsCount
	interview.IntegrityScore = stats.IntegrityScore
	s.logger.Info("interview finalized",
		zap.String("interviewId", id),
		zap.String("reason", string(reason)),
		zap.String("status", string(stats.Status)),
		zap.Int("integrityScore", stats.IntegrityScore),
		zap.Int("totalEvents", stats.TotalEvents))
	if s.notifier != nil {
		s.notifier.InterviewFinalized(ctx, models.InterviewFinalized{
			InterviewID:    id,
			Status:         stats.Status,
			Reason:         reason,
			IntegrityScore: stats.IntegrityScore,
			EndedAt:        endTime,
		})
	}
	return interview, true, nil
}

// duration in whole minutes, rounded
func durationMinutes(start, end time.Time) int {
	if start.IsZero() || end.Before(start) {
		return 0
	}
	return int(math.Round(end.Sub(start).Minutes()))
}

func (s *InterviewService) Get(ctx context.Context, id string) (*models.Interview, error) {
	return s.interviews.GetByID(ctx, id)
}

func (s *InterviewService) List(ctx context.Context, page, limit int) (*models.InterviewPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	interviews, total, err := s.interviews.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	return &models.InterviewPage{Interviews: interviews, Pagination: models.NewPagination(page, limit, total)}, nil
}

func (s *InterviewService) ListByInterviewer(ctx context.Context, email string) ([]models.Interview, error) {
	return s.interviews.ListByInterviewer(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *InterviewService) ListByCandidate(ctx context.Context, email string) ([]models.Interview, error) {
	return s.interviews.ListByCandidate(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// Events pages the interview's event log, newest first.
func (s *InterviewService) Events(ctx context.Context, id string, page, limit int) (*models.EventPage, error) {
	if _, err := s.interviews.GetByID(ctx, id); err != nil {
		return nil, err
	}
	page, limit = repositories.NormalizePage(page, limit)
	events, total, err := s.events.ListByInterview(ctx, id, page, limit)
	if err != nil {
		return nil, err
	}
	return &models.EventPage{Events: events, Pagination: models.NewPagination(page, limit, total)}, nil
}

// RecordEvent appends a detector event for a known interview. Events are
// accepted in every lifecycle state.
func (s *InterviewService) RecordEvent(ctx context.Context, event *models.Event) error {
	if err := repositories.ValidateEvent(event); err != nil {
		return err
	}
	if _, err := s.interviews.GetByID(ctx, event.InterviewID); err != nil {
		return err
	}
	if err := s.events.Append(ctx, event); err != nil {
		return err
	}
	metrics.EventIngested(string(event.EventType), string(event.Severity))
	return nil
}

// AllEvents returns the full log, oldest first.
func (s *InterviewService) AllEvents(ctx context.Context, id string) ([]models.Event, error) {
	return s.events.AllByInterview(ctx, id)
}

// SetRecording updates recording linkage only; lifecycle status is untouched.
func (s *InterviewService) SetRecording(ctx context.Context, id string, status models.RecordingStatus, videoURL *string) error {
	return s.interviews.UpdateRecording(ctx, id, status, videoURL)
}

func (s *InterviewService) Ping(ctx context.Context) error {
	return s.interviews.Ping(ctx)
}
