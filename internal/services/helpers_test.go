package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/repositories"
	"github.com/avinasha18/interview-proctor/internal/testhelpers"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.InterviewFinalized
}

func (n *recordingNotifier) InterviewFinalized(_ context.Context, evt models.InterviewFinalized) {
	n.mu.Lock()
	n.events = append(n.events, evt)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func newTestService(t *testing.T) (*InterviewService, *fakeClock) {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	svc := NewInterviewService(&repositories.InterviewRepository{DB: db}, &repositories.EventRepository{DB: db}, zap.NewNop())
	clock := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	return svc, clock
}

func scheduleInterview(t *testing.T, svc *InterviewService, email string) *models.Interview {
	t.Helper()
	iv, err := svc.Create(context.Background(),
		models.Participant{Name: "Alice", Email: email},
		models.Participant{Name: "Bob", Email: "bob@corp.io"})
	require.NoError(t, err)
	return iv
}

func startInterview(t *testing.T, svc *InterviewService, email string) *models.Interview {
	t.Helper()
	iv := scheduleInterview(t, svc, email)
	active, err := svc.Activate(context.Background(), iv.InterviewCode)
	require.NoError(t, err)
	return active
}

func detectorEvent(interviewID string, typ models.EventType, at time.Time) *models.Event {
	return &models.Event{
		InterviewID: interviewID,
		EventType:   typ,
		Severity:    models.SeverityMedium,
		Message:     string(typ),
		Timestamp:   at,
	}
}
