package reports

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/avinasha18/interview-proctor/internal/models"
)

func fixture() (*models.Interview, []models.Event) {
	start := time.Date(2025, 5, 2, 14, 0, 0, 0, time.UTC)
	end := start.Add(42 * time.Minute)
	iv := &models.Interview{
		ID:                    "iv-1",
		SessionID:             "sess-1",
		CandidateName:         "Alice",
		InterviewerName:       "Bob",
		Status:                models.StatusCompleted,
		StartTime:             start,
		EndTime:               &end,
		Duration:              42,
		TotalEvents:           4,
		FocusLostCount:        2,
		SuspiciousEventsCount: 2,
		IntegrityScore:        84,
	}
	ev := func(offset time.Duration, typ models.EventType, sev models.Severity, msg string, meta datatypes.JSONMap) models.Event {
		return models.Event{InterviewID: "iv-1", EventType: typ, Severity: sev, Message: msg, Metadata: meta, Timestamp: start.Add(offset)}
	}
	events := []models.Event{
		ev(time.Minute, models.EventFocusLost, models.SeverityMedium, "Looked away", datatypes.JSONMap{"duration": 6.0}),
		ev(2*time.Minute, models.EventSuspiciousObject, models.SeverityHigh, "Phone, on desk", datatypes.JSONMap{"object": "cell_phone"}),
		ev(3*time.Minute, models.EventFocusLost, models.SeverityMedium, "Looked away", datatypes.JSONMap{"duration": 9.0}),
		ev(4*time.Minute, models.EventSuspiciousObject, models.SeverityHigh, "Phone again", datatypes.JSONMap{"object": "cell_phone"}),
		ev(5*time.Minute, models.EventEyeClosure, models.SeverityLow, "Eyes closed", nil),
	}
	return iv, events
}

func TestBuildSummaryUsesPersistedScore(t *testing.T) {
	iv, events := fixture()
	s := BuildSummary(iv, events)

	assert.Equal(t, 5, s.Statistics.TotalEvents)
	assert.Equal(t, 84, s.Statistics.IntegrityScore)
	assert.Equal(t, 2, s.Statistics.EventTypes[models.EventFocusLost])
	assert.Equal(t, 2, s.Statistics.SeverityCounts[models.SeverityHigh])
	assert.Equal(t, 1, s.Statistics.SeverityCounts[models.SeverityLow])
	assert.Equal(t, 6, s.Statistics.Breakdown.FocusLossDeduction)
	assert.Equal(t, 10, s.Statistics.Breakdown.SuspiciousDeduction)
	assert.Equal(t, 84, s.Statistics.Breakdown.Final)
	require.Len(t, s.Events, 5)
	assert.Equal(t, "sess-1", s.Interview.SessionID)
}

func TestWriteCSV(t *testing.T) {
	_, events := fixture()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, events))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"Timestamp", "Event Type", "Message", "Severity"}, rows[0])
	assert.Equal(t, []string{"2025-05-02T14:02:00Z", "SUSPICIOUS OBJECT", "Phone, on desk", "HIGH"}, rows[2])
}

func TestObjectCountsAndFocusAverage(t *testing.T) {
	_, events := fixture()
	assert.Equal(t, map[string]int{"cell_phone": 2}, ObjectCounts(events))

	avg, ok := AverageFocusLoss(events)
	require.True(t, ok)
	assert.Equal(t, 8, avg)

	_, ok = AverageFocusLoss(nil)
	assert.False(t, ok)
	assert.Equal(t, 3.0, number("3"))
	assert.Equal(t, 0.0, number(true))
}

func TestWriteText(t *testing.T) {
	iv, events := fixture()
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, iv, events))
	out := buf.String()

	for _, want := range []string{
		"Candidate Name:   Alice",
		"Duration:         42 minutes",
		"Integrity Score:  84/100",
		"Most frequently detected: cell_phone",
		"CELL PHONE",
		"Average focus loss duration: 8 seconds",
		"Focus Loss Deductions: -6 points",
		"Suspicious Event Deductions: -10 points",
		"EYE CLOSURE",
	} {
		assert.True(t, strings.Contains(out, want), "missing %q in report:\n%s", want, out)
	}
}

func TestWriteTextOngoing(t *testing.T) {
	iv, _ := fixture()
	iv.EndTime = nil
	iv.Status = models.StatusActive
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, iv, nil))
	assert.Contains(t, buf.String(), "End Time:         Ongoing")
	assert.Contains(t, buf.String(), "No suspicious objects detected")
}

func TestFilename(t *testing.T) {
	iv, _ := fixture()
	assert.Equal(t, "proctoring-report-sess-1.csv", Filename(iv, "csv"))
}
