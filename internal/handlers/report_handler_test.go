package handlers

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/reports"
)

func finishedInterview(t *testing.T, env *testEnv) *models.Interview {
	t.Helper()
	iv, _ := env.start(t, "alice@x.com")
	for _, payload := range []map[string]any{
		{"eventType": "focus_lost", "message": "Looked away", "metadata": map[string]any{"duration": 5}, "timestamp": 1714658400},
		{"eventType": "suspicious_object", "severity": "high", "message": "Book", "metadata": map[string]any{"object": "book"}, "timestamp": 1714658460},
	} {
		require.Equal(t, http.StatusCreated, env.postEvent(t, iv.ID, payload).StatusCode)
	}
	resp, _ := env.do(t, http.MethodPost, "/api/interviews/"+iv.ID+"/end", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return env.status(t, iv.ID)
}

func TestSummaryHandler(t *testing.T) {
	env := newTestEnv(t)
	iv := finishedInterview(t, env)

	resp, body := env.do(t, http.MethodGet, "/api/reports/"+iv.ID+"/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decodeData[reports.Summary](t, body)
	assert.Equal(t, 92, summary.Statistics.IntegrityScore)
	assert.Equal(t, 1, summary.Statistics.FocusLostCount)
	assert.Equal(t, 1, summary.Statistics.SeverityCounts[models.SeverityHigh])
	require.Len(t, summary.Events, 2)
	assert.Equal(t, models.EventFocusLost, summary.Events[0].EventType, "oldest first")

	resp, _ = env.do(t, http.MethodGet, "/api/reports/missing/summary", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCSVHandler(t *testing.T) {
	env := newTestEnv(t)
	iv := finishedInterview(t, env)

	resp, body := env.do(t, http.MethodGet, "/api/reports/"+iv.ID+"/csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "proctoring-report-"+iv.SessionID+".csv")

	rows, err := csv.NewReader(strings.NewReader(string(body.Data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2024-05-02T14:00:00Z", "FOCUS LOST", "Looked away", "MEDIUM"}, rows[1])
}

func TestTextHandler(t *testing.T) {
	env := newTestEnv(t)
	iv := finishedInterview(t, env)

	resp, body := env.do(t, http.MethodGet, "/api/reports/"+iv.ID+"/txt", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
	text := string(body.Data)
	assert.Contains(t, text, "Integrity Score:  92/100")
	assert.Contains(t, text, "Most frequently detected: book")
	assert.Contains(t, text, "Average focus loss duration: 5 seconds")
}
