package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avinasha18/interview-proctor/internal/models"
)

func TestRecordingLifecycle(t *testing.T) {
	env := newTestEnv(t)
	iv, _ := env.start(t, "alice@x.com")
	base := "/api/recording/" + iv.ID

	resp, body := env.do(t, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Info)
	info := decodeData[models.RecordingInfo](t, body)
	assert.Equal(t, "Alice Smith", info.CandidateName)

	resp, body = env.do(t, http.MethodPost, base+"/chunk", models.RecordingChunkRequest{VideoBlob: webmBlob(2048)})
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Info)

	resp, body = env.do(t, http.MethodGet, base+"/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decodeData[models.RecordingStatusResponse](t, body)
	require.NotNil(t, status.Status)
	assert.Equal(t, 1, status.Status.ChunksCount)
	assert.Equal(t, models.RecordingActive, status.RecordingStatus)

	resp, body = env.do(t, http.MethodGet, "/api/recording/debug/active", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decodeData[activeRecordingsResponse](t, body).Count)

	resp, body = env.do(t, http.MethodPost, base+"/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Info)
	url := decodeData[stopResponse](t, body).VideoURL
	assert.Equal(t, "/videos/interview_"+iv.ID+"_Alice_Smith.webm", url)
	_, err := os.Stat(filepath.Join(env.videoDir, strings.TrimPrefix(url, "/videos/")))
	assert.NoError(t, err)

	stored := env.status(t, iv.ID)
	assert.Equal(t, models.RecordingCompleted, stored.RecordingStatus)
	require.NotNil(t, stored.VideoURL)
	assert.Equal(t, url, *stored.VideoURL)

	resp, _ = env.do(t, http.MethodPost, base+"/stop", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecordingChunkErrors(t *testing.T) {
	env := newTestEnv(t)
	iv, _ := env.start(t, "alice@x.com")
	base := "/api/recording/" + iv.ID

	resp, _ := env.do(t, http.MethodPost, base+"/chunk", models.RecordingChunkRequest{VideoBlob: webmBlob(1024)})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "no recording started")

	resp, _ = env.do(t, http.MethodPost, base+"/start", map[string]string{"candidateName": "Alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, base+"/chunk", models.RecordingChunkRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, base+"/chunk", models.RecordingChunkRequest{VideoBlob: webmBlob(49400)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "video chunk too large", body.Info)

	resp, _ = env.do(t, http.MethodPost, base+"/chunk", models.RecordingChunkRequest{VideoBlob: "data:video/webm;base64,!!!"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/recording/missing/start", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecordingStopRejectsInvalidFile(t *testing.T) {
	env := newTestEnv(t)
	iv, _ := env.start(t, "alice@x.com")
	base := "/api/recording/" + iv.ID

	resp, _ := env.do(t, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, http.MethodPost, base+"/chunk", models.RecordingChunkRequest{VideoBlob: webmBlob(16)})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, base+"/stop", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.RecordingFailed, env.status(t, iv.ID).RecordingStatus)
}

func TestRecordingCleanup(t *testing.T) {
	env := newTestEnv(t)
	iv, _ := env.start(t, "alice@x.com")

	resp, body := env.do(t, http.MethodPost, "/api/recording/cleanup/"+iv.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decodeData[cleanupResponse](t, body).Processed)

	resp, _ = env.do(t, http.MethodPost, "/api/recording/"+iv.ID+"/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.do(t, http.MethodPost, "/api/recording/"+iv.ID+"/chunk", models.RecordingChunkRequest{VideoBlob: webmBlob(4096)})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/api/recording/cleanup/"+iv.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Info)
	cleaned := decodeData[cleanupResponse](t, body)
	assert.True(t, cleaned.Processed)
	assert.NotEmpty(t, cleaned.VideoURL)
}

func TestRecordingStatusUnknownInterview(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/api/recording/missing/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decodeData[models.RecordingStatusResponse](t, body)
	assert.Nil(t, status.Status)
	assert.Equal(t, models.RecordingNotStarted, status.RecordingStatus)
}
