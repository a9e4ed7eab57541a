package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/repositories"
	"github.com/avinasha18/interview-proctor/internal/services"
	"github.com/avinasha18/interview-proctor/internal/session"
	"github.com/avinasha18/interview-proctor/internal/storage"
	"github.com/avinasha18/interview-proctor/internal/testhelpers"
)

var testSecret = []byte("handlers-test-secret")

const testMaxChunk = 64 << 10

type testEnv struct {
	svc        *services.InterviewService
	coord      *session.Coordinator
	recordings *services.RecordingService
	server     *httptest.Server
	videoDir   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithTimeout(t, 5*time.Second)
}

// newTestEnvWithTimeout sets how long a silent socket survives.
func newTestEnvWithTimeout(t *testing.T, heartbeatTimeout time.Duration) *testEnv {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	logger := zap.NewNop()
	svc := services.NewInterviewService(&repositories.InterviewRepository{DB: db}, &repositories.EventRepository{DB: db}, logger)
	coord := session.NewCoordinator(svc, testSecret, logger)

	videoDir := filepath.Join(t.TempDir(), "videos")
	store, err := storage.NewLocalStore(videoDir, "/videos")
	require.NoError(t, err)
	recordings, err := services.NewRecordingService(svc, store, t.TempDir(), testMaxChunk, logger)
	require.NoError(t, err)

	interviews := NewInterviewHandler(svc, coord, testSecret, time.Hour, logger)
	events := NewEventHandler(coord, logger)
	reports := NewReportHandler(svc, logger)
	recs := NewRecordingHandler(recordings, svc, testMaxChunk, logger)
	ws := NewWSHandler(coord, []string{"*"}, 50*time.Millisecond, heartbeatTimeout, logger)
	health := NewHealthHandler(svc)

	r := chi.NewRouter()
	r.Get("/healthz", health.HealthzHandler)
	r.Get("/readyz", health.ReadyzHandler)
	r.Route("/api/interviews", func(r chi.Router) {
		r.Get("/", interviews.ListHandler)
		r.Post("/schedule", interviews.ScheduleHandler)
		r.Post("/join/{code}", interviews.JoinHandler)
		r.Post("/authenticate-interviewer", interviews.AuthenticateInterviewerHandler)
		r.Get("/interviewer/{email}", interviews.ListByInterviewerHandler)
		r.Get("/candidate/{email}", interviews.ListByCandidateHandler)
		r.Get("/{id}", interviews.GetHandler)
		r.Get("/{id}/events", interviews.EventsHandler)
		r.Post("/{id}/token", interviews.TokenHandler)
		r.Post("/{id}/end", interviews.EndHandler)
		r.Post("/{id}/disconnect", interviews.DisconnectHandler)
		r.Post("/{id}/video-stream", interviews.VideoStreamHandler)
	})
	r.Post("/api/events/{interviewId}", events.IngestHandler)
	r.Get("/api/reports/{id}/summary", reports.SummaryHandler)
	r.Get("/api/reports/{id}/csv", reports.CSVHandler)
	r.Get("/api/reports/{id}/txt", reports.TextHandler)
	r.Route("/api/recording", func(r chi.Router) {
		r.Get("/debug/active", recs.ActiveHandler)
		r.Post("/cleanup/{id}", recs.CleanupHandler)
		r.Post("/{id}/start", recs.StartHandler)
		r.Post("/{id}/chunk", recs.ChunkHandler)
		r.Post("/{id}/stop", recs.StopHandler)
		r.Get("/{id}/status", recs.StatusHandler)
	})
	r.Get("/ws/interviews/{id}", ws.InterviewWS)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testEnv{svc: svc, coord: coord, recordings: recordings, server: srv, videoDir: videoDir}
}

type envelope struct {
	OK   bool            `json:"ok"`
	Info string          `json:"info"`
	Data json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env))
	} else {
		env.Data = raw
	}
	return resp, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (e *testEnv) schedule(t *testing.T, candidateEmail string) *models.Interview {
	t.Helper()
	resp, env := e.do(t, http.MethodPost, "/api/interviews/schedule", models.ScheduleRequest{
		CandidateName:    "Alice Smith",
		CandidateEmail:   candidateEmail,
		InterviewerName:  "Bob",
		InterviewerEmail: "bob@x.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Info)
	iv := decodeData[models.Interview](t, env)
	return &iv
}

// start schedules and joins an interview, returning it with the candidate token.
func (e *testEnv) start(t *testing.T, candidateEmail string) (*models.Interview, string) {
	t.Helper()
	iv := e.schedule(t, candidateEmail)
	resp, env := e.do(t, http.MethodPost, "/api/interviews/join/"+iv.InterviewCode, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Info)
	joined := decodeData[models.JoinResponse](t, env)
	return joined.Interview, joined.Token
}

func (e *testEnv) interviewerToken(t *testing.T, id string) string {
	t.Helper()
	resp, env := e.do(t, http.MethodPost, "/api/interviews/"+id+"/token", emailRequest{Email: "bob@x.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Info)
	return decodeData[tokenResponse](t, env).Token
}

func (e *testEnv) postEvent(t *testing.T, id string, payload map[string]any) *http.Response {
	t.Helper()
	resp, _ := e.do(t, http.MethodPost, "/api/events/"+id, payload)
	return resp
}

func (e *testEnv) status(t *testing.T, id string) *models.Interview {
	t.Helper()
	iv, err := e.svc.Get(context.Background(), id)
	require.NoError(t, err)
	return iv
}

// dial opens a socket to the interview room without joining.
func (e *testEnv) dial(t *testing.T, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws/interviews/" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// connect dials and completes join-interview.
func (e *testEnv) connect(t *testing.T, id, token string) *websocket.Conn {
	t.Helper()
	conn := e.dial(t, id)
	require.NoError(t, conn.WriteJSON(models.WSFrame{Type: models.SignalJoin, Data: models.JoinRequest{InterviewID: id, Token: token}}))
	frame := readFrame(t, conn)
	require.Equal(t, models.SignalJoined, frame.Type, "%v", frame.Data)
	return conn
}

type rawFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) rawFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f rawFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// readUntil skips frames until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) rawFrame {
	t.Helper()
	for {
		f := readFrame(t, conn)
		if f.Type == typ {
			return f
		}
	}
}

// webmBlob is a data URL whose payload starts with the EBML header.
func webmBlob(size int) string {
	data := make([]byte, size)
	copy(data, []byte{0x1A, 0x45, 0xDF, 0xA3})
	return "data:video/webm;base64," + base64.StdEncoding.EncodeToString(data)
}
