package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/session"
)

const (
	// frames carry a compressed camera still
	maxMessageBytes = 2 << 20
	leaveTimeout    = 10 * time.Second
)

// WSHandler serves the per-interview signalling socket.
type WSHandler struct {
	coord    *session.Coordinator
	upgrader websocket.Upgrader
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func NewWSHandler(coord *session.Coordinator, allowedOrigins []string, interval, timeout time.Duration, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		coord:    coord,
		upgrader: websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// InterviewWS runs one participant connection. The first frame must be
// join-interview carrying a participant token for the interview in the path.
func (h *WSHandler) InterviewWS(w http.ResponseWriter, r *http.Request) {
	interviewID := chi.URLParam(r, "id")
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	client := session.NewClient(conn)
	defer client.Close()

	conn.SetReadLimit(maxMessageBytes)
	h.extendDeadline(conn)
	conn.SetPongHandler(func(string) error { h.extendDeadline(conn); return nil })

	stop := make(chan struct{})
	defer close(stop)
	go h.heartbeat(client, stop)

	var init models.WSFrame
	if err := conn.ReadJSON(&init); err != nil {
		return
	}
	if init.Type != models.SignalJoin {
		_ = client.Send(errFrame("expected " + models.SignalJoin))
		return
	}
	var req models.JoinRequest
	if err := marshal(init.Data, &req); err != nil {
		_ = client.Send(errFrame("invalid payload"))
		return
	}
	if req.InterviewID != "" && req.InterviewID != interviewID {
		_ = client.Send(errFrame("interviewId does not match the connection"))
		return
	}
	ack, err := h.coord.Join(r.Context(), interviewID, client, req.Token)
	if err != nil {
		_ = client.Send(errFrame(err.Error()))
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
		defer cancel()
		h.coord.Leave(ctx, client)
	}()
	_ = client.Send(models.WSFrame{Type: models.SignalJoined, Data: ack})

	for {
		var frame models.WSFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Info("websocket closed",
					zap.String("interviewId", interviewID),
					zap.String("clientId", client.ID),
					zap.Error(err))
			}
			return
		}
		h.extendDeadline(conn)

		var opErr error
		switch frame.Type {
		case models.SignalCandidateStarted:
			opErr = h.coord.CandidateStarted(r.Context(), client)

		case models.SignalEndInterview:
			_, _, opErr = h.coord.EndInterviewSignal(r.Context(), client)

		case models.SignalCandidateEnded:
			_, _, opErr = h.coord.CandidateEnded(r.Context(), client)

		case models.SignalCandidateLeaving:
			_, opErr = h.coord.CandidateLeaving(r.Context(), client)

		case models.SignalVideoFrame:
			var vf models.VideoFrame
			if err := marshal(frame.Data, &vf); err != nil {
				_ = client.Send(errFrame("invalid payload"))
				continue
			}
			opErr = h.coord.RelayFrame(client, vf)

		case models.SignalPing:
			_ = client.Send(models.WSFrame{Type: models.SignalPong})

		default:
			_ = client.Send(errFrame("unknown_type"))
		}
		if opErr != nil {
			_ = client.Send(errFrame(opErr.Error()))
		}
	}
}

func (h *WSHandler) extendDeadline(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(h.timeout))
}

// heartbeat pings until stop closes or a ping fails; a dead peer then trips
// the read deadline.
func (h *WSHandler) heartbeat(client *session.Client, stop <-chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := client.Ping(); err != nil {
				return
			}
		}
	}
}

// marshal re-decodes a generically parsed frame payload into out.
func marshal(in any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func errFrame(msg string) models.WSFrame { return models.WSFrame{Type: models.SignalError, Data: msg} }
