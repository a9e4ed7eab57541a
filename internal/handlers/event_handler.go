package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/session"
	"github.com/avinasha18/interview-proctor/internal/utils"
)

// EventHandler receives detector callbacks.
type EventHandler struct {
	coord  *session.Coordinator
	logger *zap.Logger
	now    func() time.Time
}

func NewEventHandler(coord *session.Coordinator, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		coord:  coord,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// IngestHandler stores the event and pushes it to the room. A 503 tells the
// detector to retry.
func (h *EventHandler) IngestHandler(w http.ResponseWriter, r *http.Request) {
	var payload models.DetectorEvent
	if err := decodeJSON(r, &payload, false); err != nil {
		utils.WriteErr(w, err)
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.WriteError(w, http.StatusBadRequest, "message is required")
		return
	}
	interviewID := chi.URLParam(r, "interviewId")
	event := payload.ToEvent(interviewID, h.now())
	if err := h.coord.IngestEvent(r.Context(), event); err != nil {
		if utils.StatusFor(err) >= http.StatusInternalServerError {
			h.logger.Error("event not stored", zap.String("interviewId", interviewID), zap.Error(err))
		}
		utils.WriteErr(w, err)
		return
	}
	utils.WriteData(w, http.StatusCreated, event)
}
