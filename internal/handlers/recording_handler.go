package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/services"
	"github.com/avinasha18/interview-proctor/internal/utils"
)

// room for the JSON envelope around a videoBlob
const chunkBodySlack = 4096

type RecordingHandler struct {
	recordings *services.RecordingService
	svc        *services.InterviewService
	maxChunk   int64
	logger     *zap.Logger
}

func NewRecordingHandler(recordings *services.RecordingService, svc *services.InterviewService, maxChunk int64, logger *zap.Logger) *RecordingHandler {
	return &RecordingHandler{recordings: recordings, svc: svc, maxChunk: maxChunk, logger: logger}
}

type stopResponse struct {
	VideoURL string `json:"videoUrl"`
}

type cleanupResponse struct {
	Processed bool   `json:"processed"`
	VideoURL  string `json:"videoUrl,omitempty"`
}

type activeRecordingsResponse struct {
	ActiveRecordings []models.RecordingInfo `json:"activeRecordings"`
	Count            int                    `json:"count"`
}

func (h *RecordingHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RecordingStartRequest
	if err := decodeJSON(r, &req, true); err != nil {
		utils.WriteErr(w, err)
		return
	}
	info, err := h.recordings.Start(r.Context(), chi.URLParam(r, "id"), req.CandidateName)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteData(w, http.StatusOK, info)
}

func (h *RecordingHandler) ChunkHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxChunk+chunkBodySlack)
	var req models.RecordingChunkRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.chunkError(w, err)
		return
	}
	if err := h.recordings.AddChunk(r.Context(), chi.URLParam(r, "id"), req.VideoBlob); err != nil {
		h.chunkError(w, err)
		return
	}
	utils.WriteData(w, http.StatusOK, nil)
}

func (h *RecordingHandler) chunkError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.Is(err, services.ErrChunkTooLarge) || errors.As(err, &tooLarge) {
		utils.WriteError(w, http.StatusRequestEntityTooLarge, services.ErrChunkTooLarge.Error())
		return
	}
	utils.WriteErr(w, err)
}

func (h *RecordingHandler) StopHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	url, err := h.recordings.Stop(r.Context(), id)
	if err != nil {
		h.logger.Warn("recording stop failed", zap.String("interviewId", id), zap.Error(err))
		utils.WriteErr(w, err)
		return
	}
	utils.WriteData(w, http.StatusOK, stopResponse{VideoURL: url})
}

// StatusHandler reports the in-memory recording, if any, alongside the
// persisted recording fields.
func (h *RecordingHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp := models.RecordingStatusResponse{
		Status:          h.recordings.Status(id),
		RecordingStatus: models.RecordingNotStarted,
	}
	interview, err := h.svc.Get(r.Context(), id)
	switch {
	case err == nil:
		resp.RecordingStatus = interview.RecordingStatus
		resp.VideoURL = interview.VideoURL
	case !errors.Is(err, models.ErrNotFound):
		utils.WriteErr(w, err)
		return
	}
	utils.WriteData(w, http.StatusOK, resp)
}

// CleanupHandler stops and uploads a recording left running.
func (h *RecordingHandler) CleanupHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	url, processed, err := h.recordings.Cleanup(r.Context(), id)
	if err != nil {
		h.logger.Warn("recording cleanup failed", zap.String("interviewId", id), zap.Error(err))
		utils.WriteErr(w, err)
		return
	}
	utils.WriteData(w, http.StatusOK, cleanupResponse{Processed: processed, VideoURL: url})
}

func (h *RecordingHandler) ActiveHandler(w http.ResponseWriter, _ *http.Request) {
	active := h.recordings.Active()
	utils.WriteData(w, http.StatusOK, activeRecordingsResponse{ActiveRecordings: active, Count: len(active)})
}
