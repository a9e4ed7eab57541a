package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/services"
	"github.com/avinasha18/interview-proctor/internal/session"
	"github.com/avinasha18/interview-proctor/internal/utils"
)

type InterviewHandler struct {
	svc      *services.InterviewService
	coord    *session.Coordinator
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewInterviewHandler(svc *services.InterviewService, coord *session.Coordinator, jwtSecret []byte, tokenTTL time.Duration, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{
		svc:      svc,
		coord:    coord,
		secret:   jwtSecret,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

type emailRequest struct {
	Email string `json:"email"`
}

type interviewerAuthResponse struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string      `json:"token"`
	Role  models.Role `json:"role"`
}

type endRequest struct {
	EndedBy string `json:"endedBy"`
}

type relayResponse struct {
	Forwarded bool `json:"forwarded"`
}

func (h *InterviewHandler) ScheduleHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ScheduleRequest
	if err := decodeJSON(r, &req, false); err != nil {
		utils.WriteErr(w, err)
		return
	}
	interview, err := h.svc.Create(r.Context(),
		models.Participant{Name: req.CandidateName, Email: req.CandidateEmail},
		models.Participant{Name: req.InterviewerName, Email: req.InterviewerEmail})
	if err != nil {
		h.logger.Info("schedule rejected", zap.Error(err))
		utils.WriteErr(w, err)
		return
	}
	h.logger.Info("interview scheduled",
		zap.String("interviewId", interview.ID),
		zap.String("interviewerEmail", interview.InterviewerEmail))
	utils.WriteData(w, http.StatusCreated, interview)
}

// JoinHandler activates the interview behind a join code and hands the
// candidate a participant token for the websocket.
func (h *InterviewHandler) JoinHandler(w http.ResponseWriter, r *http.Request) {
	interview, err := h.coord.Activate(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	token, err := utils.IssueParticipantToken(h.secret, interview.ID, models.RoleCandidate, interview.CandidateEmail, h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to issue candidate token", zap.String("interviewId", interview.ID), zap.Error(err))
		utils.WriteErr(w, err)
		return
	}
	utils.WriteData(w, http.StatusOK, models.JoinResponse{Interview: interview, Token: token})
}

// AuthenticateInterviewerHandler only checks that the email is well formed.
func (h *InterviewHandler) AuthenticateInterviewerHandler(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req, false); err != nil {
		utils.WriteErr(w, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !services.ValidEmail(email) {
		utils.WriteError(w, http.StatusBadRequest, "valid email address is required")
		return
	}
	utils.WriteData(w, http.StatusOK, interviewerAuthResponse{Email: email, Message: "authentication successful"})
}

// TokenHandler issues an interviewer token for the interview's own interviewer.
func (h *InterviewHandler) TokenHandler(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req, false); err != nil {
		utils.WriteErr(w, err)
		return
	}
	interview, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != interview.InterviewerEmail {
		utils.WriteErr(w, fmt.Errorf("%w: email is not this interview's interviewer", models.ErrValidation))
		return
	}
	token, err := utils.IssueParticipantToken(h.secret, interview.ID, models.RoleInterviewer, email, h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to issue interviewer token", zap.String("interviewId", interview.ID), zap.Error(err))
		utils.WriteErr(w, err)
		return
	}
	utils.WriteData(w, http.StatusOK, tokenResponse{Token: token, Role: models.RoleInterviewer})
}

func (h *InterviewHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	result, err := h.svc.List(r.Context(), page, limit)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteData(w, http.StatusOK, result)
}

func (h *InterviewHandler) ListByInterviewerHandler(w http.ResponseWriter, r *http.Request) {
	interviews, err := h.svc.ListByInterviewer(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteData(w, http.StatusOK, interviews)
}

func (h *InterviewHandler) ListByCandidateHandler(w http.ResponseWriter, r *http.Request) {
	interviews, err := h.svc.ListByCandidate(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteData(w, http.StatusOK, interviews)
}

func (h *InterviewHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	interview, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteData(w, http.StatusOK, interview)
}

func (h *InterviewHandler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	result, err := h.svc.Events(r.Context(), chi.URLParam(r, "id"), page, limit)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteData(w, http.StatusOK, result)
}

// EndHandler is the interviewer's explicit end over HTTP. Ending an already
// finished interview answers 200 with transitioned=false.
func (h *InterviewHandler) EndHandler(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if err := decodeJSON(r, &req, true); err != nil {
		utils.WriteErr(w, err)
		return
	}
	if req.EndedBy == "" {
		req.EndedBy = string(models.RoleInterviewer)
	}
	id := chi.URLParam(r, "id")
	interview, transitioned, err := h.coord.EndInterview(r.Context(), id, req.EndedBy)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	h.logger.Info("interview end requested",
		zap.String("interviewId", id),
		zap.String("status", string(interview.Status)),
		zap.Bool("transitioned", transitioned))
	utils.WriteData(w, http.StatusOK, models.EndResponse{Interview: interview, Transitioned: transitioned})
}

// DisconnectHandler records a candidate connection loss reported by the client.
func (h *InterviewHandler) DisconnectHandler(w http.ResponseWriter, r *http.Request) {
	interview, err := h.coord.Disconnect(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteData(w, http.StatusOK, interview)
}

// VideoStreamHandler relays one frame to the interviewers connected to the room.
func (h *InterviewHandler) VideoStreamHandler(w http.ResponseWriter, r *http.Request) {
	var frame models.VideoFrame
	if err := decodeJSON(r, &frame, false); err != nil {
		utils.WriteErr(w, err)
		return
	}
	if frame.Image == "" {
		utils.WriteError(w, http.StatusBadRequest, "image is required")
		return
	}
	forwarded := h.coord.RelayFrameHTTP(chi.URLParam(r, "id"), frame)
	utils.WriteData(w, http.StatusOK, relayResponse{Forwarded: forwarded})
}
