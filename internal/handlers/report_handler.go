package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/reports"
	"github.com/avinasha18/interview-proctor/internal/services"
	"github.com/avinasha18/interview-proctor/internal/utils"
)

type ReportHandler struct {
	svc    *services.InterviewService
	logger *zap.Logger
}

func NewReportHandler(svc *services.InterviewService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, logger: logger}
}

func (h *ReportHandler) load(r *http.Request) (*models.Interview, []models.Event, error) {
	id := chi.URLParam(r, "id")
	interview, err := h.svc.Get(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	events, err := h.svc.AllEvents(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	return interview, events, nil
}

func (h *ReportHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	interview, events, err := h.load(r)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	utils.WriteData(w, http.StatusOK, reports.BuildSummary(interview, events))
}

func (h *ReportHandler) CSVHandler(w http.ResponseWriter, r *http.Request) {
	interview, events, err := h.load(r)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	var buf bytes.Buffer
	if err := reports.WriteCSV(&buf, events); err != nil {
		h.logger.Error("csv report failed", zap.String("interviewId", interview.ID), zap.Error(err))
		utils.WriteErr(w, err)
		return
	}
	attachment(w, "text/csv", reports.Filename(interview, "csv"))
	w.Write(buf.Bytes())
}

func (h *ReportHandler) TextHandler(w http.ResponseWriter, r *http.Request) {
	interview, events, err := h.load(r)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}
	var buf bytes.Buffer
	if err := reports.WriteText(&buf, interview, events); err != nil {
		h.logger.Error("text report failed", zap.String("interviewId", interview.ID), zap.Error(err))
		utils.WriteErr(w, err)
		return
	}
	attachment(w, "text/plain; charset=utf-8", reports.Filename(interview, "txt"))
	w.Write(buf.Bytes())
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
}
