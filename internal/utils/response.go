package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avinasha18/interview-proctor/internal/models"
)

// WriteJSON writes resp with the given status code.
func WriteJSON(w http.ResponseWriter, code int, resp models.Resp) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

func WriteData(w http.ResponseWriter, code int, data any) {
	WriteJSON(w, code, models.Resp{OK: true, Data: data})
}

func WriteError(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, models.Resp{OK: false, Info: message})
}

// StatusFor maps the error classes onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidState), errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteErr answers with the status StatusFor picks. Internal errors are not echoed.
func WriteErr(w http.ResponseWriter, err error) {
	code := StatusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal server error"
	}
	WriteError(w, code, msg)
}
