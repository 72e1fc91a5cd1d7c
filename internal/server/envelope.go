package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/deckform/deckform/internal/convert"
)

// envelope is the uniform response wrapper. Success with degraded data is
// still success: true; callers read the processing statistics inside the
// data to tell a clean run from a degraded one.
type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
	Meta    meta      `json:"meta"`
}

type apiError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type meta struct {
	Timestamp        string `json:"timestamp"`
	RequestID        string `json:"requestId"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
}

func newMeta(r *http.Request, start time.Time) meta {
	return meta{
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		RequestID:        middleware.GetReqID(r.Context()),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}

func (s *Server) respondData(w http.ResponseWriter, r *http.Request, status int, data any, start time.Time) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: true,
		Data:    data,
		Meta:    newMeta(r, start),
	})
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, errType, code, message string, start time.Time) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   &apiError{Type: errType, Code: code, Message: message},
		Meta:    newMeta(r, start),
	})
}

// respondFromErr maps the conversion error taxonomy onto HTTP statuses:
// validation failures are the caller's fault, open failures mean the upload
// was not a usable container, anything else is internal.
func (s *Server) respondFromErr(w http.ResponseWriter, r *http.Request, err error, start time.Time) {
	var verr *convert.ValidationError
	if errors.As(err, &verr) {
		s.respondError(w, r, http.StatusBadRequest, "ValidationError", verr.Code, verr.Message, start)
		return
	}
	var oerr *convert.EngineOpenError
	if errors.As(err, &oerr) {
		s.respondError(w, r, http.StatusUnprocessableEntity, "EngineOpenError", "ENGINE_OPEN_FAILED", oerr.Error(), start)
		return
	}
	s.respondError(w, r, http.StatusInternalServerError, "InternalError", "INTERNAL", err.Error(), start)
}
