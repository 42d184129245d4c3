package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/sources"
)

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorEnvelope{Error: apiError{Message: message, Code: code}})
}

// respondErr maps err onto a status code. Internal errors are logged and
// their message is not sent to the client.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	var bad *badRequestError
	switch {
	case errors.As(err, &bad):
		s.writeError(w, http.StatusBadRequest, "invalid_request", bad.Error())
	case errors.Is(err, domain.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.As(err, &verrs):
		s.writeError(w, http.StatusBadRequest, "invalid_request", verrs.Error())
	case errors.Is(err, domain.ErrInvalidFlipMode),
		errors.Is(err, domain.ErrWeightOutOfRange):
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, sources.ErrSourceNotAllowed):
		s.writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, sources.ErrDuplicateSource):
		s.writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrWeightContention):
		s.writeError(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return &badRequestError{msg: "malformed request body", err: err}
	}
	return s.validate.Struct(dst)
}

type badRequestError struct {
	msg string
	err error
}

func (e *badRequestError) Error() string { return e.msg + ": " + e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }
