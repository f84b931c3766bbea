package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/hos-logbook/internal/domain"
	"github.com/pkordes/hos-logbook/internal/hos"
)

// Error codes that are not rule rejections. Rule rejections use the
// hos.Reason value as their code.
const (
	codeNotFound         = "not_found"
	codeValidation       = "validation_error"
	codeBadRequest       = "bad_request"
	codeHoursExceeded    = "HOURS_EXCEEDED"
	codeRouteUnavailable = "route_unavailable"
	codeInternal         = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// badRequest answers 400 for input rejected before reaching a service.
func badRequest(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusBadRequest, codeBadRequest, message)
}

// rejected answers 409 for a transition refused by the HOS rules.
func rejected(w http.ResponseWriter, d hos.Decision) {
	writeErrorBody(w, http.StatusConflict, string(d.Reason), d.Detail)
}

// writeError maps a service error onto a status code and body. Anything
// unrecognised is logged and reported as 500 without internals.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, codeNotFound, notFound)
	case errors.Is(err, domain.ErrValidation):
		writeErrorBody(w, http.StatusUnprocessableEntity, codeValidation, unwrapMessage(err, domain.ErrValidation))
	case errors.Is(err, domain.ErrOutOfOrder):
		writeErrorBody(w, http.StatusConflict, string(hos.ReasonOutOfOrder), unwrapMessage(err, domain.ErrOutOfOrder))
	case errors.Is(err, domain.ErrDailyDrivingLimit):
		writeErrorBody(w, http.StatusConflict, string(hos.ReasonDailyDrivingLimit), unwrapMessage(err, domain.ErrDailyDrivingLimit))
	case errors.Is(err, domain.ErrCycleLimit):
		writeErrorBody(w, http.StatusConflict, string(hos.ReasonCycleLimit), unwrapMessage(err, domain.ErrCycleLimit))
	case errors.Is(err, domain.ErrHoursExceeded):
		s.logger.ErrorContext(r.Context(), "timeline integrity violation", "path", r.URL.Path, "error", err)
		writeErrorBody(w, http.StatusInternalServerError, codeHoursExceeded, "recorded hours for the day exceed 24")
	case errors.Is(err, domain.ErrRouteUnavailable):
		writeErrorBody(w, http.StatusBadGateway, codeRouteUnavailable, "routing provider unavailable")
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeErrorBody(w, http.StatusInternalServerError, codeInternal, http.StatusText(http.StatusInternalServerError))
	}
}

// unwrapMessage returns the text after the sentinel in a wrapped error,
// e.g. "service.TripService.Plan: validation error: pickup location out of
// range" gives "pickup location out of range".
func unwrapMessage(err, sentinel error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return sentinel.Error()
}

// writeServiceError is the HandlerFunc-friendly form of writeError with a
// generic not-found message.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeError(w, r, err, "resource not found")
}
