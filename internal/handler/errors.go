package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/tripproposal/internal/domain"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Rule      string `json:"rule,omitempty"`
	RequestId string `json:"request_id,omitempty"`
}

// ErrorResponse wraps ErrorDetail. A refused or invalid split-stay edit also
// carries the stored plan so the client can keep editing the draft.
type ErrorResponse struct {
	Error     ErrorDetail `json:"error"`
	SplitStay *SplitStay  `json:"split_stay,omitempty"`
}

// errorStatus maps a service error onto an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrStaleSnapshot):
		return http.StatusConflict, "stale_snapshot"
	case errors.Is(err, domain.ErrMatchingShortfall):
		return http.StatusConflict, "matching_shortfall"
	case errors.Is(err, domain.ErrTransient):
		return http.StatusBadGateway, "trip_store_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError renders err as an ErrorResponse. Unexpected errors are logged
// and their text is not sent to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, plan *SplitStay) {
	status, code := errorStatus(err)
	body := ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   unwrapMessage(err),
			RequestId: middleware.GetReqID(r.Context()),
		},
		SplitStay: plan,
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Error.Rule = string(verr.Rule)
		body.Error.Message = verr.Message
	}
	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		body.Error.Message = "internal server error"
	}
	writeJSON(w, status, body)
}

// requestError reports a request rejected before reaching the service layer
// (malformed body or path parameter).
func requestError(w http.ResponseWriter, r *http.Request, status int, message string) {
	code := "bad_request"
	if status == http.StatusRequestEntityTooLarge {
		code = "body_too_large"
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
	}})
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.TripService.CreateStay: day 42: not found" → "day 42: not found"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for strings.HasPrefix(msg, "service.") || strings.HasPrefix(msg, "repo.") || strings.HasPrefix(msg, "reconcile.") {
		i := strings.Index(msg, ": ")
		if i < 0 {
			break
		}
		msg = msg[i+2:]
	}
	return strings.TrimPrefix(msg, domain.ErrValidation.Error()+": ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body into dst. It writes the error response itself
// and reports false when the body is missing or malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		requestError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, io.EOF):
		requestError(w, r, http.StatusBadRequest, "request body is required")
	default:
		requestError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	return false
}

// logger falls back to the default logger for health-only servers.
func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
