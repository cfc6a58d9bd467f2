package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AnswerPath/social-autopilot-sub000/pkg/breaker"
	"github.com/AnswerPath/social-autopilot-sub000/queue"
	"github.com/AnswerPath/social-autopilot-sub000/scheduler"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Conflicts carries the colliding jobs on schedule conflicts.
	Conflicts any `json:"conflicts,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// statusFor maps domain sentinel errors onto HTTP status codes and stable
// machine-readable codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, queue.ErrJobNotFound):
		return http.StatusNotFound, "job_not_found"
	case errors.Is(err, scheduler.ErrScheduleConflict):
		return http.StatusConflict, "schedule_conflict"
	case errors.Is(err, scheduler.ErrContentRequired),
		errors.Is(err, scheduler.ErrInvalidDateTime),
		errors.Is(err, scheduler.ErrInvalidTimezone):
		return http.StatusUnprocessableEntity, "invalid_schedule_request"
	case errors.Is(err, scheduler.ErrScheduleInPast),
		errors.Is(err, scheduler.ErrScheduleTooFar):
		return http.StatusUnprocessableEntity, "schedule_out_of_range"
	case errors.Is(err, queue.ErrNotApprovable),
		errors.Is(err, queue.ErrNotRejectable),
		errors.Is(err, queue.ErrNotRetryable),
		errors.Is(err, queue.ErrNotCancellable):
		return http.StatusConflict, "invalid_state_transition"
	case errors.Is(err, breaker.ErrOpen):
		return http.StatusServiceUnavailable, "downstream_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, code := statusFor(err)
	if status >= 500 {
		log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
	respondJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: err.Error()}})
}
