package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/AnswerPath/social-autopilot-sub000/pkg/ratelimit"
	"github.com/AnswerPath/social-autopilot-sub000/queue"
	"github.com/AnswerPath/social-autopilot-sub000/scheduler"
)

const userIDHeader = "X-User-ID"

// Handler wires the HTTP surface to the scheduling service and queue
// processor.
type Handler struct {
	scheduler *scheduler.Service
	processor *queue.Processor
	limiter   *ratelimit.Limiter
	health    func(context.Context) error
	logger    *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithRateLimiter guards the write endpoints with the given limiter.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(h *Handler) {
		h.limiter = l
	}
}

// WithHealthcheck adds a dependency probe to GET /health.
func WithHealthcheck(check func(context.Context) error) Option {
	return func(h *Handler) {
		h.health = check
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates the HTTP handler.
func NewHandler(svc *scheduler.Service, processor *queue.Processor, opts ...Option) *Handler {
	h := &Handler{
		scheduler: svc,
		processor: processor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router builds the chi route tree.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if h.limiter != nil {
			r.Use(ratelimit.Middleware(h.limiter, ratelimit.ClientKey))
		}

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", h.handleSchedulePost)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetPost)
				r.Delete("/", h.handleCancelPost)
				r.Put("/schedule", h.handleReschedulePost)
				r.Post("/approve", h.handleApprovePost)
				r.Post("/reject", h.handleRejectPost)
				r.Post("/retry", h.handleRetryPost)
			})
		})

		r.Route("/queue", func(r chi.Router) {
			r.Post("/sweep", h.handleSweep)
			r.Get("/metrics", h.handleMetrics)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type schedulePostRequest struct {
	Content   string   `json:"content"`
	MediaRefs []string `json:"media_refs"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Timezone  string   `json:"timezone"`
	Draft     bool     `json:"draft"`
}

func (h *Handler) handleSchedulePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req schedulePostRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.scheduler.SchedulePost(r.Context(), scheduler.ScheduleInput{
		UserID:    userID,
		Content:   req.Content,
		MediaRefs: req.MediaRefs,
		Date:      req.Date,
		Time:      req.Time,
		Timezone:  req.Timezone,
		Draft:     req.Draft,
	})
	if err != nil {
		if errors.Is(err, scheduler.ErrScheduleConflict) && res != nil {
			h.respondConflict(w, err, res.ConflictCheck)
			return
		}
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, res)
}

type reschedulePostRequest struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
}

func (h *Handler) handleReschedulePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	jobID, ok := h.jobID(w, r)
	if !ok {
		return
	}

	var req reschedulePostRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.scheduler.ReschedulePost(r.Context(), jobID, userID, req.Date, req.Time, req.Timezone)
	if err != nil {
		if errors.Is(err, scheduler.ErrScheduleConflict) && res != nil {
			h.respondConflict(w, err, res.ConflictCheck)
			return
		}
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) handleGetPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	jobID, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.scheduler.GetPost(r.Context(), jobID, userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}

func (h *Handler) handleCancelPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	jobID, ok := h.jobID(w, r)
	if !ok {
		return
	}

	if err := h.processor.Cancel(r.Context(), jobID, userID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handler) handleApprovePost(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobID(w, r)
	if !ok {
		return
	}

	if err := h.processor.Enqueue(r.Context(), jobID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *Handler) handleRejectPost(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobID(w, r)
	if !ok {
		return
	}

	if err := h.processor.Reject(r.Context(), jobID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *Handler) handleRetryPost(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobID(w, r)
	if !ok {
		return
	}

	if err := h.processor.RetryFailed(r.Context(), jobID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "retry_scheduled"})
}

func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	res, err := h.processor.ProcessQueue(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.processor.Metrics(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *Handler) respondConflict(w http.ResponseWriter, err error, check *scheduler.ConflictCheck) {
	respondJSON(w, http.StatusConflict, errorBody{Error: errorDetail{
		Code:      "schedule_conflict",
		Message:   err.Error(),
		Conflicts: check.Conflicts,
	}})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get(userIDHeader))
	if err != nil {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: errorDetail{
			Code:    "missing_user",
			Message: "valid " + userIDHeader + " header required",
		}})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    "invalid_job_id",
			Message: "job id must be a UUID",
		}})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(r, v); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    "invalid_body",
			Message: err.Error(),
		}})
		return false
	}
	return true
}
