// Package api exposes the automation engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerd/automations/internal/core/auth"
	"github.com/ledgerd/automations/internal/engine"
	"github.com/ledgerd/automations/internal/triggers"
	"github.com/ledgerd/automations/internal/types"
	"github.com/ledgerd/automations/internal/versions"
)

type Handler struct {
	dispatcher     *engine.Dispatcher
	tracker        *versions.Tracker
	triggers       *triggers.Registry
	verifier       *auth.Verifier
	metrics        *engine.Metrics
	logger         *slog.Logger
	requestTimeout time.Duration
	maxEventBytes  int64
}

func NewHandler(
	dispatcher *engine.Dispatcher,
	tracker *versions.Tracker,
	registry *triggers.Registry,
	verifier *auth.Verifier,
	metrics *engine.Metrics,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		dispatcher:     dispatcher,
		tracker:        tracker,
		triggers:       registry,
		verifier:       verifier,
		metrics:        metrics,
		logger:         logger,
		requestTimeout: 30 * time.Second,
		maxEventBytes:  1 << 20,
	}
}

// WithLimits overrides the default request timeout and body size cap.
func (h *Handler) WithLimits(requestTimeout time.Duration, maxEventBytes int64) *Handler {
	if requestTimeout > 0 {
		h.requestTimeout = requestTimeout
	}
	if maxEventBytes > 0 {
		h.maxEventBytes = maxEventBytes
	}
	return h
}

type DispatchEventRequest struct {
	OrganizationID string            `json:"organizationId"`
	TriggerType    string            `json:"triggerType"`
	Event          types.EventRecord `json:"event"`
}

type DispatchEventResponse struct {
	EventID  string           `json:"eventId"`
	Outcomes []engine.Outcome `json:"outcomes"`
}

type VersionsResponse struct {
	Versions   []*types.RuleVersion `json:"versions"`
	Pagination types.Pagination     `json:"pagination"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// DispatchEventHandler runs every matching active rule against the event.
// Events for webhook triggers must carry a valid payload signature.
func (h *Handler) DispatchEventHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxEventBytes+1))
	if err != nil {
		h.sendError(w, "Failed to read request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if int64(len(body)) > h.maxEventBytes {
		h.sendError(w, "Request body too large", http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE")
		return
	}

	var req DispatchEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}
	if req.OrganizationID == "" {
		h.sendError(w, "organizationId is required", http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}
	if req.TriggerType == "" {
		h.sendError(w, "triggerType is required", http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	// Webhook events are signed over the raw request body
	if strings.HasPrefix(req.TriggerType, "webhook.") {
		if err := h.verifier.Verify(r.Header.Get("X-Webhook-Signature"), body); err != nil {
			h.logger.Warn("Webhook signature rejected",
				slog.String("trigger_type", req.TriggerType),
				slog.String("error", err.Error()))
			h.sendError(w, "Invalid webhook signature", http.StatusUnauthorized, "INVALID_SIGNATURE")
			return
		}
	}

	eventID := types.NewEventID()
	outcomes, err := h.dispatcher.Dispatch(ctx, req.TriggerType, req.Event, types.OrgID(req.OrganizationID))
	if err != nil {
		if errors.Is(err, types.ErrUnknownTrigger) {
			h.sendError(w, "Unknown trigger type: "+req.TriggerType, http.StatusBadRequest, "UNKNOWN_TRIGGER")
			return
		}
		h.logger.Error("Event dispatch failed",
			slog.String("event_id", string(eventID)),
			slog.String("trigger_type", req.TriggerType),
			slog.String("error", err.Error()))
		h.sendError(w, "Event dispatch failed", http.StatusInternalServerError, "DISPATCH_ERROR")
		return
	}

	h.logger.Info("Event dispatched",
		slog.String("event_id", string(eventID)),
		slog.String("trigger_type", req.TriggerType),
		slog.Int("rules_evaluated", len(outcomes)))

	h.sendJSON(w, DispatchEventResponse{
		EventID:  string(eventID),
		Outcomes: outcomes,
	}, http.StatusOK)
}

// ListVersionsHandler returns a rule's change history, newest first.
func (h *Handler) ListVersionsHandler(w http.ResponseWriter, r *http.Request) {
	ruleID := r.PathValue("id")
	if ruleID == "" {
		h.sendError(w, "Rule ID is required", http.StatusBadRequest, "MISSING_ID")
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	history, pagination, err := h.tracker.History(ctx, types.RuleID(ruleID), page, limit)
	if err != nil {
		h.logger.Error("Failed to list rule versions",
			slog.String("rule_id", ruleID),
			slog.String("error", err.Error()))
		h.sendError(w, "Failed to list versions", http.StatusInternalServerError, "SERVER_ERROR")
		return
	}

	h.sendJSON(w, VersionsResponse{Versions: history, Pagination: pagination}, http.StatusOK)
}

// ListTriggersHandler returns all registered trigger definitions.
func (h *Handler) ListTriggersHandler(w http.ResponseWriter, r *http.Request) {
	if category := r.URL.Query().Get("category"); category != "" {
		h.sendJSON(w, h.triggers.GetByCategory(types.TriggerCategory(category)), http.StatusOK)
		return
	}
	h.sendJSON(w, h.triggers.GetAll(), http.StatusOK)
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}
	h.sendJSON(w, response, http.StatusOK)
}

func (h *Handler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *Handler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/events", h.DispatchEventHandler)
	mux.HandleFunc("GET /v1/rules/{id}/versions", h.ListVersionsHandler)
	mux.HandleFunc("GET /v1/triggers", h.ListTriggersHandler)
	mux.HandleFunc("GET /healthz", h.HealthCheckHandler)
	mux.Handle("GET /metrics", h.metrics.Handler())
}
