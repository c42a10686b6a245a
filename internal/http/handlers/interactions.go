package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hearthlabs/hearth-assistant/internal/interaction"
	"github.com/hearthlabs/hearth-assistant/internal/policy"
	"github.com/hearthlabs/hearth-assistant/internal/safety"
	"github.com/hearthlabs/hearth-assistant/pkg/logging"
)

// auditLogger is the slice of the compliance service the handlers need.
type auditLogger interface {
	LogContentBlocked(ctx context.Context, userID, sessionID, rule string) error
	LogPolicyChanged(ctx context.Context, userID, level string, retentionDays int) error
	LogDataPurged(ctx context.Context, userID string, removed int) error
	LogComplianceCheck(ctx context.Context, userID string, compliant bool, riskLevel string, violations int) error
}

// InteractionHandler hosts the capture, summary, and erasure endpoints.
type InteractionHandler struct {
	collector *interaction.Collector
	audit     auditLogger
	logger    *logging.Logger
}

func NewInteractionHandler(collector *interaction.Collector, audit auditLogger, logger *logging.Logger) *InteractionHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &InteractionHandler{collector: collector, audit: audit, logger: logger}
}

// Capture handles POST /v1/interactions.
func (h *InteractionHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var in interaction.UserInteraction
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "validation_error", "message": "invalid json body",
		})
		return
	}

	if err := h.collector.Capture(r.Context(), in); err != nil {
		var sv *safety.ChildSafetyViolation
		if errors.As(err, &sv) && h.audit != nil {
			if aerr := h.audit.LogContentBlocked(r.Context(), in.UserID, in.SessionID, sv.Rule); aerr != nil {
				h.logger.Warn("audit write failed", "error", aerr)
			}
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "captured"})
}

// RegisterSource handles POST /admin/sources.
func (h *InteractionHandler) RegisterSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Source == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "validation_error", "message": "source is required",
		})
		return
	}
	h.collector.RegisterSource(interaction.Source(req.Source))
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered", "source": req.Source})
}

// Summary handles GET /v1/users/{userID}/summary.
func (h *InteractionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var tr interaction.TimeRange
	if raw := r.URL.Query().Get("start"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "validation_error", "message": "start must be RFC3339",
			})
			return
		}
		tr.Start = start
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "validation_error", "message": "end must be RFC3339",
			})
			return
		}
		tr.End = end
	}

	summary, err := h.collector.Summary(r.Context(), userID, tr)
	if err != nil {
		h.logger.Error("summary failed", "user_id", userID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// PurgeData handles DELETE /v1/users/{userID}/data.
func (h *InteractionHandler) PurgeData(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	removed, err := h.collector.PurgeUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("purge failed", "user_id", userID, "error", err)
		writeError(w, err)
		return
	}
	if h.audit != nil {
		if aerr := h.audit.LogDataPurged(r.Context(), userID, removed); aerr != nil {
			h.logger.Warn("audit write failed", "error", aerr)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "purged", "records_removed": removed})
}

// ConfigureRetention handles PUT /v1/users/{userID}/retention.
func (h *InteractionHandler) ConfigureRetention(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var rp policy.RetentionPolicy
	if err := json.NewDecoder(r.Body).Decode(&rp); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "validation_error", "message": "invalid json body",
		})
		return
	}
	if err := h.collector.ConfigureRetention(r.Context(), userID, rp); err != nil {
		writeError(w, err)
		return
	}
	if h.audit != nil {
		if aerr := h.audit.LogPolicyChanged(r.Context(), userID, "", rp.RetentionDays); aerr != nil {
			h.logger.Warn("audit write failed", "error", aerr)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "configured", "retention_days": rp.RetentionDays})
}
