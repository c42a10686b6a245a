package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hearthlabs/hearth-assistant/internal/compliance"
	"github.com/hearthlabs/hearth-assistant/pkg/logging"
)

type auditQuerier interface {
	QueryEvents(ctx context.Context, filter compliance.AuditFilter) ([]compliance.AuditEvent, error)
}

// AuditHandler exposes the privacy audit trail to administrators.
type AuditHandler struct {
	audit  auditQuerier
	logger *logging.Logger
}

func NewAuditHandler(audit auditQuerier, logger *logging.Logger) *AuditHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuditHandler{audit: audit, logger: logger}
}

// Query handles GET /admin/audit.
func (h *AuditHandler) Query(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "internal_error", "message": "audit trail not configured",
		})
		return
	}

	q := r.URL.Query()
	filter := compliance.AuditFilter{
		UserID:    q.Get("user_id"),
		EventType: compliance.AuditEventType(q.Get("event_type")),
		Limit:     50,
	}
	if filter.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "validation_error", "message": "user_id is required",
		})
		return
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 && limit <= 500 {
			filter.Limit = limit
		}
	}
	if raw := q.Get("start"); raw != "" {
		if start, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.StartTime = start
		}
	}
	if raw := q.Get("end"); raw != "" {
		if end, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.EndTime = end
		}
	}

	events, err := h.audit.QueryEvents(r.Context(), filter)
	if err != nil {
		h.logger.Error("audit query failed", "error", err)
		writeError(w, err)
		return
	}
	if events == nil {
		events = []compliance.AuditEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
