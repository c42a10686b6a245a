package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hearthlabs/hearth-assistant/internal/anonymize"
	"github.com/hearthlabs/hearth-assistant/internal/interaction"
	"github.com/hearthlabs/hearth-assistant/internal/policy"
	"github.com/hearthlabs/hearth-assistant/internal/privacy"
	"github.com/hearthlabs/hearth-assistant/pkg/logging"
)

// PrivacyHandler hosts the anonymizer, compliance validator, and policy
// configuration endpoints.
type PrivacyHandler struct {
	filter    *anonymize.Filter
	validator *privacy.Validator
	policies  policy.Store
	audit     auditLogger
	logger    *logging.Logger
}

func NewPrivacyHandler(filter *anonymize.Filter, validator *privacy.Validator, policies policy.Store, audit auditLogger, logger *logging.Logger) *PrivacyHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PrivacyHandler{
		filter:    filter,
		validator: validator,
		policies:  policies,
		audit:     audit,
		logger:    logger,
	}
}

// FilterInteraction handles POST /v1/privacy/filter.
func (h *PrivacyHandler) FilterInteraction(w http.ResponseWriter, r *http.Request) {
	var in interaction.UserInteraction
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "validation_error", "message": "invalid json body",
		})
		return
	}
	if in.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "validation_error", "message": "user_id is required",
		})
		return
	}
	writeJSON(w, http.StatusOK, h.filter.FilterInteraction(r.Context(), in))
}

// Anonymize handles POST /v1/privacy/anonymize. The filter is total; any
// decodable payload yields a receipt.
func (h *PrivacyHandler) Anonymize(w http.ResponseWriter, r *http.Request) {
	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "validation_error", "message": "invalid json body",
		})
		return
	}
	writeJSON(w, http.StatusOK, h.filter.AnonymizeData(payload))
}

type validateRequest struct {
	UserID string          `json:"user_id"`
	Data   json.RawMessage `json:"data"`
}

// Validate handles POST /v1/privacy/validate. Strictness follows the user's
// effective privacy level.
func (h *PrivacyHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "validation_error", "message": "user_id and data are required",
		})
		return
	}

	level, err := h.policies.EffectiveLevel(r.Context(), req.UserID)
	if err != nil {
		// Validation is read-only and must not fail open.
		level = policy.LevelMaximum
	}

	var data any
	if err := json.Unmarshal(req.Data, &data); err != nil {
		data = string(req.Data)
	}

	result := h.validator.Validate(data, level)
	if h.audit != nil {
		if aerr := h.audit.LogComplianceCheck(r.Context(), req.UserID, result.IsCompliant, string(result.RiskLevel), len(result.Violations)); aerr != nil {
			h.logger.Warn("audit write failed", "error", aerr)
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// ConfigureLevel handles PUT /v1/users/{userID}/privacy-level.
func (h *PrivacyHandler) ConfigureLevel(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var req struct {
		Level string `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "validation_error", "message": "invalid json body",
		})
		return
	}
	if err := h.filter.ConfigurePrivacyLevel(r.Context(), userID, req.Level); err != nil {
		writeError(w, err)
		return
	}
	if h.audit != nil {
		if aerr := h.audit.LogPolicyChanged(r.Context(), userID, req.Level, 0); aerr != nil {
			h.logger.Warn("audit write failed", "error", aerr)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "configured", "level": req.Level})
}

// Report handles GET /v1/users/{userID}/privacy-report.
func (h *PrivacyHandler) Report(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	report, err := h.filter.GeneratePrivacyReport(r.Context(), userID)
	if err != nil {
		h.logger.Error("privacy report failed", "user_id", userID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
