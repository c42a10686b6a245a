package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hearthlabs/hearth-assistant/internal/interaction"
	"github.com/hearthlabs/hearth-assistant/internal/policy"
	"github.com/hearthlabs/hearth-assistant/internal/safety"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps the pipeline's error taxonomy onto HTTP status codes. The
// response carries the error class and message, never request content.
func writeError(w http.ResponseWriter, err error) {
	var (
		verr *interaction.ValidationError
		serr *safety.ChildSafetyViolation
		cerr *policy.ConfigurationError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "validation_error", "message": verr.Error(),
		})
	case errors.As(err, &serr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "child_safety_violation", "message": serr.Error(),
		})
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "configuration_error", "message": cerr.Error(),
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal_error", "message": "request could not be processed",
		})
	}
}
