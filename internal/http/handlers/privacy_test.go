package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/hearthlabs/hearth-assistant/internal/anonymize"
	"github.com/hearthlabs/hearth-assistant/internal/policy"
	"github.com/hearthlabs/hearth-assistant/internal/privacy"
)

func TestFilterEndpoint(t *testing.T) {
	rig := newTestRig(t)
	rec := rig.do(t, http.MethodPost, "/v1/privacy/filter", captureBody("u1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var out anonymize.FilteredInteraction
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.UserID == "u1" || out.UserID == "" {
		t.Fatalf("user id must be hashed, got %q", out.UserID)
	}
	if out.PrivacyLevel != policy.LevelStandard {
		t.Fatalf("level = %s", out.PrivacyLevel)
	}
}

func TestFilterEndpointRequiresUserID(t *testing.T) {
	rig := newTestRig(t)
	body := captureBody("")
	rec := rig.do(t, http.MethodPost, "/v1/privacy/filter", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnonymizeEndpoint(t *testing.T) {
	rig := newTestRig(t)
	rec := rig.do(t, http.MethodPost, "/v1/privacy/anonymize", map[string]any{"note": "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out anonymize.AnonymizedData
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Technique == "" || out.DataID == "" || out.AnonymizedAt.IsZero() {
		t.Fatalf("incomplete receipt: %+v", out)
	}
}

func TestValidateEndpointFlagsPII(t *testing.T) {
	rig := newTestRig(t)
	rec := rig.do(t, http.MethodPost, "/v1/privacy/validate", map[string]any{
		"user_id": "u1",
		"data":    map[string]any{"ssn": "123-45-6789"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var result privacy.ValidationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.IsCompliant {
		t.Fatal("ssn payload must be non-compliant")
	}
	if result.RiskLevel != privacy.SeverityCritical {
		t.Fatalf("risk = %s, want critical", result.RiskLevel)
	}
	for _, v := range result.Violations {
		if strings.Contains(v.AffectedData, "123-45-6789") {
			t.Fatal("raw PII leaked into the response")
		}
	}
	if rig.audit.checks != 1 {
		t.Fatal("validation must be audited")
	}
}

func TestValidateEndpointCleanPayload(t *testing.T) {
	rig := newTestRig(t)
	rec := rig.do(t, http.MethodPost, "/v1/privacy/validate", map[string]any{
		"user_id": "u1",
		"data":    map[string]any{"note": "turn on the lights"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var result privacy.ValidationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.IsCompliant || len(result.Violations) != 0 {
		t.Fatalf("clean payload flagged: %+v", result)
	}
}

func TestConfigureLevelEndpoint(t *testing.T) {
	rig := newTestRig(t)

	rec := rig.do(t, http.MethodPut, "/v1/users/u1/privacy-level", map[string]string{"level": "enhanced"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(rig.audit.policy) != 1 || rig.audit.policy[0] != "u1:enhanced" {
		t.Fatalf("audit = %v", rig.audit.policy)
	}

	rec = rig.do(t, http.MethodPut, "/v1/users/u1/privacy-level", map[string]string{"level": "turbo"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid level must 400, got %d", rec.Code)
	}
}

func TestReportEndpoint(t *testing.T) {
	rig := newTestRig(t)
	rig.do(t, http.MethodPut, "/v1/users/u1/privacy-level", map[string]string{"level": "maximum"})

	rec := rig.do(t, http.MethodGet, "/v1/users/u1/privacy-report", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var report policy.PrivacyReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.PrivacyLevel != policy.LevelMaximum {
		t.Fatalf("report level = %s", report.PrivacyLevel)
	}
}
