// Package privacy implements PII detection, recursive payload sanitization,
// and compliance validation for the interaction pipeline. Nothing in this
// package stores or returns raw matched content to callers other than the
// sanitizer's rewritten output.
package privacy

import "time"

// Severity ranks how damaging a detected violation is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities: LOW < MEDIUM < HIGH < CRITICAL.
func (s Severity) Rank() int {
	switch s {
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

// ViolationType labels the class of privacy violation.
type ViolationType string

const (
	ViolationPIIExposure          ViolationType = "pii_exposure"
	ViolationPotentialPIIExposure ViolationType = "potential_pii_exposure"
	ViolationPrivacyLevel         ViolationType = "privacy_level_violation"
)

// Violation is a structured finding. It carries the category and location of
// a match, never the matched text itself.
type Violation struct {
	Type              ViolationType `json:"violation_type"`
	Severity          Severity      `json:"severity"`
	Description       string        `json:"description"`
	AffectedData      string        `json:"affected_data"`
	RecommendedAction string        `json:"recommended_action"`
	DetectedAt        time.Time     `json:"detected_at"`
}

// ValidationResult is the outcome of a compliance scan over a payload.
type ValidationResult struct {
	IsCompliant     bool        `json:"is_compliant"`
	Violations      []Violation `json:"violations"`
	Recommendations []string    `json:"recommendations"`
	RiskLevel       Severity    `json:"risk_level"`
}
