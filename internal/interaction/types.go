// Package interaction defines the capture pipeline: the interaction record,
// behavioral pattern extraction, the per-user store, retention enforcement,
// and the collector that orchestrates them.
package interaction

import (
	"fmt"
	"regexp"
	"time"
)

// Source identifies where an interaction originated.
type Source string

const (
	SourceVoice     Source = "voice"
	SourceUI        Source = "ui"
	SourceScheduler Source = "scheduler"
	SourceAvatar    Source = "avatar"
	SourceSmartHome Source = "smart_home"
)

// Outcome records whether the assistant satisfied the request. Summary is
// free text until the sanitizer runs; after that it carries no raw content.
type Outcome struct {
	Success bool   `json:"success"`
	Summary string `json:"summary,omitempty"`
}

// UserInteraction is one captured exchange with the assistant. Context is an
// arbitrary nested payload; the collector sanitizes it in place before the
// record is persisted.
type UserInteraction struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	SessionID string            `json:"session_id"`
	Timestamp time.Time         `json:"timestamp"`
	Source    Source            `json:"source"`
	Type      string            `json:"type"`
	Context   map[string]any    `json:"context,omitempty"`
	Patterns  []BehaviorPattern `json:"patterns,omitempty"`
	Outcome   Outcome           `json:"outcome"`
}

// PatternType classifies a derived behavioral signal.
type PatternType string

const (
	PatternTemporal   PatternType = "temporal"
	PatternBehavioral PatternType = "behavioral"
	PatternContextual PatternType = "contextual"
	PatternPreference PatternType = "preference"
	PatternHabit      PatternType = "habit"
)

// BehaviorPattern is a coarse derived signal. Strength is in [0,1],
// Frequency is a non-negative count. Neither carries raw content.
type BehaviorPattern struct {
	PatternID    string      `json:"pattern_id"`
	Type         PatternType `json:"type"`
	Strength     float64     `json:"strength"`
	Frequency    float64     `json:"frequency"`
	Context      string      `json:"context"`
	IsAnonymized bool        `json:"is_anonymized"`
}

// TimeRange bounds a summary query. A zero End means "now".
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Summary aggregates a user's sanitized interactions over a range.
type Summary struct {
	UserID            string              `json:"user_id"`
	Range             TimeRange           `json:"range"`
	TotalInteractions int                 `json:"total_interactions"`
	BySource          map[Source]int      `json:"by_source"`
	SuccessRate       float64             `json:"success_rate"`
	PatternCounts     map[PatternType]int `json:"pattern_counts"`
}

// ValidationError reports a malformed capture request. Capture fails fast on
// it with no side effects.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("interaction: invalid %s: %s", e.Field, e.Reason)
}

// ProcessingError wraps an unexpected internal fault after validation passed.
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("interaction: %s failed: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validate checks structure: required fields, session id charset, and a
// timestamp that is not in the future (small skew allowed for device clocks).
func (in *UserInteraction) Validate(now time.Time) error {
	if in.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "required"}
	}
	if in.SessionID == "" {
		return &ValidationError{Field: "session_id", Reason: "required"}
	}
	if !sessionIDPattern.MatchString(in.SessionID) {
		return &ValidationError{Field: "session_id", Reason: "must match [A-Za-z0-9_-]+"}
	}
	if in.Source == "" {
		return &ValidationError{Field: "source", Reason: "required"}
	}
	if in.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "required"}
	}
	if in.Timestamp.After(now.Add(30 * time.Second)) {
		return &ValidationError{Field: "timestamp", Reason: "must not be in the future"}
	}
	return nil
}
