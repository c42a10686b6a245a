// Package events carries the pipeline's pub/sub fan-out. Payloads hold only
// sanitized or derived data; raw capture content never crosses the bus.
package events

import "time"

// Event type names.
const (
	TypeInteractionCaptured = "interaction:captured"
	TypePatternsDetected    = "patterns:detected"
	TypeInteractionError    = "interaction:error"
	TypeDataPurged          = "data:purged"
)

// Event is anything publishable on the bus.
type Event interface {
	EventType() string
}

// PatternSummaryV1 is the derived view of a behavioral pattern that may
// travel on the bus.
type PatternSummaryV1 struct {
	PatternID string  `json:"pattern_id"`
	Type      string  `json:"type"`
	Strength  float64 `json:"strength"`
	Frequency float64 `json:"frequency"`
}

type InteractionCapturedV1 struct {
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	SessionID     string    `json:"session_id"`
	Source        string    `json:"source"`
	Type          string    `json:"type"`
	PatternCount  int       `json:"pattern_count"`
	CapturedAt    time.Time `json:"captured_at"`
	PurgedRecords int       `json:"purged_records"`
}

func (InteractionCapturedV1) EventType() string { return TypeInteractionCaptured }

type PatternsDetectedV1 struct {
	EventID    string             `json:"event_id"`
	UserID     string             `json:"user_id"`
	SessionID  string             `json:"session_id"`
	Patterns   []PatternSummaryV1 `json:"patterns"`
	DetectedAt time.Time          `json:"detected_at"`
}

func (PatternsDetectedV1) EventType() string { return TypePatternsDetected }

// InteractionErrorV1 reports capture-path and subscriber failures. Reason is
// an error class, never payload content.
type InteractionErrorV1 struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id,omitempty"`
	Stage      string    `json:"stage"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (InteractionErrorV1) EventType() string { return TypeInteractionError }

type DataPurgedV1 struct {
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	RecordsPurged int       `json:"records_purged"`
	PurgedAt      time.Time `json:"purged_at"`
}

func (DataPurgedV1) EventType() string { return TypeDataPurged }
