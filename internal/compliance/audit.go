// Package compliance provides the privacy audit trail. Audit rows record
// that something happened, never what the content was: category labels,
// counts, and policy values only.
package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEventType classifies a privacy audit record.
type AuditEventType string

const (
	// EventPIIDetected is logged when the detector finds PII in a capture.
	EventPIIDetected AuditEventType = "privacy.pii_detected"
	// EventContentBlocked is logged when the safety gate rejects a capture.
	EventContentBlocked AuditEventType = "safety.content_blocked"
	// EventRetentionPurge is logged when retention enforcement removes records.
	EventRetentionPurge AuditEventType = "privacy.retention_purge"
	// EventPolicyChanged is logged when a privacy level or retention policy changes.
	EventPolicyChanged AuditEventType = "privacy.policy_changed"
	// EventDataPurged is logged when a user's data is erased on request.
	EventDataPurged AuditEventType = "privacy.data_purged"
	// EventComplianceCheck is logged when a standalone validation runs.
	EventComplianceCheck AuditEventType = "privacy.compliance_check"
)

// AuditEvent is an immutable privacy audit record.
type AuditEvent struct {
	ID        string          `json:"id"`
	EventType AuditEventType  `json:"event_type"`
	UserID    string          `json:"user_id"`
	SessionID string          `json:"session_id,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuditDetails carries event-specific fields. Only labels and counts; raw
// capture content must never appear here.
type AuditDetails struct {
	// For PII detected
	Categories []string `json:"categories,omitempty"`
	Redacted   bool     `json:"redacted,omitempty"`

	// For blocked content
	Rule string `json:"rule,omitempty"`

	// For retention purges and erasure
	RecordsRemoved int    `json:"records_removed,omitempty"`
	Trigger        string `json:"trigger,omitempty"`

	// For policy changes
	PrivacyLevel  string `json:"privacy_level,omitempty"`
	RetentionDays int    `json:"retention_days,omitempty"`

	// For compliance checks
	Compliant  bool   `json:"compliant,omitempty"`
	RiskLevel  string `json:"risk_level,omitempty"`
	Violations int    `json:"violations,omitempty"`
}

// AuditService persists audit records.
type AuditService struct {
	db *sql.DB
}

func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db}
}

// LogEvent records one audit event.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO privacy_audit_events (
			id, event_type, user_id, session_id, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.UserID,
		nullString(event.SessionID),
		event.Details,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}
	return nil
}

// LogPIIDetected records which categories were redacted from a capture.
func (s *AuditService) LogPIIDetected(ctx context.Context, userID, sessionID string, categories []string) error {
	details, _ := json.Marshal(AuditDetails{Categories: categories, Redacted: true})
	return s.LogEvent(ctx, AuditEvent{
		EventType: EventPIIDetected,
		UserID:    userID,
		SessionID: sessionID,
		Details:   details,
	})
}

// LogContentBlocked records a safety-gate rejection by rule name.
func (s *AuditService) LogContentBlocked(ctx context.Context, userID, sessionID, rule string) error {
	details, _ := json.Marshal(AuditDetails{Rule: rule})
	return s.LogEvent(ctx, AuditEvent{
		EventType: EventContentBlocked,
		UserID:    userID,
		SessionID: sessionID,
		Details:   details,
	})
}

// LogRetentionPurge records how many records a purge removed and what
// triggered it.
func (s *AuditService) LogRetentionPurge(ctx context.Context, userID string, removed int, trigger string) error {
	details, _ := json.Marshal(AuditDetails{RecordsRemoved: removed, Trigger: trigger})
	return s.LogEvent(ctx, AuditEvent{
		EventType: EventRetentionPurge,
		UserID:    userID,
		Details:   details,
	})
}

// LogPolicyChanged records a privacy level or retention change.
func (s *AuditService) LogPolicyChanged(ctx context.Context, userID, level string, retentionDays int) error {
	details, _ := json.Marshal(AuditDetails{PrivacyLevel: level, RetentionDays: retentionDays})
	return s.LogEvent(ctx, AuditEvent{
		EventType: EventPolicyChanged,
		UserID:    userID,
		Details:   details,
	})
}

// LogDataPurged records a full user erasure.
func (s *AuditService) LogDataPurged(ctx context.Context, userID string, removed int) error {
	details, _ := json.Marshal(AuditDetails{RecordsRemoved: removed, Trigger: "user_request"})
	return s.LogEvent(ctx, AuditEvent{
		EventType: EventDataPurged,
		UserID:    userID,
		Details:   details,
	})
}

// LogComplianceCheck records the outcome of a standalone validation.
func (s *AuditService) LogComplianceCheck(ctx context.Context, userID string, compliant bool, riskLevel string, violations int) error {
	details, _ := json.Marshal(AuditDetails{Compliant: compliant, RiskLevel: riskLevel, Violations: violations})
	return s.LogEvent(ctx, AuditEvent{
		EventType: EventComplianceCheck,
		UserID:    userID,
		Details:   details,
	})
}

// QueryEvents retrieves audit events with filters.
func (s *AuditService) QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	query := `
		SELECT id, event_type, user_id, session_id, details, created_at
		FROM privacy_audit_events
		WHERE user_id = $1
	`
	args := []interface{}{filter.UserID}
	argIdx := 2

	if filter.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, filter.EventType)
		argIdx++
	}
	if !filter.StartTime.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.StartTime)
		argIdx++
	}
	if !filter.EndTime.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, filter.EndTime)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("compliance: failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var sessionID sql.NullString
		if err := rows.Scan(&e.ID, &e.EventType, &e.UserID, &sessionID, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("compliance: failed to scan audit event: %w", err)
		}
		e.SessionID = sessionID.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// AuditFilter specifies criteria for querying audit events.
type AuditFilter struct {
	UserID    string
	EventType AuditEventType
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
