// Package policy holds per-user privacy levels, retention rules, and the
// regulatory caps that bound both.
package policy

import (
	"fmt"
	"strings"
)

// Level is the ordered privacy level assigned to a user or family.
type Level string

const (
	LevelMinimal  Level = "minimal"
	LevelStandard Level = "standard"
	LevelEnhanced Level = "enhanced"
	LevelMaximum  Level = "maximum"
)

// MaxRetentionDays is the system-wide child-safety cap. No retention policy,
// regardless of level or override, may exceed it.
const MaxRetentionDays = 30

// ParseLevel returns the Level for a raw string, or a ConfigurationError for
// anything outside the enum.
func ParseLevel(raw string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(raw))) {
	case LevelMinimal:
		return LevelMinimal, nil
	case LevelStandard:
		return LevelStandard, nil
	case LevelEnhanced:
		return LevelEnhanced, nil
	case LevelMaximum:
		return LevelMaximum, nil
	default:
		return "", &ConfigurationError{Field: "privacy_level", Reason: fmt.Sprintf("unknown level %q", raw)}
	}
}

// Rank orders levels: MINIMAL < STANDARD < ENHANCED < MAXIMUM.
func (l Level) Rank() int {
	switch l {
	case LevelStandard:
		return 1
	case LevelEnhanced:
		return 2
	case LevelMaximum:
		return 3
	default:
		return 0
	}
}

// Valid reports whether l is one of the four defined levels.
func (l Level) Valid() bool {
	switch l {
	case LevelMinimal, LevelStandard, LevelEnhanced, LevelMaximum:
		return true
	}
	return false
}

// RetentionDays maps the level to its default retention window.
// Stricter levels keep data for less time.
func (l Level) RetentionDays() int {
	switch l {
	case LevelMaximum:
		return 7
	case LevelEnhanced:
		return 14
	default:
		return MaxRetentionDays
	}
}

// Epsilon is the differential-privacy budget for the level. Smaller epsilon
// means more noise.
func (l Level) Epsilon() float64 {
	switch l {
	case LevelMinimal:
		return 2.0
	case LevelStandard:
		return 1.0
	case LevelEnhanced:
		return 0.5
	case LevelMaximum:
		return 0.1
	default:
		return 1.0
	}
}

// AnonymizationLevel is the qualitative strength label attached to artifacts
// anonymized under this level.
func (l Level) AnonymizationLevel() string {
	switch l {
	case LevelMinimal:
		return "light"
	case LevelStandard:
		return "moderate"
	case LevelEnhanced:
		return "strong"
	case LevelMaximum:
		return "complete"
	default:
		return "moderate"
	}
}

// MostRestrictive returns the highest-ranked level among the arguments,
// defaulting to STANDARD when none are given. Used to resolve the effective
// level for interactions spanning multiple family members.
func MostRestrictive(levels ...Level) Level {
	effective := LevelStandard
	seeded := false
	for _, l := range levels {
		if !l.Valid() {
			continue
		}
		if !seeded || l.Rank() > effective.Rank() {
			effective = l
			seeded = true
		}
	}
	return effective
}

// AgeTier buckets users for regulatory purposes.
type AgeTier string

const (
	AgeTierChild AgeTier = "child"
	AgeTierTeen  AgeTier = "teen"
	AgeTierAdult AgeTier = "adult"
)

// Regulation names the regime that applies to the tier.
func (t AgeTier) Regulation() string {
	switch t {
	case AgeTierChild:
		return "COPPA"
	case AgeTierTeen:
		return "COPPA/GDPR-K"
	default:
		return "GDPR/CCPA"
	}
}

// DefaultLevel is the privacy level assigned when a tier has no explicit
// configuration: children get MAXIMUM, teens ENHANCED, adults STANDARD.
func (t AgeTier) DefaultLevel() Level {
	switch t {
	case AgeTierChild:
		return LevelMaximum
	case AgeTierTeen:
		return LevelEnhanced
	default:
		return LevelStandard
	}
}

// RetentionPolicy governs how long captured interactions may be kept.
type RetentionPolicy struct {
	DataType            string `json:"data_type"`
	RetentionDays       int    `json:"retention_days"`
	AutoDelete          bool   `json:"auto_delete"`
	ArchiveBeforeDelete bool   `json:"archive_before_delete"`
	UserNotification    bool   `json:"user_notification"`
}

// Validate rejects retention windows over the hard cap or under one day.
func (p RetentionPolicy) Validate() error {
	if p.RetentionDays > MaxRetentionDays {
		return &ConfigurationError{
			Field:  "retention_days",
			Reason: fmt.Sprintf("%d exceeds the %d-day cap", p.RetentionDays, MaxRetentionDays),
		}
	}
	if p.RetentionDays < 1 {
		return &ConfigurationError{Field: "retention_days", Reason: "must be at least 1"}
	}
	return nil
}

// DefaultRetention derives the retention policy for a level.
func DefaultRetention(l Level) RetentionPolicy {
	return RetentionPolicy{
		DataType:         "interaction",
		RetentionDays:    l.RetentionDays(),
		AutoDelete:       true,
		UserNotification: l.Rank() >= LevelEnhanced.Rank(),
	}
}

// ConfigurationError reports an invalid privacy or retention setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("policy: invalid %s: %s", e.Field, e.Reason)
}
