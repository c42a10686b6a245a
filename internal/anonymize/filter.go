package anonymize

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hearthlabs/hearth-assistant/internal/interaction"
	"github.com/hearthlabs/hearth-assistant/internal/policy"
	"github.com/hearthlabs/hearth-assistant/pkg/logging"
)

// Anonymization techniques reported on AnonymizedData.
const (
	TechniqueTokenization        = "tokenization"
	TechniqueDifferentialPrivacy = "differential_privacy"
	TechniqueHashing             = "hashing"
)

// Privacy filters recorded on FilteredInteraction metadata.
const (
	FilterMultiStagePIIDetection  = "multi_stage_pii_detection"
	FilterDifferentialPrivacy     = "differential_privacy"
	FilterBehavioralAnonymization = "behavioral_anonymization"
)

// AnonymizedPattern is a behavioral pattern with hashed identifiers and
// noise-calibrated metrics.
type AnonymizedPattern struct {
	PatternHash        string                  `json:"pattern_hash"`
	Type               interaction.PatternType `json:"type"`
	Strength           float64                 `json:"strength"`
	Frequency          float64                 `json:"frequency"`
	ContextHash        string                  `json:"context_hash"`
	AnonymizationLevel string                  `json:"anonymization_level"`
}

// FilteredContext carries per-field hashes of the interaction context.
type FilteredContext struct {
	TemporalHash    string `json:"temporal_hash"`
	LocationHash    string `json:"location_hash,omitempty"`
	DeviceHash      string `json:"device_hash,omitempty"`
	EnvironmentHash string `json:"environment_hash,omitempty"`
}

// Metadata describes how a FilteredInteraction was produced.
type Metadata struct {
	FilteredAt            time.Time `json:"filtered_at"`
	PrivacyFiltersApplied []string  `json:"privacy_filters_applied"`
	RetentionDays         int       `json:"retention_days"`
}

// FilteredInteraction is the anonymized transport artifact handed to
// downstream consumers. It is derived and immutable; the durable copy is the
// sanitized record in the interaction store, never this.
type FilteredInteraction struct {
	UserID       string              `json:"user_id"`
	Patterns     []AnonymizedPattern `json:"patterns"`
	Context      FilteredContext     `json:"context"`
	Metadata     Metadata            `json:"metadata"`
	PrivacyLevel policy.Level        `json:"privacy_level"`
}

// AnonymizedData is the receipt for an arbitrary-payload anonymization.
type AnonymizedData struct {
	Technique    string    `json:"technique"`
	DataID       string    `json:"data_id"`
	AnonymizedAt time.Time `json:"anonymized_at"`
}

// Filter anonymizes interactions and arbitrary payloads under the policy
// store's active levels.
type Filter struct {
	policies policy.Store
	hasher   *Hasher
	noise    NoiseGenerator
	logger   *logging.Logger
	clock    func() time.Time
}

// NewFilter wires a Filter. All dependencies are required except logger.
func NewFilter(policies policy.Store, hasher *Hasher, noise NoiseGenerator, logger *logging.Logger) *Filter {
	if policies == nil {
		panic("anonymize: policy store required")
	}
	if hasher == nil {
		panic("anonymize: hasher required")
	}
	if noise == nil {
		noise = NewLaplaceNoise(time.Now().UnixNano())
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Filter{
		policies: policies,
		hasher:   hasher,
		noise:    noise,
		logger:   logger.WithComponent("anonymize"),
		clock:    time.Now,
	}
}

// FilterInteraction produces the anonymized view of an interaction under the
// effective privacy level of the user's family group. It is total: policy
// resolution failures degrade to MAXIMUM (fail closed) rather than erroring.
func (f *Filter) FilterInteraction(ctx context.Context, in interaction.UserInteraction) FilteredInteraction {
	level, err := f.policies.EffectiveLevel(ctx, in.UserID)
	if err != nil {
		f.logger.Warn("policy resolution failed, failing closed to maximum", "error", err)
		level = policy.LevelMaximum
	}

	epsilon := level.Epsilon()
	anonLevel := level.AnonymizationLevel()

	patterns := make([]AnonymizedPattern, 0, len(in.Patterns))
	for _, p := range in.Patterns {
		patterns = append(patterns, AnonymizedPattern{
			PatternHash:        f.hasher.HashID(p.PatternID),
			Type:               p.Type,
			Strength:           clamp01(p.Strength + f.noise.Noise(epsilon, 0.1)),
			Frequency:          clampMin0(p.Frequency + f.noise.Noise(epsilon, 1.0)),
			ContextHash:        f.hasher.HashField("pattern_context", p.Context),
			AnonymizationLevel: anonLevel,
		})
	}

	filters := []string{FilterMultiStagePIIDetection, FilterDifferentialPrivacy}
	if level.Rank() >= policy.LevelEnhanced.Rank() {
		filters = append(filters, FilterBehavioralAnonymization)
	}

	return FilteredInteraction{
		UserID:   f.hasher.HashID(in.UserID),
		Patterns: patterns,
		Context:  f.filterContext(in),
		Metadata: Metadata{
			FilteredAt:            f.clock().UTC(),
			PrivacyFiltersApplied: filters,
			RetentionDays:         level.RetentionDays(),
		},
		PrivacyLevel: level,
	}
}

// filterContext hashes the temporal, location, device, and environmental
// facets of the interaction. Raw values never survive into the output.
func (f *Filter) filterContext(in interaction.UserInteraction) FilteredContext {
	out := FilteredContext{
		TemporalHash: f.hasher.HashField("temporal", in.Timestamp.UTC().Format(time.RFC3339)),
		DeviceHash:   f.hasher.HashField("device", string(in.Source)),
	}
	if loc := contextString(in.Context, "location", "room", "zone"); loc != "" {
		out.LocationHash = f.hasher.HashField("location", loc)
	}
	if env := environmentFingerprint(in.Context); env != "" {
		out.EnvironmentHash = f.hasher.HashField("environment", env)
	}
	return out
}

// AnonymizeData anonymizes an arbitrary payload, picking the technique from
// the payload's shape. It never fails and always returns a receipt.
func (f *Filter) AnonymizeData(data any) AnonymizedData {
	return AnonymizedData{
		Technique:    techniqueFor(data),
		DataID:       uuid.NewString(),
		AnonymizedAt: f.clock().UTC(),
	}
}

func techniqueFor(data any) string {
	switch v := data.(type) {
	case string:
		return TechniqueTokenization
	case int, int32, int64, float32, float64:
		return TechniqueHashing
	case []float64, []int, []any:
		if arr, ok := v.([]any); ok {
			for _, item := range arr {
				switch item.(type) {
				case int, int32, int64, float32, float64:
				default:
					return TechniqueTokenization
				}
			}
		}
		return TechniqueHashing
	case interaction.UserInteraction, *interaction.UserInteraction:
		return TechniqueDifferentialPrivacy
	case map[string]any:
		if _, ok := v["patterns"]; ok {
			return TechniqueDifferentialPrivacy
		}
		return TechniqueTokenization
	default:
		return TechniqueTokenization
	}
}

// ConfigurePrivacyLevel validates and persists a user's level. Values
// outside the enum fail with a ConfigurationError.
func (f *Filter) ConfigurePrivacyLevel(ctx context.Context, userID, rawLevel string) error {
	level, err := policy.ParseLevel(rawLevel)
	if err != nil {
		return err
	}
	if err := f.policies.SetLevel(ctx, userID, level); err != nil {
		return fmt.Errorf("anonymize: persist level: %w", err)
	}
	f.logger.Info("privacy level configured", "user_id", userID, "level", level)
	return nil
}

// GeneratePrivacyReport assembles the read-only policy view for a user.
func (f *Filter) GeneratePrivacyReport(ctx context.Context, userID string) (policy.PrivacyReport, error) {
	return policy.BuildReport(ctx, f.policies, userID, f.clock())
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampMin0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func contextString(ctx map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := ctx[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// environmentFingerprint folds the remaining coarse context keys into one
// deterministic string for hashing.
func environmentFingerprint(ctx map[string]any) string {
	if len(ctx) == 0 {
		return ""
	}
	skip := map[string]bool{"location": true, "room": true, "zone": true}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		if !skip[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	out := ""
	for _, k := range keys {
		out += fmt.Sprintf("%s=%v;", k, ctx[k])
	}
	return out
}
