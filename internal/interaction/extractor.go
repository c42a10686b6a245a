package interaction

import (
	"fmt"
	"time"
)

// Extractor derives coarse behavioral patterns from a sanitized interaction.
// Every derived value is a bucket or a source label; the extractor never
// copies capture content into a pattern.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// timeOfDayBucket maps an hour to one of four coarse buckets.
func timeOfDayBucket(ts time.Time) string {
	switch h := ts.Hour(); {
	case h >= 5 && h < 12:
		return "morning"
	case h >= 12 && h < 17:
		return "afternoon"
	case h >= 17 && h < 22:
		return "evening"
	default:
		return "night"
	}
}

// Extract returns the temporal and behavioral patterns for one interaction.
func (e *Extractor) Extract(in UserInteraction) []BehaviorPattern {
	bucket := timeOfDayBucket(in.Timestamp)
	temporal := BehaviorPattern{
		PatternID: fmt.Sprintf("temporal:%s", bucket),
		Type:      PatternTemporal,
		Strength:  0.7,
		Frequency: 1,
		Context:   bucket,
	}

	outcome := "failure"
	strength := 0.3
	if in.Outcome.Success {
		outcome = "success"
		strength = 0.8
	}
	behavioral := BehaviorPattern{
		PatternID: fmt.Sprintf("behavioral:%s", in.Source),
		Type:      PatternBehavioral,
		Strength:  strength,
		Frequency: 1,
		Context:   fmt.Sprintf("%s_%s", in.Source, outcome),
	}

	return []BehaviorPattern{temporal, behavioral}
}
