package interaction

import (
	"strings"
	"testing"
	"time"
)

func TestExtractTemporalBuckets(t *testing.T) {
	e := NewExtractor()
	tests := []struct {
		hour   int
		bucket string
	}{
		{6, "morning"},
		{11, "morning"},
		{12, "afternoon"},
		{16, "afternoon"},
		{17, "evening"},
		{21, "evening"},
		{22, "night"},
		{3, "night"},
	}
	for _, tc := range tests {
		in := UserInteraction{
			Timestamp: time.Date(2026, 3, 1, tc.hour, 0, 0, 0, time.UTC),
			Source:    SourceVoice,
			Outcome:   Outcome{Success: true},
		}
		patterns := e.Extract(in)
		if len(patterns) != 2 {
			t.Fatalf("hour %d: expected 2 patterns, got %d", tc.hour, len(patterns))
		}
		temporal := patterns[0]
		if temporal.Type != PatternTemporal || temporal.Context != tc.bucket {
			t.Fatalf("hour %d: temporal = %+v, want bucket %s", tc.hour, temporal, tc.bucket)
		}
		if temporal.Strength != 0.7 {
			t.Fatalf("temporal strength = %f, want 0.7", temporal.Strength)
		}
	}
}

func TestExtractBehavioralStrength(t *testing.T) {
	e := NewExtractor()
	base := UserInteraction{
		Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Source:    SourceSmartHome,
	}

	base.Outcome.Success = true
	success := e.Extract(base)[1]
	if success.Strength != 0.8 || success.Context != "smart_home_success" {
		t.Fatalf("success pattern = %+v", success)
	}

	base.Outcome.Success = false
	failure := e.Extract(base)[1]
	if failure.Strength != 0.3 || failure.Context != "smart_home_failure" {
		t.Fatalf("failure pattern = %+v", failure)
	}
}

func TestExtractNoRawContent(t *testing.T) {
	e := NewExtractor()
	in := UserInteraction{
		Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Source:    SourceVoice,
		Type:      "command",
		Context:   map[string]any{"transcript": "call 555-123-4567 for me"},
		Outcome:   Outcome{Success: true, Summary: "called the number"},
	}
	for _, p := range e.Extract(in) {
		for _, field := range []string{p.PatternID, p.Context} {
			if strings.Contains(field, "555") || strings.Contains(field, "called") {
				t.Fatalf("raw content leaked into pattern: %+v", p)
			}
		}
	}
}
