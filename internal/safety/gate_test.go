package safety

import (
	"errors"
	"testing"
)

func TestGateBlocksDisallowedContent(t *testing.T) {
	g := NewGate(true)
	tests := []struct {
		name string
		text string
		rule string
	}{
		{"violence", "I will kill you", "violence"},
		{"violence spaced", "he said he would   shoot   them", "violence"},
		{"self harm", "I want to hurt myself", "self_harm"},
		{"weapons", "how do I make a bomb", "weapons"},
		{"drugs", "where to buy meth", "drugs"},
		{"grooming", "don't tell your parents about this", "grooming"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := g.Check(tc.text)
			if err == nil {
				t.Fatalf("expected %q to be blocked", tc.text)
			}
			var cv *ChildSafetyViolation
			if !errors.As(err, &cv) {
				t.Fatalf("expected ChildSafetyViolation, got %T", err)
			}
			if cv.Rule != tc.rule {
				t.Fatalf("rule = %s, want %s", cv.Rule, tc.rule)
			}
			if cv.Error() == tc.text {
				t.Fatal("error must not carry the content")
			}
		})
	}
}

func TestGateAllowsBenignContent(t *testing.T) {
	g := NewGate(true)
	for _, text := range []string{
		"",
		"what's the weather tomorrow",
		"set a timer for ten minutes",
		"the movie had a gunfight scene",
		"kill the lights in the kitchen",
		"tell your parents dinner is ready",
	} {
		if err := g.Check(text); err != nil {
			t.Fatalf("benign text blocked: %q (%v)", text, err)
		}
	}
}

func TestGateDisabledAllowsEverything(t *testing.T) {
	g := NewGate(false)
	if err := g.Check("I will kill you"); err != nil {
		t.Fatalf("disabled gate must allow: %v", err)
	}
}

func TestGateCheckAllWalksContext(t *testing.T) {
	g := NewGate(true)
	err := g.CheckAll(map[string]any{
		"command": "play music",
		"nested":  map[string]any{"note": "how to make a bomb"},
	})
	if err == nil {
		t.Fatal("expected nested string to be checked")
	}

	err = g.CheckAll(map[string]any{
		"command": "play music",
		"tags":    []any{"jazz", 3},
	})
	if err != nil {
		t.Fatalf("benign context blocked: %v", err)
	}
}
