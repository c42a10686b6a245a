// Package safety gates captured content before it enters the pipeline.
// Households with child accounts run every interaction through the gate;
// blocked content is dropped in full and never stored or logged.
package safety

import (
	"regexp"
	"strings"
)

// ChildSafetyViolation reports a blocked capture. It carries the matched rule
// name only, never the content itself.
type ChildSafetyViolation struct {
	Rule string
}

func (e *ChildSafetyViolation) Error() string {
	return "safety: content blocked by rule " + e.Rule
}

type rule struct {
	name string
	re   *regexp.Regexp
}

// Heuristic patterns for content that must not reach a child-linked
// pipeline. Matching is case-insensitive on the normalized text.
var rules = []rule{
	{"violence", regexp.MustCompile(`(?i)\b(kill|murder|stab|shoot|strangle)\b.{0,40}\b(you|him|her|them|yourself|myself|someone)\b`)},
	{"self_harm", regexp.MustCompile(`(?i)\b(hurt|harm|cut)\b.{0,20}\b(myself|yourself)\b|\bsuicide\b`)},
	{"weapons", regexp.MustCompile(`(?i)\bhow\b.{0,30}\b(make|build)\b.{0,30}\b(bomb|gun|weapon|explosive)\b`)},
	{"drugs", regexp.MustCompile(`(?i)\b(buy|sell|make|cook)\b.{0,20}\b(meth|heroin|cocaine|fentanyl)\b`)},
	{"explicit", regexp.MustCompile(`(?i)\b(porn|pornography|explicit sex)\b`)},
	{"grooming", regexp.MustCompile(`(?i)\b(don't|do not|never)\b.{0,20}\btell\b.{0,20}\b(your|ur)\b.{0,10}\b(parents|mom|dad|mother|father)\b`)},
	{"gore", regexp.MustCompile(`(?i)\b(gore|dismember|decapitat)`)},
}

// Gate is a stateless content check. The zero value is not usable; call
// NewGate.
type Gate struct {
	enabled bool
}

func NewGate(enabled bool) *Gate {
	return &Gate{enabled: enabled}
}

// Check returns a *ChildSafetyViolation if text trips a rule, nil otherwise.
// A disabled gate allows everything.
func (g *Gate) Check(text string) error {
	if !g.enabled || text == "" {
		return nil
	}
	normalized := strings.Join(strings.Fields(text), " ")
	for _, r := range rules {
		if r.re.MatchString(normalized) {
			return &ChildSafetyViolation{Rule: r.name}
		}
	}
	return nil
}

// CheckAll runs Check over every string value in a context map, one level
// deep into nested maps and slices.
func (g *Gate) CheckAll(values map[string]any) error {
	if !g.enabled {
		return nil
	}
	for _, v := range values {
		if err := g.checkValue(v); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gate) checkValue(v any) error {
	switch t := v.(type) {
	case string:
		return g.Check(t)
	case map[string]any:
		for _, nested := range t {
			if s, ok := nested.(string); ok {
				if err := g.Check(s); err != nil {
					return err
				}
			}
		}
	case []any:
		for _, nested := range t {
			if s, ok := nested.(string); ok {
				if err := g.Check(s); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
