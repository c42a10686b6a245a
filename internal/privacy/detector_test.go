package privacy

import "testing"

func TestDetectHighConfidence(t *testing.T) {
	det := NewDetector()
	tests := []struct {
		name     string
		text     string
		category Category
	}{
		{"ssn dashed", "my ssn is 123-45-6789 ok", CategorySSN},
		{"ssn spaced", "ssn 123 45 6789", CategorySSN},
		{"email", "reach me at john.doe@example.com today", CategoryEmail},
		{"phone dashed", "call 555-123-4567", CategoryPhone},
		{"phone parens", "call (330) 333-2654", CategoryPhone},
		{"phone e164", "call +1 555 123 4567", CategoryPhone},
		{"card dashed", "pay with 4111-1111-1111-1111", CategoryCreditCard},
		{"card spaced", "pay with 4111 1111 1111 1111", CategoryCreditCard},
		{"ipv4", "device at 192.168.1.100 responded", CategoryIPAddress},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			matches := det.Detect(tc.text)
			if len(matches) == 0 {
				t.Fatalf("expected a match in %q", tc.text)
			}
			found := false
			for _, m := range matches {
				if m.Category == tc.category {
					found = true
					if m.Tier != TierHigh {
						t.Fatalf("category %s matched at tier %s, want high", m.Category, m.Tier)
					}
					if m.MatchedText == "" || tc.text[m.Start:m.End] != m.MatchedText {
						t.Fatalf("span does not line up with matched text")
					}
				}
			}
			if !found {
				t.Fatalf("expected category %s in matches %v", tc.category, matches)
			}
		})
	}
}

func TestDetectMediumConfidence(t *testing.T) {
	det := NewDetector()
	tests := []struct {
		text     string
		category Category
	}{
		{"ship to 123 Main Street please", CategoryStreetAddress},
		{"zip is 90210", CategoryZIPCode},
		{"zip plus four 90210-1234", CategoryZIPCode},
		{"patient Sarah Connor arrived", CategoryFullName},
		{"born 12/25/1990", CategoryDateOfBirth},
	}
	for _, tc := range tests {
		matches := det.Detect(tc.text)
		found := false
		for _, m := range matches {
			if m.Category == tc.category && m.Tier == TierMedium {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected medium-tier %s in %q, got %v", tc.category, tc.text, matches)
		}
	}
}

func TestDetectLowConfidence(t *testing.T) {
	det := NewDetector()
	tests := []struct {
		text     string
		category Category
	}{
		{"say hi to Emma for me", CategoryGivenName},
		{"pin at 40.7128, -74.0060 saved", CategoryCoordinates},
		{"account 123456789012 charged", CategoryDigitRun},
	}
	for _, tc := range tests {
		matches := det.Detect(tc.text)
		found := false
		for _, m := range matches {
			if m.Category == tc.category && m.Tier == TierLow {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected low-tier %s in %q, got %v", tc.category, tc.text, matches)
		}
	}
}

// The false-positive contract: identifiers that merely look numeric or
// name-shaped must never match any catalog entry.
func TestDetectFalsePositives(t *testing.T) {
	det := NewDetector()
	clean := []string{
		"",
		"turn on the kitchen lights",
		"remind me about dinner tomorrow",
		"Good Morning everyone",
		"Hello World",
		"550e8400-e29b-41d4-a716-446655440000",
		"deadbeef0123456789abcdef",
		"release v1.2.3 deployed",
		"epoch 1700000000 recorded",
		"epoch millis 1700000000000 recorded",
	}
	for _, text := range clean {
		if matches := det.Detect(text); len(matches) != 0 {
			t.Fatalf("expected no matches in %q, got %v", text, matches)
		}
	}
}

// Near-misses require exact shape: one digit short, missing domain, missing
// street suffix.
func TestDetectNearMisses(t *testing.T) {
	det := NewDetector()
	nearMisses := []string{
		"ssn-ish 123-45-678 value",
		"mail john@ bounced",
		"mail john@example bounced",
		"at 742 Evergreen we stopped",
	}
	for _, text := range nearMisses {
		for _, m := range det.Detect(text) {
			if m.Tier == TierHigh {
				t.Fatalf("near-miss %q matched high-confidence %s", text, m.Category)
			}
		}
	}
}

func TestDetectSpansDoNotOverlap(t *testing.T) {
	det := NewDetector()
	matches := det.Detect("Sarah Connor lives at 123 Main Street, zip 90210, ssn 123-45-6789")
	for i := 1; i < len(matches); i++ {
		if matches[i].Start < matches[i-1].End {
			t.Fatalf("overlapping spans: %v", matches)
		}
	}
	categories := map[Category]bool{}
	for _, m := range matches {
		categories[m.Category] = true
	}
	for _, want := range []Category{CategoryFullName, CategoryStreetAddress, CategoryZIPCode, CategorySSN} {
		if !categories[want] {
			t.Fatalf("missing category %s in %v", want, matches)
		}
	}
}

func TestDetectLuhnRejectsNonCards(t *testing.T) {
	det := NewDetector()
	// Right shape, wrong checksum: must not be a credit card match.
	for _, m := range det.Detect("number 1234-5678-9012-3456 on file") {
		if m.Category == CategoryCreditCard {
			t.Fatalf("Luhn-invalid number matched as credit card")
		}
	}
}

func TestContains(t *testing.T) {
	det := NewDetector()
	if !det.Contains("ssn 123-45-6789", TierHigh) {
		t.Fatal("expected high-tier match")
	}
	if det.Contains("say hi to Emma", TierMedium) {
		t.Fatal("low-tier match should not satisfy medium threshold")
	}
	if !det.Contains("say hi to Emma", TierLow) {
		t.Fatal("expected low-tier match")
	}
}
