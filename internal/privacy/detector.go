package privacy

import (
	"regexp"
	"sort"
	"strings"
)

// Category identifies the kind of PII a catalog entry matches.
type Category string

const (
	CategorySSN           Category = "ssn"
	CategoryCreditCard    Category = "credit_card"
	CategoryEmail         Category = "email"
	CategoryPhone         Category = "phone"
	CategoryIPAddress     Category = "ip_address"
	CategoryDateOfBirth   Category = "date_of_birth"
	CategoryStreetAddress Category = "street_address"
	CategoryZIPCode       Category = "zip_code"
	CategoryFullName      Category = "full_name"
	CategoryCoordinates   Category = "coordinates"
	CategoryGivenName     Category = "given_name"
	CategoryDigitRun      Category = "digit_run"
)

// Token is the placeholder the sanitizer substitutes for a matched span.
func (c Category) Token() string {
	return "[" + strings.ToUpper(string(c)) + "_REMOVED]"
}

// ConfidenceTier buckets how certain a pattern match is to be real PII.
type ConfidenceTier int

const (
	TierLow ConfidenceTier = iota
	TierMedium
	TierHigh
)

func (t ConfidenceTier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

// Severity maps the tier to the severity of a confirmed match.
func (t ConfidenceTier) Severity() Severity {
	switch t {
	case TierHigh:
		return SeverityCritical
	case TierMedium:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// ViolationType maps the tier to the violation class it raises.
func (t ConfidenceTier) ViolationType() ViolationType {
	switch t {
	case TierHigh:
		return ViolationPIIExposure
	case TierMedium:
		return ViolationPotentialPIIExposure
	default:
		return ViolationPrivacyLevel
	}
}

// Match is one detected span. Start/End are byte offsets into the scanned
// string.
type Match struct {
	Category    Category
	Tier        ConfidenceTier
	Start       int
	End         int
	MatchedText string
}

// catalogEntry is one row of the detection table. verify, when set, rejects
// regex candidates that fail a structural check (Luhn, octet range, epoch
// shape), keeping the false-positive rate down without widening the regex.
type catalogEntry struct {
	category Category
	tier     ConfidenceTier
	re       *regexp.Regexp
	verify   func(text string, start, end int) bool
}

// commonNameWords are capitalized tokens that look like name parts but are
// ordinary words. Pairs containing any of these never count as a full name.
var commonNameWords = map[string]struct{}{
	"the": {}, "this": {}, "that": {}, "with": {}, "from": {}, "your": {},
	"good": {}, "morning": {}, "afternoon": {}, "evening": {}, "night": {},
	"hello": {}, "dear": {}, "thanks": {}, "thank": {}, "please": {},
	"happy": {}, "birthday": {}, "remind": {}, "reminder": {}, "schedule": {},
	"turn": {}, "lights": {}, "kitchen": {}, "living": {}, "room": {},
	"play": {}, "music": {}, "weather": {}, "today": {}, "tomorrow": {},
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
	"friday": {}, "saturday": {}, "sunday": {},
}

// givenNames is the low-confidence single-name list. Deliberately short:
// frequent given names only, surfaced exclusively at MAXIMUM privacy.
const givenNames = `James|John|Robert|Michael|William|David|Mary|Patricia|Jennifer|Linda|Elizabeth|Barbara|Emma|Olivia|Noah|Liam|Sophia|Ava|Isabella|Mia|Charlotte|Lucas|Henry|Alice|Jack|Grace|Oliver|Amelia|Ethan|Lily`

// Detector scans text against the catalog. The catalog is data, not code:
// adding a category means adding a row.
type Detector struct {
	catalog []catalogEntry
}

// NewDetector compiles the full catalog.
func NewDetector() *Detector {
	return &Detector{catalog: []catalogEntry{
		// High confidence: exact structural shapes.
		{CategorySSN, TierHigh,
			regexp.MustCompile(`\b\d{3}[-\s]\d{2}[-\s]\d{4}\b`), nil},
		{CategoryCreditCard, TierHigh,
			regexp.MustCompile(`\b(?:\d{4}[ -]){3}\d{4}\b|\b\d{16}\b`), verifyLuhn},
		{CategoryEmail, TierHigh,
			regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`), nil},
		{CategoryPhone, TierHigh,
			regexp.MustCompile(`\(\d{3}\)\s?\d{3}[-.\s]?\d{4}\b|\b\d{3}[-.]\d{3}[-.]\d{4}\b|\+1[-.\s]?\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`), nil},
		{CategoryIPAddress, TierHigh,
			regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), verifyIPv4},

		// Medium confidence: shape is right but the context may not be PII.
		{CategoryDateOfBirth, TierMedium,
			regexp.MustCompile(`\b(?:0?[1-9]|1[0-2])[/-](?:0?[1-9]|[12][0-9]|3[01])[/-](?:19|20)[0-9]{2}\b`), nil},
		{CategoryStreetAddress, TierMedium,
			regexp.MustCompile(`\b\d{1,6}\s+(?:[A-Z][a-z]+\s+){1,3}(?:Street|St|Avenue|Ave|Boulevard|Blvd|Drive|Dr|Road|Rd|Lane|Ln|Court|Ct|Way|Place|Pl|Circle|Cir)\b`), nil},
		{CategoryZIPCode, TierMedium,
			regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`), nil},
		{CategoryFullName, TierMedium,
			regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`), verifyFullName},

		// Low confidence: only surfaced when the active level is MAXIMUM.
		{CategoryCoordinates, TierLow,
			regexp.MustCompile(`-?\d{1,2}\.\d{4,}\s*,\s*-?\d{1,3}\.\d{4,}`), nil},
		{CategoryGivenName, TierLow,
			regexp.MustCompile(`\b(?:` + givenNames + `)\b`), nil},
		{CategoryDigitRun, TierLow,
			regexp.MustCompile(`\b\d{9,}\b`), verifyDigitRun},
	}}
}

// Detect returns all matched spans across every tier. Spans never overlap:
// when two catalog entries match the same region, the entry listed first in
// the catalog wins. Results are sorted by start offset.
func (d *Detector) Detect(text string) []Match {
	if text == "" {
		return nil
	}
	var matches []Match
	for _, entry := range d.catalog {
		for _, span := range entry.re.FindAllStringIndex(text, -1) {
			start, end := span[0], span[1]
			if entry.verify != nil && !entry.verify(text, start, end) {
				continue
			}
			if overlaps(matches, start, end) {
				continue
			}
			matches = append(matches, Match{
				Category:    entry.category,
				Tier:        entry.tier,
				Start:       start,
				End:         end,
				MatchedText: text[start:end],
			})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })
	return matches
}

// Contains reports whether text has at least one match at or above tier.
func (d *Detector) Contains(text string, minTier ConfidenceTier) bool {
	for _, m := range d.Detect(text) {
		if m.Tier >= minTier {
			return true
		}
	}
	return false
}

func overlaps(matches []Match, start, end int) bool {
	for _, m := range matches {
		if start < m.End && end > m.Start {
			return true
		}
	}
	return false
}

func verifyLuhn(text string, start, end int) bool {
	digits := digitsOnly(text[start:end])
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum := 0
	alt := false
	for i := len(digits) - 1; i >= 0; i-- {
		n := int(digits[i] - '0')
		if alt {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		alt = !alt
	}
	return sum%10 == 0
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func verifyIPv4(text string, start, end int) bool {
	for _, octet := range strings.Split(text[start:end], ".") {
		if len(octet) > 1 && octet[0] == '0' {
			return false
		}
		n := 0
		for i := 0; i < len(octet); i++ {
			n = n*10 + int(octet[i]-'0')
		}
		if n > 255 {
			return false
		}
	}
	return true
}

func verifyFullName(text string, start, end int) bool {
	for _, token := range strings.Fields(text[start:end]) {
		if _, ok := commonNameWords[strings.ToLower(token)]; ok {
			return false
		}
	}
	return true
}

// verifyDigitRun rejects digit runs that are almost certainly identifiers
// rather than PII: plausible Unix timestamps (seconds or milliseconds) and
// runs embedded in hyphenated hex identifiers such as UUIDs.
func verifyDigitRun(text string, start, end int) bool {
	run := text[start:end]
	if looksLikeEpoch(run) {
		return false
	}
	if start >= 2 && text[start-1] == '-' && isHexByte(text[start-2]) {
		return false
	}
	if end+1 < len(text) && text[end] == '-' && isHexByte(text[end+1]) {
		return false
	}
	if (start > 0 && text[start-1] == '.') || (end < len(text) && text[end] == '.') {
		return false
	}
	return true
}

func looksLikeEpoch(run string) bool {
	switch len(run) {
	case 10:
		// Seconds since 1970 between 2001-09 and 2039-11.
		return run[0] == '1' || run[0] == '2'
	case 13:
		// Milliseconds since 1970 in the same era.
		return run[0] == '1' || run[0] == '2'
	default:
		return false
	}
}

func isHexByte(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
