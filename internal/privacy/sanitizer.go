package privacy

import (
	"reflect"
	"strings"
)

// maxSanitizeDepth bounds recursion into nested payloads. Payloads deeper
// than this (or cyclic ones) get their branch replaced with truncatedToken.
const maxSanitizeDepth = 64

// truncatedToken replaces branches the sanitizer cannot safely descend into.
const truncatedToken = "[CYCLE_TRUNCATED]"

// rescanLimit caps the number of detect-and-replace passes per string.
const rescanLimit = 4

// Sanitizer rewrites arbitrary nested payloads so that no nested string
// matches any detector pattern. Non-string values pass through unchanged.
type Sanitizer struct {
	det *Detector
}

func NewSanitizer(det *Detector) *Sanitizer {
	if det == nil {
		det = NewDetector()
	}
	return &Sanitizer{det: det}
}

// SanitizeString replaces every detected span with its category token. The
// result is rescanned until clean so a replacement can never expose a new
// match at the seams.
func (s *Sanitizer) SanitizeString(text string) string {
	if text == "" {
		return text
	}
	for i := 0; i < rescanLimit; i++ {
		matches := s.det.Detect(text)
		if len(matches) == 0 {
			return text
		}
		var b strings.Builder
		b.Grow(len(text))
		last := 0
		for _, m := range matches {
			b.WriteString(text[last:m.Start])
			b.WriteString(m.Category.Token())
			last = m.End
		}
		b.WriteString(text[last:])
		text = b.String()
	}
	return text
}

// Sanitize recursively rewrites v. Strings are scrubbed, maps and slices are
// rebuilt with sanitized keys and elements, everything else is returned
// unchanged. Cyclic or over-deep structures terminate with truncatedToken in
// place of the repeated branch; Sanitize never panics and never loops.
func (s *Sanitizer) Sanitize(v any) any {
	return s.sanitizeValue(v, 0, make(map[uintptr]struct{}))
}

func (s *Sanitizer) sanitizeValue(v any, depth int, visited map[uintptr]struct{}) any {
	if v == nil {
		return nil
	}
	if depth >= maxSanitizeDepth {
		return truncatedToken
	}

	switch val := v.(type) {
	case string:
		return s.SanitizeString(val)
	case map[string]any:
		ptr := reflect.ValueOf(val).Pointer()
		if _, seen := visited[ptr]; seen {
			return truncatedToken
		}
		visited[ptr] = struct{}{}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[s.SanitizeString(k)] = s.sanitizeValue(item, depth+1, visited)
		}
		delete(visited, ptr)
		return out
	case []any:
		if len(val) == 0 {
			return val
		}
		ptr := reflect.ValueOf(val).Pointer()
		if _, seen := visited[ptr]; seen {
			return truncatedToken
		}
		visited[ptr] = struct{}{}
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = s.sanitizeValue(item, depth+1, visited)
		}
		delete(visited, ptr)
		return out
	default:
		// Numbers, booleans, and anything non-inspectable pass through.
		return v
	}
}
