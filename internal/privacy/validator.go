package privacy

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/hearthlabs/hearth-assistant/internal/policy"
)

// recommendedActions keys remediation text by category.
var recommendedActions = map[Category]string{
	CategorySSN:           "remove social security numbers before storage",
	CategoryCreditCard:    "remove payment card numbers before storage",
	CategoryEmail:         "hash or remove email addresses before storage",
	CategoryPhone:         "hash or remove phone numbers before storage",
	CategoryIPAddress:     "drop client network addresses from payloads",
	CategoryDateOfBirth:   "replace birth dates with an age tier",
	CategoryStreetAddress: "replace street addresses with a coarse zone",
	CategoryZIPCode:       "replace postal codes with a coarse region",
	CategoryFullName:      "replace personal names with hashed identifiers",
	CategoryCoordinates:   "round coordinates to a coarse zone",
	CategoryGivenName:     "replace personal names with hashed identifiers",
	CategoryDigitRun:      "verify long numeric identifiers are not account numbers",
}

// Validator runs the detector over arbitrary object graphs for audits and
// pre-flight checks. Validate is total: it never panics, and malformed or
// non-inspectable input degrades to a best-effort result.
type Validator struct {
	det   *Detector
	clock func() time.Time
}

func NewValidator(det *Detector) *Validator {
	if det == nil {
		det = NewDetector()
	}
	return &Validator{det: det, clock: time.Now}
}

type finding struct {
	tier  ConfidenceTier
	paths []string
	count int
}

// Validate scans every string leaf reachable from data. Low-confidence
// categories are only surfaced when the active level is MAXIMUM. One
// violation is reported per distinct matched category; the risk level is the
// maximum severity across violations.
func (v *Validator) Validate(data any, level policy.Level) (result ValidationResult) {
	defer func() {
		// A payload we cannot walk must still produce a result.
		if r := recover(); r != nil {
			result = ValidationResult{
				IsCompliant:     true,
				Violations:      []Violation{},
				Recommendations: []string{"payload was only partially inspectable"},
				RiskLevel:       SeverityLow,
			}
		}
	}()

	findings := make(map[Category]*finding)
	v.walk(reflect.ValueOf(data), "$", 0, make(map[uintptr]struct{}), func(path, text string) {
		for _, m := range v.det.Detect(text) {
			if m.Tier == TierLow && level != policy.LevelMaximum {
				continue
			}
			f, ok := findings[m.Category]
			if !ok {
				f = &finding{tier: m.Tier}
				findings[m.Category] = f
			}
			f.count++
			if len(f.paths) < 3 {
				f.paths = append(f.paths, path)
			}
		}
	})

	detectedAt := v.clock().UTC()
	violations := make([]Violation, 0, len(findings))
	recommendations := make([]string, 0, len(findings))
	risk := SeverityLow
	for category, f := range findings {
		severity := f.tier.Severity()
		if severity.Rank() > risk.Rank() {
			risk = severity
		}
		affected := fmt.Sprintf("%d match(es) at %v", f.count, f.paths)
		violations = append(violations, Violation{
			Type:              f.tier.ViolationType(),
			Severity:          severity,
			Description:       fmt.Sprintf("detected %s in payload", category),
			AffectedData:      affected,
			RecommendedAction: recommendedActions[category],
			DetectedAt:        detectedAt,
		})
		recommendations = append(recommendations, recommendedActions[category])
	}
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].Severity.Rank() != violations[j].Severity.Rank() {
			return violations[i].Severity.Rank() > violations[j].Severity.Rank()
		}
		return violations[i].Description < violations[j].Description
	})
	sort.Strings(recommendations)

	return ValidationResult{
		IsCompliant:     len(violations) == 0,
		Violations:      violations,
		Recommendations: dedupe(recommendations),
		RiskLevel:       risk,
	}
}

// walk visits every reachable string leaf. Non-inspectable kinds (funcs,
// channels, unsafe pointers) are skipped; cycles and over-deep graphs are cut
// off rather than followed.
func (v *Validator) walk(val reflect.Value, path string, depth int, visited map[uintptr]struct{}, visit func(path, text string)) {
	if !val.IsValid() || depth >= maxSanitizeDepth {
		return
	}
	switch val.Kind() {
	case reflect.String:
		visit(path, val.String())
	case reflect.Interface, reflect.Pointer:
		if val.IsNil() {
			return
		}
		if val.Kind() == reflect.Pointer {
			ptr := val.Pointer()
			if _, seen := visited[ptr]; seen {
				return
			}
			visited[ptr] = struct{}{}
			defer delete(visited, ptr)
		}
		v.walk(val.Elem(), path, depth+1, visited, visit)
	case reflect.Map:
		if val.IsNil() {
			return
		}
		ptr := val.Pointer()
		if _, seen := visited[ptr]; seen {
			return
		}
		visited[ptr] = struct{}{}
		defer delete(visited, ptr)
		iter := val.MapRange()
		for iter.Next() {
			key := iter.Key()
			childPath := path + "." + fmt.Sprint(key.Interface())
			if key.Kind() == reflect.String {
				visit(childPath, key.String())
			}
			v.walk(iter.Value(), childPath, depth+1, visited, visit)
		}
	case reflect.Slice:
		if val.IsNil() {
			return
		}
		ptr := val.Pointer()
		if _, seen := visited[ptr]; seen {
			return
		}
		visited[ptr] = struct{}{}
		defer delete(visited, ptr)
		for i := 0; i < val.Len(); i++ {
			v.walk(val.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1, visited, visit)
		}
	case reflect.Array:
		for i := 0; i < val.Len(); i++ {
			v.walk(val.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1, visited, visit)
		}
	case reflect.Struct:
		t := val.Type()
		for i := 0; i < val.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			v.walk(val.Field(i), path+"."+t.Field(i).Name, depth+1, visited, visit)
		}
	default:
		// Numbers, bools, funcs, channels: nothing to inspect.
	}
}

func dedupe(in []string) []string {
	out := in[:0]
	var prev string
	for i, s := range in {
		if i == 0 || s != prev {
			out = append(out, s)
		}
		prev = s
	}
	return out
}
