// Package version implements ordering for JVM-style module versions.
//
// Versions are split into parts on '.', '-', '_' and '+', and additionally
// wherever a run of digits meets a run of letters ("1.0rc1" -> 1, 0, rc, 1).
// Parts are compared left to right:
//
//   - Numeric parts compare numerically and sort AFTER any non-numeric part.
//   - Special qualifiers have a fixed order:
//     dev < (any other word) < rc < snapshot < final < ga < release < sp
//   - Other words compare lexicographically.
//
// When one version runs out of parts, the longer version is higher if its
// next part is numeric ("1.1.0" > "1.1") and lower otherwise ("1.1-rc" < "1.1").
//
// Examples:
//
//	1.0 < 1.0.1 < 1.1
//	33.0.0-android < 33.0.0-jre < 33.0.0
//	1.0-dev < 1.0-beta < 1.0-rc1 < 1.0
//	1.0 < 9999.0-empty-to-avoid-conflict-with-guava
package version

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// specialOrder ranks qualifiers with fixed ordering. Unlisted words rank 0.
var specialOrder = map[string]int{
	"dev":      -1,
	"rc":       1,
	"snapshot": 2,
	"final":    3,
	"ga":       4,
	"release":  5,
	"sp":       6,
}

// Part is one component of a parsed version.
type Part struct {
	IsNumeric bool
	AsNumber  uint64 // Only valid if IsNumeric
	AsString  string
}

// ParsedVersion represents a parsed version.
type ParsedVersion struct {
	Parts    []Part
	Original string
}

// ParseError represents a version parsing error.
type ParseError struct {
	Version string
	Message string
}

func (e *ParseError) Error() string {
	return "bad version " + e.Version + ": " + e.Message
}

// Parse splits a version string into comparable parts.
func Parse(s string) (ParsedVersion, error) {
	if s == "" {
		return ParsedVersion{}, &ParseError{Version: s, Message: "empty version"}
	}
	if strings.ContainsAny(s, " \t\n:") {
		return ParsedVersion{}, &ParseError{Version: s, Message: "contains whitespace or ':'"}
	}

	var parts []Part
	var cur strings.Builder
	curDigits := false

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		parts = append(parts, newPart(cur.String(), curDigits))
		cur.Reset()
	}

	for _, r := range s {
		switch {
		case r == '.' || r == '-' || r == '_' || r == '+':
			flush()
		case unicode.IsDigit(r):
			if cur.Len() > 0 && !curDigits {
				flush()
			}
			curDigits = true
			cur.WriteRune(r)
		default:
			if cur.Len() > 0 && curDigits {
				flush()
			}
			curDigits = false
			cur.WriteRune(r)
		}
	}
	flush()

	if len(parts) == 0 {
		return ParsedVersion{}, &ParseError{Version: s, Message: "no version parts"}
	}
	return ParsedVersion{Parts: parts, Original: s}, nil
}

func newPart(s string, digits bool) Part {
	if digits {
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return Part{IsNumeric: true, AsNumber: n, AsString: s}
		}
	}
	return Part{AsString: s}
}

// ComparePart compares two parts.
func ComparePart(a, b Part) int {
	if a.IsNumeric != b.IsNumeric {
		if a.IsNumeric {
			return 1
		}
		return -1
	}
	if a.IsNumeric {
		return cmp.Compare(a.AsNumber, b.AsNumber)
	}

	ra, rb := specialOrder[strings.ToLower(a.AsString)], specialOrder[strings.ToLower(b.AsString)]
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	return strings.Compare(a.AsString, b.AsString)
}

// Compare compares two version strings.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
// Unparseable versions fall back to lexicographic comparison.
func Compare(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}

	n := min(len(va.Parts), len(vb.Parts))
	for i := range n {
		if c := ComparePart(va.Parts[i], vb.Parts[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(va.Parts) > n:
		if va.Parts[n].IsNumeric {
			return 1
		}
		return -1
	case len(vb.Parts) > n:
		if vb.Parts[n].IsNumeric {
			return -1
		}
		return 1
	}
	return 0
}

// Sort sorts a slice of version strings in ascending order.
func Sort(versions []string) {
	slices.SortFunc(versions, Compare)
}

// Max returns the higher of two versions.
func Max(a, b string) string {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}

// Qualifier returns the text after the first '-' of a version, or "" when
// there is none ("33.0.0-jre" -> "jre").
func Qualifier(s string) string {
	_, q, ok := strings.Cut(s, "-")
	if !ok {
		return ""
	}
	return q
}
