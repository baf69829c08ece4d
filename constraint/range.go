package constraint

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/albertocavalcante/go-classpath/selection/version"
)

type rangeKind int

const (
	kindAny rangeKind = iota
	kindExact
	kindInterval
	kindPrefix
	kindExpr
)

// Range is a parsed version requirement.
//
// Supported forms:
//
//	""              any version
//	"2.0"           exactly 2.0
//	"[1.0,3.0)"     interval, '[' and ']' inclusive, '(' and ')' exclusive
//	"(,3.0]"        open lower bound
//	"[1.0]"         exactly 1.0
//	"1.+" / "+"     prefix
//	">=1.0 <2.0"    comparison expression
//	"~1.2" / "^1.2" semantic-version tilde and caret
//
// Comparison terms (<, <=, >, >=, =, !=) are separated by spaces or commas,
// all must hold, and they use the same version ordering as intervals:
// "<=3.0" rejects "3.0.1" and ">=1.0" accepts "1.0.0.1". Tilde and caret
// terms follow semantic-version rules with pre-releases included; a version
// that is not valid semver never satisfies them.
type Range struct {
	raw  string
	kind rangeKind

	exact string

	lower, upper         string
	lowerIncl, upperIncl bool

	prefix string

	terms []term
}

// term is one clause of a comparison expression.
type term struct {
	op  string
	ver string
	sem *semver.Constraints // set for ~ and ^
}

var comparators = []string{"<=", ">=", "!=", "<", ">", "=", "~", "^"}

// RangeError reports a malformed version requirement.
type RangeError struct {
	Input  string
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid version range %q: %s", e.Input, e.Reason)
}

// Any matches every version.
var Any = Range{}

// ParseRange parses a version requirement.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Any, nil
	case s == "+":
		return Range{raw: s, kind: kindPrefix}, nil
	case strings.HasSuffix(s, "+") && strings.HasSuffix(strings.TrimSuffix(s, "+"), "."):
		return Range{raw: s, kind: kindPrefix, prefix: strings.TrimSuffix(s, "+")}, nil
	case s[0] == '[' || s[0] == '(':
		return parseInterval(s)
	case strings.ContainsAny(s[:1], "<>=~^!"):
		return parseExpr(s)
	}
	if _, err := version.Parse(s); err != nil {
		return Range{}, &RangeError{Input: s, Reason: err.Error()}
	}
	return Range{raw: s, kind: kindExact, exact: s}, nil
}

// MustParseRange parses a range or panics. Use only for constants/tests.
func MustParseRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parseExpr(s string) (Range, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	terms := make([]term, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		op := ""
		for _, c := range comparators {
			if strings.HasPrefix(f, c) {
				op = c
				break
			}
		}
		if op == "" {
			return Range{}, &RangeError{Input: s, Reason: fmt.Sprintf("term %q has no operator", f)}
		}
		v := strings.TrimPrefix(f, op)
		if v == "" && i+1 < len(fields) {
			// ">= 1.0"
			i++
			v = fields[i]
		}
		if v == "" || v[0] < '0' || v[0] > '9' {
			return Range{}, &RangeError{Input: s, Reason: fmt.Sprintf("term %q needs a numeric version", f)}
		}
		t := term{op: op, ver: v}
		switch op {
		case "~", "^":
			c, err := semver.NewConstraint(op + v)
			if err != nil {
				return Range{}, &RangeError{Input: s, Reason: err.Error()}
			}
			c.IncludePrerelease = true
			t.sem = c
		default:
			if _, err := version.Parse(v); err != nil {
				return Range{}, &RangeError{Input: s, Reason: err.Error()}
			}
		}
		terms = append(terms, t)
	}
	return Range{raw: s, kind: kindExpr, terms: terms}, nil
}

func (t term) holds(v string) bool {
	if t.sem != nil {
		sv, err := semver.NewVersion(v)
		return err == nil && t.sem.Check(sv)
	}
	c := version.Compare(v, t.ver)
	switch t.op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	case "=":
		return c == 0
	case "!=":
		return c != 0
	}
	return false
}

func parseInterval(s string) (Range, error) {
	last := s[len(s)-1]
	if last != ']' && last != ')' {
		return Range{}, &RangeError{Input: s, Reason: "missing closing bracket"}
	}
	body := s[1 : len(s)-1]
	lo, hi, hasComma := strings.Cut(body, ",")
	lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)

	if !hasComma {
		if s[0] != '[' || last != ']' || lo == "" {
			return Range{}, &RangeError{Input: s, Reason: "single version must use [v]"}
		}
		return Range{raw: s, kind: kindExact, exact: lo}, nil
	}
	if lo == "" && hi == "" {
		return Range{}, &RangeError{Input: s, Reason: "both bounds empty"}
	}
	for _, b := range []string{lo, hi} {
		if b == "" {
			continue
		}
		if _, err := version.Parse(b); err != nil {
			return Range{}, &RangeError{Input: s, Reason: err.Error()}
		}
	}
	if lo != "" && hi != "" && version.Compare(lo, hi) > 0 {
		return Range{}, &RangeError{Input: s, Reason: "lower bound above upper bound"}
	}
	return Range{
		raw:       s,
		kind:      kindInterval,
		lower:     lo,
		upper:     hi,
		lowerIncl: s[0] == '[',
		upperIncl: last == ']',
	}, nil
}

// Contains reports whether v satisfies the range.
func (r Range) Contains(v string) bool {
	switch r.kind {
	case kindAny:
		return true
	case kindExact:
		return version.Compare(v, r.exact) == 0
	case kindPrefix:
		return strings.HasPrefix(v, r.prefix)
	case kindInterval:
		if r.lower != "" {
			c := version.Compare(v, r.lower)
			if c < 0 || (c == 0 && !r.lowerIncl) {
				return false
			}
		}
		if r.upper != "" {
			c := version.Compare(v, r.upper)
			if c > 0 || (c == 0 && !r.upperIncl) {
				return false
			}
		}
		return true
	case kindExpr:
		for _, t := range r.terms {
			if !t.holds(v) {
				return false
			}
		}
		return true
	}
	return false
}

// Exact returns the version when the range pins a single version.
func (r Range) Exact() (string, bool) {
	if r.kind == kindExact {
		return r.exact, true
	}
	return "", false
}

// IsAny reports whether the range accepts every version.
func (r Range) IsAny() bool {
	return r.kind == kindAny
}

// IsDynamic reports whether the range needs a catalog lookup to pick a version.
func (r Range) IsDynamic() bool {
	return r.kind != kindExact
}

// Highest returns the highest of versions that the range contains.
func (r Range) Highest(versions []string) (string, bool) {
	best, found := "", false
	for _, v := range versions {
		if !r.Contains(v) {
			continue
		}
		if !found || version.Compare(v, best) > 0 {
			best, found = v, true
		}
	}
	return best, found
}

func (r Range) String() string {
	if r.kind == kindAny {
		return "*"
	}
	return r.raw
}
