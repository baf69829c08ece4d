// Package variant selects which published variant of a module version a
// consumer gets.
//
// [RichMatcher] implements attribute matching over rich module metadata.
// [LegacyMatcher] emulates resolution against legacy (POM-only) metadata,
// where a module version has exactly one form.
package variant

import (
	"fmt"
	"slices"

	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/coord"
)

// Request is what a consumer asks of a module version.
type Request struct {
	// Attributes are the consumer attributes.
	Attributes catalog.Attributes

	// Mandatory names attributes a variant must declare and satisfy.
	Mandatory []string

	// Capabilities restricts candidates to variants providing all of them.
	Capabilities []catalog.Capability
}

// Matcher picks one variant of a module version.
type Matcher interface {
	Select(cat *catalog.Catalog, id coord.ModuleID, version string, req Request) (catalog.Variant, error)
}

// CompatibilityRule reports whether an offered attribute value satisfies a
// requested one. Equal values are always compatible.
type CompatibilityRule func(requested, offered string) bool

// RichMatcher scores variants by attribute agreement.
//
// Only mandatory attributes and requested capabilities can rule a variant
// out: a mandatory attribute must be declared and accepted. Any other
// requested attribute adds one to the score when the variant declares and
// accepts it, and nothing otherwise. The highest score wins and a tie is an
// error.
type RichMatcher struct {
	rules map[string]CompatibilityRule
}

// NewRichMatcher creates a matcher with optional per-attribute compatibility rules.
func NewRichMatcher(rules map[string]CompatibilityRule) *RichMatcher {
	m := &RichMatcher{rules: make(map[string]CompatibilityRule, len(rules))}
	for k, r := range rules {
		m.rules[k] = r
	}
	return m
}

// Select implements [Matcher].
//
// A module version that declares no rich variants but has a legacy variant
// resolves to the legacy variant.
func (m *RichMatcher) Select(cat *catalog.Catalog, id coord.ModuleID, version string, req Request) (catalog.Variant, error) {
	candidates, err := cat.VariantsOf(id, version)
	if err != nil {
		return catalog.Variant{}, err
	}
	if len(candidates) == 0 {
		if lv, ok, _ := cat.LegacyVariantOf(id, version); ok {
			return lv, nil
		}
	}

	var (
		best       []catalog.Variant
		bestScore  = -1
		rejections []Rejection
	)
	for _, v := range candidates {
		score, reasons := m.score(v, req)
		if len(reasons) > 0 {
			rejections = append(rejections, Rejection{Variant: v.Name, Reasons: reasons})
			continue
		}
		switch {
		case score > bestScore:
			best, bestScore = []catalog.Variant{v}, score
		case score == bestScore:
			best = append(best, v)
		}
	}

	switch len(best) {
	case 0:
		return catalog.Variant{}, &NoCompatibleVariantError{
			Module:       id,
			Version:      version,
			Requested:    req.Attributes.Clone(),
			Capabilities: slices.Clone(req.Capabilities),
			Candidates:   rejections,
		}
	case 1:
		return best[0], nil
	}
	names := make([]string, len(best))
	for i, v := range best {
		names[i] = v.Name
	}
	return catalog.Variant{}, &AmbiguousVariantError{
		Module:     id,
		Version:    version,
		Requested:  req.Attributes.Clone(),
		Candidates: names,
	}
}

// score returns the match score, or the reasons the variant is incompatible.
func (m *RichMatcher) score(v catalog.Variant, req Request) (int, []string) {
	var reasons []string
	for _, c := range req.Capabilities {
		if !v.Provides(c) {
			reasons = append(reasons, "does not provide capability "+c.String())
		}
	}
	for _, key := range req.Mandatory {
		got, ok := v.Attributes.Get(key)
		switch want, requested := req.Attributes.Get(key); {
		case !ok:
			reasons = append(reasons, fmt.Sprintf("missing mandatory attribute %s", key))
		case requested && !m.accepts(key, want, got):
			reasons = append(reasons, fmt.Sprintf("%s=%s, requested %s", key, got, want))
		}
	}

	score := 0
	for _, key := range req.Attributes.Keys() {
		got, ok := v.Attributes.Get(key)
		if ok && m.accepts(key, req.Attributes[key], got) {
			score++
		}
	}
	return score, reasons
}

func (m *RichMatcher) accepts(key, requested, offered string) bool {
	if requested == offered {
		return true
	}
	if rule, ok := m.rules[key]; ok {
		return rule(requested, offered)
	}
	return false
}
