package variant

import (
	"slices"
	"strings"

	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/coord"
	"github.com/albertocavalcante/go-classpath/selection/version"
)

// LegacyVariantName names variants derived from rich metadata in legacy mode.
const LegacyVariantName = "pom"

// LegacyMatcher returns the single form a module version has under legacy
// metadata. Consumer attributes are ignored.
//
// An explicitly declared legacy variant is used as is. Otherwise the variant
// is derived by naming convention: variants whose name contains the version
// qualifier ("jre" for "33.0.0-jre"), or that carry it as an attribute
// value, are merged into one. When none match, all variants are merged.
// Derived edges belong to both configurations.
type LegacyMatcher struct{}

// Select implements [Matcher].
func (LegacyMatcher) Select(cat *catalog.Catalog, id coord.ModuleID, ver string, _ Request) (catalog.Variant, error) {
	lv, ok, err := cat.LegacyVariantOf(id, ver)
	if err != nil {
		return catalog.Variant{}, err
	}
	if ok {
		return lv, nil
	}
	candidates, err := cat.VariantsOf(id, ver)
	if err != nil {
		return catalog.Variant{}, err
	}
	return DeriveLegacy(id, ver, candidates), nil
}

// DeriveLegacy merges the variants matching the version qualifier into one legacy variant.
func DeriveLegacy(id coord.ModuleID, ver string, variants []catalog.Variant) catalog.Variant {
	out := catalog.Variant{Name: LegacyVariantName, Module: id, Version: ver, Legacy: true}

	picked := variants
	if q := strings.ToLower(version.Qualifier(ver)); q != "" {
		var matching []catalog.Variant
		for _, v := range variants {
			if matchesQualifier(v, q) {
				matching = append(matching, v)
			}
		}
		if len(matching) > 0 {
			picked = matching
		}
	}

	type depKey struct {
		to      coord.ModuleID
		version string
		cap     string
	}
	seenDeps := make(map[depKey]bool)
	for _, v := range picked {
		for _, a := range v.Artifacts {
			if !slices.Contains(out.Artifacts, a) {
				out.Artifacts = append(out.Artifacts, a)
			}
		}
		for _, c := range v.Capabilities {
			if !slices.Contains(out.Capabilities, c) {
				out.Capabilities = append(out.Capabilities, c)
			}
		}
		for _, d := range v.Dependencies {
			k := depKey{to: d.To, version: d.Version}
			if d.RequestedCapability != nil {
				k.cap = d.RequestedCapability.String()
			}
			if seenDeps[k] {
				continue
			}
			seenDeps[k] = true
			d.Scope = catalog.ScopeCompileAndRuntime
			out.Dependencies = append(out.Dependencies, d)
		}
	}
	return out
}

func matchesQualifier(v catalog.Variant, q string) bool {
	if strings.Contains(strings.ToLower(v.Name), q) {
		return true
	}
	for _, val := range v.Attributes {
		if strings.ToLower(val) == q {
			return true
		}
	}
	return false
}
