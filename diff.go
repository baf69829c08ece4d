package classpath

import (
	"slices"
	"strings"

	"github.com/albertocavalcante/go-classpath/coord"
	"github.com/albertocavalcante/go-classpath/selection/version"
)

// ArtifactDiff compares an expected artifact set with a resolved one.
// Duplicates and order are ignored.
type ArtifactDiff struct {
	Expected []string `json:"expected"`
	Actual   []string `json:"actual"`

	// Missing lists expected files absent from the actual set.
	Missing []string `json:"missing,omitempty"`

	// Unexpected lists actual files that were not expected.
	Unexpected []string `json:"unexpected,omitempty"`
}

// CompareArtifacts compares two artifact sets as sets.
func CompareArtifacts(expected, actual []string) *ArtifactDiff {
	d := &ArtifactDiff{Expected: sortedSet(expected), Actual: sortedSet(actual)}
	for _, f := range d.Expected {
		if _, ok := slices.BinarySearch(d.Actual, f); !ok {
			d.Missing = append(d.Missing, f)
		}
	}
	for _, f := range d.Actual {
		if _, ok := slices.BinarySearch(d.Expected, f); !ok {
			d.Unexpected = append(d.Unexpected, f)
		}
	}
	return d
}

// Equal reports whether both sets hold the same files.
func (d *ArtifactDiff) Equal() bool {
	return len(d.Missing) == 0 && len(d.Unexpected) == 0
}

// Err returns d as an error when the sets differ, and nil otherwise.
func (d *ArtifactDiff) Err() error {
	if d.Equal() {
		return nil
	}
	return d
}

// Error shows both full sets, so a mismatch can be read without re-running.
func (d *ArtifactDiff) Error() string {
	var sb strings.Builder
	sb.WriteString("artifact sets differ")
	writeList := func(label string, files []string) {
		sb.WriteString("\n  ")
		sb.WriteString(label)
		sb.WriteString(": [")
		sb.WriteString(strings.Join(files, ", "))
		sb.WriteString("]")
	}
	writeList("expected", d.Expected)
	writeList("actual", d.Actual)
	if len(d.Missing) > 0 {
		writeList("missing", d.Missing)
	}
	if len(d.Unexpected) > 0 {
		writeList("unexpected", d.Unexpected)
	}
	return sb.String()
}

func sortedSet(files []string) []string {
	out := slices.Clone(files)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []string{}
	}
	return out
}

// ModuleChange is an added or removed module in a resolution diff.
type ModuleChange struct {
	Module  coord.ModuleID `json:"module"`
	Version string         `json:"version"`
	Variant string         `json:"variant,omitempty"`
}

// ModuleUpgrade is a version change of a module present in both resolutions.
type ModuleUpgrade struct {
	Module     coord.ModuleID `json:"module"`
	OldVersion string         `json:"old_version"`
	NewVersion string         `json:"new_version"`
}

// VariantChange is a module kept at the same version whose selected variant changed.
type VariantChange struct {
	Module     coord.ModuleID `json:"module"`
	Version    string         `json:"version"`
	OldVariant string         `json:"old_variant"`
	NewVariant string         `json:"new_variant"`
}

// ResolutionDiff describes the differences between two resolutions, for
// example Compile against Runtime, or rich against legacy metadata.
type ResolutionDiff struct {
	Added          []ModuleChange  `json:"added,omitempty"`
	Removed        []ModuleChange  `json:"removed,omitempty"`
	Upgraded       []ModuleUpgrade `json:"upgraded,omitempty"`
	Downgraded     []ModuleUpgrade `json:"downgraded,omitempty"`
	VariantChanged []VariantChange `json:"variant_changed,omitempty"`

	// Artifacts compares the artifact sets, old as expected.
	Artifacts *ArtifactDiff `json:"artifacts"`
}

// IsEmpty returns true if there are no differences between the resolutions.
func (d *ResolutionDiff) IsEmpty() bool {
	return d.TotalChanges() == 0 && d.Artifacts.Equal()
}

// TotalChanges returns the number of module-level changes.
func (d *ResolutionDiff) TotalChanges() int {
	return len(d.Added) + len(d.Removed) + len(d.Upgraded) + len(d.Downgraded) + len(d.VariantChanged)
}

// DiffResolutions computes the difference between two resolutions.
// A nil argument is treated as empty. Results are sorted by module.
func DiffResolutions(old, new *ResolvedGraph) *ResolutionDiff {
	diff := &ResolutionDiff{}
	oldSel, newSel := selectedOf(old), selectedOf(new)

	for id, n := range newSel {
		o, existed := oldSel[id]
		switch {
		case !existed:
			diff.Added = append(diff.Added, ModuleChange{Module: id, Version: n.Version, Variant: n.Variant})
		case o.Version != n.Version:
			up := ModuleUpgrade{Module: id, OldVersion: o.Version, NewVersion: n.Version}
			if version.Compare(n.Version, o.Version) > 0 {
				diff.Upgraded = append(diff.Upgraded, up)
			} else {
				diff.Downgraded = append(diff.Downgraded, up)
			}
		case o.Variant != n.Variant:
			diff.VariantChanged = append(diff.VariantChanged, VariantChange{
				Module:     id,
				Version:    n.Version,
				OldVariant: o.Variant,
				NewVariant: n.Variant,
			})
		}
	}
	for id, o := range oldSel {
		if _, ok := newSel[id]; !ok {
			diff.Removed = append(diff.Removed, ModuleChange{Module: id, Version: o.Version, Variant: o.Variant})
		}
	}

	slices.SortFunc(diff.Added, func(a, b ModuleChange) int { return a.Module.Compare(b.Module) })
	slices.SortFunc(diff.Removed, func(a, b ModuleChange) int { return a.Module.Compare(b.Module) })
	slices.SortFunc(diff.Upgraded, func(a, b ModuleUpgrade) int { return a.Module.Compare(b.Module) })
	slices.SortFunc(diff.Downgraded, func(a, b ModuleUpgrade) int { return a.Module.Compare(b.Module) })
	slices.SortFunc(diff.VariantChanged, func(a, b VariantChange) int { return a.Module.Compare(b.Module) })

	diff.Artifacts = CompareArtifacts(artifactsOf(old), artifactsOf(new))
	return diff
}

func selectedOf(g *ResolvedGraph) map[coord.ModuleID]SelectedVariant {
	if g == nil {
		return nil
	}
	return g.Selected
}

func artifactsOf(g *ResolvedGraph) []string {
	if g == nil {
		return nil
	}
	return g.Artifacts
}
