package lockfile

import (
	"fmt"
	"slices"
	"strings"
)

// Diff describes how a set of fresh resolutions differs from a lock file.
type Diff struct {
	// Added contains keys resolved now but absent from the lock file.
	Added []string

	// Removed contains locked keys that were not resolved now.
	Removed []string

	// Changed contains classpaths whose hash differs.
	Changed []Change
}

// Change is a locked classpath whose content changed.
type Change struct {
	Key     string
	OldHash string
	NewHash string

	// Missing lists locked artifacts no longer on the classpath.
	Missing []string

	// Unexpected lists artifacts that are new on the classpath.
	Unexpected []string
}

// IsEmpty returns true if there are no differences.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Compare compares a locked state with a fresh one.
func Compare(old, new *Lockfile) *Diff {
	diff := &Diff{}

	for _, key := range new.Keys() {
		n := new.Classpaths[key]
		o, exists := old.Classpaths[key]
		if !exists {
			diff.Added = append(diff.Added, key)
			continue
		}
		if o.Hash == n.Hash {
			continue
		}
		diff.Changed = append(diff.Changed, Change{
			Key:        key,
			OldHash:    o.Hash,
			NewHash:    n.Hash,
			Missing:    subtract(o.Artifacts, n.Artifacts),
			Unexpected: subtract(n.Artifacts, o.Artifacts),
		})
	}
	for _, key := range old.Keys() {
		if _, exists := new.Classpaths[key]; !exists {
			diff.Removed = append(diff.Removed, key)
		}
	}
	return diff
}

// Verify checks a fresh lock file against a locked one, ignoring locked
// classpaths that were not resolved again.
func Verify(locked, fresh *Lockfile) error {
	diff := Compare(locked, fresh)
	diff.Removed = nil
	if diff.IsEmpty() {
		return nil
	}
	return fmt.Errorf("classpath lock is out of date:\n%s", diff.Summary())
}

// Summary returns a human-readable summary of the differences.
func (d *Diff) Summary() string {
	if d.IsEmpty() {
		return "no changes\n"
	}

	var sb strings.Builder
	for _, k := range d.Added {
		fmt.Fprintf(&sb, "added: %s\n", k)
	}
	for _, k := range d.Removed {
		fmt.Fprintf(&sb, "removed: %s\n", k)
	}
	for _, c := range d.Changed {
		fmt.Fprintf(&sb, "changed: %s\n", c.Key)
		for _, f := range c.Missing {
			fmt.Fprintf(&sb, "  - %s\n", f)
		}
		for _, f := range c.Unexpected {
			fmt.Fprintf(&sb, "  + %s\n", f)
		}
	}
	return sb.String()
}

// subtract returns the elements of a missing from b. Both must be sorted.
func subtract(a, b []string) []string {
	var out []string
	for _, s := range a {
		if _, ok := slices.BinarySearch(b, s); !ok {
			out = append(out, s)
		}
	}
	return out
}
