// Package constraint holds version constraints that apply to modules when
// they appear in a dependency graph.
//
// Constraints never add modules to a graph. They only take part in version
// reconciliation for modules reached through dependency edges: an exact
// constraint version becomes a candidate (it may upgrade the module), a range
// or a strict constraint filters the candidates.
package constraint

import (
	"fmt"
	"slices"

	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/coord"
)

// Constraint is a version requirement on a module.
type Constraint struct {
	Module  coord.ModuleID
	Version Range

	// Strict rejects every version outside Version, including higher ones
	// requested by dependency edges.
	Strict bool

	// When restricts the constraint to requests carrying these attributes.
	// Empty means it always applies.
	When catalog.Attributes

	// Reason is free text surfaced in dependency insight.
	Reason string
}

func (c Constraint) String() string {
	s := c.Module.String() + " " + c.Version.String()
	if c.Strict {
		s += " (strict)"
	}
	if len(c.When) > 0 {
		s += " when " + c.When.String()
	}
	return s
}

// Preferred returns the version the constraint proposes as a candidate.
// Only exact constraints propose one.
func (c Constraint) Preferred() (string, bool) {
	return c.Version.Exact()
}

// Filters reports whether the constraint restricts the set of acceptable versions.
func (c Constraint) Filters() bool {
	if _, exact := c.Version.Exact(); exact {
		return c.Strict
	}
	return !c.Version.IsAny()
}

// Store is an immutable set of constraints, indexed by module.
// A nil *Store holds no constraints.
type Store struct {
	byModule map[coord.ModuleID][]Constraint
	count    int
}

// ConstraintsFor returns the constraints on id that apply to a request with attrs.
func (s *Store) ConstraintsFor(id coord.ModuleID, attrs catalog.Attributes) []Constraint {
	if s == nil {
		return nil
	}
	var out []Constraint
	for _, c := range s.byModule[id] {
		if attrs.Matches(c.When) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of constraints.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return s.count
}

// Modules returns the constrained modules in sorted order.
func (s *Store) Modules() []coord.ModuleID {
	if s == nil {
		return nil
	}
	ids := make([]coord.ModuleID, 0, len(s.byModule))
	for id := range s.byModule {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, coord.ModuleID.Compare)
	return ids
}

// Builder collects constraints.
type Builder struct {
	constraints []Constraint
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add records a constraint.
func (b *Builder) Add(c Constraint) error {
	if c.Module.IsEmpty() {
		return fmt.Errorf("constraint %q has no module", c.Version.String())
	}
	c.When = c.When.Clone()
	b.constraints = append(b.constraints, c)
	return nil
}

// AddString parses and records a constraint on "group:name" with the given version requirement.
func (b *Builder) AddString(module, requirement string, strict bool) error {
	id, err := coord.ParseModuleID(module)
	if err != nil {
		return err
	}
	r, err := ParseRange(requirement)
	if err != nil {
		return err
	}
	return b.Add(Constraint{Module: id, Version: r, Strict: strict})
}

// Build returns the immutable store.
func (b *Builder) Build() *Store {
	s := &Store{byModule: make(map[coord.ModuleID][]Constraint), count: len(b.constraints)}
	for _, c := range b.constraints {
		c.When = c.When.Clone()
		s.byModule[c.Module] = append(s.byModule[c.Module], c)
	}
	return s
}
