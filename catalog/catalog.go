package catalog

import (
	"fmt"
	"slices"

	"github.com/albertocavalcante/go-classpath/coord"
	"github.com/albertocavalcante/go-classpath/selection/version"
)

// Catalog is an immutable index of modules, versions and variants.
//
// All methods are safe for concurrent use. Returned slices are copies; the
// variants they contain share attribute maps with the catalog and must not be
// modified.
type Catalog struct {
	modules map[coord.ModuleID]*moduleEntry
}

type moduleEntry struct {
	versions map[string]*versionEntry
	// sorted ascending by version.Compare
	order []string
}

type versionEntry struct {
	variants []Variant
	legacy   *Variant
}

// Has reports whether the module has at least one catalogued version.
func (c *Catalog) Has(id coord.ModuleID) bool {
	_, ok := c.modules[id]
	return ok
}

// Modules returns all module ids in sorted order.
func (c *Catalog) Modules() []coord.ModuleID {
	ids := make([]coord.ModuleID, 0, len(c.modules))
	for id := range c.modules {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, coord.ModuleID.Compare)
	return ids
}

// Versions returns the catalogued versions of a module in ascending order.
func (c *Catalog) Versions(id coord.ModuleID) []string {
	m, ok := c.modules[id]
	if !ok {
		return nil
	}
	return slices.Clone(m.order)
}

// VariantsOf returns the variants of a module version in declaration order.
func (c *Catalog) VariantsOf(id coord.ModuleID, ver string) ([]Variant, error) {
	e, err := c.lookup(id, ver)
	if err != nil {
		return nil, err
	}
	return slices.Clone(e.variants), nil
}

// LegacyVariantOf returns the explicitly declared legacy (POM-only) variant
// of a module version, if one was declared.
func (c *Catalog) LegacyVariantOf(id coord.ModuleID, ver string) (Variant, bool, error) {
	e, err := c.lookup(id, ver)
	if err != nil {
		return Variant{}, false, err
	}
	if e.legacy == nil {
		return Variant{}, false, nil
	}
	return *e.legacy, true, nil
}

// DeclaredDependenciesOf returns the variant's edges that belong to the configuration.
func (c *Catalog) DeclaredDependenciesOf(v Variant, cfg Configuration) []Dependency {
	deps := make([]Dependency, 0, len(v.Dependencies))
	for _, d := range v.Dependencies {
		if d.Scope.Includes(cfg) {
			deps = append(deps, d)
		}
	}
	return deps
}

func (c *Catalog) lookup(id coord.ModuleID, ver string) (*versionEntry, error) {
	m, ok := c.modules[id]
	if !ok {
		return nil, &UnknownModuleError{Module: id}
	}
	e, ok := m.versions[ver]
	if !ok {
		return nil, &UnknownModuleError{Module: id, Version: ver, Known: slices.Clone(m.order)}
	}
	return e, nil
}

// Builder accumulates catalog declarations. It is not safe for concurrent use.
type Builder struct {
	modules map[coord.ModuleID]*moduleEntry
	errs    []error
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{modules: make(map[coord.ModuleID]*moduleEntry)}
}

// AddModuleVersion declares a module version without variants. Declaring a
// version that already exists is a no-op.
func (b *Builder) AddModuleVersion(id coord.ModuleID, ver string) {
	b.entry(id, ver)
}

// HasModuleVersion reports whether the version has been declared.
func (b *Builder) HasModuleVersion(id coord.ModuleID, ver string) bool {
	m, ok := b.modules[id]
	if !ok {
		return false
	}
	_, ok = m.versions[ver]
	return ok
}

// AddVariant adds a variant to its module version, declaring the version if needed.
func (b *Builder) AddVariant(v Variant) error {
	if err := validateVariant(v); err != nil {
		b.errs = append(b.errs, err)
		return err
	}
	e := b.entry(v.Module, v.Version)
	for _, existing := range e.variants {
		if existing.Name == v.Name {
			err := fmt.Errorf("duplicate variant %q for %s:%s", v.Name, v.Module, v.Version)
			b.errs = append(b.errs, err)
			return err
		}
	}
	e.variants = append(e.variants, v.clone())
	return nil
}

// SetLegacyVariant sets the legacy (POM-only) variant of a module version.
func (b *Builder) SetLegacyVariant(v Variant) error {
	if v.Name == "" {
		v.Name = "pom"
	}
	if err := validateVariant(v); err != nil {
		b.errs = append(b.errs, err)
		return err
	}
	e := b.entry(v.Module, v.Version)
	if e.legacy != nil {
		err := fmt.Errorf("duplicate legacy variant for %s:%s", v.Module, v.Version)
		b.errs = append(b.errs, err)
		return err
	}
	lv := v.clone()
	lv.Legacy = true
	e.legacy = &lv
	return nil
}

// Build returns the immutable catalog, or the first declaration error.
func (b *Builder) Build() (*Catalog, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	modules := make(map[coord.ModuleID]*moduleEntry, len(b.modules))
	for id, m := range b.modules {
		cp := &moduleEntry{versions: make(map[string]*versionEntry, len(m.versions))}
		for ver, e := range m.versions {
			ce := &versionEntry{variants: make([]Variant, len(e.variants))}
			for i, v := range e.variants {
				ce.variants[i] = v.clone()
			}
			if e.legacy != nil {
				lv := e.legacy.clone()
				ce.legacy = &lv
			}
			cp.versions[ver] = ce
			cp.order = append(cp.order, ver)
		}
		version.Sort(cp.order)
		modules[id] = cp
	}
	return &Catalog{modules: modules}, nil
}

func (b *Builder) entry(id coord.ModuleID, ver string) *versionEntry {
	m, ok := b.modules[id]
	if !ok {
		m = &moduleEntry{versions: make(map[string]*versionEntry)}
		b.modules[id] = m
	}
	e, ok := m.versions[ver]
	if !ok {
		e = &versionEntry{}
		m.versions[ver] = e
	}
	return e
}

func validateVariant(v Variant) error {
	if v.Module.IsEmpty() {
		return fmt.Errorf("variant %q has no module", v.Name)
	}
	if _, err := version.Parse(v.Version); err != nil {
		return fmt.Errorf("variant %q of %s: %w", v.Name, v.Module, err)
	}
	if v.Name == "" {
		return fmt.Errorf("variant of %s:%s has no name", v.Module, v.Version)
	}
	for _, d := range v.Dependencies {
		if d.To.IsEmpty() {
			return fmt.Errorf("variant %s has a dependency without target", v)
		}
	}
	return nil
}
