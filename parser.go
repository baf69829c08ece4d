package classpath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bazelbuild/buildtools/build"

	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/constraint"
	"github.com/albertocavalcante/go-classpath/coord"
	"github.com/albertocavalcante/go-classpath/internal/buildutil"
)

// Manifest is a parsed catalog file: the modules it declares and the
// constraints that apply to them.
type Manifest struct {
	Catalog     *catalog.Catalog
	Constraints *constraint.Store
}

// declarations are the raw contents of one catalog file.
type declarations struct {
	versions    []coord.Coordinate
	variants    []catalog.Variant
	legacy      []catalog.Variant
	constraints []constraint.Constraint
}

// ParseCatalogFile reads and parses a catalog file. Files ending in .yaml or
// .yml are read as YAML, anything else as a Starlark manifest.
func ParseCatalogFile(filename string) (*Manifest, error) {
	d, err := readDeclarations(filename)
	if err != nil {
		return nil, err
	}
	return d.manifest()
}

// ParseCatalogContent parses a Starlark catalog manifest:
//
//	module("g:n:1.0")  # a version without variants
//
//	variant(
//	    module = "com.google.guava:guava:33.0.0-jre",
//	    name = "jreApiElements",
//	    attributes = {"org.gradle.usage": "java-api"},
//	    capabilities = ["com.google.guava:guava"],
//	    artifacts = ["guava-33.0.0-jre.jar"],
//	    dependencies = [
//	        "com.google.guava:failureaccess:1.0.2",
//	        dep("com.google.j2objc:j2objc-annotations:2.8", scope = "compile"),
//	        dep("org.example:lib", version = "[1.0,2.0)", capability = "org.example:lib-extra"),
//	    ],
//	)
//
//	pom(module = "g:n:1.0", artifacts = ["n-1.0.jar"], dependencies = [...])
//
//	constraint(module = "g:n", version = "1.5", strictly = True,
//	           when = {"org.gradle.usage": "java-runtime"}, reason = "CVE fix")
func ParseCatalogContent(content string) (*Manifest, error) {
	d, err := parseStarlark("catalog", []byte(content))
	if err != nil {
		return nil, err
	}
	return d.manifest()
}

// LoadCatalogFiles parses several catalog files and merges them in priority
// order: the first file declaring a module version provides all of its
// variants, later declarations of the same version are ignored. Constraints
// from every file apply.
func LoadCatalogFiles(filenames ...string) (*Manifest, error) {
	cb, sb := catalog.NewBuilder(), constraint.NewBuilder()
	claimed := make(map[coord.Coordinate]bool)
	for _, name := range filenames {
		d, err := readDeclarations(name)
		if err != nil {
			return nil, err
		}
		declared := d.declared()
		skip := func(c coord.Coordinate) bool { return claimed[c] }
		if err := d.addTo(cb, sb, skip); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for c := range declared {
			claimed[c] = true
		}
	}
	cat, err := cb.Build()
	if err != nil {
		return nil, err
	}
	return &Manifest{Catalog: cat, Constraints: sb.Build()}, nil
}

func readDeclarations(filename string) (*declarations, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	}
	return parseStarlark(filename, data)
}

func (d *declarations) manifest() (*Manifest, error) {
	cb, sb := catalog.NewBuilder(), constraint.NewBuilder()
	if err := d.addTo(cb, sb, nil); err != nil {
		return nil, err
	}
	cat, err := cb.Build()
	if err != nil {
		return nil, err
	}
	return &Manifest{Catalog: cat, Constraints: sb.Build()}, nil
}

// declared returns every module version the declarations mention.
func (d *declarations) declared() map[coord.Coordinate]bool {
	out := make(map[coord.Coordinate]bool)
	for _, c := range d.versions {
		out[c] = true
	}
	for _, v := range d.variants {
		out[v.Coordinate()] = true
	}
	for _, v := range d.legacy {
		out[v.Coordinate()] = true
	}
	return out
}

func (d *declarations) addTo(cb *catalog.Builder, sb *constraint.Builder, skip func(coord.Coordinate) bool) error {
	skipped := func(c coord.Coordinate) bool { return skip != nil && skip(c) }
	for _, c := range d.versions {
		if !skipped(c) {
			cb.AddModuleVersion(c.Module, c.Version)
		}
	}
	for _, v := range d.variants {
		if skipped(v.Coordinate()) {
			continue
		}
		if err := cb.AddVariant(v); err != nil {
			return err
		}
	}
	for _, v := range d.legacy {
		if skipped(v.Coordinate()) {
			continue
		}
		if err := cb.SetLegacyVariant(v); err != nil {
			return err
		}
	}
	for _, c := range d.constraints {
		if err := sb.Add(c); err != nil {
			return err
		}
	}
	return nil
}

func parseStarlark(filename string, data []byte) (*declarations, error) {
	f, err := build.ParseDefault(filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", filename, err)
	}

	d := &declarations{}
	for _, stmt := range f.Stmt {
		call, ok := stmt.(*build.CallExpr)
		if !ok {
			if _, isComment := stmt.(*build.CommentBlock); isComment {
				continue
			}
			return nil, fmt.Errorf("%s:%d: expected a call statement", filename, buildutil.Line(stmt))
		}
		if err := d.addCall(call); err != nil {
			return nil, fmt.Errorf("%s:%d: %s(): %w", filename, buildutil.Line(call), buildutil.FuncName(call), err)
		}
	}
	return d, nil
}

func (d *declarations) addCall(call *build.CallExpr) error {
	switch buildutil.FuncName(call) {
	case "module":
		for _, s := range buildutil.PositionalStrings(call, 0) {
			c, err := versionedCoordinate(s)
			if err != nil {
				return err
			}
			d.versions = append(d.versions, c)
		}
	case "variant":
		v, err := variantFromCall(call)
		if err != nil {
			return err
		}
		d.variants = append(d.variants, v)
	case "pom":
		v, err := variantFromCall(call)
		if err != nil {
			return err
		}
		d.legacy = append(d.legacy, v)
	case "constraint":
		c, err := constraintFromCall(call)
		if err != nil {
			return err
		}
		d.constraints = append(d.constraints, c)
	default:
		return fmt.Errorf("unknown declaration")
	}
	return nil
}

func variantFromCall(call *build.CallExpr) (catalog.Variant, error) {
	c, err := versionedCoordinate(buildutil.String(call, "module"))
	if err != nil {
		return catalog.Variant{}, err
	}
	v := catalog.Variant{Name: buildutil.String(call, "name"), Module: c.Module, Version: c.Version}

	attrs, err := buildutil.StringDict(call, "attributes")
	if err != nil {
		return catalog.Variant{}, err
	}
	v.Attributes = attrs

	caps, err := buildutil.StringList(call, "capabilities")
	if err != nil {
		return catalog.Variant{}, err
	}
	for _, s := range caps {
		cp, err := catalog.ParseCapability(s)
		if err != nil {
			return catalog.Variant{}, err
		}
		v.Capabilities = append(v.Capabilities, cp)
	}

	if v.Artifacts, err = buildutil.StringList(call, "artifacts"); err != nil {
		return catalog.Variant{}, err
	}

	deps, err := buildutil.Calls(call, "dependencies", "dep")
	if err != nil {
		return catalog.Variant{}, err
	}
	for _, dc := range deps {
		dep, err := newDependency(c.Module, buildutil.String(dc, ""), buildutil.String(dc, "version"), buildutil.String(dc, "scope"), buildutil.String(dc, "capability"))
		if err != nil {
			return catalog.Variant{}, fmt.Errorf("line %d: %w", buildutil.Line(dc), err)
		}
		v.Dependencies = append(v.Dependencies, dep)
	}
	return v, nil
}

func constraintFromCall(call *build.CallExpr) (constraint.Constraint, error) {
	module := buildutil.String(call, "module")
	if module == "" {
		module = buildutil.String(call, "")
	}
	when, err := buildutil.StringDict(call, "when")
	if err != nil {
		return constraint.Constraint{}, err
	}
	return newConstraint(module, buildutil.String(call, "version"), buildutil.Bool(call, "strictly"), when, buildutil.String(call, "reason"))
}

// newDependency builds an edge from "group:name[:version]" notation. An
// explicit version overrides the one in the coordinate.
func newDependency(from coord.ModuleID, notation, ver, scope, capability string) (catalog.Dependency, error) {
	parts := strings.SplitN(notation, ":", 3)
	if len(parts) < 2 {
		return catalog.Dependency{}, fmt.Errorf("invalid dependency %q: want group:name[:version]", notation)
	}
	to, err := coord.NewModuleID(parts[0], parts[1])
	if err != nil {
		return catalog.Dependency{}, fmt.Errorf("invalid dependency %q: %w", notation, err)
	}
	if ver == "" && len(parts) == 3 {
		ver = parts[2]
	}
	if _, err := constraint.ParseRange(ver); err != nil {
		return catalog.Dependency{}, err
	}
	sc, err := catalog.ParseScope(scope)
	if err != nil {
		return catalog.Dependency{}, err
	}
	dep := catalog.Dependency{From: from, To: to, Version: ver, Scope: sc}
	if capability != "" {
		cp, err := catalog.ParseCapability(capability)
		if err != nil {
			return catalog.Dependency{}, err
		}
		dep.RequestedCapability = &cp
	}
	return dep, nil
}

func newConstraint(module, requirement string, strict bool, when map[string]string, reason string) (constraint.Constraint, error) {
	id, err := coord.ParseModuleID(module)
	if err != nil {
		return constraint.Constraint{}, err
	}
	r, err := constraint.ParseRange(requirement)
	if err != nil {
		return constraint.Constraint{}, err
	}
	return constraint.Constraint{Module: id, Version: r, Strict: strict, When: when, Reason: reason}, nil
}

func versionedCoordinate(s string) (coord.Coordinate, error) {
	c, err := coord.ParseCoordinate(s)
	if err != nil {
		return coord.Coordinate{}, err
	}
	if c.Version == "" {
		return coord.Coordinate{}, fmt.Errorf("module %q has no version", s)
	}
	return c, nil
}
