// Package catalog holds the known modules, their versions and published variants.
//
// A Catalog is built once with a [Builder] and is immutable afterwards, so it can
// be shared by any number of concurrent resolutions without locking.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-classpath/coord"
)

// Configuration is the purpose-specific dependency subset being resolved.
type Configuration int

const (
	// ConfigurationCompile is the compile classpath.
	ConfigurationCompile Configuration = iota
	// ConfigurationRuntime is the runtime classpath.
	ConfigurationRuntime
)

func (c Configuration) String() string {
	switch c {
	case ConfigurationCompile:
		return "compile"
	case ConfigurationRuntime:
		return "runtime"
	default:
		return fmt.Sprintf("configuration(%d)", int(c))
	}
}

// UsageAttribute is the consumer attribute naming what a variant is for.
const UsageAttribute = "org.gradle.usage"

// Usage returns the usage a configuration requests unless the consumer pins
// one: "java-api" for compile and "java-runtime" for runtime.
func (c Configuration) Usage() string {
	switch c {
	case ConfigurationCompile:
		return "java-api"
	case ConfigurationRuntime:
		return "java-runtime"
	}
	return ""
}

// ParseConfiguration parses "compile" or "runtime".
func ParseConfiguration(s string) (Configuration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compile", "compileclasspath":
		return ConfigurationCompile, nil
	case "runtime", "runtimeclasspath":
		return ConfigurationRuntime, nil
	}
	return 0, fmt.Errorf("unknown configuration %q", s)
}

// Scope is the configuration scope of a dependency edge.
type Scope int

const (
	// ScopeCompileAndRuntime edges are part of both classpaths. This is the default.
	ScopeCompileAndRuntime Scope = iota
	// ScopeCompile edges are only part of the compile classpath.
	ScopeCompile
	// ScopeRuntime edges are only part of the runtime classpath.
	ScopeRuntime
)

func (s Scope) String() string {
	switch s {
	case ScopeCompile:
		return "compile"
	case ScopeRuntime:
		return "runtime"
	default:
		return "compile+runtime"
	}
}

// ParseScope parses "compile", "runtime" or "" / "compile+runtime" / "api".
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "compile+runtime", "compileandruntime", "api":
		return ScopeCompileAndRuntime, nil
	case "compile", "compileonly":
		return ScopeCompile, nil
	case "runtime", "runtimeonly":
		return ScopeRuntime, nil
	}
	return 0, fmt.Errorf("unknown dependency scope %q", s)
}

// Includes reports whether an edge with this scope belongs to the configuration.
func (s Scope) Includes(c Configuration) bool {
	switch s {
	case ScopeCompile:
		return c == ConfigurationCompile
	case ScopeRuntime:
		return c == ConfigurationRuntime
	default:
		return true
	}
}

// Attributes are key/value pairs describing a variant or a consumer request.
type Attributes map[string]string

// Get returns the value of an attribute and whether it is present.
func (a Attributes) Get(key string) (string, bool) {
	v, ok := a[key]
	return v, ok
}

// Has reports whether the attribute is present.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Keys returns the attribute names in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Matches reports whether every attribute in want is present in a with the same value.
func (a Attributes) Matches(want Attributes) bool {
	for k, v := range want {
		if got, ok := a[k]; !ok || got != v {
			return false
		}
	}
	return true
}

// Clone returns a copy of the attributes.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// String renders attributes as "{k1=v1, k2=v2}" in key order.
func (a Attributes) String() string {
	parts := make([]string, 0, len(a))
	for _, k := range a.Keys() {
		parts = append(parts, k+"="+a[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Capability is a named "thing provided" by a variant.
type Capability struct {
	Group string
	Name  string
}

// ParseCapability parses "group:name". A trailing ":version" is ignored.
func ParseCapability(s string) (Capability, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return Capability{}, fmt.Errorf("invalid capability %q: want group:name", s)
	}
	return Capability{Group: parts[0], Name: parts[1]}, nil
}

// MustCapability parses a capability or panics. Use only for constants/tests.
func MustCapability(s string) Capability {
	c, err := ParseCapability(s)
	if err != nil {
		panic(err)
	}
	return c
}

// CapabilityOf returns the implicit capability of a module.
func CapabilityOf(id coord.ModuleID) Capability {
	return Capability{Group: id.Group, Name: id.Name}
}

func (c Capability) String() string {
	return c.Group + ":" + c.Name
}

// Compare orders capabilities by group, then name.
func (c Capability) Compare(other Capability) int {
	if r := strings.Compare(c.Group, other.Group); r != 0 {
		return r
	}
	return strings.Compare(c.Name, other.Name)
}

// Dependency is an outgoing edge from a variant to another module.
type Dependency struct {
	// From is the declaring module.
	From coord.ModuleID

	// To is the target module.
	To coord.ModuleID

	// Version is the requested version: exact ("1.0.2"), a range
	// ("[1.0,2.0)") or a prefix ("1.+"). Empty means any version.
	Version string

	// RequestedCapability, when set, restricts the target to variants
	// providing that capability.
	RequestedCapability *Capability

	// Scope selects the configurations this edge belongs to.
	Scope Scope
}

func (d Dependency) String() string {
	s := d.To.String()
	if d.Version != "" {
		s += ":" + d.Version
	}
	if d.RequestedCapability != nil {
		s += " (capability " + d.RequestedCapability.String() + ")"
	}
	return s
}

// Variant is one attribute-tagged form of a module version's published artifacts.
type Variant struct {
	// Name is unique among the variants of one module version.
	Name string

	Module  coord.ModuleID
	Version string

	Attributes Attributes

	// Capabilities lists the declared capabilities. When empty the variant
	// provides the module's own capability.
	Capabilities []Capability

	// Artifacts are file names in declaration order.
	Artifacts []string

	Dependencies []Dependency

	// Legacy marks a variant derived from legacy (POM-only) metadata.
	Legacy bool
}

// ProvidedCapabilities returns the declared capabilities, or the implicit
// module capability when none are declared.
func (v Variant) ProvidedCapabilities() []Capability {
	if len(v.Capabilities) == 0 {
		return []Capability{CapabilityOf(v.Module)}
	}
	return v.Capabilities
}

// Provides reports whether the variant provides the capability.
func (v Variant) Provides(c Capability) bool {
	return slices.Contains(v.ProvidedCapabilities(), c)
}

// Coordinate returns the variant's module coordinate.
func (v Variant) Coordinate() coord.Coordinate {
	return coord.Coordinate{Module: v.Module, Version: v.Version}
}

func (v Variant) String() string {
	return v.Coordinate().String() + "(" + v.Name + ")"
}

func (v Variant) clone() Variant {
	out := v
	out.Attributes = v.Attributes.Clone()
	out.Capabilities = slices.Clone(v.Capabilities)
	out.Artifacts = slices.Clone(v.Artifacts)
	out.Dependencies = make([]Dependency, len(v.Dependencies))
	for i, d := range v.Dependencies {
		out.Dependencies[i] = d
		if d.RequestedCapability != nil {
			c := *d.RequestedCapability
			out.Dependencies[i].RequestedCapability = &c
		}
	}
	return out
}
