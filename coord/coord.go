// Package coord provides validated module coordinates.
//
// A module is identified by its group and name ("com.google.guava:guava").
// A coordinate additionally carries a version ("com.google.guava:guava:33.0.0-jre").
//
// All types in this package are comparable values and can be used as map keys.
// Zero values are invalid; use [ParseModuleID], [NewModuleID] or [ParseCoordinate].
//
// # Validation Patterns
//
// Group and name segments must match: [A-Za-z0-9_]([A-Za-z0-9_.-]*)
// Versions must not contain whitespace or ':'.
package coord

import (
	"fmt"
	"regexp"
	"strings"
)

var segmentRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.\-]*$`)

// ModuleID identifies a module by (group, name).
type ModuleID struct {
	Group string
	Name  string
}

// NewModuleID creates a validated ModuleID.
func NewModuleID(group, name string) (ModuleID, error) {
	if group == "" {
		return ModuleID{}, fmt.Errorf("module group cannot be empty")
	}
	if name == "" {
		return ModuleID{}, fmt.Errorf("module name cannot be empty")
	}
	if !segmentRegex.MatchString(group) {
		return ModuleID{}, fmt.Errorf("invalid module group %q", group)
	}
	if !segmentRegex.MatchString(name) {
		return ModuleID{}, fmt.Errorf("invalid module name %q", name)
	}
	return ModuleID{Group: group, Name: name}, nil
}

// MustModuleID creates a ModuleID from "group:name" or panics. Use only for constants/tests.
func MustModuleID(s string) ModuleID {
	id, err := ParseModuleID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseModuleID parses "group:name".
func ParseModuleID(s string) (ModuleID, error) {
	group, name, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || strings.Contains(name, ":") {
		return ModuleID{}, fmt.Errorf("invalid module id %q: want group:name", s)
	}
	return NewModuleID(group, name)
}

// String returns "group:name".
func (id ModuleID) String() string {
	return id.Group + ":" + id.Name
}

// IsEmpty returns true for the zero ModuleID.
func (id ModuleID) IsEmpty() bool {
	return id.Group == "" && id.Name == ""
}

// Compare orders module ids by group, then name.
func (id ModuleID) Compare(other ModuleID) int {
	if c := strings.Compare(id.Group, other.Group); c != 0 {
		return c
	}
	return strings.Compare(id.Name, other.Name)
}

// Coordinate is a module id plus an optional version.
type Coordinate struct {
	Module  ModuleID
	Version string
}

// ParseCoordinate parses "group:name" or "group:name:version".
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	switch len(parts) {
	case 2, 3:
	default:
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: want group:name[:version]", s)
	}
	id, err := NewModuleID(parts[0], parts[1])
	if err != nil {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	c := Coordinate{Module: id}
	if len(parts) == 3 {
		if parts[2] == "" || strings.ContainsAny(parts[2], " \t\n") {
			return Coordinate{}, fmt.Errorf("invalid coordinate %q: bad version", s)
		}
		c.Version = parts[2]
	}
	return c, nil
}

// MustCoordinate parses a coordinate or panics. Use only for constants/tests.
func MustCoordinate(s string) Coordinate {
	c, err := ParseCoordinate(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns "group:name:version", or "group:name" when the version is empty.
func (c Coordinate) String() string {
	if c.Version == "" {
		return c.Module.String()
	}
	return c.Module.String() + ":" + c.Version
}
