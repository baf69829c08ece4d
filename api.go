// Package classpath resolves JVM-style dependency graphs into classpaths.
//
// Given a catalog of module versions, each publishing one or more variants,
// a set of version constraints and a consumer request, the resolver computes
// one deterministic artifact set for a configuration (compile or runtime).
//
// # Overview
//
// Resolution runs in stages:
//
//   - Expanding: walks edges from the root, selecting a variant for every
//     module version it reaches. Edges are filtered by configuration scope.
//   - Version reconciling: picks one version per module, the highest
//     requested or constraint-proposed version accepted by every constraint.
//   - Variant selecting: reports variant matching failures of surviving modules.
//   - Capability reconciling: detects modules providing the same capability
//     and settles them with registered selection rules.
//   - Finalizing: collects the artifact files of every surviving variant.
//
// # Quick Start
//
//	m, err := classpath.ParseCatalogFile("guava.catalog")
//	if err != nil { ... }
//	g, err := classpath.Resolve(m.Catalog, m.Constraints, classpath.Request{
//	    Root:          coord.MustModuleID("org.example:app"),
//	    Configuration: catalog.ConfigurationRuntime,
//	    Attributes:    catalog.Attributes{"org.gradle.usage": "java-runtime"},
//	}, classpath.WithCapabilityRule(
//	    catalog.MustCapability("com.google.collections:google-collections"),
//	    capability.PreferModuleNamed("guava"),
//	))
//	fmt.Println(g.Artifacts)
//
// # Legacy metadata
//
// With ModeLegacyPomOnly every module version resolves to a single variant,
// edges of all scopes are followed and capability conflicts go undetected,
// mimicking consumers that only read POM metadata.
//
// # Thread Safety
//
// Catalogs, constraint stores and resolvers are safe for concurrent use.
package classpath

import (
	"fmt"

	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/constraint"
)

// Resolve creates a Resolver and resolves one request.
func Resolve(cat *catalog.Catalog, store *constraint.Store, req Request, opts ...Option) (*ResolvedGraph, error) {
	r, err := NewResolver(cat, store, opts...)
	if err != nil {
		return nil, err
	}
	return r.Resolve(req)
}

// ResolveFile parses a catalog file and resolves one request against it.
func ResolveFile(filename string, req Request, opts ...Option) (*ResolvedGraph, error) {
	m, err := ParseCatalogFile(filename)
	if err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	return Resolve(m.Catalog, m.Constraints, req, opts...)
}
