// Package selection reconciles module versions and prunes the discovered
// dependency graph to the modules reachable from the root.
//
// Discovery produces a graph of (module, version) nodes in which a module may
// appear at several versions. Selection picks one version per module (see
// [Reconcile]) and walks the graph from the root, rewriting every edge to the
// selected version and dropping nodes that are no longer reachable.
package selection

import (
	"github.com/albertocavalcante/go-classpath/coord"
)

// ModuleKey identifies a module version in the dependency graph.
type ModuleKey struct {
	Module  coord.ModuleID
	Version string
}

// String returns "group:name:version".
func (k ModuleKey) String() string {
	return k.Module.String() + ":" + k.Version
}

// DepSpec is an edge to a concrete module version.
type DepSpec struct {
	Module  coord.ModuleID
	Version string
}

// Key returns the target module key.
func (d DepSpec) Key() ModuleKey {
	return ModuleKey{Module: d.Module, Version: d.Version}
}

// Module is a node in the dependency graph.
type Module struct {
	Key  ModuleKey
	Deps []DepSpec
}

// DepGraph is the discovered dependency graph before selection.
type DepGraph struct {
	Modules map[ModuleKey]*Module
	RootKey ModuleKey
}

// Result is the output of [Run].
type Result struct {
	// ResolvedGraph holds the reachable modules at their selected versions,
	// with every edge rewritten to the selected version.
	ResolvedGraph map[ModuleKey]*Module

	// BFSOrder is the breadth-first order of ResolvedGraph from the root.
	BFSOrder []ModuleKey

	// Selected maps every module requested from the reachable graph to its
	// selected version.
	Selected map[coord.ModuleID]string

	// Decisions explains each reconciled module.
	Decisions map[coord.ModuleID]Decision
}
