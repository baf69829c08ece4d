package graph

import (
	"fmt"

	"github.com/albertocavalcante/go-classpath/selection"
)

// ModuleKey is an alias for selection.ModuleKey.
type ModuleKey = selection.ModuleKey

// Graph is a resolved module dependency graph.
// It supports traversal in both directions and explains version selections.
type Graph struct {
	// Root is the consumer module.
	Root ModuleKey

	// Modules contains all nodes in the graph, keyed by ModuleKey.
	Modules map[ModuleKey]*Node
}

// Node is a selected module in the dependency graph.
type Node struct {
	Key ModuleKey

	// Variant is the name of the selected variant.
	Variant string

	// Artifacts are the files contributed by the selected variant.
	Artifacts []string

	// Dependencies are the direct dependencies at their selected versions.
	Dependencies []ModuleKey

	// Dependents are modules that directly depend on this one.
	Dependents []ModuleKey

	// RequestedVersions maps each dependent to the version it asked for.
	RequestedVersions map[ModuleKey]string

	// Selection explains why this version was selected.
	Selection *SelectionInfo

	IsRoot bool
}

// SelectionInfo explains why a particular version was selected.
type SelectionInfo struct {
	Strategy SelectionStrategy

	SelectedVersion string

	// Candidates are all versions that were requested.
	Candidates []VersionCandidate

	// Constraints describes the constraints that took part.
	Constraints []string

	// DecidingFactor explains what determined the selection.
	DecidingFactor string
}

// SelectionStrategy indicates how a version was selected.
type SelectionStrategy string

const (
	// StrategyHighest indicates the highest requested version won.
	StrategyHighest SelectionStrategy = "highest"

	// StrategyConstraint indicates a constraint supplied the version.
	StrategyConstraint SelectionStrategy = "constraint"

	// StrategyRoot indicates the consumer module.
	StrategyRoot SelectionStrategy = "root"
)

// VersionCandidate is a version that was considered during selection.
type VersionCandidate struct {
	Version string

	// RequestedBy lists the modules that asked for this version.
	RequestedBy []string

	Selected bool

	// RejectionReason explains why this version lost.
	RejectionReason string
}

// Explanation is dependency insight for one module.
type Explanation struct {
	Module ModuleKey

	Variant   string
	Artifacts []string

	Selection *SelectionInfo

	// DependencyChains shows all paths from the root to this module.
	DependencyChains []DependencyChain

	RequestSummary string
}

// DependencyChain is a path of dependencies from the root to a module.
type DependencyChain struct {
	Path []ModuleKey

	// RequestedVersion is the version requested by the last edge of the chain.
	RequestedVersion string
}

// String returns a human-readable representation of the chain.
func (c DependencyChain) String() string {
	if len(c.Path) == 0 {
		return ""
	}
	result := c.Path[0].String()
	for i := 1; i < len(c.Path); i++ {
		result += " -> " + c.Path[i].String()
	}
	if c.RequestedVersion != "" {
		result += fmt.Sprintf(" (requested %s)", c.RequestedVersion)
	}
	return result
}

// GraphStats provides statistics about the graph.
type GraphStats struct {
	TotalModules           int
	DirectDependencies     int
	TransitiveDependencies int
	MaxDepth               int

	// Artifacts is the number of distinct files contributed by all nodes.
	Artifacts int
}
