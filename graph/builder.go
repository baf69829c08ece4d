package graph

import (
	"slices"

	"github.com/albertocavalcante/go-classpath/coord"
	"github.com/albertocavalcante/go-classpath/selection"
	"github.com/albertocavalcante/go-classpath/selection/version"
)

// Builder constructs a Graph from resolution results.
type Builder struct {
	// requests maps module -> requested version -> requesters.
	requests map[coord.ModuleID]map[string][]string

	variants map[ModuleKey]variantInfo
}

type variantInfo struct {
	name      string
	artifacts []string
}

// NewBuilder creates a new graph builder.
func NewBuilder() *Builder {
	return &Builder{
		requests: make(map[coord.ModuleID]map[string][]string),
		variants: make(map[ModuleKey]variantInfo),
	}
}

// RecordRequest records that requester asked for a version of a module.
// Call this during discovery, before selection.
func (b *Builder) RecordRequest(id coord.ModuleID, ver string, requester ModuleKey) {
	if b.requests[id] == nil {
		b.requests[id] = make(map[string][]string)
	}
	r := requester.String()
	if !slices.Contains(b.requests[id][ver], r) {
		b.requests[id][ver] = append(b.requests[id][ver], r)
	}
}

// RecordVariant records the variant selected for a module version.
func (b *Builder) RecordVariant(key ModuleKey, name string, artifacts []string) {
	b.variants[key] = variantInfo{name: name, artifacts: slices.Clone(artifacts)}
}

// BuildFromSelection constructs a Graph from the pruned selection result.
func (b *Builder) BuildFromSelection(resolved map[ModuleKey]*selection.Module, decisions map[coord.ModuleID]selection.Decision, root ModuleKey) *Graph {
	g := &Graph{
		Root:    root,
		Modules: make(map[ModuleKey]*Node, len(resolved)),
	}

	for key, module := range resolved {
		node := &Node{
			Key:               key,
			Dependencies:      make([]ModuleKey, 0, len(module.Deps)),
			RequestedVersions: make(map[ModuleKey]string),
			IsRoot:            key == root,
		}
		for _, dep := range module.Deps {
			if _, ok := resolved[dep.Key()]; ok && !slices.Contains(node.Dependencies, dep.Key()) {
				node.Dependencies = append(node.Dependencies, dep.Key())
			}
		}
		if v, ok := b.variants[key]; ok {
			node.Variant = v.name
			node.Artifacts = v.artifacts
		}
		node.Selection = b.buildSelectionInfo(key, decisions[key.Module], node.IsRoot)
		g.Modules[key] = node
	}

	for _, key := range g.sortedKeys() {
		for _, depKey := range g.Modules[key].Dependencies {
			dep := g.Modules[depKey]
			dep.Dependents = append(dep.Dependents, key)
			dep.RequestedVersions[key] = b.requestedVersion(key, depKey.Module)
		}
	}
	return g
}

func (b *Builder) requestedVersion(requester ModuleKey, id coord.ModuleID) string {
	r := requester.String()
	for ver, requesters := range b.requests[id] {
		if slices.Contains(requesters, r) {
			return ver
		}
	}
	return ""
}

func (b *Builder) buildSelectionInfo(key ModuleKey, d selection.Decision, isRoot bool) *SelectionInfo {
	info := &SelectionInfo{SelectedVersion: key.Version}
	if isRoot {
		info.Strategy = StrategyRoot
		info.DecidingFactor = "consumer module"
		return info
	}
	for _, c := range d.Constraints {
		info.Constraints = append(info.Constraints, c.String())
	}

	versions := make([]string, 0, len(b.requests[key.Module]))
	for ver := range b.requests[key.Module] {
		versions = append(versions, ver)
	}
	version.Sort(versions)
	for _, ver := range versions {
		c := VersionCandidate{
			Version:     ver,
			RequestedBy: slices.Sorted(slices.Values(b.requests[key.Module][ver])),
			Selected:    ver == key.Version,
		}
		if !c.Selected {
			if version.Compare(ver, key.Version) < 0 {
				c.RejectionReason = "lower version"
			} else {
				c.RejectionReason = "rejected by constraint"
			}
		}
		info.Candidates = append(info.Candidates, c)
	}

	switch {
	case d.Reason == "by constraint":
		info.Strategy = StrategyConstraint
		info.DecidingFactor = "version supplied by constraint"
	case len(info.Candidates) <= 1 && len(info.Constraints) == 0:
		info.Strategy = StrategyHighest
		info.DecidingFactor = "only version requested"
	case len(info.Constraints) > 0:
		info.Strategy = StrategyHighest
		info.DecidingFactor = "highest version accepted by constraints"
	default:
		info.Strategy = StrategyHighest
		info.DecidingFactor = "highest version among candidates"
	}
	return info
}
