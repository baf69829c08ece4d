package selection

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-classpath/constraint"
	"github.com/albertocavalcante/go-classpath/coord"
	"github.com/albertocavalcante/go-classpath/selection/version"
)

// ErrVersionConflict is matched by errors.Is for any *VersionConflictError.
var ErrVersionConflict = errors.New("version conflict")

// VersionConflictError is returned when no candidate version satisfies every
// applicable constraint.
type VersionConflictError struct {
	Module      coord.ModuleID
	Requested   []string
	Constraints []string
}

func (e *VersionConflictError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("cannot find a version of %s that satisfies the version constraints:", e.Module))
	sb.WriteString("\n  requested: ")
	sb.WriteString(strings.Join(e.Requested, ", "))
	for _, c := range e.Constraints {
		sb.WriteString("\n  constraint: ")
		sb.WriteString(c)
	}
	return sb.String()
}

func (e *VersionConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// Decision records how the version of one module was chosen.
type Decision struct {
	Module   coord.ModuleID
	Selected string

	// Requested lists the distinct versions asked for by edges, ascending.
	Requested []string

	// Constraints lists the constraints that took part.
	Constraints []constraint.Constraint

	// Reason is a short explanation: "requested", "by constraint" or "root".
	Reason string
}

// Reconcile picks the version of a module.
//
// Candidates are the requested versions plus the versions proposed by exact
// constraints. Filters are ranged constraints and strict constraints. The
// highest candidate accepted by every filter wins.
func Reconcile(id coord.ModuleID, requested []string, constraints []constraint.Constraint) (Decision, error) {
	reqs := slices.Clone(requested)
	version.Sort(reqs)
	reqs = slices.Compact(reqs)

	d := Decision{Module: id, Requested: reqs, Constraints: slices.Clone(constraints)}

	type candidate struct {
		version string
		reason  string
	}
	candidates := make([]candidate, 0, len(reqs)+len(constraints))
	for _, v := range reqs {
		candidates = append(candidates, candidate{v, "requested"})
	}
	for _, c := range constraints {
		if v, ok := c.Preferred(); ok && !slices.Contains(reqs, v) {
			candidates = append(candidates, candidate{v, "by constraint"})
		}
	}

	var best *candidate
	for i := range candidates {
		c := &candidates[i]
		if !accepted(c.version, constraints) {
			continue
		}
		if best == nil || version.Compare(c.version, best.version) > 0 {
			best = c
		}
	}
	if best == nil {
		names := make([]string, len(constraints))
		for i, c := range constraints {
			names[i] = c.String()
		}
		return Decision{}, &VersionConflictError{Module: id, Requested: reqs, Constraints: names}
	}
	d.Selected, d.Reason = best.version, best.reason
	return d, nil
}

func accepted(v string, constraints []constraint.Constraint) bool {
	for _, c := range constraints {
		if c.Filters() && !c.Version.Contains(v) {
			return false
		}
	}
	return true
}

// ConstraintSource returns the constraints applying to a module.
type ConstraintSource func(coord.ModuleID) []constraint.Constraint

// Run selects one version per module and prunes the graph.
//
// The root keeps its own version. Every other module is reconciled from the
// versions requested by its incoming edges. The first round counts every
// discovered edge; later rounds count only edges of nodes reachable at their
// selected versions, so an evicted version stops contributing requests. Rounds
// repeat until the selection no longer changes.
//
// A module that cannot be reconciled fails the run only if it is still
// reachable once the selection settles.
func Run(graph *DepGraph, constraints ConstraintSource) (*Result, error) {
	if _, ok := graph.Modules[graph.RootKey]; !ok {
		return nil, fmt.Errorf("root module %s is not in the dependency graph", graph.RootKey)
	}

	requested := requests(graph, sortedKeys(graph.Modules))
	var (
		selected  map[coord.ModuleID]string
		decisions map[coord.ModuleID]Decision
		failed    map[coord.ModuleID]error
		resolved  map[ModuleKey]*Module
		order     []ModuleKey
	)
	for round := 0; ; round++ {
		if round > len(graph.Modules) {
			return nil, fmt.Errorf("version selection did not settle after %d rounds", round)
		}
		sel, dec, errs := reconcileAll(graph.RootKey, requested, constraints)
		settled := round > 0 && maps.Equal(sel, selected)
		selected, decisions, failed = sel, dec, errs

		var err error
		resolved, order, err = Walk(graph, selected, nil)
		if err != nil {
			return nil, err
		}
		if settled {
			break
		}
		requested = requests(graph, order)
	}

	for _, key := range order {
		if err := failed[key.Module]; err != nil {
			return nil, err
		}
	}
	return &Result{
		ResolvedGraph: resolved,
		BFSOrder:      order,
		Selected:      selected,
		Decisions:     decisions,
	}, nil
}

// requests collects the versions the edges of the given nodes ask for.
func requests(graph *DepGraph, nodes []ModuleKey) map[coord.ModuleID][]string {
	requested := make(map[coord.ModuleID][]string)
	for _, key := range nodes {
		for _, dep := range graph.Modules[key].Deps {
			requested[dep.Module] = append(requested[dep.Module], dep.Version)
		}
	}
	return requested
}

func reconcileAll(root ModuleKey, requested map[coord.ModuleID][]string, constraints ConstraintSource) (map[coord.ModuleID]string, map[coord.ModuleID]Decision, map[coord.ModuleID]error) {
	selected := map[coord.ModuleID]string{root.Module: root.Version}
	decisions := map[coord.ModuleID]Decision{
		root.Module: {Module: root.Module, Selected: root.Version, Requested: []string{root.Version}, Reason: "root"},
	}
	failed := make(map[coord.ModuleID]error)

	ids := make([]coord.ModuleID, 0, len(requested))
	for id := range requested {
		if id != root.Module {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, coord.ModuleID.Compare)
	for _, id := range ids {
		var cs []constraint.Constraint
		if constraints != nil {
			cs = constraints(id)
		}
		d, err := Reconcile(id, requested[id], cs)
		if err != nil {
			failed[id] = err
			continue
		}
		selected[id] = d.Selected
		decisions[id] = d
	}
	return selected, decisions, failed
}

// Walk traverses the graph breadth-first from the root, following every edge
// to the selected version of its target. Modules in exclude are skipped along
// with everything reachable only through them.
func Walk(graph *DepGraph, selected map[coord.ModuleID]string, exclude map[coord.ModuleID]bool) (map[ModuleKey]*Module, []ModuleKey, error) {
	newGraph := make(map[ModuleKey]*Module)
	var order []ModuleKey

	known := map[ModuleKey]bool{graph.RootKey: true}
	queue := []ModuleKey{graph.RootKey}
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]

		old := graph.Modules[key]
		if old == nil {
			return nil, nil, fmt.Errorf("selected module %s was never discovered", key)
		}

		mod := &Module{Key: key}
		for _, dep := range old.Deps {
			if exclude[dep.Module] {
				continue
			}
			v, ok := selected[dep.Module]
			if !ok {
				v = dep.Version
			}
			next := ModuleKey{Module: dep.Module, Version: v}
			mod.Deps = append(mod.Deps, DepSpec{Module: dep.Module, Version: v})
			if !known[next] {
				known[next] = true
				queue = append(queue, next)
			}
		}
		newGraph[key] = mod
		order = append(order, key)
	}
	return newGraph, order, nil
}

func sortedKeys(m map[ModuleKey]*Module) []ModuleKey {
	keys := make([]ModuleKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b ModuleKey) int {
		if c := a.Module.Compare(b.Module); c != 0 {
			return c
		}
		return version.Compare(a.Version, b.Version)
	})
	return keys
}
