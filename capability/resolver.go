// Package capability detects and resolves capability conflicts: two selected
// modules whose variants provide the same capability cannot both be on a
// classpath.
package capability

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/coord"
	"github.com/albertocavalcante/go-classpath/selection/version"
)

// ErrUnresolvedConflict is matched by errors.Is for any *UnresolvedConflictError.
var ErrUnresolvedConflict = errors.New("unresolved capability conflict")

// Candidate is a selected module taking part in capability resolution.
type Candidate struct {
	Module  coord.ModuleID
	Version string
	Variant string

	Capabilities []catalog.Capability
}

func (c Candidate) String() string {
	return c.Module.String() + ":" + c.Version
}

// Resolution records how one conflict was settled.
type Resolution struct {
	Capability catalog.Capability
	Winner     coord.ModuleID
	Losers     []coord.ModuleID
	Reason     string
}

// Resolver settles capability conflicts among selected modules.
type Resolver interface {
	// Resolve settles at most one conflict and returns the modules to evict,
	// in sorted order, and how the conflict was settled. Callers prune what
	// only the evicted modules pulled in and call Resolve again with the
	// survivors until nothing is evicted.
	Resolve(candidates []Candidate) ([]coord.ModuleID, []Resolution, error)
}

// UnresolvedConflictError is returned when a capability is provided by more
// than one module and no rule picks a winner.
type UnresolvedConflictError struct {
	Capability catalog.Capability

	// Modules lists the competing modules as group:name:version, sorted.
	Modules []string
}

func (e *UnresolvedConflictError) Error() string {
	return fmt.Sprintf("capability %s is provided by %s", e.Capability, strings.Join(e.Modules, " and "))
}

func (e *UnresolvedConflictError) Is(target error) bool {
	return target == ErrUnresolvedConflict
}

// RichResolver applies per-capability selection rules.
type RichResolver struct {
	rules map[catalog.Capability]SelectionRule
}

// NewRichResolver creates a resolver with the given rules.
func NewRichResolver(rules map[catalog.Capability]SelectionRule) *RichResolver {
	r := &RichResolver{rules: make(map[catalog.Capability]SelectionRule, len(rules))}
	for c, rule := range rules {
		r.rules[c] = rule
	}
	return r
}

// Resolve implements [Resolver].
//
// Conflicts are examined in capability order and the first one whose rule
// picks a winner is settled. Every conflict must be settled by a rule: when
// none can be, the first conflict is reported as an *UnresolvedConflictError.
func (r *RichResolver) Resolve(candidates []Candidate) ([]coord.ModuleID, []Resolution, error) {
	providers := make(map[catalog.Capability][]Candidate)
	for _, c := range candidates {
		seen := make(map[catalog.Capability]bool)
		for _, capability := range c.Capabilities {
			if seen[capability] {
				continue
			}
			seen[capability] = true
			providers[capability] = append(providers[capability], c)
		}
	}

	caps := make([]catalog.Capability, 0, len(providers))
	for c, p := range providers {
		if len(p) > 1 {
			caps = append(caps, c)
		}
	}
	slices.SortFunc(caps, catalog.Capability.Compare)

	var unresolved *UnresolvedConflictError
	for _, capability := range caps {
		group := providers[capability]
		slices.SortFunc(group, func(a, b Candidate) int { return a.Module.Compare(b.Module) })

		winner, reason, ok := r.pick(capability, group)
		if !ok {
			if unresolved == nil {
				names := make([]string, len(group))
				for i, c := range group {
					names[i] = c.String()
				}
				unresolved = &UnresolvedConflictError{Capability: capability, Modules: names}
			}
			continue
		}
		res := Resolution{Capability: capability, Winner: winner.Module, Reason: reason}
		for _, c := range group {
			if c.Module != winner.Module {
				res.Losers = append(res.Losers, c.Module)
			}
		}
		return slices.Clone(res.Losers), []Resolution{res}, nil
	}
	if unresolved != nil {
		return nil, nil, unresolved
	}
	return nil, nil, nil
}

func (r *RichResolver) pick(capability catalog.Capability, group []Candidate) (Candidate, string, bool) {
	rule, ok := r.rules[capability]
	if !ok {
		return Candidate{}, "", false
	}
	winner, ok := rule.Select(group)
	if !ok {
		return Candidate{}, "", false
	}
	return winner, rule.String(), true
}

// InertResolver never reports conflicts. Legacy metadata carries no
// capability information, so every selected module stays.
type InertResolver struct{}

// Resolve implements [Resolver].
func (InertResolver) Resolve([]Candidate) ([]coord.ModuleID, []Resolution, error) {
	return nil, nil, nil
}

// SelectionRule picks the winner of a capability conflict.
type SelectionRule interface {
	// Select returns the winner among candidates sorted by module, or false
	// when the rule does not apply.
	Select(candidates []Candidate) (Candidate, bool)
	String() string
}

type preferModule struct {
	id coord.ModuleID
}

// PreferModule selects the candidate with the given module id.
func PreferModule(id coord.ModuleID) SelectionRule {
	return preferModule{id: id}
}

func (p preferModule) Select(candidates []Candidate) (Candidate, bool) {
	for _, c := range candidates {
		if c.Module == p.id {
			return c, true
		}
	}
	return Candidate{}, false
}

func (p preferModule) String() string {
	return "prefer " + p.id.String()
}

type preferModuleNamed struct {
	substr string
}

// PreferModuleNamed selects the single candidate whose module name contains
// substr. It does not apply when zero or several candidates match.
func PreferModuleNamed(substr string) SelectionRule {
	return preferModuleNamed{substr: substr}
}

func (p preferModuleNamed) Select(candidates []Candidate) (Candidate, bool) {
	var found []Candidate
	for _, c := range candidates {
		if strings.Contains(c.Module.Name, p.substr) {
			found = append(found, c)
		}
	}
	if len(found) != 1 {
		return Candidate{}, false
	}
	return found[0], true
}

func (p preferModuleNamed) String() string {
	return "prefer module named *" + p.substr + "*"
}

type preferHighestVersion struct{}

// PreferHighestVersion selects the candidate with the highest version.
// Ties go to the lowest module id.
func PreferHighestVersion() SelectionRule {
	return preferHighestVersion{}
}

func (preferHighestVersion) Select(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if version.Compare(c.Version, best.Version) > 0 {
			best = c
		}
	}
	return best, true
}

func (preferHighestVersion) String() string {
	return "prefer highest version"
}
