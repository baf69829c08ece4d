package classpath

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/albertocavalcante/go-classpath/capability"
	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/constraint"
	"github.com/albertocavalcante/go-classpath/coord"
	"github.com/albertocavalcante/go-classpath/graph"
	"github.com/albertocavalcante/go-classpath/selection"
	"github.com/albertocavalcante/go-classpath/variant"
)

// Resolver computes classpaths against a fixed catalog and constraint store.
//
// A Resolver holds no per-resolution state and is safe for concurrent use.
type Resolver struct {
	catalog     *catalog.Catalog
	constraints *constraint.Store
	config      *resolverConfig

	rich   variant.Matcher
	legacy variant.Matcher
}

// NewResolver creates a Resolver. The constraint store may be nil.
func NewResolver(cat *catalog.Catalog, store *constraint.Store, opts ...Option) (*Resolver, error) {
	if cat == nil {
		return nil, errors.New("nil catalog")
	}
	cfg, err := newResolverConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		catalog:     cat,
		constraints: store,
		config:      cfg,
		rich:        variant.NewRichMatcher(cfg.compatibilityRules),
		legacy:      variant.LegacyMatcher{},
	}, nil
}

func (r *Resolver) matcher(mode MetadataMode) variant.Matcher {
	if mode == ModeLegacyPomOnly {
		return r.legacy
	}
	return r.rich
}

func (r *Resolver) capabilityResolver(mode MetadataMode) capability.Resolver {
	if mode == ModeLegacyPomOnly {
		return capability.InertResolver{}
	}
	return capability.NewRichResolver(r.config.capabilityRules)
}

// Resolve computes the classpath for one request.
//
// Resolution is all-or-nothing: on failure the returned error is a
// *ResolutionError naming the stage that failed, and no graph is returned.
func (r *Resolver) Resolve(req Request) (*ResolvedGraph, error) {
	start := time.Now()
	run := &resolution{
		Resolver: r,
		req:      req,
		attrs:    consumerAttributes(req),
		log:      r.config.log().With("root", req.Root.String(), "configuration", req.Configuration.String(), "mode", req.Mode.String()),
		nodes:    make(map[selection.ModuleKey]*expandedNode),
		keysOf:   make(map[coord.ModuleID][]selection.ModuleKey),
		caps:     make(map[coord.ModuleID][]catalog.Capability),
		insight:  graph.NewBuilder(),
	}

	out, err := run.execute()
	if err != nil {
		run.log.Debug("resolution failed", "error", err)
		run.enter(StageFailed)
		r.config.metrics.observe(req, outcomeOf(err), time.Since(start))
		return nil, err
	}
	r.config.metrics.observe(req, "success", time.Since(start))
	r.config.metrics.conflicts(len(out.Capabilities))
	return out, nil
}

// consumerAttributes returns the attributes variants are matched against: the
// request's own, plus the configuration's usage when the request leaves it
// unset.
func consumerAttributes(req Request) catalog.Attributes {
	attrs := req.Attributes.Clone()
	if attrs == nil {
		attrs = catalog.Attributes{}
	}
	if !attrs.Has(catalog.UsageAttribute) {
		if usage := req.Configuration.Usage(); usage != "" {
			attrs[catalog.UsageAttribute] = usage
		}
	}
	return attrs
}

// expandedNode is a module version reached during expansion.
type expandedNode struct {
	variant catalog.Variant
	deps    []selection.DepSpec

	// err is a failure to select a variant or to resolve an outgoing edge.
	// It only matters if the node survives version reconciliation.
	err error

	depth  int
	parent *selection.ModuleKey
}

// resolution is the state of one Resolve call.
type resolution struct {
	*Resolver
	req   Request
	attrs catalog.Attributes
	log   *slog.Logger
	stage Stage

	rootKey selection.ModuleKey
	nodes   map[selection.ModuleKey]*expandedNode
	keysOf  map[coord.ModuleID][]selection.ModuleKey

	// caps accumulates the capabilities edges request of each module.
	caps map[coord.ModuleID][]catalog.Capability

	insight *graph.Builder
}

func (run *resolution) enter(s Stage) {
	run.stage = s
	run.log.Debug("stage", "stage", s.String())
	if run.config.onStage != nil {
		run.config.onStage(s)
	}
}

func (run *resolution) fail(err error) error {
	return &ResolutionError{Stage: run.stage, Root: run.req.Root, Err: err}
}

func (run *resolution) execute() (*ResolvedGraph, error) {
	run.enter(StageInit)
	if err := run.init(); err != nil {
		return nil, run.fail(err)
	}

	run.enter(StageExpanding)
	if err := run.expand(); err != nil {
		return nil, run.fail(err)
	}

	run.enter(StageVersionReconciling)
	result, err := selection.Run(run.depGraph(), func(id coord.ModuleID) []constraint.Constraint {
		return run.constraints.ConstraintsFor(id, run.attrs)
	})
	if err != nil {
		return nil, run.fail(err)
	}

	run.enter(StageVariantSelecting)
	for _, key := range result.BFSOrder {
		if n := run.nodes[key]; n.err != nil {
			return nil, run.fail(n.err)
		}
	}

	run.enter(StageCapabilityReconciling)
	resolved, order, resolutions, evicted, err := run.reconcileCapabilities(result)
	if err != nil {
		return nil, run.fail(err)
	}

	run.enter(StageFinalizing)
	out := run.finalize(resolved, order, result.Decisions, evicted)
	out.Capabilities = resolutions

	run.enter(StageDone)
	return out, nil
}

func (run *resolution) init() error {
	root, ver := run.req.Root, run.req.RootVersion
	if root.IsEmpty() {
		return errors.New("request has no root module")
	}
	if !run.catalog.Has(root) {
		return &catalog.UnknownModuleError{Module: root}
	}
	versions := run.catalog.Versions(root)
	if ver == "" {
		if len(versions) == 0 {
			return &catalog.UnknownModuleError{Module: root}
		}
		ver = versions[len(versions)-1]
	} else if !slices.Contains(versions, ver) {
		return &catalog.UnknownModuleError{Module: root, Version: ver, Known: versions}
	}
	run.rootKey = selection.ModuleKey{Module: root, Version: ver}
	return nil
}

// expand discovers every module version reachable from the root.
func (run *resolution) expand() error {
	queue := []selection.ModuleKey{run.rootKey}
	run.discover(run.rootKey, nil)

	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]

		node := run.nodes[key]
		if limit := run.config.maxDepth; limit > 0 && node.depth > limit {
			return &MaxDepthExceededError{Depth: node.depth, MaxDepth: limit, Path: run.pathTo(key)}
		}

		queue = append(queue, run.expandNode(key, node)...)
	}
	run.log.Debug("expanded", "nodes", len(run.nodes))
	return nil
}

// discover registers a module version. It reports false when the key was
// already known.
func (run *resolution) discover(key selection.ModuleKey, parent *selection.ModuleKey) bool {
	if _, ok := run.nodes[key]; ok {
		return false
	}
	n := &expandedNode{}
	if parent != nil {
		p := *parent
		n.parent = &p
		n.depth = run.nodes[p].depth + 1
	}
	run.nodes[key] = n
	run.keysOf[key.Module] = append(run.keysOf[key.Module], key)
	return true
}

// expandNode selects the node's variant and follows its edges. It returns the
// keys that need (re)expansion.
func (run *resolution) expandNode(key selection.ModuleKey, node *expandedNode) []selection.ModuleKey {
	// The root is the consumer itself: mandatory attributes and requested
	// capabilities only constrain its dependencies.
	vreq := variant.Request{Attributes: run.attrs}
	if key != run.rootKey {
		vreq.Mandatory = run.req.Mandatory
		vreq.Capabilities = run.caps[key.Module]
	}

	node.deps, node.err = nil, nil
	v, err := run.matcher(run.req.Mode).Select(run.catalog, key.Module, key.Version, vreq)
	if err != nil {
		node.err = err
		return nil
	}
	node.variant = v

	edges := v.Dependencies
	if run.req.Mode != ModeLegacyPomOnly {
		edges = run.catalog.DeclaredDependenciesOf(v, run.req.Configuration)
	}

	var next []selection.ModuleKey
	for _, dep := range edges {
		ver, err := run.edgeVersion(dep)
		if err != nil {
			node.err = err
			return next
		}
		run.insight.RecordRequest(dep.To, ver, key)
		node.deps = append(node.deps, selection.DepSpec{Module: dep.To, Version: ver})

		if dep.RequestedCapability != nil && !slices.Contains(run.caps[dep.To], *dep.RequestedCapability) {
			run.caps[dep.To] = append(run.caps[dep.To], *dep.RequestedCapability)
			// Variants chosen before this request may not provide the capability.
			for _, k := range run.keysOf[dep.To] {
				if !slices.Contains(next, k) {
					next = append(next, k)
				}
			}
		}

		firstVisit := len(run.keysOf[dep.To]) == 0
		target := selection.ModuleKey{Module: dep.To, Version: ver}
		if run.discover(target, &key) {
			next = append(next, target)
		}
		if firstVisit {
			next = append(next, run.constrainedVersions(dep.To, key)...)
		}
	}
	return next
}

// constrainedVersions discovers the versions exact constraints propose for a
// module, so reconciliation may pick them.
func (run *resolution) constrainedVersions(id coord.ModuleID, requester selection.ModuleKey) []selection.ModuleKey {
	var out []selection.ModuleKey
	for _, c := range run.constraints.ConstraintsFor(id, run.attrs) {
		v, ok := c.Preferred()
		if !ok {
			continue
		}
		key := selection.ModuleKey{Module: id, Version: v}
		if run.discover(key, &requester) {
			out = append(out, key)
		}
	}
	return out
}

// edgeVersion turns the version an edge declares into a concrete version.
// Dynamic versions pick the highest matching catalog version.
func (run *resolution) edgeVersion(dep catalog.Dependency) (string, error) {
	rng, err := constraint.ParseRange(dep.Version)
	if err != nil {
		return "", fmt.Errorf("dependency %s: %w", dep, err)
	}
	if v, ok := rng.Exact(); ok {
		return v, nil
	}
	if !run.catalog.Has(dep.To) {
		return "", &catalog.UnknownModuleError{Module: dep.To}
	}
	known := run.catalog.Versions(dep.To)
	v, ok := rng.Highest(known)
	if !ok {
		return "", &catalog.UnknownModuleError{Module: dep.To, Version: dep.Version, Known: known}
	}
	return v, nil
}

func (run *resolution) pathTo(key selection.ModuleKey) []string {
	var path []string
	for k := &key; k != nil; k = run.nodes[*k].parent {
		path = append(path, k.String())
	}
	slices.Reverse(path)
	return path
}

func (run *resolution) depGraph() *selection.DepGraph {
	g := &selection.DepGraph{
		Modules: make(map[selection.ModuleKey]*selection.Module, len(run.nodes)),
		RootKey: run.rootKey,
	}
	for key, n := range run.nodes {
		g.Modules[key] = &selection.Module{Key: key, Deps: n.deps}
	}
	return g
}

// reconcileCapabilities settles capability conflicts one at a time. After each
// eviction the graph is pruned and candidates are recomputed, so modules only
// an evicted module pulled in no longer compete.
//
// An evicted root stays as the anchor of the graph but contributes nothing to
// the classpath; the returned set names it.
func (run *resolution) reconcileCapabilities(result *selection.Result) (map[selection.ModuleKey]*selection.Module, []selection.ModuleKey, []capability.Resolution, map[coord.ModuleID]bool, error) {
	resolver := run.capabilityResolver(run.req.Mode)
	resolved, order := result.ResolvedGraph, result.BFSOrder
	exclude := make(map[coord.ModuleID]bool)
	var resolutions []capability.Resolution
	for {
		candidates := make([]capability.Candidate, 0, len(order))
		for _, key := range order {
			if exclude[key.Module] {
				continue
			}
			v := run.nodes[key].variant
			candidates = append(candidates, capability.Candidate{
				Module:       key.Module,
				Version:      key.Version,
				Variant:      v.Name,
				Capabilities: v.ProvidedCapabilities(),
			})
		}

		losers, settled, err := resolver.Resolve(candidates)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if len(losers) == 0 {
			return resolved, order, resolutions, exclude, nil
		}
		for _, id := range losers {
			exclude[id] = true
		}
		for _, res := range settled {
			run.log.Debug("capability conflict resolved", "capability", res.Capability.String(), "winner", res.Winner.String(), "reason", res.Reason)
		}
		resolutions = append(resolutions, settled...)

		resolved, order, err = selection.Walk(run.depGraph(), result.Selected, exclude)
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}
}

func (run *resolution) finalize(resolved map[selection.ModuleKey]*selection.Module, order []selection.ModuleKey, decisions map[coord.ModuleID]selection.Decision, evicted map[coord.ModuleID]bool) *ResolvedGraph {
	out := &ResolvedGraph{
		Root:          coord.Coordinate{Module: run.rootKey.Module, Version: run.rootKey.Version},
		Configuration: run.req.Configuration,
		Mode:          run.req.Mode,
		Attributes:    run.req.Attributes.Clone(),
		Selected:      make(map[coord.ModuleID]SelectedVariant, len(order)),
	}

	var artifacts []string
	for _, key := range order {
		if evicted[key.Module] {
			continue
		}
		v := run.nodes[key].variant
		out.Selected[key.Module] = SelectedVariant{
			Module:       key.Module,
			Version:      key.Version,
			Variant:      v.Name,
			Artifacts:    slices.Clone(v.Artifacts),
			Capabilities: v.ProvidedCapabilities(),
			Legacy:       v.Legacy,
		}
		artifacts = append(artifacts, v.Artifacts...)
		run.insight.RecordVariant(key, v.Name, v.Artifacts)
	}
	slices.Sort(artifacts)
	out.Artifacts = slices.Compact(artifacts)
	if out.Artifacts == nil {
		out.Artifacts = []string{}
	}

	out.Graph = run.insight.BuildFromSelection(resolved, decisions, run.rootKey)
	run.log.Debug("resolved", "modules", len(out.Selected), "artifacts", len(out.Artifacts))
	return out
}

// outcomeOf names the failure class for metrics.
func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrUnknownModule):
		return "unknown_module"
	case errors.Is(err, ErrNoCompatibleVariant):
		return "no_compatible_variant"
	case errors.Is(err, ErrAmbiguousVariant):
		return "ambiguous_variant"
	case errors.Is(err, ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, ErrCapabilityConflict):
		return "capability_conflict"
	}
	var depth *MaxDepthExceededError
	if errors.As(err, &depth) {
		return "max_depth"
	}
	return "error"
}
