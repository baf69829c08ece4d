package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-classpath/coord"
	"github.com/albertocavalcante/go-classpath/selection/version"
)

// Get returns the node for a module key, or nil if not found.
func (g *Graph) Get(key ModuleKey) *Node {
	return g.Modules[key]
}

// GetByModule returns the node for a module at whatever version was selected,
// or nil if the module is not in the graph.
func (g *Graph) GetByModule(id coord.ModuleID) *Node {
	for key, node := range g.Modules {
		if key.Module == id {
			return node
		}
	}
	return nil
}

// Contains returns true if the graph contains the given module version.
func (g *Graph) Contains(key ModuleKey) bool {
	_, ok := g.Modules[key]
	return ok
}

// ContainsModule returns true if the graph contains the module at any version.
func (g *Graph) ContainsModule(id coord.ModuleID) bool {
	return g.GetByModule(id) != nil
}

// DirectDeps returns the direct dependencies of a module.
func (g *Graph) DirectDeps(key ModuleKey) []ModuleKey {
	if node := g.Modules[key]; node != nil {
		return node.Dependencies
	}
	return nil
}

// DirectDependents returns modules that directly depend on the given module.
func (g *Graph) DirectDependents(key ModuleKey) []ModuleKey {
	if node := g.Modules[key]; node != nil {
		return node.Dependents
	}
	return nil
}

// TransitiveDeps returns all transitive dependencies of a module in breadth-first order.
func (g *Graph) TransitiveDeps(key ModuleKey) []ModuleKey {
	return g.bfs(key, func(n *Node) []ModuleKey { return n.Dependencies })
}

// TransitiveDependents returns all modules that transitively depend on the
// given module, closest first.
func (g *Graph) TransitiveDependents(key ModuleKey) []ModuleKey {
	return g.bfs(key, func(n *Node) []ModuleKey { return n.Dependents })
}

func (g *Graph) bfs(start ModuleKey, next func(*Node) []ModuleKey) []ModuleKey {
	result := make([]ModuleKey, 0)
	visited := map[ModuleKey]bool{start: true}
	queue := []ModuleKey{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Modules[current]
		if node == nil {
			continue
		}
		for _, k := range next(node) {
			if !visited[k] {
				visited[k] = true
				result = append(result, k)
				queue = append(queue, k)
			}
		}
	}
	return result
}

// Path finds the shortest dependency path from one module to another.
// Returns nil if no path exists.
func (g *Graph) Path(from, to ModuleKey) []ModuleKey {
	if from == to {
		return []ModuleKey{from}
	}

	type queueItem struct {
		key  ModuleKey
		path []ModuleKey
	}

	visited := map[ModuleKey]bool{from: true}
	queue := []queueItem{{key: from, path: []ModuleKey{from}}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Modules[current.key]
		if node == nil {
			continue
		}

		for _, dep := range node.Dependencies {
			if dep == to {
				return append(slices.Clone(current.path), dep)
			}
			if !visited[dep] {
				visited[dep] = true
				newPath := make([]ModuleKey, len(current.path)+1)
				copy(newPath, current.path)
				newPath[len(current.path)] = dep
				queue = append(queue, queueItem{key: dep, path: newPath})
			}
		}
	}
	return nil
}

// AllPaths finds all dependency paths from one module to another.
// This can be expensive for large graphs with many paths.
func (g *Graph) AllPaths(from, to ModuleKey) [][]ModuleKey {
	var result [][]ModuleKey
	g.findAllPaths(from, to, []ModuleKey{from}, make(map[ModuleKey]bool), &result)
	return result
}

func (g *Graph) findAllPaths(current, target ModuleKey, path []ModuleKey, visited map[ModuleKey]bool, result *[][]ModuleKey) {
	if current == target {
		*result = append(*result, slices.Clone(path))
		return
	}

	visited[current] = true
	defer func() { visited[current] = false }()

	node := g.Modules[current]
	if node == nil {
		return
	}
	for _, dep := range node.Dependencies {
		if !visited[dep] {
			g.findAllPaths(dep, target, append(path, dep), visited, result)
		}
	}
}

// Explain returns dependency insight for a module: the selected variant, why
// its version won and every path that pulls it in.
func (g *Graph) Explain(id coord.ModuleID) (*Explanation, error) {
	node := g.GetByModule(id)
	if node == nil {
		return nil, fmt.Errorf("module %s not found in graph", id)
	}

	explanation := &Explanation{
		Module:    node.Key,
		Variant:   node.Variant,
		Artifacts: node.Artifacts,
		Selection: node.Selection,
	}

	for _, path := range g.AllPaths(g.Root, node.Key) {
		chain := DependencyChain{Path: path}
		if len(path) >= 2 {
			chain.RequestedVersion = node.RequestedVersions[path[len(path)-2]]
		}
		explanation.DependencyChains = append(explanation.DependencyChains, chain)
	}
	explanation.RequestSummary = buildRequestSummary(node)
	return explanation, nil
}

func buildRequestSummary(node *Node) string {
	if node.Selection == nil || len(node.Selection.Candidates) == 0 {
		return fmt.Sprintf("%s is at version %s", node.Key.Module, node.Key.Version)
	}

	var parts []string
	for _, candidate := range node.Selection.Candidates {
		part := fmt.Sprintf("  %s requested by: %s", candidate.Version, strings.Join(candidate.RequestedBy, ", "))
		if candidate.Selected {
			part += " [SELECTED]"
		}
		parts = append(parts, part)
	}
	for _, c := range node.Selection.Constraints {
		parts = append(parts, "  constraint: "+c)
	}

	return fmt.Sprintf("%s version selection:\n%s\nStrategy: %s (%s)",
		node.Key.Module,
		strings.Join(parts, "\n"),
		node.Selection.Strategy,
		node.Selection.DecidingFactor,
	)
}

// WhyIncluded returns all dependency chains that cause a module to be included.
func (g *Graph) WhyIncluded(id coord.ModuleID) ([]DependencyChain, error) {
	node := g.GetByModule(id)
	if node == nil {
		return nil, fmt.Errorf("module %s not found in graph", id)
	}

	paths := g.AllPaths(g.Root, node.Key)
	chains := make([]DependencyChain, len(paths))
	for i, path := range paths {
		chains[i] = DependencyChain{Path: path}
	}
	return chains, nil
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() GraphStats {
	stats := GraphStats{TotalModules: len(g.Modules)}

	if root := g.Modules[g.Root]; root != nil {
		stats.DirectDependencies = len(root.Dependencies)
	}
	stats.TransitiveDependencies = max(stats.TotalModules-stats.DirectDependencies-1, 0)

	files := make(map[string]bool)
	for _, node := range g.Modules {
		for _, a := range node.Artifacts {
			files[a] = true
		}
	}
	stats.Artifacts = len(files)
	stats.MaxDepth = g.calculateMaxDepth()
	return stats
}

func (g *Graph) calculateMaxDepth() int {
	depths := make(map[ModuleKey]int)
	onPath := make(map[ModuleKey]bool)
	var maxDepth int

	var dfs func(key ModuleKey, depth int)
	dfs = func(key ModuleKey, depth int) {
		// A node already on the current path is a cycle back-edge.
		if onPath[key] {
			return
		}
		if existingDepth, ok := depths[key]; ok && existingDepth >= depth {
			return
		}
		depths[key] = depth
		maxDepth = max(maxDepth, depth)

		node := g.Modules[key]
		if node == nil {
			return
		}
		onPath[key] = true
		for _, dep := range node.Dependencies {
			dfs(dep, depth+1)
		}
		delete(onPath, key)
	}

	dfs(g.Root, 0)
	return maxDepth
}

// Leaves returns the modules with no dependencies, sorted.
func (g *Graph) Leaves() []ModuleKey {
	var leaves []ModuleKey
	for _, key := range g.sortedKeys() {
		if len(g.Modules[key].Dependencies) == 0 {
			leaves = append(leaves, key)
		}
	}
	return leaves
}

// HasCycles returns true if the graph contains cycles.
func (g *Graph) HasCycles() bool {
	return len(g.FindCycles()) > 0
}

// FindCycles returns all cycles in the graph.
func (g *Graph) FindCycles() [][]ModuleKey {
	var cycles [][]ModuleKey
	visited := make(map[ModuleKey]bool)
	recStack := make(map[ModuleKey]bool)
	path := make([]ModuleKey, 0)

	var findCycles func(key ModuleKey)
	findCycles = func(key ModuleKey) {
		visited[key] = true
		recStack[key] = true
		path = append(path, key)

		if node := g.Modules[key]; node != nil {
			for _, dep := range node.Dependencies {
				if !visited[dep] {
					findCycles(dep)
				} else if recStack[dep] {
					if start := slices.Index(path, dep); start >= 0 {
						cycles = append(cycles, slices.Clone(path[start:]))
					}
				}
			}
		}

		path = path[:len(path)-1]
		recStack[key] = false
	}

	for _, key := range g.sortedKeys() {
		if !visited[key] {
			findCycles(key)
		}
	}
	return cycles
}

// Artifacts returns the distinct files of every node, sorted.
func (g *Graph) Artifacts() []string {
	var out []string
	for _, node := range g.Modules {
		out = append(out, node.Artifacts...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (g *Graph) sortedKeys() []ModuleKey {
	keys := make([]ModuleKey, 0, len(g.Modules))
	for key := range g.Modules {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b ModuleKey) int {
		if c := a.Module.Compare(b.Module); c != 0 {
			return c
		}
		return version.Compare(a.Version, b.Version)
	})
	return keys
}
