// Package graph provides the resolved dependency graph and queries over it.
//
// A Graph is built during resolution and answers the questions a build user
// asks of a classpath:
//
//   - Which variant of each module was selected, and which files it contributes
//   - Why a module is at a particular version (dependency insight)
//   - Which dependency paths pull a module in
//   - Direct and transitive dependencies and dependents
//
// # Querying the Graph
//
//	result, _ := resolver.Resolve(req)
//	g := result.Graph
//
//	deps := g.DirectDeps(key)
//	explanation, _ := g.Explain(coord.MustModuleID("com.google.guava:guava"))
//	path := g.Path(g.Root, key)
//
// # Output Formats
//
//	jsonBytes, _ := g.ToJSON() // nested dependency report
//	dot := g.ToDOT()           // Graphviz
//	text := g.ToText()         // tree
package graph
