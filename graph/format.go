package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/albertocavalcante/go-classpath/coord"
)

const separatorWidth = 60 // Width of separator lines in text output

// Report is the JSON form of a resolved graph.
type Report struct {
	Key          string             `json:"key"`
	Module       string             `json:"module"`
	Version      string             `json:"version"`
	Variant      string             `json:"variant,omitempty"`
	Artifacts    []string           `json:"artifacts,omitempty"`
	Dependencies []ReportDependency `json:"dependencies,omitempty"`
	Root         bool               `json:"root,omitempty"`
}

// ReportDependency is a nested dependency in a [Report].
type ReportDependency struct {
	Key          string             `json:"key"`
	Variant      string             `json:"variant,omitempty"`
	Artifacts    []string           `json:"artifacts,omitempty"`
	Dependencies []ReportDependency `json:"dependencies,omitempty"`
	Cycles       []ReportDependency `json:"cycles,omitempty"`

	// Unexpanded marks a module already expanded elsewhere in the report.
	Unexpanded bool `json:"unexpanded,omitempty"`
}

// ToJSON outputs the graph as a nested dependency report.
func (g *Graph) ToJSON() ([]byte, error) {
	return json.MarshalIndent(g.toReport(), "", "  ")
}

func (g *Graph) toReport() *Report {
	rootNode := g.Modules[g.Root]
	if rootNode == nil {
		return &Report{}
	}

	cycleKeys := make(map[ModuleKey]bool)
	for _, cycle := range g.FindCycles() {
		for _, key := range cycle {
			cycleKeys[key] = true
		}
	}

	visited := map[ModuleKey]bool{g.Root: true}
	return &Report{
		Key:          g.Root.String(),
		Module:       g.Root.Module.String(),
		Version:      g.Root.Version,
		Variant:      rootNode.Variant,
		Artifacts:    rootNode.Artifacts,
		Root:         true,
		Dependencies: g.buildReportDeps(rootNode, visited, cycleKeys),
	}
}

func (g *Graph) buildReportDeps(node *Node, visited, cycleKeys map[ModuleKey]bool) []ReportDependency {
	if node == nil {
		return nil
	}

	deps := make([]ReportDependency, 0, len(node.Dependencies))
	for _, depKey := range node.Dependencies {
		if visited[depKey] {
			deps = append(deps, ReportDependency{Key: depKey.String(), Unexpanded: true})
			continue
		}
		visited[depKey] = true
		depNode := g.Modules[depKey]

		dep := ReportDependency{Key: depKey.String()}
		if depNode != nil {
			dep.Variant = depNode.Variant
			dep.Artifacts = depNode.Artifacts
		}
		if cycleKeys[depKey] {
			dep.Cycles = []ReportDependency{{Key: depKey.String()}}
		} else {
			dep.Dependencies = g.buildReportDeps(depNode, visited, cycleKeys)
		}
		deps = append(deps, dep)
	}
	return deps
}

// ToDOT outputs the graph in Graphviz DOT format.
func (g *Graph) ToDOT() string {
	var buf bytes.Buffer

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box];\n\n")

	keys := g.sortedKeys()
	for _, key := range keys {
		node := g.Modules[key]
		label := fmt.Sprintf("%s\\n%s", key.Module, key.Version)
		if node.Variant != "" {
			label += fmt.Sprintf("\\n(%s)", node.Variant)
		}
		attrs := fmt.Sprintf(`label="%s"`, label) //nolint:gocritic // DOT format requires this quote style
		if node.IsRoot {
			attrs += ", style=bold"
		}
		if len(node.Artifacts) == 0 {
			attrs += ", style=dashed"
		}
		buf.WriteString(fmt.Sprintf("  %q [%s];\n", key.String(), attrs))
	}

	buf.WriteString("\n")

	for _, key := range keys {
		for _, dep := range g.Modules[key].Dependencies {
			buf.WriteString(fmt.Sprintf("  %q -> %q;\n", key.String(), dep.String()))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ToText outputs a human-readable tree of the graph.
func (g *Graph) ToText() string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Dependency Graph (root: %s)\n", g.Root.String()))
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	stats := g.Stats()
	buf.WriteString(fmt.Sprintf("Total modules: %d\n", stats.TotalModules))
	buf.WriteString(fmt.Sprintf("Direct dependencies: %d\n", stats.DirectDependencies))
	buf.WriteString(fmt.Sprintf("Transitive dependencies: %d\n", stats.TransitiveDependencies))
	buf.WriteString(fmt.Sprintf("Max depth: %d\n", stats.MaxDepth))
	buf.WriteString(fmt.Sprintf("Artifacts: %d\n", stats.Artifacts))
	buf.WriteString("\n")

	buf.WriteString("Dependency Tree:\n")
	g.printTree(&buf, g.Root, "", true, make(map[ModuleKey]bool))
	return buf.String()
}

func (g *Graph) printTree(buf *bytes.Buffer, key ModuleKey, prefix string, isLast bool, visited map[ModuleKey]bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	if prefix == "" {
		buf.WriteString(key.String())
	} else {
		buf.WriteString(prefix + connector + key.String())
	}

	node := g.Modules[key]
	if node != nil && node.Variant != "" {
		buf.WriteString(" (" + node.Variant + ")")
	}

	if visited[key] {
		buf.WriteString(" (circular)\n")
		return
	}
	buf.WriteString("\n")

	visited[key] = true
	defer func() { visited[key] = false }()

	if node == nil {
		return
	}

	for i, dep := range node.Dependencies {
		isLastChild := i == len(node.Dependencies)-1
		childPrefix := prefix
		if prefix != "" {
			if isLast {
				childPrefix += "    "
			} else {
				childPrefix += "│   "
			}
		} else {
			childPrefix = " "
		}
		g.printTree(buf, dep, childPrefix, isLastChild, visited)
	}
}

// ToExplainText outputs dependency insight for a module as text.
func (g *Graph) ToExplainText(id coord.ModuleID) (string, error) {
	explanation, err := g.Explain(id)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Explanation for: %s\n", explanation.Module.String()))
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	if explanation.Variant != "" {
		buf.WriteString(fmt.Sprintf("Variant: %s\n", explanation.Variant))
	}
	if len(explanation.Artifacts) > 0 {
		buf.WriteString(fmt.Sprintf("Artifacts: %s\n", strings.Join(explanation.Artifacts, ", ")))
	}

	if sel := explanation.Selection; sel != nil {
		buf.WriteString("\nVersion Selection:\n")
		buf.WriteString(fmt.Sprintf("  Selected version: %s\n", sel.SelectedVersion))
		buf.WriteString(fmt.Sprintf("  Strategy: %s\n", sel.Strategy))
		buf.WriteString(fmt.Sprintf("  Deciding factor: %s\n", sel.DecidingFactor))

		if len(sel.Candidates) > 0 {
			buf.WriteString("\n  Candidates considered:\n")
			for _, c := range sel.Candidates {
				status := "  "
				if c.Selected {
					status = "✓ "
				}
				buf.WriteString(fmt.Sprintf("    %s%s - requested by: %s\n",
					status, c.Version, strings.Join(c.RequestedBy, ", ")))
				if !c.Selected && c.RejectionReason != "" {
					buf.WriteString(fmt.Sprintf("      Reason not selected: %s\n", c.RejectionReason))
				}
			}
		}
		for _, c := range sel.Constraints {
			buf.WriteString(fmt.Sprintf("  Constraint: %s\n", c))
		}
	}

	if len(explanation.DependencyChains) > 0 {
		buf.WriteString("\nDependency Chains (paths from root):\n")
		for i, chain := range explanation.DependencyChains {
			buf.WriteString(fmt.Sprintf("  %d. %s\n", i+1, chain.String()))
		}
	}

	return buf.String(), nil
}

// ToModuleList outputs a flat list of the selected modules, excluding the root.
func (g *Graph) ToModuleList() []ModuleInfo {
	modules := make([]ModuleInfo, 0, len(g.Modules))

	for key, node := range g.Modules {
		if key == g.Root {
			continue
		}
		requiredBy := make([]string, len(node.Dependents))
		for i, dep := range node.Dependents {
			requiredBy[i] = dep.String()
		}
		modules = append(modules, ModuleInfo{
			Module:     key.Module.String(),
			Version:    key.Version,
			Variant:    node.Variant,
			Artifacts:  node.Artifacts,
			RequiredBy: requiredBy,
		})
	}

	sort.Slice(modules, func(i, j int) bool {
		return modules[i].Module < modules[j].Module
	})
	return modules
}

// ModuleInfo is a module in the flat list output.
type ModuleInfo struct {
	Module     string   `json:"module"`
	Version    string   `json:"version"`
	Variant    string   `json:"variant,omitempty"`
	Artifacts  []string `json:"artifacts,omitempty"`
	RequiredBy []string `json:"required_by,omitempty"`
}
