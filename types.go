package classpath

import (
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-classpath/capability"
	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/coord"
	"github.com/albertocavalcante/go-classpath/graph"
)

// MetadataMode selects how module metadata is interpreted.
type MetadataMode int

const (
	// ModeRich uses variant attributes and capabilities.
	ModeRich MetadataMode = iota

	// ModeLegacyPomOnly emulates producers that publish only legacy (POM)
	// metadata: one variant per module version picked by naming convention,
	// no scope reduction between configurations and no capability conflict
	// detection.
	ModeLegacyPomOnly
)

func (m MetadataMode) String() string {
	switch m {
	case ModeRich:
		return "rich"
	case ModeLegacyPomOnly:
		return "legacy"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMetadataMode parses "rich" or "legacy".
func ParseMetadataMode(s string) (MetadataMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rich", "gradle":
		return ModeRich, nil
	case "legacy", "pom", "legacy-pom-only":
		return ModeLegacyPomOnly, nil
	}
	return 0, fmt.Errorf("unknown metadata mode %q", s)
}

// Stage is a step of a resolution.
type Stage int

// Resolution stages, in order. StageFailed is terminal.
const (
	StageInit Stage = iota
	StageExpanding
	StageVersionReconciling
	StageVariantSelecting
	StageCapabilityReconciling
	StageFinalizing
	StageDone
	StageFailed
)

var stageNames = [...]string{
	StageInit:                  "init",
	StageExpanding:             "expanding",
	StageVersionReconciling:    "version-reconciling",
	StageVariantSelecting:      "variant-selecting",
	StageCapabilityReconciling: "capability-reconciling",
	StageFinalizing:            "finalizing",
	StageDone:                  "done",
	StageFailed:                "failed",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Request describes one resolution.
type Request struct {
	// Root is the consumer module. It must be in the catalog.
	Root coord.ModuleID

	// RootVersion selects the root's version. Empty means its highest catalogued version.
	RootVersion string

	Configuration catalog.Configuration

	// Attributes are the consumer attributes used for variant matching and
	// for selecting attribute-scoped constraints. Unless it is set here,
	// org.gradle.usage follows the configuration (see
	// [catalog.Configuration.Usage]).
	Attributes catalog.Attributes

	// Mandatory names attributes every selected variant must declare.
	Mandatory []string

	Mode MetadataMode
}

func (r Request) String() string {
	root := r.Root.String()
	if r.RootVersion != "" {
		root += ":" + r.RootVersion
	}
	return fmt.Sprintf("%s %s %s %s", root, r.Configuration, r.Mode, r.Attributes)
}

// SelectedVariant is the variant chosen for one module.
type SelectedVariant struct {
	Module       coord.ModuleID
	Version      string
	Variant      string
	Artifacts    []string
	Capabilities []catalog.Capability
	Legacy       bool
}

// ResolvedGraph is the result of a successful resolution.
type ResolvedGraph struct {
	Root          coord.Coordinate
	Configuration catalog.Configuration
	Mode          MetadataMode

	// Attributes are a copy of the request's attributes, without the usage
	// derived from the configuration.
	Attributes catalog.Attributes

	// Selected maps every module on the classpath to its chosen variant.
	Selected map[coord.ModuleID]SelectedVariant

	// Artifacts is the deduplicated, sorted set of file names.
	Artifacts []string

	// Capabilities records how capability conflicts were settled.
	Capabilities []capability.Resolution

	// Graph supports dependency insight queries.
	Graph *graph.Graph
}

// Modules returns the selected module coordinates in sorted order.
func (g *ResolvedGraph) Modules() []coord.Coordinate {
	out := make([]coord.Coordinate, 0, len(g.Selected))
	for _, s := range g.Selected {
		out = append(out, coord.Coordinate{Module: s.Module, Version: s.Version})
	}
	slices.SortFunc(out, func(a, b coord.Coordinate) int {
		if c := a.Module.Compare(b.Module); c != 0 {
			return c
		}
		return strings.Compare(a.Version, b.Version)
	})
	return out
}

// Version returns the selected version of a module.
func (g *ResolvedGraph) Version(id coord.ModuleID) (string, bool) {
	s, ok := g.Selected[id]
	return s.Version, ok
}

// ResolutionError wraps the error that stopped a resolution with the stage it failed in.
type ResolutionError struct {
	Stage Stage
	Root  coord.ModuleID
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %s: %v", e.Root, e.Stage, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// MaxDepthExceededError is returned when the dependency chain from the root
// is longer than the configured limit.
type MaxDepthExceededError struct {
	Depth    int
	MaxDepth int
	// Path is the dependency chain that exceeded the limit, root first.
	Path []string
}

func (e *MaxDepthExceededError) Error() string {
	return fmt.Sprintf("maximum dependency depth exceeded: depth %d > max %d (path: %s)",
		e.Depth, e.MaxDepth, strings.Join(e.Path, " -> "))
}
