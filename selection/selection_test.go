package selection

import (
	"errors"
	"slices"
	"testing"

	"github.com/albertocavalcante/go-classpath/constraint"
	"github.com/albertocavalcante/go-classpath/coord"
)

var (
	rootID = coord.MustModuleID("org.example:app")
	modA   = coord.MustModuleID("org.example:a")
	modB   = coord.MustModuleID("org.example:b")
	modC   = coord.MustModuleID("org.example:c")
	modD   = coord.MustModuleID("org.example:d")
)

func key(id coord.ModuleID, v string) ModuleKey {
	return ModuleKey{Module: id, Version: v}
}

func node(id coord.ModuleID, v string, deps ...DepSpec) *Module {
	return &Module{Key: key(id, v), Deps: deps}
}

func dep(id coord.ModuleID, v string) DepSpec {
	return DepSpec{Module: id, Version: v}
}

func newGraph(mods ...*Module) *DepGraph {
	g := &DepGraph{Modules: make(map[ModuleKey]*Module), RootKey: mods[0].Key}
	for _, m := range mods {
		g.Modules[m.Key] = m
	}
	return g
}

func keys(m map[ModuleKey]*Module) []string {
	var out []string
	for k := range m {
		out = append(out, k.String())
	}
	slices.Sort(out)
	return out
}

// root -> a:1.0 -> b:1.0
// root -> c:1.0 -> b:2.0
func TestRun_HighestRequestedWins(t *testing.T) {
	g := newGraph(
		node(rootID, "1.0", dep(modA, "1.0"), dep(modC, "1.0")),
		node(modA, "1.0", dep(modB, "1.0")),
		node(modC, "1.0", dep(modB, "2.0")),
		node(modB, "1.0"),
		node(modB, "2.0"),
	)

	result, err := Run(g, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, ok := result.ResolvedGraph[key(modB, "2.0")]; !ok {
		t.Errorf("expected b:2.0 to be selected, got %v", keys(result.ResolvedGraph))
	}
	if _, ok := result.ResolvedGraph[key(modB, "1.0")]; ok {
		t.Error("expected b:1.0 to be removed")
	}
	a := result.ResolvedGraph[key(modA, "1.0")]
	if a == nil || len(a.Deps) != 1 || a.Deps[0].Version != "2.0" {
		t.Errorf("a's edge to b should be rewritten to 2.0, got %+v", a)
	}
	d := result.Decisions[modB]
	if d.Reason != "requested" || !slices.Equal(d.Requested, []string{"1.0", "2.0"}) {
		t.Errorf("Decision(b) = %+v", d)
	}
}

// root -> a:1.0 -> b:1.0 -> d:1.0
// root -> c:1.0 -> a:2.0
func TestRun_UnreachableModulesPruned(t *testing.T) {
	g := newGraph(
		node(rootID, "1.0", dep(modA, "1.0"), dep(modC, "1.0")),
		node(modA, "1.0", dep(modB, "1.0")),
		node(modA, "2.0"),
		node(modB, "1.0", dep(modD, "1.0")),
		node(modC, "1.0", dep(modA, "2.0")),
		node(modD, "1.0"),
	)

	result, err := Run(g, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"org.example:a:2.0", "org.example:app:1.0", "org.example:c:1.0"}
	if got := keys(result.ResolvedGraph); !slices.Equal(got, want) {
		t.Errorf("ResolvedGraph = %v, want %v", got, want)
	}
	if result.BFSOrder[0] != g.RootKey {
		t.Errorf("BFSOrder should start at root, got %v", result.BFSOrder)
	}
}

// root -> a:1.0 -> d:9.0
// root -> c:1.0 -> a:2.0
// root -> d:1.0
func TestRun_EvictedVersionsStopRequesting(t *testing.T) {
	g := newGraph(
		node(rootID, "1.0", dep(modA, "1.0"), dep(modC, "1.0"), dep(modD, "1.0")),
		node(modA, "1.0", dep(modD, "9.0")),
		node(modA, "2.0"),
		node(modC, "1.0", dep(modA, "2.0")),
		node(modD, "1.0"),
		node(modD, "9.0"),
	)

	result, err := Run(g, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := result.Selected[modD]; got != "1.0" {
		t.Errorf("d version = %s, want 1.0", got)
	}
	if got := result.Decisions[modD].Requested; !slices.Equal(got, []string{"1.0"}) {
		t.Errorf("Decision(d).Requested = %v, want [1.0]", got)
	}
	want := []string{"org.example:a:2.0", "org.example:app:1.0", "org.example:c:1.0", "org.example:d:1.0"}
	if got := keys(result.ResolvedGraph); !slices.Equal(got, want) {
		t.Errorf("ResolvedGraph = %v, want %v", got, want)
	}
}

// root -> a:1.0 -> b:3.0
// root -> c:1.0 -> a:2.0
func TestRun_ConflictOnPrunedModuleIgnored(t *testing.T) {
	g := newGraph(
		node(rootID, "1.0", dep(modA, "1.0"), dep(modC, "1.0")),
		node(modA, "1.0", dep(modB, "3.0")),
		node(modA, "2.0"),
		node(modB, "3.0"),
		node(modC, "1.0", dep(modA, "2.0")),
	)
	strict := []constraint.Constraint{{Module: modB, Version: constraint.MustParseRange("[1.0,2.0)")}}
	source := func(id coord.ModuleID) []constraint.Constraint {
		if id == modB {
			return strict
		}
		return nil
	}

	result, err := Run(g, source)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, ok := result.Selected[modB]; ok {
		t.Errorf("b should not be selected, got %v", result.Selected)
	}

	// Once b is reachable the conflict surfaces.
	g.Modules[key(rootID, "1.0")].Deps = append(g.Modules[key(rootID, "1.0")].Deps, dep(modB, "3.0"))
	_, err = Run(g, source)
	if !errors.Is(err, ErrVersionConflict) {
		t.Errorf("Run() error = %v, want a version conflict", err)
	}
}

func TestRun_Cycle(t *testing.T) {
	g := newGraph(
		node(rootID, "1.0", dep(modA, "1.0")),
		node(modA, "1.0", dep(modB, "1.0")),
		node(modB, "1.0", dep(modA, "1.0"), dep(rootID, "0.9")),
		node(rootID, "0.9"),
	)

	result, err := Run(g, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.ResolvedGraph) != 3 {
		t.Errorf("ResolvedGraph = %v, want root, a and b", keys(result.ResolvedGraph))
	}
	if result.Selected[rootID] != "1.0" {
		t.Errorf("root version = %s, want it pinned to 1.0", result.Selected[rootID])
	}
}

func TestRun_ConstraintUpgrade(t *testing.T) {
	g := newGraph(
		node(rootID, "1.0", dep(modA, "1.0")),
		node(modA, "1.0"),
		node(modA, "1.5"),
	)
	cs := []constraint.Constraint{{Module: modA, Version: constraint.MustParseRange("1.5")}}

	result, err := Run(g, func(id coord.ModuleID) []constraint.Constraint {
		if id == modA {
			return cs
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Selected[modA] != "1.5" || result.Decisions[modA].Reason != "by constraint" {
		t.Errorf("Decision(a) = %+v, want 1.5 by constraint", result.Decisions[modA])
	}
}

func TestRun_UndiscoveredSelection(t *testing.T) {
	g := newGraph(
		node(rootID, "1.0", dep(modA, "1.0")),
		node(modA, "1.0"),
	)
	cs := []constraint.Constraint{{Module: modA, Version: constraint.MustParseRange("2.0")}}
	if _, err := Run(g, func(coord.ModuleID) []constraint.Constraint { return cs }); err == nil {
		t.Error("Run() expected error when the selected version was never discovered")
	}
}

func TestRun_MissingRoot(t *testing.T) {
	g := &DepGraph{Modules: map[ModuleKey]*Module{}, RootKey: key(rootID, "1.0")}
	if _, err := Run(g, nil); err == nil {
		t.Error("Run() expected error for missing root")
	}
}

func TestWalk_Exclude(t *testing.T) {
	g := newGraph(
		node(rootID, "1.0", dep(modA, "1.0"), dep(modC, "1.0")),
		node(modA, "1.0", dep(modB, "1.0")),
		node(modB, "1.0"),
		node(modC, "1.0", dep(modD, "1.0")),
		node(modD, "1.0", dep(modB, "1.0")),
	)
	selected := map[coord.ModuleID]string{rootID: "1.0", modA: "1.0", modB: "1.0", modC: "1.0", modD: "1.0"}

	got, _, err := Walk(g, selected, map[coord.ModuleID]bool{modA: true})
	if err != nil {
		t.Fatal(err)
	}
	// b stays: it is still reachable through c -> d.
	want := []string{"org.example:app:1.0", "org.example:b:1.0", "org.example:c:1.0", "org.example:d:1.0"}
	if k := keys(got); !slices.Equal(k, want) {
		t.Errorf("Walk() = %v, want %v", k, want)
	}

	got, _, _ = Walk(g, selected, map[coord.ModuleID]bool{modC: true})
	want = []string{"org.example:a:1.0", "org.example:app:1.0", "org.example:b:1.0"}
	if k := keys(got); !slices.Equal(k, want) {
		t.Errorf("Walk() = %v, want %v", k, want)
	}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name        string
		requested   []string
		constraints []constraint.Constraint
		want        string
		reason      string
		wantErr     bool
	}{
		{
			name:      "highest requested",
			requested: []string{"31.1-jre", "33.0.0-jre", "32.0-jre"},
			want:      "33.0.0-jre",
			reason:    "requested",
		},
		{
			name:        "exact constraint upgrades",
			requested:   []string{"1.0"},
			constraints: []constraint.Constraint{{Version: constraint.MustParseRange("1.2")}},
			want:        "1.2",
			reason:      "by constraint",
		},
		{
			name:        "exact constraint below request does not downgrade",
			requested:   []string{"2.0"},
			constraints: []constraint.Constraint{{Version: constraint.MustParseRange("1.2")}},
			want:        "2.0",
			reason:      "requested",
		},
		{
			name:        "strict constraint downgrades",
			requested:   []string{"2.0"},
			constraints: []constraint.Constraint{{Version: constraint.MustParseRange("1.2"), Strict: true}},
			want:        "1.2",
			reason:      "by constraint",
		},
		{
			name:        "range filters highest",
			requested:   []string{"1.0", "3.0"},
			constraints: []constraint.Constraint{{Version: constraint.MustParseRange("[1.0,3.0)")}},
			want:        "1.0",
			reason:      "requested",
		},
		{
			name:        "range excludes every request",
			requested:   []string{"3.0", "4.0"},
			constraints: []constraint.Constraint{{Version: constraint.MustParseRange("[1.0,3.0)")}},
			wantErr:     true,
		},
		{
			name:      "duplicates collapse",
			requested: []string{"1.0", "1.0"},
			want:      "1.0",
			reason:    "requested",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := range tt.constraints {
				tt.constraints[i].Module = modA
			}
			d, err := Reconcile(modA, tt.requested, tt.constraints)
			if tt.wantErr {
				var vc *VersionConflictError
				if !errors.As(err, &vc) {
					t.Fatalf("Reconcile() error = %v, want *VersionConflictError", err)
				}
				if !errors.Is(err, ErrVersionConflict) || len(vc.Constraints) != len(tt.constraints) {
					t.Errorf("VersionConflictError = %+v", vc)
				}
				return
			}
			if err != nil {
				t.Fatalf("Reconcile() error = %v", err)
			}
			if d.Selected != tt.want || d.Reason != tt.reason {
				t.Errorf("Reconcile() = %s (%s), want %s (%s)", d.Selected, d.Reason, tt.want, tt.reason)
			}
		})
	}
}

func TestModuleKey_String(t *testing.T) {
	if got := key(modA, "1.0").String(); got != "org.example:a:1.0" {
		t.Errorf("String() = %q", got)
	}
}
