package capability

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/coord"
)

var (
	guava       = coord.MustModuleID("com.google.guava:guava")
	collections = coord.MustModuleID("com.google.collections:google-collections")
	app         = coord.MustModuleID("org.example:app")
	collCap     = catalog.CapabilityOf(collections)
)

func candidates() []Candidate {
	return []Candidate{
		{Module: guava, Version: "33.0.0-jre", Capabilities: []catalog.Capability{catalog.CapabilityOf(guava), collCap}},
		{Module: collections, Version: "1.0", Capabilities: []catalog.Capability{collCap}},
		{Module: app, Version: "1.0", Capabilities: []catalog.Capability{catalog.CapabilityOf(app)}},
	}
}

func TestRichResolver_NoRule(t *testing.T) {
	_, _, err := NewRichResolver(nil).Resolve(candidates())
	var uc *UnresolvedConflictError
	if !errors.As(err, &uc) {
		t.Fatalf("Resolve() error = %v, want *UnresolvedConflictError", err)
	}
	if uc.Capability != collCap {
		t.Errorf("Capability = %v, want %v", uc.Capability, collCap)
	}
	want := []string{"com.google.collections:google-collections:1.0", "com.google.guava:guava:33.0.0-jre"}
	if !slices.Equal(uc.Modules, want) {
		t.Errorf("Modules = %v, want %v", uc.Modules, want)
	}
	if !errors.Is(err, ErrUnresolvedConflict) {
		t.Error("errors.Is(err, ErrUnresolvedConflict) = false")
	}
	if !strings.Contains(err.Error(), "google-collections") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestRichResolver_Rules(t *testing.T) {
	tests := []struct {
		name   string
		rule   SelectionRule
		loser  coord.ModuleID
		reason string
	}{
		{"prefer module", PreferModule(guava), collections, "prefer com.google.guava:guava"},
		{"prefer module named", PreferModuleNamed("guava"), collections, "prefer module named *guava*"},
		{"prefer highest version", PreferHighestVersion(), collections, "prefer highest version"},
		{"prefer collections", PreferModule(collections), guava, "prefer com.google.collections:google-collections"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRichResolver(map[catalog.Capability]SelectionRule{collCap: tt.rule})
			losers, res, err := r.Resolve(candidates())
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if !slices.Equal(losers, []coord.ModuleID{tt.loser}) {
				t.Errorf("losers = %v, want [%v]", losers, tt.loser)
			}
			if len(res) != 1 || res[0].Reason != tt.reason {
				t.Errorf("resolutions = %+v, want reason %q", res, tt.reason)
			}
		})
	}
}

func TestRichResolver_RuleDoesNotApply(t *testing.T) {
	r := NewRichResolver(map[catalog.Capability]SelectionRule{collCap: PreferModuleNamed("g")})
	if _, _, err := r.Resolve(candidates()); !errors.Is(err, ErrUnresolvedConflict) {
		t.Errorf("Resolve() error = %v, want unresolved conflict when rule matches both", err)
	}
}

func TestRichResolver_ConsumerHasNoPrecedence(t *testing.T) {
	cs := candidates()
	cs[2].Capabilities = append(cs[2].Capabilities, collCap)

	if _, _, err := NewRichResolver(nil).Resolve(cs); !errors.Is(err, ErrUnresolvedConflict) {
		t.Fatalf("Resolve() without rule error = %v, want unresolved conflict", err)
	}

	losers, res, err := NewRichResolver(map[catalog.Capability]SelectionRule{collCap: PreferModule(guava)}).Resolve(cs)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if want := []coord.ModuleID{collections, app}; !slices.Equal(losers, want) {
		t.Errorf("losers = %v, want %v", losers, want)
	}
	if res[0].Winner != guava {
		t.Errorf("winner = %v, want %v", res[0].Winner, guava)
	}
}

func TestRichResolver_EvictedModuleLeavesLaterConflicts(t *testing.T) {
	a := catalog.MustCapability("g:a")
	b := catalog.MustCapability("g:b")
	x := coord.MustModuleID("g:x")
	y := coord.MustModuleID("g:y")
	z := coord.MustModuleID("g:z")
	cs := []Candidate{
		{Module: x, Version: "1", Capabilities: []catalog.Capability{a, b}},
		{Module: y, Version: "1", Capabilities: []catalog.Capability{a}},
		{Module: z, Version: "1", Capabilities: []catalog.Capability{b}},
	}
	// x loses on a, so it no longer competes with z for b.
	r := NewRichResolver(map[catalog.Capability]SelectionRule{a: PreferModule(y)})
	losers, res, err := r.Resolve(cs)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !slices.Equal(losers, []coord.ModuleID{x}) || len(res) != 1 {
		t.Errorf("Resolve() = %v, %+v", losers, res)
	}
}

func TestRichResolver_SettlesOneConflictPerCall(t *testing.T) {
	a := catalog.MustCapability("g:a")
	b := catalog.MustCapability("g:b")
	w := coord.MustModuleID("g:w")
	x := coord.MustModuleID("g:x")
	y := coord.MustModuleID("g:y")
	z := coord.MustModuleID("g:z")
	cs := []Candidate{
		{Module: w, Version: "1", Capabilities: []catalog.Capability{a}},
		{Module: x, Version: "1", Capabilities: []catalog.Capability{a}},
		{Module: y, Version: "1", Capabilities: []catalog.Capability{b}},
		{Module: z, Version: "1", Capabilities: []catalog.Capability{b}},
	}
	// a has no rule, so b is settled first and a is left for a later call.
	r := NewRichResolver(map[catalog.Capability]SelectionRule{b: PreferModule(z)})
	losers, res, err := r.Resolve(cs)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !slices.Equal(losers, []coord.ModuleID{y}) || len(res) != 1 || res[0].Capability != b {
		t.Errorf("Resolve() = %v, %+v; want y evicted for %v", losers, res, b)
	}

	_, _, err = r.Resolve([]Candidate{cs[0], cs[1], cs[3]})
	var uc *UnresolvedConflictError
	if !errors.As(err, &uc) || uc.Capability != a {
		t.Errorf("Resolve() error = %v, want unresolved conflict on %v", err, a)
	}
}

func TestRichResolver_Deterministic(t *testing.T) {
	r := NewRichResolver(map[catalog.Capability]SelectionRule{collCap: PreferHighestVersion()})
	cs := candidates()
	first, _, _ := r.Resolve(cs)
	slices.Reverse(cs)
	second, _, _ := r.Resolve(cs)
	if !slices.Equal(first, second) {
		t.Errorf("Resolve() depends on input order: %v vs %v", first, second)
	}
}

func TestInertResolver(t *testing.T) {
	losers, res, err := InertResolver{}.Resolve(candidates())
	if err != nil || losers != nil || res != nil {
		t.Errorf("InertResolver.Resolve() = %v, %v, %v", losers, res, err)
	}
}
