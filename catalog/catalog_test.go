package catalog

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/albertocavalcante/go-classpath/coord"
)

var (
	guava  = coord.MustModuleID("com.google.guava:guava")
	access = coord.MustModuleID("com.google.guava:failureaccess")
)

func guavaVariant(name, ver string, attrs Attributes, deps ...Dependency) Variant {
	return Variant{
		Name:         name,
		Module:       guava,
		Version:      ver,
		Attributes:   attrs,
		Artifacts:    []string{"guava-" + ver + ".jar"},
		Dependencies: deps,
	}
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder()
	dep := Dependency{From: guava, To: access, Version: "1.0.2"}
	if err := b.AddVariant(guavaVariant("jreApiElements", "33.0.0-jre", Attributes{"usage": "java-api"}, dep)); err != nil {
		t.Fatalf("AddVariant() error = %v", err)
	}
	if err := b.AddVariant(guavaVariant("jreRuntimeElements", "33.0.0-jre", Attributes{"usage": "java-runtime"}, dep)); err != nil {
		t.Fatalf("AddVariant() error = %v", err)
	}
	if err := b.AddVariant(guavaVariant("androidApiElements", "33.0.0-android", nil)); err != nil {
		t.Fatalf("AddVariant() error = %v", err)
	}
	b.AddModuleVersion(access, "1.0.2")

	cat, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !cat.Has(guava) || !cat.Has(access) {
		t.Errorf("Has() = false for declared module")
	}
	if got, want := cat.Modules(), []coord.ModuleID{access, guava}; !slices.Equal(got, want) {
		t.Errorf("Modules() = %v, want %v", got, want)
	}
	if got, want := cat.Versions(guava), []string{"33.0.0-android", "33.0.0-jre"}; !slices.Equal(got, want) {
		t.Errorf("Versions() = %v, want %v", got, want)
	}

	variants, err := cat.VariantsOf(guava, "33.0.0-jre")
	if err != nil {
		t.Fatalf("VariantsOf() error = %v", err)
	}
	if len(variants) != 2 || variants[0].Name != "jreApiElements" || variants[1].Name != "jreRuntimeElements" {
		t.Errorf("VariantsOf() = %v, want declaration order", variants)
	}

	empty, err := cat.VariantsOf(access, "1.0.2")
	if err != nil {
		t.Fatalf("VariantsOf() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("VariantsOf() = %v, want none", empty)
	}
}

func TestBuilder_DuplicateVariant(t *testing.T) {
	b := NewBuilder()
	_ = b.AddVariant(guavaVariant("jreApiElements", "33.0.0-jre", nil))
	if err := b.AddVariant(guavaVariant("jreApiElements", "33.0.0-jre", nil)); err == nil {
		t.Fatal("AddVariant() expected duplicate error")
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("Build() expected error after duplicate variant")
	}
}

func TestBuilder_InvalidVariant(t *testing.T) {
	tests := []struct {
		name string
		v    Variant
	}{
		{"no module", Variant{Name: "x", Version: "1.0"}},
		{"no name", Variant{Module: guava, Version: "1.0"}},
		{"bad version", Variant{Name: "x", Module: guava, Version: "1 0"}},
		{"dependency without target", Variant{Name: "x", Module: guava, Version: "1.0", Dependencies: []Dependency{{From: guava}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewBuilder().AddVariant(tt.v); err == nil {
				t.Errorf("AddVariant(%+v) expected error", tt.v)
			}
		})
	}
}

func TestCatalog_Immutable(t *testing.T) {
	b := NewBuilder()
	v := guavaVariant("jreApiElements", "33.0.0-jre", Attributes{"usage": "java-api"})
	_ = b.AddVariant(v)
	cat, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	v.Attributes["usage"] = "changed"
	v.Artifacts[0] = "changed.jar"
	_ = b.AddVariant(guavaVariant("late", "33.0.0-jre", nil))

	got, _ := cat.VariantsOf(guava, "33.0.0-jre")
	if len(got) != 1 {
		t.Fatalf("VariantsOf() returned %d variants, want 1", len(got))
	}
	if got[0].Attributes["usage"] != "java-api" || got[0].Artifacts[0] != "guava-33.0.0-jre.jar" {
		t.Errorf("catalog variant changed after Build: %+v", got[0])
	}
}

func TestCatalog_UnknownModule(t *testing.T) {
	b := NewBuilder()
	_ = b.AddVariant(guavaVariant("jreApiElements", "33.0.0-jre", nil))
	cat, _ := b.Build()

	_, err := cat.VariantsOf(access, "1.0.2")
	if !errors.Is(err, ErrUnknownModule) {
		t.Errorf("VariantsOf(unknown module) error = %v, want ErrUnknownModule", err)
	}

	_, err = cat.VariantsOf(guava, "31.0-jre")
	var ume *UnknownModuleError
	if !errors.As(err, &ume) {
		t.Fatalf("VariantsOf(unknown version) error = %T, want *UnknownModuleError", err)
	}
	if ume.Version != "31.0-jre" || !slices.Equal(ume.Known, []string{"33.0.0-jre"}) {
		t.Errorf("UnknownModuleError = %+v", ume)
	}
}

func TestCatalog_LegacyVariant(t *testing.T) {
	b := NewBuilder()
	_ = b.AddVariant(guavaVariant("jreApiElements", "33.0.0-jre", nil))
	if err := b.SetLegacyVariant(Variant{Module: guava, Version: "33.0.0-jre", Artifacts: []string{"guava-33.0.0-jre.jar"}}); err != nil {
		t.Fatalf("SetLegacyVariant() error = %v", err)
	}
	if err := b.SetLegacyVariant(Variant{Module: guava, Version: "33.0.0-jre"}); err == nil {
		t.Error("SetLegacyVariant() expected duplicate error")
	}
	b2 := NewBuilder()
	_ = b2.AddVariant(guavaVariant("jreApiElements", "33.0.0-jre", nil))
	_ = b2.SetLegacyVariant(Variant{Module: guava, Version: "33.0.0-jre"})
	cat, err := b2.Build()
	if err != nil {
		t.Fatal(err)
	}

	lv, ok, err := cat.LegacyVariantOf(guava, "33.0.0-jre")
	if err != nil || !ok {
		t.Fatalf("LegacyVariantOf() = _, %v, %v", ok, err)
	}
	if !lv.Legacy || lv.Name != "pom" {
		t.Errorf("LegacyVariantOf() = %+v, want legacy variant named pom", lv)
	}

	variants, _ := cat.VariantsOf(guava, "33.0.0-jre")
	if len(variants) != 1 {
		t.Errorf("legacy variant must not appear in VariantsOf(), got %v", variants)
	}
}

func TestCatalog_DeclaredDependenciesOf(t *testing.T) {
	c := coord.MustModuleID("g:c")
	r := coord.MustModuleID("g:r")
	both := coord.MustModuleID("g:both")
	v := Variant{Dependencies: []Dependency{
		{To: c, Scope: ScopeCompile},
		{To: r, Scope: ScopeRuntime},
		{To: both},
	}}
	cat, _ := NewBuilder().Build()

	targets := func(deps []Dependency) []coord.ModuleID {
		var out []coord.ModuleID
		for _, d := range deps {
			out = append(out, d.To)
		}
		return out
	}

	if got, want := targets(cat.DeclaredDependenciesOf(v, ConfigurationCompile)), []coord.ModuleID{c, both}; !slices.Equal(got, want) {
		t.Errorf("compile deps = %v, want %v", got, want)
	}
	if got, want := targets(cat.DeclaredDependenciesOf(v, ConfigurationRuntime)), []coord.ModuleID{r, both}; !slices.Equal(got, want) {
		t.Errorf("runtime deps = %v, want %v", got, want)
	}
}

func TestCatalog_ConcurrentReads(t *testing.T) {
	b := NewBuilder()
	for _, ver := range []string{"31.0-jre", "32.0-jre", "33.0.0-jre"} {
		_ = b.AddVariant(guavaVariant("jreApiElements", ver, Attributes{"usage": "java-api"}))
	}
	cat, _ := b.Build()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, ver := range cat.Versions(guava) {
				if _, err := cat.VariantsOf(guava, ver); err != nil {
					t.Errorf("VariantsOf(%s) error = %v", ver, err)
				}
			}
		}()
	}
	wg.Wait()
}

func TestAttributes(t *testing.T) {
	a := Attributes{"usage": "java-api", "category": "library"}
	if got, want := a.Keys(), []string{"category", "usage"}; !slices.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if !a.Matches(Attributes{"usage": "java-api"}) {
		t.Error("Matches() = false for subset")
	}
	if a.Matches(Attributes{"usage": "java-runtime"}) {
		t.Error("Matches() = true for differing value")
	}
	if got, want := a.String(), "{category=library, usage=java-api}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestVariant_ProvidedCapabilities(t *testing.T) {
	v := Variant{Module: guava, Version: "33.0.0-jre"}
	if !v.Provides(CapabilityOf(guava)) {
		t.Error("variant without declared capabilities should provide its module capability")
	}
	gc := MustCapability("com.google.collections:google-collections")
	v.Capabilities = []Capability{gc}
	if v.Provides(CapabilityOf(guava)) {
		t.Error("declared capabilities replace the implicit one")
	}
	if !v.Provides(gc) {
		t.Error("Provides() = false for declared capability")
	}
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"", ScopeCompileAndRuntime, false},
		{"api", ScopeCompileAndRuntime, false},
		{"compile", ScopeCompile, false},
		{"runtimeOnly", ScopeRuntime, false},
		{"test", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseScope(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseScope(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseScope(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCapability(t *testing.T) {
	c, err := ParseCapability("com.google.collections:google-collections:1.0")
	if err != nil {
		t.Fatal(err)
	}
	if c.String() != "com.google.collections:google-collections" {
		t.Errorf("ParseCapability() = %v", c)
	}
	if _, err := ParseCapability("nogroup"); err == nil {
		t.Error("ParseCapability(nogroup) expected error")
	}
}
