package classpath

import (
	"errors"
	"strings"
	"testing"

	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/coord"
)

func TestParseMetadataMode(t *testing.T) {
	tests := []struct {
		in      string
		want    MetadataMode
		wantErr bool
	}{
		{"", ModeRich, false},
		{"rich", ModeRich, false},
		{"Gradle", ModeRich, false},
		{"legacy", ModeLegacyPomOnly, false},
		{" pom ", ModeLegacyPomOnly, false},
		{"legacy-pom-only", ModeLegacyPomOnly, false},
		{"maven", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMetadataMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMetadataMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMetadataMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMetadataMode_String(t *testing.T) {
	if got := ModeRich.String(); got != "rich" {
		t.Errorf("ModeRich.String() = %q", got)
	}
	if got := ModeLegacyPomOnly.String(); got != "legacy" {
		t.Errorf("ModeLegacyPomOnly.String() = %q", got)
	}
	if got := MetadataMode(9).String(); got != "mode(9)" {
		t.Errorf("MetadataMode(9).String() = %q", got)
	}
}

func TestStage_String(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageInit, "init"},
		{StageExpanding, "expanding"},
		{StageVersionReconciling, "version-reconciling"},
		{StageVariantSelecting, "variant-selecting"},
		{StageCapabilityReconciling, "capability-reconciling"},
		{StageFinalizing, "finalizing"},
		{StageDone, "done"},
		{StageFailed, "failed"},
		{Stage(42), "stage(42)"},
	}
	for _, tt := range tests {
		if got := tt.stage.String(); got != tt.want {
			t.Errorf("Stage(%d).String() = %q, want %q", int(tt.stage), got, tt.want)
		}
	}
}

func TestResolutionError_Unwrap(t *testing.T) {
	inner := &UnknownModuleError{Module: coord.MustModuleID("org.example:missing")}
	err := error(&ResolutionError{Stage: StageExpanding, Root: appID, Err: inner})

	if !errors.Is(err, ErrUnknownModule) {
		t.Error("errors.Is(err, ErrUnknownModule) = false")
	}
	var target *UnknownModuleError
	if !errors.As(err, &target) || target != inner {
		t.Errorf("errors.As() = %v", target)
	}
	want := "resolve org.example:app: expanding: unknown module org.example:missing"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestMaxDepthExceededError(t *testing.T) {
	err := &MaxDepthExceededError{Depth: 3, MaxDepth: 2, Path: []string{"a:a:1", "b:b:1", "c:c:1"}}
	msg := err.Error()
	for _, want := range []string{"depth 3 > max 2", "a:a:1 -> b:b:1 -> c:c:1"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestRequest_String(t *testing.T) {
	req := Request{
		Root:          appID,
		RootVersion:   "1.0",
		Configuration: catalog.ConfigurationRuntime,
		Mode:          ModeLegacyPomOnly,
	}
	got := req.String()
	if !strings.HasPrefix(got, "org.example:app:1.0 runtime legacy") {
		t.Errorf("String() = %q", got)
	}
}

func TestResolvedGraph_Modules(t *testing.T) {
	g := mustResolve(t, mustManifest(t, versionsCatalog), Request{Root: appID})

	var got []string
	for _, c := range g.Modules() {
		got = append(got, c.String())
	}
	want := []string{"org.example:a:1.0", "org.example:app:1.0", "org.example:lib:2.0"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Modules() = %v, want %v", got, want)
	}
	if _, ok := g.Version(coord.MustModuleID("org.example:none")); ok {
		t.Error("Version() reported an unselected module")
	}
}
