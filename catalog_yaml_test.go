package classpath

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/albertocavalcante/go-classpath/catalog"
	"github.com/albertocavalcante/go-classpath/coord"
)

const yamlCatalogSource = `
modules:
  - module: org.example:app:1.0
    variants:
      - name: default
        dependencies:
          - module: org.example:lib:1.0
          - {module: org.example:annotations:1.0, scope: compile}
  - module: org.example:lib:1.0
    variants:
      - name: apiElements
        attributes: {org.gradle.usage: java-api}
        artifacts: [lib-1.0.jar]
      - name: runtimeElements
        attributes: {org.gradle.usage: java-runtime}
        artifacts: [lib-1.0.jar]
        dependencies:
          - module: org.example:impl
            version: "1.+"
    pom:
      artifacts: [lib-1.0.jar]
  - module: org.example:annotations:1.0
    variants:
      - name: default
        artifacts: [annotations-1.0.jar]
  - module: org.example:impl:1.2
    variants:
      - name: default
        capabilities: [org.example:impl]
        artifacts: [impl-1.2.jar]
constraints:
  - module: org.example:impl
    version: "[1.0,2.0)"
    reason: stay on 1.x
`

func TestParseCatalogYAML(t *testing.T) {
	m, err := ParseCatalogYAML([]byte(yamlCatalogSource))
	if err != nil {
		t.Fatalf("ParseCatalogYAML() error: %v", err)
	}
	if got := m.Catalog.Modules(); len(got) != 4 {
		t.Errorf("modules = %v, want 4", got)
	}
	if _, ok, _ := m.Catalog.LegacyVariantOf(libID, "1.0"); !ok {
		t.Error("pom variant of lib:1.0 missing")
	}

	tests := []struct {
		usage string
		cfg   catalog.Configuration
		want  []string
	}{
		{"java-api", catalog.ConfigurationCompile, []string{"annotations-1.0.jar", "lib-1.0.jar"}},
		{"java-runtime", catalog.ConfigurationRuntime, []string{"impl-1.2.jar", "lib-1.0.jar"}},
	}
	for _, tt := range tests {
		t.Run(tt.usage, func(t *testing.T) {
			g := mustResolve(t, m, Request{
				Root:          appID,
				Configuration: tt.cfg,
				Attributes:    catalog.Attributes{"org.gradle.usage": tt.usage},
			})
			if !slices.Equal(g.Artifacts, tt.want) {
				t.Errorf("artifacts = %v, want %v", g.Artifacts, tt.want)
			}
		})
	}

	impl := coord.MustModuleID("org.example:impl")
	if cs := m.Constraints.ConstraintsFor(impl, nil); len(cs) != 1 || cs[0].Reason != "stay on 1.x" {
		t.Errorf("constraints for impl = %v", cs)
	}
}

func TestParseCatalogYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"unknown field", "modules:\n  - module: org.example:a:1.0\n    varients: []\n", "varients"},
		{"missing version", "modules:\n  - module: org.example:a\n", "has no version"},
		{"bad scope", "modules:\n  - module: org.example:a:1.0\n    variants:\n      - name: v\n        dependencies:\n          - {module: org.example:b:1.0, scope: provided}\n", "unknown dependency scope"},
		{"bad constraint", "constraints:\n  - module: org.example:a\n    version: \"[1.0\"\n", "missing closing bracket"},
		{"not yaml", "modules: [\n", "failed to parse YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalogYAML([]byte(tt.content))
			if err == nil {
				t.Fatal("ParseCatalogYAML() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestParseCatalogYAML_Empty(t *testing.T) {
	m, err := ParseCatalogYAML(nil)
	if err != nil {
		t.Fatalf("ParseCatalogYAML(nil) error: %v", err)
	}
	if len(m.Catalog.Modules()) != 0 || m.Constraints.Len() != 0 {
		t.Error("empty document produced declarations")
	}
}

func TestLoadCatalogYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "catalog.yml", yamlCatalogSource)

	m, err := LoadCatalogYAMLFile(path)
	if err != nil {
		t.Fatalf("LoadCatalogYAMLFile() error: %v", err)
	}
	if !m.Catalog.Has(libID) {
		t.Error("catalog is missing org.example:lib")
	}

	// ParseCatalogFile dispatches on the extension.
	if _, err := ParseCatalogFile(path); err != nil {
		t.Errorf("ParseCatalogFile(.yml) error: %v", err)
	}

	if _, err := LoadCatalogYAMLFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadCatalogYAMLFile() on a missing file should fail")
	}
}
