package classpath

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/albertocavalcante/go-classpath/catalog"
)

// yamlCatalog is the YAML form of a catalog file:
//
//	modules:
//	  - module: com.google.guava:guava:33.0.0-jre
//	    variants:
//	      - name: jreApiElements
//	        attributes: {org.gradle.usage: java-api}
//	        artifacts: [guava-33.0.0-jre.jar]
//	        dependencies:
//	          - module: com.google.guava:failureaccess:1.0.2
//	          - {module: com.google.j2objc:j2objc-annotations:2.8, scope: compile}
//	    pom:
//	      artifacts: [guava-33.0.0-jre.jar]
//	constraints:
//	  - {module: com.google.guava:guava, version: "[30.0,)", strictly: true}
type yamlCatalog struct {
	Modules     []yamlModule     `yaml:"modules"`
	Constraints []yamlConstraint `yaml:"constraints"`
}

type yamlModule struct {
	Module   string        `yaml:"module"`
	Variants []yamlVariant `yaml:"variants"`
	Pom      *yamlVariant  `yaml:"pom"`
}

type yamlVariant struct {
	Name         string            `yaml:"name"`
	Attributes   map[string]string `yaml:"attributes"`
	Capabilities []string          `yaml:"capabilities"`
	Artifacts    []string          `yaml:"artifacts"`
	Dependencies []yamlDependency  `yaml:"dependencies"`
}

type yamlDependency struct {
	Module     string `yaml:"module"`
	Version    string `yaml:"version"`
	Scope      string `yaml:"scope"`
	Capability string `yaml:"capability"`
}

type yamlConstraint struct {
	Module   string            `yaml:"module"`
	Version  string            `yaml:"version"`
	Strictly bool              `yaml:"strictly"`
	When     map[string]string `yaml:"when"`
	Reason   string            `yaml:"reason"`
}

// ParseCatalogYAML parses a YAML catalog.
func ParseCatalogYAML(data []byte) (*Manifest, error) {
	d, err := parseYAML(data)
	if err != nil {
		return nil, err
	}
	return d.manifest()
}

// LoadCatalogYAMLFile reads and parses a YAML catalog file.
func LoadCatalogYAMLFile(filename string) (*Manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	m, err := ParseCatalogYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}

func parseYAML(data []byte) (*declarations, error) {
	var doc yamlCatalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML catalog: %w", err)
	}

	d := &declarations{}
	for _, m := range doc.Modules {
		c, err := versionedCoordinate(m.Module)
		if err != nil {
			return nil, err
		}
		d.versions = append(d.versions, c)
		for _, yv := range m.Variants {
			v, err := yv.variant(m.Module)
			if err != nil {
				return nil, fmt.Errorf("%s: variant %q: %w", m.Module, yv.Name, err)
			}
			d.variants = append(d.variants, v)
		}
		if m.Pom != nil {
			v, err := m.Pom.variant(m.Module)
			if err != nil {
				return nil, fmt.Errorf("%s: pom: %w", m.Module, err)
			}
			d.legacy = append(d.legacy, v)
		}
	}
	for _, yc := range doc.Constraints {
		c, err := newConstraint(yc.Module, yc.Version, yc.Strictly, yc.When, yc.Reason)
		if err != nil {
			return nil, fmt.Errorf("constraint on %s: %w", yc.Module, err)
		}
		d.constraints = append(d.constraints, c)
	}
	return d, nil
}

func (yv yamlVariant) variant(module string) (catalog.Variant, error) {
	c, err := versionedCoordinate(module)
	if err != nil {
		return catalog.Variant{}, err
	}
	v := catalog.Variant{
		Name:       yv.Name,
		Module:     c.Module,
		Version:    c.Version,
		Attributes: yv.Attributes,
		Artifacts:  yv.Artifacts,
	}
	for _, s := range yv.Capabilities {
		cp, err := catalog.ParseCapability(s)
		if err != nil {
			return catalog.Variant{}, err
		}
		v.Capabilities = append(v.Capabilities, cp)
	}
	for _, yd := range yv.Dependencies {
		dep, err := newDependency(c.Module, yd.Module, yd.Version, yd.Scope, yd.Capability)
		if err != nil {
			return catalog.Variant{}, err
		}
		v.Dependencies = append(v.Dependencies, dep)
	}
	return v, nil
}
