package lockfile

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// CurrentVersion is the lock file schema version written by this package.
const CurrentVersion = 1

// Lockfile is the content of a classpath.lock file.
type Lockfile struct {
	Version    int                  `json:"lockFileVersion"`
	Classpaths map[string]Classpath `json:"classpaths"`
}

// Classpath is one locked resolution.
type Classpath struct {
	Root          string            `json:"root"`
	Configuration string            `json:"configuration"`
	Mode          string            `json:"mode"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Modules       []Module          `json:"modules"`
	Artifacts     []string          `json:"artifacts"`

	// Hash is HashArtifacts(Artifacts). Set fills it in.
	Hash string `json:"hash"`
}

// Module is a selected module in a locked classpath.
type Module struct {
	Coordinate string `json:"coordinate"`
	Variant    string `json:"variant"`
}

// Key identifies a classpath within a lock file. Consumer attributes are
// part of the key so environments locked side by side stay apart.
func (c Classpath) Key() string {
	key := c.Root + " " + c.Configuration + " " + c.Mode
	if len(c.Attributes) == 0 {
		return key
	}
	names := make([]string, 0, len(c.Attributes))
	for k := range c.Attributes {
		names = append(names, k)
	}
	slices.Sort(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = k + "=" + c.Attributes[k]
	}
	return key + " {" + strings.Join(parts, ", ") + "}"
}

// New creates an empty lock file at the current version.
func New() *Lockfile {
	return &Lockfile{
		Version:    CurrentVersion,
		Classpaths: make(map[string]Classpath),
	}
}

// IsCompatible reports whether the lock file can be read by this package.
func (l *Lockfile) IsCompatible() bool {
	return l.Version == CurrentVersion
}

// Set records a classpath, replacing any entry with the same key. Modules
// and artifacts are stored sorted and the hash is recomputed.
func (l *Lockfile) Set(c Classpath) {
	c.Modules = slices.Clone(c.Modules)
	slices.SortFunc(c.Modules, func(a, b Module) int { return strings.Compare(a.Coordinate, b.Coordinate) })
	c.Artifacts = slices.Clone(c.Artifacts)
	slices.Sort(c.Artifacts)
	c.Artifacts = slices.Compact(c.Artifacts)
	if c.Artifacts == nil {
		c.Artifacts = []string{}
	}
	c.Hash = HashArtifacts(c.Artifacts)
	l.Classpaths[c.Key()] = c
}

// Get returns the classpath recorded under key.
func (l *Lockfile) Get(key string) (Classpath, bool) {
	c, ok := l.Classpaths[key]
	return c, ok
}

// Keys returns the recorded classpath keys in sorted order.
func (l *Lockfile) Keys() []string {
	keys := make([]string, 0, len(l.Classpaths))
	for k := range l.Classpaths {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// HashArtifacts hashes a sorted artifact set.
func HashArtifacts(artifacts []string) string {
	h := sha256.New()
	for _, a := range artifacts {
		h.Write([]byte(a))
		h.Write([]byte{'\n'})
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}
