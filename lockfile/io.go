package lockfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// lockfilePermissions is the file permission mode for lock files.
const lockfilePermissions = 0o644

// DefaultName is the lock file name used when none is given.
const DefaultName = "classpath.lock"

// ReadFile reads and parses a lock file from the given path.
func ReadFile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}
	return Parse(data)
}

// Parse parses lock file JSON data. Lock files written by another schema
// version are rejected.
func Parse(data []byte) (*Lockfile, error) {
	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse lockfile JSON: %w", err)
	}
	if !lf.IsCompatible() {
		return nil, fmt.Errorf("unsupported lockfile version %d (want %d)", lf.Version, CurrentVersion)
	}
	if lf.Classpaths == nil {
		lf.Classpaths = make(map[string]Classpath)
	}
	return &lf, nil
}

// WriteFile writes the lock file to the given path.
func (l *Lockfile) WriteFile(path string) error {
	data, err := l.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, lockfilePermissions)
}

// WriteTo writes the lock file to the given writer.
func (l *Lockfile) WriteTo(w io.Writer) (int64, error) {
	data, err := l.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Marshal serializes the lock file as indented JSON. Map keys are sorted by
// encoding/json and Set keeps slices sorted, so equal lock files produce
// identical bytes.
func (l *Lockfile) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Exists returns true if a lock file exists at the given path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DefaultPath returns the default lock file path in dir.
func DefaultPath(dir string) string {
	if dir == "" {
		return DefaultName
	}
	return filepath.Join(dir, DefaultName)
}
