package registry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Manifest models a registry.yaml class set.
type Manifest struct {
	Classes []*Class `yaml:"classes"`
}

// LoadManifest parses a registry manifest from disk.
func LoadManifest(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var manifest Manifest
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", abs, err)
	}
	for i, cls := range manifest.Classes {
		if cls == nil || cls.Name == "" {
			return nil, fmt.Errorf("manifest: %s: class entry %d missing name", abs, i)
		}
	}
	return &manifest, nil
}

// Write serialises the manifest, classes sorted by name.
func (m *Manifest) Write(path string) error {
	if m == nil {
		return fmt.Errorf("manifest: nil manifest")
	}
	sorted := append([]*Class(nil), m.Classes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Manifest{Classes: sorted}); err != nil {
		return fmt.Errorf("manifest: marshal %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("manifest: encoder close: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Merge registers every manifest class. Identical re-definitions are
// idempotent; conflicting shapes abort with the offending class named.
func (r *Registry) Merge(m *Manifest) error {
	if m == nil {
		return nil
	}
	for _, cls := range m.Classes {
		if err := r.Register(cls); err != nil {
			return err
		}
	}
	return nil
}

// Export captures the current class set as a manifest, builtins included.
func (r *Registry) Export() *Manifest {
	return &Manifest{Classes: r.Classes()}
}
