package stubs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BundleManifestName is the manifest file a stub bundle repository carries
// at its root.
const BundleManifestName = "typelab-bundle.yml"

// Bundle describes a fetchable set of stub files and registry manifests.
type Bundle struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description,omitempty"`
	Stubs       []string `yaml:"stubs,omitempty"`
	Registries  []string `yaml:"registries,omitempty"`
}

// LoadBundle parses a bundle manifest.
func LoadBundle(path string) (*Bundle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var bundle Bundle
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("bundle: parse %s: %w", path, err)
	}
	if bundle.Name == "" {
		return nil, fmt.Errorf("bundle: %s: missing name", path)
	}
	return &bundle, nil
}

// LoadBundleDir reads the manifest at the root of a checked-out bundle.
func LoadBundleDir(dir string) (*Bundle, error) {
	return LoadBundle(filepath.Join(dir, BundleManifestName))
}

// Write serialises the bundle manifest.
func (b *Bundle) Write(path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("bundle: marshal %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("bundle: encoder close: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// StubPaths resolves the bundle's stub entries relative to its checkout.
func (b *Bundle) StubPaths(dir string) []string {
	out := make([]string, 0, len(b.Stubs))
	for _, stub := range b.Stubs {
		out = append(out, filepath.Join(dir, stub))
	}
	return out
}

// RegistryPaths resolves the bundle's registry manifests relative to its
// checkout.
func (b *Bundle) RegistryPaths(dir string) []string {
	out := make([]string, 0, len(b.Registries))
	for _, reg := range b.Registries {
		out = append(out, filepath.Join(dir, reg))
	}
	return out
}
