package stubs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LockfileName is the pinned-bundle record kept next to the config.
const LockfileName = "stubs.lock"

// Lockfile models stubs.lock: one entry per fetched bundle with the exact
// source and a content checksum, so re-fetches are no-ops while the lock
// matches.
type Lockfile struct {
	Path      string
	Generated string
	Tool      string
	Bundles   []*LockedBundle
}

// LockedBundle pins a single fetched bundle.
type LockedBundle struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Source   string `yaml:"source"`
	Checksum string `yaml:"checksum"`
}

// NewLockfile constructs an empty lockfile stamped with the generating tool.
func NewLockfile(tool string) *Lockfile {
	return &Lockfile{
		Generated: time.Now().UTC().Format(time.RFC3339),
		Tool:      strings.TrimSpace(tool),
		Bundles:   []*LockedBundle{},
	}
}

// LoadLockfile parses stubs.lock from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw lockfileDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}

	lock := &Lockfile{
		Path:      abs,
		Generated: strings.TrimSpace(raw.Generated),
		Tool:      strings.TrimSpace(raw.Tool),
		Bundles:   raw.Bundles,
	}
	lock.normalize()
	return lock, nil
}

// WriteLockfile serialises the lockfile back to disk, refreshing metadata.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		if lock.Path == "" {
			return fmt.Errorf("lockfile: missing path")
		}
		path = lock.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	lock.Generated = time.Now().UTC().Format(time.RFC3339)
	lock.Path = abs
	lock.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(lockfileDisk{
		Generated: lock.Generated,
		Tool:      lock.Tool,
		Bundles:   lock.Bundles,
	}); err != nil {
		return fmt.Errorf("lockfile: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lockfile: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	return nil
}

// Find returns the locked entry for name, or nil.
func (l *Lockfile) Find(name string) *LockedBundle {
	for _, bundle := range l.Bundles {
		if bundle != nil && bundle.Name == name {
			return bundle
		}
	}
	return nil
}

// Upsert replaces or appends the entry for locked.Name.
func (l *Lockfile) Upsert(locked *LockedBundle) {
	if locked == nil {
		return
	}
	for i, bundle := range l.Bundles {
		if bundle != nil && bundle.Name == locked.Name {
			l.Bundles[i] = locked
			return
		}
	}
	l.Bundles = append(l.Bundles, locked)
}

func (l *Lockfile) normalize() {
	kept := l.Bundles[:0]
	for _, bundle := range l.Bundles {
		if bundle == nil {
			continue
		}
		bundle.Name = strings.TrimSpace(bundle.Name)
		bundle.Version = strings.TrimSpace(bundle.Version)
		bundle.Source = strings.TrimSpace(bundle.Source)
		bundle.Checksum = strings.TrimSpace(bundle.Checksum)
		kept = append(kept, bundle)
	}
	l.Bundles = kept
	sort.SliceStable(l.Bundles, func(i, j int) bool {
		return l.Bundles[i].Name < l.Bundles[j].Name
	})
}

type lockfileDisk struct {
	Generated string          `yaml:"generated"`
	Tool      string          `yaml:"tool"`
	Bundles   []*LockedBundle `yaml:"bundles"`
}
