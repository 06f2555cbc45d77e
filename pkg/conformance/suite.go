// Package conformance runs YAML relation fixtures against the algebra: suite
// discovery, a concurrent runner, doc/json/tap reporters, and a watch mode.
package conformance

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ErrNotASuite marks a discovered YAML file with no top-level cases list,
// such as a registry manifest living next to the suites that use it.
var ErrNotASuite = errors.New("conformance: not a suite file")

// Relations accepted in suite cases.
const (
	RelationSubtype    = "subtype"
	RelationAssignable = "assignable"
	RelationDisjoint   = "disjoint"
	RelationEquivalent = "equivalent"
)

// Suite is one fixture file: a named list of relation cases, optionally
// evaluated against an extra registry manifest resolved relative to the
// suite file.
type Suite struct {
	Name     string `yaml:"suite"`
	Registry string `yaml:"registry,omitempty"`
	Cases    []Case `yaml:"cases"`

	// Path is where the suite was loaded from; not part of the format.
	Path string `yaml:"-"`
}

// Case is a single relation query with its expected verdict.
type Case struct {
	Name     string `yaml:"name"`
	Relation string `yaml:"relation"`
	Left     string `yaml:"left"`
	Right    string `yaml:"right"`
	Expect   bool   `yaml:"expect"`
	Skip     string `yaml:"skip,omitempty"`
}

// LoadSuite parses and validates a suite file. Files without a top-level
// cases list report ErrNotASuite so runners can pass over them.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("suite: parse %s: %w", path, err)
	}
	if _, ok := probe["cases"]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotASuite, path)
	}

	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("suite: parse %s: %w", path, err)
	}
	suite.Path = path
	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for i, c := range suite.Cases {
		if c.Name == "" {
			return nil, fmt.Errorf("suite: %s: case %d missing name", path, i)
		}
		switch c.Relation {
		case RelationSubtype, RelationAssignable, RelationDisjoint, RelationEquivalent:
		default:
			return nil, fmt.Errorf("suite: %s: case %q: unknown relation %q", path, c.Name, c.Relation)
		}
		if c.Left == "" || c.Right == "" {
			return nil, fmt.Errorf("suite: %s: case %q: left and right are required", path, c.Name)
		}
	}
	return &suite, nil
}

// Discover globs for suite files under root (any .yml or .yaml at any
// depth), sorted for deterministic run order.
func Discover(root string) ([]string, error) {
	pattern := filepath.Join(root, "**", "*.{yml,yaml}")
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("conformance: glob %s: %w", pattern, err)
	}
	// A flat directory of fixtures is common; ** does not match the empty
	// path segment for files directly under root on all layouts.
	direct, err := doublestar.FilepathGlob(filepath.Join(root, "*.{yml,yaml}"))
	if err != nil {
		return nil, fmt.Errorf("conformance: glob %s: %w", root, err)
	}
	seen := make(map[string]struct{})
	var out []string
	for _, match := range append(matches, direct...) {
		clean := filepath.Clean(match)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	sort.Strings(out)
	return out, nil
}

// filterSuites applies include/exclude substring filters on suite names.
func filterSuites(suites []*Suite, include, exclude []string) []*Suite {
	kept := make([]*Suite, 0, len(suites))
	for _, suite := range suites {
		if len(include) > 0 && !matchesAny(suite.Name, include) {
			continue
		}
		if matchesAny(suite.Name, exclude) {
			continue
		}
		kept = append(kept, suite)
	}
	return kept
}

func matchesAny(name string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(name, needle) {
			return true
		}
	}
	return false
}
