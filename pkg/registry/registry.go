// Package registry maintains the nominal class universe the type algebra
// resolves against: builtin classes, user classes merged from manifests or
// ingested stubs, MRO linearization, and the promotion chain.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-set/v3"
	"go.uber.org/zap"
)

var (
	// ErrClassNotFound reports a lookup for a class the registry does not know.
	ErrClassNotFound = errors.New("registry: class not found")
	// ErrClassConflict reports a re-registration whose shape disagrees with
	// the class already registered under the same name.
	ErrClassConflict = errors.New("registry: conflicting class definition")
)

// Class describes a nominal class. Bases are names resolved lazily against the
// registry so manifests may list classes in any order.
type Class struct {
	Name   string   `yaml:"name"`
	Bases  []string `yaml:"bases,omitempty"`
	Final  bool     `yaml:"final,omitempty"`
	Solid  bool     `yaml:"solid,omitempty"`
	Module string   `yaml:"module,omitempty"`
	Doc    string   `yaml:"doc,omitempty"`
}

// Clone returns a deep copy of the class.
func (c *Class) Clone() *Class {
	if c == nil {
		return nil
	}
	dup := *c
	dup.Bases = append([]string(nil), c.Bases...)
	return &dup
}

func (c *Class) sameShape(other *Class) bool {
	if c.Name != other.Name || c.Final != other.Final || c.Solid != other.Solid {
		return false
	}
	if len(c.Bases) != len(other.Bases) {
		return false
	}
	for i, base := range c.Bases {
		if other.Bases[i] != base {
			return false
		}
	}
	return true
}

// Registry is a concurrent-safe name -> class map with cached MRO
// linearizations. The zero value is not usable; call New.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
	mro     map[string][]string
	log     *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger attaches a logger; the default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// New returns a registry preloaded with the Python builtins.
func New(opts ...Option) *Registry {
	r := &Registry{
		classes: make(map[string]*Class),
		mro:     make(map[string][]string),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, cls := range builtinClasses() {
		r.classes[cls.Name] = cls
	}
	return r
}

// Lookup resolves a class by name.
func (r *Registry) Lookup(name string) (*Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cls, ok := r.classes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	}
	return cls, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.classes[name]
	return ok
}

// Register adds a class. Registering an identical definition twice is a
// no-op; registering a different shape under an existing name is an error.
func (r *Registry) Register(cls *Class) error {
	if cls == nil || strings.TrimSpace(cls.Name) == "" {
		return fmt.Errorf("registry: class requires a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.classes[cls.Name]; ok {
		if existing.sameShape(cls) {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrClassConflict, cls.Name)
	}
	stored := cls.Clone()
	if stored.Name != "object" && len(stored.Bases) == 0 {
		stored.Bases = []string{"object"}
	}
	r.classes[stored.Name] = stored
	r.mro = make(map[string][]string)
	r.log.Debug("registered class", zap.String("class", stored.Name), zap.Strings("bases", stored.Bases))
	return nil
}

// Classes returns every registered class sorted by name.
func (r *Registry) Classes() []*Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Class, 0, len(r.classes))
	for _, cls := range r.classes {
		out = append(out, cls.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len reports the number of registered classes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// MRO returns the method resolution order for name, starting with name itself
// and ending with object. C3 linearization; when C3 has no consistent
// ordering the registry falls back to depth-first base order with duplicates
// removed, which matches what a permissive checker does with legacy
// hierarchies.
func (r *Registry) MRO(name string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mroLocked(name, make(map[string]bool))
}

func (r *Registry) mroLocked(name string, visiting map[string]bool) ([]string, error) {
	if cached, ok := r.mro[name]; ok {
		return cached, nil
	}
	cls, ok := r.classes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	}
	if visiting[name] {
		return nil, fmt.Errorf("registry: inheritance cycle through %s", name)
	}
	visiting[name] = true
	defer delete(visiting, name)

	bases := cls.Bases
	if name == "object" {
		out := []string{"object"}
		r.mro[name] = out
		return out, nil
	}
	if len(bases) == 0 {
		bases = []string{"object"}
	}

	sequences := make([][]string, 0, len(bases)+1)
	for _, base := range bases {
		baseMRO, err := r.mroLocked(base, visiting)
		if err != nil {
			return nil, fmt.Errorf("registry: mro of %s: %w", name, err)
		}
		sequences = append(sequences, baseMRO)
	}
	sequences = append(sequences, bases)

	merged, ok := c3Merge(sequences)
	if !ok {
		r.log.Warn("C3 linearization failed, falling back to DFS order", zap.String("class", name))
		merged = dfsLinearize(r, bases, visiting)
	}
	out := append([]string{name}, merged...)
	r.mro[name] = out
	return out, nil
}

// c3Merge merges the base linearizations per the C3 rule: repeatedly take the
// head that appears in no other sequence's tail. Returns ok=false when no
// consistent ordering exists.
func c3Merge(sequences [][]string) ([]string, bool) {
	work := make([][]string, 0, len(sequences))
	for _, seq := range sequences {
		if len(seq) > 0 {
			work = append(work, append([]string(nil), seq...))
		}
	}
	var out []string
	for len(work) > 0 {
		candidate := ""
		for _, seq := range work {
			head := seq[0]
			inTail := false
			for _, other := range work {
				for _, item := range other[1:] {
					if item == head {
						inTail = true
						break
					}
				}
				if inTail {
					break
				}
			}
			if !inTail {
				candidate = head
				break
			}
		}
		if candidate == "" {
			return nil, false
		}
		out = append(out, candidate)
		next := work[:0]
		for _, seq := range work {
			if seq[0] == candidate {
				seq = seq[1:]
			}
			if len(seq) > 0 {
				next = append(next, seq)
			}
		}
		work = next
	}
	return out, true
}

func dfsLinearize(r *Registry, bases []string, visiting map[string]bool) []string {
	seen := set.New[string](len(bases))
	var out []string
	var visit func(names []string)
	visit = func(names []string) {
		for _, name := range names {
			if seen.Contains(name) {
				continue
			}
			seen.Insert(name)
			out = append(out, name)
			if cls, ok := r.classes[name]; ok && name != "object" {
				next := cls.Bases
				if len(next) == 0 {
					next = []string{"object"}
				}
				visit(next)
			}
		}
	}
	visit(bases)
	// object always linearizes last.
	filtered := out[:0]
	for _, name := range out {
		if name != "object" {
			filtered = append(filtered, name)
		}
	}
	return append(filtered, "object")
}

// IsSubclass reports whether c is d or d appears in c's MRO.
func (r *Registry) IsSubclass(c, d string) bool {
	if c == d {
		return true
	}
	mro, err := r.MRO(c)
	if err != nil {
		return false
	}
	for _, name := range mro {
		if name == d {
			return true
		}
	}
	return false
}

// promotions is the numeric tower: each key promotes to its value.
var promotions = map[string]string{
	"int":   "float",
	"float": "complex",
}

// Promotes reports whether c reaches d through the numeric promotion chain,
// possibly after walking up c's MRO first (so bool promotes to float via int).
func (r *Registry) Promotes(c, d string) bool {
	mro, err := r.MRO(c)
	if err != nil {
		return false
	}
	for _, ancestor := range mro {
		step := ancestor
		for {
			next, ok := promotions[step]
			if !ok {
				break
			}
			step = next
			if r.IsSubclass(step, d) || step == d {
				return true
			}
		}
	}
	return false
}

// Subclasses returns the transitive subclasses of name (name excluded),
// sorted by class name.
func (r *Registry) Subclasses(name string) []string {
	r.mu.RLock()
	children := make(map[string][]string)
	for _, cls := range r.classes {
		bases := cls.Bases
		if len(bases) == 0 && cls.Name != "object" {
			bases = []string{"object"}
		}
		for _, base := range bases {
			children[base] = append(children[base], cls.Name)
		}
	}
	r.mu.RUnlock()

	found := set.New[string](8)
	queue := []string{name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			if found.Contains(child) {
				continue
			}
			found.Insert(child)
			queue = append(queue, child)
		}
	}
	out := found.Slice()
	sort.Strings(out)
	return out
}

// SolidBase returns the nearest layout-anchored ancestor of name (possibly
// name itself). Builtins like int and str are solid: two classes with
// distinct solid bases can never share an instance.
func (r *Registry) SolidBase(name string) (string, bool) {
	mro, err := r.MRO(name)
	if err != nil {
		return "", false
	}
	for _, ancestor := range mro {
		r.mu.RLock()
		cls, ok := r.classes[ancestor]
		r.mu.RUnlock()
		if ok && cls.Solid {
			return ancestor, true
		}
	}
	return "", false
}

// IsFinal reports whether name is registered and final.
func (r *Registry) IsFinal(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cls, ok := r.classes[name]
	return ok && cls.Final
}
