package typeset

import (
	"fmt"

	"go.uber.org/zap"

	"typelab/pkg/registry"
)

// Checker binds the algebra to a class registry. All composite construction
// and every relation query goes through a Checker.
type Checker struct {
	reg   *registry.Registry
	log   *zap.Logger
	trace *Trace
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger attaches a logger; the default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Checker) {
		if log != nil {
			c.log = log
		}
	}
}

// New returns a checker bound to reg.
func New(reg *registry.Registry, opts ...Option) *Checker {
	c := &Checker{reg: reg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry exposes the bound class registry.
func (c *Checker) Registry() *registry.Registry { return c.reg }

// Instance resolves a class name to its instance type. The names object,
// Never, and Any map to their singleton forms so `object` constructed by
// name and the top type share one canonical representation.
func (c *Checker) Instance(name string) (Type, error) {
	switch name {
	case "object":
		return Object, nil
	case "Never":
		return Never, nil
	case "Any":
		return Any, nil
	}
	cls, err := c.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	return InstanceType{Class: cls}, nil
}

// None returns the type of the None value, InstanceType(NoneType).
func (c *Checker) None() Type {
	t, err := c.Instance("NoneType")
	if err != nil {
		// NoneType is a builtin; a registry without it is corrupt.
		panic(fmt.Sprintf("typeset: registry lost NoneType: %v", err))
	}
	return t
}

// Bool returns the builtin bool instance type.
func (c *Checker) Bool() Type {
	t, err := c.Instance("bool")
	if err != nil {
		panic(fmt.Sprintf("typeset: registry lost bool: %v", err))
	}
	return t
}

// IntLiteral returns the singleton type of an int value.
func IntLiteral(v int64) Type { return LiteralType{Kind: LiteralInt, IntValue: v} }

// StringLiteral returns the singleton type of a string value.
func StringLiteral(v string) Type { return LiteralType{Kind: LiteralString, StrValue: v} }

// BoolLiteral returns Literal[True] or Literal[False].
func BoolLiteral(v bool) Type { return LiteralType{Kind: LiteralBool, BoolValue: v} }

// Tuple builds a fixed-length tuple type.
func (c *Checker) Tuple(elements ...Type) Type {
	return TupleType{Elements: append([]Type(nil), elements...)}
}

// Callable builds a fixed-arity callable type.
func (c *Checker) Callable(params []Type, result Type) Type {
	return CallableType{Params: append([]Type(nil), params...), Result: result}
}

// IsEquivalentTo reports whether s and t denote the same set: canonical-form
// equality first, with a mutual-subtyping fallback for fully static operands
// that normalize differently.
func (c *Checker) IsEquivalentTo(s, t Type) bool {
	if SameType(s, t) {
		return c.verdict("equal-canonical", s, t, true)
	}
	if c.IsFullyStatic(s) && c.IsFullyStatic(t) {
		return c.verdict("mutual-subtype", s, t, c.staticSubtype(s, t) && c.staticSubtype(t, s))
	}
	return c.verdict("equivalent", s, t, false)
}
