// Package typeset implements a gradual set-theoretic type algebra: types
// denote sets of values, closed under union, intersection, and negation,
// with an explicit top (object), bottom (Never), and dynamic type (Any).
//
// Composite types are built exclusively through a Checker, which normalizes
// as it constructs. Two normalized types are equal iff their Keys are equal,
// so canonical forms render and compare deterministically.
package typeset

import (
	"fmt"
	"strconv"
	"strings"

	"typelab/pkg/registry"
)

// Type is a set-theoretic type value. Implementations are immutable;
// composite kinds are only produced in normal form by a Checker.
type Type interface {
	// Key returns the canonical sort key. Keys order members inside unions
	// and intersections and double as the equality notion for normalized
	// types.
	Key() string
}

// NeverType is the bottom type, the empty set of values.
type NeverType struct{}

// ObjectType is the top type, the set of all values. Fully static.
type ObjectType struct{}

// AnyType is the dynamic type. It is not a set of values but a gradual form
// standing for an unknown fully static type; its materializations range over
// every fully static type.
type AnyType struct{}

var (
	// Never is the canonical bottom value.
	Never = NeverType{}
	// Object is the canonical top value.
	Object = ObjectType{}
	// Any is the canonical dynamic value.
	Any = AnyType{}
)

func (NeverType) Key() string  { return "0:Never" }
func (ObjectType) Key() string { return "1:object" }
func (AnyType) Key() string    { return "2:Any" }

// InstanceType is the set of instances of a nominal class.
type InstanceType struct {
	Class *registry.Class
}

func (t InstanceType) Key() string { return "3:" + t.Class.Name }

// LiteralKind discriminates literal values.
type LiteralKind int

const (
	LiteralInt LiteralKind = iota
	LiteralString
	LiteralBool
)

// LiteralType is a singleton type holding exactly one value.
type LiteralType struct {
	Kind      LiteralKind
	IntValue  int64
	StrValue  string
	BoolValue bool
}

func (t LiteralType) Key() string {
	switch t.Kind {
	case LiteralInt:
		return fmt.Sprintf("4:int:%d", t.IntValue)
	case LiteralString:
		return "4:str:" + t.StrValue
	default:
		return fmt.Sprintf("4:bool:%t", t.BoolValue)
	}
}

// ClassName returns the builtin class the literal's value belongs to.
func (t LiteralType) ClassName() string {
	switch t.Kind {
	case LiteralInt:
		return "int"
	case LiteralString:
		return "str"
	default:
		return "bool"
	}
}

// ValueString renders the literal value the way it appears in source.
func (t LiteralType) ValueString() string {
	switch t.Kind {
	case LiteralInt:
		return strconv.FormatInt(t.IntValue, 10)
	case LiteralString:
		return strconv.Quote(t.StrValue)
	default:
		if t.BoolValue {
			return "True"
		}
		return "False"
	}
}

// TupleType is a fixed-length heterogeneous tuple, covariant element-wise.
type TupleType struct {
	Elements []Type
}

func (t TupleType) Key() string {
	parts := make([]string, len(t.Elements))
	for i, elem := range t.Elements {
		parts[i] = elem.Key()
	}
	return "5:tuple(" + strings.Join(parts, ",") + ")"
}

// CallableType is a fixed-arity callable, contravariant in parameters and
// covariant in the result.
type CallableType struct {
	Params []Type
	Result Type
}

func (t CallableType) Key() string {
	parts := make([]string, len(t.Params))
	for i, param := range t.Params {
		parts[i] = param.Key()
	}
	return "6:fn(" + strings.Join(parts, ",") + ")->" + t.Result.Key()
}

// UnionType holds at least two members after normalization. Members never
// include Never, object, or nested unions, and are kept in canonical order.
type UnionType struct {
	Members []Type
}

func (t UnionType) Key() string {
	parts := make([]string, len(t.Members))
	for i, member := range t.Members {
		parts[i] = member.Key()
	}
	return "7:union(" + strings.Join(parts, "|") + ")"
}

// IntersectionType is a conjunction of positive members and negated members.
// A bare negation ~T is IntersectionType{Negative: [T]}; there is no
// standalone negation node. After normalization positives exclude object and
// nested composites, negatives exclude Never, and the whole is non-empty.
type IntersectionType struct {
	Positive []Type
	Negative []Type
}

func (t IntersectionType) Key() string {
	pos := make([]string, len(t.Positive))
	for i, member := range t.Positive {
		pos[i] = member.Key()
	}
	neg := make([]string, len(t.Negative))
	for i, member := range t.Negative {
		neg[i] = "!" + member.Key()
	}
	return "8:inter(" + strings.Join(append(pos, neg...), "&") + ")"
}

// SameType reports canonical-form equality.
func SameType(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}
