package typeset_test

import (
	"testing"

	"typelab/pkg/registry"
	"typelab/pkg/typeexpr"
	"typelab/pkg/typeset"
)

func newChecker(t *testing.T) *typeset.Checker {
	t.Helper()
	reg := registry.New()
	for _, cls := range []*registry.Class{
		{Name: "Animal"},
		{Name: "Dog", Bases: []string{"Animal"}},
		{Name: "Cat", Bases: []string{"Animal"}},
	} {
		if err := reg.Register(cls); err != nil {
			t.Fatalf("register %s: %v", cls.Name, err)
		}
	}
	return typeset.New(reg)
}

func parse(t *testing.T, checker *typeset.Checker, src string) typeset.Type {
	t.Helper()
	typ, err := typeexpr.Parse(checker, src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return typ
}

func TestNormalization(t *testing.T) {
	checker := newChecker(t)
	cases := []struct {
		expr string
		want string
	}{
		// Negation involution and De Morgan.
		{"~~int", "int"},
		{"~~~int", "~int"},
		{"~(int | str)", "~int & ~str"},
		// ~(int & ~str) = ~int | str, and str is already inside ~int.
		{"~(int & ~str)", "~int"},
		{"~object", "Never"},
		{"~Never", "object"},
		{"~Any", "Any"},
		// Union identities.
		{"int | Never", "int"},
		{"int | object", "object"},
		{"int | int", "int"},
		{"int | bool", "int"},
		{"Literal[3] | int", "int"},
		{"int | ~int", "object"},
		{"Dog | Animal", "Animal"},
		{"Literal[True] | Literal[False]", "bool"},
		{"Literal[True] | Literal[False] | str", "bool | str"},
		// Intersection identities.
		{"int & object", "int"},
		{"int & Never", "Never"},
		{"int & int", "int"},
		{"int & ~int", "Never"},
		{"~bool & bool", "Never"},
		{"int & str", "Never"},
		{"Dog & Animal", "Dog"},
		// Plain classes admit multiple inheritance, so Dog & Cat is
		// inhabited; the wider Animal is dropped.
		{"Dog & Cat & Animal", "Cat & Dog"},
		{"int & ~str", "int"},
		{"int & ~Literal[3]", "int & ~Literal[3]"},
		{"Animal & ~Dog", "Animal & ~Dog"},
		{"Animal & ~Dog & ~Dog", "Animal & ~Dog"},
		{"~Dog & ~Animal", "~Animal"},
		// Distribution keeps disjunctive normal form.
		{"(int | str) & bytes", "Never"},
		{"(int | str) & ~str", "int"},
		{"(Animal | str) & ~Dog", "Animal & ~Dog | str & ~Dog"},
		// Gradual members survive untouched.
		{"Any | int", "Any | int"},
		{"Any & int", "Any & int"},
	}
	for _, tc := range cases {
		got := typeset.Display(parse(t, checker, tc.expr))
		if got != tc.want {
			t.Errorf("normalize %q: got %q, want %q", tc.expr, got, tc.want)
		}
	}
}

func TestUnionInvariants(t *testing.T) {
	checker := newChecker(t)
	typ := parse(t, checker, "int | str | tuple[int, str]")
	union, ok := typ.(typeset.UnionType)
	if !ok {
		t.Fatalf("expected a union, got %T", typ)
	}
	if len(union.Members) < 2 {
		t.Fatalf("union with %d member(s) survived normalization", len(union.Members))
	}
	for _, member := range union.Members {
		switch member.(type) {
		case typeset.UnionType:
			t.Errorf("nested union in %s", typeset.Display(typ))
		case typeset.NeverType, typeset.ObjectType:
			t.Errorf("absorbing member in %s", typeset.Display(typ))
		}
	}
	for i := 1; i < len(union.Members); i++ {
		if union.Members[i-1].Key() >= union.Members[i].Key() {
			t.Errorf("members out of canonical order in %s", typeset.Display(typ))
		}
	}
}

func TestIntersectionInvariants(t *testing.T) {
	checker := newChecker(t)
	typ := parse(t, checker, "Animal & ~Dog & ~Literal[3]")
	inter, ok := typ.(typeset.IntersectionType)
	if !ok {
		t.Fatalf("expected an intersection, got %T", typ)
	}
	if len(inter.Positive)+len(inter.Negative) == 0 {
		t.Fatal("empty intersection survived normalization")
	}
	for _, p := range inter.Positive {
		switch p.(type) {
		case typeset.ObjectType, typeset.IntersectionType, typeset.UnionType:
			t.Errorf("non-normal positive %T in %s", p, typeset.Display(typ))
		}
	}
	for _, n := range inter.Negative {
		switch n.(type) {
		case typeset.NeverType, typeset.IntersectionType, typeset.UnionType:
			t.Errorf("non-normal negative %T in %s", n, typeset.Display(typ))
		}
	}
}

func TestNormalizationDeterministic(t *testing.T) {
	checker := newChecker(t)
	a := parse(t, checker, "str | int | None")
	b := parse(t, checker, "None | int | str")
	if a.Key() != b.Key() {
		t.Errorf("same set normalized differently: %q vs %q", typeset.Display(a), typeset.Display(b))
	}
}

func TestDoubleNegationAtBuilderLevel(t *testing.T) {
	checker := newChecker(t)
	inner := parse(t, checker, "int")
	negated := checker.Negate(checker.Negate(inner))
	if !typeset.SameType(inner, negated) {
		t.Errorf("~~int != int: got %s", typeset.Display(negated))
	}
}
