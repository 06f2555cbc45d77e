package typeset_test

import "testing"

func TestSubtype(t *testing.T) {
	checker := newChecker(t)
	cases := []struct {
		left, right string
		want        bool
	}{
		{"Never", "int", true},
		{"int", "object", true},
		{"object", "int", false},
		{"int", "Never", false},
		{"bool", "int", true},
		{"int", "bool", false},
		{"int", "float", true},    // promotion
		{"bool", "complex", true}, // bool -> int -> float -> complex
		{"str", "float", false},
		{"Dog", "Animal", true},
		{"Animal", "Dog", false},
		{"Literal[3]", "int", true},
		{"Literal[3]", "Literal[3]", true},
		{"Literal[3]", "Literal[4]", false},
		{"Literal[True]", "bool", true},
		{"Literal[True]", "int", true},
		{"int | str", "int | str | bytes", true},
		{"int | str", "int", false},
		{"int", "int | str", true},
		{"int & ~Literal[3]", "int", true},
		{"int", "int & ~Literal[3]", false},
		{"int", "~str", true},
		{"str", "~str", false},
		{"~int", "~bool", true},
		{"~bool", "~int", false},
		{"tuple[int, str]", "tuple[int, str]", true},
		{"tuple[bool, str]", "tuple[int, str]", true},
		{"tuple[int]", "tuple[int, int]", false},
		{"tuple[int, str]", "tuple", true},
		{"(int) -> bool", "(bool) -> int", true},
		{"(bool) -> int", "(int) -> bool", false},
		{"(int) -> int", "(int, int) -> int", false},
		// Subtyping is the universal reading: Any is not below int.
		{"Any", "int", false},
		{"int", "Any", false},
		{"Any", "object", true},
		{"Never", "Any", true},
	}
	for _, tc := range cases {
		left := parse(t, checker, tc.left)
		right := parse(t, checker, tc.right)
		if got := checker.IsSubtypeOf(left, right); got != tc.want {
			t.Errorf("%s <: %s = %t, want %t", tc.left, tc.right, got, tc.want)
		}
	}
}

func TestAssignable(t *testing.T) {
	checker := newChecker(t)
	cases := []struct {
		left, right string
		want        bool
	}{
		{"Any", "int", true},
		{"int", "Any", true},
		{"Any", "Never", true},
		{"tuple[Any]", "tuple[int]", true},
		{"tuple[int]", "tuple[Any]", true},
		{"tuple[Any]", "tuple[int, int]", false},
		{"Literal[3]", "int", true},
		{"Literal[3]", "~str", true},
		{"Literal[3]", "~int", false},
		{"int", "str", false},
		{"(Any) -> int", "(str) -> int", true},
		{"(str) -> int", "(Any) -> int", true},
	}
	for _, tc := range cases {
		left := parse(t, checker, tc.left)
		right := parse(t, checker, tc.right)
		if got := checker.IsAssignableTo(left, right); got != tc.want {
			t.Errorf("%s assignable to %s = %t, want %t", tc.left, tc.right, got, tc.want)
		}
	}
}

func TestDisjoint(t *testing.T) {
	checker := newChecker(t)
	cases := []struct {
		left, right string
		want        bool
	}{
		{"Never", "Never", true},
		{"Never", "object", true},
		{"object", "object", false},
		{"object", "Any", false},
		{"Any", "int", false},
		{"Any", "Never", true},
		{"int", "str", true},
		{"int", "float", false}, // promotion keeps the numeric tower joined
		{"bool", "NoneType", true},
		{"Dog", "Cat", false}, // multiple inheritance may join them
		{"Dog", "str", false}, // Dog has no solid base
		{"Literal[3]", "Literal[4]", true},
		{"Literal[3]", "Literal[3]", false},
		{"Literal[3]", "int", false},
		{"Literal[3]", "str", true},
		{"Literal[\"a\"]", "Literal[\"b\"]", true},
		{"int | str", "bytes", true},
		{"int | str", "str", false},
		{"int & ~Literal[3]", "Literal[3]", true},
		{"int & ~Literal[3]", "Literal[4]", false},
		{"~int", "int", true},
		{"~int", "str", false},
		{"tuple[int]", "tuple[int, int]", true},
		{"tuple[int]", "tuple[str]", true},
		{"tuple[int]", "tuple[int]", false},
		{"tuple[int]", "NoneType", true},
		{"tuple[int]", "Animal", false},
		{"(int) -> int", "(str) -> str", false},
	}
	for _, tc := range cases {
		left := parse(t, checker, tc.left)
		right := parse(t, checker, tc.right)
		if got := checker.IsDisjointFrom(left, right); got != tc.want {
			t.Errorf("%s disjoint from %s = %t, want %t", tc.left, tc.right, got, tc.want)
		}
		// Disjointness is symmetric.
		if got := checker.IsDisjointFrom(right, left); got != tc.want {
			t.Errorf("%s disjoint from %s = %t, want %t (symmetry)", tc.right, tc.left, got, tc.want)
		}
	}
}

func TestEquivalent(t *testing.T) {
	checker := newChecker(t)
	cases := []struct {
		left, right string
		want        bool
	}{
		{"~~int", "int", true},
		{"~(int | str)", "~int & ~str", true},
		{"int | ~int", "object", true},
		{"int & ~int", "Never", true},
		{"Literal[True] | Literal[False]", "bool", true},
		{"int | str", "str | int", true},
		{"int", "str", false},
		{"Any", "Any", true},
		{"Any", "object", false},
		{"bool | int", "int", true},
	}
	for _, tc := range cases {
		left := parse(t, checker, tc.left)
		right := parse(t, checker, tc.right)
		if got := checker.IsEquivalentTo(left, right); got != tc.want {
			t.Errorf("%s equivalent to %s = %t, want %t", tc.left, tc.right, got, tc.want)
		}
	}
}

func TestExplainMatchesPlainVerdict(t *testing.T) {
	checker := newChecker(t)
	pairs := [][2]string{
		{"Literal[3]", "~str"},
		{"int | str", "object"},
		{"Any", "int"},
		{"tuple[int, Any]", "tuple[int, str]"},
	}
	for _, pair := range pairs {
		left := parse(t, checker, pair[0])
		right := parse(t, checker, pair[1])

		plain := checker.IsSubtypeOf(left, right)
		explained, trace := checker.ExplainSubtype(left, right)
		if plain != explained {
			t.Errorf("explain changed subtype verdict for %s <: %s", pair[0], pair[1])
		}
		if len(trace.Steps) == 0 {
			t.Errorf("empty trace for %s <: %s", pair[0], pair[1])
		}

		plain = checker.IsAssignableTo(left, right)
		explained, trace = checker.ExplainAssignable(left, right)
		if plain != explained {
			t.Errorf("explain changed assignable verdict for %s to %s", pair[0], pair[1])
		}
		if len(trace.Steps) == 0 {
			t.Errorf("empty assignable trace for %s to %s", pair[0], pair[1])
		}
	}
}
