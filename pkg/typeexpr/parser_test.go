package typeexpr_test

import (
	"errors"
	"strings"
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
	} {
		if err := reg.Register(cls); err != nil {
			t.Fatalf("register %s: %v", cls.Name, err)
		}
	}
	return typeset.New(reg)
}

func TestParsePrecedence(t *testing.T) {
	checker := newChecker(t)
	cases := []struct {
		expr string
		same string
	}{
		// & binds tighter than |.
		{"int | Animal & ~Dog", "int | (Animal & ~Dog)"},
		// ~ binds tighter than &.
		{"~Dog & Animal", "(~Dog) & Animal"},
		{"~(Dog & Animal)", "~Dog"},
		// Arrow results extend rightward.
		{"(int) -> str | None", "(int) -> (str | None)"},
		{"Callable[[int], str | None]", "(int) -> (str | None)"},
	}
	for _, tc := range cases {
		a, err := typeexpr.Parse(checker, tc.expr)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.expr, err)
		}
		b, err := typeexpr.Parse(checker, tc.same)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.same, err)
		}
		if a.Key() != b.Key() {
			t.Errorf("%q parsed as %s, %q as %s", tc.expr, typeset.Display(a), tc.same, typeset.Display(b))
		}
	}
}

func TestParseForms(t *testing.T) {
	checker := newChecker(t)
	cases := []struct {
		expr string
		want string
	}{
		{"None", "None"},
		{"Never", "Never"},
		{"object", "object"},
		{"Any", "Any"},
		{"tuple", "tuple"},
		{"tuple[]", "tuple[]"},
		{"tuple[int]", "tuple[int]"},
		{"tuple[int, str,]", "tuple[int, str]"},
		{"Literal[3]", "Literal[3]"},
		{"Literal[-7]", "Literal[-7]"},
		{"Literal['a']", "Literal[\"a\"]"},
		{"Literal[True, False]", "bool"},
		{"Literal[None]", "None"},
		{"Literal[1, 2]", "Literal[1] | Literal[2]"},
		{"() -> None", "() -> None"},
		{"(int, str) -> bool", "(int, str) -> bool"},
		{"Callable[[], int]", "() -> int"},
		{"Callable[[int, str], bool]", "(int, str) -> bool"},
		{"((int | str))", "int | str"},
		{"Dog", "Dog"},
	}
	for _, tc := range cases {
		typ, err := typeexpr.Parse(checker, tc.expr)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.expr, err)
		}
		if got := typeset.Display(typ); got != tc.want {
			t.Errorf("parse %q: got %q, want %q", tc.expr, got, tc.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	checker := newChecker(t)
	cases := []struct {
		expr    string
		message string
	}{
		{"", "expected a type"},
		{"int |", "expected a type"},
		{"int int", "unexpected"},
		{"tuple[int", "']'"},
		{"Literal[3", "']'"},
		{"Literal[foo]", "literal value"},
		{"(int, str)", "'->'"},
		{"'unterminated", "unterminated string"},
		{"int $ str", "unexpected character"},
	}
	for _, tc := range cases {
		_, err := typeexpr.Parse(checker, tc.expr)
		if err == nil {
			t.Errorf("parse %q: expected error", tc.expr)
			continue
		}
		if !strings.Contains(err.Error(), tc.message) {
			t.Errorf("parse %q: error %q does not mention %q", tc.expr, err.Error(), tc.message)
		}
	}
}

func TestParseErrorRender(t *testing.T) {
	checker := newChecker(t)
	_, err := typeexpr.Parse(checker, "int | $")
	var parseErr *typeexpr.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	rendered := parseErr.Render()
	lines := strings.Split(rendered, "\n")
	if len(lines) != 2 {
		t.Fatalf("render produced %d lines: %q", len(lines), rendered)
	}
	if lines[0] != "int | $" {
		t.Errorf("first line %q should echo the input", lines[0])
	}
	caret := strings.Index(lines[1], "^")
	if caret != parseErr.Offset {
		t.Errorf("caret at column %d, offset is %d", caret, parseErr.Offset)
	}
}

func TestParseUnknownClassSuggestions(t *testing.T) {
	checker := newChecker(t)
	_, err := typeexpr.Parse(checker, "Dgo")
	if err == nil {
		t.Fatal("expected an error for an unknown class")
	}
	if !strings.Contains(err.Error(), "unknown class") {
		t.Errorf("error %q does not report the unknown class", err.Error())
	}
	if !strings.Contains(err.Error(), "\"Dog\"") {
		t.Errorf("error %q does not suggest Dog", err.Error())
	}
}
