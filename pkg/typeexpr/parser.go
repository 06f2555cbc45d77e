package typeexpr

import (
	"errors"
	"sort"
	"strconv"

	"typelab/pkg/registry"
	"typelab/pkg/typeset"
)

// Parse evaluates a type expression against the checker's registry and
// returns the normalized type.
func Parse(checker *typeset.Checker, input string) (typeset.Type, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{checker: checker, input: input, tokens: tokens}
	t, err := p.union()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenEOF {
		return nil, errorAt(input, p.peek().offset, "unexpected %q after expression", p.peek().text)
	}
	return t, nil
}

type parser struct {
	checker *typeset.Checker
	input   string
	tokens  []token
	pos     int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	tok := p.peek()
	if tok.kind != kind {
		return token{}, errorAt(p.input, tok.offset, "expected %s, found %q", what, tok.text)
	}
	return p.next(), nil
}

func (p *parser) union() (typeset.Type, error) {
	first, err := p.intersection()
	if err != nil {
		return nil, err
	}
	members := []typeset.Type{first}
	for p.peek().kind == tokenPipe {
		p.next()
		member, err := p.intersection()
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return p.checker.Union(members...), nil
}

func (p *parser) intersection() (typeset.Type, error) {
	first, err := p.unary()
	if err != nil {
		return nil, err
	}
	members := []typeset.Type{first}
	for p.peek().kind == tokenAmp {
		p.next()
		member, err := p.unary()
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return p.checker.Intersect(members...), nil
}

func (p *parser) unary() (typeset.Type, error) {
	if p.peek().kind == tokenTilde {
		p.next()
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return p.checker.Negate(inner), nil
	}
	return p.atom()
}

func (p *parser) atom() (typeset.Type, error) {
	tok := p.peek()
	switch tok.kind {
	case tokenName:
		return p.nameAtom()
	case tokenLParen:
		return p.parenOrCallable()
	default:
		return nil, errorAt(p.input, tok.offset, "expected a type, found %q", tok.text)
	}
}

func (p *parser) nameAtom() (typeset.Type, error) {
	tok := p.next()
	switch tok.text {
	case "None":
		return p.checker.None(), nil
	case "Literal":
		return p.literalAtom(tok)
	case "tuple":
		if p.peek().kind == tokenLBracket {
			return p.tupleAtom()
		}
	case "Callable":
		if p.peek().kind == tokenLBracket {
			return p.callableAtom()
		}
	}
	t, err := p.checker.Instance(tok.text)
	if err != nil {
		if errors.Is(err, registry.ErrClassNotFound) {
			msg := "unknown class " + strconv.Quote(tok.text)
			if hints := p.suggestions(tok.text); len(hints) > 0 {
				msg += " (did you mean "
				for i, hint := range hints {
					if i > 0 {
						msg += ", "
					}
					msg += strconv.Quote(hint)
				}
				msg += "?)"
			}
			return nil, errorAt(p.input, tok.offset, "%s", msg)
		}
		return nil, errorAt(p.input, tok.offset, "resolve %q: %v", tok.text, err)
	}
	return t, nil
}

func (p *parser) literalAtom(head token) (typeset.Type, error) {
	if _, err := p.expect(tokenLBracket, "'[' after Literal"); err != nil {
		return nil, err
	}
	var members []typeset.Type
	for {
		member, err := p.literalValue()
		if err != nil {
			return nil, err
		}
		members = append(members, member)
		if p.peek().kind != tokenComma {
			break
		}
		p.next()
	}
	if _, err := p.expect(tokenRBracket, "']' closing Literal"); err != nil {
		return nil, err
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return p.checker.Union(members...), nil
}

func (p *parser) literalValue() (typeset.Type, error) {
	tok := p.next()
	switch tok.kind {
	case tokenInt:
		value, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, errorAt(p.input, tok.offset, "integer literal out of range: %s", tok.text)
		}
		return typeset.IntLiteral(value), nil
	case tokenMinus:
		inner, err := p.expect(tokenInt, "integer after '-'")
		if err != nil {
			return nil, err
		}
		value, err := strconv.ParseInt(inner.text, 10, 64)
		if err != nil {
			return nil, errorAt(p.input, inner.offset, "integer literal out of range: -%s", inner.text)
		}
		return typeset.IntLiteral(-value), nil
	case tokenString:
		return typeset.StringLiteral(tok.text), nil
	case tokenName:
		switch tok.text {
		case "True":
			return typeset.BoolLiteral(true), nil
		case "False":
			return typeset.BoolLiteral(false), nil
		case "None":
			// Literal[None] folds to None.
			return p.checker.None(), nil
		}
	}
	return nil, errorAt(p.input, tok.offset, "expected a literal value, found %q", tok.text)
}

func (p *parser) tupleAtom() (typeset.Type, error) {
	if _, err := p.expect(tokenLBracket, "'[' after tuple"); err != nil {
		return nil, err
	}
	if p.peek().kind == tokenRBracket {
		p.next()
		return p.checker.Tuple(), nil
	}
	elements, err := p.exprList(tokenRBracket)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenRBracket, "']' closing tuple"); err != nil {
		return nil, err
	}
	return p.checker.Tuple(elements...), nil
}

func (p *parser) callableAtom() (typeset.Type, error) {
	if _, err := p.expect(tokenLBracket, "'[' after Callable"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenLBracket, "'[' opening the parameter list"); err != nil {
		return nil, err
	}
	var params []typeset.Type
	if p.peek().kind != tokenRBracket {
		var err error
		params, err = p.exprList(tokenRBracket)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokenRBracket, "']' closing the parameter list"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenComma, "',' before the result type"); err != nil {
		return nil, err
	}
	result, err := p.union()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenRBracket, "']' closing Callable"); err != nil {
		return nil, err
	}
	return p.checker.Callable(params, result), nil
}

// parenOrCallable disambiguates `(T)` from `(T, U) -> V`: after the closing
// parenthesis an arrow means callable shorthand, otherwise a single grouped
// expression is required.
func (p *parser) parenOrCallable() (typeset.Type, error) {
	open := p.next()
	var elements []typeset.Type
	if p.peek().kind != tokenRParen {
		var err error
		elements, err = p.exprList(tokenRParen)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokenRParen, "')'"); err != nil {
		return nil, err
	}
	if p.peek().kind == tokenArrow {
		p.next()
		// The result extends as far right as possible, so a union result
		// needs no parentheses.
		result, err := p.union()
		if err != nil {
			return nil, err
		}
		return p.checker.Callable(elements, result), nil
	}
	if len(elements) != 1 {
		return nil, errorAt(p.input, open.offset, "parameter list requires '->' and a result type")
	}
	return elements[0], nil
}

func (p *parser) exprList(closer tokenKind) ([]typeset.Type, error) {
	var out []typeset.Type
	for {
		item, err := p.union()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
		if p.peek().kind != tokenComma {
			return out, nil
		}
		p.next()
		if p.peek().kind == closer {
			return out, nil
		}
	}
}

// suggestions lists registered class names within edit distance two of name.
func (p *parser) suggestions(name string) []string {
	var hints []string
	for _, cls := range p.checker.Registry().Classes() {
		if editDistance(name, cls.Name) <= 2 {
			hints = append(hints, cls.Name)
		}
	}
	sort.Strings(hints)
	if len(hints) > 3 {
		hints = hints[:3]
	}
	return hints
}

func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
