// Package typeexpr parses the workbench's type expression syntax into
// normalized typeset values, resolving class names against a registry.
//
// Grammar, loosest binding first: `|` then `&` then prefix `~`. Atoms are
// class names, None, Never, object, Any, Literal[...], tuple[...],
// Callable[[...], T], the callable shorthand `(T, U) -> V`, and
// parenthesized expressions.
package typeexpr

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenName
	tokenInt
	tokenString
	tokenPipe
	tokenAmp
	tokenTilde
	tokenLBracket
	tokenRBracket
	tokenLParen
	tokenRParen
	tokenComma
	tokenArrow
	tokenMinus
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

// ParseError reports a syntax or resolution error with its byte offset into
// the input, for caret rendering in CLI diagnostics.
type ParseError struct {
	Input   string
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}

// Render formats the input with a caret pointing at the error offset.
func (e *ParseError) Render() string {
	offset := e.Offset
	if offset > len(e.Input) {
		offset = len(e.Input)
	}
	return e.Input + "\n" + strings.Repeat(" ", offset) + "^ " + e.Message
}

func errorAt(input string, offset int, format string, args ...any) *ParseError {
	return &ParseError{Input: input, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func lex(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '|':
			tokens = append(tokens, token{tokenPipe, "|", i})
			i++
		case ch == '&':
			tokens = append(tokens, token{tokenAmp, "&", i})
			i++
		case ch == '~':
			tokens = append(tokens, token{tokenTilde, "~", i})
			i++
		case ch == '[':
			tokens = append(tokens, token{tokenLBracket, "[", i})
			i++
		case ch == ']':
			tokens = append(tokens, token{tokenRBracket, "]", i})
			i++
		case ch == '(':
			tokens = append(tokens, token{tokenLParen, "(", i})
			i++
		case ch == ')':
			tokens = append(tokens, token{tokenRParen, ")", i})
			i++
		case ch == ',':
			tokens = append(tokens, token{tokenComma, ",", i})
			i++
		case ch == '-':
			if i+1 < len(input) && input[i+1] == '>' {
				tokens = append(tokens, token{tokenArrow, "->", i})
				i += 2
			} else {
				tokens = append(tokens, token{tokenMinus, "-", i})
				i++
			}
		case ch == '"' || ch == '\'':
			text, next, err := lexString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{tokenString, text, i})
			i = next
		case ch >= '0' && ch <= '9':
			start := i
			for i < len(input) && input[i] >= '0' && input[i] <= '9' {
				i++
			}
			tokens = append(tokens, token{tokenInt, input[start:i], start})
		case isNameStart(rune(ch)):
			start := i
			for i < len(input) && isNameRune(rune(input[i])) {
				i++
			}
			tokens = append(tokens, token{tokenName, input[start:i], start})
		default:
			return nil, errorAt(input, i, "unexpected character %q", string(ch))
		}
	}
	tokens = append(tokens, token{tokenEOF, "", len(input)})
	return tokens, nil
}

func lexString(input string, start int) (string, int, error) {
	quote := input[start]
	var b strings.Builder
	i := start + 1
	for i < len(input) {
		ch := input[i]
		switch ch {
		case quote:
			return b.String(), i + 1, nil
		case '\\':
			if i+1 >= len(input) {
				return "", 0, errorAt(input, i, "unterminated escape")
			}
			next := input[i+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '\'', '"':
				b.WriteByte(next)
			default:
				return "", 0, errorAt(input, i, "unknown escape \\%s", string(next))
			}
			i += 2
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return "", 0, errorAt(input, start, "unterminated string literal")
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameRune(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
