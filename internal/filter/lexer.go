// Package filter implements the SQL-like SELECT/FROM/WHERE filter
// language from spec.md §4.6: a lexer, a recursive-descent parser
// producing a FilterExpression, and a recursive FilterCondition tree
// (Comparison/Pattern/Logical) that evaluates against a message context.
package filter

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokKeyword
	tokString
	tokNumber
	tokStar
	tokComma
	tokLParen
	tokRParen
	tokEq
	tokNe
	tokLt
	tokLte
	tokGt
	tokGte
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

var keywords = map[string]bool{
	"select": true, "from": true, "where": true,
	"and": true, "or": true, "not": true,
	"like": true, "regex": true,
	"true": true, "false": true, "null": true,
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	n := len(input)

	for i < n {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '*':
			toks = append(toks, token{kind: tokStar, val: "*", pos: i})
			i++
		case ch == ',':
			toks = append(toks, token{kind: tokComma, val: ",", pos: i})
			i++
		case ch == '(':
			toks = append(toks, token{kind: tokLParen, pos: i})
			i++
		case ch == ')':
			toks = append(toks, token{kind: tokRParen, pos: i})
			i++
		case ch == '=':
			toks = append(toks, token{kind: tokEq, val: "=", pos: i})
			i++
		case ch == '!':
			if i+1 < n && input[i+1] == '=' {
				toks = append(toks, token{kind: tokNe, val: "!=", pos: i})
				i += 2
				continue
			}
			return nil, fmt.Errorf("invalid argument: unexpected '!' at %d", i)
		case ch == '<':
			if i+1 < n && input[i+1] == '=' {
				toks = append(toks, token{kind: tokLte, val: "<=", pos: i})
				i += 2
				continue
			}
			toks = append(toks, token{kind: tokLt, val: "<", pos: i})
			i++
		case ch == '>':
			if i+1 < n && input[i+1] == '=' {
				toks = append(toks, token{kind: tokGte, val: ">=", pos: i})
				i += 2
				continue
			}
			toks = append(toks, token{kind: tokGt, val: ">", pos: i})
			i++
		case ch == '\'':
			s, next, err := lexSingleQuoted(input, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, val: s, pos: i})
			i = next
		case isDigit(ch) || (ch == '-' && i+1 < n && isDigit(input[i+1])):
			s, next := lexNumber(input, i)
			toks = append(toks, token{kind: tokNumber, val: s, pos: i})
			i = next
		case isIdentStart(ch):
			s, next := lexIdent(input, i)
			kind := tokIdent
			if keywords[strings.ToLower(s)] {
				kind = tokKeyword
			}
			toks = append(toks, token{kind: kind, val: s, pos: i})
			i = next
		default:
			return nil, fmt.Errorf("invalid argument: unexpected character %q at %d", ch, i)
		}
	}

	toks = append(toks, token{kind: tokEOF, pos: n})
	return toks, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(b byte) bool {
	return b == '_' || b == '.' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func lexIdent(input string, start int) (string, int) {
	i := start
	for i < len(input) && isIdentPart(input[i]) {
		i++
	}
	return input[start:i], i
}

func lexNumber(input string, start int) (string, int) {
	i := start
	if input[i] == '-' {
		i++
	}
	for i < len(input) && isDigit(input[i]) {
		i++
	}
	if i < len(input) && input[i] == '.' {
		i++
		for i < len(input) && isDigit(input[i]) {
			i++
		}
	}
	return input[start:i], i
}

func lexSingleQuoted(input string, start int) (string, int, error) {
	i := start + 1
	var b strings.Builder
	for i < len(input) {
		// Only an escaped quote is unescaped; any other backslash is kept
		// verbatim so REGEX patterns such as '/\d+/' survive lexing.
		if input[i] == '\\' && i+1 < len(input) && input[i+1] == '\'' {
			b.WriteByte('\'')
			i += 2
			continue
		}
		if input[i] == '\'' {
			return b.String(), i + 1, nil
		}
		b.WriteByte(input[i])
		i++
	}
	return "", 0, fmt.Errorf("invalid argument: unterminated string starting at %d", start)
}
