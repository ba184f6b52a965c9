package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// RuleParser scans the full "SELECT ... FROM '...' [WHERE ...]" grammar
// with manual lookahead, per spec.md §4.6.
type RuleParser struct {
	input string
	toks  []token
	pos   int
}

// ParseRule parses a complete filter statement into an Expression. An
// unquoted FROM clause, a malformed condition, or an empty expression
// fail with an "invalid argument" error.
func ParseRule(input string) (Expression, error) {
	toks, err := lex(input)
	if err != nil {
		return Expression{}, err
	}
	if len(toks) <= 1 {
		return Expression{}, fmt.Errorf("invalid argument: empty filter expression")
	}
	p := &RuleParser{input: input, toks: toks}
	return p.parseStatement()
}

func (p *RuleParser) parseStatement() (Expression, error) {
	if !p.matchKeyword("select") {
		return Expression{}, fmt.Errorf("invalid argument: expected SELECT at %d", p.peek().pos)
	}

	fields, err := p.parseFields()
	if err != nil {
		return Expression{}, err
	}

	if !p.matchKeyword("from") {
		return Expression{}, fmt.Errorf("invalid argument: expected FROM at %d", p.peek().pos)
	}

	topicTok := p.peek()
	if topicTok.kind != tokString {
		return Expression{}, fmt.Errorf("invalid argument: FROM clause must be a quoted string at %d", topicTok.pos)
	}
	p.next()

	// The FROM clause's topic literal is matched MQTT-style by default
	// ('+' single-level, '#' multi-level trailing) so a rule like
	// "FROM 'sensors/#'" addresses every sensor topic rather than the
	// single literal string "sensors/#" (see spec.md §8 scenario 3).
	expr := Expression{Fields: fields, Topic: TopicSelector{Pattern: topicTok.val, Matcher: MQTTWildcardTopicMatcher{}}}

	if p.matchKeyword("where") {
		cond, err := p.parseOr()
		if err != nil {
			return Expression{}, err
		}
		expr.Condition = cond
	}

	if p.peek().kind != tokEOF {
		return Expression{}, fmt.Errorf("invalid argument: unexpected token %q at %d", p.peek().val, p.peek().pos)
	}

	return expr, nil
}

func (p *RuleParser) parseFields() ([]string, error) {
	if p.peek().kind == tokStar {
		p.next()
		return nil, nil
	}
	var fields []string
	for {
		t := p.next()
		if t.kind != tokIdent {
			return nil, fmt.Errorf("invalid argument: expected field name at %d", t.pos)
		}
		fields = append(fields, t.val)
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	return fields, nil
}

func (p *RuleParser) peek() token {
	if p.pos >= len(p.toks) {
		return token{kind: tokEOF, pos: len(p.input)}
	}
	return p.toks[p.pos]
}

func (p *RuleParser) next() token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *RuleParser) matchKeyword(kw string) bool {
	t := p.peek()
	if t.kind != tokKeyword || !strings.EqualFold(t.val, kw) {
		return false
	}
	p.next()
	return true
}

func (p *RuleParser) checkKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokKeyword && strings.EqualFold(t.val, kw)
}

// parseOr / parseAnd / parseUnary implement precedence NOT > AND > OR.
func (p *RuleParser) parseOr() (Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []Condition{left}
	for p.matchKeyword("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return Logical{Op: OpOr, Children: children}, nil
}

func (p *RuleParser) parseAnd() (Condition, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	children := []Condition{left}
	for p.matchKeyword("and") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return Logical{Op: OpAnd, Children: children}, nil
}

func (p *RuleParser) parseUnary() (Condition, error) {
	if p.matchKeyword("not") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Logical{Op: OpNot, Children: []Condition{inner}}, nil
	}
	return p.parsePrimary()
}

func (p *RuleParser) parsePrimary() (Condition, error) {
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("invalid argument: expected ')' at %d", p.peek().pos)
		}
		p.next()
		return inner, nil
	}
	return p.parseAtom()
}

// parseAtom parses "field <op> literal", "field LIKE|NOT LIKE 'pattern'",
// or "field REGEX '/pat/'".
func (p *RuleParser) parseAtom() (Condition, error) {
	fieldTok := p.next()
	if fieldTok.kind != tokIdent {
		return nil, fmt.Errorf("invalid argument: expected field name at %d", fieldTok.pos)
	}

	if p.checkKeyword("like") {
		p.next()
		val, err := p.expectString()
		if err != nil {
			return nil, err
		}
		return NewPattern(fieldTok.val, OpLike, val)
	}
	if p.checkKeyword("not") {
		p.next()
		if !p.matchKeyword("like") {
			return nil, fmt.Errorf("invalid argument: expected LIKE after NOT at %d", p.peek().pos)
		}
		val, err := p.expectString()
		if err != nil {
			return nil, err
		}
		return NewPattern(fieldTok.val, OpNotLike, val)
	}
	if p.checkKeyword("regex") {
		p.next()
		val, err := p.expectString()
		if err != nil {
			return nil, err
		}
		return NewPattern(fieldTok.val, OpRegex, val)
	}

	opTok := p.next()
	op, ok := compareOpFor(opTok.kind)
	if !ok {
		return nil, fmt.Errorf("invalid argument: expected operator after field %q at %d", fieldTok.val, opTok.pos)
	}

	value, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return Comparison{Field: fieldTok.val, Op: op, Value: value}, nil
}

func (p *RuleParser) expectString() (string, error) {
	t := p.next()
	if t.kind != tokString {
		return "", fmt.Errorf("invalid argument: expected quoted string at %d", t.pos)
	}
	return t.val, nil
}

func (p *RuleParser) parseLiteral() (any, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return t.val, nil
	case tokNumber:
		if strings.Contains(t.val, ".") {
			f, err := strconv.ParseFloat(t.val, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid argument: invalid number %q at %d", t.val, t.pos)
			}
			return f, nil
		}
		n, err := strconv.ParseInt(t.val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid argument: invalid number %q at %d", t.val, t.pos)
		}
		return float64(n), nil
	case tokKeyword:
		switch strings.ToLower(t.val) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
	case tokIdent:
		return t.val, nil
	}
	return nil, fmt.Errorf("invalid argument: expected value at %d", t.pos)
}

func compareOpFor(k tokenKind) (CompareOp, bool) {
	switch k {
	case tokEq:
		return OpEq, true
	case tokNe:
		return OpNe, true
	case tokLt:
		return OpLt, true
	case tokLte:
		return OpLte, true
	case tokGt:
		return OpGt, true
	case tokGte:
		return OpGte, true
	default:
		return "", false
	}
}

// FilterParser is the client-side convenience wrapper mentioned in
// spec.md §4.6: it parses a single bare condition (no SELECT/FROM) for
// contexts like the streaming engine's `filter <expr>` command.
type FilterParser struct{}

// Parse parses a bare WHERE-style condition, e.g. `temperature > 30 AND
// status = 'ok'`.
func (FilterParser) Parse(input string) (Condition, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	if len(toks) <= 1 {
		return nil, fmt.Errorf("invalid argument: empty filter expression")
	}
	p := &RuleParser{input: input, toks: toks}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("invalid argument: unexpected token %q at %d", p.peek().val, p.peek().pos)
	}
	return cond, nil
}

// ValidationResult is FilterParser.Validate's non-throwing report.
type ValidationResult struct {
	Valid bool
	Error string
}

// Validate parses input and reports success/failure without returning a
// Go error, for client code (e.g. the `filter` built-in) that wants to
// display a message rather than propagate an error value.
func (f FilterParser) Validate(input string) ValidationResult {
	if _, err := f.Parse(input); err != nil {
		return ValidationResult{Valid: false, Error: err.Error()}
	}
	return ValidationResult{Valid: true}
}
