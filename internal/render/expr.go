package render

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type expr interface{ isExpr() }

type (
	literalExpr struct{ val any }
	pathExpr    struct{ parts []string }
	callExpr    struct {
		name string
		args []expr
	}
	orExpr  struct{ left, right expr }
	notExpr struct{ x expr }
)

func (literalExpr) isExpr() {}
func (pathExpr) isExpr()    {}
func (callExpr) isExpr()    {}
func (orExpr) isExpr()      {}
func (notExpr) isExpr()     {}

func (p pathExpr) String() string { return strings.Join(p.parts, ".") }

// exprParser is a small recursive-descent parser for tag expressions:
//
//	expr    = unary { "||" unary }
//	unary   = "!" unary | primary
//	primary = string | number | "true" | "false" | "null"
//	        | path [ "(" [ expr { "," expr } ] ")" ] | "(" expr ")"
type exprParser struct {
	src string
	pos int
}

func parseExpr(src string) (expr, error) {
	p := &exprParser{src: src}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("unexpected %q in expression %q", p.src[p.pos:], src)
	}
	return e, nil
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *exprParser) consume(s string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *exprParser) parseOr() (expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.consume("||") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = orExpr{left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) parseUnary() (expr, error) {
	if p.consume("!") {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notExpr{x: x}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (expr, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("unexpected end of expression %q", p.src)
	}
	c := p.src[p.pos]
	switch {
	case c == '(':
		p.pos++
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.consume(")") {
			return nil, fmt.Errorf("missing ) in expression %q", p.src)
		}
		return e, nil
	case c == '"' || c == '\'':
		return p.parseString(c)
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case isIdentStart(c):
		return p.parsePathOrCall()
	}
	return nil, fmt.Errorf("unexpected %q in expression %q", string(c), p.src)
}

func (p *exprParser) parseString(quote byte) (expr, error) {
	var b strings.Builder
	p.pos++
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			b.WriteByte(p.src[p.pos+1])
			p.pos += 2
		case c == quote:
			p.pos++
			return literalExpr{val: b.String()}, nil
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return nil, fmt.Errorf("unterminated string in expression %q", p.src)
}

func (p *exprParser) parseNumber() (expr, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && (p.src[p.pos] == '.' || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
		p.pos++
	}
	n, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", p.src[start:p.pos])
	}
	return literalExpr{val: n}, nil
}

func (p *exprParser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *exprParser) parsePathOrCall() (expr, error) {
	parts := []string{p.parseIdent()}
	for p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		if p.pos >= len(p.src) || !isIdentStart(p.src[p.pos]) {
			return nil, fmt.Errorf("expected name after . in expression %q", p.src)
		}
		parts = append(parts, p.parseIdent())
	}

	if len(parts) == 1 {
		switch parts[0] {
		case "true":
			return literalExpr{val: true}, nil
		case "false":
			return literalExpr{val: false}, nil
		case "null", "undefined":
			return literalExpr{val: nil}, nil
		}
	}

	if !p.consume("(") {
		return pathExpr{parts: parts}, nil
	}
	call := callExpr{name: strings.Join(parts, ".")}
	if p.consume(")") {
		return call, nil
	}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		call.args = append(call.args, arg)
		if p.consume(")") {
			return call, nil
		}
		if !p.consume(",") {
			return nil, fmt.Errorf("expected , or ) in call to %s", call.name)
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
