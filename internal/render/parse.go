package render

import (
	"strings"
	"unicode"
)

type node interface{ isNode() }

type (
	textNode   struct{ text string }
	outputNode struct {
		x      expr
		escape bool
		line   int
	}
	ifNode struct {
		cond      expr
		then, els []node
		line      int
	}
	eachNode struct {
		list expr
		name string
		body []node
		line int
	}
)

func (textNode) isNode()   {}
func (outputNode) isNode() {}
func (ifNode) isNode()     {}
func (eachNode) isNode()   {}

// Statement keywords accepted in "<% %>" tags.
const (
	stmtIf   = "if"
	stmtElse = "else"
	stmtEnd  = "end"
	stmtEach = "each"
)

type parser struct {
	toks []token
	pos  int
}

func parse(toks []token) ([]node, error) {
	p := &parser{toks: toks}
	nodes, stop, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if stop != nil {
		return nil, errorf(stop.line, "unexpected %q without matching if/each", stop.val)
	}
	return nodes, nil
}

// parseList reads nodes until an "else" or "end" statement, which is
// returned as stop (nil at end of input).
func (p *parser) parseList() ([]node, *token, error) {
	var nodes []node
	for p.pos < len(p.toks) {
		tok := p.toks[p.pos]
		p.pos++
		switch tok.kind {
		case tokText:
			nodes = append(nodes, textNode{text: tok.val})
		case tokEscaped, tokRaw:
			x, err := parseExpr(tok.val)
			if err != nil {
				return nil, nil, errorf(tok.line, "%v", err)
			}
			nodes = append(nodes, outputNode{x: x, escape: tok.kind == tokEscaped, line: tok.line})
		case tokCode:
			n, stop, err := p.parseStatement(tok)
			if err != nil {
				return nil, nil, err
			}
			if stop {
				return nodes, &tok, nil
			}
			if n != nil {
				nodes = append(nodes, n)
			}
		}
	}
	return nodes, nil, nil
}

func (p *parser) parseStatement(tok token) (node, bool, error) {
	keyword, rest := splitKeyword(tok.val)
	switch keyword {
	case "":
		return nil, false, nil
	case stmtElse, stmtEnd:
		if rest != "" {
			return nil, false, errorf(tok.line, "unexpected %q after %s", rest, keyword)
		}
		return nil, true, nil
	case stmtIf:
		return p.parseIf(tok, rest)
	case stmtEach:
		return p.parseEach(tok, rest)
	}
	return nil, false, errorf(tok.line, "unknown statement %q", tok.val)
}

// splitKeyword splits a statement into its leading word and the trimmed
// remainder, so "if x", "if\tx" and "if(x)" all yield "if".
func splitKeyword(stmt string) (string, string) {
	end := strings.IndexFunc(stmt, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	if end < 0 {
		return stmt, ""
	}
	return stmt[:end], strings.TrimSpace(stmt[end:])
}

func (p *parser) parseIf(tok token, cond string) (node, bool, error) {
	if cond == "" {
		return nil, false, errorf(tok.line, "if requires a condition")
	}
	x, err := parseExpr(cond)
	if err != nil {
		return nil, false, errorf(tok.line, "%v", err)
	}
	n := ifNode{cond: x, line: tok.line}
	then, stop, err := p.parseList()
	if err != nil {
		return nil, false, err
	}
	n.then = then
	if stop == nil {
		return nil, false, errorf(tok.line, "missing end for if")
	}
	if stop.val == stmtElse {
		els, stop2, err := p.parseList()
		if err != nil {
			return nil, false, err
		}
		if stop2 == nil {
			return nil, false, errorf(tok.line, "missing end for if")
		}
		if stop2.val != stmtEnd {
			return nil, false, errorf(stop2.line, "unexpected %q after else", stop2.val)
		}
		n.els = els
	}
	return n, false, nil
}

func (p *parser) parseEach(tok token, rest string) (node, bool, error) {
	list, name, ok := strings.Cut(rest, " as ")
	name = strings.TrimSpace(name)
	if !ok || name == "" || !isIdentStart(name[0]) {
		return nil, false, errorf(tok.line, "each expects \"each LIST as NAME\"")
	}
	x, err := parseExpr(list)
	if err != nil {
		return nil, false, errorf(tok.line, "%v", err)
	}
	body, stop, err := p.parseList()
	if err != nil {
		return nil, false, err
	}
	if stop == nil || stop.val != stmtEnd {
		return nil, false, errorf(tok.line, "missing end for each")
	}
	return eachNode{list: x, name: name, body: body, line: tok.line}, false, nil
}
