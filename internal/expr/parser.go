package expr

import (
	"fmt"
)

// maxDepth bounds recursion for deeply nested input.
const maxDepth = 200

type parser struct {
	toks  []token
	pos   int
	depth int
}

func parse(src string) (node, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if p.peek().kind == tokEOF {
		return nil, fmt.Errorf("empty expression")
	}
	n, err := p.exprList()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at position %d", t.text, t.pos)
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(text string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == text
}

func (p *parser) isKeyword(text string) bool {
	t := p.peek()
	return t.kind == tokKeyword && t.text == text
}

func (p *parser) expect(text string) error {
	if !p.isOp(text) {
		t := p.peek()
		if t.kind == tokEOF {
			return fmt.Errorf("expected %q but reached end of expression", text)
		}
		return fmt.Errorf("expected %q at position %d, got %q", text, t.pos, t.text)
	}
	p.advance()
	return nil
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return fmt.Errorf("expression nested too deeply")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// exprList parses "a" or "a, b, ..." (an unparenthesised tuple).
func (p *parser) exprList() (node, error) {
	first, err := p.expression()
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	elems := []node{first}
	for p.isOp(",") {
		p.advance()
		if p.endsSequence() {
			break
		}
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return &tupleNode{elems: elems}, nil
}

func (p *parser) endsSequence() bool {
	t := p.peek()
	return t.kind == tokEOF || (t.kind == tokOp && (t.text == ")" || t.text == "]" || t.text == "}"))
}

func (p *parser) expression() (node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.isKeyword("lambda") {
		return nil, fmt.Errorf("lambda expressions are not supported")
	}
	n, err := p.disjunction()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("if") {
		return n, nil
	}
	p.advance()
	cond, err := p.disjunction()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("else") {
		return nil, fmt.Errorf("expected 'else' in conditional expression")
	}
	p.advance()
	els, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &condNode{cond: cond, then: n, els: els}, nil
}

func (p *parser) disjunction() (node, error) {
	l, err := p.conjunction()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		p.advance()
		r, err := p.conjunction()
		if err != nil {
			return nil, err
		}
		l = &boolNode{op: "or", l: l, r: r}
	}
	return l, nil
}

func (p *parser) conjunction() (node, error) {
	l, err := p.inversion()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		p.advance()
		r, err := p.inversion()
		if err != nil {
			return nil, err
		}
		l = &boolNode{op: "and", l: l, r: r}
	}
	return l, nil
}

func (p *parser) inversion() (node, error) {
	if p.isKeyword("not") {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		p.advance()
		x, err := p.inversion()
		if err != nil {
			return nil, err
		}
		return &notNode{x: x}, nil
	}
	return p.comparison()
}

func (p *parser) comparison() (node, error) {
	first, err := p.binary(0)
	if err != nil {
		return nil, err
	}
	var ops []string
	var rest []node
	for {
		op, ok := p.compareOp()
		if !ok {
			break
		}
		r, err := p.binary(0)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		rest = append(rest, r)
	}
	if len(ops) == 0 {
		return first, nil
	}
	return &compareNode{first: first, ops: ops, rest: rest}, nil
}

func (p *parser) compareOp() (string, bool) {
	t := p.peek()
	switch {
	case t.kind == tokOp:
		switch t.text {
		case "==", "!=", "<", "<=", ">", ">=":
			p.advance()
			return t.text, true
		}
	case t.kind == tokKeyword && t.text == "in":
		p.advance()
		return "in", true
	case t.kind == tokKeyword && t.text == "is":
		p.advance()
		if p.isKeyword("not") {
			p.advance()
			return "is not", true
		}
		return "is", true
	case t.kind == tokKeyword && t.text == "not":
		next := p.toks[p.pos+1]
		if next.kind == tokKeyword && next.text == "in" {
			p.advance()
			p.advance()
			return "not in", true
		}
	}
	return "", false
}

// Binary operator levels from loosest to tightest.
var binaryLevels = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "//", "%"},
}

func (p *parser) binary(level int) (node, error) {
	if level == len(binaryLevels) {
		return p.factor()
	}
	l, err := p.binary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOp(binaryLevels[level])
		if !ok {
			return l, nil
		}
		r, err := p.binary(level + 1)
		if err != nil {
			return nil, err
		}
		l = &binaryNode{op: op, l: l, r: r}
	}
}

func (p *parser) matchOp(ops []string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			p.advance()
			return op, true
		}
	}
	return "", false
}

func (p *parser) factor() (node, error) {
	if op, ok := p.matchOp([]string{"-", "+", "~"}); ok {
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		x, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: op, x: x}, nil
	}
	return p.power()
}

// power binds tighter than unary minus on its left and looser on its right:
// -2 ** 2 == -4 and 2 ** -1 == 0.5.
func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if !p.isOp("**") {
		return base, nil
	}
	p.advance()
	exp, err := p.factor()
	if err != nil {
		return nil, err
	}
	return &binaryNode{op: "**", l: base, r: exp}, nil
}

func (p *parser) primary() (node, error) {
	n, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("("):
			p.advance()
			n, err = p.call(n)
		case p.isOp("["):
			p.advance()
			n, err = p.subscript(n)
		case p.isOp("."):
			return nil, fmt.Errorf("attribute access is not allowed")
		default:
			return n, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) call(fn node) (node, error) {
	c := &callNode{fn: fn}
	for !p.isOp(")") {
		if p.isOp("*") || p.isOp("**") {
			return nil, fmt.Errorf("argument unpacking is not supported")
		}
		t := p.peek()
		next := p.toks[min(p.pos+1, len(p.toks)-1)]
		if t.kind == tokName && next.kind == tokOp && next.text == "=" {
			p.advance()
			p.advance()
			v, err := p.expression()
			if err != nil {
				return nil, err
			}
			c.kwargs = append(c.kwargs, kwarg{name: t.text, val: v})
		} else {
			if len(c.kwargs) > 0 {
				return nil, fmt.Errorf("positional argument follows keyword argument")
			}
			v, err := p.expression()
			if err != nil {
				return nil, err
			}
			c.args = append(c.args, v)
		}
		if !p.isOp(",") {
			break
		}
		p.advance()
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *parser) subscript(x node) (node, error) {
	var parts [3]node
	idx := 0
	sliced := false
	for {
		if !p.isOp(":") && !p.isOp("]") {
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			parts[idx] = e
		}
		if !p.isOp(":") {
			break
		}
		p.advance()
		sliced = true
		idx++
		if idx > 2 {
			return nil, fmt.Errorf("invalid slice")
		}
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	if !sliced {
		if parts[0] == nil {
			return nil, fmt.Errorf("empty subscript")
		}
		return &indexNode{x: x, index: parts[0]}, nil
	}
	return &sliceNode{x: x, lo: parts[0], hi: parts[1], step: parts[2]}, nil
}

func (p *parser) atom() (node, error) {
	t := p.advance()
	switch t.kind {
	case tokInt:
		return &literalNode{val: t.ival}, nil
	case tokFloat:
		return &literalNode{val: t.fval}, nil
	case tokString:
		s := t.text
		// Adjacent string literals concatenate.
		for p.peek().kind == tokString {
			s += p.advance().text
		}
		return &literalNode{val: s}, nil
	case tokName:
		return &nameNode{id: t.text}, nil
	case tokKeyword:
		switch t.text {
		case "True":
			return &literalNode{val: true}, nil
		case "False":
			return &literalNode{val: false}, nil
		case "None":
			return &literalNode{val: nil}, nil
		}
		return nil, fmt.Errorf("unexpected keyword %q at position %d", t.text, t.pos)
	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	switch t.text {
	case "(":
		if p.isOp(")") {
			p.advance()
			return &tupleNode{}, nil
		}
		n, err := p.exprList()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return n, nil
	case "[":
		elems, err := p.sequence("]")
		if err != nil {
			return nil, err
		}
		return &listNode{elems: elems}, nil
	case "{":
		return p.dict()
	}
	return nil, fmt.Errorf("unexpected %q at position %d", t.text, t.pos)
}

func (p *parser) sequence(closer string) ([]node, error) {
	var elems []node
	for !p.isOp(closer) {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if !p.isOp(",") {
			break
		}
		p.advance()
	}
	if err := p.expect(closer); err != nil {
		return nil, err
	}
	return elems, nil
}

func (p *parser) dict() (node, error) {
	d := &dictNode{}
	for !p.isOp("}") {
		k, err := p.expression()
		if err != nil {
			return nil, err
		}
		if !p.isOp(":") {
			return nil, fmt.Errorf("set literals are not supported")
		}
		p.advance()
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		d.keys = append(d.keys, k)
		d.vals = append(d.vals, v)
		if !p.isOp(",") {
			break
		}
		p.advance()
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	return d, nil
}
