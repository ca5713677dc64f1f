package formula

import "strconv"

// parser is a recursive-descent parser over the lexed token stream with
// Python expression precedence: ternary < or < and < not < comparison <
// additive < multiplicative < unary < power < primary.
type parser struct {
	tokens []token
	pos    int
}

func parse(text string) (node, error) {
	tokens, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, errorf("invalid formula syntax: unexpected %q at position %d", p.peek().text, p.peek().pos)
	}
	return root, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(kind tokenKind) bool {
	if p.peek().kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(kind tokenKind, what string) error {
	if !p.accept(kind) {
		return errorf("invalid formula syntax: expected %s at position %d", what, p.peek().pos)
	}
	return nil
}

// parseTernary handles `a if cond else b`.
func (p *parser) parseTernary() (node, error) {
	then, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.accept(tokIf) {
		return then, nil
	}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokElse, "'else'"); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return ternaryNode{cond: cond, then: then, els: els}, nil
}

func (p *parser) parseOr() (node, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	terms := []node{first}
	for p.accept(tokOr) {
		term, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return boolNode{op: tokOr, terms: terms}, nil
}

func (p *parser) parseAnd() (node, error) {
	first, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	terms := []node{first}
	for p.accept(tokAnd) {
		term, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	if len(terms) == 1 {
		return first, nil
	}
	return boolNode{op: tokAnd, terms: terms}, nil
}

func (p *parser) parseNot() (node, error) {
	if p.accept(tokNot) {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notNode{operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	kind := p.peek().kind
	switch kind {
	case tokEq, tokNe, tokLt, tokLe, tokGt, tokGe, tokIn:
		p.next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return compareNode{op: kind, left: left, right: right}, nil
	case tokNot:
		// `not` after an operand can only be `not in`.
		p.next()
		if err := p.expect(tokIn, "'in' after 'not'"); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return compareNode{op: tokIn, negated: true, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		kind := p.peek().kind
		if kind != tokPlus && kind != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: kind, left: left, right: right}
	}
}

func (p *parser) parseMultiplicative() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		kind := p.peek().kind
		if kind != tokStar && kind != tokSlash && kind != tokFloorDiv && kind != tokPercent {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: kind, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	kind := p.peek().kind
	if kind == tokPlus || kind == tokMinus {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: kind, operand: operand}, nil
	}
	return p.parsePower()
}

// parsePower is right-associative: a ** b ** c == a ** (b ** c), and the
// exponent may carry a unary sign.
func (p *parser) parsePower() (node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if !p.accept(tokPower) {
		return base, nil
	}
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return binaryNode{op: tokPower, left: base, right: exp}, nil
}

func (p *parser) parsePrimary() (node, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.next()
		value, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, errorf("invalid formula syntax: bad number %q", t.text)
		}
		return numberNode{value: value}, nil

	case tokString:
		p.next()
		return stringNode{value: t.text}, nil

	case tokIdent:
		p.next()
		name := t.text
		if p.accept(tokDot) {
			field := p.peek()
			if field.kind != tokIdent {
				return nil, errorf("invalid formula syntax: expected attribute name at position %d", field.pos)
			}
			p.next()
			if name != "entity" {
				return nil, errorf("only entity.attribute access is allowed, got %s.%s", name, field.text)
			}
			return attrNode{name: field.text}, nil
		}
		if p.accept(tokLParen) {
			args, err := p.parseArgs(tokRParen)
			if err != nil {
				return nil, err
			}
			return callNode{fn: name, args: args}, nil
		}
		return identNode{name: name}, nil

	case tokLParen:
		p.next()
		first, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		// A comma inside parentheses makes a tuple literal.
		if p.peek().kind == tokComma {
			elems := []node{first}
			for p.accept(tokComma) {
				if p.peek().kind == tokRParen {
					break
				}
				elem, err := p.parseTernary()
				if err != nil {
					return nil, err
				}
				elems = append(elems, elem)
			}
			if err := p.expect(tokRParen, "')'"); err != nil {
				return nil, err
			}
			return listNode{elems: elems}, nil
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return first, nil

	case tokLBracket:
		p.next()
		elems, err := p.parseArgs(tokRBracket)
		if err != nil {
			return nil, err
		}
		return listNode{elems: elems}, nil
	}

	return nil, errorf("invalid formula syntax: unexpected %q at position %d", t.text, t.pos)
}

// parseArgs parses a comma-separated expression list up to the closing
// token, which it consumes.
func (p *parser) parseArgs(closing tokenKind) ([]node, error) {
	var args []node
	if p.accept(closing) {
		return args, nil
	}
	for {
		arg, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.accept(closing) {
			return args, nil
		}
		if err := p.expect(tokComma, "','"); err != nil {
			return nil, err
		}
	}
}
