package parser

import (
	"strconv"
	"strings"

	"github.com/scaffold-io/scaffold/ast"
	"github.com/scaffold-io/scaffold/internal/token"
)

// Precedence levels, lowest first:
//
//	conditional  ?:
//	xor
//	or
//	and
//	not          prefix
//	inclusion    in, not in
//	compare      == != === !== <> < > <= >=  (chained)
//	concat       ~
//	join         ..
//	additive     + -
//	multiplicative * / %
//	unary        - +
//	primary      literals, names, arrays, ( ), then postfix . [ ] ( ) |

var compareOperators = []string{"==", "!=", "===", "!==", "<>", "<", ">", "<=", ">="}

func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseConditional()
}

func (p *Parser) parseConditional() (ast.Expr, error) {
	cond, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	if !p.stream.Consume(token.OPERATOR, "?") {
		return cond, nil
	}
	then, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	if _, err := p.stream.Expect(token.OPERATOR, ":"); err != nil {
		return nil, err
	}
	els, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	return &ast.Conditional{Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseXor() (ast.Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	for p.stream.Test(token.OPERATOR, "xor") {
		tok := p.stream.Next()
		right, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{OpPos: tok.Position, Op: ast.Xor, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.stream.Test(token.OPERATOR, "or") {
		tok := p.stream.Next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.Logical{OpPos: tok.Position, Op: ast.Or, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.stream.Test(token.OPERATOR, "and") {
		tok := p.stream.Next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.Logical{OpPos: tok.Position, Op: ast.And, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if !p.stream.Test(token.OPERATOR, "not") {
		return p.parseInclusion()
	}
	tok := p.stream.Next()
	operand, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &ast.Unary{OpPos: tok.Position, Op: ast.Not, Operand: operand}, nil
}

func (p *Parser) parseInclusion() (ast.Expr, error) {
	left, err := p.parseCompare()
	if err != nil {
		return nil, err
	}
	for {
		negated := p.stream.Test(token.OPERATOR, "not") && p.stream.Look(1).Test(token.OPERATOR, "in")
		if !negated && !p.stream.Test(token.OPERATOR, "in") {
			return left, nil
		}
		tok := p.stream.Next()
		if negated {
			p.stream.Next()
		}
		right, err := p.parseCompare()
		if err != nil {
			return nil, err
		}
		left = &ast.Inclusion{OpPos: tok.Position, Left: left, Right: right, Negated: negated}
	}
}

func (p *Parser) parseCompare() (ast.Expr, error) {
	first, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	var ops []ast.CompareOperand
	for p.stream.Test(token.OPERATOR, compareOperators...) {
		tok := p.stream.Next()
		operand, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		ops = append(ops, ast.CompareOperand{OpPos: tok.Position, Operator: tok.Value, Expr: operand})
	}
	if len(ops) == 0 {
		return first, nil
	}
	return &ast.Compare{First: first, Ops: ops}, nil
}

// parseBinaryLevel parses a left-associative level whose operators map to
// binary ops, with next parsing the operands.
func (p *Parser) parseBinaryLevel(ops map[string]ast.BinaryOp, next func() (ast.Expr, error)) (ast.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.stream.Current()
		op, ok := ops[tok.Value]
		if tok.Type != token.OPERATOR || !ok {
			return left, nil
		}
		p.stream.Next()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{OpPos: tok.Position, Op: op, Left: left, Right: right}
	}
}

var (
	concatOps         = map[string]ast.BinaryOp{"~": ast.Concat}
	joinOps           = map[string]ast.BinaryOp{"..": ast.Join}
	additiveOps       = map[string]ast.BinaryOp{"+": ast.Add, "-": ast.Sub}
	multiplicativeOps = map[string]ast.BinaryOp{"*": ast.Mul, "/": ast.Div, "%": ast.Mod}
)

func (p *Parser) parseConcat() (ast.Expr, error) {
	return p.parseBinaryLevel(concatOps, p.parseJoin)
}

func (p *Parser) parseJoin() (ast.Expr, error) {
	return p.parseBinaryLevel(joinOps, p.parseAdditive)
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	return p.parseBinaryLevel(additiveOps, p.parseMultiplicative)
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	return p.parseBinaryLevel(multiplicativeOps, p.parseUnary)
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	var op ast.UnaryOp
	switch {
	case p.stream.Test(token.OPERATOR, "-"):
		op = ast.Neg
	case p.stream.Test(token.OPERATOR, "+"):
		op = ast.Pos
	default:
		return p.parsePrimary()
	}
	tok := p.stream.Next()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.Unary{OpPos: tok.Position, Op: op, Operand: operand}, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.stream.Current()
	var expr ast.Expr
	var err error
	switch tok.Type {
	case token.CONSTANT, token.NUMBER, token.STRING:
		return p.parseLiteralExpression()
	case token.NAME:
		p.stream.Next()
		if p.stream.Test(token.OPERATOR, "(") {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			expr = &ast.FunctionCall{NamePos: tok.Position, Name: tok.Value, Args: args}
		} else {
			expr = &ast.Name{NamePos: tok.Position, Name: tok.Value}
		}
	case token.OPERATOR:
		switch tok.Value {
		case "[":
			if expr, err = p.parseArrayExpression(); err != nil {
				return nil, err
			}
		case "(":
			p.stream.Next()
			if expr, err = p.parseExpression(); err != nil {
				return nil, err
			}
			if _, err := p.stream.Expect(token.OPERATOR, ")"); err != nil {
				return nil, err
			}
		default:
			return nil, token.Unexpected(tok, "an expression")
		}
	default:
		return nil, token.Unexpected(tok, "an expression")
	}
	return p.parsePostfix(expr)
}

// parseLiteralExpression parses a constant, number or string followed by
// any postfix operators. Macro parameter defaults are limited to these.
func (p *Parser) parseLiteralExpression() (ast.Expr, error) {
	tok := p.stream.Current()
	var expr ast.Expr
	switch tok.Type {
	case token.CONSTANT:
		var value any
		switch tok.Value {
		case "true":
			value = true
		case "false":
			value = false
		}
		expr = &ast.Constant{ValuePos: tok.Position, Value: value}
	case token.NUMBER:
		expr = &ast.Constant{ValuePos: tok.Position, Value: parseNumber(tok.Value)}
	case token.STRING:
		expr = &ast.String{ValuePos: tok.Position, Value: tok.Value}
	default:
		return nil, token.Unexpected(tok, "a literal")
	}
	p.stream.Next()
	return p.parsePostfix(expr)
}

// parseNumber returns an int64 for integral literals and a float64
// otherwise, falling back to float64 on integer overflow.
func parseNumber(s string) any {
	if !strings.Contains(s, ".") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func (p *Parser) parsePostfix(expr ast.Expr) (ast.Expr, error) {
	for {
		tok := p.stream.Current()
		if tok.Type != token.OPERATOR {
			return expr, nil
		}
		switch tok.Value {
		case ".":
			p.stream.Next()
			name := p.stream.Current()
			if name.Type != token.NAME && name.Type != token.NUMBER {
				return nil, token.Unexpected(name, token.NAME.Description())
			}
			p.stream.Next()
			attr := &ast.String{ValuePos: name.Position, Value: name.Value}
			node, err := p.parseAttributeCall(expr, attr)
			if err != nil {
				return nil, err
			}
			expr = node
		case "[":
			p.stream.Next()
			attr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.stream.Expect(token.OPERATOR, "]"); err != nil {
				return nil, err
			}
			node, err := p.parseAttributeCall(expr, attr)
			if err != nil {
				return nil, err
			}
			expr = node
		case "|":
			node, err := p.parseFilterExpression(expr)
			if err != nil {
				return nil, err
			}
			expr = node
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseAttributeCall(object, attr ast.Expr) (ast.Expr, error) {
	node := &ast.Attribute{Object: object, Attr: attr}
	if p.stream.Test(token.OPERATOR, "(") {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		node.Args, node.Call = args, true
	}
	return node, nil
}

func (p *Parser) parseFilterExpression(expr ast.Expr) (ast.Expr, error) {
	node := &ast.Filter{Node: expr}
	for p.stream.Consume(token.OPERATOR, "|") {
		name, err := p.stream.Expect(token.NAME)
		if err != nil {
			return nil, err
		}
		call := ast.FilterCall{NamePos: name.Position, Name: name.Value}
		if p.stream.Test(token.OPERATOR, "(") {
			if call.Args, err = p.parseArgs(); err != nil {
				return nil, err
			}
		}
		node.Filters = append(node.Filters, call)
	}
	return node, nil
}

func (p *Parser) parseArgs() ([]ast.Expr, error) {
	if _, err := p.stream.Expect(token.OPERATOR, "("); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for !p.stream.Test(token.OPERATOR, ")") {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.stream.Test(token.OPERATOR, ")") {
			if _, err := p.stream.Expect(token.OPERATOR, ","); err != nil {
				return nil, err
			}
		}
	}
	p.stream.Next()
	return args, nil
}

// parseArrayExpression parses "[a, b]", "[k => v, ...]" or a mix. A bare
// name before "=>" is a string key. A trailing comma is allowed.
func (p *Parser) parseArrayExpression() (ast.Expr, error) {
	open, err := p.stream.Expect(token.OPERATOR, "[")
	if err != nil {
		return nil, err
	}
	node := &ast.Array{Lbrack: open.Position}
	for !p.stream.Test(token.OPERATOR, "]") {
		var elem ast.ArrayElement
		if p.stream.Test(token.NAME) && p.stream.Look(1).Test(token.OPERATOR, "=>") {
			key := p.stream.Next()
			p.stream.Next()
			elem.Key = &ast.String{ValuePos: key.Position, Value: key.Value}
		} else {
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			elem.Value = value
			if p.stream.Consume(token.OPERATOR, "=>") {
				elem.Key = value
				elem.Value = nil
			}
		}
		if elem.Value == nil {
			if elem.Value, err = p.parseExpression(); err != nil {
				return nil, err
			}
		}
		node.Elements = append(node.Elements, elem)
		if !p.stream.Consume(token.OPERATOR, ",") {
			break
		}
	}
	if _, err := p.stream.Expect(token.OPERATOR, "]"); err != nil {
		return nil, err
	}
	return node, nil
}
