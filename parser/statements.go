package parser

import (
	"sort"

	"github.com/scaffold-io/scaffold/ast"
	"github.com/scaffold-io/scaffold/errors"
	"github.com/scaffold-io/scaffold/internal/token"
)

// tag enumerates the block tags that begin a statement.
type tag int

const (
	tagIf tag = iota
	tagFor
	tagBreak
	tagContinue
	tagExtends
	tagAssign
	tagBlock
	tagParent
	tagMacro
	tagCall
	tagYield
	tagImport
	tagInclude
)

var tags = map[string]tag{
	"if":       tagIf,
	"for":      tagFor,
	"break":    tagBreak,
	"continue": tagContinue,
	"extends":  tagExtends,
	"assign":   tagAssign,
	"block":    tagBlock,
	"parent":   tagParent,
	"macro":    tagMacro,
	"call":     tagCall,
	"yield":    tagYield,
	"import":   tagImport,
	"include":  tagInclude,
}

// TagNames returns the names of all statement tags, sorted.
func TagNames() []string {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Parser) parseTag(stops []string) (ast.Stmt, error) {
	tok := p.stream.Current()
	kind, ok := tags[tok.Value]
	if tok.Type != token.NAME || !ok {
		expecting := "a valid tag"
		if len(stops) > 0 {
			expecting = token.Expecting(token.NAME, stops...)
		}
		err := token.Unexpected(tok, expecting)
		if tok.Type == token.NAME {
			err.WithHint(errors.Hint(tok.Value, append(TagNames(), stops...)))
		}
		return nil, err
	}
	p.stream.Next()
	switch kind {
	case tagIf:
		return p.parseIf(tok)
	case tagFor:
		return p.parseFor(tok)
	case tagBreak:
		return p.parseBreak(tok)
	case tagContinue:
		return p.parseContinue(tok)
	case tagExtends:
		return nil, p.parseExtends(tok)
	case tagAssign:
		return p.parseAssign(tok)
	case tagBlock:
		return p.parseBlock(tok)
	case tagParent:
		return p.parseParent(tok)
	case tagMacro:
		return nil, p.parseMacro(tok)
	case tagCall:
		return p.parseCall(tok)
	case tagYield:
		return p.parseYield(tok)
	case tagImport:
		return nil, p.parseImport(tok)
	case tagInclude:
		return p.parseInclude(tok)
	}
	return nil, token.Errorf(tok, "parser ended up in unsupported state")
}

func (p *Parser) parseIf(tok token.Token) (ast.Stmt, error) {
	node := &ast.If{IfPos: tok.Position}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	for {
		if err := p.expectBlockEnd(); err != nil {
			return nil, err
		}
		body, err := p.subparse("elseif", "else", "endif")
		if err != nil {
			return nil, err
		}
		node.Branches = append(node.Branches, ast.IfBranch{Cond: cond, Body: body})
		next := p.stream.Next()
		switch next.Value {
		case "elseif":
			if cond, err = p.parseExpression(); err != nil {
				return nil, err
			}
			continue
		case "else":
			if err := p.expectBlockEnd(); err != nil {
				return nil, err
			}
			if node.Else, err = p.subparse("endif"); err != nil {
				return nil, err
			}
			if err := p.expectEndTag("endif", "malformed if statement", ""); err != nil {
				return nil, err
			}
		case "endif":
			if err := p.expectBlockEnd(); err != nil {
				return nil, err
			}
		default:
			return nil, token.Errorf(next, "malformed if statement")
		}
		return node, nil
	}
}

func (p *Parser) parseFor(tok token.Token) (ast.Stmt, error) {
	node := &ast.For{ForPos: tok.Position}
	first, err := p.stream.Expect(token.NAME)
	if err != nil {
		return nil, err
	}
	node.Value = first.Value
	if p.stream.Consume(token.OPERATOR, ",") {
		second, err := p.stream.Expect(token.NAME)
		if err != nil {
			return nil, err
		}
		node.Key, node.Value = first.Value, second.Value
	}
	if _, err := p.stream.Expect(token.OPERATOR, "in"); err != nil {
		return nil, err
	}
	if node.Seq, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if err := p.expectBlockEnd(); err != nil {
		return nil, err
	}
	p.inFor++
	node.Body, err = p.subparse("else", "endfor")
	p.inFor--
	if err != nil {
		return nil, err
	}
	if p.stream.Test(token.NAME, "else") {
		p.stream.Next()
		if err := p.expectBlockEnd(); err != nil {
			return nil, err
		}
		if node.Else, err = p.subparse("endfor"); err != nil {
			return nil, err
		}
	}
	if err := p.expectEndTag("endfor", "malformed for statement", ""); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseBreak(tok token.Token) (ast.Stmt, error) {
	if p.inFor == 0 {
		return nil, token.Errorf(tok, "unexpected break, not in for loop")
	}
	node, err := p.parseIfModifier(tok, &ast.Break{BreakPos: tok.Position})
	if err != nil {
		return nil, err
	}
	return node, p.expectBlockEnd()
}

func (p *Parser) parseContinue(tok token.Token) (ast.Stmt, error) {
	if p.inFor == 0 {
		return nil, token.Errorf(tok, "unexpected continue, not in for loop")
	}
	node, err := p.parseIfModifier(tok, &ast.Continue{ContinuePos: tok.Position})
	if err != nil {
		return nil, err
	}
	return node, p.expectBlockEnd()
}

func (p *Parser) parseExtends(tok token.Token) error {
	switch {
	case p.extends != nil:
		return token.Errorf(tok, "multiple extends tags")
	case len(p.blockStack) > 0:
		return token.Errorf(tok, "cannot declare extends inside blocks")
	case p.inMacro:
		return token.Errorf(tok, "cannot declare extends inside macros")
	}
	node := &ast.Extends{ExtendsPos: tok.Position}
	var err error
	if node.Parent, err = p.parseExpression(); err != nil {
		return err
	}
	if p.stream.Consume(token.NAME, "with") {
		if node.Params, err = p.parseArrayExpression(); err != nil {
			return err
		}
	}
	if node.Cond, err = p.parseModifierCond(); err != nil {
		return err
	}
	if err := p.expectBlockEnd(); err != nil {
		return err
	}
	p.extends = node
	return nil
}

func (p *Parser) parseAssign(tok token.Token) (ast.Stmt, error) {
	name, err := p.stream.Expect(token.NAME)
	if err != nil {
		return nil, err
	}
	node := &ast.Assign{AssignPos: tok.Position, Name: name.Value}
	for !p.stream.Test(token.OPERATOR, "=") && !p.stream.Test(token.BLOCK_END) {
		switch {
		case p.stream.Consume(token.OPERATOR, "."):
			attr, err := p.stream.Expect(token.NAME)
			if err != nil {
				return nil, err
			}
			node.Path = append(node.Path, &ast.String{ValuePos: attr.Position, Value: attr.Value})
		case p.stream.Consume(token.OPERATOR, "["):
			attr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.stream.Expect(token.OPERATOR, "]"); err != nil {
				return nil, err
			}
			node.Path = append(node.Path, attr)
		default:
			return nil, token.Errorf(p.stream.Current(), "malformed assign statement")
		}
	}
	if p.stream.Consume(token.OPERATOR, "=") {
		if node.Value, err = p.parseExpression(); err != nil {
			return nil, err
		}
		stmt, err := p.parseIfModifier(tok, node)
		if err != nil {
			return nil, err
		}
		return stmt, p.expectBlockEnd()
	}
	if err := p.expectBlockEnd(); err != nil {
		return nil, err
	}
	if node.Body, err = p.subparse("endassign"); err != nil {
		return nil, err
	}
	if err := p.expectEndTag("endassign", "malformed assign statement", ""); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseBlock(tok token.Token) (ast.Stmt, error) {
	name, err := p.stream.Expect(token.NAME)
	if err != nil {
		return nil, err
	}
	if p.inMacro {
		return nil, token.Errorf(tok, "cannot declare blocks inside macros")
	}
	defined := append([]string{}, p.blockStack...)
	for _, b := range p.blocks {
		defined = append(defined, b.Name)
	}
	for _, n := range defined {
		if n == name.Value {
			return nil, token.Errorf(name, "block %q already defined", name.Value)
		}
	}
	p.blockStack = append(p.blockStack, name.Value)
	defer func() { p.blockStack = p.blockStack[:len(p.blockStack)-1] }()

	block := &ast.Block{BlockPos: tok.Position, Name: name.Value}
	if p.stream.Test(token.BLOCK_END) {
		p.stream.Next()
		if block.Body, err = p.subparse("endblock"); err != nil {
			return nil, err
		}
		if err := p.expectEndTag("endblock", "malformed block statement", name.Value); err != nil {
			return nil, err
		}
	} else {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		block.Body = &ast.NodeList{
			ListPos: expr.Pos(),
			Nodes:   []ast.Stmt{&ast.Output{OutputPos: expr.Pos(), Expr: expr}},
		}
		if err := p.expectBlockEnd(); err != nil {
			return nil, err
		}
	}
	p.blocks = append(p.blocks, block)
	return &ast.BlockDisplay{BlockPos: tok.Position, Name: block.Name}, nil
}

func (p *Parser) parseParent(tok token.Token) (ast.Stmt, error) {
	if p.inMacro {
		return nil, token.Errorf(tok, "cannot call parent block inside macros")
	}
	if len(p.blockStack) == 0 {
		return nil, token.Errorf(tok, "parent must be inside a block")
	}
	node, err := p.parseIfModifier(tok, &ast.Parent{
		ParentPos: tok.Position,
		Name:      p.blockStack[len(p.blockStack)-1],
	})
	if err != nil {
		return nil, err
	}
	return node, p.expectBlockEnd()
}

func (p *Parser) parseMacro(tok token.Token) error {
	name, err := p.stream.Expect(token.NAME)
	if err != nil {
		return err
	}
	switch {
	case len(p.blockStack) > 0:
		return token.Errorf(tok, "cannot declare macros inside blocks")
	case p.inMacro:
		return token.Errorf(tok, "cannot declare macros inside another macro")
	}
	for _, m := range p.macros {
		if m.Name == name.Value {
			return token.Errorf(name, "macro %q already defined", name.Value)
		}
	}
	macro := &ast.Macro{MacroPos: tok.Position, Name: name.Value}
	if _, err := p.stream.Expect(token.OPERATOR, "("); err != nil {
		return err
	}
	seen := map[string]bool{}
	for !p.stream.Test(token.OPERATOR, ")") {
		param, err := p.stream.Expect(token.NAME)
		if err != nil {
			return err
		}
		if seen[param.Value] {
			return token.Errorf(param, "duplicate macro parameter %q", param.Value)
		}
		seen[param.Value] = true
		var def ast.Expr = &ast.Constant{ValuePos: param.Position}
		if p.stream.Consume(token.OPERATOR, "=") {
			if def, err = p.parseLiteralExpression(); err != nil {
				return err
			}
		}
		macro.Params = append(macro.Params, ast.MacroParam{Name: param.Value, Default: def})
		if !p.stream.Test(token.OPERATOR, ")") {
			if _, err := p.stream.Expect(token.OPERATOR, ","); err != nil {
				return err
			}
		}
	}
	p.stream.Next()
	if err := p.expectBlockEnd(); err != nil {
		return err
	}

	// A macro body runs as its own unit: loops around the declaration do
	// not enclose it.
	inFor := p.inFor
	p.inMacro, p.inFor = true, 0
	macro.Body, err = p.subparse("endmacro")
	p.inMacro, p.inFor = false, inFor
	if err != nil {
		return err
	}
	if err := p.expectEndTag("endmacro", "malformed macro statement", name.Value); err != nil {
		return err
	}
	p.macros = append(p.macros, macro)
	return nil
}

func (p *Parser) parseCall(tok token.Token) (ast.Stmt, error) {
	first, err := p.stream.Expect(token.NAME)
	if err != nil {
		return nil, err
	}
	node := &ast.Call{CallPos: tok.Position, Name: first.Value}
	if p.stream.Consume(token.OPERATOR, ".") {
		name, err := p.stream.Expect(token.NAME)
		if err != nil {
			return nil, err
		}
		node.Module, node.Name = first.Value, name.Value
	}
	if p.stream.Test(token.OPERATOR, "(") {
		if node.Args, err = p.parseCallArgs(false); err != nil {
			return nil, err
		}
	}
	if p.stream.Consume(token.NAME, "with") {
		if err := p.expectBlockEnd(); err != nil {
			return nil, err
		}
		inFor := p.inFor
		p.inFor = 0
		node.Body, err = p.subparse("endcall")
		p.inFor = inFor
		if err != nil {
			return nil, err
		}
		if err := p.expectEndTag("endcall", "malformed call statement", ""); err != nil {
			return nil, err
		}
		return node, nil
	}
	return node, p.expectBlockEnd()
}

// parseCallArgs parses "(a, key=b, ...)". A NAME followed by "=" starts a
// keyword argument. When keywordOnly is set every argument must be one.
func (p *Parser) parseCallArgs(keywordOnly bool) ([]ast.CallArg, error) {
	if _, err := p.stream.Expect(token.OPERATOR, "("); err != nil {
		return nil, err
	}
	var args []ast.CallArg
	for !p.stream.Test(token.OPERATOR, ")") {
		var arg ast.CallArg
		if keywordOnly || (p.stream.Test(token.NAME) && p.stream.Look(1).Test(token.OPERATOR, "=")) {
			key, err := p.stream.Expect(token.NAME)
			if err != nil {
				return nil, err
			}
			if _, err := p.stream.Expect(token.OPERATOR, "="); err != nil {
				return nil, err
			}
			arg.Name = key.Value
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		arg.Value = value
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

func (p *Parser) parseYield(tok token.Token) (ast.Stmt, error) {
	if !p.inMacro {
		return nil, token.Errorf(tok, "unexpected yield, not in macro")
	}
	node := &ast.Yield{YieldPos: tok.Position}
	if p.stream.Test(token.OPERATOR, "(") {
		var err error
		if node.Args, err = p.parseCallArgs(true); err != nil {
			return nil, err
		}
	}
	return node, p.expectBlockEnd()
}

func (p *Parser) parseImport(tok token.Token) error {
	source, err := p.parseExpression()
	if err != nil {
		return err
	}
	if _, err := p.stream.Expect(token.NAME, "as"); err != nil {
		return err
	}
	alias, err := p.stream.Expect(token.NAME)
	if err != nil {
		return err
	}
	if err := p.expectBlockEnd(); err != nil {
		return err
	}
	node := &ast.Import{ImportPos: tok.Position, Alias: alias.Value, Source: source}
	for i, imp := range p.imports {
		if imp.Alias == node.Alias {
			p.imports[i] = node
			return nil
		}
	}
	p.imports = append(p.imports, node)
	return nil
}

func (p *Parser) parseInclude(tok token.Token) (ast.Stmt, error) {
	source, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	node := &ast.Include{IncludePos: tok.Position, Source: source}
	if p.stream.Consume(token.NAME, "with") {
		if node.Params, err = p.parseArrayExpression(); err != nil {
			return nil, err
		}
	}
	stmt, err := p.parseIfModifier(tok, node)
	if err != nil {
		return nil, err
	}
	return stmt, p.expectBlockEnd()
}
