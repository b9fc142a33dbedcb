// Package parser builds the syntax tree of a template from its tokens.
//
// Statements are parsed by recursive descent with one function per tag.
// Expressions are parsed by precedence climbing, one function per level.
// The parser also enforces where tags may appear: extends at most once and
// never inside a block or macro, parent only inside a block, break and
// continue only inside a for loop.
package parser

import (
	"context"
	"encoding/hex"
	stderrors "errors"

	"github.com/gofrs/uuid"
	"github.com/scaffold-io/scaffold/ast"
	"github.com/scaffold-io/scaffold/errors"
	"github.com/scaffold-io/scaffold/internal/lexer"
	"github.com/scaffold-io/scaffold/internal/token"
)

// NamePrefix prefixes every generated module name.
const NamePrefix = "__ScaffoldTemplate_"

// GeneratedName returns the stable generated name of the module at path.
func GeneratedName(path string) string {
	id := uuid.NewV5(uuid.NamespaceURL, path)
	return NamePrefix + hex.EncodeToString(id.Bytes())
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithPath sets the template path recorded on the module and on errors.
func WithPath(path string) Option {
	return func(p *Parser) {
		p.path = path
	}
}

// WithName overrides the generated name of the module.
func WithName(name string) Option {
	return func(p *Parser) {
		p.name = name
	}
}

// Parser holds the state of one parse. It is not reusable.
type Parser struct {
	ctx    context.Context
	stream *token.Stream
	source string
	path   string
	name   string

	extends *ast.Extends
	imports []*ast.Import
	blocks  []*ast.Block
	macros  []*ast.Macro

	// legality state
	blockStack []string
	inFor      int
	inMacro    bool
}

// New returns a Parser reading from the given token stream.
func New(stream *token.Stream, opts ...Option) *Parser {
	p := &Parser{stream: stream}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse lexes and parses template source into a Module.
func Parse(ctx context.Context, source string, opts ...Option) (*ast.Module, error) {
	l := lexer.New(source)
	p := New(l.Stream(), opts...)
	p.source = l.Source()
	return p.Parse(ctx)
}

// ParseStream parses an already lexed token stream into a Module.
func ParseStream(ctx context.Context, stream *token.Stream, opts ...Option) (*ast.Module, error) {
	return New(stream, opts...).Parse(ctx)
}

// Parse parses the whole stream into a Module.
func (p *Parser) Parse(ctx context.Context) (*ast.Module, error) {
	p.ctx = ctx
	body, err := p.subparse()
	if err != nil {
		var serr *errors.SyntaxError
		if stderrors.As(err, &serr) {
			return nil, serr.WithSource(p.path, p.source)
		}
		return nil, err
	}
	name := p.name
	if name == "" {
		name = GeneratedName(p.path)
	}
	return &ast.Module{
		Path:    p.path,
		Name:    name,
		Extends: p.extends,
		Imports: p.imports,
		Blocks:  p.blocks,
		Macros:  p.macros,
		Body:    body,
	}, nil
}

// subparse parses statements until the end of the stream or until a block
// tag whose name is one of stops. In the latter case the stream is left on
// that name. Reaching the end of the stream while stops are expected is an
// unterminated construct.
func (p *Parser) subparse(stops ...string) (*ast.NodeList, error) {
	list := &ast.NodeList{ListPos: p.stream.Current().Position}
	for !p.stream.IsEOS() {
		if err := p.ctx.Err(); err != nil {
			return nil, err
		}
		tok := p.stream.Current()
		var node ast.Stmt
		var err error
		switch tok.Type {
		case token.TEXT:
			p.stream.Next()
			node = &ast.Text{TextPos: tok.Position, Data: tok.Value}
		case token.BLOCK_BEGIN:
			p.stream.Next()
			if len(stops) > 0 && p.stream.Test(token.NAME, stops...) {
				return list, nil
			}
			node, err = p.parseTag(stops)
		case token.OUTPUT_BEGIN:
			node, err = p.parseOutput()
		case token.RAW_BEGIN:
			node, err = p.parseRaw()
		default:
			return nil, token.Errorf(tok, "parser ended up in unsupported state")
		}
		if err != nil {
			return nil, err
		}
		if node != nil {
			list.Nodes = append(list.Nodes, node)
		}
	}
	if len(stops) > 0 {
		return nil, token.Unexpected(p.stream.Current(), "").
			WithHint("unclosed tag, expecting " + token.Expecting(token.NAME, stops...))
	}
	return list, nil
}

func (p *Parser) parseOutput() (ast.Stmt, error) {
	tok := p.stream.Next()
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	node, err := p.parseIfModifier(tok, &ast.Output{OutputPos: tok.Position, Expr: expr})
	if err != nil {
		return nil, err
	}
	if _, err := p.stream.Expect(token.OUTPUT_END); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseRaw() (ast.Stmt, error) {
	tok := p.stream.Next()
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	node, err := p.parseIfModifier(tok, &ast.Raw{RawPos: tok.Position, Expr: expr})
	if err != nil {
		return nil, err
	}
	if _, err := p.stream.Expect(token.RAW_END); err != nil {
		return nil, err
	}
	return node, nil
}

// parseIfModifier wraps node in an If when an inline "if cond" or
// "unless cond" follows it.
func (p *Parser) parseIfModifier(tok token.Token, node ast.Stmt) (ast.Stmt, error) {
	cond, err := p.parseModifierCond()
	if err != nil || cond == nil {
		return node, err
	}
	return &ast.If{
		IfPos: tok.Position,
		Branches: []ast.IfBranch{{
			Cond: cond,
			Body: &ast.NodeList{ListPos: tok.Position, Nodes: []ast.Stmt{node}},
		}},
	}, nil
}

// parseModifierCond parses an optional "if cond" or "unless cond" suffix.
func (p *Parser) parseModifierCond() (ast.Expr, error) {
	switch {
	case p.stream.Consume(token.NAME, "if"):
		return p.parseExpression()
	case p.stream.Test(token.NAME, "unless"):
		tok := p.stream.Next()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{OpPos: tok.Position, Op: ast.Not, Operand: cond}, nil
	}
	return nil, nil
}

func (p *Parser) expectBlockEnd() error {
	_, err := p.stream.Expect(token.BLOCK_END)
	return err
}

// expectEndTag consumes the terminator name left by subparse and the block
// end that follows it. A repeated name, as in "endblock content", is
// accepted when repeat is not empty.
func (p *Parser) expectEndTag(end, malformed, repeat string) error {
	tok := p.stream.Next()
	if !tok.Test(token.NAME, end) {
		return token.Errorf(tok, "%s", malformed)
	}
	if repeat != "" {
		p.stream.Consume(token.NAME, repeat)
	}
	return p.expectBlockEnd()
}
