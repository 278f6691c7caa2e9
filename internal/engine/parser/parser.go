// # internal/engine/parser/parser.go
//
// Recursive-descent detailed parser over the rules combinators. Dispatch
// mirrors the rule engine variant-for-variant but builds an owned Node tree
// tagged with rule identities instead of flat match results. Match failure
// is a boolean driving backtracking; only fatal resource errors travel as
// Go errors.
package parser

import (
	"fmt"
	"stratum/internal/core/errors"
	"stratum/internal/engine/rules"
	"stratum/internal/engine/source"
)

// DefaultMaxDepth bounds rule recursion. Grammars deeper than this are
// treated as resource exhaustion and abort the parse.
const DefaultMaxDepth = 10_000

// Result is exactly one of success (Root != nil) or failure (Root == nil,
// Errors explain why). A successful result may still carry diagnostics
// recorded inside backtracked branches.
type Result struct {
	Root   *Node
	Errors []ParseError
}

func (r Result) Success() bool {
	return r.Root != nil
}

// Clean reports a successful parse with zero accumulated diagnostics.
func (r Result) Clean() bool {
	return r.Root != nil && len(r.Errors) == 0
}

type Parser struct {
	grammar  *Grammar
	maxDepth int
}

func NewParser(g *Grammar) *Parser {
	return &Parser{grammar: g, maxDepth: DefaultMaxDepth}
}

func (p *Parser) SetMaxDepth(depth int) {
	if depth > 0 {
		p.maxDepth = depth
	}
}

// Parse requires the start rule to consume the entire input. Leftover input
// after a structurally successful match is itself a failure.
func (p *Parser) Parse(input []byte) (Result, error) {
	ctx := NewContext(input)
	root, ok, err := p.parseStart(ctx)
	if err != nil {
		return Result{Errors: ctx.Errors()}, err
	}
	if !ok {
		return Result{Errors: ctx.Errors()}, nil
	}
	if !ctx.AtEnd() {
		ctx.AddError("unexpected input after parsing completed",
			source.NewSpan(ctx.Pos(), len(input)))
		return Result{Errors: ctx.Errors()}, nil
	}
	return Result{Root: root, Errors: ctx.Errors()}, nil
}

// ParsePrefix matches the start rule at offset 0 without requiring full
// consumption. The root node's span says how much input was used.
func (p *Parser) ParsePrefix(input []byte) (Result, error) {
	ctx := NewContext(input)
	root, ok, err := p.parseStart(ctx)
	if err != nil {
		return Result{Errors: ctx.Errors()}, err
	}
	if !ok {
		return Result{Errors: ctx.Errors()}, nil
	}
	return Result{Root: root, Errors: ctx.Errors()}, nil
}

func (p *Parser) parseStart(ctx *Context) (*Node, bool, error) {
	start, ok := p.grammar.Rule(p.grammar.Start())
	if !ok {
		return nil, false, errors.New(errors.CodeInternal,
			fmt.Sprintf("start rule %q missing from grammar", p.grammar.Start()))
	}
	node, matched, err := p.parseRule(start, p.grammar.Start(), ctx)
	if err != nil {
		return nil, false, err
	}
	if !matched {
		ctx.AddError(fmt.Sprintf("rule %q did not match", p.grammar.Start()),
			source.NewSpan(ctx.Pos(), ctx.Pos()))
		return nil, false, nil
	}
	return node, true, nil
}

// parseRule attempts one rule at the context position. The bool result is
// the recoverable match-failed signal: false means backtrack, with the
// position already restored. A non-nil error is fatal and never caught by
// grammar-level recovery.
func (p *Parser) parseRule(r *rules.Rule, identity string, ctx *Context) (*Node, bool, error) {
	ctx.depth++
	defer func() { ctx.depth-- }()
	if ctx.depth > p.maxDepth {
		return nil, false, errors.New(errors.CodeResourceExhausted,
			fmt.Sprintf("parse depth exceeded %d at offset %d", p.maxDepth, ctx.Pos()))
	}

	switch r.Kind {
	case rules.KindTerminal:
		return p.parseTerminal(r, identity, ctx)
	case rules.KindSequence:
		return p.parseSequence(r, identity, ctx)
	case rules.KindChoice:
		return p.parseChoice(r, identity, ctx)
	case rules.KindOptional:
		return p.parseOptional(r, identity, ctx)
	case rules.KindRepeat:
		return p.parseRepeat(r, identity, ctx, false)
	case rules.KindRepeat1:
		return p.parseRepeat(r, identity, ctx, true)
	case rules.KindRef:
		return p.parseRef(r, ctx)
	default:
		return nil, false, errors.New(errors.CodeInternal,
			fmt.Sprintf("unknown rule kind %d", r.Kind))
	}
}

func (p *Parser) parseTerminal(r *rules.Rule, identity string, ctx *Context) (*Node, bool, error) {
	start := ctx.Mark()
	rest := ctx.Remaining()
	if len(rest) < len(r.Literal) {
		return nil, false, nil
	}
	for i, b := range r.Literal {
		if rest[i] != b {
			return nil, false, nil
		}
	}
	ctx.advance(len(r.Literal))
	return &Node{
		Rule: identity,
		Span: source.NewSpan(start, ctx.Pos()),
		Text: string(r.Literal),
	}, true, nil
}

func (p *Parser) parseSequence(r *rules.Rule, identity string, ctx *Context) (*Node, bool, error) {
	start := ctx.Mark()
	children := make([]*Node, 0, len(r.Subs))
	for _, sub := range r.Subs {
		child, ok, err := p.parseRule(sub, sub.Kind.String(), ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			ctx.Reset(start)
			return nil, false, nil
		}
		children = append(children, child)
	}
	return p.makeNode(identity, start, ctx, children), true, nil
}

func (p *Parser) parseChoice(r *rules.Rule, identity string, ctx *Context) (*Node, bool, error) {
	start := ctx.Mark()
	for _, alt := range r.Subs {
		child, ok, err := p.parseRule(alt, alt.Kind.String(), ctx)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return p.makeNode(identity, start, ctx, []*Node{child}), true, nil
		}
		ctx.Reset(start)
	}
	return nil, false, nil
}

func (p *Parser) parseOptional(r *rules.Rule, identity string, ctx *Context) (*Node, bool, error) {
	start := ctx.Mark()
	child, ok, err := p.parseRule(r.Inner, r.Inner.Kind.String(), ctx)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		ctx.Reset(start)
		return p.makeNode(identity, start, ctx, nil), true, nil
	}
	return p.makeNode(identity, start, ctx, []*Node{child}), true, nil
}

func (p *Parser) parseRepeat(r *rules.Rule, identity string, ctx *Context, atLeastOne bool) (*Node, bool, error) {
	start := ctx.Mark()
	var children []*Node
	for {
		iter := ctx.Mark()
		child, ok, err := p.parseRule(r.Inner, r.Inner.Kind.String(), ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			ctx.Reset(iter)
			break
		}
		children = append(children, child)
		// Zero-consumption iterations would repeat forever on nullable
		// inner rules.
		if ctx.Pos() == iter {
			break
		}
	}
	if atLeastOne && len(children) == 0 {
		ctx.Reset(start)
		return nil, false, nil
	}
	return p.makeNode(identity, start, ctx, children), true, nil
}

func (p *Parser) parseRef(r *rules.Rule, ctx *Context) (*Node, bool, error) {
	target, ok := p.grammar.Rule(r.Name)
	if !ok {
		return nil, false, errors.New(errors.CodeInternal,
			fmt.Sprintf("reference to undefined rule %q", r.Name))
	}
	// The referenced rule's node takes the name as its identity so facts
	// key off the logical construct, not the combinator shape.
	return p.parseRule(target, r.Name, ctx)
}

func (p *Parser) makeNode(identity string, start int, ctx *Context, children []*Node) *Node {
	span := source.NewSpan(start, ctx.Pos())
	return &Node{
		Rule:     identity,
		Span:     span,
		Text:     string(ctx.Input()[span.Start:span.End]),
		Children: children,
	}
}
