// # internal/engine/parser/parser_test.go
package parser

import (
	"strings"
	"testing"

	"stratum/internal/core/errors"
	"stratum/internal/engine/rules"
	"stratum/internal/engine/source"
)

func digitGrammar(t *testing.T) *Grammar {
	t.Helper()
	digits := make([]*rules.Rule, 0, 10)
	for d := '0'; d <= '9'; d++ {
		digits = append(digits, rules.Terminal(string(d)))
	}
	g, err := NewGrammar("number", map[string]*rules.Rule{
		"digit":  rules.Choice(digits...),
		"number": rules.Repeat1(rules.Ref("digit")),
	})
	if err != nil {
		t.Fatalf("grammar construction failed: %v", err)
	}
	return g
}

func TestNewGrammar_RejectsMissingStart(t *testing.T) {
	_, err := NewGrammar("missing", map[string]*rules.Rule{
		"a": rules.Terminal("a"),
	})
	if !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewGrammar_RejectsDanglingRef(t *testing.T) {
	_, err := NewGrammar("a", map[string]*rules.Rule{
		"a": rules.Sequence(rules.Terminal("x"), rules.Ref("ghost")),
	})
	if !errors.IsCode(err, errors.CodeValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParse_FullConsumption(t *testing.T) {
	p := NewParser(digitGrammar(t))

	res, err := p.Parse([]byte("42"))
	if err != nil {
		t.Fatalf("parse returned fatal error: %v", err)
	}
	if !res.Clean() {
		t.Fatalf("expected clean parse, errors: %v", res.Errors)
	}
	if res.Root.Rule != "number" {
		t.Fatalf("root identity %q, want %q", res.Root.Rule, "number")
	}
	if res.Root.Span.End != 2 {
		t.Fatalf("root span %v, want end 2", res.Root.Span)
	}
	if len(res.Root.Children) != 2 {
		t.Fatalf("expected 2 digit children, got %d", len(res.Root.Children))
	}
	for _, child := range res.Root.Children {
		if child.Rule != "digit" {
			t.Fatalf("child identity %q, want %q", child.Rule, "digit")
		}
	}
}

func TestParse_LeftoverInputIsFailure(t *testing.T) {
	// "42a" matches the number prefix but leaves "a"; the top-level parse
	// must report that as an overall failure.
	p := NewParser(digitGrammar(t))

	res, err := p.Parse([]byte("42a"))
	if err != nil {
		t.Fatalf("parse returned fatal error: %v", err)
	}
	if res.Success() {
		t.Fatal("expected failure on leftover input")
	}
	found := false
	for _, pe := range res.Errors {
		if strings.Contains(pe.Message, "unexpected input after parsing completed") {
			found = true
			if pe.Span.Start != 2 || pe.Span.End != 3 {
				t.Fatalf("leftover span %v, want [2,3)", pe.Span)
			}
		}
	}
	if !found {
		t.Fatalf("missing leftover-input diagnostic, errors: %v", res.Errors)
	}
}

func TestParsePrefix_ToleratesLeftover(t *testing.T) {
	p := NewParser(digitGrammar(t))

	res, err := p.ParsePrefix([]byte("42a"))
	if err != nil {
		t.Fatalf("parse returned fatal error: %v", err)
	}
	if !res.Success() {
		t.Fatalf("expected prefix success, errors: %v", res.Errors)
	}
	if res.Root.Span.End != 2 {
		t.Fatalf("expected to consume 2 bytes, consumed %d", res.Root.Span.End)
	}
	if res.Root.Text != "42" {
		t.Fatalf("root text %q, want %q", res.Root.Text, "42")
	}
}

func TestParse_TotalMismatch(t *testing.T) {
	p := NewParser(digitGrammar(t))

	res, err := p.Parse([]byte("abc"))
	if err != nil {
		t.Fatalf("parse returned fatal error: %v", err)
	}
	if res.Success() {
		t.Fatal("expected failure")
	}
	if len(res.Errors) == 0 {
		t.Fatal("expected at least one diagnostic")
	}
}

func TestParse_ErrorsSurviveBacktracking(t *testing.T) {
	p := NewParser(digitGrammar(t))
	ctx := NewContext([]byte("7"))

	// Diagnostics recorded before a successful parse persist; success alone
	// is not the clean-parse signal.
	ctx.AddError("stale diagnostic", source.NewSpan(0, 0))
	root, ok, err := p.parseStart(ctx)
	if err != nil || !ok || root == nil {
		t.Fatalf("expected success, ok=%v err=%v", ok, err)
	}
	if len(ctx.Errors()) != 1 {
		t.Fatalf("expected preserved diagnostic, got %v", ctx.Errors())
	}
}

func TestParse_DepthGuardIsFatal(t *testing.T) {
	g, err := NewGrammar("loop", map[string]*rules.Rule{
		// Left recursion: loop := loop "x" | "x". Descent recurses without
		// consuming until the depth guard trips.
		"loop": rules.Choice(
			rules.Sequence(rules.Ref("loop"), rules.Terminal("x")),
			rules.Terminal("x"),
		),
	})
	if err != nil {
		t.Fatalf("grammar construction failed: %v", err)
	}
	p := NewParser(g)
	p.SetMaxDepth(64)

	_, err = p.Parse([]byte("xxx"))
	if !errors.IsCode(err, errors.CodeResourceExhausted) {
		t.Fatalf("expected resource exhaustion, got %v", err)
	}
}

func TestNode_WalkPreorder(t *testing.T) {
	p := NewParser(digitGrammar(t))
	res, err := p.Parse([]byte("123"))
	if err != nil || !res.Success() {
		t.Fatalf("parse failed: %v %v", err, res.Errors)
	}

	var order []string
	res.Root.Walk(func(n *Node) bool {
		order = append(order, n.Rule)
		return true
	})
	if order[0] != "number" {
		t.Fatalf("preorder must start at root, got %q", order[0])
	}
	if res.Root.Count() != len(order) {
		t.Fatalf("count %d != visited %d", res.Root.Count(), len(order))
	}
}
