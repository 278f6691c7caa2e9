package facts

import (
	"testing"

	"stratum/internal/engine/parser"
	"stratum/internal/engine/rules"
	"stratum/internal/engine/source"
)

func parseNumber(t *testing.T, input string) *parser.Node {
	t.Helper()
	digits := make([]*rules.Rule, 0, 10)
	for d := '0'; d <= '9'; d++ {
		digits = append(digits, rules.Terminal(string(d)))
	}
	g, err := parser.NewGrammar("number", map[string]*rules.Rule{
		"digit":  rules.Choice(digits...),
		"number": rules.Repeat1(rules.Ref("digit")),
	})
	if err != nil {
		t.Fatalf("grammar: %v", err)
	}
	res, err := parser.NewParser(g).Parse([]byte(input))
	if err != nil || !res.Success() {
		t.Fatalf("parse %q failed: %v %v", input, err, res.Errors)
	}
	return res.Root
}

func TestGenerate_OrdinalsAndStamps(t *testing.T) {
	root := parseNumber(t, "42")
	boundary := source.Boundary{Span: source.NewSpan(100, 102), Kind: source.BoundaryFunction}

	gen := NewGenerator()
	out := gen.Generate(boundary, root, 7)
	if len(out) == 0 {
		t.Fatal("expected facts")
	}

	digitPos := make([]int, 0, 2)
	for _, f := range out {
		if f.Generation != 7 {
			t.Fatalf("fact %v generation %d, want 7", f.Identity, f.Generation)
		}
		if f.Identity.Boundary != boundary.Span {
			t.Fatalf("fact boundary %v, want %v", f.Identity.Boundary, boundary.Span)
		}
		if f.Identity.Rule == "digit" {
			digitPos = append(digitPos, f.Identity.Position)
		}
	}
	if len(digitPos) != 2 || digitPos[0] != 0 || digitPos[1] != 1 {
		t.Fatalf("digit ordinals %v, want [0 1]", digitPos)
	}
}

func TestGenerate_SpansOffsetByBoundary(t *testing.T) {
	root := parseNumber(t, "5")
	boundary := source.Boundary{Span: source.NewSpan(40, 41)}

	out := NewGenerator().Generate(boundary, root, 1)
	for _, f := range out {
		if f.Span.Start < 40 || f.Span.End > 41 {
			t.Fatalf("fact span %v escapes boundary %v", f.Span, boundary.Span)
		}
	}
}

func TestGenerate_NilRoot(t *testing.T) {
	out := NewGenerator().Generate(source.Boundary{}, nil, 1)
	if out != nil {
		t.Fatalf("expected nil facts for nil root, got %d", len(out))
	}
}

func TestStale(t *testing.T) {
	f := Fact{Generation: 3}
	if f.Stale(3) {
		t.Fatal("same generation is not stale")
	}
	if !f.Stale(4) {
		t.Fatal("older generation is stale")
	}
}

func TestDiff_AddedRemovedModified(t *testing.T) {
	b := source.NewSpan(0, 10)
	id := func(rule string, pos int) Identity {
		return Identity{Boundary: b, Rule: rule, Position: pos}
	}

	old := []Fact{
		{Identity: id("digit", 0), Generation: 1, Payload: "4"},
		{Identity: id("digit", 1), Generation: 1, Payload: "2"},
		{Identity: id("number", 0), Generation: 1, Payload: "42"},
	}
	new := []Fact{
		{Identity: id("digit", 0), Generation: 2, Payload: "9"},  // modified
		{Identity: id("number", 0), Generation: 2, Payload: "9"}, // modified
		{Identity: id("sign", 0), Generation: 2, Payload: "-"},   // added
	}

	delta := Diff(old, new)
	if len(delta.Added) != 1 || delta.Added[0].Identity != id("sign", 0) {
		t.Fatalf("added: %v", delta.Added)
	}
	if len(delta.Removed) != 1 || delta.Removed[0].Identity != id("digit", 1) {
		t.Fatalf("removed: %v", delta.Removed)
	}
	if len(delta.Modified) != 2 {
		t.Fatalf("modified: %v", delta.Modified)
	}
	for _, f := range delta.Modified {
		if f.Generation != 2 {
			t.Fatalf("modified must report the new fact, got generation %d", f.Generation)
		}
	}
}

func TestDiff_IdenticalSetsAreEmpty(t *testing.T) {
	b := source.NewSpan(0, 2)
	set := []Fact{
		{Identity: Identity{Boundary: b, Rule: "digit"}, Payload: "7"},
	}
	if d := Diff(set, set); !d.Empty() {
		t.Fatalf("expected empty delta, got %+v", d)
	}
}

func TestDelta_Merge(t *testing.T) {
	var total Delta
	total.Merge(Delta{Added: []Fact{{Payload: "a"}}})
	total.Merge(Delta{Removed: []Fact{{Payload: "b"}}, Modified: []Fact{{Payload: "c"}}})

	if len(total.Added) != 1 || len(total.Removed) != 1 || len(total.Modified) != 1 {
		t.Fatalf("merge lost entries: %+v", total)
	}
}
