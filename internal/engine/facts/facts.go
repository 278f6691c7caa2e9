// # internal/engine/facts/facts.go
//
// Facts are flat, language-agnostic assertions projected from parse trees.
// Downstream consumers (indexers, highlighters) read facts without knowing
// the concrete tree shape that produced them.
package facts

import (
	"fmt"

	"stratum/internal/engine/parser"
	"stratum/internal/engine/source"
)

// Identity names a fact independently of byte offsets: the boundary it was
// derived in, the rule that produced it, and the ordinal of that rule within
// the boundary. The ordinal keeps identities stable across reparses of the
// same logical construct even when unrelated edits shift offsets.
type Identity struct {
	Boundary source.Span
	Rule     string
	Position int
}

func (id Identity) String() string {
	return fmt.Sprintf("%s/%s#%d", id.Boundary, id.Rule, id.Position)
}

type Fact struct {
	Identity   Identity
	Generation uint64
	Span       source.Span
	Payload    string
}

// Stale reports whether the fact predates the given generation.
func (f Fact) Stale(current uint64) bool {
	return f.Generation < current
}

// Generator projects parse trees into fact slices. It holds no state; the
// generation stamp comes from the owning engine instance.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate walks the tree in preorder, emitting one fact per node. Ordinals
// count occurrences of each rule identity within the boundary, in visit
// order.
func (g *Generator) Generate(boundary source.Boundary, root *parser.Node, generation uint64) []Fact {
	if root == nil {
		return nil
	}
	out := make([]Fact, 0, root.Count())
	ordinals := make(map[string]int)
	root.Walk(func(n *parser.Node) bool {
		pos := ordinals[n.Rule]
		ordinals[n.Rule] = pos + 1
		out = append(out, Fact{
			Identity: Identity{
				Boundary: boundary.Span,
				Rule:     n.Rule,
				Position: pos,
			},
			Generation: generation,
			Span: source.NewSpan(
				boundary.Span.Start+n.Span.Start,
				boundary.Span.Start+n.Span.End,
			),
			Payload: n.Text,
		})
		return true
	})
	return out
}
