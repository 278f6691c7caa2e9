// # internal/engine/rules/rules.go
//
// Declarative grammar combinators with backtracking match semantics.
// Rules form a closed set of variants dispatched by kind; recursive
// grammars go through named references resolved against a rule table,
// never through direct self-ownership.
package rules

import "bytes"

type Kind uint8

const (
	KindTerminal Kind = iota
	KindSequence
	KindChoice
	KindOptional
	KindRepeat
	KindRepeat1
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindTerminal:
		return "terminal"
	case KindSequence:
		return "sequence"
	case KindChoice:
		return "choice"
	case KindOptional:
		return "optional"
	case KindRepeat:
		return "repeat"
	case KindRepeat1:
		return "repeat1"
	case KindRef:
		return "ref"
	default:
		return "unknown"
	}
}

// Rule is one node of a grammar expression. Which fields are populated
// depends on Kind; rules are immutable once handed to a grammar.
type Rule struct {
	Kind    Kind
	Literal []byte  // KindTerminal
	Subs    []*Rule // KindSequence, KindChoice
	Inner   *Rule   // KindOptional, KindRepeat, KindRepeat1
	Name    string  // KindRef
}

func Terminal(literal string) *Rule {
	return &Rule{Kind: KindTerminal, Literal: []byte(literal)}
}

func Sequence(subs ...*Rule) *Rule {
	return &Rule{Kind: KindSequence, Subs: subs}
}

func Choice(alternatives ...*Rule) *Rule {
	return &Rule{Kind: KindChoice, Subs: alternatives}
}

func Optional(inner *Rule) *Rule {
	return &Rule{Kind: KindOptional, Inner: inner}
}

func Repeat(inner *Rule) *Rule {
	return &Rule{Kind: KindRepeat, Inner: inner}
}

func Repeat1(inner *Rule) *Rule {
	return &Rule{Kind: KindRepeat1, Inner: inner}
}

func Ref(name string) *Rule {
	return &Rule{Kind: KindRef, Name: name}
}

// Cursor is a position into an immutable input slice. Matching advances
// Pos; on any failed match the cursor is restored to exactly where it was
// before the attempt began.
type Cursor struct {
	Input []byte
	Pos   int
}

func NewCursor(input []byte) *Cursor {
	return &Cursor{Input: input}
}

func (c *Cursor) Remaining() []byte {
	return c.Input[c.Pos:]
}

func (c *Cursor) AtEnd() bool {
	return c.Pos >= len(c.Input)
}

// Matcher resolves named references against a rule table. A zero-value
// Matcher works for grammars without refs.
type Matcher struct {
	table map[string]*Rule
}

func NewMatcher() *Matcher {
	return &Matcher{table: make(map[string]*Rule)}
}

func (m *Matcher) Define(name string, r *Rule) {
	if m.table == nil {
		m.table = make(map[string]*Rule)
	}
	m.table[name] = r
}

func (m *Matcher) Lookup(name string) (*Rule, bool) {
	r, ok := m.table[name]
	return r, ok
}

// Match attempts the rule at the cursor's position. On success the cursor
// is advanced past the consumed input; on failure the cursor is unchanged.
func (m *Matcher) Match(r *Rule, c *Cursor) bool {
	switch r.Kind {
	case KindTerminal:
		if bytes.HasPrefix(c.Remaining(), r.Literal) {
			c.Pos += len(r.Literal)
			return true
		}
		return false

	case KindSequence:
		// Atomic: a failure anywhere rolls back the whole sequence.
		start := c.Pos
		for _, sub := range r.Subs {
			if !m.Match(sub, c) {
				c.Pos = start
				return false
			}
		}
		return true

	case KindChoice:
		// First match wins; no longest-match resolution.
		for _, alt := range r.Subs {
			start := c.Pos
			if m.Match(alt, c) {
				return true
			}
			c.Pos = start
		}
		return false

	case KindOptional:
		start := c.Pos
		if !m.Match(r.Inner, c) {
			c.Pos = start
		}
		return true

	case KindRepeat:
		for {
			start := c.Pos
			if !m.Match(r.Inner, c) {
				return true
			}
			// A nullable inner rule that consumed nothing would loop
			// forever; stop as soon as an iteration makes no progress.
			if c.Pos == start {
				return true
			}
		}

	case KindRepeat1:
		start := c.Pos
		if !m.Match(r.Inner, c) {
			c.Pos = start
			return false
		}
		if c.Pos == start {
			return true
		}
		for {
			iter := c.Pos
			if !m.Match(r.Inner, c) || c.Pos == iter {
				return true
			}
		}

	case KindRef:
		target, ok := m.Lookup(r.Name)
		if !ok {
			return false
		}
		return m.Match(target, c)

	default:
		return false
	}
}
