// # internal/engine/source/source.go
package source

import "fmt"

// Span is a half-open byte range [Start, End) into source text.
// Many entities key off a Span for identity, so it must stay a
// small comparable value type.
type Span struct {
	Start int
	End   int
}

func NewSpan(start, end int) Span {
	if end < start {
		end = start
	}
	return Span{Start: start, End: end}
}

func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether the byte offset falls inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Overlaps reports whether the two half-open ranges share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Distance returns the gap in bytes between two non-overlapping spans,
// or 0 if they overlap or touch.
func (s Span) Distance(other Span) int {
	if s.Overlaps(other) {
		return 0
	}
	if s.End <= other.Start {
		return other.Start - s.End
	}
	return s.Start - other.End
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Token is a lexed unit supplied by an upstream tokenizer. This engine
// consumes tokens and indexes into the original source via their spans;
// it never constructs or re-lexes them.
type Token struct {
	Kind    string
	Span    Span
	Payload string
}

// BoundaryKind classifies a structural boundary. Kinds carry priority
// weight in the viewport manager (functions and types over plain blocks).
type BoundaryKind int

const (
	BoundaryBlock BoundaryKind = iota
	BoundaryFunction
	BoundaryType
	BoundaryMethod
)

func (k BoundaryKind) String() string {
	switch k {
	case BoundaryFunction:
		return "function"
	case BoundaryType:
		return "type"
	case BoundaryMethod:
		return "method"
	default:
		return "block"
	}
}

// Boundary is a structurally meaningful sub-range of the source, supplied
// by an external boundary detector. It is the unit of incremental work.
type Boundary struct {
	Span Span
	Kind BoundaryKind
}

// Edit is an opaque description of a source mutation. The engine uses it
// only to bump its generation counter; callers say explicitly which
// boundaries are affected.
type Edit struct {
	Span    Span
	NewText string
}

// TokensInSpan returns the contiguous sub-slice of tokens whose spans fall
// fully inside the given span. Tokens must be ordered by start offset.
func TokensInSpan(tokens []Token, span Span) []Token {
	lo := 0
	for lo < len(tokens) && tokens[lo].Span.Start < span.Start {
		lo++
	}
	hi := lo
	for hi < len(tokens) && tokens[hi].Span.End <= span.End {
		hi++
	}
	return tokens[lo:hi]
}
