package ports

import (
	"context"

	"stratum/internal/engine/facts"
	"stratum/internal/engine/source"
)

// Lexer abstracts the upstream tokenizer. The engine consumes tokens and
// indexes into the original source via their spans; it never re-tokenizes.
type Lexer interface {
	Tokenize(language string, src []byte) ([]source.Token, error)
}

// BoundaryDetector abstracts structural boundary detection. The engine
// never computes boundaries itself.
type BoundaryDetector interface {
	DetectBoundaries(language string, src []byte) ([]source.Boundary, error)
}

// FactStore abstracts durable fact persistence for consumers that want
// snapshots to survive restarts. Implementations must tolerate repeated
// saves for the same boundary/generation.
type FactStore interface {
	SaveFacts(ctx context.Context, session string, generation uint64, fs []facts.Fact) error
	LoadFacts(ctx context.Context, session string, boundary source.Span) ([]facts.Fact, error)
	PruneGenerations(ctx context.Context, session string, keepFrom uint64) error
	Close() error
}
