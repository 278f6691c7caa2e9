// # internal/core/app/engine.go
//
// Engine wires the stratified parsing pipeline together: viewport manager
// decides order, boundary cache scopes work, the detailed parser derives
// trees, the fact generator projects them. One Engine instance per open
// document; the generation counter is a field here, never process-global.
package app

import (
	"context"
	"sync"
	"time"

	"stratum/internal/core/errors"
	"stratum/internal/core/ports"
	"stratum/internal/engine/cache"
	"stratum/internal/engine/facts"
	"stratum/internal/engine/parser"
	"stratum/internal/engine/source"
	"stratum/internal/engine/viewport"
	"stratum/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Options configures one Engine instance. Zero values fall back to the
// package defaults.
type Options struct {
	CacheCapacity int
	EditTTL       time.Duration
	Weights       *viewport.Weights
	MaxParseDepth int

	// Session names this engine instance in the optional fact store.
	Session string
	Store   ports.FactStore
}

type Engine struct {
	mu sync.Mutex

	parser    *parser.Parser
	generator *facts.Generator
	cache     *cache.BoundaryCache
	viewport  *viewport.Manager

	session string
	store   ports.FactStore

	src []byte

	generation       uint64
	boundariesParsed uint64
	factsGenerated   uint64
	totalParseTime   time.Duration
}

func NewEngine(grammar *parser.Grammar, opts Options) *Engine {
	weights := viewport.DefaultWeights()
	if opts.Weights != nil {
		weights = *opts.Weights
	}
	p := parser.NewParser(grammar)
	if opts.MaxParseDepth > 0 {
		p.SetMaxDepth(opts.MaxParseDepth)
	}
	return &Engine{
		parser:    p,
		generator: facts.NewGenerator(),
		cache:     cache.NewBoundaryCache(opts.CacheCapacity),
		viewport:  viewport.NewManager(weights, opts.EditTTL),
		session:   opts.Session,
		store:     opts.Store,
	}
}

// SetSource installs the current document text. Callers must re-set it
// after applying an edit upstream, before calling ProcessEdit.
func (e *Engine) SetSource(src []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.src = src
}

func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// ParseViewport parses the boundaries visible in the viewport, in priority
// order, and returns their facts. Non-visible queue entries are left for
// opportunistic consumers.
func (e *Engine) ParseViewport(ctx context.Context, view source.Span,
	boundaries []source.Boundary, tokens []source.Token) ([]facts.Fact, error) {

	ctx, span := observability.Tracer.Start(ctx, "Engine.ParseViewport",
		trace.WithAttributes(attribute.Int("boundaries", len(boundaries))))
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.viewport.UpdateViewport(view, boundaries)

	var out []facts.Fact
	for {
		item, ok := e.viewport.Next()
		if !ok {
			break
		}
		if item.Reason != viewport.ReasonVisible {
			// Tiers sort visible entries first; everything from here on is
			// pre-parse work for opportunistic consumers.
			e.viewport.Requeue(item)
			break
		}
		fs, err := e.parseBoundaryLocked(ctx, item.Boundary, tokens)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxBoundary, item.Boundary.Span.String())
		}
		out = append(out, fs...)
	}
	return out, nil
}

// ProcessEdit bumps the generation, invalidates exactly the affected
// boundaries, reparses them, and returns the combined fact delta.
// Boundaries not named in affected are untouched.
func (e *Engine) ProcessEdit(ctx context.Context, edit source.Edit,
	affected []source.Boundary, tokens []source.Token) (facts.Delta, error) {

	ctx, span := observability.Tracer.Start(ctx, "Engine.ProcessEdit",
		trace.WithAttributes(attribute.Int("affected", len(affected))))
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.generation++
	observability.EditsProcessedTotal.Inc()

	var delta facts.Delta
	for _, b := range affected {
		e.viewport.RecordEdit(b.Span)

		var oldFacts []facts.Fact
		if entry, ok := e.cache.Peek(b.Span); ok {
			oldFacts = entry.Facts
		}
		e.cache.Invalidate(b.Span)

		newFacts, err := e.parseBoundaryLocked(ctx, b, tokens)
		if err != nil {
			return facts.Delta{}, errors.AddContext(err, errors.CtxBoundary, b.Span.String())
		}
		delta.Merge(facts.Diff(oldFacts, newFacts))
	}
	return delta, nil
}

// ParseBoundary parses a single boundary, serving from cache when the
// entry is still valid.
func (e *Engine) ParseBoundary(ctx context.Context, b source.Boundary,
	tokens []source.Token) ([]facts.Fact, error) {

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parseBoundaryLocked(ctx, b, tokens)
}

func (e *Engine) parseBoundaryLocked(ctx context.Context, b source.Boundary,
	tokens []source.Token) ([]facts.Fact, error) {

	e.viewport.RecordAccess(b.Span)

	if entry, ok := e.cache.Get(b.Span); ok {
		return entry.Facts, nil
	}

	text, err := e.boundaryText(b, tokens)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	res, err := e.parser.Parse(text)
	elapsed := time.Since(started)

	e.totalParseTime += elapsed
	observability.ParseDuration.WithLabelValues(b.Kind.String()).Observe(elapsed.Seconds())

	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, errors.AddContext(
			errors.New(errors.CodeFactGeneration, "boundary did not parse"),
			errors.CtxBoundary, b.Span.String())
	}

	fs := e.generator.Generate(b, res.Root, e.generation)
	e.boundariesParsed++
	e.factsGenerated += uint64(len(fs))
	observability.BoundariesParsedTotal.Inc()
	observability.FactsGeneratedTotal.Add(float64(len(fs)))

	e.cache.Put(b.Span, fs, e.generation)

	if e.store != nil {
		if err := e.store.SaveFacts(ctx, e.session, e.generation, fs); err != nil {
			return nil, errors.Wrap(err, errors.CodeCacheFailure, "persist facts")
		}
	}
	return fs, nil
}

// boundaryText resolves the bytes a boundary covers: the source slice when
// the document is installed, otherwise the token payloads inside the span.
func (e *Engine) boundaryText(b source.Boundary, tokens []source.Token) ([]byte, error) {
	if len(e.src) >= b.Span.End {
		return e.src[b.Span.Start:b.Span.End], nil
	}
	scoped := source.TokensInSpan(tokens, b.Span)
	if len(scoped) == 0 {
		return nil, errors.New(errors.CodeBoundaryNotFound,
			"boundary covers no source text and no tokens")
	}
	buf := make([]byte, b.Span.Len())
	for i := range buf {
		buf[i] = ' '
	}
	for _, tok := range scoped {
		copy(buf[tok.Span.Start-b.Span.Start:], tok.Payload)
	}
	return buf, nil
}

// Queue exposes the viewport manager's pull side for opportunistic
// consumers such as the background pool.
func (e *Engine) Queue() *viewport.Manager {
	return e.viewport
}

// Stats is the read-only performance snapshot.
type Stats struct {
	CacheHitRate     float64
	BoundariesParsed uint64
	FactsGenerated   uint64
	TotalParseTime   time.Duration
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		CacheHitRate:     e.cache.HitRate(),
		BoundariesParsed: e.boundariesParsed,
		FactsGenerated:   e.factsGenerated,
		TotalParseTime:   e.totalParseTime,
	}
}
