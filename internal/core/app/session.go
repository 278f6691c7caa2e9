// # internal/core/app/session.go
//
// A session owns one engine per open file and feeds them from the
// tokenizer and boundary detector ports. Watch mode drives it through
// HandleChanges; editors would call Refresh directly.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"stratum/internal/core/errors"
	"stratum/internal/core/ports"
	"stratum/internal/engine/facts"
	"stratum/internal/engine/parser"
	"stratum/internal/engine/source"
)

// LanguageResolver maps a file path to the language a grammar claims, or
// "" when the file is not parseable.
type LanguageResolver func(path string) string

// Provider bundles the two upstream ports a session needs.
type Provider interface {
	ports.Lexer
	ports.BoundaryDetector
}

type Document struct {
	Path       string
	Language   string
	Engine     *Engine
	tokens     []source.Token
	boundaries []source.Boundary
}

// Boundaries returns the current structural boundaries of the document.
func (d *Document) Boundaries() []source.Boundary {
	out := make([]source.Boundary, len(d.boundaries))
	copy(out, d.boundaries)
	return out
}

type Session struct {
	mu       sync.Mutex
	grammar  *parser.Grammar
	provider Provider
	resolve  LanguageResolver
	opts     Options
	docs     map[string]*Document
}

func NewSession(grammar *parser.Grammar, provider Provider, resolve LanguageResolver, opts Options) *Session {
	return &Session{
		grammar:  grammar,
		provider: provider,
		resolve:  resolve,
		opts:     opts,
		docs:     make(map[string]*Document),
	}
}

// Open loads a file from disk and builds an engine for it. Opening an
// already open path replaces the previous document.
func (s *Session) Open(ctx context.Context, path string) (*Document, error) {
	language := s.resolve(path)
	if language == "" {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotSupported, fmt.Sprintf("no grammar claims %q", path)),
			errors.CtxPath, path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := s.build(ctx, path, language, src)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.docs[path] = doc
	s.mu.Unlock()
	return doc, nil
}

func (s *Session) build(ctx context.Context, path, language string, src []byte) (*Document, error) {
	tokens, err := s.provider.Tokenize(language, src)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	boundaries, err := s.provider.DetectBoundaries(language, src)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}

	engine := NewEngine(s.grammar, s.opts)
	engine.SetSource(src)

	return &Document{
		Path:       path,
		Language:   language,
		Engine:     engine,
		tokens:     tokens,
		boundaries: boundaries,
	}, nil
}

// Get returns the open document for a path, if any.
func (s *Session) Get(path string) (*Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[path]
	return doc, ok
}

// Paths returns all open document paths.
func (s *Session) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.docs))
	for p := range s.docs {
		out = append(out, p)
	}
	return out
}

// View parses the boundaries visible in the given viewport of the document.
func (s *Session) View(ctx context.Context, path string, view source.Span) ([]facts.Fact, error) {
	doc, ok := s.Get(path)
	if !ok {
		return nil, errors.AddContext(
			errors.New(errors.CodeBoundaryNotFound, "document not open"),
			errors.CtxPath, path)
	}
	return doc.Engine.ParseViewport(ctx, view, doc.boundaries, doc.tokens)
}

// Refresh re-reads a document from disk and processes the change as one
// whole-file edit. The returned delta covers every boundary whose facts
// changed.
func (s *Session) Refresh(ctx context.Context, path string) (facts.Delta, error) {
	doc, ok := s.Get(path)
	if !ok {
		return facts.Delta{}, errors.AddContext(
			errors.New(errors.CodeBoundaryNotFound, "document not open"),
			errors.CtxPath, path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return facts.Delta{}, err
	}

	tokens, err := s.provider.Tokenize(doc.Language, src)
	if err != nil {
		return facts.Delta{}, errors.AddContext(err, errors.CtxPath, path)
	}
	boundaries, err := s.provider.DetectBoundaries(doc.Language, src)
	if err != nil {
		return facts.Delta{}, errors.AddContext(err, errors.CtxPath, path)
	}

	doc.Engine.SetSource(src)
	edit := source.Edit{Span: source.NewSpan(0, len(src)), NewText: string(src)}
	delta, err := doc.Engine.ProcessEdit(ctx, edit, boundaries, tokens)
	if err != nil {
		return facts.Delta{}, err
	}

	s.mu.Lock()
	doc.tokens = tokens
	doc.boundaries = boundaries
	s.mu.Unlock()
	return delta, nil
}

// HandleChanges is the watch-mode entry point: refreshes the open
// documents among the changed paths and opens the rest.
func (s *Session) HandleChanges(ctx context.Context, paths []string) {
	for _, path := range paths {
		if _, ok := s.Get(path); ok {
			delta, err := s.Refresh(ctx, path)
			if err != nil {
				slog.Warn("refresh failed", "path", path, "error", err)
				continue
			}
			slog.Debug("document refreshed", "path", path,
				"added", len(delta.Added), "removed", len(delta.Removed), "modified", len(delta.Modified))
			continue
		}
		if _, err := s.Open(ctx, path); err != nil {
			if errors.IsCode(err, errors.CodeNotSupported) {
				continue
			}
			slog.Warn("open failed", "path", path, "error", err)
		}
	}
}
