// # internal/adapter/treesitter/adapter.go
//
// Bridges tree-sitter grammars to the engine's token and boundary inputs.
// Tree-sitter does the language-aware lexing and structure detection; the
// incremental engine only ever sees spans into the original bytes.
package treesitter

import (
	"fmt"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"stratum/internal/core/errors"
	"stratum/internal/engine/source"
	"stratum/internal/shared/util"
)

// Adapter implements the engine's Lexer and BoundaryDetector ports on top
// of the built-in tree-sitter grammars.
type Adapter struct {
	mu    sync.Mutex
	specs map[string]LanguageSpec
	pools map[string]*parserPool
}

func NewAdapter() *Adapter {
	specs := make(map[string]LanguageSpec, len(builtinSpecs))
	for _, spec := range builtinSpecs {
		specs[spec.Name] = spec
	}
	return &Adapter{
		specs: specs,
		pools: make(map[string]*parserPool),
	}
}

// Languages returns the names of all built-in grammars in sorted order.
func (a *Adapter) Languages() []string {
	return util.SortedStringKeys(a.specs)
}

func (a *Adapter) poolFor(language string) (*parserPool, LanguageSpec, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	spec, ok := a.specs[language]
	if !ok {
		return nil, LanguageSpec{}, errors.AddContext(
			errors.New(errors.CodeNotSupported, fmt.Sprintf("no grammar for language %q", language)),
			errors.CtxLanguage, language)
	}
	pool, ok := a.pools[language]
	if !ok {
		lang, err := grammarFor(language)
		if err != nil {
			return nil, LanguageSpec{}, errors.Wrap(err, errors.CodeNotSupported, "load grammar")
		}
		pool = newParserPool(lang)
		a.pools[language] = pool
	}
	return pool, spec, nil
}

func (a *Adapter) parse(language string, src []byte) (*sitter.Tree, LanguageSpec, func(), error) {
	pool, spec, err := a.poolFor(language)
	if err != nil {
		return nil, LanguageSpec{}, nil, err
	}
	sp := pool.get()
	tree := sp.Parse(src, nil)
	if tree == nil {
		pool.put(sp)
		return nil, LanguageSpec{}, nil, errors.AddContext(
			errors.New(errors.CodeInternal, "tree-sitter returned no tree"),
			errors.CtxLanguage, language)
	}
	cleanup := func() {
		tree.Close()
		pool.put(sp)
	}
	return tree, spec, cleanup, nil
}

// Tokenize returns the leaf nodes of the syntax tree as tokens ordered by
// start offset. Whitespace between leaves carries no token; the engine
// reconstructs gaps from the spans.
func (a *Adapter) Tokenize(language string, src []byte) ([]source.Token, error) {
	tree, _, cleanup, err := a.parse(language, src)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var tokens []source.Token
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.ChildCount() == 0 {
			start, end := int(n.StartByte()), int(n.EndByte())
			if end > start {
				tokens = append(tokens, source.Token{
					Kind:    n.Kind(),
					Span:    source.NewSpan(start, end),
					Payload: string(src[start:end]),
				})
			}
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())
	return tokens, nil
}

// DetectBoundaries returns the structural boundaries of the source, ordered
// by start offset. Nested boundary nodes each produce their own boundary;
// the engine treats them independently.
func (a *Adapter) DetectBoundaries(language string, src []byte) ([]source.Boundary, error) {
	tree, spec, cleanup, err := a.parse(language, src)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var bounds []source.Boundary
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if kind, ok := spec.Boundaries[n.Kind()]; ok {
			bounds = append(bounds, source.Boundary{
				Span: source.NewSpan(int(n.StartByte()), int(n.EndByte())),
				Kind: kind,
			})
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())
	return bounds, nil
}
