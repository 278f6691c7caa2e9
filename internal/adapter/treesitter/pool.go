package treesitter

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// parserPool recycles tree-sitter parser instances to avoid the per-call
// allocation overhead of sitter.NewParser() / parser.Close(). Each pool is
// tied to a single grammar; the adapter keeps one pool per language.
//
// Safe for use by multiple goroutines simultaneously.
type parserPool struct {
	lang *sitter.Language
	pool sync.Pool
}

func newParserPool(lang *sitter.Language) *parserPool {
	p := &parserPool{lang: lang}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(lang)
			return sp
		},
	}
	return p
}

func (p *parserPool) get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// The language is re-set in case the parser was Reset() externally.
	sp.SetLanguage(p.lang)
	return sp
}

// put resets the parser before storing it so no references to previous
// parse trees are retained. Callers must not use sp after put.
func (p *parserPool) put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	sp.Reset()
	p.pool.Put(sp)
}
