package treesitter

import (
	"testing"

	"stratum/internal/core/errors"
	"stratum/internal/engine/source"
)

const goSample = `package demo

func Add(a, b int) int {
	return a + b
}

type Point struct {
	X int
	Y int
}
`

func TestTokenize_LeavesOrderedBySpan(t *testing.T) {
	a := NewAdapter()
	tokens, err := a.Tokenize("go", []byte(goSample))
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if len(tokens) == 0 {
		t.Fatal("expected tokens")
	}
	last := -1
	for _, tok := range tokens {
		if tok.Span.Start < last {
			t.Fatalf("tokens out of order at %v", tok.Span)
		}
		if tok.Payload != goSample[tok.Span.Start:tok.Span.End] {
			t.Fatalf("payload %q does not match source at %v", tok.Payload, tok.Span)
		}
		last = tok.Span.Start
	}
}

func TestDetectBoundaries_Go(t *testing.T) {
	a := NewAdapter()
	bounds, err := a.DetectBoundaries("go", []byte(goSample))
	if err != nil {
		t.Fatalf("DetectBoundaries failed: %v", err)
	}

	kinds := map[source.BoundaryKind]int{}
	for _, b := range bounds {
		kinds[b.Kind]++
		if b.Span.Len() == 0 {
			t.Fatalf("empty boundary span %v", b.Span)
		}
	}
	if kinds[source.BoundaryFunction] != 1 {
		t.Fatalf("expected 1 function boundary, got %d", kinds[source.BoundaryFunction])
	}
	if kinds[source.BoundaryType] != 1 {
		t.Fatalf("expected 1 type boundary, got %d", kinds[source.BoundaryType])
	}
}

func TestTokenize_UnknownLanguage(t *testing.T) {
	a := NewAdapter()
	_, err := a.Tokenize("cobol", []byte("MOVE A TO B"))
	if err == nil {
		t.Fatal("expected error for unknown language")
	}
	if !errors.IsCode(err, errors.CodeNotSupported) {
		t.Fatalf("expected NOT_SUPPORTED, got %v", err)
	}
}

func TestLanguageForPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"lib/app.py", "python"},
		{"src/index.tsx", "tsx"},
		{"style.css", "css"},
		{"README.md", ""},
		{"Makefile", ""},
	}
	for _, tc := range cases {
		if got := LanguageForPath(tc.path); got != tc.want {
			t.Fatalf("LanguageForPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestAdapter_PoolReuseAcrossCalls(t *testing.T) {
	a := NewAdapter()
	for i := 0; i < 4; i++ {
		if _, err := a.Tokenize("go", []byte(goSample)); err != nil {
			t.Fatalf("Tokenize round %d failed: %v", i, err)
		}
	}
	if len(a.pools) != 1 {
		t.Fatalf("expected one pooled language, got %d", len(a.pools))
	}
}
