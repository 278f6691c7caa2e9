package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratum/internal/adapter/treesitter"
	"stratum/internal/core/app"
	"stratum/internal/data/factstore"
	"stratum/internal/engine/source"
)

func createTestFiles(t *testing.T, tmpDir string) string {
	mainGo := `package main

import "fmt"

func greet(name string) string {
	return "hello " + name
}

func main() {
	fmt.Println(greet("world"))
}
`
	path := filepath.Join(tmpDir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte(mainGo), 0o644))
	return path
}

func newSession(t *testing.T, opts app.Options) *app.Session {
	grammar, err := app.DefaultGrammar()
	require.NoError(t, err)
	adapter := treesitter.NewAdapter()
	return app.NewSession(grammar, adapter, treesitter.LanguageForPath, opts)
}

func TestFullPipelineIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	path := createTestFiles(t, tmpDir)
	ctx := context.Background()

	sess := newSession(t, app.Options{})

	doc, err := sess.Open(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "go", doc.Language)
	assert.NotEmpty(t, doc.Boundaries())

	// First view parses the visible boundaries.
	info, err := os.Stat(path)
	require.NoError(t, err)
	view := source.NewSpan(0, int(info.Size()))
	fs, err := sess.View(ctx, path, view)
	require.NoError(t, err)
	assert.NotEmpty(t, fs)

	stats := doc.Engine.Stats()
	parsedBefore := stats.BoundariesParsed
	assert.Greater(t, parsedBefore, uint64(0))

	// A second identical view is served entirely from cache.
	_, err = sess.View(ctx, path, view)
	require.NoError(t, err)
	assert.Equal(t, parsedBefore, doc.Engine.Stats().BoundariesParsed)
	assert.Greater(t, doc.Engine.Stats().CacheHitRate, 0.0)

	// An on-disk edit produces a delta and a new generation.
	edited := `package main

import "fmt"

func greet(name string) string {
	return "goodbye " + name
}

func main() {
	fmt.Println(greet("world"))
}
`
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))
	delta, err := sess.Refresh(ctx, path)
	require.NoError(t, err)
	assert.False(t, delta.Empty())
	assert.Equal(t, uint64(1), doc.Engine.Generation())
}

func TestPersistedFactsIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	path := createTestFiles(t, tmpDir)
	ctx := context.Background()

	store, err := factstore.Open(filepath.Join(tmpDir, "facts.db"))
	require.NoError(t, err)
	defer store.Close()

	session := factstore.NewSessionID()
	sess := newSession(t, app.Options{Session: session, Store: store})

	doc, err := sess.Open(ctx, path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	fs, err := sess.View(ctx, path, source.NewSpan(0, int(info.Size())))
	require.NoError(t, err)
	require.NotEmpty(t, fs)

	// Every parsed boundary's facts are loadable by boundary span.
	var restored int
	for _, b := range doc.Boundaries() {
		loaded, err := store.LoadFacts(ctx, session, b.Span)
		require.NoError(t, err)
		restored += len(loaded)
	}
	assert.Greater(t, restored, 0)
}
