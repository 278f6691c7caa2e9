// # internal/core/watcher/watcher.go
//
// Filesystem driver for watch mode: batches change events per debounce
// window and hands the changed paths to the session, which re-tokenizes
// and feeds edits into the engine.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"stratum/internal/shared/observability"
	"stratum/internal/shared/util"
)

// Claims decides whether a path is interesting, typically by asking the
// language registry whether a grammar claims its extension.
type Claims func(path string) bool

type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	excludes   []glob.Glob
	claims     Claims
	onChange   func([]string)
	callbackMu sync.Mutex

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer
}

func NewWatcher(debounce time.Duration, excludes []string, claims Claims, onChange func([]string)) (*Watcher, error) {
	if onChange == nil || claims == nil {
		return nil, os.ErrInvalid
	}

	compiled := make([]glob.Glob, 0, len(excludes))
	for _, pattern := range excludes {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		excludes:  compiled,
		claims:    claims,
		onChange:  onChange,
		pending:   make(map[string]time.Time),
	}, nil
}

func (w *Watcher) Watch(paths []string) error {
	// A path nested under an earlier root is already covered by the
	// recursive walk; registering it again doubles every event.
	roots := make([]string, 0, len(paths))
	for _, path := range paths {
		nested := false
		for _, root := range roots {
			if util.HasPathPrefix(path, root) {
				nested = true
				break
			}
		}
		if !nested {
			roots = append(roots, path)
		}
	}

	for _, root := range roots {
		if err := w.watchRecursive(root); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if w.excluded(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.excluded(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			if w.skip(event.Name) {
				continue
			}

			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Remove == fsnotify.Remove ||
				event.Op&fsnotify.Rename == fsnotify.Rename {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = time.Now()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	if len(paths) > 0 {
		w.callbackMu.Lock()
		defer w.callbackMu.Unlock()
		w.onChange(paths)
	}
}

// excluded matches glob patterns against both the basename and the
// normalized path, so "vendor" and "**/testdata/**" both work.
func (w *Watcher) excluded(path string) bool {
	base := filepath.Base(path)
	norm := util.NormalizePatternPath(path)
	for _, g := range w.excludes {
		if g.Match(base) || g.Match(norm) {
			return true
		}
	}
	return false
}

func (w *Watcher) skip(path string) bool {
	if w.excluded(path) {
		return true
	}
	return !w.claims(path)
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if w.skip(path) {
			return nil
		}
		w.scheduleChange(path)
		return nil
	})
}
