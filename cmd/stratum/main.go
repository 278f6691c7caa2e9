// # cmd/stratum/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"stratum/internal/adapter/treesitter"
	"stratum/internal/core/app"
	"stratum/internal/core/config"
	"stratum/internal/core/ports"
	"stratum/internal/core/watcher"
	"stratum/internal/data/factstore"
	"stratum/internal/engine/background"
	"stratum/internal/engine/facts"
	"stratum/internal/engine/source"
	"stratum/internal/shared/observability"
	"stratum/internal/shared/util"
)

var (
	configPath = flag.String("config", "", "Path to config file (defaults apply when empty)")
	once       = flag.Bool("once", false, "Scan watch paths once, parse, and exit")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("stratum v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := run(cfg); err != nil {
		slog.Error("stratum exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	metricsServer := observability.NewServer(cfg.Observability.MetricsAddr)
	if err := metricsServer.Start(ctx); err != nil {
		return fmt.Errorf("start metrics server: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Stop(shutdownCtx)
	}()

	var store ports.FactStore
	var session string
	if cfg.Store.Enabled {
		s, err := factstore.Open(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open fact store: %w", err)
		}
		defer s.Close()
		store = s
		session = factstore.NewSessionID()
		slog.Info("fact store enabled", "path", cfg.Store.Path, "session", session)
	}

	grammar, err := app.DefaultGrammar()
	if err != nil {
		return fmt.Errorf("build grammar: %w", err)
	}

	adapter := treesitter.NewAdapter()
	resolve := func(path string) string {
		lang := treesitter.LanguageForPath(path)
		if lang == "" {
			return ""
		}
		if len(cfg.Languages) > 0 && !cfg.LanguageEnabled(lang) {
			return ""
		}
		return lang
	}

	sess := app.NewSession(grammar, adapter, resolve, app.Options{
		CacheCapacity: cfg.Engine.CacheCapacity,
		MaxParseDepth: cfg.Engine.MaxParseDepth,
		EditTTL:       cfg.Viewport.EditTTL,
		Session:       session,
		Store:         store,
	})

	if *once {
		return scanOnce(ctx, cfg, sess, resolve)
	}

	if !cfg.Watch.Enabled {
		return fmt.Errorf("nothing to do: enable [watch] in the config or pass -once")
	}

	pools := make(map[string]*background.Pool)
	defer func() {
		for _, p := range pools {
			p.Stop()
		}
	}()

	onChange := func(paths []string) {
		sess.HandleChanges(ctx, paths)
		if !cfg.Background.Enabled {
			return
		}
		for _, path := range paths {
			doc, ok := sess.Get(path)
			if !ok {
				continue
			}
			if _, exists := pools[path]; exists {
				continue
			}
			engine := doc.Engine
			pool := background.NewPool(engine.Queue(),
				func(ctx context.Context, b source.Boundary) ([]facts.Fact, error) {
					return engine.ParseBoundary(ctx, b, nil)
				},
				background.Config{
					Workers: cfg.Background.Workers,
					Rate:    cfg.Background.Rate,
					Burst:   cfg.Background.Burst,
					Idle:    cfg.Background.Idle,
				})
			pool.Start(ctx)
			go func(path string, pool *background.Pool) {
				for r := range pool.Results() {
					if r.Err != nil {
						slog.Debug("speculative parse failed", "path", path,
							"boundary", r.Boundary.Span.String(), "error", r.Err)
					}
				}
			}(path, pool)
			pools[path] = pool
		}
	}

	w, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Watch.Exclude,
		func(path string) bool { return resolve(path) != "" }, onChange)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Watch(cfg.Watch.Paths); err != nil {
		return fmt.Errorf("watch paths: %w", err)
	}
	slog.Info("watching", "paths", cfg.Watch.Paths, "debounce", cfg.Watch.Debounce)

	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

// scanOnce opens every claimed file under the watch paths, parses the head
// of each document, and prints per-file stats.
func scanOnce(ctx context.Context, cfg *config.Config, sess *app.Session, resolve func(string) string) error {
	roots := cfg.Watch.Paths
	if len(roots) == 0 {
		roots = []string{"."}
	}

	for _, root := range roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return err
			}
			if resolve(path) == "" {
				return nil
			}
			doc, err := sess.Open(ctx, path)
			if err != nil {
				slog.Warn("open failed", "path", path, "error", err)
				return nil
			}
			view := source.NewSpan(0, 4096)
			fs, err := sess.View(ctx, path, view)
			if err != nil {
				slog.Warn("parse failed", "path", path, "error", err)
				return nil
			}
			stats := doc.Engine.Stats()
			slog.Info("parsed", "path", path,
				"boundaries", stats.BoundariesParsed,
				"facts", len(fs),
				"parse_time", stats.TotalParseTime)
			return nil
		})
		if err != nil {
			return fmt.Errorf("scan %s: %w", root, err)
		}
	}
	slog.Debug("scan complete", "paths", len(sess.Paths()), "heap_mb", util.GetHeapAllocMB())
	return nil
}
