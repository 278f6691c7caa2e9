// # internal/engine/background/pool.go
//
// Optional predictive parsing: a bounded worker pool drains the viewport
// manager's priority queue and parses boundaries opportunistically. The
// pool is throttled so speculative work never starves interactive parses,
// and it is advisory only: skipping it changes performance, never results.
package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"stratum/internal/engine/facts"
	"stratum/internal/engine/source"
	"stratum/internal/engine/viewport"
	"stratum/internal/shared/observability"
	"stratum/internal/shared/util"
)

// ParseFunc parses one boundary and returns its facts. The pool feeds it
// boundaries popped from the queue.
type ParseFunc func(ctx context.Context, b source.Boundary) ([]facts.Fact, error)

// Result is published for every boundary the pool completes.
type Result struct {
	Boundary source.Boundary
	Reason   viewport.Reason
	Facts    []facts.Fact
	Err      error
}

type Pool struct {
	queue   *viewport.Manager
	parse   ParseFunc
	limiter *util.Limiter
	workers int
	idle    time.Duration

	results chan Result
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	once    sync.Once
}

// Config controls pool size and throttling. Zero values get sane defaults.
type Config struct {
	Workers int
	// Rate is boundaries per second across all workers; Burst is the
	// token-bucket burst size.
	Rate  float64
	Burst int
	// Idle is how long a worker sleeps when the queue is empty.
	Idle time.Duration
}

func NewPool(queue *viewport.Manager, parse ParseFunc, cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Workers
	}
	if cfg.Idle <= 0 {
		cfg.Idle = 50 * time.Millisecond
	}
	return &Pool{
		queue:   queue,
		parse:   parse,
		limiter: util.NewLimiter(cfg.Rate, cfg.Burst),
		workers: cfg.Workers,
		idle:    cfg.Idle,
		results: make(chan Result, cfg.Workers*4),
	}
}

// Start launches the workers. The pool stops when ctx is cancelled or Stop
// is called.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Results delivers completed background parses. The channel closes after
// Stop once all workers have drained.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Stop cancels the workers and waits for them to finish.
func (p *Pool) Stop() {
	p.once.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		p.wg.Wait()
		close(p.results)
	})
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		if err := p.limiter.Wait(ctx, 1); err != nil {
			return
		}

		item, ok := p.queue.Next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.idle):
			}
			continue
		}

		fs, err := p.parse(ctx, item.Boundary)
		if err != nil {
			slog.Debug("background parse failed",
				"worker", id, "boundary", item.Boundary.Span.String(), "error", err)
		} else {
			observability.BackgroundParsesTotal.Inc()
		}

		select {
		case p.results <- Result{Boundary: item.Boundary, Reason: item.Reason, Facts: fs, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}
