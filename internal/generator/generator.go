package generator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"textgend/internal/engine"
)

// Generator owns the engine and the worker pool shared by all requests.
type Generator struct {
	engine         engine.Engine
	engineKind     string
	model          string
	pool           *workerPool
	defaults       Defaults
	fragmentBuffer int
	maxLengthLimit int
	clock          clockwork.Clock
	publisher      EventPublisher
	startTime      time.Time

	activeStreams atomic.Int64
	unaryTotal    atomic.Uint64
	streamsTotal  atomic.Uint64
	failuresTotal atomic.Uint64

	mu      sync.RWMutex
	lastErr string
	closed  bool
}

// New constructs a Generator from cfg, applying package defaults to unset fields.
func New(cfg Config) (*Generator, error) {
	if cfg.Engine == nil {
		return nil, errNoEngine
	}
	cfg = cfg.withDefaults()
	if cfg.MaxLengthLimit > 0 && cfg.Defaults.MaxLength > cfg.MaxLengthLimit {
		return nil, fmt.Errorf("generator: default max length %d exceeds limit %d", cfg.Defaults.MaxLength, cfg.MaxLengthLimit)
	}
	pool, err := newWorkerPool(cfg.Workers, cfg.MaxQueueDepth)
	if err != nil {
		return nil, err
	}
	return &Generator{
		engine:         cfg.Engine,
		engineKind:     cfg.EngineKind,
		model:          cfg.Model,
		pool:           pool,
		defaults:       cfg.Defaults,
		fragmentBuffer: cfg.FragmentBuffer,
		maxLengthLimit: cfg.MaxLengthLimit,
		clock:          cfg.Clock,
		publisher:      cfg.Publisher,
		startTime:      time.Now(),
	}, nil
}

// Defaults returns the request defaults in effect.
func (g *Generator) Defaults() Defaults { return g.defaults }

// Ready reports whether the generator accepts requests.
func (g *Generator) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return !g.closed
}

// Close stops accepting new jobs, waits up to timeout for running ones and
// closes the engine if it holds resources.
func (g *Generator) Close(timeout time.Duration) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()
	err := g.pool.release(timeout)
	if c, ok := g.engine.(engine.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// maxLength resolves the requested generation bound against the defaults
// and the configured limit.
func (g *Generator) maxLength(v uint32) (int, error) {
	n := g.defaults.maxLength(v)
	if g.maxLengthLimit > 0 && n > g.maxLengthLimit {
		return 0, invalidRequestError{msg: fmt.Sprintf("max_length %d exceeds limit %d", n, g.maxLengthLimit)}
	}
	return n, nil
}

func (g *Generator) recordFailure(err error) {
	g.failuresTotal.Add(1)
	g.mu.Lock()
	g.lastErr = err.Error()
	g.mu.Unlock()
}

func (g *Generator) publish(ctx context.Context, name string, fields map[string]any) {
	g.publisher.Publish(Event{Name: name, RequestID: RequestID(ctx), Fields: fields})
}
