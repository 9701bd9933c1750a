package generator

import (
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"

	"textgend/internal/engine"
)

// workerPool runs generation jobs on a bounded set of goroutines owned by
// ants, separate from the goroutines handling RPCs. Submitters beyond the
// queue depth are rejected instead of piling up.
type workerPool struct {
	pool       *ants.Pool
	queueDepth int
}

func newWorkerPool(workers, queueDepth int) (*workerPool, error) {
	p, err := ants.NewPool(workers,
		ants.WithMaxBlockingTasks(queueDepth),
		ants.WithLogger(logger()),
		ants.WithPanicHandler(func(v any) {
			logger().Error().Interface("panic", v).Msg("worker panic escaped job recovery")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create generation pool: %w", err)
	}
	return &workerPool{pool: p, queueDepth: queueDepth}, nil
}

// job is the handle of one submitted generation. Its outcome is readable
// once done is closed.
type job struct {
	done chan struct{}
	text string
	err  error
}

// wait blocks until the job finished and returns its outcome.
func (j *job) wait() (string, error) {
	<-j.done
	return j.text, j.err
}

// submit schedules fn on the pool. A panic inside fn is recovered and
// reported as the job's error so that fn's deferred cleanup (and the
// caller's wait) always completes.
func (p *workerPool) submit(fn func() (string, error)) (*job, error) {
	j := &job{done: make(chan struct{})}
	task := func() {
		poolBusy.Inc()
		defer poolBusy.Dec()
		defer close(j.done)
		defer func() {
			if r := recover(); r != nil {
				j.text = ""
				j.err = engine.NewModelError("generate", fmt.Errorf("panic: %v", r))
			}
		}()
		j.text, j.err = fn()
	}
	poolWaiting.Inc()
	err := p.pool.Submit(task)
	poolWaiting.Dec()
	switch {
	case err == nil:
		return j, nil
	case errors.Is(err, ants.ErrPoolOverload):
		backpressureTotal.Inc()
		return nil, tooBusyError{waiting: p.pool.Waiting()}
	case errors.Is(err, ants.ErrPoolClosed):
		return nil, poolClosedError{}
	default:
		return nil, err
	}
}

func (p *workerPool) running() int { return p.pool.Running() }
func (p *workerPool) waiting() int { return p.pool.Waiting() }
func (p *workerPool) size() int    { return p.pool.Cap() }

// release stops accepting jobs and waits up to timeout for running ones.
func (p *workerPool) release(timeout time.Duration) error {
	if timeout <= 0 {
		p.pool.Release()
		return nil
	}
	return p.pool.ReleaseTimeout(timeout)
}
