package generator

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"textgend/pkg/types"
)

// StreamState is the lifecycle of one streamed call:
// STARTED → (EMITTING)* → DRAINING_TRAILING → COMPLETED, or → FAILED after
// zero or more delivered fragments.
type StreamState int32

const (
	StreamStarted StreamState = iota
	StreamEmitting
	StreamDrainingTrailing
	StreamCompleted
	StreamFailed
)

func (s StreamState) String() string {
	switch s {
	case StreamStarted:
		return "started"
	case StreamEmitting:
		return "emitting"
	case StreamDrainingTrailing:
		return "draining_trailing"
	case StreamCompleted:
		return "completed"
	case StreamFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stream bridges one blocking engine call running on the worker pool to a
// pull-based fragment sequence. The fragment channel is owned by this call
// alone: the job is its only sender and closes it exactly once (the
// completion sentinel) after the trailing fragment.
type Stream struct {
	g         *Generator
	ctx       context.Context
	fragments chan Fragment
	job       *job
	state     atomic.Int32
	started   time.Time
	delivered int

	once sync.Once
	err  error
}

// Stream starts a streamed generation and returns its handle. The caller
// must drain it with Recv until Recv returns an error (io.EOF on success).
func (g *Generator) Stream(ctx context.Context, req types.GenerateStreamedRequest) (*Stream, error) {
	maxLength, err := g.maxLength(req.MaxLength)
	if err != nil {
		return nil, err
	}
	interval := g.defaults.interval(req.IntermediateResultIntervalMs)
	out := make(chan Fragment, g.fragmentBuffer+1)
	ic := newInterceptor(ctx, g.clock, interval, out)

	j, err := g.pool.submit(func() (string, error) {
		defer close(out)
		text, err := g.engine.Generate(ctx, req.Text, maxLength, ic.step)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			return "", err
		}
		ic.trailing(text)
		return text, nil
	})
	if err != nil {
		g.recordFailure(err)
		return nil, err
	}
	s := &Stream{g: g, ctx: ctx, fragments: out, job: j, started: time.Now()}
	activeStreams.Inc()
	g.activeStreams.Add(1)
	g.publish(ctx, "stream_start", map[string]any{"max_length": maxLength, "interval_ms": interval.Milliseconds()})
	logger().Debug().Str("request_id", RequestID(ctx)).Int("max_length", maxLength).Dur("interval", interval).Msg("stream start")
	return s, nil
}

// Recv returns the next fragment in generation order. After the sentinel
// it waits for the job's outcome and returns io.EOF on success or the
// generation error otherwise; subsequent calls repeat that result.
func (s *Stream) Recv() (Fragment, error) {
	if f, ok := <-s.fragments; ok {
		if f.Trailing {
			s.state.Store(int32(StreamDrainingTrailing))
		} else {
			s.state.Store(int32(StreamEmitting))
		}
		s.delivered++
		fragmentsTotal.Inc()
		fragmentBytesTotal.Add(float64(len(f.Text)))
		return f, nil
	}
	_, err := s.job.wait()
	s.finish(err)
	if s.err != nil {
		return Fragment{}, s.err
	}
	return Fragment{}, io.EOF
}

// Abort marks the stream failed because its consumer went away. The job
// observes the canceled call context and ends on its own.
func (s *Stream) Abort(err error) { s.finish(err) }

// State reports the current lifecycle state.
func (s *Stream) State() StreamState { return StreamState(s.state.Load()) }

func (s *Stream) finish(err error) {
	s.once.Do(func() {
		s.err = err
		dur := time.Since(s.started)
		s.g.activeStreams.Add(-1)
		activeStreams.Dec()
		fields := map[string]any{"fragments": s.delivered, "duration_ms": dur.Milliseconds()}
		if err != nil {
			s.state.Store(int32(StreamFailed))
			s.g.recordFailure(err)
			generationDuration.WithLabelValues("stream", "error").Observe(dur.Seconds())
			fields["error"] = err.Error()
			s.g.publish(s.ctx, "stream_error", fields)
			logger().Info().Str("request_id", RequestID(s.ctx)).Int("fragments", s.delivered).Dur("dur", dur).Err(err).Msg("stream failed")
			return
		}
		s.state.Store(int32(StreamCompleted))
		s.g.streamsTotal.Add(1)
		generationDuration.WithLabelValues("stream", "ok").Observe(dur.Seconds())
		s.g.publish(s.ctx, "stream_done", fields)
		logger().Debug().Str("request_id", RequestID(s.ctx)).Int("fragments", s.delivered).Dur("dur", dur).Msg("stream done")
	})
}

// GenerateStreamed runs a streamed generation and hands every fragment to
// send in order. Fragments already sent stay delivered when the generation
// later fails; the failure is returned after the last fragment.
func (g *Generator) GenerateStreamed(ctx context.Context, req types.GenerateStreamedRequest, send func(Fragment) error) error {
	s, err := g.Stream(ctx, req)
	if err != nil {
		return err
	}
	for {
		f, err := s.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := send(f); err != nil {
			s.Abort(err)
			return err
		}
	}
}
