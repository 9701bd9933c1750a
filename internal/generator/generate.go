package generator

import (
	"context"
	"time"

	"textgend/internal/engine"
	"textgend/pkg/types"
)

// Generate runs one generation to completion on the worker pool and returns
// the final text. The engine is asked to stop early only when ctx is done.
func (g *Generator) Generate(ctx context.Context, req types.GenerateRequest) (string, error) {
	maxLength, err := g.maxLength(req.MaxLength)
	if err != nil {
		return "", err
	}
	start := time.Now()
	g.publish(ctx, "generate_start", map[string]any{"max_length": maxLength})

	j, err := g.pool.submit(func() (string, error) {
		text, err := g.engine.Generate(ctx, req.Text, maxLength, stopOnDone(ctx))
		if err == nil {
			err = ctx.Err()
		}
		return text, err
	})
	if err != nil {
		g.recordFailure(err)
		return "", err
	}
	text, err := j.wait()
	dur := time.Since(start)
	if err != nil {
		g.recordFailure(err)
		generationDuration.WithLabelValues("unary", "error").Observe(dur.Seconds())
		g.publish(ctx, "generate_error", map[string]any{"error": err.Error(), "duration_ms": dur.Milliseconds()})
		return "", err
	}
	g.unaryTotal.Add(1)
	generationDuration.WithLabelValues("unary", "ok").Observe(dur.Seconds())
	g.publish(ctx, "generate_done", map[string]any{"bytes": len(text), "duration_ms": dur.Milliseconds()})
	return text, nil
}

// stopOnDone never stops a live call; it ends generation once ctx is done.
func stopOnDone(ctx context.Context) engine.StoppingCriteria {
	return func(engine.Sequence) bool { return ctx.Err() != nil }
}
