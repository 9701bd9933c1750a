package generator

import (
	"time"

	"textgend/pkg/types"
)

// Status builds a status snapshot for the admin API.
func (g *Generator) Status() types.StatusResponse {
	g.mu.RLock()
	lastErr := g.lastErr
	g.mu.RUnlock()
	now := time.Now()
	return types.StatusResponse{
		Engine: g.engineKind,
		Model:  g.model,
		Pool: types.PoolStatus{
			Workers:       g.pool.size(),
			Running:       g.pool.running(),
			Waiting:       g.pool.waiting(),
			MaxQueueDepth: g.pool.queueDepth,
		},
		ActiveStreams:     g.activeStreams.Load(),
		GenerationsTotal:  g.unaryTotal.Load(),
		StreamsTotal:      g.streamsTotal.Load(),
		FailuresTotal:     g.failuresTotal.Load(),
		DefaultMaxLength:  g.defaults.MaxLength,
		DefaultIntervalMs: g.defaults.Interval.Milliseconds(),
		LastError:         lastErr,
		UptimeSeconds:     int64(now.Sub(g.startTime).Seconds()),
		ServerTimeUnix:    now.Unix(),
	}
}
