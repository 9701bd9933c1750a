package generator

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"textgend/internal/engine"
)

// Fragment is a slice of newly decoded text. Trailing marks the last
// fragment of a successful generation, covering whatever the interceptor had
// not emitted yet.
type Fragment struct {
	Text     string
	Trailing bool
}

// interceptor is the per-call state of the stopping predicate handed to the
// engine. It never blocks: one slot of out is reserved for the trailing
// fragment, and when the rest is full the emission is deferred to a later
// step (the text stays pending, so no fragment is lost).
type interceptor struct {
	ctx      context.Context
	clock    clockwork.Clock
	interval time.Duration
	start    time.Time
	last     string
	out      chan Fragment
	emitted  int
}

func newInterceptor(ctx context.Context, clock clockwork.Clock, interval time.Duration, out chan Fragment) *interceptor {
	return &interceptor{ctx: ctx, clock: clock, interval: interval, start: clock.Now(), out: out}
}

// step is the engine.StoppingCriteria. It reports stop only once ctx is done.
func (ic *interceptor) step(seq engine.Sequence) bool {
	if ic.ctx.Err() != nil {
		return true
	}
	now := ic.clock.Now()
	if now.Sub(ic.start) < ic.interval {
		return false
	}
	if len(ic.out) >= cap(ic.out)-1 {
		return false
	}
	cur := seq.Text()
	ic.out <- Fragment{Text: suffix(cur, ic.last)}
	ic.emitted++
	ic.last = cur
	ic.start = now
	return false
}

// trailing pushes the remainder of final not yet emitted. The reserved slot
// guarantees this send never blocks.
func (ic *interceptor) trailing(final string) {
	ic.out <- Fragment{Text: suffix(final, ic.last), Trailing: true}
	ic.emitted++
	ic.last = final
}

// suffix returns the part of cur after the already emitted prefix.
func suffix(cur, emitted string) string {
	if len(cur) <= len(emitted) {
		return ""
	}
	return cur[len(emitted):]
}
