package generator

import (
	"time"

	"github.com/jonboulle/clockwork"

	"textgend/internal/engine"
)

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultMaxLength      = 20
	DefaultInterval       = time.Second
	defaultWorkers        = 20
	defaultMaxQueueDepth  = 32
	defaultFragmentBuffer = 256
)

// Defaults holds the process-wide request defaults. It is built once at
// startup and never mutated.
type Defaults struct {
	MaxLength int
	Interval  time.Duration
}

// maxLength returns the generation bound for a requested value; 0 selects the default.
func (d Defaults) maxLength(v uint32) int {
	if v == 0 {
		return d.MaxLength
	}
	return int(v)
}

// interval returns the fragment interval for a requested value in milliseconds; 0 selects the default.
func (d Defaults) interval(ms uint32) time.Duration {
	if ms == 0 {
		return d.Interval
	}
	return time.Duration(ms) * time.Millisecond
}

// Config encapsulates all tunables for Generator construction.
type Config struct {
	Engine engine.Engine
	// EngineKind and Model are reported by Status only.
	EngineKind string
	Model      string
	// Workers bounds concurrent generations.
	Workers int
	// MaxQueueDepth bounds submitters waiting for a worker; beyond it requests
	// are rejected as too busy.
	MaxQueueDepth int
	// FragmentBuffer bounds the per-stream fragment channel.
	FragmentBuffer int
	// MaxLengthLimit rejects requests asking for more tokens; 0 disables the check.
	MaxLengthLimit int
	Defaults       Defaults
	Publisher      EventPublisher
	// Clock drives fragment interval gating; tests inject a fake clock.
	Clock clockwork.Clock
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = defaultMaxQueueDepth
	}
	if c.FragmentBuffer <= 0 {
		c.FragmentBuffer = defaultFragmentBuffer
	}
	if c.Defaults.MaxLength <= 0 {
		c.Defaults.MaxLength = DefaultMaxLength
	}
	if c.Defaults.Interval <= 0 {
		c.Defaults.Interval = DefaultInterval
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return c
}
