package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"textgend/internal/engine"
	"textgend/pkg/types"
)

// fakeSeq is the running sequence handed to the stopping criteria.
type fakeSeq struct {
	prompt string
	toks   []string
}

func (s *fakeSeq) Len() int     { return len(s.toks) }
func (s *fakeSeq) Text() string { return s.prompt + strings.Join(s.toks, "") }

// scriptEngine deterministically produces maxLength tokens " t0", " t1", ...
// Every advanceEvery tokens it advances clock by advanceBy before consulting
// the stopping criteria.
type scriptEngine struct {
	clock        clockwork.FakeClock
	advanceEvery int
	advanceBy    time.Duration
	failAfter    int // fail once this many tokens were produced; <0 disables
	failErr      error
	panicAfter   int // <0 disables

	mu         sync.Mutex
	maxLengths []int
}

func newScriptEngine(clock clockwork.FakeClock) *scriptEngine {
	return &scriptEngine{clock: clock, failAfter: -1, panicAfter: -1}
}

func (e *scriptEngine) Generate(ctx context.Context, prompt string, maxLength int, stop engine.StoppingCriteria) (string, error) {
	e.mu.Lock()
	e.maxLengths = append(e.maxLengths, maxLength)
	e.mu.Unlock()
	seq := &fakeSeq{prompt: prompt}
	for i := 0; i < maxLength; i++ {
		if e.failAfter == i {
			return "", engine.NewModelError("generate", e.failErr)
		}
		if e.panicAfter == i {
			panic("engine exploded")
		}
		seq.toks = append(seq.toks, fmt.Sprintf(" t%d", i))
		if e.clock != nil && e.advanceEvery > 0 && (i+1)%e.advanceEvery == 0 {
			e.clock.Advance(e.advanceBy)
		}
		if stop(seq) {
			break
		}
	}
	return seq.Text(), nil
}

func (e *scriptEngine) lengths() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.maxLengths...)
}

// blockingEngine holds every call until release is closed.
type blockingEngine struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingEngine() *blockingEngine {
	return &blockingEngine{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (e *blockingEngine) Generate(ctx context.Context, prompt string, _ int, _ engine.StoppingCriteria) (string, error) {
	e.entered <- struct{}{}
	select {
	case <-e.release:
		return prompt, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func newTestGenerator(t *testing.T, cfg Config) *Generator {
	t.Helper()
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = g.Close(time.Second) })
	return g
}

func mustStream(t *testing.T, g *Generator, req types.GenerateStreamedRequest) *Stream {
	t.Helper()
	s, err := g.Stream(context.Background(), req)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	return s
}

// drain collects all fragments of s and the terminal error (nil on success).
func drain(t *testing.T, s *Stream) ([]Fragment, error) {
	t.Helper()
	var frags []Fragment
	for {
		f, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return frags, nil
		}
		if err != nil {
			return frags, err
		}
		frags = append(frags, f)
	}
}

func joinFragments(frags []Fragment) string {
	var b strings.Builder
	for _, f := range frags {
		b.WriteString(f.Text)
	}
	return b.String()
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
