package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"textgend/internal/engine"
	"textgend/pkg/types"
)

func TestNew_RequiresEngine(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, errNoEngine) {
		t.Fatalf("err = %v, want errNoEngine", err)
	}
}

func TestNew_RejectsDefaultAboveLimit(t *testing.T) {
	if _, err := New(Config{Engine: newScriptEngine(nil), MaxLengthLimit: 10}); err == nil {
		t.Fatalf("expected error for default max length above the limit")
	}
	g, err := New(Config{Engine: newScriptEngine(nil), MaxLengthLimit: DefaultMaxLength})
	if err != nil {
		t.Fatalf("New at limit: %v", err)
	}
	_ = g.Close(0)
}

func TestNew_AppliesDefaults(t *testing.T) {
	g := newTestGenerator(t, Config{Engine: newScriptEngine(nil)})
	d := g.Defaults()
	if d.MaxLength != DefaultMaxLength || d.Interval != DefaultInterval {
		t.Fatalf("defaults = %+v", d)
	}
	st := g.Status()
	if st.Pool.Workers != defaultWorkers || st.Pool.MaxQueueDepth != defaultMaxQueueDepth {
		t.Fatalf("pool = %+v", st.Pool)
	}
	if g.fragmentBuffer != defaultFragmentBuffer {
		t.Fatalf("fragment buffer = %d", g.fragmentBuffer)
	}
}

func TestDefaults_Substitution(t *testing.T) {
	d := Defaults{MaxLength: 20, Interval: time.Second}
	cases := []struct {
		in       uint32
		wantLen  int
		wantIntv time.Duration
	}{
		{0, 20, time.Second},
		{1, 1, time.Millisecond},
		{150, 150, 150 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := d.maxLength(tc.in); got != tc.wantLen {
			t.Fatalf("maxLength(%d) = %d, want %d", tc.in, got, tc.wantLen)
		}
		if got := d.interval(tc.in); got != tc.wantIntv {
			t.Fatalf("interval(%d) = %v, want %v", tc.in, got, tc.wantIntv)
		}
	}
	// repeated lookups observe the same values
	for i := 0; i < 3; i++ {
		if d.maxLength(0) != 20 || d.interval(0) != time.Second {
			t.Fatalf("defaults changed between calls")
		}
	}
}

func TestGenerate_DefaultMaxLength(t *testing.T) {
	eng := newScriptEngine(nil)
	g := newTestGenerator(t, Config{Engine: eng})
	for i := 0; i < 2; i++ {
		if _, err := g.Generate(context.Background(), types.GenerateRequest{Text: "hi"}); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}
	if _, err := g.Generate(context.Background(), types.GenerateRequest{Text: "hi", MaxLength: 7}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	got := eng.lengths()
	want := []int{20, 20, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("max lengths = %v, want %v", got, want)
		}
	}
}

func TestGenerate_OmittedMaxLengthEqualsExplicitDefault(t *testing.T) {
	eng := newScriptEngine(nil)
	g := newTestGenerator(t, Config{Engine: eng})
	ctx := context.Background()
	omitted, err := g.Generate(ctx, types.GenerateRequest{Text: "hi"})
	if err != nil {
		t.Fatalf("Generate omitted: %v", err)
	}
	explicit, err := g.Generate(ctx, types.GenerateRequest{Text: "hi", MaxLength: DefaultMaxLength})
	if err != nil {
		t.Fatalf("Generate explicit: %v", err)
	}
	if _, err := drain(t, mustStream(t, g, types.GenerateStreamedRequest{Text: "hi"})); err != nil {
		t.Fatalf("stream omitted: %v", err)
	}
	if _, err := drain(t, mustStream(t, g, types.GenerateStreamedRequest{Text: "hi", MaxLength: DefaultMaxLength})); err != nil {
		t.Fatalf("stream explicit: %v", err)
	}
	if omitted != explicit {
		t.Fatalf("omitted = %q, explicit = %q", omitted, explicit)
	}
	got := eng.lengths()
	if len(got) != 4 {
		t.Fatalf("engine calls = %v", got)
	}
	for _, n := range got {
		if n != DefaultMaxLength {
			t.Fatalf("engine bounds = %v, want all %d", got, DefaultMaxLength)
		}
	}
}

func TestGenerate_ReturnsFullText(t *testing.T) {
	g := newTestGenerator(t, Config{Engine: newScriptEngine(nil)})
	text, err := g.Generate(context.Background(), types.GenerateRequest{Text: "Hello", MaxLength: 3})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "Hello t0 t1 t2" {
		t.Fatalf("text = %q", text)
	}
}

func TestGenerate_ModelErrorPropagates(t *testing.T) {
	eng := newScriptEngine(nil)
	eng.failAfter, eng.failErr = 1, errors.New("oom")
	g := newTestGenerator(t, Config{Engine: eng})
	_, err := g.Generate(context.Background(), types.GenerateRequest{Text: "x"})
	if !engine.IsModelError(err) {
		t.Fatalf("err = %v, want model error", err)
	}
	st := g.Status()
	if st.FailuresTotal != 1 || st.LastError == "" {
		t.Fatalf("status = %+v", st)
	}
}

func TestGenerate_PanicRecovered(t *testing.T) {
	eng := newScriptEngine(nil)
	eng.panicAfter = 0
	g := newTestGenerator(t, Config{Engine: eng})
	if _, err := g.Generate(context.Background(), types.GenerateRequest{Text: "x"}); !engine.IsModelError(err) {
		t.Fatalf("err = %v, want model error", err)
	}
	// the worker survives
	eng.panicAfter = -1
	if _, err := g.Generate(context.Background(), types.GenerateRequest{Text: "x"}); err != nil {
		t.Fatalf("Generate after panic: %v", err)
	}
}

func TestGenerate_CanceledContext(t *testing.T) {
	g := newTestGenerator(t, Config{Engine: newScriptEngine(nil)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Generate(ctx, types.GenerateRequest{Text: "x", MaxLength: 100}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestGenerate_TooBusy(t *testing.T) {
	eng := newBlockingEngine()
	g := newTestGenerator(t, Config{Engine: eng, Workers: 1, MaxQueueDepth: 1})
	defer close(eng.release)

	results := make(chan error, 2)
	go func() {
		_, err := g.Generate(context.Background(), types.GenerateRequest{Text: "a"})
		results <- err
	}()
	<-eng.entered
	go func() {
		_, err := g.Generate(context.Background(), types.GenerateRequest{Text: "b"})
		results <- err
	}()
	waitFor(t, "a queued submitter", func() bool { return g.Status().Pool.Waiting == 1 })

	_, err := g.Generate(context.Background(), types.GenerateRequest{Text: "c"})
	if !IsTooBusy(err) {
		t.Fatalf("err = %v, want too busy", err)
	}
	_, err = g.Stream(context.Background(), types.GenerateStreamedRequest{Text: "d"})
	if !IsTooBusy(err) {
		t.Fatalf("stream err = %v, want too busy", err)
	}
}

func TestClose_RejectsNewWork(t *testing.T) {
	g, err := New(Config{Engine: newScriptEngine(nil)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !g.Ready() {
		t.Fatalf("expected ready")
	}
	if err := g.Close(time.Second); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if g.Ready() {
		t.Fatalf("expected not ready after Close")
	}
	if _, err := g.Generate(context.Background(), types.GenerateRequest{Text: "x"}); !IsPoolClosed(err) {
		t.Fatalf("err = %v, want pool closed", err)
	}
	if err := g.Close(time.Second); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

type closingEngine struct {
	*scriptEngine
	closed bool
}

func (c *closingEngine) Close() error { c.closed = true; return nil }

func TestClose_ClosesEngine(t *testing.T) {
	eng := &closingEngine{scriptEngine: newScriptEngine(nil)}
	g, err := New(Config{Engine: eng})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = g.Close(0)
	if !eng.closed {
		t.Fatalf("engine not closed")
	}
}

func TestEvents_PublishedWithRequestID(t *testing.T) {
	pub := NewMemoryPublisher()
	g := newTestGenerator(t, Config{Engine: newScriptEngine(nil), Publisher: pub})
	ctx := WithRequestID(context.Background(), "req-1")
	if _, err := g.Generate(ctx, types.GenerateRequest{Text: "x", MaxLength: 2}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := g.GenerateStreamed(ctx, types.GenerateStreamedRequest{Text: "x", MaxLength: 2}, func(Fragment) error { return nil }); err != nil {
		t.Fatalf("GenerateStreamed: %v", err)
	}
	want := []string{"generate_start", "generate_done", "stream_start", "stream_done"}
	names := pub.Names()
	if len(names) != len(want) {
		t.Fatalf("events = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("events = %v, want %v", names, want)
		}
	}
	for _, e := range pub.Events() {
		if e.RequestID != "req-1" {
			t.Fatalf("event %s request id = %q", e.Name, e.RequestID)
		}
	}
	st := g.Status()
	if st.GenerationsTotal != 1 || st.StreamsTotal != 1 || st.ActiveStreams != 0 {
		t.Fatalf("status = %+v", st)
	}
}

func TestLogPublisher_DoesNotPanic(t *testing.T) {
	LogPublisher{}.Publish(Event{Name: "x", RequestID: "r", Fields: map[string]any{"k": 1}})
}

func TestGenerate_MaxLengthLimit(t *testing.T) {
	eng := newScriptEngine(nil)
	g := newTestGenerator(t, Config{Engine: eng, MaxLengthLimit: 64})
	if _, err := g.Generate(context.Background(), types.GenerateRequest{Text: "x", MaxLength: 65}); !IsInvalidRequest(err) {
		t.Fatalf("err = %v, want invalid request", err)
	}
	if _, err := g.Stream(context.Background(), types.GenerateStreamedRequest{Text: "x", MaxLength: 1000}); !IsInvalidRequest(err) {
		t.Fatalf("stream err = %v, want invalid request", err)
	}
	if _, err := g.Generate(context.Background(), types.GenerateRequest{Text: "x", MaxLength: 64}); err != nil {
		t.Fatalf("Generate at limit: %v", err)
	}
	if len(eng.lengths()) != 1 {
		t.Fatalf("rejected requests reached the engine: %v", eng.lengths())
	}
}
