package engine

import (
	"context"
	"sync"
)

// Serialize wraps an engine that is not safe for concurrent use so that at
// most one Generate call runs at a time. Waiting callers give up when their
// context is done.
func Serialize(e Engine) Engine {
	if _, ok := e.(*serialEngine); ok {
		return e
	}
	return &serialEngine{inner: e, slot: make(chan struct{}, 1)}
}

type serialEngine struct {
	inner Engine
	slot  chan struct{}
	once  sync.Once
}

func (s *serialEngine) Generate(ctx context.Context, prompt string, maxLength int, stop StoppingCriteria) (string, error) {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-s.slot }()
	return s.inner.Generate(ctx, prompt, maxLength, stop)
}

// Close closes the wrapped engine once, if it holds resources.
func (s *serialEngine) Close() error {
	var err error
	s.once.Do(func() {
		if c, ok := s.inner.(Closer); ok {
			err = c.Close()
		}
	})
	return err
}
