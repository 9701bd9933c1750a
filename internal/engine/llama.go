//go:build llama

package engine

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
const llamaBuilt = true

// llamaEngine owns a model loaded in-process. go-llama.cpp keeps a single
// token callback per model, so calls are serialized by NewLlama.
type llamaEngine struct {
	model   *llama.LLama
	threads int
}

// NewLlama loads the model at path. The returned engine is safe for
// concurrent use (calls run one at a time).
func NewLlama(path string, ctxSize, threads int) (Engine, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	m, err := llama.New(path, llama.SetContext(ctxSize))
	if err != nil {
		return nil, NewModelError("load", err)
	}
	return Serialize(&llamaEngine{model: m, threads: threads}), nil
}

func (e *llamaEngine) Generate(ctx context.Context, prompt string, maxLength int, stop StoppingCriteria) (string, error) {
	if e.model == nil {
		return "", NewModelError("generate", errors.New("llama model not initialized"))
	}
	threads := llama.SetThreads(max(1, e.threads))
	promptTokens := 0
	if prompt != "" {
		n, _, err := e.model.TokenizeString(prompt, threads)
		if err != nil {
			return "", NewModelError("tokenize", err)
		}
		promptTokens = int(n)
	}
	// Predict trims its own result, so the text is rebuilt from the callback pieces.
	return collect(ctx, prompt, stop, func(emit func(string) bool) error {
		e.model.SetTokenCallback(emit)
		defer e.model.SetTokenCallback(nil)
		_, err := e.model.Predict(prompt, llama.SetTokens(newTokens(maxLength, promptTokens)), threads)
		return err
	})
}

func (e *llamaEngine) Close() error {
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	return nil
}
