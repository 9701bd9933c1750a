package engine

import (
	"fmt"
	"strings"
	"time"

	"textgend/internal/registry"
)

// Engine kinds accepted by New.
const (
	KindLlama       = "llama"
	KindLlamaServer = "llama-server"
)

// Config selects and configures the engine served by the daemon.
type Config struct {
	Kind string
	// Model is a file path or a model id resolved against ModelsDir (llama),
	// or the model name forwarded to the server (llama-server).
	Model          string
	ModelsDir      string
	ServerURL      string
	APIKey         string
	RequestTimeout time.Duration
	ContextSize    int
	Threads        int
}

// Defaults applied when corresponding Config fields are unset.
const (
	defaultKind        = KindLlamaServer
	defaultServerURL   = "http://127.0.0.1:8080"
	defaultContextSize = 1024
	defaultThreads     = 4
)

// New constructs the engine described by cfg.
func New(cfg Config) (Engine, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	if kind == "" {
		kind = defaultKind
	}
	switch kind {
	case KindLlama:
		if !llamaBuilt {
			return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
		}
		path, err := registry.Resolve(cfg.Model, cfg.ModelsDir)
		if err != nil {
			return nil, fmt.Errorf("resolve model: %w", err)
		}
		ctxSize := cfg.ContextSize
		if ctxSize <= 0 {
			ctxSize = defaultContextSize
		}
		threads := cfg.Threads
		if threads <= 0 {
			threads = defaultThreads
		}
		logger().Info().Str("engine", kind).Str("model", path).Int("ctx", ctxSize).Int("threads", threads).Msg("loading model")
		return NewLlama(path, ctxSize, threads)
	case KindLlamaServer:
		url := strings.TrimSpace(cfg.ServerURL)
		if url == "" {
			url = defaultServerURL
		}
		logger().Info().Str("engine", kind).Str("url", url).Str("model", cfg.Model).Msg("using llama server")
		return NewLlamaServer(LlamaServerConfig{
			BaseURL:        url,
			APIKey:         cfg.APIKey,
			Model:          cfg.Model,
			RequestTimeout: cfg.RequestTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown engine kind %q", cfg.Kind)
	}
}
