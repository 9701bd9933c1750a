package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// LlamaServerConfig configures an engine backed by a llama.cpp server.
type LlamaServerConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
}

// LlamaServer streams completions from a llama.cpp server over its
// OpenAI-compatible endpoint. Every streamed delta counts as one generation
// step. It is safe for concurrent use.
type LlamaServer struct {
	baseURL    string
	apiKey     string
	model      string
	reqTimeout time.Duration
	httpClient *http.Client
}

// NewLlamaServer constructs a server-backed engine.
func NewLlamaServer(cfg LlamaServerConfig) *LlamaServer {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout=0: requests carry context-based deadlines instead.
	return &LlamaServer{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		reqTimeout: cfg.RequestTimeout,
		httpClient: &http.Client{Transport: tr, Timeout: 0},
	}
}

// completionRequest represents the payload for /v1/completions.
type completionRequest struct {
	Model     string `json:"model,omitempty"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Stream    bool   `json:"stream"`
}

type tokenizeRequest struct {
	Content string `json:"content"`
}

type tokenizeResponse struct {
	Tokens []int `json:"tokens"`
}

type completionChoice struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type completionChunk struct {
	Choices []completionChoice `json:"choices"`
	// Native llama.cpp /completion streams use a bare content field.
	Content string `json:"content"`
}

func (s *LlamaServer) Generate(ctx context.Context, prompt string, maxLength int, stop StoppingCriteria) (string, error) {
	if s.httpClient == nil {
		return "", NewModelError("generate", errors.New("llama server engine not initialized"))
	}
	if s.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.reqTimeout)
		defer cancel()
	}
	promptTokens, err := s.countTokens(ctx, prompt)
	if err != nil {
		return "", err
	}
	req, err := s.newRequest(ctx, "/v1/completions", completionRequest{
		Model:     s.model,
		Prompt:    prompt,
		MaxTokens: newTokens(maxLength, promptTokens),
		Stream:    true,
	})
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", NewModelError("completion", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", NewModelError("completion", fmt.Errorf("llama server http error: %s: %s", resp.Status, strings.TrimSpace(string(b))))
	}

	seq := &pieces{prompt: prompt}
	r := bufio.NewReader(resp.Body)
	for {
		line, rerr := r.ReadString('\n')
		if tok, done, ok := parseStreamLine(line); done {
			break
		} else if ok {
			seq.push(tok)
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if stop != nil && stop(seq) {
				break
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", NewModelError("stream", rerr)
		}
	}
	return seq.Text(), nil
}

// newRequest builds a JSON POST to path on the server.
func (s *LlamaServer) newRequest(ctx context.Context, path string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewModelError("encode", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, NewModelError("request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	return req, nil
}

// countTokens asks the server's /tokenize endpoint how many tokens prompt
// takes, without special tokens.
func (s *LlamaServer) countTokens(ctx context.Context, prompt string) (int, error) {
	if prompt == "" {
		return 0, nil
	}
	req, err := s.newRequest(ctx, "/tokenize", tokenizeRequest{Content: prompt})
	if err != nil {
		return 0, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, NewModelError("tokenize", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, NewModelError("tokenize", fmt.Errorf("llama server http error: %s: %s", resp.Status, strings.TrimSpace(string(b))))
	}
	var out tokenizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, NewModelError("tokenize", err)
	}
	return len(out.Tokens), nil
}

// parseStreamLine extracts the token piece from one SSE line. done reports
// the end-of-stream marker; ok reports whether the line carried a piece.
func parseStreamLine(line string) (tok string, done, ok bool) {
	l := strings.TrimSpace(line)
	if l == "" || !strings.HasPrefix(strings.ToLower(l), "data:") {
		return "", false, false
	}
	data := strings.TrimSpace(l[len("data:"):])
	if data == "[DONE]" {
		return "", true, false
	}
	var chunk completionChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		logger().Debug().Str("line", l).Msg("llama server: unknown stream line")
		return "", false, false
	}
	if len(chunk.Choices) > 0 {
		return chunk.Choices[0].Text, false, true
	}
	if chunk.Content != "" {
		return chunk.Content, false, true
	}
	return "", false, false
}
