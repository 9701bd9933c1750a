// Package engine defines the contract of the generation engine (model plus
// tokenizer) and the concrete engines the daemon can serve:
//
//   - llama: in-process llama.cpp through go-llama.cpp. Built with `-tags=llama`;
//     without the tag a stub reports the dependency as unavailable.
//   - llama-server: a running llama.cpp server, streamed over its
//     OpenAI-compatible /v1/completions endpoint.
//
// Engines are opaque, blocking units of work. The only per-step hook is the
// StoppingCriteria passed to Generate.
package engine

import "context"

// Sequence is the running token sequence of one generation call: the prompt
// followed by every token sampled so far.
type Sequence interface {
	// Len is the number of tokens in the sequence.
	Len() int
	// Text decodes the sequence with special tokens stripped.
	Text() string
}

// StoppingCriteria is consulted after every generated token. Returning true
// asks the engine to end generation early.
type StoppingCriteria func(seq Sequence) bool

// Engine generates text continuing a prompt.
type Engine interface {
	// Generate runs sampling until the sequence, prompt tokens included,
	// holds maxLength tokens or until stop returns true, and returns the
	// decoded final sequence (prompt included). At least one token is
	// sampled even when the prompt alone reaches maxLength. stop may be nil.
	// Failures are reported as ModelError values.
	Generate(ctx context.Context, prompt string, maxLength int, stop StoppingCriteria) (string, error)
}

// Closer is implemented by engines holding resources (loaded weights).
type Closer interface {
	Close() error
}

// pieces is a Sequence built from decoded token pieces, used by engines
// whose backends hand out text per token rather than token ids.
type pieces struct {
	prompt string
	toks   []string
}

func (p *pieces) Len() int { return len(p.toks) }

func (p *pieces) Text() string {
	n := len(p.prompt)
	for _, t := range p.toks {
		n += len(t)
	}
	b := make([]byte, 0, n)
	b = append(b, p.prompt...)
	for _, t := range p.toks {
		b = append(b, t...)
	}
	return string(b)
}

func (p *pieces) push(tok string) { p.toks = append(p.toks, tok) }

// newTokens converts a bound on the whole sequence into the number of
// tokens to sample after a prompt of promptTokens tokens.
func newTokens(maxLength, promptTokens int) int {
	return max(1, maxLength-promptTokens)
}

// collect runs predict, which reports every sampled piece through emit, and
// returns the prompt followed by all collected pieces. Whatever text the
// backend returns itself is ignored: it may be trimmed, and the result must
// extend every sequence already shown to stop.
func collect(ctx context.Context, prompt string, stop StoppingCriteria, predict func(emit func(tok string) bool) error) (string, error) {
	seq := &pieces{prompt: prompt}
	emit := func(tok string) bool {
		seq.push(tok)
		if ctx.Err() != nil {
			return false
		}
		return stop == nil || !stop(seq)
	}
	if err := predict(emit); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", NewModelError("predict", err)
	}
	return seq.Text(), nil
}
