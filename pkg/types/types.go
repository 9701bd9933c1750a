package types

// GenerateRequest is the payload of TextGenerator/Generate.
type GenerateRequest struct {
	// Prompt the generated text continues.
	// example: Here is a story about
	Text string `json:"text" example:"Here is a story about"`
	// Generation bound in tokens.
	// 0 or omitted selects the server default.
	// example: 150
	MaxLength uint32 `json:"max_length,omitempty" example:"150"`
}

// GenerateResponse is the result of TextGenerator/Generate.
type GenerateResponse struct {
	// Final decoded text with special tokens stripped.
	Text string `json:"text"`
}

// GenerateStreamedRequest is the payload of TextGenerator/GenerateStreamed.
type GenerateStreamedRequest struct {
	// Prompt the generated text continues.
	// example: Here is a story about
	Text string `json:"text" example:"Here is a story about"`
	// Generation bound in tokens.
	// 0 or omitted selects the server default.
	// example: 150
	MaxLength uint32 `json:"max_length,omitempty" example:"150"`
	// Minimum time between intermediate fragments in milliseconds.
	// 0 or omitted selects the server default.
	// example: 500
	IntermediateResultIntervalMs uint32 `json:"intermediate_result_interval_ms,omitempty" example:"500"`
}

// GenerateStreamedResponse carries one text fragment. Concatenating all
// fragments of a stream in order yields the final text.
type GenerateStreamedResponse struct {
	TextFragment string `json:"text_fragment"`
}
