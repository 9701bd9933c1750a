package types

// Model represents a model file discovered on disk.
type Model struct {
	// Stable identifier for the model (file name).
	// example: gpt2.Q8_0.gguf
	ID string `json:"id" example:"gpt2.Q8_0.gguf"`
	// Human-friendly name.
	// example: gpt2.Q8_0.gguf
	Name string `json:"name" example:"gpt2.Q8_0.gguf"`
	// Absolute path to the model file on disk.
	// example: /home/user/models/gpt2.Q8_0.gguf
	Path string `json:"path" example:"/home/user/models/gpt2.Q8_0.gguf"`
}
