package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: not ready
	Error string `json:"error" example:"not ready"`
	// HTTP status code.
	// example: 503
	Code int `json:"code" example:"503"`
}

// PoolStatus summarizes the generation worker pool.
type PoolStatus struct {
	// Number of workers (maximum concurrent generations).
	// example: 20
	Workers int `json:"workers" example:"20"`
	// Workers currently running a generation.
	// example: 3
	Running int `json:"running" example:"3"`
	// Submitters blocked waiting for a free worker.
	// example: 0
	Waiting int `json:"waiting" example:"0"`
	// Maximum submitters allowed to wait before backpressure triggers.
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Engine kind serving requests (llama, llama-server).
	// example: llama-server
	Engine string `json:"engine" example:"llama-server"`
	// Model the engine was configured with, if any.
	// example: gpt2.gguf
	Model string `json:"model,omitempty" example:"gpt2.gguf"`
	// Worker pool state.
	Pool PoolStatus `json:"pool"`
	// Streams currently being drained.
	// example: 1
	ActiveStreams int64 `json:"active_streams" example:"1"`
	// Completed unary generations.
	// example: 12
	GenerationsTotal uint64 `json:"generations_total" example:"12"`
	// Completed streamed generations.
	// example: 4
	StreamsTotal uint64 `json:"streams_total" example:"4"`
	// Generations (unary or streamed) that ended with an error.
	// example: 1
	FailuresTotal uint64 `json:"failures_total" example:"1"`
	// Default generation bound in tokens.
	// example: 20
	DefaultMaxLength int `json:"default_max_length" example:"20"`
	// Default fragment interval in milliseconds.
	// example: 1000
	DefaultIntervalMs int64 `json:"default_interval_ms" example:"1000"`
	// Last error observed by the generator (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
