// Package generator serves text generation requests on top of an engine.
// It is structured into small files by concern:
//
//   - generator.go: core Generator type, constructor, simple getters.
//   - config.go: Config, Defaults and package defaults; New applies them.
//   - errors.go: error types and helpers (IsTooBusy, IsPoolClosed, IsInvalidRequest).
//   - pool.go: bounded worker pool running generation jobs off the RPC goroutines.
//   - generate.go: one-shot generation.
//   - interceptor.go: per-step predicate that gates fragment emission by time.
//   - stream.go: streaming bridge from one blocking engine call to a fragment channel.
//   - events.go, eventpub_memory.go: lifecycle events for observers and tests.
//   - status_report.go: Status snapshot for the admin API.
//   - metrics.go: Prometheus instrumentation.
//
// External packages should use public methods only (New, Generate,
// GenerateStreamed, Stream, Status, Ready, Close).
package generator
