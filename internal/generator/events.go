package generator

// Event represents a generation lifecycle event.
// Minimal and stable: name + request ID and optional fields via key/values.
type Event struct {
	Name      string
	RequestID string
	Fields    map[string]any
}

// EventPublisher receives events from the generator. Implementations should
// be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// LogPublisher writes events to the package logger at debug level.
type LogPublisher struct{}

func (LogPublisher) Publish(e Event) {
	ev := logger().Debug().Str("event", e.Name)
	if e.RequestID != "" {
		ev = ev.Str("request_id", e.RequestID)
	}
	ev.Fields(e.Fields).Msg("generator event")
}
