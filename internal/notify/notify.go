package notify

import "log"

// Sink delivers best-effort push notifications. Publish must return without
// blocking the caller; there is no delivery confirmation and no retry.
type Sink interface {
	Publish(title, body string)
}

// LogSink writes notifications to the process log. It is the default sink
// when no broker is configured.
type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (s *LogSink) Publish(title, body string) {
	log.Printf("[NOTIFY] %s: %s", title, body)
}
