package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// EventWriter writes named server-sent events to an HTTP response.
// Every event is flushed immediately; SSE is only useful live.
type EventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewEventWriter prepares the response for SSE and returns a writer.
// Returns an error when the underlying connection cannot flush.
func NewEventWriter(w http.ResponseWriter) (*EventWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming unsupported by connection")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &EventWriter{w: w, flusher: flusher}, nil
}

// WriteEvent writes one named event with a JSON payload and flushes.
func (e *EventWriter) WriteEvent(name string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event %q: %w", name, err)
	}

	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return fmt.Errorf("write event %q: %w", name, err)
	}

	e.flusher.Flush()
	return nil
}

// WriteKeepAlive writes an SSE comment line and flushes. Lines starting
// with a colon are ignored by clients.
func (e *EventWriter) WriteKeepAlive() error {
	if _, err := fmt.Fprint(e.w, ": keepalive\n\n"); err != nil {
		return fmt.Errorf("write keepalive: %w", err)
	}

	e.flusher.Flush()
	return nil
}
