package sse

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteEvent(t *testing.T) {
	rec := httptest.NewRecorder()

	writer, err := NewEventWriter(rec)
	if err != nil {
		t.Fatalf("NewEventWriter: %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type: %q", got)
	}

	payload := map[string]string{"kind": "text_update", "text": "hello"}
	if err := writer.WriteEvent("text_update", payload); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "event: text_update\ndata: ") {
		t.Errorf("event framing: %q", body)
	}
	if !strings.HasSuffix(body, "\n\n") {
		t.Errorf("event must end with a blank line: %q", body)
	}
	if !strings.Contains(body, `"text":"hello"`) {
		t.Errorf("payload missing: %q", body)
	}
	if !rec.Flushed {
		t.Error("event must be flushed immediately")
	}
}

func TestWriteKeepAlive(t *testing.T) {
	rec := httptest.NewRecorder()

	writer, err := NewEventWriter(rec)
	if err != nil {
		t.Fatalf("NewEventWriter: %v", err)
	}

	if err := writer.WriteKeepAlive(); err != nil {
		t.Fatalf("WriteKeepAlive: %v", err)
	}

	if got := rec.Body.String(); got != ": keepalive\n\n" {
		t.Errorf("keepalive framing: %q", got)
	}
}
