package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"confidant/internal/domain/models/chat"
	"confidant/internal/domain/services"
)

type fakeAdvisor struct {
	statuses []chat.StreamStatus

	// idle delays each status after the first, simulating a slow provider.
	idle time.Duration
}

func (f *fakeAdvisor) Send(ctx context.Context, req *services.SendRequest) <-chan chat.StreamStatus {
	out := make(chan chat.StreamStatus)
	go func() {
		defer close(out)
		for i, status := range f.statuses {
			if i > 0 && f.idle > 0 {
				time.Sleep(f.idle)
			}
			select {
			case out <- status:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (f *fakeAdvisor) AnalyzeConversation(ctx context.Context, contactID, sessionID string) (*services.Analysis, error) {
	return &services.Analysis{}, nil
}

func (f *fakeAdvisor) PolishMessage(ctx context.Context, contactID, draft string) (string, error) {
	return draft, nil
}

func sendMessage(t *testing.T, advisor *fakeAdvisor, keepAlive time.Duration) string {
	t.Helper()

	h := NewAdvisorHandler(advisor, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if keepAlive > 0 {
		h.keepAlive = keepAlive
	}

	r := httptest.NewRequest("POST", "/api/contacts/c1/sessions/s1/messages", strings.NewReader(`{"text":"hi"}`))
	r.SetPathValue("id", "c1")
	r.SetPathValue("session", "s1")
	w := httptest.NewRecorder()

	h.SendMessage(w, r)
	return w.Body.String()
}

func TestSendMessageStreamsStatusEvents(t *testing.T) {
	advisor := &fakeAdvisor{
		statuses: []chat.StreamStatus{
			chat.StartedStatus("m2"),
			chat.TextUpdateStatus("m2", "Lead with the ask."),
			chat.CompletedStatus("m2", "Lead with the ask.", nil),
		},
	}

	body := sendMessage(t, advisor, 0)

	for _, want := range []string{
		"event: " + chat.StatusStarted + "\n",
		"event: " + chat.StatusTextUpdate + "\n",
		"event: " + chat.StatusCompleted + "\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("response missing %q:\n%s", want, body)
		}
	}

	if strings.Index(body, chat.StatusStarted) > strings.Index(body, chat.StatusCompleted) {
		t.Errorf("events out of order:\n%s", body)
	}
}

func TestSendMessageKeepsConnectionAliveThroughIdleGaps(t *testing.T) {
	advisor := &fakeAdvisor{
		statuses: []chat.StreamStatus{
			chat.StartedStatus("m2"),
			chat.CompletedStatus("m2", "done", nil),
		},
		idle: 80 * time.Millisecond,
	}

	body := sendMessage(t, advisor, 10*time.Millisecond)

	if !strings.Contains(body, ": keepalive\n\n") {
		t.Errorf("expected keepalive comments during the idle gap:\n%s", body)
	}
	if !strings.Contains(body, "event: "+chat.StatusCompleted+"\n") {
		t.Errorf("terminal event missing:\n%s", body)
	}
}
