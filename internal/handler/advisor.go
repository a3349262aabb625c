package handler

import (
	"log/slog"
	"net/http"
	"time"

	"confidant/internal/domain/services"
	"confidant/internal/handler/sse"
	"confidant/internal/httputil"
)

// defaultKeepAlive paces SSE comment lines through idle stretches of a turn
// (long thinking phases produce no events for a while).
const defaultKeepAlive = 15 * time.Second

// AdvisorHandler handles AI-turn HTTP requests.
type AdvisorHandler struct {
	advisor   services.Advisor
	keepAlive time.Duration
	logger    *slog.Logger
}

// NewAdvisorHandler creates a new advisor handler.
func NewAdvisorHandler(advisor services.Advisor, logger *slog.Logger) *AdvisorHandler {
	return &AdvisorHandler{
		advisor:   advisor,
		keepAlive: defaultKeepAlive,
		logger:    logger,
	}
}

type sendMessageRequest struct {
	Text                 string  `json:"text"`
	SkipUserMessage      bool    `json:"skip_user_message"`
	RelatedUserMessageID *string `json:"related_user_message_id"`
}

// SendMessage starts one AI turn and streams its live statuses as SSE on
// the same response. Each status becomes one named event; the connection
// closes after the terminal event.
// POST /api/contacts/{id}/sessions/{session}/messages
func (h *AdvisorHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	writer, err := sse.NewEventWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	statuses := h.advisor.Send(r.Context(), &services.SendRequest{
		ContactID:            r.PathValue("id"),
		SessionID:            r.PathValue("session"),
		UserText:             req.Text,
		SkipUserMessage:      req.SkipUserMessage,
		RelatedUserMessageID: req.RelatedUserMessageID,
	})

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case status, ok := <-statuses:
			if !ok {
				return
			}
			if err := writer.WriteEvent(status.Kind, status); err != nil {
				// Client is gone; the request context cancellation stops the
				// turn upstream.
				h.logger.Debug("sse write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := writer.WriteKeepAlive(); err != nil {
				h.logger.Debug("sse keepalive failed", "error", err)
				return
			}
		}
	}
}

// AnalyzeConversation runs a one-shot analysis over the recent session
// window and returns the summary plus proposed tags.
// POST /api/contacts/{id}/sessions/{session}/analyze
func (h *AdvisorHandler) AnalyzeConversation(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.advisor.AnalyzeConversation(r.Context(), r.PathValue("id"), r.PathValue("session"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, analysis)
}

type polishRequest struct {
	Draft string `json:"draft"`
}

type polishResponse struct {
	Polished string `json:"polished"`
}

// PolishMessage rewrites a draft the user wants to send to the contact.
// POST /api/contacts/{id}/polish
func (h *AdvisorHandler) PolishMessage(w http.ResponseWriter, r *http.Request) {
	var req polishRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	polished, err := h.advisor.PolishMessage(r.Context(), r.PathValue("id"), req.Draft)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, polishResponse{Polished: polished})
}
