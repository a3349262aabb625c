package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	chatRepo "confidant/internal/domain/repositories/chat"
	"confidant/internal/httputil"
)

// ConversationHandler handles conversation read requests.
type ConversationHandler struct {
	messages chatRepo.MessageReader
	logger   *slog.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(messages chatRepo.MessageReader, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{
		messages: messages,
		logger:   logger,
	}
}

// CreateSession mints a fresh session ID for a contact. Sessions have no
// row of their own; they exist as a grouping key on messages.
// POST /api/contacts/{id}/sessions
func (h *ConversationHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusCreated, map[string]string{
		"contact_id": r.PathValue("id"),
		"session_id": uuid.NewString(),
	})
}

// ListMessages returns a contact session's messages, newest first.
// GET /api/contacts/{id}/sessions/{session}/messages?limit=50
func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			httputil.RespondError(w, http.StatusBadRequest, "limit must be an integer between 1 and 500")
			return
		}
		limit = parsed
	}

	messages, err := h.messages.ListSessionMessages(r.Context(), r.PathValue("id"), r.PathValue("session"), limit)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messages)
}

// GetMessage returns one message with its blocks.
// GET /api/messages/{id}
func (h *ConversationHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	msg, err := h.messages.GetMessage(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	blocks, err := h.messages.GetBlocks(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	msg.Blocks = blocks

	httputil.RespondJSON(w, http.StatusOK, msg)
}
