package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"confidant/internal/config"
	"confidant/internal/domain"
	"confidant/internal/domain/models/chat"
	"confidant/internal/domain/repositories"
	chatRepo "confidant/internal/domain/repositories/chat"
	"confidant/internal/domain/services"
)

// Service orchestrates AI turns: placeholder persistence, provider
// streaming, in-memory accumulation, durable flushes and live status
// emission. It implements services.Advisor.
type Service struct {
	contacts  repositories.ContactRepository
	messages  chatRepo.MessageRepository
	providers *ProviderRegistry
	sync      *Synchronizer
	composer  *PromptComposer
	personas  *config.Personas
	cfg       *config.Config
	logger    *slog.Logger
}

// NewService creates a new advisor service.
func NewService(
	contacts repositories.ContactRepository,
	messages chatRepo.MessageRepository,
	providers *ProviderRegistry,
	sync *Synchronizer,
	composer *PromptComposer,
	personas *config.Personas,
	cfg *config.Config,
	logger *slog.Logger,
) services.Advisor {
	return &Service{
		contacts:  contacts,
		messages:  messages,
		providers: providers,
		sync:      sync,
		composer:  composer,
		personas:  personas,
		cfg:       cfg,
		logger:    logger,
	}
}

// Send runs one AI turn. The returned channel is unbuffered and closed after
// the terminal status; the caller owns consumption pace.
func (s *Service) Send(ctx context.Context, req *services.SendRequest) <-chan chat.StreamStatus {
	out := make(chan chat.StreamStatus)
	go s.run(ctx, req, out)
	return out
}

func (s *Service) run(ctx context.Context, req *services.SendRequest, out chan<- chat.StreamStatus) {
	defer close(out)

	// emit delivers one status, or reports false when the caller is gone.
	emit := func(status chat.StreamStatus) bool {
		select {
		case out <- status:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if err := validateSendRequest(req); err != nil {
		emit(chat.ErrorStatus("", err))
		return
	}

	userMsg, aiMsg, mainBlock := buildPlaceholders(req)
	if err := s.sync.CreatePlaceholders(ctx, userMsg, aiMsg, mainBlock); err != nil {
		s.logger.Error("placeholder persistence failed",
			"contact_id", req.ContactID, "session_id", req.SessionID, "error", err)
		emit(chat.ErrorStatus("", err))
		return
	}

	// Resolution failures after this point leave the placeholders pending on
	// purpose: the rows exist, the turn just never started streaming.
	provider, model, err := s.resolveProvider()
	if err != nil {
		emit(chat.ErrorStatus(aiMsg.ID, err))
		return
	}

	prompt, err := s.composeTurnPrompt(ctx, req, userMsg)
	if err != nil {
		emit(chat.ErrorStatus(aiMsg.ID, err))
		return
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	system := s.personas.Advisor
	chunks, err := provider.StreamReply(streamCtx, &services.ReplyRequest{
		Model:           model,
		System:          &system,
		Prompt:          prompt,
		ThinkingEnabled: true,
	})
	if err != nil {
		s.failTurn(ctx, aiMsg.ID, NewBlockAccumulator(), fmt.Errorf("open stream: %w", err), emit)
		return
	}

	s.consume(ctx, aiMsg.ID, chunks, emit)
}

// consume is the single consumer loop over the provider stream. It emits
// exactly one terminal status and stops reading chunks afterwards.
func (s *Service) consume(ctx context.Context, messageID string, chunks <-chan chat.StreamChunk, emit func(chat.StreamStatus) bool) {
	acc := NewBlockAccumulator()
	started := false
	mainStreaming := false
	var thinkingStart time.Time

	start := func() bool {
		if started {
			return true
		}
		started = true
		return emit(chat.StartedStatus(messageID))
	}

	for {
		select {
		case <-ctx.Done():
			// Caller walked away. No terminal flush: rows keep whatever
			// status was last durably committed.
			s.logger.Info("turn cancelled", "message_id", messageID)
			return

		case chunk, ok := <-chunks:
			if !ok {
				err := fmt.Errorf("provider stream closed without a terminal chunk")
				s.failTurn(ctx, messageID, acc, err, emit)
				return
			}
			if !start() {
				return
			}

			switch chunk.Kind {
			case chat.ChunkStarted:
				// Placeholders already exist; nothing to persist.

			case chat.ChunkThinkingDelta:
				if !acc.HasThinking() {
					thinkingStart = time.Now()
					if err := s.sync.OpenThinking(ctx, messageID); err != nil {
						s.failTurn(ctx, messageID, acc, err, emit)
						return
					}
				}
				text := acc.Append(chat.BlockTypeThinking, chunk.Text)
				if !emit(chat.ThinkingUpdateStatus(messageID, text, time.Since(thinkingStart).Milliseconds())) {
					return
				}

			case chat.ChunkThinkingComplete:
				// A thinking block only exists once a delta arrived; a bare
				// completion marker persists nothing.
				if !acc.HasThinking() {
					continue
				}
				full := chunk.FullText
				if full == "" {
					full = acc.Text(chat.BlockTypeThinking)
				}
				if err := s.sync.FinalizeThinking(ctx, messageID, full); err != nil {
					s.failTurn(ctx, messageID, acc, err, emit)
					return
				}

			case chat.ChunkTextDelta:
				if !mainStreaming {
					mainStreaming = true
					if err := s.sync.MarkMainStreaming(ctx, messageID); err != nil {
						s.failTurn(ctx, messageID, acc, err, emit)
						return
					}
				}
				text := acc.Append(chat.BlockTypeMainText, chunk.Text)
				if !emit(chat.TextUpdateStatus(messageID, text)) {
					return
				}

			case chat.ChunkComplete:
				final := chunk.FullText
				if final == "" {
					final = acc.Text(chat.BlockTypeMainText)
				}
				if err := s.sync.FlushSuccess(ctx, messageID, final); err != nil {
					s.failTurn(ctx, messageID, acc, err, emit)
					return
				}
				emit(chat.CompletedStatus(messageID, final, chunk.Usage))
				return

			case chat.ChunkError:
				s.failTurn(ctx, messageID, acc, chunk.Err, emit)
				return
			}
		}
	}
}

// failTurn marks the message failed (retaining any partial answer on the
// block) and emits the terminal error status. A flush failure on top of the
// stream failure is logged, not surfaced twice.
func (s *Service) failTurn(ctx context.Context, messageID string, acc *BlockAccumulator, cause error, emit func(chat.StreamStatus) bool) {
	if err := s.sync.FlushFailure(ctx, messageID, acc.Text(chat.BlockTypeMainText), cause); err != nil {
		s.logger.Error("failure flush failed", "message_id", messageID, "error", err)
	}
	emit(chat.ErrorStatus(messageID, cause))
}

// resolveProvider picks the configured default provider and model.
func (s *Service) resolveProvider() (services.ChatProvider, string, error) {
	provider, err := s.providers.Default()
	if err != nil {
		return nil, "", err
	}

	model := s.cfg.DefaultModel
	if !provider.SupportsModel(model) {
		return nil, "", fmt.Errorf("model %q on provider %q: %w", model, provider.Name(), domain.ErrNoProvider)
	}

	return provider, model, nil
}

// composeTurnPrompt loads the contact context and recent history and renders
// the bounded prompt for this turn.
func (s *Service) composeTurnPrompt(ctx context.Context, req *services.SendRequest, userMsg *chat.Message) (string, error) {
	contact, err := s.contacts.GetContact(ctx, req.ContactID)
	if err != nil {
		return "", err
	}

	tags, err := s.contacts.ListTags(ctx, req.ContactID)
	if err != nil {
		return "", err
	}

	// Fetch a little past the window so filtering the current turn's rows
	// does not shrink the usable history.
	history, err := s.messages.ListSessionMessages(ctx, req.ContactID, req.SessionID, s.cfg.HistoryWindow+2)
	if err != nil {
		return "", err
	}
	if userMsg != nil {
		history = excludeMessage(history, userMsg.ID)
	}

	return s.composer.Compose(contact, tags, history, req.UserText), nil
}

func buildPlaceholders(req *services.SendRequest) (*chat.Message, *chat.Message, *chat.MessageBlock) {
	var userMsg *chat.Message
	if !req.SkipUserMessage {
		userMsg = &chat.Message{
			ContactID:  req.ContactID,
			SessionID:  req.SessionID,
			Author:     chat.AuthorUser,
			Content:    req.UserText,
			SendStatus: chat.SendStatusSuccess,
		}
	}

	aiMsg := &chat.Message{
		ContactID:            req.ContactID,
		SessionID:            req.SessionID,
		Author:               chat.AuthorAI,
		SendStatus:           chat.SendStatusPending,
		RelatedUserMessageID: req.RelatedUserMessageID,
	}

	mainBlock := &chat.MessageBlock{
		BlockType: chat.BlockTypeMainText,
		Status:    chat.BlockStatusPending,
	}

	return userMsg, aiMsg, mainBlock
}

func validateSendRequest(req *services.SendRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.ContactID, validation.Required),
		validation.Field(&req.SessionID, validation.Required),
		validation.Field(&req.UserText, validation.Required.When(!req.SkipUserMessage)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

func excludeMessage(messages []chat.Message, id string) []chat.Message {
	filtered := messages[:0]
	for _, msg := range messages {
		if msg.ID != id {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}
