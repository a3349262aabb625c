package advisor

import (
	"context"
	"fmt"
	"log/slog"

	"confidant/internal/domain/models/chat"
	"confidant/internal/domain/repositories"
	chatRepo "confidant/internal/domain/repositories/chat"
)

// Synchronizer translates orchestrator events into the minimum necessary
// durable writes. Durability points are turn start (placeholders), thinking
// completion, and turn termination; per-chunk deltas are never persisted.
// A crash mid-stream therefore loses only the unflushed tail of the current
// answer, never a completed thinking block or any prior turn.
type Synchronizer struct {
	messages  chatRepo.MessageWriter
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewSynchronizer creates a new Synchronizer.
func NewSynchronizer(messages chatRepo.MessageWriter, txManager repositories.TransactionManager, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		messages:  messages,
		txManager: txManager,
		logger:    logger,
	}
}

// CreatePlaceholders persists the turn's initial rows atomically: the user
// message (already terminal, skipped for regenerate calls), the pending AI
// message, and its pending main_text block. On return aiMsg and mainBlock
// carry their generated IDs.
func (s *Synchronizer) CreatePlaceholders(ctx context.Context, userMsg, aiMsg *chat.Message, mainBlock *chat.MessageBlock) error {
	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if userMsg != nil {
			if err := s.messages.CreateMessage(txCtx, userMsg); err != nil {
				return fmt.Errorf("create user message: %w", err)
			}
			if aiMsg.RelatedUserMessageID == nil {
				aiMsg.RelatedUserMessageID = &userMsg.ID
			}
		}

		if err := s.messages.CreateMessage(txCtx, aiMsg); err != nil {
			return fmt.Errorf("create ai placeholder: %w", err)
		}

		mainBlock.MessageID = aiMsg.ID
		if err := s.messages.CreateBlock(txCtx, mainBlock); err != nil {
			return fmt.Errorf("create main_text placeholder: %w", err)
		}

		return nil
	})
}

// OpenThinking durably creates the thinking block when its first delta
// arrives.
func (s *Synchronizer) OpenThinking(ctx context.Context, messageID string) error {
	block := &chat.MessageBlock{
		MessageID: messageID,
		BlockType: chat.BlockTypeThinking,
		Status:    chat.BlockStatusStreaming,
	}
	if err := s.messages.UpsertBlock(ctx, block); err != nil {
		return fmt.Errorf("open thinking block: %w", err)
	}
	return nil
}

// MarkMainStreaming flips the main_text placeholder to streaming when the
// first answer delta arrives. Content stays empty; deltas live in memory
// until the terminal flush.
func (s *Synchronizer) MarkMainStreaming(ctx context.Context, messageID string) error {
	block := &chat.MessageBlock{
		MessageID: messageID,
		BlockType: chat.BlockTypeMainText,
		Status:    chat.BlockStatusStreaming,
	}
	if err := s.messages.UpsertBlock(ctx, block); err != nil {
		return fmt.Errorf("mark main_text block streaming: %w", err)
	}
	return nil
}

// FinalizeThinking durably commits the full thinking text. Thinking may
// legitimately outlive the visible answer (the caller can navigate away
// mid-thought), so this intermediate write happens as soon as the provider
// signals thinking completion, independent of the main text's lifecycle.
func (s *Synchronizer) FinalizeThinking(ctx context.Context, messageID, fullText string) error {
	block := &chat.MessageBlock{
		MessageID: messageID,
		BlockType: chat.BlockTypeThinking,
		Content:   fullText,
		Status:    chat.BlockStatusSuccess,
	}
	if err := s.messages.UpsertBlock(ctx, block); err != nil {
		return fmt.Errorf("finalize thinking block: %w", err)
	}
	return nil
}

// FlushSuccess performs the terminal durable write for a completed turn:
// the main_text block and the owning message become final atomically.
func (s *Synchronizer) FlushSuccess(ctx context.Context, messageID, finalText string) error {
	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		block := &chat.MessageBlock{
			MessageID: messageID,
			BlockType: chat.BlockTypeMainText,
			Content:   finalText,
			Status:    chat.BlockStatusSuccess,
		}
		if err := s.messages.UpsertBlock(txCtx, block); err != nil {
			return fmt.Errorf("finalize main_text block: %w", err)
		}

		if err := s.messages.UpdateMessageResult(txCtx, messageID, finalText, chat.SendStatusSuccess); err != nil {
			return fmt.Errorf("finalize message: %w", err)
		}

		return nil
	})
}

// FlushFailure performs the terminal durable write for a failed turn. The
// partial answer is retained on the block for possible display, but the
// owning message unambiguously reads failed, with a placeholder content
// embedding the error summary.
func (s *Synchronizer) FlushFailure(ctx context.Context, messageID, partialText string, cause error) error {
	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		block := &chat.MessageBlock{
			MessageID: messageID,
			BlockType: chat.BlockTypeMainText,
			Content:   partialText,
			Status:    chat.BlockStatusError,
		}
		if err := s.messages.UpsertBlock(txCtx, block); err != nil {
			return fmt.Errorf("mark main_text block failed: %w", err)
		}

		content := FailureContent(cause)
		if err := s.messages.UpdateMessageResult(txCtx, messageID, content, chat.SendStatusFailed); err != nil {
			return fmt.Errorf("mark message failed: %w", err)
		}

		return nil
	})
}

// FailureContent synthesizes the content stored on a failed AI message.
func FailureContent(cause error) string {
	summary := "unknown error"
	if cause != nil {
		summary = cause.Error()
	}
	return fmt.Sprintf("[advisor error: %s]", summary)
}
