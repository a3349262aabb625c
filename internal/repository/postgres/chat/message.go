package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"confidant/internal/domain"
	chatModels "confidant/internal/domain/models/chat"
	chatRepo "confidant/internal/domain/repositories/chat"
	"confidant/internal/repository/postgres"
)

// MessageRepository implements the conversation store using PostgreSQL.
type MessageRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(config *postgres.RepositoryConfig) chatRepo.MessageRepository {
	return &MessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateMessage inserts a message row and fills in its generated ID and
// creation time.
func (r *MessageRepository) CreateMessage(ctx context.Context, msg *chatModels.Message) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (contact_id, session_id, author, content, send_status, related_user_message_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.Messages)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		msg.ContactID,
		msg.SessionID,
		msg.Author,
		msg.Content,
		msg.SendStatus,
		msg.RelatedUserMessageID,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("contact %s: %w", msg.ContactID, domain.ErrNotFound)
		}
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

// CreateBlock inserts a block row and fills in its generated ID.
func (r *MessageRepository) CreateBlock(ctx context.Context, block *chatModels.MessageBlock) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (message_id, block_type, content, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, r.tables.MessageBlocks)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		block.MessageID,
		block.BlockType,
		block.Content,
		block.Status,
	).Scan(&block.ID, &block.CreatedAt)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("block %s for message %s: %w", block.BlockType, block.MessageID, domain.ErrConflict)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("message %s: %w", block.MessageID, domain.ErrNotFound)
		}
		return fmt.Errorf("create block: %w", err)
	}

	return nil
}

// UpsertBlock creates or replaces a block's content and status.
// A message owns at most one block per type, so (message_id, block_type) is
// the conflict key.
func (r *MessageRepository) UpsertBlock(ctx context.Context, block *chatModels.MessageBlock) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (message_id, block_type, content, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (message_id, block_type)
		DO UPDATE SET content = EXCLUDED.content, status = EXCLUDED.status
		RETURNING id, created_at
	`, r.tables.MessageBlocks)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		block.MessageID,
		block.BlockType,
		block.Content,
		block.Status,
	).Scan(&block.ID, &block.CreatedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("message %s: %w", block.MessageID, domain.ErrNotFound)
		}
		return fmt.Errorf("upsert block: %w", err)
	}

	return nil
}

// UpdateMessageResult writes a message's final content and send status.
func (r *MessageRepository) UpdateMessageResult(ctx context.Context, messageID, content, status string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET content = $2, send_status = $3
		WHERE id = $1
	`, r.tables.Messages)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, messageID, content, status)
	if err != nil {
		return fmt.Errorf("update message result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}

	return nil
}

// GetMessage retrieves a message by ID (without blocks).
func (r *MessageRepository) GetMessage(ctx context.Context, messageID string) (*chatModels.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, contact_id, session_id, author, content, send_status,
		       related_user_message_id, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Messages)

	var msg chatModels.Message
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, messageID).Scan(
		&msg.ID,
		&msg.ContactID,
		&msg.SessionID,
		&msg.Author,
		&msg.Content,
		&msg.SendStatus,
		&msg.RelatedUserMessageID,
		&msg.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get message: %w", err)
	}

	return &msg, nil
}

// ListSessionMessages returns up to limit messages of one contact session,
// newest first.
func (r *MessageRepository) ListSessionMessages(ctx context.Context, contactID, sessionID string, limit int) ([]chatModels.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, contact_id, session_id, author, content, send_status,
		       related_user_message_id, created_at
		FROM %s
		WHERE contact_id = $1 AND session_id = $2
		ORDER BY created_at DESC
	`, r.tables.Messages)

	args := []interface{}{contactID, sessionID}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list session messages: %w", err)
	}
	defer rows.Close()

	messages := make([]chatModels.Message, 0)
	for rows.Next() {
		var msg chatModels.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ContactID,
			&msg.SessionID,
			&msg.Author,
			&msg.Content,
			&msg.SendStatus,
			&msg.RelatedUserMessageID,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// GetBlocks returns a message's blocks ordered by creation time, so a
// thinking block always precedes the main text block it belongs to.
func (r *MessageRepository) GetBlocks(ctx context.Context, messageID string) ([]chatModels.MessageBlock, error) {
	query := fmt.Sprintf(`
		SELECT id, message_id, block_type, content, status, created_at
		FROM %s
		WHERE message_id = $1
		ORDER BY created_at
	`, r.tables.MessageBlocks)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("get blocks: %w", err)
	}
	defer rows.Close()

	blocks := make([]chatModels.MessageBlock, 0)
	for rows.Next() {
		var block chatModels.MessageBlock
		if err := rows.Scan(
			&block.ID,
			&block.MessageID,
			&block.BlockType,
			&block.Content,
			&block.Status,
			&block.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, block)
	}

	return blocks, rows.Err()
}
