package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the prefixed tables if they do not exist.
// Applied by cmd/seed; production schemas are managed by migrations, but the
// DDL here is the single source of truth for the table shapes.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	stmts := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				name TEXT NOT NULL,
				relationship TEXT NOT NULL DEFAULT '',
				profile TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, tables.Contacts),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				contact_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				kind TEXT NOT NULL CHECK (kind IN ('risk', 'strategy')),
				label TEXT NOT NULL,
				confirmed BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				UNIQUE (contact_id, kind, label)
			)`, tables.ContactTags, tables.Contacts),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				contact_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				session_id TEXT NOT NULL,
				author TEXT NOT NULL CHECK (author IN ('user', 'ai')),
				content TEXT NOT NULL DEFAULT '',
				send_status TEXT NOT NULL DEFAULT 'pending'
					CHECK (send_status IN ('pending', 'success', 'failed')),
				related_user_message_id UUID REFERENCES %s(id),
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, tables.Messages, tables.Contacts, tables.Messages),
		fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s_session_idx
			ON %s (contact_id, session_id, created_at)`, tables.Messages, tables.Messages),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				message_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				block_type TEXT NOT NULL CHECK (block_type IN ('thinking', 'main_text')),
				content TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'pending'
					CHECK (status IN ('pending', 'streaming', 'success', 'error')),
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				UNIQUE (message_id, block_type)
			)`, tables.MessageBlocks, tables.Messages),
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	return nil
}
