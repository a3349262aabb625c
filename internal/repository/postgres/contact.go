package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"confidant/internal/domain"
	"confidant/internal/domain/models"
	"confidant/internal/domain/repositories"
)

// ContactRepository implements repositories.ContactRepository using PostgreSQL.
type ContactRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewContactRepository creates a new ContactRepository.
func NewContactRepository(config *RepositoryConfig) repositories.ContactRepository {
	return &ContactRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateContact creates a contact profile.
func (r *ContactRepository) CreateContact(ctx context.Context, contact *models.Contact) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, relationship, profile)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, r.tables.Contacts)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		contact.Name,
		contact.Relationship,
		contact.Profile,
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}

	return nil
}

// GetContact retrieves a contact by ID.
func (r *ContactRepository) GetContact(ctx context.Context, contactID string) (*models.Contact, error) {
	query := fmt.Sprintf(`
		SELECT id, name, relationship, profile, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Contacts)

	var contact models.Contact
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, contactID).Scan(
		&contact.ID,
		&contact.Name,
		&contact.Relationship,
		&contact.Profile,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("contact %s: %w", contactID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}

	return &contact, nil
}

// ListContacts lists all contacts ordered by name.
func (r *ContactRepository) ListContacts(ctx context.Context) ([]models.Contact, error) {
	query := fmt.Sprintf(`
		SELECT id, name, relationship, profile, created_at, updated_at
		FROM %s
		ORDER BY name
	`, r.tables.Contacts)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]models.Contact, 0)
	for rows.Next() {
		var contact models.Contact
		if err := rows.Scan(
			&contact.ID,
			&contact.Name,
			&contact.Relationship,
			&contact.Profile,
			&contact.CreatedAt,
			&contact.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	return contacts, rows.Err()
}

// UpdateContact updates name, relationship and profile notes.
func (r *ContactRepository) UpdateContact(ctx context.Context, contact *models.Contact) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $2, relationship = $3, profile = $4, updated_at = $5
		WHERE id = $1
		RETURNING updated_at
	`, r.tables.Contacts)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		contact.ID,
		contact.Name,
		contact.Relationship,
		contact.Profile,
		time.Now(),
	).Scan(&contact.UpdatedAt)
	if err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("contact %s: %w", contact.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update contact: %w", err)
	}

	return nil
}

// DeleteContact removes a contact; tags and messages cascade.
func (r *ContactRepository) DeleteContact(ctx context.Context, contactID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Contacts)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, contactID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contact %s: %w", contactID, domain.ErrNotFound)
	}

	return nil
}

// AddTag attaches a risk/strategy tag to a contact.
func (r *ContactRepository) AddTag(ctx context.Context, tag *models.ContactTag) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (contact_id, kind, label, confirmed)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, r.tables.ContactTags)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		tag.ContactID,
		tag.Kind,
		tag.Label,
		tag.Confirmed,
	).Scan(&tag.ID, &tag.CreatedAt)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("tag %q: %w", tag.Label, domain.ErrConflict)
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("contact %s: %w", tag.ContactID, domain.ErrNotFound)
		}
		return fmt.Errorf("add tag: %w", err)
	}

	return nil
}

// ListTags lists a contact's tags, confirmed first, newest first.
func (r *ContactRepository) ListTags(ctx context.Context, contactID string) ([]models.ContactTag, error) {
	query := fmt.Sprintf(`
		SELECT id, contact_id, kind, label, confirmed, created_at
		FROM %s
		WHERE contact_id = $1
		ORDER BY confirmed DESC, created_at DESC
	`, r.tables.ContactTags)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, contactID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := make([]models.ContactTag, 0)
	for rows.Next() {
		var tag models.ContactTag
		if err := rows.Scan(
			&tag.ID,
			&tag.ContactID,
			&tag.Kind,
			&tag.Label,
			&tag.Confirmed,
			&tag.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	return tags, rows.Err()
}

// ConfirmTag marks a proposed tag as user-confirmed.
func (r *ContactRepository) ConfirmTag(ctx context.Context, tagID string) error {
	query := fmt.Sprintf(`UPDATE %s SET confirmed = true WHERE id = $1`, r.tables.ContactTags)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, tagID)
	if err != nil {
		return fmt.Errorf("confirm tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tag %s: %w", tagID, domain.ErrNotFound)
	}

	return nil
}

// DeleteTag removes a tag.
func (r *ContactRepository) DeleteTag(ctx context.Context, tagID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.ContactTags)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, tagID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tag %s: %w", tagID, domain.ErrNotFound)
	}

	return nil
}
