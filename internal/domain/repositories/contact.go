package repositories

import (
	"context"

	"confidant/internal/domain/models"
)

// ContactRepository is the durable store for contact profiles and their
// risk/strategy tags.
type ContactRepository interface {
	// CreateContact creates a contact profile.
	CreateContact(ctx context.Context, contact *models.Contact) error

	// GetContact retrieves a contact by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetContact(ctx context.Context, contactID string) (*models.Contact, error)

	// ListContacts lists all contacts ordered by name.
	ListContacts(ctx context.Context) ([]models.Contact, error)

	// UpdateContact updates name, relationship and profile notes.
	UpdateContact(ctx context.Context, contact *models.Contact) error

	// DeleteContact removes a contact and its tags.
	DeleteContact(ctx context.Context, contactID string) error

	// AddTag attaches a risk/strategy tag to a contact.
	AddTag(ctx context.Context, tag *models.ContactTag) error

	// ListTags lists a contact's tags, confirmed first, newest first.
	ListTags(ctx context.Context, contactID string) ([]models.ContactTag, error)

	// ConfirmTag marks a proposed tag as user-confirmed.
	ConfirmTag(ctx context.Context, tagID string) error

	// DeleteTag removes a tag.
	DeleteTag(ctx context.Context, tagID string) error
}
