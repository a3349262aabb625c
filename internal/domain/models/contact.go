package models

import (
	"time"
)

// Tag kind constants
const (
	TagKindRisk     = "risk"
	TagKindStrategy = "strategy"
)

// Contact is a per-person profile the advisor reasons about.
type Contact struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Relationship string    `json:"relationship" db:"relationship"` // e.g. "partner", "colleague"
	Profile      string    `json:"profile" db:"profile"`           // free-form profile notes and facts
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ContactTag is a risk or strategy marker attached to a contact.
// Tags proposed by the advisor start unconfirmed; the user confirms them.
type ContactTag struct {
	ID        string    `json:"id" db:"id"`
	ContactID string    `json:"contact_id" db:"contact_id"`
	Kind      string    `json:"kind" db:"kind"` // "risk" or "strategy"
	Label     string    `json:"label" db:"label"`
	Confirmed bool      `json:"confirmed" db:"confirmed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
