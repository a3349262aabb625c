package domain

import (
	"errors"
)

// Sentinel errors shared across layers - match with errors.Is()
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrValidation = errors.New("validation failed")
	ErrNoProvider = errors.New("no advisor provider configured")
)
