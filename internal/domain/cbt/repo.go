package cbt

import "context"

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	// Latest returns the most recently updated entry of toolType, or
	// ErrNoEntry.
	Latest(ctx context.Context, username, toolType string) (*Entry, error)
}
