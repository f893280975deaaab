// Package store provides the user record storage interface and SQLite implementation.
package store

import (
	"context"

	"replybot/internal/model"
)

// InteractionParams filters the interaction log.
type InteractionParams struct {
	Identity string
	Query    string
	Limit    int
}

// Store defines the persistence interface consumed by the responder core.
type Store interface {
	// GetOrCreate returns the record for identity, inserting an empty one
	// when none exists.
	GetOrCreate(ctx context.Context, identity string) (*model.UserRecord, error)

	// Get returns the record for identity, or nil when the identity is
	// unknown. It never creates.
	Get(ctx context.Context, identity string) (*model.UserRecord, error)

	// Save persists the record's maps and refreshes UpdatedAt. The write is
	// atomic per record.
	Save(ctx context.Context, rec *model.UserRecord) error

	// RecordInteraction appends one processed message to the audit log.
	RecordInteraction(ctx context.Context, in model.Interaction) error

	// Interactions returns logged interactions, newest first.
	Interactions(ctx context.Context, p InteractionParams) ([]model.Interaction, error)

	// Close closes the store.
	Close() error
}
