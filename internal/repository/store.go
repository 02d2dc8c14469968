package repository

import (
	"context"
	"errors"
	"time"

	"aira/internal/model"
)

// ErrDuplicateProperty is returned by Append when the id is already taken
var ErrDuplicateProperty = errors.New("property already exists")

// PropertyStore persists property records. Records are only ever appended.
type PropertyStore interface {
	// List returns every property, newest first
	List(ctx context.Context) ([]model.Property, error)
	// Get returns nil, nil when no property has the id
	Get(ctx context.Context, id string) (*model.Property, error)
	Append(ctx context.Context, p model.Property) error
}

// VectorStore is implemented by stores that can index description embeddings
type VectorStore interface {
	SetEmbedding(ctx context.Context, id string, embedding []float32) error
	// Similar returns the nearest properties to id, excluding id itself
	Similar(ctx context.Context, id string, limit int) ([]model.Property, error)
}

// UserStore persists wallet accounts
type UserStore interface {
	// FindOrCreate returns the user for address, creating it on first sight.
	// Addresses match case-insensitively.
	FindOrCreate(ctx context.Context, address string) (*model.User, error)
	// FindByAddress returns nil, nil when the address is unknown
	FindByAddress(ctx context.Context, address string) (*model.User, error)
}

// NonceStore tracks issued login nonces
type NonceStore interface {
	Put(ctx context.Context, nonce string, ttl time.Duration) error
	// Consume removes the nonce and reports whether it was live.
	// A nonce can be consumed at most once.
	Consume(ctx context.Context, nonce string) (bool, error)
}
