package db

import (
	"context"
	"time"
)

// Store is the database facade used by the split registry.
type Store interface {
	Pinger
	ListStore
	HashStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ListStore provides list operations.
type ListStore interface {
	// ReplaceList deletes key and pushes values in order, in one round-trip.
	ReplaceList(ctx context.Context, key string, values []string) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error
}
