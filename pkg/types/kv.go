package types

import (
	"context"
	"errors"
)

// KVStore is the durable storage contract the cart persists through. Values
// are opaque strings addressed by string keys.
type KVStore interface {
	// Get returns the value stored under key. ok is false when the key is
	// absent; that is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key succeeds.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources. After Close, operations return
	// ErrKVClosed.
	Close() error
}

// KV errors.
var (
	ErrKVClosed   = errors.New("kv store is closed")
	ErrInvalidKey = errors.New("invalid key")
)
