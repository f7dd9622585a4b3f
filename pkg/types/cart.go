package types

import (
	"context"
	"errors"
)

// Cart is the read/mutate surface a UI binds to. Callers load it once, read
// snapshots, subscribe to changes, and close it when done.
//
// AddToCart, Increment, and Decrement never fail; they apply to the
// in-memory list synchronously and leave persistence to the store.
type Cart interface {
	// Load reads the persisted list and moves the store to the ready state.
	// Returns ErrAlreadyLoaded on a second successful call.
	Load(ctx context.Context) error

	// Ready returns a channel that is closed once Load has completed.
	Ready() <-chan struct{}

	// Products returns a snapshot of the current ordered list.
	Products() []LineItem

	// AddToCart adds one unit of p, moving an existing entry to the end.
	AddToCart(p Product)

	// Increment adds one unit to the entry with the given ID, if present.
	Increment(id string)

	// Decrement removes one unit from the entry with the given ID, dropping
	// the entry when its quantity would reach zero.
	Decrement(id string)

	// Subscribe registers fn to be called with a snapshot after every
	// change. The returned func removes the subscription.
	Subscribe(fn func([]LineItem)) (unsubscribe func())

	// Flush waits until every write-back scheduled before the call has been
	// attempted and returns the most recent write error.
	Flush(ctx context.Context) error

	// Close flushes pending writes and releases the KV store. Idempotent.
	Close(ctx context.Context) error
}

// Cart lifecycle errors.
var (
	ErrNoStore        = errors.New("cart used without an active store")
	ErrStoreClosed    = errors.New("cart store is closed")
	ErrAlreadyLoaded  = errors.New("cart store is already loaded")
	ErrLoadInProgress = errors.New("cart store load in progress")
	ErrCorruptPayload = errors.New("corrupt cart payload")
)
