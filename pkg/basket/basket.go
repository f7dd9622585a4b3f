// Package basket provides the public API for opening a cart store.
// This package exposes the factory while keeping the store and backend
// implementations internal.
package basket

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/basket/internal/cart"
	"github.com/mesh-intelligence/basket/internal/kv"
	"github.com/mesh-intelligence/basket/pkg/types"
)

// Option configures the store returned by Open.
type Option = cart.Option

// WithLogger sets the logger the store writes to.
func WithLogger(log *logrus.Entry) Option {
	return cart.WithLogger(log)
}

// Open creates the backend described by cfg and returns a cart store on top
// of it. The store is not loaded; call Load before relying on persisted
// contents, and Close when done.
//
// Example:
//
//	c, err := basket.Open(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".basket-db",
//	})
//	if err != nil {
//	    return err
//	}
//	defer c.Close(ctx)
//	if err := c.Load(ctx); err != nil {
//	    return err
//	}
//	c.AddToCart(types.Product{ID: "sku-1", Title: "Mug"})
func Open(ctx context.Context, cfg types.Config, opts ...Option) (types.Cart, error) {
	store, err := kv.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}
	return cart.New(store, cfg, opts...), nil
}

// New returns a cart store on top of a caller-supplied KV store.
func New(store types.KVStore, cfg types.Config, opts ...Option) types.Cart {
	return cart.New(store, cfg, opts...)
}
