// Package kv implements the durable key-value backends the cart persists
// through: memory, file, sqlite, and redis. Every backend satisfies
// types.KVStore.
package kv

import (
	"context"
	"regexp"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/basket/pkg/types"
)

// keyPattern restricts keys to characters that are safe as file names and
// redis keys alike.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// validKey rejects empty keys and keys outside keyPattern.
func validKey(key string) error {
	if key == "" || key == "." || key == ".." || !keyPattern.MatchString(key) {
		return errors.Wrapf(types.ErrInvalidKey, "key %q", key)
	}
	return nil
}

// Open creates the backend selected by cfg.Backend. The config is validated
// first; an unknown backend returns types.ErrBackendUnknown.
func Open(ctx context.Context, cfg types.Config) (types.KVStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case types.BackendMemory:
		return NewMemory(), nil
	case types.BackendFile:
		return OpenFile(cfg.DataDir)
	case types.BackendSQLite:
		return OpenSQLite(cfg.DataDir)
	case types.BackendRedis:
		return OpenRedis(ctx, cfg.Redis)
	default:
		return nil, types.ErrBackendUnknown
	}
}
