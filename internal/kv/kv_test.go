package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/basket/pkg/types"
)

// exerciseStore runs the KVStore contract against s.
func exerciseStore(t *testing.T, s types.KVStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "products")
	require.NoError(t, err)
	assert.False(t, ok, "absent key reported present")

	require.NoError(t, s.Set(ctx, "products", `[{"id":"A"}]`))
	v, ok, err := s.Get(ctx, "products")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"A"}]`, v)

	require.NoError(t, s.Set(ctx, "products", `[]`))
	v, _, err = s.Get(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	require.NoError(t, s.Delete(ctx, "products"))
	_, ok, err = s.Get(ctx, "products")
	require.NoError(t, err)
	assert.False(t, ok, "deleted key reported present")

	require.NoError(t, s.Delete(ctx, "never-set"), "deleting an absent key")

	err = s.Set(ctx, "../escape", "x")
	assert.ErrorIs(t, err, types.ErrInvalidKey)
	_, _, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, types.ErrInvalidKey)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second Close")

	_, _, err = s.Get(ctx, "products")
	assert.ErrorIs(t, err, types.ErrKVClosed)
	assert.ErrorIs(t, s.Set(ctx, "products", "x"), types.ErrKVClosed)
	assert.ErrorIs(t, s.Delete(ctx, "products"), types.ErrKVClosed)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	s, err := OpenFile(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFile_WritesOneFilePerKey(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFile(dir)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), "products", "[]"))

	data, err := os.ReadFile(filepath.Join(dir, "products.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files left behind")
}

func TestFile_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := OpenFile(dir)
	require.NoError(t, err)
	defer s.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenSQLite(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "products", `[{"id":"A","quantity":2}]`))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(dir)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "products")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"A","quantity":2}]`, v)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("BASKET_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BASKET_TEST_REDIS_ADDR not set")
	}
	s, err := OpenRedis(context.Background(), types.RedisConfig{Addr: addr})
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestRedisOptions(t *testing.T) {
	t.Run("host without port gets default port", func(t *testing.T) {
		opts, err := redisOptions(types.RedisConfig{Addr: "cache", DB: 2})
		require.NoError(t, err)
		assert.Equal(t, "cache:6379", opts.Addr)
		assert.Equal(t, 2, opts.DB)
	})

	t.Run("url is parsed", func(t *testing.T) {
		opts, err := redisOptions(types.RedisConfig{Addr: "redis://:secret@cache:6380/3"})
		require.NoError(t, err)
		assert.Equal(t, "cache:6380", opts.Addr)
		assert.Equal(t, "secret", opts.Password)
		assert.Equal(t, 3, opts.DB)
	})

	t.Run("empty addr", func(t *testing.T) {
		_, err := redisOptions(types.RedisConfig{})
		assert.ErrorIs(t, err, types.ErrRedisAddrEmpty)
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     types.Config
		wantErr error
	}{
		{name: "memory", cfg: types.Config{Backend: types.BackendMemory}},
		{name: "file", cfg: types.Config{Backend: types.BackendFile, DataDir: t.TempDir()}},
		{name: "sqlite", cfg: types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}},
		{name: "unknown", cfg: types.Config{Backend: "etcd"}, wantErr: types.ErrBackendUnknown},
		{name: "empty", cfg: types.Config{}, wantErr: types.ErrBackendEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, s.Close())
		})
	}
}
