// This file provides the redis backend on go-redis.
package kv

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/mesh-intelligence/basket/pkg/types"
)

// redisField is the hash field each key's value is stored under.
const redisField = "value"

// Connection retry parameters for OpenRedis.
const (
	redisPingAttempts   = 5
	redisPingTimeout    = 5 * time.Second
	redisMaxPingBackoff = 5 * time.Second
)

// Redis stores each key as a hash with a single value field.
type Redis struct {
	mu     sync.RWMutex
	client *redis.Client
}

// redisOptions builds client options from cfg. A redis:// URL is parsed as
// such; anything else is a host[:port] address.
func redisOptions(cfg types.RedisConfig) (*redis.Options, error) {
	if cfg.Addr == "" {
		return nil, types.ErrRedisAddrEmpty
	}
	if strings.HasPrefix(cfg.Addr, "redis://") || strings.HasPrefix(cfg.Addr, "rediss://") {
		opts, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, errors.Wrap(err, "parsing redis url")
		}
		return opts, nil
	}

	addr := cfg.Addr
	if !strings.Contains(addr, ":") {
		addr += ":6379"
	}
	return &redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MinIdleConns: 1,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     4,
	}, nil
}

// OpenRedis connects to redis and verifies the connection with a ping,
// backing off exponentially between attempts.
func OpenRedis(ctx context.Context, cfg types.RedisConfig) (*Redis, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	if err := pingWithBackoff(ctx, client); err != nil {
		client.Close()
		return nil, err
	}
	return &Redis{client: client}, nil
}

func pingWithBackoff(ctx context.Context, client *redis.Client) error {
	var lastErr error
	for i := 0; i < redisPingAttempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		lastErr = client.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			return nil
		}

		backoff := time.Duration(250*(1<<uint(i))) * time.Millisecond
		if backoff > redisMaxPingBackoff {
			backoff = redisMaxPingBackoff
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return errors.Wrapf(lastErr, "redis ping failed after %d attempts", redisPingAttempts)
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.client == nil {
		return "", false, types.ErrKVClosed
	}
	val, err := r.client.HGet(ctx, key, redisField).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "redis HGet %s", key)
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.client == nil {
		return types.ErrKVClosed
	}
	return errors.Wrapf(r.client.HSet(ctx, key, redisField, value).Err(), "redis HSet %s", key)
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.client == nil {
		return types.ErrKVClosed
	}
	return errors.Wrapf(r.client.Del(ctx, key).Err(), "redis Del %s", key)
}

// Close closes the client. Idempotent.
func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}
