package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "codepad/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds the configuration for the Redis cookie backend.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
}

// DefaultRedisConfig returns a RedisConfig with sensible defaults.
func DefaultRedisConfig(addr string) *RedisConfig {
	return &RedisConfig{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	}
}

type redisEntry struct {
	Value string `json:"value"`
	Path  string `json:"path"`
}

// RedisCookieStore persists cookies in Redis with per-entry TTLs. Used by
// hosted deployments where the session record outlives one machine.
type RedisCookieStore struct {
	client *redis.Client
	prefix string
}

func NewRedisCookieStore(cfg *RedisConfig, prefix string) (*RedisCookieStore, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, pkgerrors.New(pkgerrors.InvalidParams).WithMessage("redis addr cannot be empty")
	}
	if prefix == "" {
		prefix = "codepad:cookie:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})
	return &RedisCookieStore{client: client, prefix: prefix}, nil
}

// NewRedisCookieStoreWithClient wraps an existing client, mainly for tests.
func NewRedisCookieStoreWithClient(client *redis.Client, prefix string) *RedisCookieStore {
	if prefix == "" {
		prefix = "codepad:cookie:"
	}
	return &RedisCookieStore{client: client, prefix: prefix}
}

func (s *RedisCookieStore) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, pkgerrors.Wrap(fmt.Errorf("redis get failed: %w", err), pkgerrors.CookieReadFailed)
	}
	var entry redisEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return "", false, pkgerrors.Wrap(fmt.Errorf("parse cookie entry failed: %w", err), pkgerrors.CookieReadFailed)
	}
	return entry.Value, true, nil
}

func (s *RedisCookieStore) Set(ctx context.Context, key, value string, opts Options) error {
	entry := redisEntry{Value: value, Path: normalizePath(opts.Path)}
	data, err := json.Marshal(entry)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CookieWriteFailed)
	}
	var ttl time.Duration
	if !opts.ExpiresAt.IsZero() {
		ttl = time.Until(opts.ExpiresAt)
		if ttl <= 0 {
			// Already expired, nothing to keep.
			return s.Remove(ctx, key, Options{Path: opts.Path})
		}
	}
	if err := s.client.Set(ctx, s.prefix+key, data, ttl).Err(); err != nil {
		return pkgerrors.Wrap(fmt.Errorf("redis set failed: %w", err), pkgerrors.CookieWriteFailed)
	}
	return nil
}

func (s *RedisCookieStore) Remove(ctx context.Context, key string, opts Options) error {
	data, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return pkgerrors.Wrap(fmt.Errorf("redis get failed: %w", err), pkgerrors.CookieRemoveFailed)
	}
	var entry redisEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CookieRemoveFailed)
	}
	if entry.Path != normalizePath(opts.Path) {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return pkgerrors.Wrap(fmt.Errorf("redis del failed: %w", err), pkgerrors.CookieRemoveFailed)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisCookieStore) Close() error {
	return s.client.Close()
}
