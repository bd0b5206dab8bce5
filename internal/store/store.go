// Package store provides a key-value abstraction over an in-memory map or
// Redis, selected at startup by REDIS_DSN.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("store: key not found")

// Store is the key-value interface used for write-behind log buffering and
// live relay counters.
type Store interface {
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	Del(keys ...string) error
	Exists(key string) (bool, error)
	SetNX(key string, value []byte, ttl time.Duration) (bool, error)

	// Hash operations, used for counters.
	HSet(key string, values map[string]any) error
	HGetAll(key string) (map[string]string, error)
	HIncrBy(key, field string, incr int64) (int64, error)

	// Set operations, used for pending-log key tracking.
	SAdd(key string, members ...any) error
	SPopN(key string, count int64) ([]string, error)

	Clear() error
	Close() error
}
