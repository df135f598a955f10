package db

import (
	"context"
	"time"
)

// Store is the key-value backend facade combining all sub-interfaces.
type Store interface {
	Pinger
	KVStore
	SetStore
	Scanner
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// TaggedItem is a value written together with the sets that index it.
type TaggedItem struct {
	Key   string
	Value []byte
	TTL   time.Duration
	Sets  []string
}

// SetStore provides set operations used for secondary indexes.
type SetStore interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SetTagged(ctx context.Context, item TaggedItem) error
}

// Scanner iterates keys by pattern.
type Scanner interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
}
