// Package cache holds the result cache: opaque values with a TTL and invalidation tags.
package cache

import (
	"context"
	"time"
)

// Cache is a key-value store with time-to-live and tag-based invalidation.
// Implementations are safe for concurrent use; concurrent Sets of one key are last-writer-wins.
type Cache interface {
	// Get returns the value stored under key while it is fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl and indexes it under every tag.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string) error
	// InvalidateByTag removes every entry carrying tag and returns how many keys it dropped.
	InvalidateByTag(ctx context.Context, tag string) (int, error)
	// Clear removes every entry.
	Clear(ctx context.Context) error
}

// Nop never stores anything; every Get is a miss.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the value.
func (Nop) Set(context.Context, string, []byte, time.Duration, []string) error { return nil }

// InvalidateByTag does nothing.
func (Nop) InvalidateByTag(context.Context, string) (int, error) { return 0, nil }

// Clear does nothing.
func (Nop) Clear(context.Context) error { return nil }

// Compile-time checks.
var (
	_ Cache = Nop{}
	_ Cache = (*Memory)(nil)
	_ Cache = (*Redis)(nil)
)
