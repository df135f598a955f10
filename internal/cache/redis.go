package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/schooldex/internal/db"
	"github.com/kailas-cloud/schooldex/internal/domain"
)

const delBatch = 500

// redisStore is the consumer interface for the redis backend (ISP).
type redisStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetTagged(ctx context.Context, item db.TaggedItem) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Redis keeps entries in redis under a key prefix. Each tag is a set of entry keys
// whose TTL is at least that of its longest-lived member.
type Redis struct {
	store         redisStore
	prefix        string
	maxEntryBytes int
}

// NewRedis creates a redis-backed cache.
func NewRedis(s redisStore, prefix string, maxEntryBytes int) *Redis {
	if maxEntryBytes <= 0 {
		maxEntryBytes = DefaultMaxEntryBytes
	}
	return &Redis{store: s, prefix: prefix, maxEntryBytes: maxEntryBytes}
}

// Get returns the value; expiry is enforced by redis.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.store.Get(ctx, r.entryKey(key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return data, true, nil
}

// Set writes the value and its tag memberships in one round-trip.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string) error {
	if ttl <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	if len(value) > r.maxEntryBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", domain.ErrEntryTooLarge, len(value), r.maxEntryBytes)
	}
	tags = dedup(tags)
	sets := make([]string, len(tags))
	for i, t := range tags {
		sets[i] = r.tagKey(t)
	}
	item := db.TaggedItem{Key: r.entryKey(key), Value: value, TTL: ttl, Sets: sets}
	if err := r.store.SetTagged(ctx, item); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// InvalidateByTag deletes the tag's member keys and the tag set itself.
func (r *Redis) InvalidateByTag(ctx context.Context, tag string) (int, error) {
	tagKey := r.tagKey(tag)
	keys, err := r.store.SMembers(ctx, tagKey)
	if err != nil {
		return 0, fmt.Errorf("cache invalidate %s: %w", tag, err)
	}
	if err := r.delAll(ctx, append(keys, tagKey)); err != nil {
		return 0, fmt.Errorf("cache invalidate %s: %w", tag, err)
	}
	return len(keys), nil
}

// Clear deletes every key under the prefix, tag sets included.
func (r *Redis) Clear(ctx context.Context) error {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	if err := r.delAll(ctx, keys); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

func (r *Redis) delAll(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += delBatch {
		end := min(start+delBatch, len(keys))
		if err := r.store.Del(ctx, keys[start:end]...); err != nil {
			return err //nolint:wrapcheck // wrapped by callers
		}
	}
	return nil
}

func (r *Redis) entryKey(key string) string { return r.prefix + "entry:" + key }

func (r *Redis) tagKey(tag string) string { return r.prefix + "tag:" + tag }
