package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/schooldex/internal/db"
)

// SAdd adds members to a set.
func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	cmd := s.b().Sadd().Key(key).Member(members...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSAdd, Err: err}
	}
	return nil
}

// SMembers returns all members of a set. A missing set yields an empty slice.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	cmd := s.b().Smembers().Key(key).Build()
	members, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, &db.Error{Op: db.OpSMembers, Err: err}
	}
	return members, nil
}

// SetTagged writes a value and registers its key in every index set in one DoMulti round-trip.
// Each set's TTL is raised to at least the value TTL so a set never expires before its members.
func (s *Store) SetTagged(ctx context.Context, item db.TaggedItem) error {
	secs := ttlSeconds(item.TTL)
	cmds := make(rueidis.Commands, 0, 1+3*len(item.Sets))
	cmds = append(cmds, s.b().Set().Key(item.Key).Value(rueidis.BinaryString(item.Value)).Ex(item.TTL).Build())
	for _, set := range item.Sets {
		cmds = append(cmds,
			s.b().Sadd().Key(set).Member(item.Key).Build(),
			s.b().Expire().Key(set).Seconds(secs).Nx().Build(),
			s.b().Expire().Key(set).Seconds(secs).Gt().Build(),
		)
	}

	for i, r := range s.client.DoMulti(ctx, cmds...) {
		if err := r.Error(); err != nil {
			return &db.Error{Op: db.OpMulti, Err: fmt.Errorf("command %d: %w", i, err)}
		}
	}
	return nil
}

// Scan iterates keys matching a pattern.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}
