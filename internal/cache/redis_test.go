package cache

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/schooldex/internal/db"
	"github.com/kailas-cloud/schooldex/internal/domain"
)

// fakeRedis implements redisStore over maps.
type fakeRedis struct {
	kv      map[string][]byte
	sets    map[string]map[string]struct{}
	tagged  []db.TaggedItem
	delCall [][]string
	getErr  error
	setErr  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{kv: map[string][]byte{}, sets: map[string]map[string]struct{}{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeRedis) SetTagged(_ context.Context, item db.TaggedItem) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.tagged = append(f.tagged, item)
	f.kv[item.Key] = item.Value
	for _, s := range item.Sets {
		if f.sets[s] == nil {
			f.sets[s] = map[string]struct{}{}
		}
		f.sets[s][item.Key] = struct{}{}
	}
	return nil
}

func (f *fakeRedis) SMembers(_ context.Context, key string) ([]string, error) {
	var out []string
	for m := range f.sets[key] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.delCall = append(f.delCall, keys)
	for _, k := range keys {
		delete(f.kv, k)
		delete(f.sets, k)
	}
	return nil
}

func (f *fakeRedis) Scan(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var out []string
	for k := range f.kv {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	for k := range f.sets {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func TestRedis_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFakeRedis()
	c := NewRedis(store, "sd:", 0)

	if err := c.Set(ctx, "facets:abc", []byte("v"), time.Minute, []string{"schools", "facets", "schools"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	item := store.tagged[0]
	if item.Key != "sd:entry:facets:abc" || item.TTL != time.Minute {
		t.Errorf("item = %+v", item)
	}
	if len(item.Sets) != 2 || item.Sets[0] != "sd:tag:schools" || item.Sets[1] != "sd:tag:facets" {
		t.Errorf("sets = %v", item.Sets)
	}

	v, hit, err := c.Get(ctx, "facets:abc")
	if err != nil || !hit || string(v) != "v" {
		t.Fatalf("Get = %q, %v, %v", v, hit, err)
	}
	if _, hit, err := c.Get(ctx, "absent"); hit || err != nil {
		t.Errorf("expected clean miss, got hit=%v err=%v", hit, err)
	}
}

func TestRedis_GetError(t *testing.T) {
	store := newFakeRedis()
	store.getErr = &db.Error{Op: db.OpGet, Err: context.DeadlineExceeded}
	c := NewRedis(store, "sd:", 0)

	_, hit, err := c.Get(context.Background(), "k")
	if hit || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wrapped error, got hit=%v err=%v", hit, err)
	}
}

func TestRedis_SetLimits(t *testing.T) {
	ctx := context.Background()
	c := NewRedis(newFakeRedis(), "sd:", 2)

	if err := c.Set(ctx, "k", []byte("abc"), time.Minute, nil); !errors.Is(err, domain.ErrEntryTooLarge) {
		t.Errorf("expected ErrEntryTooLarge, got %v", err)
	}
	if err := c.Set(ctx, "k", []byte("a"), 0, nil); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestRedis_InvalidateByTag(t *testing.T) {
	ctx := context.Background()
	store := newFakeRedis()
	c := NewRedis(store, "sd:", 0)
	_ = c.Set(ctx, "a", []byte("1"), time.Minute, []string{"schools"})
	_ = c.Set(ctx, "b", []byte("2"), time.Minute, []string{"schools"})
	_ = c.Set(ctx, "c", []byte("3"), time.Minute, []string{"analytics"})

	n, err := c.InvalidateByTag(ctx, "schools")
	if err != nil {
		t.Fatalf("InvalidateByTag: %v", err)
	}
	if n != 2 {
		t.Errorf("removed %d, want 2", n)
	}
	for _, k := range []string{"a", "b"} {
		if _, hit, _ := c.Get(ctx, k); hit {
			t.Errorf("%s still cached", k)
		}
	}
	if _, hit, _ := c.Get(ctx, "c"); !hit {
		t.Error("entry under another tag was invalidated")
	}
	if _, ok := store.sets["sd:tag:schools"]; ok {
		t.Error("tag set not deleted")
	}
}

func TestRedis_Clear(t *testing.T) {
	ctx := context.Background()
	store := newFakeRedis()
	store.kv["other:key"] = []byte("keep")
	c := NewRedis(store, "sd:", 0)
	_ = c.Set(ctx, "a", []byte("1"), time.Minute, []string{"schools"})

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(store.kv) != 1 || len(store.sets) != 0 {
		t.Errorf("kv=%v sets=%v", store.kv, store.sets)
	}
}

func TestRedis_DelBatches(t *testing.T) {
	store := newFakeRedis()
	c := NewRedis(store, "sd:", 0)
	keys := make([]string, delBatch+1)
	for i := range keys {
		keys[i] = "k"
	}
	if err := c.delAll(context.Background(), keys); err != nil {
		t.Fatalf("delAll: %v", err)
	}
	if len(store.delCall) != 2 || len(store.delCall[0]) != delBatch || len(store.delCall[1]) != 1 {
		t.Errorf("unexpected batches: %d", len(store.delCall))
	}
}
