package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis is an in-memory redisClient. Scan returns two keys per page so
// DeletePrefix has to follow the cursor.
type fakeRedis struct {
	data    map[string][]byte
	scanErr error
	scans   int
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string][]byte{}} }

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.data[key] = value.([]byte)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Scan(ctx context.Context, cursor uint64, match string, _ int64) *redis.ScanCmd {
	f.scans++
	if f.scanErr != nil {
		return redis.NewScanCmdResult(nil, 0, f.scanErr)
	}
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	// Keys are deleted between pages, so serving from the front with a
	// non-zero cursor while more remain walks the whole keyspace.
	end := min(2, len(keys))
	var next uint64
	if end < len(keys) {
		next = cursor + 1
	}
	return redis.NewScanCmdResult(keys[:end], next, nil)
}

func (f *fakeRedis) Close() error { return nil }

func TestRedisStore_GetSetRemove(t *testing.T) {
	s := &RedisStore{client: newFakeRedis()}
	ctx := context.Background()

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	require.NoError(t, s.Remove(ctx, "k"))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_DeletePrefix(t *testing.T) {
	fake := newFakeRedis()
	s := &RedisStore{client: fake}
	ctx := context.Background()

	for _, k := range []string{"recipe_cache_1", "recipe_cache_2", "recipe_cache_3", "recipe_cache_4", "recipe_cache_5", "other"} {
		require.NoError(t, s.Set(ctx, k, []byte("v")))
	}

	n, err := s.DeletePrefix(ctx, "recipe_cache_")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Greater(t, fake.scans, 1)
	assert.Len(t, fake.data, 1)
	assert.Contains(t, fake.data, "other")
}

func TestRedisStore_DeletePrefix_ScanError(t *testing.T) {
	fake := newFakeRedis()
	fake.scanErr = errors.New("READONLY")
	s := &RedisStore{client: fake}

	_, err := s.DeletePrefix(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: scan p*")
}

func TestGlobEscape(t *testing.T) {
	assert.Equal(t, `recipe_cache_`, globEscape("recipe_cache_"))
	assert.Equal(t, `a\*b\?c\[d\]`, globEscape("a*b?c[d]"))
}
