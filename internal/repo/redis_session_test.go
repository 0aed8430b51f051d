package repo

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otrade-bot/server/internal/order"
)

// stubRedis backs the session store with a plain map. Only the commands the
// store issues are implemented; anything else panics through the embedded nil.
type stubRedis struct {
	redis.Cmdable
	values map[string]string
}

func newStubRedis() *stubRedis {
	return &stubRedis{values: make(map[string]string)}
}

func (s *stubRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := s.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *stubRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		s.values[key] = string(v)
	case string:
		s.values[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (s *stubRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := s.values[k]; ok {
			delete(s.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisSessionStoreMissingLoadsNil(t *testing.T) {
	store := NewRedisSessionStore(newStubRedis(), time.Hour)

	got, err := store.Load(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSessionStoreCorruptedStateRecoversAsFresh(t *testing.T) {
	ctx := context.Background()
	rdb := newStubRedis()
	rdb.values["session:s1:state"] = "{not valid json"
	store := NewRedisSessionStore(rdb, time.Hour)

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err, "unreadable state is recovered, never fatal")
	assert.Nil(t, got)

	// the session continues as new: a fresh state saves over the garbage
	// and loads back intact
	fresh := order.NewState("s1")
	fresh.Merge(map[order.FieldName]string{order.FieldProductName: "rice"}, false)
	require.NoError(t, store.Save(ctx, fresh))

	reloaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, "rice", reloaded.Fields[order.FieldProductName])
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewRedisSessionStore(newStubRedis(), time.Hour)

	s := order.NewState("s1")
	s.SetCategory(order.CategoryLogistics)
	s.TurnCount = 3
	s.Merge(map[order.FieldName]string{order.FieldCity: "Hamburg"}, false)
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, order.CategoryLogistics, loaded.Category)
	assert.Equal(t, 3, loaded.TurnCount)
	assert.Equal(t, "Hamburg", loaded.Fields[order.FieldCity])

	require.NoError(t, store.Delete(ctx, "s1"))
	gone, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}
