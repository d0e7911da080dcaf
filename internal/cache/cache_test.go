package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedDoc struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestAside_MissThenHit(t *testing.T) {
	mr, rdb := newTestClient(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedDoc) func() error {
		return func() error {
			calls++
			*dest = cachedDoc{ID: "t1", Text: "hello"}
			return nil
		}
	}

	var first cachedDoc
	require.NoError(t, Aside(ctx, rdb, ThoughtKey("t1"), &first, ThoughtTTL, fetch(&first)))
	assert.Equal(t, "hello", first.Text)
	assert.True(t, mr.Exists("thought:t1"))
	assert.Equal(t, ThoughtTTL, mr.TTL("thought:t1"))

	var second cachedDoc
	require.NoError(t, Aside(ctx, rdb, ThoughtKey("t1"), &second, ThoughtTTL, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr, rdb := newTestClient(t)
	boom := errors.New("boom")

	var doc cachedDoc
	err := Aside(context.Background(), rdb, UserKey("u1"), &doc, UserTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("user:u1"))
}

func TestAside_NilClientFallsThrough(t *testing.T) {
	var doc cachedDoc
	calls := 0
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), nil, "k", &doc, time.Minute, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestAside_RedisDownFallsThrough(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	var doc cachedDoc
	err = Aside(context.Background(), rdb, "k", &doc, time.Minute, func() error {
		doc.ID = "fresh"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", doc.ID)
}

func TestInvalidate(t *testing.T) {
	mr, rdb := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, rdb, UserKey("a"), cachedDoc{ID: "a"}, time.Minute))
	require.NoError(t, SetJSON(ctx, rdb, UserKey("b"), cachedDoc{ID: "b"}, time.Minute))

	Invalidate(ctx, rdb, UserKeys("a", "b")...)
	assert.False(t, mr.Exists("user:a"))
	assert.False(t, mr.Exists("user:b"))

	Invalidate(ctx, nil, "anything")
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb := InitRedis(mr.Addr())
	require.NotNil(t, rdb)
	assert.Equal(t, rdb, GetClient())
	_ = rdb.Close()

	rdb = InitRedis("redis://" + mr.Addr() + "/0")
	require.NotNil(t, rdb)
	_ = rdb.Close()

	assert.Nil(t, InitRedis(""))
	assert.Nil(t, GetClient())
	assert.Nil(t, InitRedis("redis://%zz"))
}
