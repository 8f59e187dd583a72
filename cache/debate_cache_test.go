package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgadwala09/VocabPro-sub001/models"
)

func newTestCache(t *testing.T) (*DebateCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, WithTTL(time.Minute), WithPrefix("test")), mr
}

func TestCacheMissReturnsNil(t *testing.T) {
	c, _ := newTestCache(t)

	debate, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, debate)
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	in := &models.Debate{
		ID:           "d1",
		Topic:        "school uniforms",
		Rounds:       3,
		TurnDuration: 60,
		Status:       models.DebateStatusActive,
	}
	require.NoError(t, c.Set(ctx, in))

	out, err := c.Get(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Topic, out.Topic)
	assert.Equal(t, in.Status, out.Status)
}

func TestCacheEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &models.Debate{ID: "d1"}))

	mr.FastForward(2 * time.Minute)

	debate, err := c.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, debate)
}

func TestCacheInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &models.Debate{ID: "d1"}))
	require.NoError(t, c.Invalidate(ctx, "d1"))

	debate, err := c.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, debate)
}

func TestCacheCorruptEntryTreatedAsMiss(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, mr.Set("test:debate:d1", "not json"))

	debate, err := c.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Nil(t, debate)
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *DebateCache
	ctx := context.Background()

	debate, err := c.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, debate)

	require.NoError(t, c.Set(ctx, &models.Debate{ID: "d1"}))
	require.NoError(t, c.Invalidate(ctx, "d1"))
}
