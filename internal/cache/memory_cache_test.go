package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", payload{Name: "a", Count: 2}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, payload{Name: "a", Count: 2}, got)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &memoryCache{entries: map[string]memoryEntry{}, now: func() time.Time { return now }}

	require.NoError(t, c.Set(ctx, "k", 1, time.Second))
	now = now.Add(2 * time.Second)

	var got int
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, EpisodeExercisesKey(1, "v1"), 1, 0))
	require.NoError(t, c.Set(ctx, EpisodeExercisesKey(1, "v2"), 2, 0))
	require.NoError(t, c.Set(ctx, EpisodeExercisesKey(12, "v1"), 12, 0))
	require.NoError(t, c.Set(ctx, "other", 3, 0))

	require.NoError(t, c.DeletePattern(ctx, EpisodeExercisesPattern(1)))

	var got int
	assert.ErrorIs(t, c.Get(ctx, EpisodeExercisesKey(1, "v1"), &got), ErrCacheMiss)
	assert.ErrorIs(t, c.Get(ctx, EpisodeExercisesKey(1, "v2"), &got), ErrCacheMiss)
	require.NoError(t, c.Get(ctx, EpisodeExercisesKey(12, "v1"), &got))
	assert.Equal(t, 12, got)
	require.NoError(t, c.Get(ctx, "other", &got))
	assert.Equal(t, 3, got)
}
