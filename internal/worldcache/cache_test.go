package worldcache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidegate/worldctl/internal/worlds"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "worlds.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func sampleWorlds() []worlds.World {
	return []worlds.World{
		{ID: "w1", Name: "Aurora", Status: "running", Players: 42, CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		{ID: "w2", Name: "Borealis", Status: "stopped", Players: 0},
	}
}

func TestEmptyCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	fetchedAt, err := s.FetchedAt(ctx)
	require.NoError(t, err)
	assert.True(t, fetchedAt.IsZero())
}

func TestReplaceListRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, sampleWorlds()))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleWorlds(), list)

	fetchedAt, err := s.FetchedAt(ctx)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), fetchedAt, time.Minute)
}

func TestReplace_SwapsWholeSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, sampleWorlds()))

	next := []worlds.World{
		{ID: "w3", Name: "Cascade", Status: "running", Players: 7},
	}
	require.NoError(t, s.Replace(ctx, next))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, next, list)
}

func TestReplace_EmptySnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, sampleWorlds()))
	require.NoError(t, s.Replace(ctx, nil))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	// The snapshot timestamp still updates — an empty fleet is a valid
	// fetch result.
	fetchedAt, err := s.FetchedAt(ctx)
	require.NoError(t, err)
	assert.False(t, fetchedAt.IsZero())
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worlds.db")
	ctx := context.Background()

	s, err := New(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Replace(ctx, sampleWorlds()))
	require.NoError(t, s.Close())

	s2, err := New(path, nil)
	require.NoError(t, err)
	defer s2.Close()

	list, err := s2.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleWorlds(), list)
}
