package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cutroom/cutroom-agent/internal/db"
)

func testIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewSQLiteIndex(database.Conn())
}

func TestSQLiteIndex_RoundTrip(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()
	resolvedAt := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, idx.Put(ctx, Entry{
		Ref:          "scene-1.mp4",
		Availability: AvailabilityReady,
		Path:         "/cache/scene-1.mp4",
		Size:         2048,
		Duration:     12.5,
		ResolvedAt:   resolvedAt,
	}))
	require.NoError(t, idx.Put(ctx, Entry{
		Ref:          "gone.mp4",
		Availability: AvailabilityFailed,
		Error:        "connection refused",
		ResolvedAt:   resolvedAt,
	}))

	entries, err := idx.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byRef := map[string]Entry{}
	for _, e := range entries {
		byRef[e.Ref] = e
	}

	ready := byRef["scene-1.mp4"]
	require.Equal(t, AvailabilityReady, ready.Availability)
	require.Equal(t, "/cache/scene-1.mp4", ready.Path)
	require.Equal(t, int64(2048), ready.Size)
	require.Equal(t, 12.5, ready.Duration)
	require.True(t, ready.ResolvedAt.Equal(resolvedAt))

	failed := byRef["gone.mp4"]
	require.Equal(t, AvailabilityFailed, failed.Availability)
	require.Equal(t, "connection refused", failed.Error)
}

func TestSQLiteIndex_PutUpserts(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	e := Entry{Ref: "a.mp4", Availability: AvailabilityReady, Path: "/cache/a.mp4", Size: 1, Duration: 1, ResolvedAt: time.Now()}
	require.NoError(t, idx.Put(ctx, e))

	e.Duration = 9.5
	require.NoError(t, idx.Put(ctx, e))

	entries, err := idx.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 9.5, entries[0].Duration)
}

func TestSQLiteIndex_Delete(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Put(ctx, Entry{Ref: "a.mp4", Availability: AvailabilityReady, Path: "/cache/a.mp4", ResolvedAt: time.Now()}))
	require.NoError(t, idx.Delete(ctx, "a.mp4"))

	entries, err := idx.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCache_WarmRestoresReadyEntries(t *testing.T) {
	idx := testIndex(t)
	path := filepath.Join(t.TempDir(), "scene-1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("bytes"), 0o644))

	first := NewCache(testLogger())
	first.SetIndex(idx)
	require.True(t, first.StoreReady("scene-1.mp4", path, 5, 7.5))

	second := NewCache(testLogger())
	second.SetIndex(idx)
	warmed, err := second.Warm(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, warmed)

	require.True(t, second.Ready("scene-1.mp4"))
	d, ok := second.Duration("scene-1.mp4")
	require.True(t, ok)
	require.Equal(t, 7.5, d)
}

func TestCache_WarmDropsVanishedFiles(t *testing.T) {
	idx := testIndex(t)
	path := filepath.Join(t.TempDir(), "scene-1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("bytes"), 0o644))

	first := NewCache(testLogger())
	first.SetIndex(idx)
	require.True(t, first.StoreReady("scene-1.mp4", path, 5, 7.5))
	require.NoError(t, os.Remove(path))

	second := NewCache(testLogger())
	second.SetIndex(idx)
	warmed, err := second.Warm(context.Background())
	require.NoError(t, err)
	require.Zero(t, warmed)
	require.Equal(t, AvailabilityPending, second.Availability("scene-1.mp4"))

	entries, err := idx.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCache_WarmClearsFailures(t *testing.T) {
	idx := testIndex(t)

	first := NewCache(testLogger())
	first.SetIndex(idx)
	require.True(t, first.StoreFailed("gone.mp4", errors.New("connection refused")))

	second := NewCache(testLogger())
	second.SetIndex(idx)
	warmed, err := second.Warm(context.Background())
	require.NoError(t, err)
	require.Zero(t, warmed)

	// The next prefetch after a restart gets a clean retry.
	require.Equal(t, AvailabilityPending, second.Availability("gone.mp4"))

	entries, err := idx.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCache_EvictClearsPersistedRow(t *testing.T) {
	idx := testIndex(t)
	path := filepath.Join(t.TempDir(), "scene-1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("bytes"), 0o644))

	first := NewCache(testLogger())
	first.SetIndex(idx)
	require.True(t, first.StoreReady("scene-1.mp4", path, 5, 7.5))
	first.Evict("scene-1.mp4")

	second := NewCache(testLogger())
	second.SetIndex(idx)
	warmed, err := second.Warm(context.Background())
	require.NoError(t, err)
	require.Zero(t, warmed)
}
