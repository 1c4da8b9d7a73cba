package historyarchive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/air-quality-advisor/internal/domain/historical"
)

func day(s string) time.Time {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMemoryStoreSaveKeepsExistingDays(t *testing.T) {
	store, err := NewMemoryStore(4)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "paris", []historical.ArchivedPoint{
		{Day: day("2024-01-01"), AQI: 40},
		{Day: day("2024-01-02"), AQI: 55},
	}))
	require.NoError(t, store.Save(ctx, "paris", []historical.ArchivedPoint{
		{Day: day("2024-01-02"), AQI: 99},
		{Day: day("2024-01-03"), AQI: 61},
	}))

	got, err := store.Load(ctx, "paris", day("2024-01-01"), day("2024-01-05"))
	require.NoError(t, err)
	require.Equal(t, []historical.ArchivedPoint{
		{Day: day("2024-01-01"), AQI: 40},
		{Day: day("2024-01-02"), AQI: 55},
		{Day: day("2024-01-03"), AQI: 61},
	}, got)

	got, err = store.Load(ctx, "tokyo", day("2024-01-01"), day("2024-01-05"))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMemoryStoreEvictsLeastRecentlyUsed(t *testing.T) {
	store, err := NewMemoryStore(2)
	require.NoError(t, err)
	ctx := context.Background()
	point := []historical.ArchivedPoint{{Day: day("2024-03-01"), AQI: 30}}

	require.NoError(t, store.Save(ctx, "a", point))
	require.NoError(t, store.Save(ctx, "b", point))
	_, _ = store.Load(ctx, "a", day("2024-03-01"), day("2024-03-01"))
	require.NoError(t, store.Save(ctx, "c", point))

	got, err := store.Load(ctx, "b", day("2024-03-01"), day("2024-03-01"))
	require.NoError(t, err)
	require.Empty(t, got)
	got, err = store.Load(ctx, "a", day("2024-03-01"), day("2024-03-01"))
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestMemoryStorePrune(t *testing.T) {
	store, err := NewMemoryStore(0)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old", []historical.ArchivedPoint{{Day: day("2023-01-01"), AQI: 10}}))
	require.NoError(t, store.Save(ctx, "mixed", []historical.ArchivedPoint{
		{Day: day("2023-06-01"), AQI: 20},
		{Day: day("2024-06-01"), AQI: 30},
	}))

	removed, err := store.Prune(ctx, day("2024-01-01"))
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	got, err := store.Load(ctx, "mixed", day("2023-01-01"), day("2024-12-31"))
	require.NoError(t, err)
	require.Equal(t, []historical.ArchivedPoint{{Day: day("2024-06-01"), AQI: 30}}, got)
	require.Equal(t, 1, store.cache.Len())
}

func TestMemoryStoreCloseDropsSeries(t *testing.T) {
	store, err := NewMemoryStore(4)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "lima", []historical.ArchivedPoint{{Day: day("2024-02-01"), AQI: 70}}))

	store.Close()
	store.Close()

	got, err := store.Load(ctx, "lima", day("2024-02-01"), day("2024-02-01"))
	require.NoError(t, err)
	require.Empty(t, got)
}
