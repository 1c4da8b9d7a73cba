package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/air-quality-advisor/internal/domain/historical"
	"github.com/yanqian/air-quality-advisor/internal/infra/config"
	"github.com/yanqian/air-quality-advisor/internal/infra/historyarchive"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func archiveConfig(archive config.ArchiveConfig) *config.Config {
	return &config.Config{History: config.HistoryConfig{Archive: archive}}
}

func TestProvideHistoryStoreCleanupClosesStore(t *testing.T) {
	store, cleanup, err := provideHistoryStore(archiveConfig(config.ArchiveConfig{MemorySize: 4}), discardLogger())
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	require.IsType(t, &historyarchive.MemoryStore{}, store)

	ctx := context.Background()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, "oslo", []historical.ArchivedPoint{{Day: day, AQI: 42}}))
	got, err := store.Load(ctx, "oslo", day, day)
	require.NoError(t, err)
	require.Len(t, got, 1)

	cleanup()

	got, err = store.Load(ctx, "oslo", day, day)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestProvideHistoryStoreFallsBackWhenValkeyUnreachable(t *testing.T) {
	cfg := archiveConfig(config.ArchiveConfig{
		MemorySize: 4,
		Valkey:     config.ValkeyConfig{Addr: "127.0.0.1:1"},
	})
	store, cleanup, err := provideHistoryStore(cfg, discardLogger())
	require.NoError(t, err)
	defer cleanup()
	require.IsType(t, &historyarchive.MemoryStore{}, store)
}

func TestProvideHistoryStoreRejectsInvalidMemorySize(t *testing.T) {
	store, cleanup, err := provideHistoryStore(archiveConfig(config.ArchiveConfig{}), discardLogger())
	require.Error(t, err)
	require.Nil(t, store)
	require.Nil(t, cleanup)
}
