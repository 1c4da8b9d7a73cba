package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/air-quality-advisor/internal/domain/forecast"
	"github.com/yanqian/air-quality-advisor/internal/domain/generation"
	"github.com/yanqian/air-quality-advisor/internal/domain/historical"
	"github.com/yanqian/air-quality-advisor/internal/domain/notification"
	"github.com/yanqian/air-quality-advisor/internal/infra/airvisual"
	"github.com/yanqian/air-quality-advisor/internal/infra/config"
	"github.com/yanqian/air-quality-advisor/internal/infra/historyarchive"
	"github.com/yanqian/air-quality-advisor/internal/infra/llm/chatgpt"
	"github.com/yanqian/air-quality-advisor/internal/infra/llm/gemini"
	"github.com/yanqian/air-quality-advisor/internal/infra/llm/offline"
)

func provideForecastConfig(cfg *config.Config) forecast.Config {
	return forecast.Config{Prompt: cfg.Forecast.Prompt}
}

func provideHistoricalConfig(cfg *config.Config) historical.Config {
	return historical.Config{
		Prompt:       cfg.History.Prompt,
		MaxRangeDays: cfg.History.MaxRangeDays,
		Retry:        generation.RetryConfig{MaxAttempts: cfg.History.Retry.MaxAttempts, Step: cfg.History.Retry.Step},
	}
}

func provideNotificationConfig(cfg *config.Config) notification.Config {
	return notification.Config{
		Prompt: cfg.Notification.Prompt,
		Retry:  generation.RetryConfig{MaxAttempts: cfg.Notification.Retry.MaxAttempts, Step: cfg.Notification.Retry.Step},
	}
}

func provideSensorClient(cfg *config.Config, logger *slog.Logger) *airvisual.Client {
	aq := cfg.AirQuality
	return airvisual.NewClient(airvisual.Config{
		BaseURL:           aq.APIBaseURL,
		APIKey:            aq.APIKey,
		Timeout:           aq.Timeout,
		RequestsPerSecond: aq.RequestsPerSecond,
		Burst:             aq.Burst,
		Breaker: airvisual.BreakerConfig{
			MaxRequests:      aq.Breaker.MaxRequests,
			Interval:         aq.Breaker.Interval,
			Timeout:          aq.Breaker.Timeout,
			FailureThreshold: aq.Breaker.FailureThreshold,
		},
	}, logger)
}

func provideGenerationBackend(cfg *config.Config, logger *slog.Logger) (generation.Backend, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		models, err := gemini.NewModels(ctx, cfg.LLM.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		logger.Info("gemini backend enabled", "model", cfg.LLM.GeminiModel)
		return gemini.NewBackend(gemini.Config{
			Model:         cfg.LLM.GeminiModel,
			Temperature:   cfg.LLM.Temperature,
			MaxToolRounds: cfg.LLM.MaxToolRounds,
		}, models, logger), nil
	case config.ProviderOffline:
		logger.Warn("offline backend enabled, responses are synthesized locally")
		return offline.NewBackend(logger), nil
	case config.ProviderOpenAI:
		client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
		if err != nil {
			return nil, err
		}
		logger.Info("chatgpt backend enabled", "model", cfg.LLM.Model)
		return chatgpt.NewBackend(chatgpt.BackendConfig{
			Model:         cfg.LLM.Model,
			Temperature:   cfg.LLM.Temperature,
			MaxToolRounds: cfg.LLM.MaxToolRounds,
		}, client, chatgpt.NewTokenCounter(cfg.LLM.Model), logger), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}
}

// provideHistoryStore prefers Postgres, then Valkey, then process memory.
// The returned cleanup closes the store's connections.
func provideHistoryStore(cfg *config.Config, logger *slog.Logger) (historyarchive.Store, func(), error) {
	archive := cfg.History.Archive
	store := providePostgresHistoryStore(archive.Postgres, logger)
	if store == nil {
		store = provideValkeyHistoryStore(archive.Valkey, logger)
	}
	if store == nil {
		logger.Info("history archive using memory store", "locations", archive.MemorySize)
		mem, err := historyarchive.NewMemoryStore(archive.MemorySize)
		if err != nil {
			return nil, nil, err
		}
		store = mem
	}
	cleanup := func() {
		store.Close()
		logger.Info("history archive closed")
	}
	return store, cleanup, nil
}

func providePostgresHistoryStore(cfg config.PostgresConfig, logger *slog.Logger) historyarchive.Store {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, skipping postgres history archive", "error", err)
		return nil
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, skipping postgres history archive", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, skipping postgres history archive", "error", err)
		pool.Close()
		return nil
	}
	store := historyarchive.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("postgres history schema setup failed, skipping postgres history archive", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("history archive postgres store enabled")
	return store
}

func provideValkeyHistoryStore(cfg config.ValkeyConfig, logger *slog.Logger) historyarchive.Store {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil
	}
	opt, err := buildValkeyOptions(addr)
	if err != nil {
		logger.Error("invalid valkey configuration, skipping valkey history archive", "error", err)
		return nil
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, skipping valkey history archive", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, skipping valkey history archive", "error", err)
		client.Close()
		return nil
	}
	logger.Info("history archive valkey store enabled", "addr", addr)
	return historyarchive.NewValkeyStore(client, cfg.Prefix, cfg.TTL)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideHistoryArchive(store historyarchive.Store) historical.Archive {
	return store
}

func providePruner(cfg *config.Config, store historyarchive.Store, logger *slog.Logger) *historyarchive.Pruner {
	return historyarchive.NewPruner(store, cfg.History.Archive.PruneSchedule, cfg.History.Archive.Retention, logger)
}
