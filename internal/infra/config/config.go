package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider names accepted by llm.provider.
const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderOffline = "offline"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	LLM          LLMConfig          `yaml:"llm"`
	AirQuality   AirQualityConfig   `yaml:"airQuality"`
	Forecast     ForecastConfig     `yaml:"forecast"`
	History      HistoryConfig      `yaml:"history"`
	Notification NotificationConfig `yaml:"notification"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	RequestTimeout time.Duration   `yaml:"requestTimeout"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	CORS           CORSConfig      `yaml:"cors"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// CORSConfig lists browser origins allowed to call the API. "*" allows any.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// LLMConfig selects and tunes the generative backend.
type LLMConfig struct {
	Provider      string        `yaml:"provider"`
	APIKey        string        `yaml:"apiKey"`
	BaseURL       string        `yaml:"baseUrl"`
	Model         string        `yaml:"model"`
	GeminiAPIKey  string        `yaml:"geminiApiKey"`
	GeminiModel   string        `yaml:"geminiModel"`
	Temperature   float32       `yaml:"temperature"`
	MaxToolRounds int           `yaml:"maxToolRounds"`
	Timeout       time.Duration `yaml:"timeout"`
}

// AirQualityConfig configures the IQAir ground sensor client.
type AirQualityConfig struct {
	APIBaseURL        string        `yaml:"apiBaseUrl"`
	APIKey            string        `yaml:"apiKey"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	Burst             int           `yaml:"burst"`
	Breaker           BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the provider circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"maxRequests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failureThreshold"`
}

// ForecastConfig controls the forecast flow.
type ForecastConfig struct {
	Prompt string `yaml:"prompt"`
}

// HistoryConfig controls the historical analysis flow and its archive.
type HistoryConfig struct {
	Prompt       string        `yaml:"prompt"`
	MaxRangeDays int           `yaml:"maxRangeDays"`
	Retry        RetryConfig   `yaml:"retry"`
	Archive      ArchiveConfig `yaml:"archive"`
}

// NotificationConfig controls the notification strategy flow.
type NotificationConfig struct {
	Prompt string      `yaml:"prompt"`
	Retry  RetryConfig `yaml:"retry"`
}

// RetryConfig bounds retries of overloaded generative calls.
type RetryConfig struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	Step        time.Duration `yaml:"step"`
}

// ArchiveConfig picks where generated history is persisted. Postgres wins over
// Valkey; with neither configured an in-memory LRU is used.
type ArchiveConfig struct {
	MemorySize    int            `yaml:"memorySize"`
	Postgres      PostgresConfig `yaml:"postgres"`
	Valkey        ValkeyConfig   `yaml:"valkey"`
	PruneSchedule string         `yaml:"pruneSchedule"`
	Retention     time.Duration  `yaml:"retention"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ValkeyConfig contains connection information for the Valkey archive.
type ValkeyConfig struct {
	Addr   string        `yaml:"addr"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
}

// Load reads configuration from .env, a YAML file and environment variables.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_REQUEST_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.RequestTimeout = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORS.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("LLM_MAX_TOOL_ROUNDS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxToolRounds = parsed
		}
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.GeminiAPIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.LLM.GeminiModel = v
	}
	if v := os.Getenv("IQAIR_API_KEY"); v != "" {
		cfg.AirQuality.APIKey = v
	}
	if v := os.Getenv("IQAIR_BASE_URL"); v != "" {
		cfg.AirQuality.APIBaseURL = v
	}
	if v := os.Getenv("IQAIR_REQUESTS_PER_SECOND"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AirQuality.RequestsPerSecond = parsed
		}
	}
	if v := os.Getenv("FORECAST_PROMPT"); v != "" {
		cfg.Forecast.Prompt = v
	}
	if v := os.Getenv("HISTORY_PROMPT"); v != "" {
		cfg.History.Prompt = v
	}
	if v := os.Getenv("HISTORY_MAX_RANGE_DAYS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.MaxRangeDays = parsed
		}
	}
	if v := os.Getenv("HISTORY_POSTGRES_DSN"); v != "" {
		cfg.History.Archive.Postgres.DSN = v
	}
	if v := os.Getenv("HISTORY_VALKEY_ADDR"); v != "" {
		cfg.History.Archive.Valkey.Addr = v
	}
	if v := os.Getenv("HISTORY_PRUNE_SCHEDULE"); v != "" {
		cfg.History.Archive.PruneSchedule = v
	}
	if v := os.Getenv("HISTORY_RETENTION"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.History.Archive.Retention = parsed
		}
	}
	if v := os.Getenv("NOTIFICATION_PROMPT"); v != "" {
		cfg.Notification.Prompt = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   90 * time.Second,
			RequestTimeout: 60 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 30,
				Burst:             10,
			},
			CORS: CORSConfig{
				AllowedOrigins: []string{"*"},
			},
		},
		LLM: LLMConfig{
			Provider:      ProviderOpenAI,
			Model:         "gpt-4o-mini",
			GeminiModel:   "gemini-2.5-flash",
			Temperature:   0.2,
			MaxToolRounds: 5,
			Timeout:       60 * time.Second,
		},
		AirQuality: AirQualityConfig{
			APIBaseURL:        "http://api.airvisual.com",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
			Breaker: BreakerConfig{
				MaxRequests:      1,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		Forecast: ForecastConfig{
			Prompt: "You are an expert meteorologist and air quality scientist. Your task is to generate a comprehensive air quality forecast for a given location using pre-fetched ground sensor data and other available tools.",
		},
		History: HistoryConfig{
			Prompt:       "You are an environmental data scientist. Analyze the provided historical air quality data for the specified location and time range.",
			MaxRangeDays: 366,
			Retry: RetryConfig{
				MaxAttempts: 3,
				Step:        time.Second,
			},
			Archive: ArchiveConfig{
				MemorySize: 256,
				Postgres: PostgresConfig{
					MaxConns: 4,
				},
				Valkey: ValkeyConfig{
					Prefix: "aqi:history",
					TTL:    30 * 24 * time.Hour,
				},
				PruneSchedule: "@daily",
				Retention:     2 * 365 * 24 * time.Hour,
			},
		},
		Notification: NotificationConfig{
			Prompt: "You are an expert in air quality and health. You will suggest a notification strategy for the user based on their location and risk factors.",
			Retry: RetryConfig{
				MaxAttempts: 3,
				Step:        time.Second,
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RequestTimeout < 0 {
		return errors.New("http.requestTimeout cannot be negative")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderOffline:
	default:
		return fmt.Errorf("llm.provider must be one of %s, %s or %s", ProviderOpenAI, ProviderGemini, ProviderOffline)
	}
	if c.LLM.MaxToolRounds < 0 {
		return errors.New("llm.maxToolRounds cannot be negative")
	}
	if strings.TrimSpace(c.AirQuality.APIBaseURL) == "" {
		return errors.New("airQuality.apiBaseUrl cannot be empty")
	}
	if c.AirQuality.RequestsPerSecond < 0 {
		return errors.New("airQuality.requestsPerSecond cannot be negative")
	}
	if c.History.MaxRangeDays <= 0 {
		return errors.New("history.maxRangeDays must be positive")
	}
	if c.History.Retry.MaxAttempts <= 0 {
		return errors.New("history.retry.maxAttempts must be positive")
	}
	if c.Notification.Retry.MaxAttempts <= 0 {
		return errors.New("notification.retry.maxAttempts must be positive")
	}
	if c.History.Archive.MemorySize < 0 {
		return errors.New("history.archive.memorySize cannot be negative")
	}
	if c.History.Archive.Retention < 0 {
		return errors.New("history.archive.retention cannot be negative")
	}
	return nil
}
