package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yanqian/air-quality-advisor/internal/domain/airquality"
	"github.com/yanqian/air-quality-advisor/internal/domain/generation"
	"github.com/yanqian/air-quality-advisor/internal/domain/location"
	apperrors "github.com/yanqian/air-quality-advisor/pkg/errors"
)

const defaultPrompt = "You are an expert meteorologist and air quality scientist. Your task is to generate a comprehensive air quality forecast for a given location using pre-fetched ground sensor data and other available tools."

// Service exposes the air quality forecast capability.
type Service interface {
	Forecast(ctx context.Context, req Request) (Result, error)
}

type service struct {
	cfg     Config
	sensor  airquality.SensorClient
	tools   []generation.Tool
	backend generation.Backend
	logger  *slog.Logger
}

// NewService wires up the forecast domain.
func NewService(
	cfg Config,
	sensor airquality.SensorClient,
	satellite airquality.SatelliteSource,
	weather airquality.WeatherModelSource,
	backend generation.Backend,
	logger *slog.Logger,
) Service {
	return &service{
		cfg:     cfg,
		sensor:  sensor,
		tools:   Tools(satellite, weather),
		backend: backend,
		logger:  logger.With("component", "forecast.service"),
	}
}

// Forecast fetches ground data first. A sensor failure ends the request before
// the backend is ever contacted.
func (s *service) Forecast(ctx context.Context, req Request) (Result, error) {
	loc, err := resolveLocation(req)
	if err != nil {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), err)
	}

	ground, err := s.sensor.Fetch(ctx, loc)
	if err != nil {
		s.logger.Warn("ground sensor fetch failed", "location", loc.String(), "code", apperrors.CodeOf(err), "error", err)
		return Result{}, err
	}

	resp, err := s.backend.Generate(ctx, generation.Request{
		Name:   "forecastAirQuality",
		System: s.systemPrompt(),
		Prompt: buildPrompt(loc, ground),
		Input: promptInput{
			City:       loc.City,
			State:      loc.State,
			Country:    loc.Country,
			GroundData: ground,
		},
		Output: outputSchema(),
		Tools:  s.tools,
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return Result{}, err
		}
		return Result{}, apperrors.Wrap(apperrors.CodeLLM, "The AI service failed to generate a forecast. Please try again.", err)
	}
	s.logger.Info("forecast generated",
		"location", loc.String(),
		"tool_calls", resp.ToolCalls,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	result, err := decodeResult(resp.Output)
	if err != nil {
		s.logger.Warn("forecast output rejected", "location", loc.String(), "error", err)
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidOutput, "The AI service returned an invalid forecast. Please try again.", err)
	}
	return result, nil
}

func (s *service) systemPrompt() string {
	if p := strings.TrimSpace(s.cfg.Prompt); p != "" {
		return p
	}
	return defaultPrompt
}

type promptInput struct {
	City       string                   `json:"city"`
	State      string                   `json:"state"`
	Country    string                   `json:"country"`
	GroundData airquality.GroundReading `json:"groundData"`
}

func buildPrompt(loc location.Location, ground airquality.GroundReading) string {
	var b strings.Builder
	b.WriteString("You have been provided with the following real-time ground sensor data:\n")
	fmt.Fprintf(&b, "- PM2.5: %g AQI\n- O3: %g ppb\n- NO2: %g ppb\n\n", ground.PM25, ground.O3, ground.NO2)
	b.WriteString("Now, you MUST use the other available tools to gather supplemental data:\n")
	fmt.Fprintf(&b, "1. Call '%s' with just the city name to get satellite-based observations.\n", toolSatellite)
	fmt.Fprintf(&b, "2. Call '%s' with just the city name to get the weather forecast.\n\n", toolWeather)
	b.WriteString("Once you have the data from all sources, synthesize it to create your forecast. The forecast must include:\n")
	b.WriteString("- A detailed 1-day summary forecast that explains how the weather (wind, rain) will affect air quality.\n")
	b.WriteString("- The overall current AQI for the location, calculated based on the available pollutant data.\n")
	b.WriteString("- A breakdown of individual pollutants (PM2.5, O3, NO2), their specific AQI values, and a brief recommendation for each.\n")
	b.WriteString("- A 30-day AQI forecast as an array of 30 integers (from 0 to 300) for a sparkline chart.\n")
	b.WriteString("- Detailed health recommendations: one for the general public and another specifically for sensitive groups (children, elderly, individuals with health conditions).\n\n")
	fmt.Fprintf(&b, "Location: %s", loc.String())
	return b.String()
}

func resolveLocation(req Request) (location.Location, error) {
	if raw := strings.TrimSpace(req.Location); raw != "" {
		return location.Parse(raw)
	}
	loc := location.Location{City: req.City, State: req.State, Country: req.Country}.Normalize()
	if err := loc.Validate(); err != nil {
		return location.Location{}, err
	}
	return loc, nil
}

func decodeResult(raw []byte) (Result, error) {
	var result Result
	if err := generation.Decode(raw, &result); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(result.Forecast) == "" {
		return Result{}, generation.Invalid("forecast is blank")
	}
	if strings.TrimSpace(result.HealthRecommendations.GeneralPublic) == "" ||
		strings.TrimSpace(result.HealthRecommendations.SensitiveGroups) == "" {
		return Result{}, generation.Invalid("health recommendations are blank")
	}

	seen := make(map[string]struct{}, len(pollutantNames))
	for i, p := range result.Pollutants {
		name, ok := canonicalPollutant(p.Name)
		if !ok {
			return Result{}, generation.Invalid("unexpected pollutant %q", p.Name)
		}
		if _, dup := seen[name]; dup {
			return Result{}, generation.Invalid("duplicate pollutant %q", name)
		}
		if strings.TrimSpace(p.Recommendation) == "" {
			return Result{}, generation.Invalid("pollutant %q has no recommendation", name)
		}
		seen[name] = struct{}{}
		result.Pollutants[i].Name = name
	}
	return result, nil
}

func canonicalPollutant(name string) (string, bool) {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
	switch key {
	case "PM2.5", "PM25":
		return "PM2.5", true
	case "O3":
		return "O3", true
	case "NO2":
		return "NO2", true
	default:
		return "", false
	}
}
