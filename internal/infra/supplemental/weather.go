package supplemental

import (
	"context"
	"log/slog"
	"math"

	"github.com/yanqian/air-quality-advisor/internal/domain/airquality"
)

var compass = [...]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WeatherModel simulates a meteorological forecast model.
type WeatherModel struct {
	logger *slog.Logger
}

// NewWeatherModel builds the simulated weather model source.
func NewWeatherModel(logger *slog.Logger) *WeatherModel {
	return &WeatherModel{logger: logger.With("component", "supplemental.weather")}
}

// Observe never fails.
func (w *WeatherModel) Observe(_ context.Context, location string) (airquality.WeatherModelObservation, error) {
	w.logger.Info("fetching weather model data", "location", location)
	seed := len(location)
	return airquality.WeatherModelObservation{
		WindSpeedKmh:        math.Mod(float64(seed)*1.2, 30),
		WindDirection:       compass[seed%len(compass)],
		PrecipitationChance: (seed * 5) % 100,
	}, nil
}
