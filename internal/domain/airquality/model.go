package airquality

import (
	"context"

	"github.com/yanqian/air-quality-advisor/internal/domain/location"
)

// GroundReading is a real-time ground sensor snapshot for one location.
// Only PM25 comes from the provider; O3 and NO2 are placeholders.
type GroundReading struct {
	PM25 float64 `json:"pm25"`
	O3   float64 `json:"o3"`
	NO2  float64 `json:"no2"`
}

// SatelliteObservation is a simulated satellite measurement.
type SatelliteObservation struct {
	AerosolOpticalDepth float64 `json:"aerosolOpticalDepth"`
	CloudCover          int     `json:"cloudCover"`
}

// WeatherModelObservation is a simulated meteorological model output.
type WeatherModelObservation struct {
	WindSpeedKmh        float64 `json:"windSpeedKmh"`
	WindDirection       string  `json:"windDirection"`
	PrecipitationChance int     `json:"precipitationChance"`
}

// SensorClient fetches ground readings from an external provider.
type SensorClient interface {
	Fetch(ctx context.Context, loc location.Location) (GroundReading, error)
}

// SatelliteSource returns satellite observations for a free-text location.
type SatelliteSource interface {
	Observe(ctx context.Context, location string) (SatelliteObservation, error)
}

// WeatherModelSource returns weather model observations for a free-text location.
type WeatherModelSource interface {
	Observe(ctx context.Context, location string) (WeatherModelObservation, error)
}
