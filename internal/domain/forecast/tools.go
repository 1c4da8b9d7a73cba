package forecast

import (
	"context"

	"github.com/yanqian/air-quality-advisor/internal/domain/airquality"
	"github.com/yanqian/air-quality-advisor/internal/domain/generation"
)

const (
	toolSatellite = "getSatelliteData"
	toolWeather   = "getWeatherModelData"
)

type locationArgs struct {
	Location string `json:"location"`
}

var locationParams = generation.Object(map[string]generation.Schema{
	"location": generation.String("The city name."),
})

// Tools exposes the supplemental sources to the generative backend.
func Tools(satellite airquality.SatelliteSource, weather airquality.WeatherModelSource) []generation.Tool {
	return []generation.Tool{
		generation.NewTool(toolSatellite,
			"Retrieves satellite imagery analysis for a given location, focusing on aerosol optical depth and cloud cover.",
			locationParams,
			func(ctx context.Context, in locationArgs) (airquality.SatelliteObservation, error) {
				return satellite.Observe(ctx, in.Location)
			}),
		generation.NewTool(toolWeather,
			"Retrieves weather forecast data for a location, including wind speed, direction, and chance of precipitation, which influence air quality.",
			locationParams,
			func(ctx context.Context, in locationArgs) (airquality.WeatherModelObservation, error) {
				return weather.Observe(ctx, in.Location)
			}),
	}
}
