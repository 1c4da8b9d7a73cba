package supplemental

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSatelliteObserve(t *testing.T) {
	sat := NewSatellite(discardLogger())

	obs, err := sat.Observe(context.Background(), "Los Angeles")
	require.NoError(t, err)
	require.InDelta(t, 0.1, obs.AerosolOpticalDepth, 1e-9)
	require.Equal(t, 77, obs.CloudCover)

	again, err := sat.Observe(context.Background(), "Los Angeles")
	require.NoError(t, err)
	require.Equal(t, obs, again)
}

func TestSatelliteObserveBounds(t *testing.T) {
	sat := NewSatellite(discardLogger())
	for _, loc := range []string{"", "Rome", "Ho Chi Minh City, Ho Chi Minh City, Vietnam"} {
		obs, err := sat.Observe(context.Background(), loc)
		require.NoError(t, err)
		require.GreaterOrEqual(t, obs.AerosolOpticalDepth, 0.0)
		require.LessOrEqual(t, obs.AerosolOpticalDepth, 1.0)
		require.GreaterOrEqual(t, obs.CloudCover, 0)
		require.LessOrEqual(t, obs.CloudCover, 100)
	}
}

func TestWeatherModelObserve(t *testing.T) {
	model := NewWeatherModel(discardLogger())

	obs, err := model.Observe(context.Background(), "Los Angeles")
	require.NoError(t, err)
	require.InDelta(t, 13.2, obs.WindSpeedKmh, 1e-9)
	require.Equal(t, "WSW", obs.WindDirection)
	require.Equal(t, 55, obs.PrecipitationChance)

	obs, err = model.Observe(context.Background(), "Delhi")
	require.NoError(t, err)
	require.InDelta(t, 6.0, obs.WindSpeedKmh, 1e-9)
	require.Equal(t, "ESE", obs.WindDirection)
	require.Equal(t, 25, obs.PrecipitationChance)
}

func TestWeatherModelWindSpeedWraps(t *testing.T) {
	model := NewWeatherModel(discardLogger())
	obs, err := model.Observe(context.Background(), "abcdefghijklmnopqrstuvwxyz")
	require.NoError(t, err)
	require.Less(t, obs.WindSpeedKmh, 30.0)
	require.InDelta(t, 1.2, obs.WindSpeedKmh, 1e-9)
	require.Equal(t, "SW", obs.WindDirection)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
