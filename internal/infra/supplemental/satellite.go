package supplemental

import (
	"context"
	"log/slog"

	"github.com/yanqian/air-quality-advisor/internal/domain/airquality"
)

// Satellite simulates satellite imagery analysis. Values are derived from the
// location text so repeated calls for one place agree.
type Satellite struct {
	logger *slog.Logger
}

// NewSatellite builds the simulated satellite source.
func NewSatellite(logger *slog.Logger) *Satellite {
	return &Satellite{logger: logger.With("component", "supplemental.satellite")}
}

// Observe never fails.
func (s *Satellite) Observe(_ context.Context, location string) (airquality.SatelliteObservation, error) {
	s.logger.Info("fetching satellite data", "location", location)
	seed := len(location)
	return airquality.SatelliteObservation{
		AerosolOpticalDepth: float64(seed%10) / 10,
		CloudCover:          (seed * 7) % 100,
	}, nil
}
