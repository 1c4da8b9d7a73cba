package historical

import (
	"context"
	"time"

	"github.com/yanqian/air-quality-advisor/internal/domain/generation"
)

// DateLayout is the wire format of request dates.
const DateLayout = "2006-01-02"

// LabelLayout formats chart labels, e.g. "Jan 2".
const LabelLayout = "Jan 2"

// Request captures the historical analysis payload.
type Request struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// DataPoint is one day of the series.
type DataPoint struct {
	Date string `json:"date"`
	AQI  int    `json:"aqi"`
}

// Response pairs the narrative with the exact series it was generated from.
type Response struct {
	Summary   string      `json:"summary"`
	ChartData []DataPoint `json:"chartData"`
}

// Config wires runtime settings for the historical domain.
type Config struct {
	Prompt       string
	MaxRangeDays int
	Retry        generation.RetryConfig
}

// ArchivedPoint is a stored daily value.
type ArchivedPoint struct {
	Day time.Time
	AQI int
}

// Archive persists generated series so repeated requests for the same
// location and day agree.
type Archive interface {
	Load(ctx context.Context, locationKey string, from, to time.Time) ([]ArchivedPoint, error)
	Save(ctx context.Context, locationKey string, points []ArchivedPoint) error
}
