package historical

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	baseAQI         = 75
	seasonalSwing   = 30
	noiseSpread     = 40
	minimumDailyAQI = 10
)

// Generator synthesizes a seasonal-plus-noise daily AQI.
type Generator struct {
	// Float returns a value in [0, 1).
	Float func() float64
}

// NewGenerator uses the process random source.
func NewGenerator() Generator {
	return Generator{Float: rand.Float64}
}

// Value returns the synthetic AQI for day.
func (g Generator) Value(day time.Time) int {
	month := float64(day.Month() - 1)
	seasonal := math.Sin(month/12*2*math.Pi) * seasonalSwing
	noise := (g.Float() - 0.5) * noiseSpread
	aqi := int(math.Round(baseAQI + seasonal + noise))
	if aqi < minimumDailyAQI {
		return minimumDailyAQI
	}
	return aqi
}

// Days lists every calendar day in [from, to], inclusive.
func Days(from, to time.Time) []time.Time {
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		return nil
	}
	days := make([]time.Time, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
