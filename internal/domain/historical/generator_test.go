package historical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDays(t *testing.T) {
	from := time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	days := Days(from, to)
	require.Len(t, days, 5)
	require.Equal(t, "Feb 29", days[2].Format(LabelLayout))
	require.Equal(t, "Mar 2", days[4].Format(LabelLayout))

	require.Len(t, Days(from, from), 1)
	require.Empty(t, Days(to, from))
}

func TestGeneratorValue(t *testing.T) {
	mid := Generator{Float: func() float64 { return 0.5 }}
	require.Equal(t, 75, mid.Value(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 105, mid.Value(time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 45, mid.Value(time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)))

	low := Generator{Float: func() float64 { return 0 }}
	require.Equal(t, 25, low.Value(time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)))

	high := Generator{Float: func() float64 { return 0.999 }}
	require.Equal(t, 125, high.Value(time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)))
}

func TestGeneratorNeverBelowFloor(t *testing.T) {
	gen := NewGenerator()
	for _, day := range Days(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)) {
		require.GreaterOrEqual(t, gen.Value(day), minimumDailyAQI)
	}
}
