package location

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Location
		wantErr bool
	}{
		{
			name: "three parts",
			raw:  " Los Angeles , CA, USA",
			want: Location{City: "Los Angeles", State: "CA", Country: "USA"},
		},
		{
			name: "two parts reuses city as state",
			raw:  "Singapore, Singapore",
			want: Location{City: "Singapore", State: "Singapore", Country: "Singapore"},
		},
		{name: "single part", raw: "Paris", wantErr: true},
		{name: "four parts", raw: "a, b, c, d", wantErr: true},
		{name: "empty component", raw: "Paris, , France", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSameCity(t *testing.T) {
	require.True(t, SameCity("los angeles", "Los Angeles"))
	require.True(t, SameCity(" Delhi", "DELHI "))
	require.False(t, SameCity("Los Angeles", "Los Angeles County"))
}

func TestKeyIsCaseInsensitive(t *testing.T) {
	a := Location{City: "Tokyo", State: "Tokyo", Country: "Japan"}
	b := Location{City: " tokyo", State: "TOKYO", Country: "japan "}
	require.Equal(t, a.Key(), b.Key())
	require.Equal(t, "Tokyo, Tokyo, Japan", a.String())
}

func TestSearch(t *testing.T) {
	require.Len(t, Search(""), 5)
	require.Equal(t, "New York, NY, USA", Search("")[0])
	require.Equal(t, []string{"Delhi, Delhi, India", "Mumbai, Maharashtra, India"}, Search("india"))
	require.Len(t, Search("usa"), 5)
	require.Empty(t, Search("atlantis"))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Location{City: "Paris", State: "Ile-de-France", Country: "France"}.Validate())
	require.Error(t, Location{City: "Paris", State: " ", Country: "France"}.Validate())
	require.Error(t, Location{}.Validate())
}
