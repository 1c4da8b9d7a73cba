package location

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrMalformed is returned when a free-text location does not have two or three parts.
var ErrMalformed = errors.New("location must be formatted as \"City, State, Country\" or \"City, Country\"")

// Location identifies a place the way the ground-sensor provider does.
type Location struct {
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Country string `json:"country" validate:"required"`
}

// Parse splits "City, State, Country" or "City, Country".
// The two part form reuses the city as the state, which the provider accepts for city-states.
func Parse(raw string) (Location, error) {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
		if parts[i] == "" {
			return Location{}, ErrMalformed
		}
	}
	switch len(parts) {
	case 3:
		return Location{City: parts[0], State: parts[1], Country: parts[2]}, nil
	case 2:
		return Location{City: parts[0], State: parts[0], Country: parts[1]}, nil
	default:
		return Location{}, ErrMalformed
	}
}

// Validate reports a missing component.
func (l Location) Validate() error {
	if err := validate.Struct(l.Normalize()); err != nil {
		return errors.New("city, state and country are required")
	}
	return nil
}

// Normalize trims every component.
func (l Location) Normalize() Location {
	return Location{
		City:    strings.TrimSpace(l.City),
		State:   strings.TrimSpace(l.State),
		Country: strings.TrimSpace(l.Country),
	}
}

// String renders the canonical three part form.
func (l Location) String() string {
	return l.City + ", " + l.State + ", " + l.Country
}

// Key is a stable lowercase identifier used for archive lookups.
func (l Location) Key() string {
	n := l.Normalize()
	return strings.ToLower(n.City + "|" + n.State + "|" + n.Country)
}

// SameCity compares a provider reported city with the requested one.
func SameCity(requested, reported string) bool {
	return strings.EqualFold(strings.TrimSpace(requested), strings.TrimSpace(reported))
}
