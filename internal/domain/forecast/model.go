package forecast

// Request identifies the forecast location, either as separate fields or as
// free text in the "City, State, Country" form.
type Request struct {
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
	Location string `json:"location"`
}

// Result is the structured forecast returned to API consumers.
type Result struct {
	Forecast              string                `json:"forecast" validate:"required"`
	CurrentAQI            int                   `json:"currentAqi" validate:"gte=0,lte=500"`
	Pollutants            []Pollutant           `json:"pollutants" validate:"len=3,dive"`
	SparklineData         []int                 `json:"sparklineData" validate:"len=30,dive,gte=0,lte=300"`
	HealthRecommendations HealthRecommendations `json:"healthRecommendations"`
}

// Pollutant is the per-pollutant breakdown.
type Pollutant struct {
	Name           string `json:"name" validate:"required"`
	AQI            int    `json:"aqi" validate:"gte=0,lte=500"`
	Recommendation string `json:"recommendation" validate:"required"`
}

// HealthRecommendations splits advice by audience.
type HealthRecommendations struct {
	GeneralPublic   string `json:"generalPublic" validate:"required"`
	SensitiveGroups string `json:"sensitiveGroups" validate:"required"`
}

// Config wires runtime settings for the forecast domain.
type Config struct {
	Prompt string
}

const sparklineDays = 30

var pollutantNames = []string{"PM2.5", "O3", "NO2"}
