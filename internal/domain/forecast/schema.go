package forecast

import "github.com/yanqian/air-quality-advisor/internal/domain/generation"

func outputSchema() generation.Schema {
	return generation.Object(map[string]generation.Schema{
		"forecast": generation.String("A detailed 1-day air quality forecast summary, incorporating all data sources, and including health recommendations."),
		"currentAqi": generation.Integer("The current overall Air Quality Index (AQI) for the location, calculated from the pollutant levels.", 0, 500),
		"pollutants": generation.Array("The primary pollutants with their specific AQI and a related recommendation.",
			generation.Object(map[string]generation.Schema{
				"name":           generation.Enum("Name of the pollutant.", pollutantNames...),
				"aqi":            generation.Integer("The AQI value for this pollutant.", 0, 500),
				"recommendation": generation.String("A brief recommendation related to this pollutant."),
			}), len(pollutantNames), len(pollutantNames)),
		"sparklineData": generation.Array("Forecasted AQI for each of the next 30 days.",
			generation.Integer("Daily AQI.", 0, 300), sparklineDays, sparklineDays),
		"healthRecommendations": generation.Object(map[string]generation.Schema{
			"generalPublic":   generation.String("Health advice for the general public."),
			"sensitiveGroups": generation.String("Specific health advice for children, the elderly and people with respiratory issues."),
		}),
	})
}
