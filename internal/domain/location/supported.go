package location

import "strings"

const maxSuggestions = 5

var supported = []string{
	"New York, NY, USA",
	"Los Angeles, CA, USA",
	"Chicago, IL, USA",
	"Houston, TX, USA",
	"Phoenix, AZ, USA",
	"Philadelphia, PA, USA",
	"San Antonio, TX, USA",
	"San Diego, CA, USA",
	"Dallas, TX, USA",
	"San Jose, CA, USA",
	"London, England, UK",
	"Paris, Ile-de-France, France",
	"Tokyo, Tokyo, Japan",
	"Delhi, Delhi, India",
	"Shanghai, Shanghai, China",
	"Sao Paulo, Sao Paulo, Brazil",
	"Mumbai, Maharashtra, India",
	"Beijing, Beijing, China",
	"Cairo, Cairo, Egypt",
	"Dhaka, Dhaka, Bangladesh",
}

// Search returns up to five supported locations containing query, case-insensitively.
// An empty query yields the first five entries.
func Search(query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0, maxSuggestions)
	for _, candidate := range supported {
		if query != "" && !strings.Contains(strings.ToLower(candidate), query) {
			continue
		}
		out = append(out, candidate)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
