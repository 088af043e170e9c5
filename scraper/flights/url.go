package flights

import (
	"fmt"
	"net/url"
)

const baseURL = "https://www.google.com/travel/flights"

// BuildURL returns the Google Flights one-way search URL for a leg and
// departure date (YYYY-MM-DD).
func BuildURL(from, to, date string) string {
	query := fmt.Sprintf("Flights to %s from %s on %s oneway", to, from, date)
	return baseURL + "?hl=en&q=" + url.QueryEscape(query)
}
