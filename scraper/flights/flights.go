// Package flights acquires the cheapest observed fare for each
// (leg, date) pair by driving a headless browser over Google Flights.
package flights

import (
	"context"
	"math"
	"strconv"
	"strings"

	"flight-fare-tracker/models"
	"flight-fare-tracker/utils"
)

// Candidate field names, as produced by the page extraction.
const (
	FieldDepartureTime      = "Departure Time"
	FieldArrivalTime        = "Arrival Time"
	FieldAirline            = "Airline Company"
	FieldFlightDuration     = "Flight Duration"
	FieldStops              = "Stops"
	FieldPrice              = "Price"
	FieldCO2Emissions       = "co2 emissions"
	FieldEmissionsVariation = "emissions variation"
)

// Candidate is one raw flight offer as extracted from the results page:
// a mapping of field name to raw text.
type Candidate map[string]string

// CandidateFetcher turns a search URL into the page's list of raw
// candidate offers. Implementations report navigation failures,
// selector timeouts and empty pages as errors.
type CandidateFetcher interface {
	Fetch(ctx context.Context, url string) ([]Candidate, error)
}

// Acquirer fetches the candidates for one (leg, date) and selects the
// cheapest. Every failure mode — fetch error, empty page, no parsable
// price — yields nil rather than an error, so one bad key can never
// abort the surrounding batch.
type Acquirer struct {
	fetcher CandidateFetcher
	guard   *utils.FetchGuard
	logger  *utils.Logger
}

// NewAcquirer creates an Acquirer. The guard paces fetches across all
// streams; pass nil to disable pacing.
func NewAcquirer(fetcher CandidateFetcher, guard *utils.FetchGuard, logger *utils.Logger) *Acquirer {
	return &Acquirer{fetcher: fetcher, guard: guard, logger: logger}
}

// Acquire fetches all candidates for the key and returns the one with
// the lowest parsable price, or nil if nothing usable was found.
func (a *Acquirer) Acquire(ctx context.Context, key models.ObservationKey) *models.RawObservation {
	if a.guard != nil {
		if err := a.guard.Wait(ctx); err != nil {
			a.logger.Warn("[flights] Rate guard cancelled for %s: %v", key, err)
			return nil
		}
	}

	url := BuildURL(key.From, key.To, key.Date)
	a.logger.Debug("[flights] Visiting %s", url)

	candidates, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		a.logger.Warn("[flights] Fetch failed for %s: %v", key, err)
		return nil
	}
	if len(candidates) == 0 {
		a.logger.Warn("[flights] No flights found for %s", key)
		return nil
	}

	best := selectCheapest(candidates)
	if best == nil {
		a.logger.Warn("[flights] No candidate with a parsable price for %s", key)
		return nil
	}

	return best.toRawObservation(key)
}

// selectCheapest returns the candidate with the numerically smallest
// price. A candidate whose price does not parse counts as +Inf; if no
// candidate has a finite price there is no pick at all.
func selectCheapest(candidates []Candidate) Candidate {
	var best Candidate
	bestPrice := math.Inf(1)

	for _, c := range candidates {
		price := parseCandidatePrice(c[FieldPrice])
		if best == nil || price < bestPrice {
			best = c
			bestPrice = price
		}
	}

	if math.IsInf(bestPrice, 1) {
		return nil
	}
	return best
}

var priceStripper = strings.NewReplacer("$", "", ",", "")

// parseCandidatePrice strips currency symbols and thousands separators
// and parses the remainder; anything unparsable is +Inf.
func parseCandidatePrice(raw string) float64 {
	s := strings.TrimSpace(priceStripper.Replace(raw))
	if s == "" || s == "N/A" {
		return math.Inf(1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.Inf(1)
	}
	return v
}

func (c Candidate) toRawObservation(key models.ObservationKey) *models.RawObservation {
	return &models.RawObservation{
		Key:                key,
		DepartureTime:      c[FieldDepartureTime],
		ArrivalTime:        c[FieldArrivalTime],
		Airline:            c[FieldAirline],
		FlightDuration:     c[FieldFlightDuration],
		Stops:              c[FieldStops],
		Price:              c[FieldPrice],
		CO2Emissions:       c[FieldCO2Emissions],
		EmissionsVariation: c[FieldEmissionsVariation],
	}
}
