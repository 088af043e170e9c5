// Package coverage computes the set of (from, to, date) observations
// the dataset must contain for a calendar window, and diffs it against
// what has already been collected.
package coverage

import (
	"fmt"
	"time"

	"flight-fare-tracker/models"
)

const dateLayout = "2006-01-02"

// Window is an inclusive range of calendar months.
type Window struct {
	StartYear  int
	StartMonth int
	EndYear    int
	EndMonth   int
}

// Validate rejects inverted or out-of-range windows.
func (w Window) Validate() error {
	if w.StartMonth < 1 || w.StartMonth > 12 || w.EndMonth < 1 || w.EndMonth > 12 {
		return fmt.Errorf("coverage: month out of range in window %+v", w)
	}
	if w.StartYear > w.EndYear ||
		(w.StartYear == w.EndYear && w.StartMonth > w.EndMonth) {
		return fmt.Errorf("coverage: window start %d-%02d is after end %d-%02d",
			w.StartYear, w.StartMonth, w.EndYear, w.EndMonth)
	}
	return nil
}

// Dates returns every calendar date from the first day of the start
// month through the last day of the end month, as YYYY-MM-DD strings.
// Month lengths are real: leap years included.
func (w Window) Dates() ([]string, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	current := time.Date(w.StartYear, time.Month(w.StartMonth), 1, 0, 0, 0, 0, time.UTC)
	// First day of the month after the end month.
	stop := time.Date(w.EndYear, time.Month(w.EndMonth), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	var dates []string
	for current.Before(stop) {
		dates = append(dates, current.Format(dateLayout))
		current = current.AddDate(0, 0, 1)
	}
	return dates, nil
}

// RequiredKeys produces the complete set of observations the window
// demands: both directed legs of every catalog entry crossed with every
// date in range. Size is always 2 × |catalog| × days.
func RequiredKeys(w Window, catalog models.RouteCatalog) (map[models.ObservationKey]struct{}, error) {
	dates, err := w.Dates()
	if err != nil {
		return nil, err
	}

	legs := catalog.Legs()
	required := make(map[models.ObservationKey]struct{}, len(legs)*len(dates))
	for _, leg := range legs {
		for _, date := range dates {
			required[models.ObservationKey{From: leg.From, To: leg.To, Date: date}] = struct{}{}
		}
	}
	return required, nil
}
