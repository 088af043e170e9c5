package models

import "fmt"

// ObservationKey is the unique identity of one dataset row:
// a directed leg plus a departure date (YYYY-MM-DD).
type ObservationKey struct {
	From string
	To   string
	Date string
}

func (k ObservationKey) String() string {
	return fmt.Sprintf("%s->%s on %s", k.From, k.To, k.Date)
}

// Month returns the YYYY-MM prefix of the key's date.
func (k ObservationKey) Month() string {
	if len(k.Date) < 7 {
		return k.Date
	}
	return k.Date[:7]
}

// RawObservation holds one scraped fare exactly as the browser produced
// it, all fields still text. Written append-only to the raw CSV the
// moment it is acquired, and never updated in place.
type RawObservation struct {
	Key ObservationKey

	DepartureTime      string
	ArrivalTime        string
	Airline            string
	FlightDuration     string
	Stops              string
	Price              string
	CO2Emissions       string
	EmissionsVariation string
}

// IntField is an integer that may be unknown. Unknown is distinct from
// zero: a nonstop flight has Stops{Val: 0, Known: true}.
type IntField struct {
	Val   int
	Known bool
}

// KnownInt returns a present IntField.
func KnownInt(v int) IntField { return IntField{Val: v, Known: true} }

// FloatField is a number that may be unknown.
type FloatField struct {
	Val   float64
	Known bool
}

// KnownFloat returns a present FloatField.
func KnownFloat(v float64) FloatField { return FloatField{Val: v, Known: true} }

// NormalizedObservation is a RawObservation with its critical fields
// coerced into typed domains. Derived, disposable: recomputed from the
// full raw history on every cleaning pass.
type NormalizedObservation struct {
	Key             ObservationKey
	Stops           IntField
	DurationMinutes IntField
	Price           FloatField
	CO2             FloatField
}

// CleanedObservation is the terminal, queryable record: a normalized
// row after imputation. Imputed reports whether any field was filled
// from a monthly aggregate or the whole row was synthesized.
type CleanedObservation struct {
	Key             ObservationKey
	Stops           IntField
	DurationMinutes IntField
	Price           FloatField
	CO2             FloatField
	Imputed         bool
}

// MonthlyAggregate holds the mean of each critical field over all
// normalized rows for one (from, to, calendar month) group, computed
// over known values only. Used for imputation, never persisted.
type MonthlyAggregate struct {
	From  string
	To    string
	Month string

	Stops           FloatField
	DurationMinutes FloatField
	Price           FloatField
	CO2             FloatField
}
