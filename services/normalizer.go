package services

import (
	"regexp"
	"strconv"
	"strings"

	"flight-fare-tracker/models"
	"flight-fare-tracker/utils"
)

var (
	// digitsRegexp captures the first bare integer in a string
	digitsRegexp = regexp.MustCompile(`\d+`)
	// numberRegexp captures an integer or decimal number
	numberRegexp = regexp.MustCompile(`\d+\.?\d*`)
	// nonPriceRegexp matches everything that is not a digit or decimal point
	nonPriceRegexp = regexp.MustCompile(`[^\d.]`)
)

// Normalizer coerces raw scraped fields into typed numeric domains.
// Each field is parsed independently: one bad field never fails the
// row, it just comes out unknown.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize converts one raw observation into its typed form.
func (n *Normalizer) Normalize(raw *models.RawObservation) *models.NormalizedObservation {
	return &models.NormalizedObservation{
		Key:             raw.Key,
		Stops:           n.ParseStops(raw.Stops),
		DurationMinutes: n.ParseDuration(raw.FlightDuration),
		Price:           n.ParsePrice(raw.Price),
		CO2:             n.ParseCO2(raw.CO2Emissions),
	}
}

// NormalizeAll converts the full raw history, preserving order.
func (n *Normalizer) NormalizeAll(raw []*models.RawObservation) []*models.NormalizedObservation {
	out := make([]*models.NormalizedObservation, 0, len(raw))
	for _, r := range raw {
		out = append(out, n.Normalize(r))
	}
	return out
}

// ParseStops interprets a stop count. "Nonstop" is zero; any text
// containing a digit sequence yields that integer.
func (n *Normalizer) ParseStops(raw string) models.IntField {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return models.IntField{}
	}
	if strings.Contains(s, "nonstop") {
		return models.KnownInt(0)
	}
	if match := digitsRegexp.FindString(s); match != "" {
		v, err := strconv.Atoi(match)
		if err == nil {
			return models.KnownInt(v)
		}
	}
	n.logger.Debug("[normalizer] Failed to parse stops value %q", raw)
	return models.IntField{}
}

// ParseDuration converts "<H>hr <M>min", "<H>hr" or "<M>min" text into
// total minutes. A bare number is already minutes. An "hr" token with
// no hour digits is a parse failure.
func (n *Normalizer) ParseDuration(raw string) models.IntField {
	s := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "")
	if s == "" {
		return models.IntField{}
	}

	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return models.KnownInt(v)
	}

	hours, minutes := 0, 0
	switch {
	case strings.Contains(s, "hr"):
		parts := strings.SplitN(s, "hr", 2)
		hoursMatch := digitsRegexp.FindString(parts[0])
		if hoursMatch == "" {
			n.logger.Debug("[normalizer] Duration %q has hr token but no hours", raw)
			return models.IntField{}
		}
		hours, _ = strconv.Atoi(hoursMatch)
		if strings.Contains(parts[1], "min") {
			if m := digitsRegexp.FindString(strings.ReplaceAll(parts[1], "min", "")); m != "" {
				minutes, _ = strconv.Atoi(m)
			}
		}
	case strings.Contains(s, "min"):
		m := digitsRegexp.FindString(strings.ReplaceAll(s, "min", ""))
		if m == "" {
			n.logger.Debug("[normalizer] Duration %q has min token but no minutes", raw)
			return models.IntField{}
		}
		minutes, _ = strconv.Atoi(m)
	default:
		n.logger.Debug("[normalizer] Failed to parse duration value %q", raw)
		return models.IntField{}
	}

	return models.KnownInt(hours*60 + minutes)
}

// ParsePrice strips everything that is not a digit or decimal point and
// parses the remainder.
func (n *Normalizer) ParsePrice(raw string) models.FloatField {
	s := strings.TrimSpace(raw)
	if s == "" {
		return models.FloatField{}
	}

	cleaned := nonPriceRegexp.ReplaceAllString(s, "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		n.logger.Debug("[normalizer] Failed to parse price value %q", raw)
		return models.FloatField{}
	}
	return models.KnownFloat(v)
}

// ParseCO2 reads an emissions figure, dropping thousands-separating
// commas before matching the number.
func (n *Normalizer) ParseCO2(raw string) models.FloatField {
	s := strings.TrimSpace(raw)
	if s == "" {
		return models.FloatField{}
	}

	noCommas := strings.ReplaceAll(s, ",", "")
	match := numberRegexp.FindString(noCommas)
	if match == "" {
		n.logger.Debug("[normalizer] Failed to parse co2 emissions value %q", raw)
		return models.FloatField{}
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		n.logger.Debug("[normalizer] Failed to parse co2 emissions value %q", raw)
		return models.FloatField{}
	}
	return models.KnownFloat(v)
}
