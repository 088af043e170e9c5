package services

import (
	"math"
	"sort"

	"flight-fare-tracker/models"
	"flight-fare-tracker/utils"
)

// Imputer turns the full normalized history into the cleaned dataset:
// it deduplicates, filters to catalog routes, fills degenerate fields
// from monthly route aggregates, and synthesizes rows for keys that
// were never acquired at all. The whole pass is a batch recompute, so
// repeated runs over unchanged input produce identical output.
type Imputer struct {
	catalog models.RouteCatalog
	logger  *utils.Logger
}

// NewImputer creates an Imputer bound to the route catalog.
func NewImputer(catalog models.RouteCatalog, logger *utils.Logger) *Imputer {
	return &Imputer{catalog: catalog, logger: logger}
}

// Clean produces the cleaned dataset from the normalized history and
// the required-key set for the current window.
func (im *Imputer) Clean(
	normalized []*models.NormalizedObservation,
	required map[models.ObservationKey]struct{},
) []*models.CleanedObservation {
	rows := im.dedupe(normalized)
	rows = im.filterCatalogRoutes(rows)

	routeAggs := im.routeAggregates(rows)
	monthAggs := im.monthAggregates(rows)

	cleaned := make([]*models.CleanedObservation, 0, len(rows))
	seen := make(map[models.ObservationKey]struct{}, len(rows))
	filled := 0
	for _, r := range rows {
		seen[r.Key] = struct{}{}
		row := im.fillRow(r, routeAggs)
		if row.Imputed {
			filled++
		}
		cleaned = append(cleaned, row)
	}

	synthesized := 0
	for _, key := range sortedKeys(required) {
		if _, ok := seen[key]; ok {
			continue
		}
		cleaned = append(cleaned, im.synthesizeRow(key, monthAggs))
		synthesized++
	}

	sort.Slice(cleaned, func(i, j int) bool {
		a, b := cleaned[i].Key, cleaned[j].Key
		if a.From != b.From {
			return a.From < b.From
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.To < b.To
	})

	im.logger.Info("[imputer] Cleaned %d rows (%d field-filled, %d synthesized)",
		len(cleaned), filled, synthesized)
	return cleaned
}

// dedupe keeps the first occurrence of each key, in persisted order.
func (im *Imputer) dedupe(rows []*models.NormalizedObservation) []*models.NormalizedObservation {
	seen := make(map[models.ObservationKey]struct{}, len(rows))
	out := make([]*models.NormalizedObservation, 0, len(rows))
	for _, r := range rows {
		if _, dup := seen[r.Key]; dup {
			im.logger.Debug("[imputer] Duplicate row skipped: %s", r.Key)
			continue
		}
		seen[r.Key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// filterCatalogRoutes drops rows where neither endpoint is a partner
// airport — unrelated rows must never reach the cleaned dataset.
func (im *Imputer) filterCatalogRoutes(rows []*models.NormalizedObservation) []*models.NormalizedObservation {
	airports := im.catalog.AirportSet()
	out := make([]*models.NormalizedObservation, 0, len(rows))
	for _, r := range rows {
		_, fromOK := airports[r.Key.From]
		_, toOK := airports[r.Key.To]
		if !fromOK && !toOK {
			im.logger.Warn("[imputer] Dropping off-catalog row: %s", r.Key)
			continue
		}
		out = append(out, r)
	}
	return out
}

type aggKey struct {
	from, to, month string
}

type fieldMeans struct {
	stops, duration, price, co2 meanAcc
}

type meanAcc struct {
	sum   float64
	count int
}

func (m *meanAcc) add(v float64) {
	m.sum += v
	m.count++
}

func (m meanAcc) mean() (float64, bool) {
	if m.count == 0 {
		return 0, false
	}
	return m.sum / float64(m.count), true
}

// routeAggregates computes per-(from, to, month) means over known
// values only. Unknown fields are excluded from the mean, not zeroed.
func (im *Imputer) routeAggregates(rows []*models.NormalizedObservation) map[aggKey]*fieldMeans {
	aggs := make(map[aggKey]*fieldMeans)
	for _, r := range rows {
		k := aggKey{from: r.Key.From, to: r.Key.To, month: r.Key.Month()}
		accumulate(aggs, k, r)
	}
	return aggs
}

// monthAggregates computes leg-agnostic means per calendar month, the
// best-effort fallback for legs with no observations at all.
func (im *Imputer) monthAggregates(rows []*models.NormalizedObservation) map[aggKey]*fieldMeans {
	aggs := make(map[aggKey]*fieldMeans)
	for _, r := range rows {
		k := aggKey{month: r.Key.Month()}
		accumulate(aggs, k, r)
	}
	return aggs
}

// accumulate folds one row into an aggregate group. Zero values are
// degenerate (they get replaced, same as unknowns), so they are kept
// out of the means they would otherwise drag down.
func accumulate(aggs map[aggKey]*fieldMeans, k aggKey, r *models.NormalizedObservation) {
	fm, ok := aggs[k]
	if !ok {
		fm = &fieldMeans{}
		aggs[k] = fm
	}
	if r.Stops.Known && r.Stops.Val != 0 {
		fm.stops.add(float64(r.Stops.Val))
	}
	if r.DurationMinutes.Known && r.DurationMinutes.Val != 0 {
		fm.duration.add(float64(r.DurationMinutes.Val))
	}
	if r.Price.Known && r.Price.Val != 0 {
		fm.price.add(r.Price.Val)
	}
	if r.CO2.Known && r.CO2.Val != 0 {
		fm.co2.add(r.CO2.Val)
	}
}

// fillRow replaces every unknown-or-zero field with the rounded route
// aggregate for the row's month, when one exists.
func (im *Imputer) fillRow(r *models.NormalizedObservation, aggs map[aggKey]*fieldMeans) *models.CleanedObservation {
	row := &models.CleanedObservation{
		Key:             r.Key,
		Stops:           r.Stops,
		DurationMinutes: r.DurationMinutes,
		Price:           r.Price,
		CO2:             r.CO2,
	}

	fm, ok := aggs[aggKey{from: r.Key.From, to: r.Key.To, month: r.Key.Month()}]
	if !ok {
		return row
	}

	if degenerateInt(row.Stops) {
		if v, known := fm.stops.mean(); known {
			row.Stops = models.KnownInt(int(math.Round(v)))
			row.Imputed = true
		}
	}
	if degenerateInt(row.DurationMinutes) {
		if v, known := fm.duration.mean(); known {
			row.DurationMinutes = models.KnownInt(int(math.Round(v)))
			row.Imputed = true
		}
	}
	if degenerateFloat(row.Price) {
		if v, known := fm.price.mean(); known {
			row.Price = models.KnownFloat(math.Round(v))
			row.Imputed = true
		}
	}
	if degenerateFloat(row.CO2) {
		if v, known := fm.co2.mean(); known {
			row.CO2 = models.KnownFloat(math.Round(v))
			row.Imputed = true
		}
	}
	return row
}

// synthesizeRow builds a record for a key with no observation at all,
// from the date-only monthly aggregate. Fields stay unknown when even
// that aggregate is missing.
func (im *Imputer) synthesizeRow(key models.ObservationKey, monthAggs map[aggKey]*fieldMeans) *models.CleanedObservation {
	row := &models.CleanedObservation{Key: key, Imputed: true}

	fm, ok := monthAggs[aggKey{month: key.Month()}]
	if !ok {
		im.logger.Debug("[imputer] No monthly aggregate for synthesized row %s", key)
		return row
	}

	if v, known := fm.stops.mean(); known {
		row.Stops = models.KnownInt(int(math.Round(v)))
	}
	if v, known := fm.duration.mean(); known {
		row.DurationMinutes = models.KnownInt(int(math.Round(v)))
	}
	if v, known := fm.price.mean(); known {
		row.Price = models.KnownFloat(math.Round(v))
	}
	if v, known := fm.co2.mean(); known {
		row.CO2 = models.KnownFloat(math.Round(v))
	}
	return row
}

func degenerateInt(f models.IntField) bool {
	return !f.Known || f.Val == 0
}

func degenerateFloat(f models.FloatField) bool {
	return !f.Known || f.Val == 0
}

func sortedKeys(set map[models.ObservationKey]struct{}) []models.ObservationKey {
	keys := make([]models.ObservationKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Date < b.Date
	})
	return keys
}
