package coverage

import (
	"sort"

	"flight-fare-tracker/models"
)

// Missing returns required − existing, sorted lexicographically by
// (From, To, Date) so acquisition order is deterministic across runs.
func Missing(required, existing map[models.ObservationKey]struct{}) []models.ObservationKey {
	missing := make([]models.ObservationKey, 0)
	for key := range required {
		if _, ok := existing[key]; !ok {
			missing = append(missing, key)
		}
	}

	sort.Slice(missing, func(i, j int) bool {
		a, b := missing[i], missing[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Date < b.Date
	})
	return missing
}
