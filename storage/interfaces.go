package storage

import "flight-fare-tracker/models"

// RawAppender persists one raw observation at a time, append-only, so
// partial progress survives a crash mid-run.
type RawAppender interface {
	Append(obs *models.RawObservation) error
}

// CleanedWriter persists the full cleaned dataset, replacing any prior
// output.
type CleanedWriter interface {
	Write(rows []*models.CleanedObservation) error
	Close() error
}
