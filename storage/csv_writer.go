package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"flight-fare-tracker/models"
)

// RawColumns is the declared schema of the raw fare log. It is fixed up
// front so rows acquired with differing auxiliary fields can never
// shift columns; an absent field writes as an empty cell.
var RawColumns = []string{
	"From", "To", "Date",
	"Departure Time", "Arrival Time", "Airline Company",
	"Flight Duration", "Stops", "Price",
	"co2 emissions", "emissions variation",
}

// CleanedColumns is the schema of the cleaned dataset.
var CleanedColumns = []string{
	"From", "To", "Date", "Flight Duration", "Stops", "Price", "co2 emissions",
}

// CSVAppender appends raw observations to a CSV log. The file is opened
// in append mode for each row and closed again, so rows arriving from
// concurrent acquisition streams interleave without corrupting the file
// structure. Safe for concurrent use.
type CSVAppender struct {
	mu   sync.Mutex
	path string
}

// NewCSVAppender prepares the log at path. If the file is absent or
// empty, the header is written here, once, before any acquisition
// stream starts — there is no shared header flag for streams to race on.
func NewCSVAppender(path string) (*CSVAppender, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	needsHeader, err := fileAbsentOrEmpty(path)
	if err != nil {
		return nil, err
	}

	a := &CSVAppender{path: path}
	if needsHeader {
		if err := a.writeRow(RawColumns); err != nil {
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
	}
	return a, nil
}

// Append writes one raw observation as a single row and flushes it to
// disk before returning.
func (a *CSVAppender) Append(obs *models.RawObservation) error {
	return a.writeRow([]string{
		obs.Key.From,
		obs.Key.To,
		obs.Key.Date,
		obs.DepartureTime,
		obs.ArrivalTime,
		obs.Airline,
		obs.FlightDuration,
		obs.Stops,
		obs.Price,
		obs.CO2Emissions,
		obs.EmissionsVariation,
	})
}

func (a *CSVAppender) writeRow(row []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("csv: open %q for append: %w", a.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func fileAbsentOrEmpty(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("csv: stat %q: %w", path, err)
	}
	return info.Size() == 0, nil
}

// CleanedCSVWriter writes the cleaned dataset, replacing prior output.
type CleanedCSVWriter struct {
	path string
}

// NewCleanedCSVWriter creates a writer targeting path.
func NewCleanedCSVWriter(path string) *CleanedCSVWriter {
	return &CleanedCSVWriter{path: path}
}

// Write truncates the file and writes the header plus every row.
// Unknown fields write as empty cells.
func (w *CleanedCSVWriter) Write(rows []*models.CleanedObservation) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", w.path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(CleanedColumns); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, r := range rows {
		row := []string{
			r.Key.From,
			r.Key.To,
			r.Key.Date,
			formatInt(r.DurationMinutes),
			formatInt(r.Stops),
			formatFloat(r.Price),
			formatFloat(r.CO2),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Close is a no-op; the file is not held open between writes.
func (w *CleanedCSVWriter) Close() error { return nil }

func formatInt(f models.IntField) string {
	if !f.Known {
		return ""
	}
	return strconv.Itoa(f.Val)
}

func formatFloat(f models.FloatField) string {
	if !f.Known {
		return ""
	}
	return strconv.FormatFloat(f.Val, 'f', -1, 64)
}
