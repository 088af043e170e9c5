package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"flight-fare-tracker/models"
	"flight-fare-tracker/utils"
)

// ErrNoDataset marks a structural failure: the raw log does not exist
// yet. It is distinct from an existing-but-empty dataset so callers can
// tell "nothing was checked" from "checked and found nothing".
var ErrNoDataset = fmt.Errorf("storage: raw dataset file does not exist")

// ReadExistingKeys reads every persisted row's (From, To, Date) triple
// verbatim. Rows with a blank key field are skipped (and logged): they
// cannot satisfy any required key, so re-acquiring them is the behavior
// that converges on a complete dataset.
func ReadExistingKeys(path string, logger *utils.Logger) (map[models.ObservationKey]struct{}, error) {
	rows, header, err := readTable(path)
	if err != nil {
		return nil, err
	}

	idx, err := keyColumnIndexes(header)
	if err != nil {
		return nil, err
	}

	existing := make(map[models.ObservationKey]struct{}, len(rows))
	for i, row := range rows {
		key, ok := keyFromRow(row, idx)
		if !ok {
			logger.Warn("[storage] Skipping row %d: blank or missing key field", i+2)
			continue
		}
		existing[key] = struct{}{}
	}
	return existing, nil
}

// ReadRawObservations loads the full raw history in persisted order.
// Rows with blank key fields are dropped; all other fields pass through
// as-is for the normalizer to judge.
func ReadRawObservations(path string, logger *utils.Logger) ([]*models.RawObservation, error) {
	rows, header, err := readTable(path)
	if err != nil {
		return nil, err
	}

	idx, err := keyColumnIndexes(header)
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	observations := make([]*models.RawObservation, 0, len(rows))
	for i, row := range rows {
		key, ok := keyFromRow(row, idx)
		if !ok {
			logger.Warn("[storage] Dropping row %d: blank or missing key field", i+2)
			continue
		}
		observations = append(observations, &models.RawObservation{
			Key:                key,
			DepartureTime:      cell(row, "Departure Time"),
			ArrivalTime:        cell(row, "Arrival Time"),
			Airline:            cell(row, "Airline Company"),
			FlightDuration:     cell(row, "Flight Duration"),
			Stops:              cell(row, "Stops"),
			Price:              cell(row, "Price"),
			CO2Emissions:       cell(row, "co2 emissions"),
			EmissionsVariation: cell(row, "emissions variation"),
		})
	}
	return observations, nil
}

func readTable(path string) (rows [][]string, header []string, err error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil, ErrNoDataset
	}
	if err != nil {
		return nil, nil, fmt.Errorf("storage: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows; column lookup is by header name

	header, err = r.Read()
	if err == io.EOF {
		return nil, nil, nil // empty file: no rows, no keys
	}
	if err != nil {
		return nil, nil, fmt.Errorf("storage: read header of %q: %w", path, err)
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("storage: read %q: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

type keyIndexes struct {
	from, to, date int
}

func keyColumnIndexes(header []string) (keyIndexes, error) {
	idx := keyIndexes{from: -1, to: -1, date: -1}
	if header == nil {
		return idx, nil // empty file: indexes never used
	}
	for i, name := range header {
		switch name {
		case "From":
			idx.from = i
		case "To":
			idx.to = i
		case "Date":
			idx.date = i
		}
	}
	if idx.from < 0 || idx.to < 0 || idx.date < 0 {
		return idx, fmt.Errorf("storage: dataset header missing key column (have %v)", header)
	}
	return idx, nil
}

func keyFromRow(row []string, idx keyIndexes) (models.ObservationKey, bool) {
	get := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}
	key := models.ObservationKey{
		From: get(idx.from),
		To:   get(idx.to),
		Date: get(idx.date),
	}
	if key.From == "" || key.To == "" || key.Date == "" {
		return models.ObservationKey{}, false
	}
	return key, true
}
