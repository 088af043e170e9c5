package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"flight-fare-tracker/models"
	"flight-fare-tracker/utils"
)

func testLogger() *utils.Logger { return utils.NewLogger() }

func rawObs(from, to, date, price string) *models.RawObservation {
	return &models.RawObservation{
		Key:   models.ObservationKey{From: from, To: to, Date: date},
		Price: price,
	}
}

func TestAppenderWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")

	a, err := NewCSVAppender(path)
	if err != nil {
		t.Fatalf("NewCSVAppender: %v", err)
	}
	if err := a.Append(rawObs("NRT", "TPE", "2025-06-01", "$100")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Re-opening an existing non-empty file must not add a second header.
	b, err := NewCSVAppender(path)
	if err != nil {
		t.Fatalf("NewCSVAppender (reopen): %v", err)
	}
	if err := b.Append(rawObs("TPE", "NRT", "2025-06-01", "$200")); err != nil {
		t.Fatalf("Append (reopen): %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	headerCount := strings.Count(string(content), "From,To,Date")
	if headerCount != 1 {
		t.Errorf("header lines: got %d, want 1\n%s", headerCount, content)
	}
}

// Any number of goroutines appending to an initially empty file must
// leave exactly one header line and every row intact.
func TestAppenderConcurrentStreams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")

	a, err := NewCSVAppender(path)
	if err != nil {
		t.Fatalf("NewCSVAppender: %v", err)
	}

	const streams = 8
	const rowsPerStream = 20

	var wg sync.WaitGroup
	for s := 0; s < streams; s++ {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rowsPerStream; i++ {
				obs := rawObs("NRT", "TPE", fmt.Sprintf("2025-06-%02d", i+1), fmt.Sprintf("$%d", s*100+i))
				if err := a.Append(obs); err != nil {
					t.Errorf("Append: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != 1+streams*rowsPerStream {
		t.Errorf("line count: got %d, want %d", len(lines), 1+streams*rowsPerStream)
	}
	if !strings.HasPrefix(lines[0], "From,To,Date") {
		t.Errorf("first line is not the header: %q", lines[0])
	}
	for i, line := range lines[1:] {
		if strings.HasPrefix(line, "From,To,Date") {
			t.Errorf("duplicate header at data line %d", i+1)
		}
	}
}

func TestReadExistingKeysRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")

	a, err := NewCSVAppender(path)
	if err != nil {
		t.Fatalf("NewCSVAppender: %v", err)
	}
	want := []models.ObservationKey{
		{From: "NRT", To: "TPE", Date: "2025-06-01"},
		{From: "TPE", To: "NRT", Date: "2025-06-02"},
	}
	for _, k := range want {
		if err := a.Append(&models.RawObservation{Key: k, Price: "$99"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	existing, err := ReadExistingKeys(path, testLogger())
	if err != nil {
		t.Fatalf("ReadExistingKeys: %v", err)
	}
	if len(existing) != len(want) {
		t.Fatalf("existing len: got %d, want %d", len(existing), len(want))
	}
	for _, k := range want {
		if _, ok := existing[k]; !ok {
			t.Errorf("key %s not read back", k)
		}
	}
}

func TestReadExistingKeysSkipsBlankKeyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	content := strings.Join([]string{
		strings.Join(RawColumns, ","),
		"NRT,TPE,2025-06-01,,,,3hr,Nonstop,$100,200 kg,",
		",TPE,2025-06-02,,,,3hr,Nonstop,$100,200 kg,", // blank From
		"NRT,,2025-06-03,,,,3hr,Nonstop,$100,200 kg,", // blank To
		"NRT,TPE,,,,,3hr,Nonstop,$100,200 kg,",        // blank Date
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	existing, err := ReadExistingKeys(path, testLogger())
	if err != nil {
		t.Fatalf("ReadExistingKeys: %v", err)
	}
	if len(existing) != 1 {
		t.Errorf("existing len: got %d, want 1 (corrupt rows excluded)", len(existing))
	}
}

func TestReadExistingKeysMissingFile(t *testing.T) {
	_, err := ReadExistingKeys(filepath.Join(t.TempDir(), "absent.csv"), testLogger())
	if !errors.Is(err, ErrNoDataset) {
		t.Errorf("expected ErrNoDataset, got %v", err)
	}
}

func TestReadRawObservationsMapsColumnsByName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")

	a, err := NewCSVAppender(path)
	if err != nil {
		t.Fatalf("NewCSVAppender: %v", err)
	}
	obs := &models.RawObservation{
		Key:            models.ObservationKey{From: "NRT", To: "TPE", Date: "2025-06-01"},
		FlightDuration: "3hr 25min",
		Stops:          "Nonstop",
		Price:          "$1,234",
		CO2Emissions:   "232 kg",
	}
	if err := a.Append(obs); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := ReadRawObservations(path, testLogger())
	if err != nil {
		t.Fatalf("ReadRawObservations: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("rows: got %d, want 1", len(got))
	}
	r := got[0]
	if r.Key != obs.Key || r.FlightDuration != "3hr 25min" || r.Stops != "Nonstop" ||
		r.Price != "$1,234" || r.CO2Emissions != "232 kg" {
		t.Errorf("round-trip mismatch: %+v", r)
	}
}

func TestCleanedWriterOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.csv")
	w := NewCleanedCSVWriter(path)

	rows := []*models.CleanedObservation{
		{
			Key:             models.ObservationKey{From: "NRT", To: "TPE", Date: "2025-06-01"},
			Stops:           models.KnownInt(0),
			DurationMinutes: models.KnownInt(205),
			Price:           models.KnownFloat(1234),
			CO2:             models.FloatField{}, // unknown writes empty
		},
	}
	if err := w.Write(rows); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(rows); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("line count after overwrite: got %d, want 2", len(lines))
	}
	if lines[0] != strings.Join(CleanedColumns, ",") {
		t.Errorf("header: got %q", lines[0])
	}
	if lines[1] != "NRT,TPE,2025-06-01,205,0,1234," {
		t.Errorf("row: got %q", lines[1])
	}
}
