package coverage

import (
	"testing"

	"flight-fare-tracker/models"
)

func twoEntryCatalog() models.RouteCatalog {
	return models.RouteCatalog{
		Hub: "TPE",
		Entries: []models.RouteCatalogEntry{
			{Country: "JPN", Airport: "NRT"},
			{Country: "KOR", Airport: "ICN"},
		},
	}
}

func TestWindowDatesSingleMonth(t *testing.T) {
	w := Window{StartYear: 2025, StartMonth: 6, EndYear: 2025, EndMonth: 6}
	dates, err := w.Dates()
	if err != nil {
		t.Fatalf("Dates returned error: %v", err)
	}
	if len(dates) != 30 {
		t.Errorf("June 2025 days: got %d, want 30", len(dates))
	}
	if dates[0] != "2025-06-01" {
		t.Errorf("first date: got %s, want 2025-06-01", dates[0])
	}
	if dates[len(dates)-1] != "2025-06-30" {
		t.Errorf("last date: got %s, want 2025-06-30", dates[len(dates)-1])
	}
}

func TestWindowDatesLeapYear(t *testing.T) {
	w := Window{StartYear: 2024, StartMonth: 2, EndYear: 2024, EndMonth: 2}
	dates, err := w.Dates()
	if err != nil {
		t.Fatalf("Dates returned error: %v", err)
	}
	if len(dates) != 29 {
		t.Errorf("February 2024 days: got %d, want 29", len(dates))
	}
	if dates[28] != "2024-02-29" {
		t.Errorf("leap day: got %s, want 2024-02-29", dates[28])
	}
}

func TestWindowDatesSpansYearBoundary(t *testing.T) {
	w := Window{StartYear: 2025, StartMonth: 12, EndYear: 2026, EndMonth: 1}
	dates, err := w.Dates()
	if err != nil {
		t.Fatalf("Dates returned error: %v", err)
	}
	if len(dates) != 62 {
		t.Errorf("Dec 2025 + Jan 2026 days: got %d, want 62", len(dates))
	}
}

func TestWindowRejectsInverted(t *testing.T) {
	w := Window{StartYear: 2025, StartMonth: 8, EndYear: 2025, EndMonth: 6}
	if _, err := w.Dates(); err == nil {
		t.Error("expected error for inverted window")
	}

	w = Window{StartYear: 2026, StartMonth: 1, EndYear: 2025, EndMonth: 12}
	if _, err := w.Dates(); err == nil {
		t.Error("expected error for inverted year window")
	}
}

func TestWindowRejectsBadMonth(t *testing.T) {
	w := Window{StartYear: 2025, StartMonth: 0, EndYear: 2025, EndMonth: 6}
	if _, err := w.Dates(); err == nil {
		t.Error("expected error for month 0")
	}
}

func TestRequiredKeysSize(t *testing.T) {
	tests := []struct {
		name    string
		window  Window
		catalog models.RouteCatalog
		days    int
	}{
		{"one month, two entries", Window{2025, 6, 2025, 6}, twoEntryCatalog(), 30},
		{"three months, full catalog", Window{2025, 6, 2025, 8}, models.DefaultCatalog(), 30 + 31 + 31},
	}

	for _, tt := range tests {
		required, err := RequiredKeys(tt.window, tt.catalog)
		if err != nil {
			t.Fatalf("%s: RequiredKeys error: %v", tt.name, err)
		}
		want := 2 * len(tt.catalog.Entries) * tt.days
		if len(required) != want {
			t.Errorf("%s: got %d keys, want %d", tt.name, len(required), want)
		}
	}
}

func TestRequiredKeysBothDirections(t *testing.T) {
	required, err := RequiredKeys(Window{2025, 6, 2025, 6}, twoEntryCatalog())
	if err != nil {
		t.Fatalf("RequiredKeys error: %v", err)
	}

	outbound := models.ObservationKey{From: "NRT", To: "TPE", Date: "2025-06-15"}
	inbound := models.ObservationKey{From: "TPE", To: "NRT", Date: "2025-06-15"}
	if _, ok := required[outbound]; !ok {
		t.Errorf("missing airport->hub key %s", outbound)
	}
	if _, ok := required[inbound]; !ok {
		t.Errorf("missing hub->airport key %s", inbound)
	}
}

// One month, two entries, existing covers only the hub->entry1 leg:
// missing must be exactly entry1->hub plus both legs of entry2.
func TestCoverageEndToEndScenario(t *testing.T) {
	catalog := twoEntryCatalog()
	window := Window{StartYear: 2025, StartMonth: 6, EndYear: 2025, EndMonth: 6}

	required, err := RequiredKeys(window, catalog)
	if err != nil {
		t.Fatalf("RequiredKeys error: %v", err)
	}
	if len(required) != 4*30 {
		t.Fatalf("required size: got %d, want %d", len(required), 4*30)
	}

	dates, _ := window.Dates()
	existing := make(map[models.ObservationKey]struct{})
	for _, d := range dates {
		existing[models.ObservationKey{From: "TPE", To: "NRT", Date: d}] = struct{}{}
	}

	missing := Missing(required, existing)
	if len(missing) != 3*30 {
		t.Fatalf("missing size: got %d, want %d", len(missing), 3*30)
	}

	for _, key := range missing {
		if key.From == "TPE" && key.To == "NRT" {
			t.Errorf("covered leg reported missing: %s", key)
		}
	}

	// Sorted by leg then date: ICN->TPE, then NRT->TPE, then TPE->ICN.
	if missing[0].From != "ICN" || missing[0].Date != "2025-06-01" {
		t.Errorf("first missing key: got %s, want ICN->TPE on 2025-06-01", missing[0])
	}
	last := missing[len(missing)-1]
	if last.From != "TPE" || last.To != "ICN" || last.Date != "2025-06-30" {
		t.Errorf("last missing key: got %s, want TPE->ICN on 2025-06-30", last)
	}
}
