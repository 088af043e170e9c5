package services

import (
	"testing"

	"flight-fare-tracker/models"
	"flight-fare-tracker/utils"
)

func sampleFares() []*models.CleanedObservation {
	return []*models.CleanedObservation{
		{Key: models.ObservationKey{From: "NRT", To: "TPE", Date: "2025-06-01"}, Price: models.KnownFloat(200)},
		{Key: models.ObservationKey{From: "NRT", To: "TPE", Date: "2025-06-02"}, Price: models.KnownFloat(50), Imputed: true},
		{Key: models.ObservationKey{From: "TPE", To: "NRT", Date: "2025-06-01"}, Price: models.KnownFloat(120)},
		{Key: models.ObservationKey{From: "ICN", To: "TPE", Date: "2025-06-01"}, Price: models.KnownFloat(300)},
		{Key: models.ObservationKey{From: "TPE", To: "ICN", Date: "2025-06-01"}, Price: models.FloatField{}, Imputed: true},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(utils.NewLogger())
	r := svc.Generate(sampleFares())
	if r.TotalObservations != 5 {
		t.Errorf("TotalObservations: got %d, want 5", r.TotalObservations)
	}
	if r.ImputedRows != 2 {
		t.Errorf("ImputedRows: got %d, want 2", r.ImputedRows)
	}
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(utils.NewLogger())
	r := svc.Generate(sampleFares())
	wantAvg := 167.50 // mean over the four known prices; unknown excluded
	if r.AveragePrice != wantAvg {
		t.Errorf("AveragePrice: got %.2f, want %.2f", r.AveragePrice, wantAvg)
	}
	if r.MinPrice != 50 {
		t.Errorf("MinPrice: got %.2f, want 50", r.MinPrice)
	}
	if r.MaxPrice != 300 {
		t.Errorf("MaxPrice: got %.2f, want 300", r.MaxPrice)
	}
}

func TestInsightCheapestFare(t *testing.T) {
	svc := NewInsightService(utils.NewLogger())
	r := svc.Generate(sampleFares())
	if r.CheapestFare == nil {
		t.Fatal("CheapestFare should not be nil")
	}
	want := models.ObservationKey{From: "NRT", To: "TPE", Date: "2025-06-02"}
	if r.CheapestFare.Key != want {
		t.Errorf("CheapestFare: got %s, want %s", r.CheapestFare.Key, want)
	}
}

func TestInsightLegGrouping(t *testing.T) {
	svc := NewInsightService(utils.NewLogger())
	r := svc.Generate(sampleFares())
	if r.ObservationsByLeg["NRT->TPE"] != 2 {
		t.Errorf("NRT->TPE count: got %d, want 2", r.ObservationsByLeg["NRT->TPE"])
	}
	if r.ObservationsByLeg["TPE->NRT"] != 1 {
		t.Errorf("TPE->NRT count: got %d, want 1", r.ObservationsByLeg["TPE->NRT"])
	}
	if r.ObservationsByLeg["TPE->ICN"] != 1 {
		t.Errorf("TPE->ICN count: got %d, want 1", r.ObservationsByLeg["TPE->ICN"])
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(utils.NewLogger())
	r := svc.Generate(nil)
	if r.TotalObservations != 0 {
		t.Errorf("expected 0 total observations for empty input")
	}
	if r.CheapestFare != nil {
		t.Error("CheapestFare should be nil for empty input")
	}
}
