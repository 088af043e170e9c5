package services

import (
	"fmt"
	"sort"
	"strings"

	"flight-fare-tracker/models"
	"flight-fare-tracker/utils"
)

// FareReport holds the computed analytics over the cleaned dataset.
type FareReport struct {
	TotalObservations int
	ImputedRows       int
	AveragePrice      float64
	MinPrice          float64
	MaxPrice          float64
	CheapestFare      *models.CleanedObservation
	ObservationsByLeg map[string]int
}

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(fares []*models.CleanedObservation) *FareReport {
	report := &FareReport{
		ObservationsByLeg: make(map[string]int),
	}

	if len(fares) == 0 {
		return report
	}

	report.TotalObservations = len(fares)

	var priced []*models.CleanedObservation
	for _, f := range fares {
		if f.Imputed {
			report.ImputedRows++
		}
		if f.Price.Known && f.Price.Val > 0 {
			priced = append(priced, f)
		}
		report.ObservationsByLeg[f.Key.From+"->"+f.Key.To]++
	}

	if len(priced) > 0 {
		report.MinPrice = priced[0].Price.Val
		report.MaxPrice = priced[0].Price.Val
		report.CheapestFare = priced[0]
		var total float64
		for _, f := range priced {
			total += f.Price.Val
			if f.Price.Val < report.MinPrice {
				report.MinPrice = f.Price.Val
				report.CheapestFare = f
			}
			if f.Price.Val > report.MaxPrice {
				report.MaxPrice = f.Price.Val
			}
		}
		report.AveragePrice = round2(total / float64(len(priced)))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	return report
}

func (s *InsightService) Print(r *FareReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  ✈ TAIWAN FLIGHT FARE INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total observations : \033[1m%d\033[0m\n", r.TotalObservations)
	fmt.Printf("  Imputed rows       : \033[1m%d\033[0m\n", r.ImputedRows)
	fmt.Println()

	// Price Stats
	fmt.Printf("\033[1;33m  Price Statistics\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Printf("  Average price : \033[1;32m$%.2f\033[0m\n", r.AveragePrice)
		fmt.Printf("  Minimum price : \033[1;32m$%.2f\033[0m\n", r.MinPrice)
		fmt.Printf("  Maximum price : \033[1;32m$%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	// Cheapest observed fare
	if r.CheapestFare != nil {
		fmt.Printf("\033[1;33m  Cheapest Observed Fare\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s → %s on %s\n",
			r.CheapestFare.Key.From, r.CheapestFare.Key.To, r.CheapestFare.Key.Date)
		fmt.Printf("  Price : \033[1;31m$%.2f\033[0m\n", r.CheapestFare.Price.Val)
		fmt.Println()
	}

	// Observations per leg
	fmt.Printf("\033[1;33m  Observations by Leg\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ObservationsByLeg) == 0 {
		fmt.Printf("  No leg data\n")
	} else {
		type legCount struct {
			leg   string
			count int
		}
		var legs []legCount
		for leg, cnt := range r.ObservationsByLeg {
			legs = append(legs, legCount{leg, cnt})
		}
		sort.Slice(legs, func(i, j int) bool {
			if legs[i].count != legs[j].count {
				return legs[i].count > legs[j].count
			}
			return legs[i].leg < legs[j].leg
		})
		for _, lc := range legs {
			fmt.Printf("  %-12s %d\n", lc.leg, lc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
