package models

// RouteCatalogEntry pairs a partner country with its main airport.
type RouteCatalogEntry struct {
	Country string
	Airport string
}

// RouteCatalog is the fixed set of partner airports plus the hub. Each
// entry defines two directed legs: hub->airport and airport->hub. The
// catalog is constructed once at startup and passed explicitly to the
// coverage calculator and the imputation engine.
type RouteCatalog struct {
	Hub     string
	Entries []RouteCatalogEntry
}

// Leg is one directed route.
type Leg struct {
	From string
	To   string
}

// DefaultCatalog returns the ten partner countries tracked against
// Taiwan's Taoyuan hub.
func DefaultCatalog() RouteCatalog {
	return RouteCatalog{
		Hub: "TPE",
		Entries: []RouteCatalogEntry{
			{Country: "JPN", Airport: "NRT"}, // Japan - Tokyo Narita
			{Country: "KOR", Airport: "ICN"}, // South Korea - Incheon
			{Country: "THA", Airport: "BKK"}, // Thailand - Bangkok
			{Country: "DEU", Airport: "FRA"}, // Germany - Frankfurt
			{Country: "USA", Airport: "LAX"}, // USA - Los Angeles
			{Country: "AUS", Airport: "SYD"}, // Australia - Sydney
			{Country: "VNM", Airport: "SGN"}, // Vietnam - Ho Chi Minh
			{Country: "MYS", Airport: "KUL"}, // Malaysia - Kuala Lumpur
			{Country: "HKG", Airport: "HKG"}, // Hong Kong
			{Country: "EGY", Airport: "CAI"}, // Egypt - Cairo
		},
	}
}

// Legs returns both directed legs for every catalog entry, in catalog
// order: airport->hub first, then hub->airport, matching the order the
// acquisition pipeline has always used.
func (c RouteCatalog) Legs() []Leg {
	legs := make([]Leg, 0, 2*len(c.Entries))
	for _, e := range c.Entries {
		legs = append(legs, Leg{From: e.Airport, To: c.Hub}, Leg{From: c.Hub, To: e.Airport})
	}
	return legs
}

// AirportSet returns the partner airport codes for route filtering.
// The hub is deliberately not included: a row is in scope when either
// endpoint is a partner airport.
func (c RouteCatalog) AirportSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Entries))
	for _, e := range c.Entries {
		set[e.Airport] = struct{}{}
	}
	return set
}
