package flights

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"flight-fare-tracker/config"
	"flight-fare-tracker/utils"
)

// resultsSelector matches one flight offer row on the results page.
const resultsSelector = ".pIav2d"

// NewExecAllocator builds the shared headless-Chrome allocator context
// for the whole run. Each acquisition stream creates its own browser
// context from it.
func NewExecAllocator(ctx context.Context, cfg *config.Config, logger *utils.Logger) (context.Context, context.CancelFunc) {
	chromeBin := findChromeBinary(cfg)
	logger.Info("[flights] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	return chromedp.NewExecAllocator(ctx, opts...)
}

// BrowserFetcher runs Google Flights searches inside one browser
// context. One fetcher belongs to exactly one acquisition stream.
type BrowserFetcher struct {
	browserCtx context.Context
	cancel     context.CancelFunc
	cfg        *config.Config
	logger     *utils.Logger
	retry      *utils.RetryConfig
}

// NewBrowserFetcher starts a browser context off the shared allocator.
// Close must be called when the stream finishes, success or not.
func NewBrowserFetcher(allocCtx context.Context, cfg *config.Config, logger *utils.Logger) (*BrowserFetcher, error) {
	// Suppress chromedp log noise
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	// Start the browser up front so a broken environment fails the
	// stream here, not on its first key.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("flights: start browser: %w", err)
	}

	return &BrowserFetcher{
		browserCtx: browserCtx,
		cancel:     cancel,
		cfg:        cfg,
		logger:     logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}, nil
}

// Close releases the stream's browser context.
func (b *BrowserFetcher) Close() {
	b.cancel()
}

// Fetch navigates to the search URL, waits for results to become
// visible, and extracts every candidate offer's fields.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) ([]Candidate, error) {
	type offerData struct {
		DepartureTime      string `json:"departureTime"`
		ArrivalTime        string `json:"arrivalTime"`
		Airline            string `json:"airline"`
		Duration           string `json:"duration"`
		Stops              string `json:"stops"`
		Price              string `json:"price"`
		CO2                string `json:"co2"`
		EmissionsVariation string `json:"emissionsVariation"`
	}

	var offers []offerData

	err := b.retry.Do(ctx, "fetch-results", func() error {
		tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
		defer cancelTab()

		navTimeout := time.Duration(b.cfg.NavigationTimeoutSec) * time.Second
		resultsTimeout := time.Duration(b.cfg.ResultsTimeoutSec) * time.Second

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, navTimeout+resultsTimeout)
		defer cancelTimeout()

		offers = offers[:0]
		err := chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.WaitVisible(resultsSelector, chromedp.ByQuery),
			chromedp.Evaluate(`
				(function() {
					var results = [];
					var rows = document.querySelectorAll('`+resultsSelector+`');
					for (var i = 0; i < rows.length; i++) {
						var row = rows[i];

						function text(selectors) {
							for (var s = 0; s < selectors.length; s++) {
								var el = row.querySelector(selectors[s]);
								if (el) {
									var t = (el.getAttribute('aria-label') || el.textContent || '').trim();
									if (t) return t;
								}
							}
							return '';
						}

						results.push({
							departureTime: text(['span[aria-label^="Departure time"]', '.wtdjmc']),
							arrivalTime:   text(['span[aria-label^="Arrival time"]', '.XWcVob']),
							airline:       text(['.sSHqwe.tPgKwe.ogfYpf', '.Ir0Voe .sSHqwe']),
							duration:      text(['div[aria-label^="Total duration"]', '.gvkrdb']),
							stops:         text(['span[aria-label$="stop flight."]', '.EfT7Ae .ogfYpf', '.BbR8Ec .ogfYpf']),
							price:         text(['span[aria-label$="US dollars"]', '.YMlIz.FpEdX', '.U3gSDe .FpEdX span']),
							co2:           text(['div[aria-label*="Carbon emissions estimate"]', '.O7CXue']),
							emissionsVariation: text(['div[aria-label*="emissions"] span', '.N6PNV'])
						});
					}
					return results;
				})()
			`, &offers),
		)
		if err != nil {
			return fmt.Errorf("chromedp results fetch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.logger.Debug("[flights] Found %d flights for %s", len(offers), url)

	candidates := make([]Candidate, 0, len(offers))
	for _, o := range offers {
		candidates = append(candidates, Candidate{
			FieldDepartureTime:      o.DepartureTime,
			FieldArrivalTime:        o.ArrivalTime,
			FieldAirline:            o.Airline,
			FieldFlightDuration:     o.Duration,
			FieldStops:              o.Stops,
			FieldPrice:              o.Price,
			FieldCO2Emissions:       o.CO2,
			FieldEmissionsVariation: o.EmissionsVariation,
		})
	}
	return candidates, nil
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary(cfg *config.Config) string {
	if cfg.ChromeBin != "" {
		return cfg.ChromeBin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
