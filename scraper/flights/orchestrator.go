package flights

import (
	"context"
	"sort"
	"sync/atomic"

	"flight-fare-tracker/config"
	"flight-fare-tracker/models"
	"flight-fare-tracker/storage"
	"flight-fare-tracker/utils"
)

// Session is one acquisition stream's handle on the fetch collaborator:
// a browser context plus the selection logic. Close releases the
// underlying resources and must run even when the stream fails.
type Session interface {
	Acquire(ctx context.Context, key models.ObservationKey) *models.RawObservation
	Close()
}

// SessionFactory opens a fresh Session for one stream.
type SessionFactory func(ctx context.Context) (Session, error)

// Orchestrator drives acquisition of the missing keys. Keys are grouped
// into one stream per calendar month; streams run concurrently on a
// bounded pool, each owning one browser session, and every success is
// appended to the raw log immediately so partial progress survives a
// crash. Within a stream, keys keep the gap detector's order.
type Orchestrator struct {
	logger   *utils.Logger
	appender storage.RawAppender
	sessions SessionFactory
	pool     *utils.WorkerPool
	claimed  *utils.KeySet
}

// NewOrchestrator creates an Orchestrator running at most maxStreams
// month-streams at once.
func NewOrchestrator(sessions SessionFactory, appender storage.RawAppender, maxStreams int, logger *utils.Logger) *Orchestrator {
	return &Orchestrator{
		logger:   logger,
		appender: appender,
		sessions: sessions,
		pool:     utils.NewWorkerPool(maxStreams),
		claimed:  utils.NewKeySet(),
	}
}

// Run acquires all missing keys and returns how many observations were
// persisted. A stream whose session cannot start simply abandons its
// keys; they surface as missing again on the next run.
func (o *Orchestrator) Run(ctx context.Context, missing []models.ObservationKey) int {
	if len(missing) == 0 {
		o.logger.Info("[orchestrator] Nothing to acquire")
		return 0
	}

	months, byMonth := groupByMonth(missing)
	o.logger.Info("[orchestrator] Acquiring %d keys across %d month streams",
		len(missing), len(months))

	var acquired int64
	for _, month := range months {
		month := month
		keys := byMonth[month]
		o.pool.Submit(func() {
			n := o.runStream(ctx, month, keys)
			atomic.AddInt64(&acquired, int64(n))
		})
	}
	o.pool.Wait()

	o.logger.Info("[orchestrator] Acquisition done — %d/%d observations persisted",
		acquired, len(missing))
	return int(acquired)
}

func (o *Orchestrator) runStream(ctx context.Context, month string, keys []models.ObservationKey) int {
	session, err := o.sessions(ctx)
	if err != nil {
		o.logger.Error("[orchestrator] Stream %s: session setup failed, abandoning %d keys: %v",
			month, len(keys), err)
		return 0
	}
	defer session.Close()

	acquired := 0
	for _, key := range keys {
		select {
		case <-ctx.Done():
			o.logger.Warn("[orchestrator] Stream %s cancelled with %d keys pending",
				month, len(keys)-acquired)
			return acquired
		default:
		}

		if !o.claimed.Add(key) {
			continue
		}

		obs := session.Acquire(ctx, key)
		if obs == nil {
			o.logger.Warn("[orchestrator] No best price found for %s", key)
			continue
		}

		if err := o.appender.Append(obs); err != nil {
			o.logger.Error("[orchestrator] Append failed for %s: %v", key, err)
			continue
		}
		acquired++
		o.logger.Info("[orchestrator] Written: %s", key)
	}

	o.logger.Info("[orchestrator] Stream %s done — %d/%d acquired", month, acquired, len(keys))
	return acquired
}

// groupByMonth splits keys into per-calendar-month groups, preserving
// the incoming order within each group. Months come back sorted so
// stream launch order is deterministic.
func groupByMonth(keys []models.ObservationKey) ([]string, map[string][]models.ObservationKey) {
	byMonth := make(map[string][]models.ObservationKey)
	for _, k := range keys {
		m := k.Month()
		byMonth[m] = append(byMonth[m], k)
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	return months, byMonth
}

type browserSession struct {
	fetcher  *BrowserFetcher
	acquirer *Acquirer
}

func (s *browserSession) Acquire(ctx context.Context, key models.ObservationKey) *models.RawObservation {
	return s.acquirer.Acquire(ctx, key)
}

func (s *browserSession) Close() {
	s.fetcher.Close()
}

// NewBrowserSessionFactory returns a SessionFactory that opens one
// chromedp browser context per stream off the shared allocator, with
// all streams paced by the same fetch guard.
func NewBrowserSessionFactory(allocCtx context.Context, cfg *config.Config, guard *utils.FetchGuard, logger *utils.Logger) SessionFactory {
	return func(ctx context.Context) (Session, error) {
		fetcher, err := NewBrowserFetcher(allocCtx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &browserSession{
			fetcher:  fetcher,
			acquirer: NewAcquirer(fetcher, guard, logger),
		}, nil
	}
}
