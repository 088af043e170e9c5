package utils

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"flight-fare-tracker/models"
)

// WorkerPool runs submitted jobs on a bounded number of goroutines.
type WorkerPool struct {
	semaphore chan struct{}
	wg        sync.WaitGroup
}

// NewWorkerPool creates a WorkerPool with the given concurrency.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	return &WorkerPool{
		semaphore: make(chan struct{}, maxWorkers),
	}
}

// Submit enqueues a job for execution in the pool.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// FetchGuard paces page fetches across all acquisition streams so the
// upstream site's rate limits are respected regardless of how many
// streams are running.
type FetchGuard struct {
	limiter *rate.Limiter
}

// NewFetchGuard allows up to rps fetches per second with the given burst.
func NewFetchGuard(rps float64, burst int) *FetchGuard {
	if burst < 1 {
		burst = 1
	}
	return &FetchGuard{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until the next fetch is allowed or the context is cancelled.
func (g *FetchGuard) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// KeySet is a thread-safe set of observation keys, used to guarantee a
// key is acquired at most once per run even if it reaches two streams.
type KeySet struct {
	mu   sync.RWMutex
	seen map[models.ObservationKey]struct{}
}

// NewKeySet creates an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{seen: make(map[models.ObservationKey]struct{})}
}

// Add returns true if the key was newly added, false if already present.
func (s *KeySet) Add(key models.ObservationKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains returns true if the key has already been recorded.
func (s *KeySet) Contains(key models.ObservationKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[key]
	return exists
}

// Size returns the number of unique keys tracked.
func (s *KeySet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
