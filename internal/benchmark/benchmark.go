// Package benchmark serves industry benchmark data used to contextualize
// analysis output. Lookups are cached with a TTL and deduplicated with
// singleflight so concurrent requests for the same vertical hit the store
// once.
package benchmark

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// MetricBenchmark is one metric's industry distribution.
type MetricBenchmark struct {
	Median string `json:"median"`
	Top10  string `json:"top10"`
}

// Comparison positions a store's metric against the industry.
type Comparison struct {
	Value      string `json:"value"`
	Percentile string `json:"percentile"`
	VsMedian   string `json:"vs_median"`
}

// Benchmark is the industry context for one vertical.
type Benchmark struct {
	Vertical    string                     `json:"vertical"`
	Campaigns   map[string]MetricBenchmark `json:"campaigns,omitempty"`
	Performance map[string]Comparison      `json:"performance,omitempty"`
	Insights    []string                   `json:"insights,omitempty"`
}

// Source loads benchmark data for a vertical.
type Source interface {
	BenchmarkByVertical(ctx context.Context, vertical string) (*Benchmark, error)
}

type cacheEntry struct {
	bench    *Benchmark
	expireAt time.Time
}

// Service caches Source lookups. Benchmark data changes quarterly at best,
// so a generous TTL is fine.
type Service struct {
	src Source
	ttl time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
	group singleflight.Group
}

const defaultTTL = time.Hour

func NewService(src Source, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Service{
		src:   src,
		ttl:   ttl,
		cache: make(map[string]cacheEntry),
	}
}

// Get returns the benchmark for a vertical, from cache when fresh.
func (s *Service) Get(ctx context.Context, vertical string) (*Benchmark, error) {
	if vertical == "" {
		return nil, nil
	}

	s.mu.RLock()
	entry, ok := s.cache[vertical]
	s.mu.RUnlock()
	if ok && time.Now().Before(entry.expireAt) {
		return entry.bench, nil
	}

	v, err, _ := s.group.Do(vertical, func() (interface{}, error) {
		bench, err := s.src.BenchmarkByVertical(ctx, vertical)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache[vertical] = cacheEntry{bench: bench, expireAt: time.Now().Add(s.ttl)}
		s.mu.Unlock()
		return bench, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Benchmark), nil
}
