package mossy

import (
	"context"
	"log"
	"time"
)

// DefaultCacheCapacity is the default number of reports the Engine's
// in-memory cache retains (spec §4.8).
const DefaultCacheCapacity = 64

// Engine is the process-local report facade (C8): it runs Analyze and
// retains the resulting reports in a bounded LRU keyed by report ID, so a
// collaborator can look up pairs() and fragments() without re-running the
// pipeline. Engine is safe for concurrent use.
//
// Engine logs its own coarse operational events (report admitted to
// cache, report evicted, analyze cancelled) with the standard log
// package, always on and independent of Options.DebugLogPath's optional
// per-run trace log.
type Engine struct {
	cache *reportCache
}

// NewEngine creates an Engine with the given cache capacity and optional
// TTL (0 disables expiry). Capacity <= 0 uses DefaultCacheCapacity.
func NewEngine(capacity int, ttl time.Duration) *Engine {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	cache := newReportCache(capacity, ttl)
	cache.onEvict = func(id string) {
		log.Printf("mossy: report evicted: id=%s", id)
	}
	return &Engine{cache: cache}
}

// Analyze runs the pipeline and retains the resulting report in the
// engine's cache under its ID.
func (e *Engine) Analyze(ctx context.Context, files []FileInput, languageTag string, opts Options) (*Report, error) {
	report, err := Analyze(ctx, files, languageTag, opts)
	if err != nil {
		if _, cancelled := err.(*CancelledError); cancelled {
			log.Printf("mossy: analyze cancelled")
		}
		return nil, err
	}
	e.cache.Put(report)
	log.Printf("mossy: report admitted to cache: id=%s", report.ID)
	return report, nil
}

// Report looks up a previously analyzed report by ID. The second return
// value is false if the report was never cached or has been evicted.
func (e *Engine) Report(reportID string) (*Report, bool) {
	return e.cache.Get(reportID)
}

// Forget evicts a report from the cache ahead of its natural LRU
// eviction, releasing its owned buffers immediately.
func (e *Engine) Forget(reportID string) {
	e.cache.Remove(reportID)
}
