package analytics

import (
	"sync"
	"time"

	"github.com/ignite/mailchimp-insights/internal/domain"
)

// Engine memoizes aggregation passes. Computation is pure, so two passes
// over the same input snapshot yield deep-equal results; the engine keys
// its memo on (data version, threshold version, window, UTC day) and skips
// recomputation when nothing changed. The UTC day is part of the key
// because 30-day recency windows shift at day boundaries.
//
// Thresholds are read fresh from the store on every pass; the engine never
// caches threshold values, only finished results.
type Engine struct {
	mu         sync.Mutex
	overview   *Overview
	overviewAt memoKey
	details    map[string]detailEntry

	nowFn func() time.Time
}

type memoKey struct {
	dataVersion      uint64
	thresholdVersion uint64
	days             int
	day              string
}

type detailEntry struct {
	key    memoKey
	result *RegionDetail
}

// NewEngine creates a memoizing analytics engine.
func NewEngine() *Engine {
	return &Engine{
		details: make(map[string]detailEntry),
		nowFn:   time.Now,
	}
}

// Overview computes (or returns the memoized) overview-mode result for the
// given campaign snapshot. dataVersion must change whenever the underlying
// campaign data changes; days identifies the fetch window the snapshot was
// built with.
func (e *Engine) Overview(data map[string][]domain.Campaign, dataVersion uint64, days int, store *ThresholdStore) *Overview {
	th, thVersion := store.Snapshot()
	now := e.nowFn().UTC()
	key := memoKey{
		dataVersion:      dataVersion,
		thresholdVersion: thVersion,
		days:             days,
		day:              now.Format("2006-01-02"),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.overview != nil && e.overviewAt == key {
		return e.overview
	}

	result := BuildOverview(data, th, now)
	e.overview = result
	e.overviewAt = key
	return result
}

// RegionDetail computes (or returns the memoized) single-region result.
// The result may be nil when the region has no campaign data; nil results
// are memoized like any other.
func (e *Engine) RegionDetail(region string, campaigns []domain.Campaign, dataVersion uint64, days int, store *ThresholdStore) *RegionDetail {
	th, thVersion := store.Snapshot()
	now := e.nowFn().UTC()
	key := memoKey{
		dataVersion:      dataVersion,
		thresholdVersion: thVersion,
		days:             days,
		day:              now.Format("2006-01-02"),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if entry, ok := e.details[region]; ok && entry.key == key {
		return entry.result
	}

	result := BuildRegionDetail(region, campaigns, th, now)
	e.details[region] = detailEntry{key: key, result: result}
	return result
}
