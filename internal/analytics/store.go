package analytics

import (
	"context"
	"sync"

	"github.com/ignite/mailchimp-insights/internal/pkg/logger"
)

// ThresholdRepository persists threshold overrides outside the engine.
// Implementations must treat an empty store as "no overrides".
type ThresholdRepository interface {
	LoadThresholds(ctx context.Context) (map[string]float64, error)
	SaveThreshold(ctx context.Context, key string, value float64) error
	DeleteThresholds(ctx context.Context) error
}

// ThresholdStore holds the current threshold values. Mutations happen only
// through Set and Reset; every mutation bumps the version counter so
// downstream caches keyed on the version become unreachable. The engine
// reads a fresh snapshot on every aggregation pass and never caches values.
type ThresholdStore struct {
	mu       sync.RWMutex
	current  Thresholds
	defaults Thresholds
	version  uint64
	repo     ThresholdRepository
}

// NewThresholdStore creates a store seeded with the given defaults.
// repo may be nil, in which case values live only in memory.
func NewThresholdStore(defaults Thresholds, repo ThresholdRepository) *ThresholdStore {
	return &ThresholdStore{
		current:  defaults,
		defaults: defaults,
		repo:     repo,
	}
}

// Load hydrates persisted overrides on top of the defaults. Unknown keys in
// the repository are skipped with a warning rather than failing the boot.
func (s *ThresholdStore) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	overrides, err := s.repo.LoadThresholds(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range overrides {
		if err := s.current.Set(key, value); err != nil {
			logger.Warn("skipping persisted threshold", "key", key, "error", err)
		}
	}
	if len(overrides) > 0 {
		s.version++
	}
	return nil
}

// Snapshot returns a copy of the current values and the store version.
func (s *ThresholdStore) Snapshot() (Thresholds, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.version
}

// Version returns the current store version.
func (s *ThresholdStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set updates one threshold value and persists the override.
func (s *ThresholdStore) Set(ctx context.Context, key string, value float64) error {
	s.mu.Lock()
	if err := s.current.Set(key, value); err != nil {
		s.mu.Unlock()
		return err
	}
	s.version++
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.SaveThreshold(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Reset restores the defaults and removes persisted overrides.
func (s *ThresholdStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.current = s.defaults
	s.version++
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.DeleteThresholds(ctx); err != nil {
			return err
		}
	}
	return nil
}
