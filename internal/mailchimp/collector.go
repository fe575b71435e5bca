package mailchimp

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignite/mailchimp-insights/internal/config"
	"github.com/ignite/mailchimp-insights/internal/domain"
	"github.com/ignite/mailchimp-insights/internal/pkg/logger"
)

// CampaignStore defines the storage operations needed by the collector.
type CampaignStore interface {
	UpsertCampaigns(ctx context.Context, region string, campaigns []domain.Campaign) error
}

// Collector periodically syncs campaign data from every region into the
// campaign cache. Each successful sync bumps the data version, which the
// analytics engine and response cache use as a memo key component.
type Collector struct {
	svc    *Service
	store  CampaignStore
	config config.PollingConfig

	dataVersion atomic.Uint64

	mu        sync.RWMutex
	lastSync  time.Time
	isRunning bool
}

// NewCollector creates a campaign data collector.
func NewCollector(svc *Service, store CampaignStore, cfg config.PollingConfig) *Collector {
	return &Collector{
		svc:    svc,
		store:  store,
		config: cfg,
	}
}

// Start begins the polling loop: an initial sync, then one per interval
// until the context is canceled.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	c.isRunning = true
	c.mu.Unlock()

	logger.Info("starting campaign collector", "interval", c.config.Interval().String())

	c.SyncAll(ctx)

	ticker := time.NewTicker(c.config.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping campaign collector")
			c.mu.Lock()
			c.isRunning = false
			c.mu.Unlock()
			return
		case <-ticker.C:
			c.SyncAll(ctx)
		}
	}
}

// SyncAll fetches and stores campaign data for every region. Returns the
// number of regions that synced successfully.
func (c *Collector) SyncAll(ctx context.Context) int {
	start := time.Now()
	synced := 0

	for _, region := range c.svc.Regions() {
		if err := c.SyncRegion(ctx, region); err != nil {
			logger.Error("region sync failed", "region", region, "error", err)
			continue
		}
		synced++
	}

	if synced > 0 {
		c.dataVersion.Add(1)
		c.mu.Lock()
		c.lastSync = time.Now()
		c.mu.Unlock()
	}

	logger.Info("sync complete",
		"regions_synced", synced,
		"regions_total", len(c.svc.Regions()),
		"elapsed", time.Since(start).String())
	return synced
}

// SyncRegion fetches and stores campaign data for one region.
func (c *Collector) SyncRegion(ctx context.Context, region string) error {
	campaigns, err := c.svc.RegionData(ctx, region, c.config.LookbackDays)
	if err != nil {
		return err
	}
	if err := c.store.UpsertCampaigns(ctx, region, campaigns); err != nil {
		return err
	}
	logger.Info("region synced", "region", region, "campaigns", len(campaigns))
	return nil
}

// DataVersion returns the current campaign data version. It changes after
// every successful sync pass.
func (c *Collector) DataVersion() uint64 {
	return c.dataVersion.Load()
}

// BumpDataVersion invalidates memoized results after an out-of-band write
// (e.g. a force-refresh upsert through the API).
func (c *Collector) BumpDataVersion() {
	c.dataVersion.Add(1)
}

// LastSyncTime returns when the last successful sync pass finished.
func (c *Collector) LastSyncTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSync
}

// IsRunning reports whether the polling loop is active.
func (c *Collector) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRunning
}
