// Package api exposes the dashboard and analytics endpoints over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/mailchimp-insights/internal/analytics"
	"github.com/ignite/mailchimp-insights/internal/domain"
	"github.com/ignite/mailchimp-insights/internal/mailchimp"
	"github.com/ignite/mailchimp-insights/internal/pkg/logger"
	"github.com/ignite/mailchimp-insights/internal/storage"
)

// Handlers contains the HTTP handlers and their dependencies.
type Handlers struct {
	svc        *mailchimp.Service
	store      *storage.Store
	cache      *storage.ResponseCache
	collector  *mailchimp.Collector
	engine     *analytics.Engine
	thresholds *analytics.ThresholdStore

	lookbackDays int
}

// NewHandlers creates the handler set. cache may be nil when Redis is
// disabled; computed results then rely on engine memoization alone.
func NewHandlers(
	svc *mailchimp.Service,
	store *storage.Store,
	cache *storage.ResponseCache,
	collector *mailchimp.Collector,
	engine *analytics.Engine,
	thresholds *analytics.ThresholdStore,
	lookbackDays int,
) *Handlers {
	return &Handlers{
		svc:          svc,
		store:        store,
		cache:        cache,
		collector:    collector,
		engine:       engine,
		thresholds:   thresholds,
		lookbackDays: lookbackDays,
	}
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// respondError writes a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// daysParam reads the ?days query parameter, falling back to the configured
// lookback window. Values are clamped to [1, 365].
func (h *Handlers) daysParam(r *http.Request) int {
	days := h.lookbackDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			days = parsed
		}
	}
	if days < 1 {
		days = 1
	}
	if days > 365 {
		days = 365
	}
	return days
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "healthy",
		"regions":           h.svc.Regions(),
		"collector_running": h.collector.IsRunning(),
		"last_sync":         h.collector.LastSyncTime(),
		"timestamp":         time.Now().UTC(),
	})
}

// GetDashboard handles GET /api/dashboard?days=30&region=us&force_refresh=false
//
// It serves raw per-region campaign data from the campaign cache. With
// force_refresh=true, or when the cache has nothing for the requested
// scope, it fetches live from the Mailchimp API and stores the result.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days := h.daysParam(r)
	forceRefresh := r.URL.Query().Get("force_refresh") == "true"

	regions := h.svc.Regions()
	if region := r.URL.Query().Get("region"); region != "" {
		if _, err := h.svc.Client(region); err != nil {
			respondError(w, http.StatusNotFound, "unknown region: "+region)
			return
		}
		regions = []string{region}
	}

	source := "cache"
	var data map[string][]domain.Campaign

	if !forceRefresh {
		cached, err := h.store.CampaignsByRegions(ctx, regions, days)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load campaign cache")
			return
		}
		total := 0
		for _, campaigns := range cached {
			total += len(campaigns)
		}
		// Fewer cached campaigns than requested regions means the cache is
		// cold or partially seeded; fall through to a live fetch so a fresh
		// deploy still renders a dashboard.
		if total >= len(regions) {
			data = cached
		} else {
			forceRefresh = true
		}
	}

	if forceRefresh {
		source = "live"
		refreshed, err := h.refreshRegions(ctx, regions, days)
		if err != nil {
			respondError(w, http.StatusBadGateway, "failed to fetch campaign data")
			return
		}
		data = refreshed
	}

	total := 0
	for _, campaigns := range data {
		total += len(campaigns)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"campaigns":       data,
		"total_campaigns": total,
		"regions":         regions,
		"days":            days,
		"source":          source,
		"generated_at":    time.Now().UTC(),
	})
}

// refreshRegions fetches live data for the listed regions, upserts it into
// the campaign cache, and bumps the data version once.
func (h *Handlers) refreshRegions(ctx context.Context, regions []string, days int) (map[string][]domain.Campaign, error) {
	data := make(map[string][]domain.Campaign, len(regions))
	stored := false

	for _, region := range regions {
		campaigns, err := h.svc.RegionData(ctx, region, days)
		if err != nil {
			if len(regions) == 1 {
				return nil, err
			}
			logger.Error("region refresh failed", "region", region, "error", err)
			data[region] = nil
			continue
		}
		if err := h.store.UpsertCampaigns(ctx, region, campaigns); err != nil {
			logger.Error("campaign cache write failed", "region", region, "error", err)
		} else if len(campaigns) > 0 {
			stored = true
		}
		data[region] = campaigns
	}

	if stored {
		h.collector.BumpDataVersion()
	}
	return data, nil
}

// GetRegions handles GET /api/regions
func (h *Handlers) GetRegions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"regions": h.svc.Regions(),
	})
}

// TriggerSync handles POST /api/sync?region=us
//
// The sync runs in the background; the response carries a job id so log
// lines can be correlated with the request that started them.
func (h *Handlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region != "" {
		if _, err := h.svc.Client(region); err != nil {
			respondError(w, http.StatusNotFound, "unknown region: "+region)
			return
		}
	}

	jobID := uuid.New().String()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		logger.Info("manual sync started", "job_id", jobID, "region", region)
		if region != "" {
			if err := h.collector.SyncRegion(ctx, region); err != nil {
				logger.Error("manual sync failed", "job_id", jobID, "region", region, "error", err)
				return
			}
			h.collector.BumpDataVersion()
		} else {
			h.collector.SyncAll(ctx)
		}
		logger.Info("manual sync finished", "job_id", jobID, "region", region)
	}()

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "started",
		"job_id": jobID,
		"region": region,
	})
}

// GetAudiences handles GET /api/audiences?region=us
func (h *Handlers) GetAudiences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	regions := h.svc.Regions()
	if region := r.URL.Query().Get("region"); region != "" {
		if _, err := h.svc.Client(region); err != nil {
			respondError(w, http.StatusNotFound, "unknown region: "+region)
			return
		}
		regions = []string{region}
	}

	all := make(map[string][]domain.Audience, len(regions))
	for _, region := range regions {
		client, err := h.svc.Client(region)
		if err != nil {
			continue
		}
		audiences, err := client.Audiences(ctx)
		if err != nil {
			logger.Error("audience fetch failed", "region", region, "error", err)
			all[region] = nil
			continue
		}
		all[region] = audiences
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"audiences": all,
	})
}

// GetCacheStats handles GET /api/cache/stats
func (h *Handlers) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.CacheStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read cache stats")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"regions":           stats,
		"last_sync":         h.collector.LastSyncTime(),
		"collector_running": h.collector.IsRunning(),
	})
}

// ClearCache handles POST /api/cache/clear?region=us
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region != "" {
		if _, err := h.svc.Client(region); err != nil {
			respondError(w, http.StatusNotFound, "unknown region: "+region)
			return
		}
	}

	deleted, err := h.store.ClearCampaigns(r.Context(), region)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	h.collector.BumpDataVersion()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "cleared",
		"region":  region,
		"deleted": deleted,
	})
}

// TestCredentials handles GET /api/test-credentials
func (h *Handlers) TestCredentials(w http.ResponseWriter, r *http.Request) {
	results := h.svc.CheckAllCredentials(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// regionParam extracts and validates the {region} URL parameter.
func (h *Handlers) regionParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	region := chi.URLParam(r, "region")
	if region == "" {
		respondError(w, http.StatusBadRequest, "region is required")
		return "", false
	}
	if _, err := h.svc.Client(region); err != nil {
		if errors.Is(err, mailchimp.ErrRegionNotConfigured) {
			respondError(w, http.StatusNotFound, "unknown region: "+region)
			return "", false
		}
		respondError(w, http.StatusInternalServerError, "region lookup failed")
		return "", false
	}
	return region, true
}
