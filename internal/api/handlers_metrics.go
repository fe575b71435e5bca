package api

import (
	"net/http"

	"github.com/ignite/mailchimp-insights/internal/analytics"
	"github.com/ignite/mailchimp-insights/internal/pkg/logger"
)

// GetOverview handles GET /api/metrics/overview?days=30
//
// Computed payloads are served from Redis when the campaign data version
// and threshold version both match; otherwise the engine recomputes from
// the campaign cache and the result is stored for the next caller.
func (h *Handlers) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days := h.daysParam(r)

	dataVersion := h.collector.DataVersion()
	cacheKey := ""

	if h.cache != nil {
		cacheKey = h.cache.Key("overview", "", days, dataVersion, h.thresholds.Version())
		var cached analytics.Overview
		hit, err := h.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warn("response cache read failed", "key", cacheKey, "error", err)
		}
		if hit {
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	data, err := h.store.CampaignsByRegions(ctx, h.svc.Regions(), days)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load campaign cache")
		return
	}

	overview := h.engine.Overview(data, dataVersion, days, h.thresholds)

	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, overview); err != nil {
			logger.Warn("response cache write failed", "key", cacheKey, "error", err)
		}
	}

	respondJSON(w, http.StatusOK, overview)
}

// GetRegionDetail handles GET /api/metrics/region/{region}?days=30
func (h *Handlers) GetRegionDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	region, ok := h.regionParam(w, r)
	if !ok {
		return
	}
	days := h.daysParam(r)

	dataVersion := h.collector.DataVersion()
	cacheKey := ""

	if h.cache != nil {
		cacheKey = h.cache.Key("region", region, days, dataVersion, h.thresholds.Version())
		var cached analytics.RegionDetail
		hit, err := h.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warn("response cache read failed", "key", cacheKey, "error", err)
		}
		if hit {
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	campaigns, err := h.store.CampaignsByRegion(ctx, region, days)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load campaign cache")
		return
	}

	detail := h.engine.RegionDetail(region, campaigns, dataVersion, days, h.thresholds)
	if detail == nil {
		respondError(w, http.StatusNotFound, "no campaign data for region: "+region)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, detail); err != nil {
			logger.Warn("response cache write failed", "key", cacheKey, "error", err)
		}
	}

	respondJSON(w, http.StatusOK, detail)
}
