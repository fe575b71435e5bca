// Package analytics turns raw per-region campaign data into scored, ranked,
// and flagged summaries for the dashboard: region rankings with a composite
// score, best/worst region and campaign selection, threshold-driven alerts,
// and single-region detail stats.
//
// Everything in this package is a pure, synchronous computation over an
// input snapshot. Degenerate input (empty regions, zero sends, malformed
// timestamps) resolves to well-defined empty or nil output, never an error.
package analytics

import (
	"time"

	"github.com/ignite/mailchimp-insights/internal/domain"
)

// Composite score weights. The score blends engagement and deliverability
// into a single [0,1] ranking value.
const (
	openWeight     = 0.4
	clickWeight    = 0.3
	deliveryWeight = 0.3
)

// compositeScore blends open, click, and delivery rates into one value.
func compositeScore(openRate, clickRate, deliveryRate float64) float64 {
	return openWeight*openRate + clickWeight*clickRate + deliveryWeight*deliveryRate
}

// RegionStat is the derived aggregate of all campaigns for one region.
// It is recomputed from scratch on every pass.
type RegionStat struct {
	Region          string  `json:"region"`
	CampaignCount   int     `json:"campaign_count"`
	RecentCampaigns int     `json:"recent_campaigns"` // sent in the last 30 days
	TotalSent       int64   `json:"total_sent"`
	TotalBounces    int64   `json:"total_bounces"`
	TotalUnsubs     int64   `json:"total_unsubs"`
	AvgOpenRate     float64 `json:"avg_open_rate"`
	AvgClickRate    float64 `json:"avg_click_rate"`
	DeliveryRate    float64 `json:"delivery_rate"`
	BounceRate      float64 `json:"bounce_rate"`
	UnsubRate       float64 `json:"unsub_rate"`
	Score           float64 `json:"score"`

	BestCampaign          *domain.Campaign `json:"best_campaign,omitempty"`
	LastCampaignAt        time.Time        `json:"last_campaign_at"`
	DaysSinceLastCampaign int              `json:"days_since_last_campaign"`

	// SufficientData reports whether the region has enough volume to be
	// presented as a reliable signal.
	SufficientData bool `json:"sufficient_data"`
}

// AlertType identifies which threshold check produced an alert.
type AlertType string

const (
	AlertBounce        AlertType = "bounce"
	AlertUnsub         AlertType = "unsub"
	AlertLowActivity   AlertType = "lowActivity"
	AlertLowEngagement AlertType = "lowEngagement"
)

// Severity ranks alerts for presentation.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Alert is one triggered threshold check for a region.
type Alert struct {
	Region   string    `json:"region"`
	Type     AlertType `json:"type"`
	Value    float64   `json:"value"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// InactiveRegion flags a region with no sends in over 30 days.
type InactiveRegion struct {
	Region                string `json:"region"`
	DaysSinceLastCampaign int    `json:"days_since_last_campaign"`
}

// TopCampaign is the single best campaign across all regions by open rate.
type TopCampaign struct {
	Region   string          `json:"region"`
	Campaign domain.Campaign `json:"campaign"`
}

// Overview is the overview-mode metrics result: every region with data,
// ranked by composite score, plus cross-region totals and alerts.
type Overview struct {
	Regions     []RegionStat `json:"regions"`
	BestRegion  *RegionStat  `json:"best_region,omitempty"`
	WorstRegion *RegionStat  `json:"worst_region,omitempty"`
	TopCampaign *TopCampaign `json:"top_campaign,omitempty"`

	TotalCampaigns int     `json:"total_campaigns"`
	TotalSent      int64   `json:"total_sent"`
	AvgOpenRate    float64 `json:"avg_open_rate"`  // across all campaigns, unweighted
	AvgClickRate   float64 `json:"avg_click_rate"` // across all campaigns, unweighted

	Alerts          []Alert          `json:"alerts"`
	InactiveRegions []InactiveRegion `json:"inactive_regions"`

	GeneratedAt time.Time `json:"generated_at"`
}

// RegionDetail is the single-region metrics result. A nil RegionDetail
// means the region had no campaign data at all ("no data" state), which is
// distinct from a detail with SufficientData=false ("insufficient data")
// and from NeedsReview=nil with ReviewCandidates=0 ("nothing to review").
type RegionDetail struct {
	Region        string `json:"region"`
	CampaignCount int    `json:"campaign_count"`
	TotalSent     int64  `json:"total_sent"`
	TotalBounces  int64  `json:"total_bounces"`
	TotalUnsubs   int64  `json:"total_unsubs"`

	AvgOpenRate  float64 `json:"avg_open_rate"`
	AvgClickRate float64 `json:"avg_click_rate"`
	DeliveryRate float64 `json:"delivery_rate"`
	BounceRate   float64 `json:"bounce_rate"`
	UnsubRate    float64 `json:"unsub_rate"`

	LastCampaignAt        time.Time `json:"last_campaign_at"`
	DaysSinceLastCampaign int       `json:"days_since_last_campaign"`

	TopCampaign *domain.Campaign `json:"top_campaign,omitempty"`

	// NeedsReview is the worst campaign (lowest composite score) among
	// those failing any review threshold. Nil with ReviewCandidates=0
	// means no campaign needs review.
	NeedsReview      *domain.Campaign `json:"needs_review,omitempty"`
	ReviewCandidates int              `json:"review_candidates"`

	// Issues are fixed absolute health checks (bounce > 5%, unsub > 1%),
	// independent of the configurable alert thresholds.
	Issues []string `json:"issues"`

	SufficientData bool `json:"sufficient_data"`

	GeneratedAt time.Time `json:"generated_at"`
}

// recencyWindow is the lookback used for activity counts and the
// inactivity list.
const recencyWindow = 30 * 24 * time.Hour

// daysSince returns whole days between then and now, never negative.
func daysSince(now, then time.Time) int {
	if then.IsZero() || !then.Before(now) {
		return 0
	}
	return int(now.Sub(then).Hours() / 24)
}
