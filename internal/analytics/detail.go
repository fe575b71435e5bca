package analytics

import (
	"fmt"
	"time"

	"github.com/ignite/mailchimp-insights/internal/domain"
)

// BuildRegionDetail reduces one region's campaign slice into the
// single-region metrics result: summary stats, the top performer, the
// campaign most in need of review, and the fixed issues list.
//
// Returns nil when the slice is empty or absent; the caller renders a
// "no data" state instead of a zeroed summary.
func BuildRegionDetail(region string, campaigns []domain.Campaign, th Thresholds, now time.Time) *RegionDetail {
	if len(campaigns) == 0 {
		return nil
	}

	d := &RegionDetail{
		Region:        region,
		CampaignCount: len(campaigns),
		Issues:        []string{},
		GeneratedAt:   now,
	}

	var openSum, clickSum float64
	var last time.Time
	for i := range campaigns {
		c := &campaigns[i]
		d.TotalSent += c.EmailsSent
		d.TotalBounces += c.Bounces
		d.TotalUnsubs += c.Unsubscribed
		openSum += c.OpenRate
		clickSum += c.ClickRate
		if sentAt := c.SentAt(); sentAt.After(last) {
			last = sentAt
		}
	}

	n := float64(len(campaigns))
	d.AvgOpenRate = openSum / n
	d.AvgClickRate = clickSum / n
	if d.TotalSent > 0 {
		d.DeliveryRate = float64(d.TotalSent-d.TotalBounces) / float64(d.TotalSent)
		d.BounceRate = float64(d.TotalBounces) / float64(d.TotalSent)
		d.UnsubRate = float64(d.TotalUnsubs) / float64(d.TotalSent)
	}

	d.LastCampaignAt = last
	d.DaysSinceLastCampaign = daysSince(now, last)
	d.SufficientData = RegionHasSufficientData(d.TotalSent, d.CampaignCount)

	d.TopCampaign = topPerformer(campaigns)
	d.NeedsReview, d.ReviewCandidates = needsReview(campaigns, th)
	d.Issues = fixedIssues(d.BounceRate, d.UnsubRate)

	return d
}

// topPerformer selects the campaign with the highest open rate, first
// occurrence winning ties. A winner below the campaign-level volume floor
// is suppressed rather than presented as a signal.
func topPerformer(campaigns []domain.Campaign) *domain.Campaign {
	var top *domain.Campaign
	for i := range campaigns {
		if top == nil || campaigns[i].OpenRate > top.OpenRate {
			top = &campaigns[i]
		}
	}
	if top != nil && !CampaignHasSufficientData(top.EmailsSent) {
		return nil
	}
	return top
}

// needsReview filters campaigns failing any review threshold and selects
// the one with the lowest composite score, first occurrence winning ties.
// The candidate count lets callers distinguish "nothing to review" from a
// suppressed selection.
func needsReview(campaigns []domain.Campaign, th Thresholds) (*domain.Campaign, int) {
	reviewOpen := fraction(th.ReviewOpenRate)
	reviewClick := fraction(th.ReviewClickRate)
	reviewDelivery := fraction(th.ReviewDeliveryRate)

	var worst *domain.Campaign
	var worstScore float64
	candidates := 0

	for i := range campaigns {
		c := &campaigns[i]
		delivery := c.DeliveryRate()
		if c.OpenRate >= reviewOpen && c.ClickRate >= reviewClick && delivery >= reviewDelivery {
			continue
		}
		candidates++
		score := compositeScore(c.OpenRate, c.ClickRate, delivery)
		if worst == nil || score < worstScore {
			worst = c
			worstScore = score
		}
	}
	return worst, candidates
}

// fixedIssues runs the hard-coded absolute health checks. These are
// intentionally independent of the configurable alert thresholds: the
// 5% bounce and 1% unsubscribe lines hold regardless of what the alerting
// thresholds are tuned to.
func fixedIssues(bounceRate, unsubRate float64) []string {
	issues := []string{}
	if bounceRate > 0.05 {
		issues = append(issues, fmt.Sprintf("High bounce rate: %.1f%%", bounceRate*100))
	}
	if unsubRate > 0.01 {
		issues = append(issues, fmt.Sprintf("High unsubscribe rate: %.2f%%", unsubRate*100))
	}
	return issues
}
