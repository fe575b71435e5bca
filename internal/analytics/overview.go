package analytics

import (
	"sort"
	"time"

	"github.com/ignite/mailchimp-insights/internal/domain"
)

// BuildOverview reduces a region→campaigns mapping into the overview-mode
// metrics result: one RegionStat per non-empty region ranked by composite
// score, best/worst region selection, cross-region totals, the top campaign,
// and the alert and inactivity lists.
//
// Regions with an empty or absent campaign slice are skipped entirely; they
// are never ranked as zero-score entries. Regions are aggregated in lexical
// code order and the score sort is stable, so equal scores rank lexically.
func BuildOverview(data map[string][]domain.Campaign, th Thresholds, now time.Time) *Overview {
	codes := make([]string, 0, len(data))
	for code := range data {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	ov := &Overview{
		Regions:     make([]RegionStat, 0, len(codes)),
		Alerts:      []Alert{},
		GeneratedAt: now,
	}

	var openSum, clickSum float64
	for _, code := range codes {
		campaigns := data[code]
		if len(campaigns) == 0 {
			continue
		}
		ov.Regions = append(ov.Regions, aggregateRegion(code, campaigns, now))

		ov.TotalCampaigns += len(campaigns)
		for i := range campaigns {
			ov.TotalSent += campaigns[i].EmailsSent
			openSum += campaigns[i].OpenRate
			clickSum += campaigns[i].ClickRate
		}
	}

	if ov.TotalCampaigns > 0 {
		ov.AvgOpenRate = openSum / float64(ov.TotalCampaigns)
		ov.AvgClickRate = clickSum / float64(ov.TotalCampaigns)
	}

	sort.SliceStable(ov.Regions, func(i, j int) bool {
		return ov.Regions[i].Score > ov.Regions[j].Score
	})

	ov.BestRegion, ov.WorstRegion = pickBestWorst(ov.Regions)

	if tc := ScanTopCampaign(data); tc != nil && CampaignComparableAcrossRegions(tc.Campaign.EmailsSent) {
		ov.TopCampaign = tc
	}

	ov.Alerts = EvaluateAlerts(ov.Regions, th)
	ov.InactiveRegions = inactiveRegions(ov.Regions)

	return ov
}

// pickBestWorst selects the highest-scored stat passing the data guard and,
// when more than one region has data, the lowest-scored stat passing it.
// With exactly one qualifying region the best and worst may coincide only
// when at least two regions have data; a single region reports no worst.
func pickBestWorst(ranked []RegionStat) (best, worst *RegionStat) {
	for i := range ranked {
		if ranked[i].SufficientData {
			best = &ranked[i]
			break
		}
	}
	if len(ranked) > 1 {
		for i := len(ranked) - 1; i >= 0; i-- {
			if ranked[i].SufficientData {
				worst = &ranked[i]
				break
			}
		}
	}
	return best, worst
}

// aggregateRegion reduces one region's campaigns into a RegionStat.
// Callers guarantee campaigns is non-empty.
func aggregateRegion(code string, campaigns []domain.Campaign, now time.Time) RegionStat {
	stat := RegionStat{
		Region:        code,
		CampaignCount: len(campaigns),
	}

	cutoff := now.Add(-recencyWindow)
	var openSum, clickSum float64
	var best *domain.Campaign
	var last time.Time

	for i := range campaigns {
		c := &campaigns[i]
		stat.TotalSent += c.EmailsSent
		stat.TotalBounces += c.Bounces
		stat.TotalUnsubs += c.Unsubscribed
		openSum += c.OpenRate
		clickSum += c.ClickRate

		sentAt := c.SentAt()
		if !sentAt.Before(cutoff) && !sentAt.IsZero() {
			stat.RecentCampaigns++
		}
		if sentAt.After(last) {
			last = sentAt
		}
		if best == nil || c.OpenRate > best.OpenRate {
			best = c
		}
	}

	n := float64(len(campaigns))
	stat.AvgOpenRate = openSum / n
	stat.AvgClickRate = clickSum / n

	if stat.TotalSent > 0 {
		stat.DeliveryRate = float64(stat.TotalSent-stat.TotalBounces) / float64(stat.TotalSent)
		stat.BounceRate = float64(stat.TotalBounces) / float64(stat.TotalSent)
		stat.UnsubRate = float64(stat.TotalUnsubs) / float64(stat.TotalSent)
	}

	stat.Score = compositeScore(stat.AvgOpenRate, stat.AvgClickRate, stat.DeliveryRate)
	stat.BestCampaign = best
	stat.LastCampaignAt = last
	stat.DaysSinceLastCampaign = daysSince(now, last)
	stat.SufficientData = RegionHasSufficientData(stat.TotalSent, stat.CampaignCount)

	return stat
}
