package analytics

import (
	"fmt"
	"sort"
)

// EvaluateAlerts checks every region stat against the current thresholds
// and returns the triggered alerts, all high severity first, preserving
// the incoming region order within each severity group.
//
// All comparisons are strict: a value exactly equal to its threshold does
// not trigger. Checks run in a fixed order per region (bounce, unsub,
// activity, engagement); when both engagement rates are low only the open
// rate is reported.
func EvaluateAlerts(stats []RegionStat, th Thresholds) []Alert {
	var high, medium []Alert

	for i := range stats {
		s := &stats[i]

		if s.BounceRate > fraction(th.BounceRate) {
			high = append(high, Alert{
				Region:   s.Region,
				Type:     AlertBounce,
				Value:    s.BounceRate,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("bounce rate %.1f%% exceeds %.1f%% threshold", s.BounceRate*100, th.BounceRate),
			})
		}
		if s.UnsubRate > fraction(th.UnsubRate) {
			high = append(high, Alert{
				Region:   s.Region,
				Type:     AlertUnsub,
				Value:    s.UnsubRate,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("unsubscribe rate %.2f%% exceeds %.2f%% threshold", s.UnsubRate*100, th.UnsubRate),
			})
		}
		if float64(s.RecentCampaigns) < th.LowActivityCampaigns {
			medium = append(medium, Alert{
				Region:   s.Region,
				Type:     AlertLowActivity,
				Value:    float64(s.RecentCampaigns),
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("only %d campaigns in the last 30 days (minimum %.0f)", s.RecentCampaigns, th.LowActivityCampaigns),
			})
		}
		if s.AvgOpenRate < fraction(th.LowOpenRate) {
			medium = append(medium, Alert{
				Region:   s.Region,
				Type:     AlertLowEngagement,
				Value:    s.AvgOpenRate,
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("average open rate %.1f%% below %.1f%% threshold", s.AvgOpenRate*100, th.LowOpenRate),
			})
		} else if s.AvgClickRate < fraction(th.LowClickRate) {
			medium = append(medium, Alert{
				Region:   s.Region,
				Type:     AlertLowEngagement,
				Value:    s.AvgClickRate,
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("average click rate %.2f%% below %.2f%% threshold", s.AvgClickRate*100, th.LowClickRate),
			})
		}
	}

	alerts := make([]Alert, 0, len(high)+len(medium))
	alerts = append(alerts, high...)
	alerts = append(alerts, medium...)
	return alerts
}

// inactiveRegions lists regions whose last campaign is more than 30 days
// old, sorted by staleness, most stale first.
func inactiveRegions(stats []RegionStat) []InactiveRegion {
	var out []InactiveRegion
	for i := range stats {
		if stats[i].DaysSinceLastCampaign > 30 {
			out = append(out, InactiveRegion{
				Region:                stats[i].Region,
				DaysSinceLastCampaign: stats[i].DaysSinceLastCampaign,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysSinceLastCampaign > out[j].DaysSinceLastCampaign
	})
	return out
}
