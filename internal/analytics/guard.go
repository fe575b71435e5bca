package analytics

// Volume floors below which an aggregate is not presented as a reliable
// signal. Region aggregates qualify on either total volume or campaign
// count; single campaigns qualify on sends alone.
const (
	// MinRegionSends is the send volume that qualifies a region-level
	// aggregate, and also any campaign compared against region-level
	// rivals (the cross-region top campaign on the overview).
	MinRegionSends = 100

	// MinRegionCampaigns qualifies a low-volume region that has still run
	// enough campaigns to average over.
	MinRegionCampaigns = 3

	// MinCampaignSends qualifies a single campaign for comparisons inside
	// a region-detail view.
	MinCampaignSends = 50
)

// RegionHasSufficientData reports whether a region-level aggregate carries
// enough volume to present.
func RegionHasSufficientData(totalSent int64, campaignCount int) bool {
	return totalSent >= MinRegionSends || campaignCount >= MinRegionCampaigns
}

// CampaignHasSufficientData reports whether a single campaign carries
// enough volume for campaign-level comparisons in a region-detail view.
func CampaignHasSufficientData(emailsSent int64) bool {
	return emailsSent >= MinCampaignSends
}

// CampaignComparableAcrossRegions reports whether a campaign carries enough
// volume to be compared against region-level rivals. The higher region
// floor applies because the overview's top campaign stands next to region
// aggregates.
func CampaignComparableAcrossRegions(emailsSent int64) bool {
	return emailsSent >= MinRegionSends
}
