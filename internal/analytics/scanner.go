package analytics

import (
	"sort"

	"github.com/ignite/mailchimp-insights/internal/domain"
)

// ScanTopCampaign finds the single best campaign across all regions by open
// rate in one linear pass. The first campaign encountered wins ties;
// regions are scanned in lexical code order so the result is deterministic.
// Returns nil when no campaigns exist.
//
// The scan itself is unconditional. Callers gate presentation with
// CampaignComparableAcrossRegions, since the winner stands next to
// region-level aggregates on the overview.
func ScanTopCampaign(data map[string][]domain.Campaign) *TopCampaign {
	codes := make([]string, 0, len(data))
	for code := range data {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var top *TopCampaign
	for _, code := range codes {
		campaigns := data[code]
		for i := range campaigns {
			if top == nil || campaigns[i].OpenRate > top.Campaign.OpenRate {
				top = &TopCampaign{Region: code, Campaign: campaigns[i]}
			}
		}
	}
	return top
}
