package mailchimp

import (
	"context"
	"fmt"

	"github.com/ignite/mailchimp-insights/internal/config"
	"github.com/ignite/mailchimp-insights/internal/domain"
	"github.com/ignite/mailchimp-insights/internal/pkg/logger"
)

// ErrRegionNotConfigured is returned when a request names a region without
// configured credentials.
var ErrRegionNotConfigured = fmt.Errorf("region not configured")

// Service manages Mailchimp clients across all configured regions.
type Service struct {
	clients map[string]*Client
	regions []string
}

// NewService builds one client per configured region.
func NewService(cfg config.MailchimpConfig) *Service {
	s := &Service{
		clients: make(map[string]*Client, len(cfg.Regions)),
		regions: cfg.RegionCodes(),
	}
	for region, creds := range cfg.Regions {
		s.clients[region] = NewClient(region, creds, cfg)
	}
	logger.Info("mailchimp service initialized", "regions", fmt.Sprintf("%v", s.regions))
	return s
}

// Regions returns the configured region codes in lexical order.
func (s *Service) Regions() []string { return s.regions }

// Client returns the client for a region.
func (s *Service) Client(region string) (*Client, error) {
	client, ok := s.clients[region]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRegionNotConfigured, region)
	}
	return client, nil
}

// RegionData fetches merged campaign records for one region.
func (s *Service) RegionData(ctx context.Context, region string, days int) ([]domain.Campaign, error) {
	client, err := s.Client(region)
	if err != nil {
		return nil, err
	}
	return client.CampaignsWithReports(ctx, days)
}

// DashboardData fetches merged campaign records for every region. A region
// whose fetch fails contributes an empty slice; partial data beats no
// dashboard.
func (s *Service) DashboardData(ctx context.Context, days int) map[string][]domain.Campaign {
	all := make(map[string][]domain.Campaign, len(s.regions))
	for _, region := range s.regions {
		campaigns, err := s.clients[region].CampaignsWithReports(ctx, days)
		if err != nil {
			logger.Error("region fetch failed", "region", region, "error", err)
			all[region] = nil
			continue
		}
		all[region] = campaigns
	}
	return all
}

// CheckAllCredentials probes every configured region.
func (s *Service) CheckAllCredentials(ctx context.Context) []CredentialStatus {
	results := make([]CredentialStatus, 0, len(s.regions))
	for _, region := range s.regions {
		results = append(results, s.clients[region].CheckCredentials(ctx))
	}
	return results
}
