package mailchimp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/ignite/mailchimp-insights/internal/config"
	"github.com/ignite/mailchimp-insights/internal/domain"
	"github.com/ignite/mailchimp-insights/internal/pkg/httpretry"
	"github.com/ignite/mailchimp-insights/internal/pkg/logger"
)

// batchSize is the Mailchimp API maximum page size for campaign listings.
const batchSize = 1000

// Client is a Mailchimp Marketing API client bound to one regional account.
type Client struct {
	region        string
	baseURL       string
	adminURL      string
	apiKey        string
	httpClient    httpretry.HTTPDoer
	reportWorkers int

	mu           sync.Mutex
	segmentNames map[string]string
}

// NewClient creates a Mailchimp client for one region. The server prefix
// selects the account's API datacenter (e.g. "us1").
func NewClient(region string, creds config.RegionCredentials, cfg config.MailchimpConfig) *Client {
	return &Client{
		region:        region,
		baseURL:       fmt.Sprintf("https://%s.api.mailchimp.com/3.0", creds.ServerPrefix),
		adminURL:      fmt.Sprintf("https://%s.admin.mailchimp.com", creds.ServerPrefix),
		apiKey:        creds.APIKey,
		reportWorkers: cfg.ReportWorkers,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, cfg.MaxRetries),
		segmentNames: make(map[string]string),
	}
}

// Region returns the region code this client serves.
func (c *Client) Region() string { return c.region }

// get makes an authenticated GET request to the Mailchimp API.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Campaigns fetches sent campaigns from the last N days, newest first,
// paginating until the account total or the limit is reached. Report stats
// are not populated; use CampaignsWithReports for merged records.
func (c *Client) Campaigns(ctx context.Context, days, limit int) ([]domain.Campaign, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	var all []domain.Campaign
	offset := 0

	for {
		count := batchSize
		if remaining := limit - len(all); remaining < count {
			count = remaining
		}
		if count <= 0 {
			break
		}

		params := url.Values{}
		params.Set("status", "sent")
		params.Set("since_send_time", since)
		params.Set("count", strconv.Itoa(count))
		params.Set("offset", strconv.Itoa(offset))
		params.Set("sort_field", "send_time")
		params.Set("sort_dir", "DESC")

		body, err := c.get(ctx, "/campaigns", params)
		if err != nil {
			return nil, fmt.Errorf("fetching campaigns: %w", err)
		}

		var page campaignListResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parsing campaigns: %w", err)
		}
		if len(page.Campaigns) == 0 {
			break
		}

		for _, raw := range page.Campaigns {
			all = append(all, c.toCampaign(ctx, raw))
		}

		logger.Debug("fetched campaign page",
			"region", c.region, "offset", offset, "count", len(page.Campaigns), "total", page.TotalItems)

		if len(all) >= page.TotalItems || len(all) >= limit {
			break
		}
		offset += batchSize
	}

	return all, nil
}

// toCampaign maps a listing entry onto the dashboard campaign record,
// resolving the audience segment label when only an id is present.
func (c *Client) toCampaign(ctx context.Context, raw apiCampaign) domain.Campaign {
	segmentText := raw.Recipients.SegmentText
	if segmentText == "" {
		segmentText = raw.Recipients.SegmentOpts.SegmentText
	}
	if segmentText == "" {
		segmentText = raw.Recipients.SegmentOpts.Match
	}
	if segmentText == "" && raw.Recipients.SegmentOpts.SavedSegmentID != 0 {
		segmentText = c.segmentName(ctx, raw.Recipients.ListID, raw.Recipients.SegmentOpts.SavedSegmentID)
	}

	return domain.Campaign{
		ID:           raw.ID,
		WebID:        raw.WebID,
		Region:       c.region,
		Title:        raw.Settings.Title,
		SubjectLine:  raw.Settings.SubjectLine,
		SendTime:     raw.SendTime,
		EmailsSent:   raw.EmailsSent,
		ArchiveURL:   raw.ArchiveURL,
		ReportURL:    fmt.Sprintf("%s/reports/summary?id=%d", c.adminURL, raw.WebID),
		AudienceID:   raw.Recipients.ListID,
		AudienceName: raw.Recipients.ListName,
		SegmentText:  segmentText,
	}
}

// segmentName resolves a saved segment id to its display name, caching the
// result for the lifetime of the client to avoid redundant API calls.
func (c *Client) segmentName(ctx context.Context, listID string, segmentID int64) string {
	cacheKey := fmt.Sprintf("%s:%d", listID, segmentID)

	c.mu.Lock()
	if name, ok := c.segmentNames[cacheKey]; ok {
		c.mu.Unlock()
		return name
	}
	c.mu.Unlock()

	name := fmt.Sprintf("Segment #%d", segmentID)
	body, err := c.get(ctx, fmt.Sprintf("/lists/%s/segments/%d", listID, segmentID), nil)
	if err == nil {
		var seg segmentResponse
		if json.Unmarshal(body, &seg) == nil && seg.Name != "" {
			name = seg.Name
		}
	}

	c.mu.Lock()
	c.segmentNames[cacheKey] = name
	c.mu.Unlock()
	return name
}

// CampaignReport fetches report stats for one campaign and applies them to
// the given record.
func (c *Client) CampaignReport(ctx context.Context, campaign *domain.Campaign) error {
	body, err := c.get(ctx, "/reports/"+campaign.ID, nil)
	if err != nil {
		return fmt.Errorf("fetching report for %s: %w", campaign.ID, err)
	}

	var report reportResponse
	if err := json.Unmarshal(body, &report); err != nil {
		return fmt.Errorf("parsing report for %s: %w", campaign.ID, err)
	}

	campaign.Opens = report.Opens.OpensTotal
	campaign.UniqueOpens = report.Opens.UniqueOpens
	campaign.OpenRate = report.Opens.OpenRate
	campaign.Clicks = report.Clicks.ClicksTotal
	campaign.UniqueClicks = report.Clicks.UniqueClicks
	campaign.ClickRate = report.Clicks.ClickRate
	campaign.Bounces = report.Bounces.HardBounces + report.Bounces.SoftBounces
	campaign.Unsubscribed = report.Unsubscribed
	campaign.ShareReport = report.ShareReport.ShareURL

	return nil
}

// CampaignsWithReports fetches campaigns and merges in their report stats
// using a bounded worker pool. A failed report leaves that campaign's stats
// at zero rather than failing the whole fetch.
func (c *Client) CampaignsWithReports(ctx context.Context, days int) ([]domain.Campaign, error) {
	campaigns, err := c.Campaigns(ctx, days, batchSize)
	if err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return campaigns, nil
	}

	workers := c.reportWorkers
	if workers <= 0 {
		workers = 5
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var failed int64
	var failedMu sync.Mutex

	for i := range campaigns {
		wg.Add(1)
		sem <- struct{}{}
		go func(campaign *domain.Campaign) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := c.CampaignReport(ctx, campaign); err != nil {
				failedMu.Lock()
				failed++
				failedMu.Unlock()
				logger.Warn("report fetch failed", "region", c.region, "campaign", campaign.ID, "error", err)
			}
		}(&campaigns[i])
	}
	wg.Wait()

	if failed > 0 {
		logger.Warn("some reports could not be fetched", "region", c.region, "failed", failed, "total", len(campaigns))
	}
	return campaigns, nil
}

// Audiences fetches all audience lists for this account.
func (c *Client) Audiences(ctx context.Context) ([]domain.Audience, error) {
	params := url.Values{}
	params.Set("count", "100")

	body, err := c.get(ctx, "/lists", params)
	if err != nil {
		return nil, fmt.Errorf("fetching lists: %w", err)
	}

	var resp listsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing lists: %w", err)
	}

	audiences := make([]domain.Audience, 0, len(resp.Lists))
	for _, lst := range resp.Lists {
		audiences = append(audiences, domain.Audience{
			ID:               lst.ID,
			Name:             lst.Name,
			MemberCount:      lst.Stats.MemberCount,
			UnsubscribeCount: lst.Stats.UnsubscribeCount,
			OpenRate:         lst.Stats.OpenRate,
			ClickRate:        lst.Stats.ClickRate,
		})
	}
	return audiences, nil
}

// CheckCredentials probes the account with a one-campaign fetch and reports
// whether the configured credentials work.
func (c *Client) CheckCredentials(ctx context.Context) CredentialStatus {
	campaigns, err := c.Campaigns(ctx, 30, 1)
	if err != nil {
		return CredentialStatus{
			Region:  c.region,
			Status:  "error",
			Message: fmt.Sprintf("API call failed - check credentials and server prefix: %v", err),
		}
	}
	if len(campaigns) == 0 {
		return CredentialStatus{
			Region:  c.region,
			Status:  "success",
			Message: "API credentials valid, but no campaigns found in the last 30 days",
		}
	}
	return CredentialStatus{
		Region:         c.region,
		Status:         "success",
		Message:        fmt.Sprintf("API credentials valid! Found %d campaign(s)", len(campaigns)),
		SampleCampaign: campaigns[0].Title,
	}
}
