package domain

import (
	"time"
)

// Campaign is one sent email campaign with its delivery and engagement
// stats merged from the Mailchimp campaign listing and report endpoints.
// Counts default to zero when the report fetch failed or a field was
// missing; consumers must tolerate inconsistent numbers without failing.
type Campaign struct {
	ID           string `json:"id"`
	WebID        int64  `json:"web_id,omitempty"`
	Region       string `json:"region,omitempty"`
	Title        string `json:"title"`
	SubjectLine  string `json:"subject_line,omitempty"`
	SendTime     string `json:"send_time"`
	EmailsSent   int64  `json:"emails_sent"`
	ArchiveURL   string `json:"archive_url,omitempty"`
	ReportURL    string `json:"report_url,omitempty"`
	AudienceID   string `json:"audience_id,omitempty"`
	AudienceName string `json:"audience_name,omitempty"`
	SegmentText  string `json:"segment_text,omitempty"`

	// Report stats
	Opens        int64   `json:"opens"`
	UniqueOpens  int64   `json:"unique_opens"`
	OpenRate     float64 `json:"open_rate"`
	Clicks       int64   `json:"clicks"`
	UniqueClicks int64   `json:"unique_clicks"`
	ClickRate    float64 `json:"click_rate"`
	Bounces      int64   `json:"bounces"`
	Unsubscribed int64   `json:"unsubscribed"`
	ShareReport  string  `json:"share_report,omitempty"`
}

// SentAt parses the campaign send time. Mailchimp returns RFC 3339
// timestamps; a missing or malformed value yields the zero time.
func (c *Campaign) SentAt() time.Time {
	if c.SendTime == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, c.SendTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DeliveryRate returns (sent - bounces) / sent for this campaign.
// A campaign with zero sends counts as fully delivered.
func (c *Campaign) DeliveryRate() float64 {
	if c.EmailsSent <= 0 {
		return 1
	}
	return float64(c.EmailsSent-c.Bounces) / float64(c.EmailsSent)
}

// Audience is a Mailchimp list with its aggregate stats.
type Audience struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	MemberCount      int64   `json:"member_count"`
	UnsubscribeCount int64   `json:"unsubscribe_count"`
	OpenRate         float64 `json:"open_rate"`
	ClickRate        float64 `json:"click_rate"`
}
