package mailchimp

// Wire types for the Mailchimp Marketing API v3.0. Only the fields the
// dashboard consumes are mapped; everything else is ignored on decode.

type campaignListResponse struct {
	Campaigns  []apiCampaign `json:"campaigns"`
	TotalItems int           `json:"total_items"`
}

type apiCampaign struct {
	ID         string              `json:"id"`
	WebID      int64               `json:"web_id"`
	SendTime   string              `json:"send_time"`
	EmailsSent int64               `json:"emails_sent"`
	ArchiveURL string              `json:"archive_url"`
	Settings   apiCampaignSettings `json:"settings"`
	Recipients apiRecipients       `json:"recipients"`
}

type apiCampaignSettings struct {
	Title       string `json:"title"`
	SubjectLine string `json:"subject_line"`
}

type apiRecipients struct {
	ListID         string         `json:"list_id"`
	ListName       string         `json:"list_name"`
	RecipientCount int64          `json:"recipient_count"`
	SegmentText    string         `json:"segment_text"`
	SegmentOpts    apiSegmentOpts `json:"segment_opts"`
}

type apiSegmentOpts struct {
	SavedSegmentID    int64  `json:"saved_segment_id"`
	PrebuiltSegmentID string `json:"prebuilt_segment_id"`
	SegmentText       string `json:"segment_text"`
	Match             string `json:"match"`
}

type reportResponse struct {
	Opens        apiOpens       `json:"opens"`
	Clicks       apiClicks      `json:"clicks"`
	Bounces      apiBounces     `json:"bounces"`
	Unsubscribed int64          `json:"unsubscribed"`
	ShareReport  apiShareReport `json:"share_report"`
}

type apiOpens struct {
	OpensTotal  int64   `json:"opens_total"`
	UniqueOpens int64   `json:"unique_opens"`
	OpenRate    float64 `json:"open_rate"`
}

type apiClicks struct {
	ClicksTotal  int64   `json:"clicks_total"`
	UniqueClicks int64   `json:"unique_clicks"`
	ClickRate    float64 `json:"click_rate"`
}

type apiBounces struct {
	HardBounces int64 `json:"hard_bounces"`
	SoftBounces int64 `json:"soft_bounces"`
}

type apiShareReport struct {
	ShareURL string `json:"share_url"`
}

type listsResponse struct {
	Lists []apiList `json:"lists"`
}

type apiList struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Stats apiListStats `json:"stats"`
}

type apiListStats struct {
	MemberCount      int64   `json:"member_count"`
	UnsubscribeCount int64   `json:"unsubscribe_count"`
	OpenRate         float64 `json:"open_rate"`
	ClickRate        float64 `json:"click_rate"`
}

type segmentResponse struct {
	Name string `json:"name"`
}

// CredentialStatus is the result of probing one region's API credentials.
type CredentialStatus struct {
	Region         string `json:"region"`
	Status         string `json:"status"` // "success" or "error"
	Message        string `json:"message"`
	SampleCampaign string `json:"sample_campaign,omitempty"`
}
