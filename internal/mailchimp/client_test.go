package mailchimp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/mailchimp-insights/internal/config"
)

func testConfig() config.MailchimpConfig {
	return config.MailchimpConfig{
		Regions: map[string]config.RegionCredentials{
			"US": {APIKey: "test-key", ServerPrefix: "us1"},
		},
		TimeoutSeconds: 5,
		MaxRetries:     1,
		ReportWorkers:  2,
	}
}

// newTestClient builds a client pointed at a local test server.
func newTestClient(serverURL string) *Client {
	cfg := testConfig()
	c := NewClient("US", cfg.Regions["US"], cfg)
	c.baseURL = serverURL
	c.adminURL = "https://us1.admin.mailchimp.com"
	return c
}

func campaignJSON(id string, webID int, sent int) apiCampaign {
	return apiCampaign{
		ID:         id,
		WebID:      int64(webID),
		SendTime:   "2025-06-01T10:00:00+00:00",
		EmailsSent: int64(sent),
		Settings:   apiCampaignSettings{Title: "Campaign " + id, SubjectLine: "Subject " + id},
		Recipients: apiRecipients{ListID: "list-1", ListName: "Main List"},
	}
}

func TestCampaignsPagination(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/campaigns", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "sent", r.URL.Query().Get("status"))
		require.Equal(t, "send_time", r.URL.Query().Get("sort_field"))
		require.Equal(t, "DESC", r.URL.Query().Get("sort_dir"))
		require.NotEmpty(t, r.URL.Query().Get("since_send_time"))

		atomic.AddInt32(&requests, 1)
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		resp := campaignListResponse{TotalItems: 1002}
		if offset == 0 {
			for i := 0; i < 1000; i++ {
				resp.Campaigns = append(resp.Campaigns, campaignJSON(fmt.Sprintf("c%d", i), i, 100))
			}
		} else {
			resp.Campaigns = []apiCampaign{
				campaignJSON("c1000", 1000, 100),
				campaignJSON("c1001", 1001, 100),
			}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	campaigns, err := c.Campaigns(context.Background(), 30, 2000)
	require.NoError(t, err)

	assert.Len(t, campaigns, 1002)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
	assert.Equal(t, "US", campaigns[0].Region)
	assert.Equal(t, "Campaign c0", campaigns[0].Title)
	assert.Contains(t, campaigns[0].ReportURL, "us1.admin.mailchimp.com/reports/summary?id=0")
}

func TestCampaignsRespectsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count, _ := strconv.Atoi(r.URL.Query().Get("count"))
		assert.Equal(t, 1, count)
		resp := campaignListResponse{
			Campaigns:  []apiCampaign{campaignJSON("c0", 0, 100)},
			TotalItems: 500,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	campaigns, err := c.Campaigns(context.Background(), 30, 1)
	require.NoError(t, err)
	assert.Len(t, campaigns, 1)
}

func TestCampaignReportMergesBounces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reports/c1", r.URL.Path)
		json.NewEncoder(w).Encode(reportResponse{
			Opens:        apiOpens{OpensTotal: 500, UniqueOpens: 400, OpenRate: 0.4},
			Clicks:       apiClicks{ClicksTotal: 50, UniqueClicks: 45, ClickRate: 0.045},
			Bounces:      apiBounces{HardBounces: 10, SoftBounces: 5},
			Unsubscribed: 3,
			ShareReport:  apiShareReport{ShareURL: "https://mailchi.mp/report/abc"},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	campaign := campaignJSON("c1", 1, 1000)
	record := c.toCampaign(context.Background(), campaign)

	require.NoError(t, c.CampaignReport(context.Background(), &record))

	assert.Equal(t, int64(500), record.Opens)
	assert.InDelta(t, 0.4, record.OpenRate, 1e-9)
	assert.Equal(t, int64(15), record.Bounces) // hard + soft
	assert.Equal(t, int64(3), record.Unsubscribed)
	assert.Equal(t, "https://mailchi.mp/report/abc", record.ShareReport)
}

func TestCampaignsWithReportsToleratesFailedReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/campaigns":
			json.NewEncoder(w).Encode(campaignListResponse{
				Campaigns:  []apiCampaign{campaignJSON("ok", 1, 100), campaignJSON("gone", 2, 100)},
				TotalItems: 2,
			})
		case r.URL.Path == "/reports/ok":
			json.NewEncoder(w).Encode(reportResponse{
				Opens: apiOpens{OpensTotal: 10, OpenRate: 0.1},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	campaigns, err := c.CampaignsWithReports(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, campaigns, 2)

	byID := map[string]int64{}
	for _, campaign := range campaigns {
		byID[campaign.ID] = campaign.Opens
	}
	assert.Equal(t, int64(10), byID["ok"])
	assert.Zero(t, byID["gone"]) // failed report leaves stats at zero
}

func TestSegmentNameResolutionAndCaching(t *testing.T) {
	var segmentCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/lists/list-1/segments/42", r.URL.Path)
		atomic.AddInt32(&segmentCalls, 1)
		json.NewEncoder(w).Encode(segmentResponse{Name: "VIP Subscribers"})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	raw := campaignJSON("c1", 1, 100)
	raw.Recipients.SegmentOpts.SavedSegmentID = 42

	first := c.toCampaign(context.Background(), raw)
	second := c.toCampaign(context.Background(), raw)

	assert.Equal(t, "VIP Subscribers", first.SegmentText)
	assert.Equal(t, "VIP Subscribers", second.SegmentText)
	assert.Equal(t, int32(1), atomic.LoadInt32(&segmentCalls))
}

func TestSegmentTextFallbackChain(t *testing.T) {
	c := newTestClient("http://unused")

	raw := campaignJSON("c1", 1, 100)
	raw.Recipients.SegmentText = "<span>Top level</span>"
	raw.Recipients.SegmentOpts.SegmentText = "Opts text"
	got := c.toCampaign(context.Background(), raw)
	assert.Equal(t, "<span>Top level</span>", got.SegmentText)

	raw.Recipients.SegmentText = ""
	got = c.toCampaign(context.Background(), raw)
	assert.Equal(t, "Opts text", got.SegmentText)

	raw.Recipients.SegmentOpts.SegmentText = ""
	raw.Recipients.SegmentOpts.Match = "all"
	got = c.toCampaign(context.Background(), raw)
	assert.Equal(t, "all", got.SegmentText)
}

func TestAudiences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/lists", r.URL.Path)
		json.NewEncoder(w).Encode(listsResponse{
			Lists: []apiList{
				{ID: "l1", Name: "Newsletter", Stats: apiListStats{MemberCount: 12000, OpenRate: 24.5}},
				{ID: "l2", Name: "Promo", Stats: apiListStats{MemberCount: 3000, UnsubscribeCount: 45}},
			},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	audiences, err := c.Audiences(context.Background())
	require.NoError(t, err)

	require.Len(t, audiences, 2)
	assert.Equal(t, "Newsletter", audiences[0].Name)
	assert.Equal(t, int64(12000), audiences[0].MemberCount)
	assert.Equal(t, int64(45), audiences[1].UnsubscribeCount)
}

func TestCheckCredentials(t *testing.T) {
	t.Run("valid with campaigns", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(campaignListResponse{
				Campaigns:  []apiCampaign{campaignJSON("c1", 1, 100)},
				TotalItems: 1,
			})
		}))
		defer server.Close()

		status := newTestClient(server.URL).CheckCredentials(context.Background())
		assert.Equal(t, "success", status.Status)
		assert.Equal(t, "Campaign c1", status.SampleCampaign)
	})

	t.Run("valid without campaigns", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(campaignListResponse{})
		}))
		defer server.Close()

		status := newTestClient(server.URL).CheckCredentials(context.Background())
		assert.Equal(t, "success", status.Status)
		assert.Contains(t, status.Message, "no campaigns")
	})

	t.Run("bad credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"title":"API Key Invalid"}`)
		}))
		defer server.Close()

		status := newTestClient(server.URL).CheckCredentials(context.Background())
		assert.Equal(t, "error", status.Status)
		assert.Equal(t, "US", status.Region)
	})
}
