package mailchimp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/mailchimp-insights/internal/config"
	"github.com/ignite/mailchimp-insights/internal/domain"
)

// recordingStore captures upserted campaigns per region.
type recordingStore struct {
	mu       sync.Mutex
	upserted map[string][]domain.Campaign
}

func newRecordingStore() *recordingStore {
	return &recordingStore{upserted: make(map[string][]domain.Campaign)}
}

func (s *recordingStore) UpsertCampaigns(ctx context.Context, region string, campaigns []domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted[region] = campaigns
	return nil
}

func mailchimpStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/campaigns":
			json.NewEncoder(w).Encode(campaignListResponse{
				Campaigns:  []apiCampaign{campaignJSON("c1", 1, 500)},
				TotalItems: 1,
			})
		default:
			json.NewEncoder(w).Encode(reportResponse{
				Opens: apiOpens{OpensTotal: 100, OpenRate: 0.2},
			})
		}
	}))
}

func TestSyncAllBumpsDataVersion(t *testing.T) {
	server := mailchimpStub(t)
	defer server.Close()

	cfg := multiRegionConfig()
	svc := NewService(cfg)
	for _, client := range svc.clients {
		client.baseURL = server.URL
	}

	store := newRecordingStore()
	collector := NewCollector(svc, store, config.PollingConfig{IntervalSeconds: 900, LookbackDays: 30})

	require.Zero(t, collector.DataVersion())
	require.True(t, collector.LastSyncTime().IsZero())

	synced := collector.SyncAll(context.Background())

	assert.Equal(t, 3, synced)
	assert.Equal(t, uint64(1), collector.DataVersion())
	assert.False(t, collector.LastSyncTime().IsZero())

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.upserted, 3)
	assert.Equal(t, int64(100), store.upserted["US"][0].Opens)
}

func TestSyncAllNoVersionBumpWhenEverythingFails(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer broken.Close()

	svc := NewService(multiRegionConfig())
	for _, client := range svc.clients {
		client.baseURL = broken.URL
	}

	collector := NewCollector(svc, newRecordingStore(), config.PollingConfig{IntervalSeconds: 900, LookbackDays: 30})

	synced := collector.SyncAll(context.Background())

	assert.Zero(t, synced)
	assert.Zero(t, collector.DataVersion())
	assert.True(t, collector.LastSyncTime().IsZero())
}

func TestSyncRegionUnknown(t *testing.T) {
	svc := NewService(multiRegionConfig())
	collector := NewCollector(svc, newRecordingStore(), config.PollingConfig{IntervalSeconds: 900, LookbackDays: 30})

	err := collector.SyncRegion(context.Background(), "MARS")
	assert.ErrorIs(t, err, ErrRegionNotConfigured)
}

func TestBumpDataVersion(t *testing.T) {
	svc := NewService(multiRegionConfig())
	collector := NewCollector(svc, newRecordingStore(), config.PollingConfig{})

	collector.BumpDataVersion()
	collector.BumpDataVersion()
	assert.Equal(t, uint64(2), collector.DataVersion())
}
