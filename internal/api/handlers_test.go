package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/mailchimp-insights/internal/analytics"
	"github.com/ignite/mailchimp-insights/internal/config"
	"github.com/ignite/mailchimp-insights/internal/domain"
	"github.com/ignite/mailchimp-insights/internal/mailchimp"
	"github.com/ignite/mailchimp-insights/internal/storage"
)

// testServer builds a full router over sqlmock-backed storage, one
// configured region, and no Redis response cache.
func testServer(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.MailchimpConfig{
		Regions: map[string]config.RegionCredentials{
			"US": {APIKey: "key", ServerPrefix: "us1"},
		},
		TimeoutSeconds: 5,
		MaxRetries:     1,
		ReportWorkers:  2,
	}

	svc := mailchimp.NewService(cfg)
	store := storage.New(db)
	collector := mailchimp.NewCollector(svc, store, config.PollingConfig{IntervalSeconds: 900, LookbackDays: 30})
	engine := analytics.NewEngine()
	thresholds := analytics.NewThresholdStore(analytics.DefaultThresholds(), nil)

	h := NewHandlers(svc, store, nil, collector, engine, thresholds, 30)
	return SetupRoutes(h), mock
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func campaignRow(t *testing.T, c domain.Campaign) []byte {
	t.Helper()
	data, err := json.Marshal(c)
	require.NoError(t, err)
	return data
}

func TestHealthCheck(t *testing.T) {
	handler, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, []interface{}{"US"}, body["regions"])
}

func TestGetRegions(t *testing.T) {
	handler, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/regions", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"regions":["US"]}`, rec.Body.String())
}

func TestGetDashboardFromCache(t *testing.T) {
	handler, mock := testServer(t)

	row := campaignRow(t, domain.Campaign{ID: "c1", Title: "Hello", EmailsSent: 500})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM campaigns")).
		WithArgs("US", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(row))

	rec := doRequest(t, handler, http.MethodGet, "/api/dashboard?days=14", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TotalCampaigns int      `json:"total_campaigns"`
		Source         string   `json:"source"`
		Days           int      `json:"days"`
		Regions        []string `json:"regions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.TotalCampaigns)
	assert.Equal(t, "cache", body.Source)
	assert.Equal(t, 14, body.Days)
	assert.Equal(t, []string{"US"}, body.Regions)
}

func TestGetDashboardUnknownRegion(t *testing.T) {
	handler, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/dashboard?region=MARS", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOverview(t *testing.T) {
	handler, mock := testServer(t)

	row := campaignRow(t, domain.Campaign{
		ID:         "c1",
		SendTime:   "2025-06-01T10:00:00+00:00",
		EmailsSent: 1000,
		Bounces:    20,
		OpenRate:   0.30,
		ClickRate:  0.03,
	})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM campaigns")).
		WithArgs("US", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(row))

	rec := doRequest(t, handler, http.MethodGet, "/api/metrics/overview", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var ov analytics.Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ov))
	require.Len(t, ov.Regions, 1)
	assert.Equal(t, "US", ov.Regions[0].Region)
	assert.True(t, ov.Regions[0].SufficientData)
	require.NotNil(t, ov.BestRegion)
	assert.Nil(t, ov.WorstRegion)
}

func TestGetRegionDetail(t *testing.T) {
	handler, mock := testServer(t)

	row := campaignRow(t, domain.Campaign{
		ID:         "c1",
		SendTime:   "2025-06-01T10:00:00+00:00",
		EmailsSent: 1000,
		Bounces:    20,
		OpenRate:   0.30,
		ClickRate:  0.03,
	})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM campaigns")).
		WithArgs("US", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(row))

	rec := doRequest(t, handler, http.MethodGet, "/api/metrics/region/US", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var detail analytics.RegionDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "US", detail.Region)
	assert.Equal(t, 1, detail.CampaignCount)
	assert.Equal(t, int64(1000), detail.TotalSent)
}

func TestGetRegionDetailNoData(t *testing.T) {
	handler, mock := testServer(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM campaigns")).
		WithArgs("US", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	rec := doRequest(t, handler, http.MethodGet, "/api/metrics/region/US", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRegionDetailUnknownRegion(t *testing.T) {
	handler, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/metrics/region/MARS", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestThresholdsLifecycle(t *testing.T) {
	handler, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/thresholds", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Thresholds map[string]float64 `json:"thresholds"`
		Version    uint64             `json:"version"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(5), body.Thresholds["bounceRate"])
	assert.Zero(t, body.Version)

	rec = doRequest(t, handler, http.MethodPut, "/api/thresholds/bounceRate", `{"value": 7.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 7.5, body.Thresholds["bounceRate"])
	assert.Equal(t, uint64(1), body.Version)

	rec = doRequest(t, handler, http.MethodPost, "/api/thresholds/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(5), body.Thresholds["bounceRate"])
	assert.Equal(t, uint64(2), body.Version)
}

func TestSetThresholdValidation(t *testing.T) {
	handler, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodPut, "/api/thresholds/nonsense", `{"value": 5}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, handler, http.MethodPut, "/api/thresholds/bounceRate", `{"value": -1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodPut, "/api/thresholds/bounceRate", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, handler, http.MethodPut, "/api/thresholds/bounceRate", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearCacheUnknownRegion(t *testing.T) {
	handler, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/api/cache/clear?region=MARS", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearCache(t *testing.T) {
	handler, mock := testServer(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM campaigns WHERE region = $1")).
		WithArgs("US").
		WillReturnResult(sqlmock.NewResult(0, 9))

	rec := doRequest(t, handler, http.MethodPost, "/api/cache/clear?region=US", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status  string `json:"status"`
		Deleted int64  `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cleared", body.Status)
	assert.Equal(t, int64(9), body.Deleted)
}

func TestCacheStatsEndpoint(t *testing.T) {
	handler, mock := testServer(t)

	mock.ExpectQuery("SELECT region, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"region", "count", "max"}))

	rec := doRequest(t, handler, http.MethodGet, "/api/cache/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTriggerSyncUnknownRegion(t *testing.T) {
	handler, _ := testServer(t)

	rec := doRequest(t, handler, http.MethodPost, "/api/sync?region=MARS", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
