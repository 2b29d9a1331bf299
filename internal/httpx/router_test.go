package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/recho/internal/attribution"
	"github.com/AngelCh415/recho/internal/cache"
	"github.com/AngelCh415/recho/internal/clients"
	"github.com/AngelCh415/recho/internal/export"
	"github.com/AngelCh415/recho/internal/ingest"
	"github.com/AngelCh415/recho/internal/models"
	"github.com/AngelCh415/recho/internal/report"
	"github.com/AngelCh415/recho/internal/store"
	"github.com/AngelCh415/recho/internal/telemetry"
)

var fixedNow = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	h   http.Handler
	st  *store.MemoryStore
	reg *prometheus.Registry
}

func newFixture(t *testing.T, sinkURL string) fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	tel := telemetry.New(reg)
	cl := clients.Default()
	st := store.NewMemoryStore()
	p := ingest.NewProvider(st, cl, log, tel)
	svc := report.NewService(p, cl, attribution.New(0), log).WithMetrics(tel)
	h := NewRouter(Deps{
		Log:       log,
		Reports:   svc,
		Clients:   cl,
		Datastore: st,
		Exporter:  export.New(http.DefaultClient, sinkURL, "s3cret"),
		Gatherer:  reg,
		Now:       func() time.Time { return fixedNow },
	})
	return fixture{h: h, st: st, reg: reg}
}

func (f fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = f.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", rec.Body.String())
}

type downStore struct{ *store.MemoryStore }

func (downStore) Ping(context.Context) (int, error) { return 0, errors.New("connection refused") }

func TestReadyzChecksDependencies(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	get := func(h http.Handler) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		return rec
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	h := NewRouter(Deps{Log: log, Datastore: store.NewMemoryStore(), Cache: cache.New(rdb, time.Minute)})
	assert.Equal(t, http.StatusOK, get(h).Code)

	mr.Close()
	rec := get(h)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "cache unavailable")

	rec = get(NewRouter(Deps{Log: log, Datastore: downStore{store.NewMemoryStore()}}))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "datastore unavailable")
}

func TestClients(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(http.MethodGet, "/clients", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Client
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "acme-corp", list[0].ID)

	rec = f.do(http.MethodGet, "/clients/globex-inc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Globex Inc")

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/clients/initech", "").Code)
}

func TestOverviewEndpoint(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(http.MethodGet, "/clients/acme-corp/overview?range=7d", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rep models.OverviewReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Len(t, rep.TimeSeries, 7)
	assert.Equal(t, "2026-02-04", rep.TimeSeries[0].Date)
	assert.Equal(t, 13150.0, rep.Enhanced.InferredRedditTraffic)
}

func TestReportTabs(t *testing.T) {
	f := newFixture(t, "")
	for _, tab := range []string{"attribution", "brand", "paid", "organic", "subreddit", "accounts", "seo-geo"} {
		rec := f.do(http.MethodGet, "/clients/globex-inc/"+tab+"?range=custom&from=2026-01-01&to=2026-01-31", "")
		assert.Equal(t, http.StatusOK, rec.Code, tab)
	}
}

func TestReportErrors(t *testing.T) {
	f := newFixture(t, "")
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/clients/acme-corp/overview?range=14d", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/clients/acme-corp/brand?range=custom&from=2026-02-01", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/clients/initech/paid", "").Code)
}

func TestSnapshotFeedsOverview(t *testing.T) {
	f := newFixture(t, "")
	rec := f.do(http.MethodPost, "/clients/acme-corp/snapshots",
		`{"date":"2026-02-09","total_traffic":99999,"total_conversions":999,"revenue":999999,"blended_roas":9.9,"karma_growth":9999}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	snap, err := f.st.LatestOverview(context.Background(), "acme-corp")
	require.NoError(t, err)
	assert.Equal(t, 99999.0, snap.TotalTraffic)

	rec = f.do(http.MethodGet, "/clients/acme-corp/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rep models.OverviewReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 99999.0, rep.KPIs.TotalTraffic)
	assert.Equal(t, models.KPIChange{Value: 0, IsPositive: true}, rep.Changes["total_traffic"])

	// a snapshot in the preceding 30 days becomes the previous period
	rec = f.do(http.MethodPost, "/clients/acme-corp/snapshots", `{"date":"2026-01-05","total_traffic":80000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = f.do(http.MethodGet, "/clients/acme-corp/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rep = models.OverviewReport{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 80000.0, rep.KPIs.PreviousPeriod.TotalTraffic)
	assert.Equal(t, models.KPIChange{Value: 25, IsPositive: true}, rep.Changes["total_traffic"])

	rec = f.do(http.MethodGet, "/datastore/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"rows":2}`, rec.Body.String())
}

func TestSnapshotValidation(t *testing.T) {
	f := newFixture(t, "")
	cases := []string{
		`{"total_traffic":10}`,
		`{"date":"09/02/2026"}`,
		`{"date":"2026-02-09","revenue":-1}`,
		`{"date":"2026-02-09","extra":true}`,
		`not json`,
	}
	for _, body := range cases {
		rec := f.do(http.MethodPost, "/clients/acme-corp/snapshots", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/clients/initech/snapshots", `{"date":"2026-02-09"}`).Code)
}

func TestEngineEndpoints(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodPost, "/attribution/lift", `{"baseline":[100,100],"spike":[150,150]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var lift models.AttributionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lift))
	assert.Equal(t, models.AttributionResult{Baseline: 100, Spike: 150, LiftPercent: 50, InferredInfluence: 13, InferredInfluencePercent: 12.5}, lift)

	rec = f.do(http.MethodPost, "/attribution/enhanced",
		`{"baseline":[100],"spike":[150],"channels":[{"channel":"Reddit","sessions":100,"conversions":10,"revenue":500},{"channel":"Unassigned","sessions":200,"conversions":2,"revenue":100}],"direct_reddit_traffic":1000,"total_revenue":1000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var enh models.EnhancedAttributionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enh))
	assert.Equal(t, 50.0, enh.InferredRedditTraffic)
	assert.Equal(t, 50.0, enh.RevenueInfluencePercent)
	require.Len(t, enh.ChannelCorrelations, 2)
	assert.True(t, enh.ChannelCorrelations[1].SpikeDetected)

	rec = f.do(http.MethodPost, "/attribution/enhanced", `{"channels":[{"channel":"","sessions":1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/attribution/spikes", `{"values":[10,10,10,10,10,10,100]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"indices":[6]}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/attribution/spikes", `{"values":[1,2,3]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"indices":[]}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/attribution/spikes", `{"values":[1],"threshold":-1}`).Code)
}

func TestEngineEndpointsRejectOutOfRangeValues(t *testing.T) {
	f := newFixture(t, "")
	cases := []struct {
		path, body, msg string
	}{
		{"/attribution/lift", `{"baseline":[1e308,1e308],"spike":[1]}`, "must be <= 1e15"},
		{"/attribution/lift", `{"baseline":[1],"spike":[-1e200]}`, "must be >= -1e15"},
		{"/attribution/enhanced", `{"spike":[1e16]}`, "must be <= 1e15"},
		{"/attribution/enhanced", `{"channels":[{"channel":"Reddit","revenue":1e300}]}`, "must be <= 1e15"},
		{"/attribution/enhanced", `{"total_revenue":1e300}`, "must be <= 1e15"},
		{"/attribution/spikes", `{"values":[1,2,1e300]}`, "must be <= 1e15"},
	}
	for _, c := range cases {
		rec := f.do(http.MethodPost, c.path, c.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, c.body)
		assert.Contains(t, rec.Body.String(), c.msg, c.body)
	}

	// the widest accepted inputs still encode
	rec := f.do(http.MethodPost, "/attribution/lift", `{"baseline":[1e-15],"spike":[1e15]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var lift models.AttributionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lift))
	assert.Greater(t, lift.LiftPercent, 1e30)
}

func TestWriteJSONUnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, models.AttributionResult{LiftPercent: math.NaN()})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "encode response")
	assert.NotEqual(t, "application/json", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	writeJSON(rec, map[string]int{"n": 1})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}

func TestNewTabEndpoints(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodGet, "/clients/acme-corp/subreddit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sub models.SubredditReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, models.KPIChange{Value: 8.1, IsPositive: true}, sub.Changes["followers"])

	rec = f.do(http.MethodGet, "/clients/acme-corp/accounts?range=7d", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var acc models.AccountsReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acc))
	assert.Equal(t, 284930.0, acc.Totals.Revenue)

	rec = f.do(http.MethodGet, "/clients/globex-inc/seo-geo?range=7d", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var seo models.SEOGEOReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seo))
	assert.Len(t, seo.LLMReferrals, 7)

	rec = f.do(http.MethodGet, "/clients/acme-corp/organic?range=7d", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var org models.OrganicReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &org))
	assert.Len(t, org.Karma, 7)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/clients/initech/organic", "").Code)
}

func TestExportEndpoint(t *testing.T) {
	var gotName string
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotName = r.Header.Get("X-Report-Name")
		body, _ := io.ReadAll(r.Body)
		assert.True(t, export.Verify("s3cret", body, r.Header.Get("X-Signature")))
		w.WriteHeader(http.StatusOK)
	}))
	defer sink.Close()

	f := newFixture(t, sink.URL)
	rec := f.do(http.MethodPost, "/clients/acme-corp/export?range=last_month", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Acme_Corp_Reddit_Report_Last_Month", gotName)

	unconfigured := newFixture(t, "")
	assert.Equal(t, http.StatusBadGateway, unconfigured.do(http.MethodPost, "/clients/acme-corp/export", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, "")
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/clients/acme-corp/brand", "").Code)

	rec := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `recho_spikes_detected_total{series="mentions"} 2`)
	assert.Contains(t, rec.Body.String(), "recho_report_duration_seconds")
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, "")
	req := httptest.NewRequest(http.MethodOptions, "/clients", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
