package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/recho/internal/attribution"
	"github.com/AngelCh415/recho/internal/cache"
	"github.com/AngelCh415/recho/internal/clients"
	"github.com/AngelCh415/recho/internal/ingest"
	"github.com/AngelCh415/recho/internal/models"
	"github.com/AngelCh415/recho/internal/telemetry"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func thirty(t *testing.T) models.DateRange {
	t.Helper()
	r, err := ResolveRange("30d", "", "", now)
	require.NoError(t, err)
	return r
}

func newService() *Service {
	reg := clients.Default()
	p := ingest.NewProvider(nil, reg, quiet(), nil)
	return NewService(p, reg, attribution.New(attribution.RedditInfluenceFactor), quiet())
}

func TestOverviewReport(t *testing.T) {
	rep, err := newService().Overview(context.Background(), "acme-corp", thirty(t))
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", rep.Client.Name)
	assert.Len(t, rep.TimeSeries, 30)
	assert.Equal(t, 127432.0, rep.KPIs.TotalTraffic)
	assert.Equal(t, models.KPIChange{Value: 13.4, IsPositive: true}, rep.Changes["total_traffic"])
	assert.Len(t, rep.Changes, 5)

	traffic := make([]float64, len(rep.TimeSeries))
	for i, p := range rep.TimeSeries {
		traffic[i] = p.Traffic
	}
	assert.Equal(t, attribution.ComputeInferredLift(traffic[:14], traffic[14:]), rep.Attribution)
	assert.Greater(t, rep.Attribution.LiftPercent, 0.0)

	e := rep.Enhanced
	assert.Equal(t, rep.Attribution, e.AttributionResult)
	assert.Equal(t, 42800.0, e.DirectRedditTraffic)
	assert.Equal(t, 13150.0, e.InferredRedditTraffic)
	assert.Equal(t, 3076.0, e.TotalAttributedConversions)
	assert.Equal(t, 232620.0, e.TotalAttributedRevenue)
	assert.Equal(t, 41.9, e.RevenueInfluencePercent)
	require.Len(t, e.ChannelCorrelations, 5)
	assert.Equal(t, 0.15, e.ChannelCorrelations[3].CorrelationScore)
	assert.NotNil(t, rep.TrafficSpikes)
}

func TestOverviewUnknownClient(t *testing.T) {
	_, err := newService().Overview(context.Background(), "initech", thirty(t))
	assert.ErrorIs(t, err, clients.ErrUnknownClient)
}

func TestAttributionReportMatchesOverview(t *testing.T) {
	s := newService()
	ov, err := s.Overview(context.Background(), "globex-inc", thirty(t))
	require.NoError(t, err)
	at, err := s.Attribution(context.Background(), "globex-inc", thirty(t))
	require.NoError(t, err)
	assert.Equal(t, ov.Enhanced, at.Enhanced)
	assert.Equal(t, ov.Channels, at.Channels)
}

func TestBrandReport(t *testing.T) {
	rep, err := newService().Brand(context.Background(), "acme-corp", thirty(t))
	require.NoError(t, err)

	assert.Equal(t, []int{18, 19}, rep.MentionSpikes)
	assert.Equal(t, []int{18, 19, 20}, rep.NegativeSpikes)

	var total float64
	for _, m := range rep.Mentions {
		total += m.Mentions
	}
	assert.Equal(t, total, rep.TotalMentions)

	sh := rep.SentimentShare
	assert.InDelta(t, 100, sh.PositivePercent+sh.NeutralPercent+sh.NegativePercent, 0.2)
	assert.Greater(t, sh.PositivePercent, sh.NegativePercent)

	require.Len(t, rep.Alerts, 5)
	assert.Equal(t, models.AlertWarning, rep.Alerts[0].Type)
	assert.Equal(t, "Mentions Spike Detected", rep.Alerts[0].Title)
	assert.Equal(t, rep.Mentions[18].Date, rep.Alerts[0].Date)
	assert.Equal(t, models.AlertDanger, rep.Alerts[1].Type)
	assert.Equal(t, rep.Mentions[20].Date, rep.Alerts[4].Date)
}

func TestPaidReport(t *testing.T) {
	rep, err := newService().Paid(context.Background(), "acme-corp", thirty(t))
	require.NoError(t, err)
	assert.Equal(t, 79.8, rep.Pacing)
	assert.Len(t, rep.Spend, 30)
	assert.NotNil(t, rep.SpendSpikes)

	require.Len(t, rep.Weekly, 5)
	assert.Equal(t, "Week 1", rep.Weekly[0].Week)
	assert.Equal(t, 7*2833.0, rep.Weekly[0].Budget)
	assert.Equal(t, 2*2833.0, rep.Weekly[4].Budget)
	var spend float64
	for _, p := range rep.Spend[:7] {
		spend += p.Spend
	}
	assert.Equal(t, spend, rep.Weekly[0].Spend)
	assert.Equal(t, pct(spend, 7*2833), rep.Weekly[0].Pacing)

	require.Len(t, rep.Campaigns, 5)
	assert.Equal(t, 4.2, rep.Campaigns[0].ROAS)
	require.Len(t, rep.Creatives, 6)
}

func TestOrganicReport(t *testing.T) {
	rep, err := newService().Organic(context.Background(), "acme-corp", thirty(t))
	require.NoError(t, err)
	require.Len(t, rep.Accounts, 4)
	assert.Equal(t, 154.0, rep.TotalPosts)
	require.Len(t, rep.Karma, 30)
	require.Len(t, rep.KarmaGrowth, 4)
	assert.InDelta(t, 29*180, rep.KarmaGrowth["u/OfficialBrand"], 100)
	assert.NotNil(t, rep.KarmaSpikes)
	for _, i := range rep.KarmaSpikes {
		assert.GreaterOrEqual(t, i, 1)
		assert.Less(t, i, 30)
	}
}

func TestSubredditReport(t *testing.T) {
	rep, err := newService().Subreddit(context.Background(), "acme-corp", thirty(t))
	require.NoError(t, err)
	assert.Len(t, rep.Changes, 6)
	assert.Equal(t, models.KPIChange{Value: 8.1, IsPositive: true}, rep.Changes["followers"])
	assert.Equal(t, models.KPIChange{Value: 16.9, IsPositive: true}, rep.Changes["revenue"])
	assert.Len(t, rep.Growth, 30)
	assert.NotNil(t, rep.ImpressionSpikes)
}

func TestAccountsReport(t *testing.T) {
	rep, err := newService().Accounts(context.Background(), "acme-corp", thirty(t))
	require.NoError(t, err)
	require.Len(t, rep.Accounts, 4)
	assert.Equal(t, models.AccountsTotals{Conversions: 3847, Revenue: 284930, Impressions: 2336000, Traffic: 102000}, rep.Totals)
	assert.Equal(t, 49.9, rep.RevenueShare["u/OfficialBrand"])
	assert.Equal(t, 6.2, rep.RevenueShare["u/TechSupport"])
}

func TestSEOGEOReport(t *testing.T) {
	rep, err := newService().SEOGEO(context.Background(), "acme-corp", thirty(t))
	require.NoError(t, err)
	assert.Equal(t, models.KPIChange{Value: 29.6, IsPositive: true}, rep.Changes["llm_referral_traffic"])
	assert.Equal(t, models.KPIChange{Value: 11.8, IsPositive: true}, rep.Changes["reddit_visibility_index"])
	assert.Len(t, rep.LLMReferrals, 30)
	assert.Len(t, rep.Visibility, 30)
	assert.NotNil(t, rep.LLMSpikes)

	sh := rep.ReferralShare
	assert.InDelta(t, 100, sh["chatgpt"]+sh["perplexity"]+sh["gemini"]+sh["other"], 0.2)
	assert.Greater(t, sh["chatgpt"], sh["gemini"])
}

func TestNewTabsUnknownClient(t *testing.T) {
	s := newService()
	ctx := context.Background()
	_, err := s.Organic(ctx, "initech", thirty(t))
	assert.ErrorIs(t, err, clients.ErrUnknownClient)
	_, err = s.Subreddit(ctx, "initech", thirty(t))
	assert.ErrorIs(t, err, clients.ErrUnknownClient)
	_, err = s.Accounts(ctx, "initech", thirty(t))
	assert.ErrorIs(t, err, clients.ErrUnknownClient)
	_, err = s.SEOGEO(ctx, "initech", thirty(t))
	assert.ErrorIs(t, err, clients.ErrUnknownClient)
}

func TestWeeklySpendAndKarmaHelpers(t *testing.T) {
	assert.Empty(t, weeklySpend(nil))
	assert.Empty(t, karmaGains([]models.KarmaPoint{{Date: "2026-02-01"}}))
	assert.Empty(t, karmaGrowth(nil))

	karma := []models.KarmaPoint{
		{Accounts: map[string]float64{"a": 10, "b": 5}},
		{Accounts: map[string]float64{"a": 12, "b": 5}},
		{Accounts: map[string]float64{"a": 20, "b": 8}},
	}
	assert.Equal(t, []float64{2, 11}, karmaGains(karma))
	assert.Equal(t, map[string]float64{"a": 10, "b": 3}, karmaGrowth(karma))
}

func TestSentimentShareZeroSafe(t *testing.T) {
	assert.Equal(t, models.SentimentShare{}, sentimentShare(nil))
	assert.Equal(t, models.SentimentShare{PositivePercent: 50, NeutralPercent: 25, NegativePercent: 25},
		sentimentShare([]models.SentimentPoint{{Positive: 2, Neutral: 1, Negative: 1}}))
}

type brokenProvider struct {
	ingest.Provider
	err error
}

func (b *brokenProvider) Channels(context.Context, string, models.DateRange) (models.ChannelSnapshot, error) {
	return models.ChannelSnapshot{}, b.err
}

func (b *brokenProvider) Creatives(context.Context, string, models.DateRange) ([]models.Creative, error) {
	return nil, b.err
}

func (b *brokenProvider) Karma(context.Context, string, models.DateRange) ([]models.KarmaPoint, error) {
	return nil, b.err
}

func TestOverviewWrapsProviderErrors(t *testing.T) {
	reg := clients.Default()
	boom := errors.New("ga4 unavailable")
	p := &brokenProvider{Provider: *ingest.NewProvider(nil, reg, quiet(), nil), err: boom}
	s := NewService(p, reg, attribution.New(0), quiet())

	_, err := s.Overview(context.Background(), "acme-corp", thirty(t))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "channels")

	_, err = s.Attribution(context.Background(), "acme-corp", thirty(t))
	assert.ErrorIs(t, err, boom)

	_, err = s.Paid(context.Background(), "acme-corp", thirty(t))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "creatives")

	_, err = s.Organic(context.Background(), "acme-corp", thirty(t))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "karma")
}

type countingProvider struct {
	DataProvider
	calls int32
}

func (c *countingProvider) PaidKPIs(ctx context.Context, id string, r models.DateRange) (models.PaidKPIs, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.DataProvider.PaidKPIs(ctx, id, r)
}

func TestReadThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	reg := clients.Default()
	promReg := prometheus.NewRegistry()
	p := &countingProvider{DataProvider: ingest.NewProvider(nil, reg, quiet(), nil)}
	s := NewService(p, reg, attribution.New(0), quiet()).
		WithCache(cache.New(rdb, time.Minute)).
		WithMetrics(telemetry.New(promReg))

	first, err := s.Paid(context.Background(), "acme-corp", thirty(t))
	require.NoError(t, err)
	second, err := s.Paid(context.Background(), "acme-corp", thirty(t))
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&p.calls))
	assert.Equal(t, first.Pacing, second.Pacing)
	assert.Equal(t, first.Spend, second.Spend)
	assert.True(t, mr.Exists("recho:report:paid:acme-corp:2026-01-12:2026-02-10"))

	n, err := testutil.GatherAndCount(promReg, "recho_cache_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCacheFailureFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	reg := clients.Default()
	s := NewService(ingest.NewProvider(nil, reg, quiet(), nil), reg, attribution.New(0), quiet()).
		WithCache(cache.New(rdb, time.Minute))
	rep, err := s.Paid(context.Background(), "acme-corp", thirty(t))
	require.NoError(t, err)
	assert.Equal(t, 79.8, rep.Pacing)
}

func TestConfigurableBaselineAndThreshold(t *testing.T) {
	s := newService().WithBaselinePoints(7).WithSpikeThreshold(100)
	rep, err := s.Overview(context.Background(), "acme-corp", thirty(t))
	require.NoError(t, err)

	traffic := make([]float64, len(rep.TimeSeries))
	for i, p := range rep.TimeSeries {
		traffic[i] = p.Traffic
	}
	assert.Equal(t, attribution.ComputeInferredLift(traffic[:7], traffic[7:]), rep.Attribution)
	assert.Empty(t, rep.TrafficSpikes)

	b, err := s.Brand(context.Background(), "acme-corp", thirty(t))
	require.NoError(t, err)
	assert.Empty(t, b.Alerts)
}
