package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/AngelCh415/recho/internal/models"
	"github.com/AngelCh415/recho/internal/store"
	"github.com/AngelCh415/recho/internal/telemetry"
)

// Scaler returns the per-client multiplier applied to generated data.
type Scaler interface {
	Factor(clientID string) float64
}

// Provider supplies the numeric series behind every report. Overview KPIs come
// from the datastore when one is configured; everything else, and any failed
// datastore read, is generated and scaled per client.
type Provider struct {
	ds  Datastore
	sc  Scaler
	log *slog.Logger
	tel *telemetry.Metrics
}

func NewProvider(ds Datastore, sc Scaler, log *slog.Logger, tel *telemetry.Metrics) *Provider {
	if log == nil {
		log = slog.Default()
	}
	return &Provider{ds: ds, sc: sc, log: log, tel: tel}
}

func (p *Provider) factor(clientID string) float64 {
	if p.sc == nil {
		return 1
	}
	return p.sc.Factor(clientID)
}

// Overview reports the latest stored snapshot. The previous period is the
// newest snapshot in the window of equal length that ends the day before r
// starts; with none stored it stays zero.
func (p *Provider) Overview(ctx context.Context, clientID string, r models.DateRange) (models.KPIData, error) {
	if err := ctx.Err(); err != nil {
		return models.KPIData{}, err
	}
	if p.ds != nil {
		snap, err := p.ds.LatestOverview(ctx, clientID)
		if err == nil {
			return models.KPIData{KPIValues: snapshotValues(snap), PreviousPeriod: p.previousOverview(ctx, clientID, r, snap.Date)}, nil
		}
		if ctx.Err() != nil {
			return models.KPIData{}, ctx.Err()
		}
		lvl := slog.LevelWarn
		if errors.Is(err, store.ErrNoSnapshot) {
			lvl = slog.LevelDebug
		}
		p.log.Log(ctx, lvl, "overview datastore read failed, using generated data",
			slog.String("client", clientID), slog.String("err", err.Error()))
		p.tel.IncFallback("overview")
	}
	return scaleKPIs(mockKPIs(), p.factor(clientID)), nil
}

func (p *Provider) previousOverview(ctx context.Context, clientID string, r models.DateRange, latest time.Time) models.KPIValues {
	if r.From.IsZero() {
		return models.KPIValues{}
	}
	to := r.From.AddDate(0, 0, -1)
	from := r.From.AddDate(0, 0, -r.Days())
	rows, err := p.ds.QueryOverview(ctx, clientID, from, to)
	if err != nil {
		p.log.Warn("previous period lookup failed",
			slog.String("client", clientID), slog.String("err", err.Error()))
		p.tel.IncFallback("previous_period")
		return models.KPIValues{}
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Date.Before(latest) {
			return snapshotValues(rows[i])
		}
	}
	return models.KPIValues{}
}

func snapshotValues(s models.OverviewSnapshot) models.KPIValues {
	return models.KPIValues{
		TotalTraffic:     s.TotalTraffic,
		TotalConversions: s.TotalConversions,
		Revenue:          s.Revenue,
		BlendedROAS:      s.BlendedROAS,
		KarmaGrowth:      s.KarmaGrowth,
	}
}

func (p *Provider) TimeSeries(ctx context.Context, clientID string, r models.DateRange) ([]models.TimeSeriesPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scaleTimeSeries(mockTimeSeries(clientID, r), p.factor(clientID)), nil
}

func (p *Provider) Channels(ctx context.Context, clientID string, _ models.DateRange) (models.ChannelSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.ChannelSnapshot{}, err
	}
	return scaleChannels(mockChannels(), p.factor(clientID)), nil
}

func (p *Provider) BrandMentions(ctx context.Context, clientID string, r models.DateRange) ([]models.BrandMentionPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scaleMentions(mockMentions(clientID, r), p.factor(clientID)), nil
}

func (p *Provider) Sentiment(ctx context.Context, clientID string, r models.DateRange) ([]models.SentimentPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scaleSentiment(mockSentiment(clientID, r), p.factor(clientID)), nil
}

func (p *Provider) PaidKPIs(ctx context.Context, clientID string, _ models.DateRange) (models.PaidKPIs, error) {
	if err := ctx.Err(); err != nil {
		return models.PaidKPIs{}, err
	}
	return scalePaidKPIs(mockPaidKPIs(), p.factor(clientID)), nil
}

func (p *Provider) SpendSeries(ctx context.Context, clientID string, r models.DateRange) ([]models.SpendPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scaleSpend(mockSpend(clientID, r), p.factor(clientID)), nil
}

func (p *Provider) Campaigns(ctx context.Context, clientID string, _ models.DateRange) ([]models.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scaleCampaigns(mockCampaigns(), p.factor(clientID)), nil
}

func (p *Provider) Creatives(ctx context.Context, clientID string, _ models.DateRange) ([]models.Creative, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scaleCreatives(mockCreatives(), p.factor(clientID)), nil
}

func (p *Provider) OrganicMetrics(ctx context.Context, clientID string, _ models.DateRange) ([]models.AccountMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scaleOrganic(mockOrganic(), p.factor(clientID)), nil
}

func (p *Provider) Karma(ctx context.Context, clientID string, r models.DateRange) ([]models.KarmaPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scaleKarma(mockKarma(clientID, r), p.factor(clientID)), nil
}

func (p *Provider) AccountTable(ctx context.Context, clientID string, _ models.DateRange) ([]models.AccountRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scaleAccountRows(mockAccountRows(), p.factor(clientID)), nil
}

func (p *Provider) SubredditKPIs(ctx context.Context, clientID string, _ models.DateRange) (models.SubredditKPIs, error) {
	if err := ctx.Err(); err != nil {
		return models.SubredditKPIs{}, err
	}
	return scaleSubredditKPIs(mockSubredditKPIs(), p.factor(clientID)), nil
}

func (p *Provider) SubredditGrowth(ctx context.Context, clientID string, r models.DateRange) ([]models.SubredditGrowthPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scaleSubredditGrowth(mockSubredditGrowth(clientID, r), p.factor(clientID)), nil
}

func (p *Provider) SEOGEOKPIs(ctx context.Context, clientID string, _ models.DateRange) (models.SEOGEOKPIs, error) {
	if err := ctx.Err(); err != nil {
		return models.SEOGEOKPIs{}, err
	}
	return scaleSEOGEOKPIs(mockSEOGEOKPIs(), p.factor(clientID)), nil
}

func (p *Provider) LLMReferrals(ctx context.Context, clientID string, r models.DateRange) ([]models.LLMReferralPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scaleLLMReferrals(mockLLMReferrals(clientID, r), p.factor(clientID)), nil
}

func (p *Provider) SearchVisibility(ctx context.Context, clientID string, r models.DateRange) ([]models.SearchVisibilityPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scaleVisibility(mockVisibility(clientID, r), p.factor(clientID)), nil
}
