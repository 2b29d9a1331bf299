package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/recho/internal/attribution"
	"github.com/AngelCh415/recho/internal/cache"
	"github.com/AngelCh415/recho/internal/models"
	"github.com/AngelCh415/recho/internal/telemetry"
)

// DataProvider supplies the raw series behind each report tab.
type DataProvider interface {
	Overview(ctx context.Context, clientID string, r models.DateRange) (models.KPIData, error)
	TimeSeries(ctx context.Context, clientID string, r models.DateRange) ([]models.TimeSeriesPoint, error)
	Channels(ctx context.Context, clientID string, r models.DateRange) (models.ChannelSnapshot, error)
	BrandMentions(ctx context.Context, clientID string, r models.DateRange) ([]models.BrandMentionPoint, error)
	Sentiment(ctx context.Context, clientID string, r models.DateRange) ([]models.SentimentPoint, error)
	PaidKPIs(ctx context.Context, clientID string, r models.DateRange) (models.PaidKPIs, error)
	SpendSeries(ctx context.Context, clientID string, r models.DateRange) ([]models.SpendPoint, error)
	Campaigns(ctx context.Context, clientID string, r models.DateRange) ([]models.Campaign, error)
	Creatives(ctx context.Context, clientID string, r models.DateRange) ([]models.Creative, error)
	OrganicMetrics(ctx context.Context, clientID string, r models.DateRange) ([]models.AccountMetrics, error)
	Karma(ctx context.Context, clientID string, r models.DateRange) ([]models.KarmaPoint, error)
	AccountTable(ctx context.Context, clientID string, r models.DateRange) ([]models.AccountRow, error)
	SubredditKPIs(ctx context.Context, clientID string, r models.DateRange) (models.SubredditKPIs, error)
	SubredditGrowth(ctx context.Context, clientID string, r models.DateRange) ([]models.SubredditGrowthPoint, error)
	SEOGEOKPIs(ctx context.Context, clientID string, r models.DateRange) (models.SEOGEOKPIs, error)
	LLMReferrals(ctx context.Context, clientID string, r models.DateRange) ([]models.LLMReferralPoint, error)
	SearchVisibility(ctx context.Context, clientID string, r models.DateRange) ([]models.SearchVisibilityPoint, error)
}

type ClientLookup interface {
	Get(id string) (models.Client, error)
}

// Cache is a read-through store for finished reports, keyed by tab, client and range.
type Cache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, v any) error
}

const DefaultBaselinePoints = 14

type Service struct {
	p         DataProvider
	clients   ClientLookup
	eng       attribution.Engine
	cache     Cache
	tel       *telemetry.Metrics
	log       *slog.Logger
	baseline  int
	threshold float64
}

func NewService(p DataProvider, clients ClientLookup, eng attribution.Engine, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		p:         p,
		clients:   clients,
		eng:       eng,
		log:       log,
		baseline:  DefaultBaselinePoints,
		threshold: attribution.DefaultSpikeThreshold,
	}
}

func (s *Service) WithCache(c Cache) *Service {
	s.cache = c
	return s
}

func (s *Service) WithMetrics(m *telemetry.Metrics) *Service {
	s.tel = m
	return s
}

// WithBaselinePoints sets how many leading points of a series form the baseline window.
func (s *Service) WithBaselinePoints(n int) *Service {
	if n > 0 {
		s.baseline = n
	}
	return s
}

func (s *Service) WithSpikeThreshold(t float64) *Service {
	if t > 0 {
		s.threshold = t
	}
	return s
}

func (s *Service) Engine() attribution.Engine { return s.eng }

func (s *Service) Overview(ctx context.Context, clientID string, r models.DateRange) (models.OverviewReport, error) {
	defer s.observe("overview", time.Now())
	c, err := s.clients.Get(clientID)
	if err != nil {
		return models.OverviewReport{}, err
	}
	return readThrough(ctx, s, "overview", c.ID, r, func(ctx context.Context) (models.OverviewReport, error) {
		var (
			kpis models.KPIData
			ts   []models.TimeSeriesPoint
			ch   models.ChannelSnapshot
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			if kpis, err = s.p.Overview(gctx, c.ID, r); err != nil {
				return fmt.Errorf("overview kpis: %w", err)
			}
			return nil
		})
		g.Go(func() (err error) {
			if ts, err = s.p.TimeSeries(gctx, c.ID, r); err != nil {
				return fmt.Errorf("time series: %w", err)
			}
			return nil
		})
		g.Go(func() (err error) {
			if ch, err = s.p.Channels(gctx, c.ID, r); err != nil {
				return fmt.Errorf("channels: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return models.OverviewReport{}, err
		}

		traffic := make([]float64, len(ts))
		for i, p := range ts {
			traffic[i] = p.Traffic
		}
		baseline, spike := attribution.SplitBaseline(traffic, s.baseline)
		basic := s.eng.ComputeInferredLift(baseline, spike)
		enhanced := s.eng.ComputeEnhancedAttribution(baseline, spike, ch.Channels, ch.DirectRedditTraffic, totalRevenue(ch.Channels))
		spikes := attribution.DetectSpikes(traffic, s.threshold)
		s.tel.IncAttribution("lift")
		s.tel.IncAttribution("enhanced")
		s.tel.AddSpikes("traffic", len(spikes))

		return models.OverviewReport{
			Client:        c,
			Range:         r,
			KPIs:          kpis,
			Changes:       kpiChanges(kpis),
			TimeSeries:    ts,
			Attribution:   basic,
			Enhanced:      enhanced,
			Channels:      ch.Channels,
			TrafficSpikes: spikes,
		}, nil
	})
}

// Attribution runs the enhanced model over the channel snapshot, using the
// traffic series for the lift windows.
func (s *Service) Attribution(ctx context.Context, clientID string, r models.DateRange) (models.AttributionReport, error) {
	defer s.observe("attribution", time.Now())
	c, err := s.clients.Get(clientID)
	if err != nil {
		return models.AttributionReport{}, err
	}
	return readThrough(ctx, s, "attribution", c.ID, r, func(ctx context.Context) (models.AttributionReport, error) {
		var (
			ts []models.TimeSeriesPoint
			ch models.ChannelSnapshot
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			if ts, err = s.p.TimeSeries(gctx, c.ID, r); err != nil {
				return fmt.Errorf("time series: %w", err)
			}
			return nil
		})
		g.Go(func() (err error) {
			if ch, err = s.p.Channels(gctx, c.ID, r); err != nil {
				return fmt.Errorf("channels: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return models.AttributionReport{}, err
		}

		traffic := make([]float64, len(ts))
		for i, p := range ts {
			traffic[i] = p.Traffic
		}
		baseline, spike := attribution.SplitBaseline(traffic, s.baseline)
		s.tel.IncAttribution("enhanced")
		return models.AttributionReport{
			Client:   c,
			Range:    r,
			Enhanced: s.eng.ComputeEnhancedAttribution(baseline, spike, ch.Channels, ch.DirectRedditTraffic, totalRevenue(ch.Channels)),
			Channels: ch.Channels,
		}, nil
	})
}

func (s *Service) Brand(ctx context.Context, clientID string, r models.DateRange) (models.BrandReport, error) {
	defer s.observe("brand", time.Now())
	c, err := s.clients.Get(clientID)
	if err != nil {
		return models.BrandReport{}, err
	}
	return readThrough(ctx, s, "brand", c.ID, r, func(ctx context.Context) (models.BrandReport, error) {
		var (
			mentions  []models.BrandMentionPoint
			sentiment []models.SentimentPoint
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			if mentions, err = s.p.BrandMentions(gctx, c.ID, r); err != nil {
				return fmt.Errorf("brand mentions: %w", err)
			}
			return nil
		})
		g.Go(func() (err error) {
			if sentiment, err = s.p.Sentiment(gctx, c.ID, r); err != nil {
				return fmt.Errorf("sentiment: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return models.BrandReport{}, err
		}

		counts := make([]float64, len(mentions))
		var total float64
		for i, m := range mentions {
			counts[i] = m.Mentions
			total += m.Mentions
		}
		negatives := make([]float64, len(sentiment))
		for i, p := range sentiment {
			negatives[i] = p.Negative
		}
		mentionSpikes := attribution.DetectSpikes(counts, s.threshold)
		negativeSpikes := attribution.DetectSpikes(negatives, s.threshold)
		s.tel.AddSpikes("mentions", len(mentionSpikes))
		s.tel.AddSpikes("negative_sentiment", len(negativeSpikes))

		return models.BrandReport{
			Client:         c,
			Range:          r,
			Mentions:       mentions,
			TotalMentions:  total,
			Sentiment:      sentiment,
			SentimentShare: sentimentShare(sentiment),
			MentionSpikes:  mentionSpikes,
			NegativeSpikes: negativeSpikes,
			Alerts:         brandAlerts(mentions, counts, mentionSpikes, sentiment, negativeSpikes),
		}, nil
	})
}

func (s *Service) Paid(ctx context.Context, clientID string, r models.DateRange) (models.PaidReport, error) {
	defer s.observe("paid", time.Now())
	c, err := s.clients.Get(clientID)
	if err != nil {
		return models.PaidReport{}, err
	}
	return readThrough(ctx, s, "paid", c.ID, r, func(ctx context.Context) (models.PaidReport, error) {
		var (
			kpis      models.PaidKPIs
			spend     []models.SpendPoint
			campaigns []models.Campaign
			creatives []models.Creative
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			if kpis, err = s.p.PaidKPIs(gctx, c.ID, r); err != nil {
				return fmt.Errorf("paid kpis: %w", err)
			}
			return nil
		})
		g.Go(func() (err error) {
			if spend, err = s.p.SpendSeries(gctx, c.ID, r); err != nil {
				return fmt.Errorf("spend series: %w", err)
			}
			return nil
		})
		g.Go(func() (err error) {
			if campaigns, err = s.p.Campaigns(gctx, c.ID, r); err != nil {
				return fmt.Errorf("campaigns: %w", err)
			}
			return nil
		})
		g.Go(func() (err error) {
			if creatives, err = s.p.Creatives(gctx, c.ID, r); err != nil {
				return fmt.Errorf("creatives: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return models.PaidReport{}, err
		}

		daily := make([]float64, len(spend))
		for i, p := range spend {
			daily[i] = p.Spend
		}
		spikes := attribution.DetectSpikes(daily, s.threshold)
		s.tel.AddSpikes("spend", len(spikes))

		return models.PaidReport{
			Client:      c,
			Range:       r,
			KPIs:        kpis,
			Pacing:      pct(kpis.Spend, kpis.Budget),
			Spend:       spend,
			SpendSpikes: spikes,
			Weekly:      weeklySpend(spend),
			Campaigns:   campaigns,
			Creatives:   creatives,
		}, nil
	})
}

// Organic summarises the brand accounts' posting and karma. Karma spikes are
// flagged on the summed day-over-day gain and index into Karma.
func (s *Service) Organic(ctx context.Context, clientID string, r models.DateRange) (models.OrganicReport, error) {
	defer s.observe("organic", time.Now())
	c, err := s.clients.Get(clientID)
	if err != nil {
		return models.OrganicReport{}, err
	}
	return readThrough(ctx, s, "organic", c.ID, r, func(ctx context.Context) (models.OrganicReport, error) {
		var (
			metrics []models.AccountMetrics
			karma   []models.KarmaPoint
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			if metrics, err = s.p.OrganicMetrics(gctx, c.ID, r); err != nil {
				return fmt.Errorf("organic metrics: %w", err)
			}
			return nil
		})
		g.Go(func() (err error) {
			if karma, err = s.p.Karma(gctx, c.ID, r); err != nil {
				return fmt.Errorf("karma: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return models.OrganicReport{}, err
		}

		var posts float64
		for _, m := range metrics {
			posts += m.Posts
		}
		gains := attribution.DetectSpikes(karmaGains(karma), s.threshold)
		spikes := make([]int, len(gains))
		for i, at := range gains {
			spikes[i] = at + 1
		}
		s.tel.AddSpikes("karma", len(spikes))

		return models.OrganicReport{
			Client:      c,
			Range:       r,
			Accounts:    metrics,
			TotalPosts:  posts,
			Karma:       karma,
			KarmaGrowth: karmaGrowth(karma),
			KarmaSpikes: spikes,
		}, nil
	})
}

func (s *Service) Subreddit(ctx context.Context, clientID string, r models.DateRange) (models.SubredditReport, error) {
	defer s.observe("subreddit", time.Now())
	c, err := s.clients.Get(clientID)
	if err != nil {
		return models.SubredditReport{}, err
	}
	return readThrough(ctx, s, "subreddit", c.ID, r, func(ctx context.Context) (models.SubredditReport, error) {
		var (
			kpis   models.SubredditKPIs
			growth []models.SubredditGrowthPoint
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			if kpis, err = s.p.SubredditKPIs(gctx, c.ID, r); err != nil {
				return fmt.Errorf("subreddit kpis: %w", err)
			}
			return nil
		})
		g.Go(func() (err error) {
			if growth, err = s.p.SubredditGrowth(gctx, c.ID, r); err != nil {
				return fmt.Errorf("subreddit growth: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return models.SubredditReport{}, err
		}

		impressions := make([]float64, len(growth))
		for i, p := range growth {
			impressions[i] = p.Impressions
		}
		spikes := attribution.DetectSpikes(impressions, s.threshold)
		s.tel.AddSpikes("subreddit_impressions", len(spikes))

		return models.SubredditReport{
			Client:           c,
			Range:            r,
			KPIs:             kpis,
			Changes:          subredditChanges(kpis),
			Growth:           growth,
			ImpressionSpikes: spikes,
		}, nil
	})
}

func (s *Service) Accounts(ctx context.Context, clientID string, r models.DateRange) (models.AccountsReport, error) {
	defer s.observe("accounts", time.Now())
	c, err := s.clients.Get(clientID)
	if err != nil {
		return models.AccountsReport{}, err
	}
	return readThrough(ctx, s, "accounts", c.ID, r, func(ctx context.Context) (models.AccountsReport, error) {
		rows, err := s.p.AccountTable(ctx, c.ID, r)
		if err != nil {
			return models.AccountsReport{}, fmt.Errorf("account table: %w", err)
		}
		totals, share := accountTotals(rows)
		return models.AccountsReport{
			Client:       c,
			Range:        r,
			Accounts:     rows,
			Totals:       totals,
			RevenueShare: share,
		}, nil
	})
}

// SEOGEO reports discovery through search and AI assistants. LLM spikes are
// flagged on the daily referral total.
func (s *Service) SEOGEO(ctx context.Context, clientID string, r models.DateRange) (models.SEOGEOReport, error) {
	defer s.observe("seo_geo", time.Now())
	c, err := s.clients.Get(clientID)
	if err != nil {
		return models.SEOGEOReport{}, err
	}
	return readThrough(ctx, s, "seo-geo", c.ID, r, func(ctx context.Context) (models.SEOGEOReport, error) {
		var (
			kpis       models.SEOGEOKPIs
			referrals  []models.LLMReferralPoint
			visibility []models.SearchVisibilityPoint
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			if kpis, err = s.p.SEOGEOKPIs(gctx, c.ID, r); err != nil {
				return fmt.Errorf("seo/geo kpis: %w", err)
			}
			return nil
		})
		g.Go(func() (err error) {
			if referrals, err = s.p.LLMReferrals(gctx, c.ID, r); err != nil {
				return fmt.Errorf("llm referrals: %w", err)
			}
			return nil
		})
		g.Go(func() (err error) {
			if visibility, err = s.p.SearchVisibility(gctx, c.ID, r); err != nil {
				return fmt.Errorf("search visibility: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return models.SEOGEOReport{}, err
		}

		daily := make([]float64, len(referrals))
		for i, p := range referrals {
			daily[i] = p.Total()
		}
		spikes := attribution.DetectSpikes(daily, s.threshold)
		s.tel.AddSpikes("llm_referrals", len(spikes))

		return models.SEOGEOReport{
			Client:        c,
			Range:         r,
			KPIs:          kpis,
			Changes:       seoGeoChanges(kpis),
			LLMReferrals:  referrals,
			ReferralShare: referralShare(referrals),
			Visibility:    visibility,
			LLMSpikes:     spikes,
		}, nil
	})
}

// readThrough serves a tab from the cache when possible and stores fresh
// builds. Cache failures never fail the request.
func readThrough[T any](ctx context.Context, s *Service, tab, clientID string, r models.DateRange, build func(context.Context) (T, error)) (T, error) {
	if s.cache == nil {
		return build(ctx)
	}
	key := cache.Key(tab, clientID, r.From.Format(dateLayout), r.To.Format(dateLayout))

	var hit T
	err := s.cache.Get(ctx, key, &hit)
	switch {
	case err == nil:
		s.tel.IncCache("hit")
		return hit, nil
	case errors.Is(err, cache.ErrMiss):
		s.tel.IncCache("miss")
	default:
		s.tel.IncCache("error")
		s.log.Warn("report cache read failed", slog.String("key", key), slog.String("err", err.Error()))
	}

	out, err := build(ctx)
	if err != nil {
		return out, err
	}
	if err := s.cache.Set(ctx, key, out); err != nil {
		s.log.Warn("report cache write failed", slog.String("key", key), slog.String("err", err.Error()))
	}
	return out, nil
}

func (s *Service) observe(tab string, start time.Time) {
	s.tel.ObserveReport(tab, time.Since(start))
}
