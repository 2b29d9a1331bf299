package ingest

import (
	"math"

	"github.com/AngelCh415/recho/internal/models"
	"github.com/AngelCh415/recho/internal/utils"
)

// Per-client scaling. Every record type gets its own transform; counts and
// currency scale linearly, ratios get a fixed nudge instead. The nudge applies
// at every factor, 1 included.

func scaleKPIs(k models.KPIData, f float64) models.KPIData {
	return models.KPIData{KPIValues: scaleKPIValues(k.KPIValues, f), PreviousPeriod: scaleKPIValues(k.PreviousPeriod, f)}
}

func scaleKPIValues(v models.KPIValues, f float64) models.KPIValues {
	return models.KPIValues{
		TotalTraffic:     roundInt(v.TotalTraffic * f),
		TotalConversions: roundInt(v.TotalConversions * f),
		Revenue:          roundInt(v.Revenue * f),
		BlendedROAS:      roundN(v.BlendedROAS*ratioNudge(f, 0.9, 1.1), 1),
		KarmaGrowth:      roundInt(v.KarmaGrowth * f),
	}
}

func scaleTimeSeries(ps []models.TimeSeriesPoint, f float64) []models.TimeSeriesPoint {
	out := make([]models.TimeSeriesPoint, len(ps))
	for i, p := range ps {
		out[i] = models.TimeSeriesPoint{
			Date:        p.Date,
			Activity:    roundInt(p.Activity * f),
			Traffic:     roundInt(p.Traffic * f),
			Conversions: roundInt(p.Conversions * f),
		}
	}
	return out
}

func scaleChannels(s models.ChannelSnapshot, f float64) models.ChannelSnapshot {
	out := models.ChannelSnapshot{
		DirectRedditTraffic: roundInt(s.DirectRedditTraffic * f),
		Channels:            make([]models.ChannelBreakdown, len(s.Channels)),
	}
	for i, ch := range s.Channels {
		out.Channels[i] = models.ChannelBreakdown{
			Channel:     ch.Channel,
			Sessions:    roundInt(ch.Sessions * f),
			Conversions: roundInt(ch.Conversions * f),
			Revenue:     roundInt(ch.Revenue * f),
		}
	}
	return out
}

func scaleMentions(ps []models.BrandMentionPoint, f float64) []models.BrandMentionPoint {
	out := make([]models.BrandMentionPoint, len(ps))
	for i, p := range ps {
		out[i] = models.BrandMentionPoint{Date: p.Date, Mentions: roundInt(p.Mentions * f)}
	}
	return out
}

func scaleSentiment(ps []models.SentimentPoint, f float64) []models.SentimentPoint {
	out := make([]models.SentimentPoint, len(ps))
	for i, p := range ps {
		out[i] = models.SentimentPoint{
			Date:     p.Date,
			Positive: roundInt(p.Positive * f),
			Neutral:  roundInt(p.Neutral * f),
			Negative: roundInt(p.Negative * f),
		}
	}
	return out
}

func scalePaidKPIs(k models.PaidKPIs, f float64) models.PaidKPIs {
	return models.PaidKPIs{
		Spend:            roundInt(k.Spend * f),
		Budget:           roundInt(k.Budget * f),
		CTR:              roundN(k.CTR*ratioNudge(f, 0.95, 1.05), 2),
		CPC:              roundN(k.CPC*ratioNudge(f, 1.1, 0.9), 2),
		CPM:              roundN(k.CPM*f, 2),
		CPA:              roundN(k.CPA*ratioNudge(f, 1.05, 0.95), 2),
		ROAS:             roundN(k.ROAS*ratioNudge(f, 0.9, 1.1), 1),
		Impressions:      roundInt(k.Impressions * f),
		TotalConversions: roundInt(k.TotalConversions * f),
		TotalRevenue:     roundInt(k.TotalRevenue * f),
	}
}

func scaleSpend(ps []models.SpendPoint, f float64) []models.SpendPoint {
	out := make([]models.SpendPoint, len(ps))
	for i, p := range ps {
		out[i] = models.SpendPoint{
			Date:        p.Date,
			Spend:       roundInt(p.Spend * f),
			Budget:      roundInt(p.Budget * f),
			Conversions: roundInt(p.Conversions * f),
			Impressions: roundInt(p.Impressions * f),
		}
	}
	return out
}

func scaleCampaigns(cs []models.Campaign, f float64) []models.Campaign {
	out := make([]models.Campaign, len(cs))
	for i, c := range cs {
		out[i] = models.Campaign{
			Name:        c.Name,
			Spend:       roundInt(c.Spend * f),
			CTR:         roundN(c.CTR*ratioNudge(f, 0.95, 1.05), 2),
			Conversions: roundInt(c.Conversions * f),
			CPA:         roundN(c.CPA*ratioNudge(f, 1.05, 0.95), 2),
			ROAS:        roundN(c.ROAS*ratioNudge(f, 0.9, 1.1), 1),
			Revenue:     roundInt(c.Revenue * f),
		}
	}
	return out
}

func scaleCreatives(cs []models.Creative, f float64) []models.Creative {
	out := make([]models.Creative, len(cs))
	for i, c := range cs {
		out[i] = models.Creative{
			Name:        c.Name,
			Format:      c.Format,
			Impressions: roundInt(c.Impressions * f),
			Clicks:      roundInt(c.Clicks * f),
			CTR:         roundN(c.CTR*ratioNudge(f, 0.95, 1.05), 2),
			CPC:         roundN(c.CPC*ratioNudge(f, 1.1, 0.9), 2),
			CPA:         roundN(c.CPA*ratioNudge(f, 1.05, 0.95), 2),
			Conversions: roundInt(c.Conversions * f),
			ROAS:        roundN(c.ROAS*ratioNudge(f, 0.9, 1.1), 1),
			Spend:       roundInt(c.Spend * f),
			Revenue:     roundInt(c.Revenue * f),
		}
	}
	return out
}

// Engagement rates and per-week posting cadence are account properties and
// do not scale.
func scaleOrganic(ms []models.AccountMetrics, f float64) []models.AccountMetrics {
	out := make([]models.AccountMetrics, len(ms))
	for i, m := range ms {
		out[i] = models.AccountMetrics{
			Account:        m.Account,
			Posts:          roundInt(m.Posts * f),
			AvgPostScore:   roundInt(m.AvgPostScore * f),
			RepliesPerPost: roundInt(m.RepliesPerPost * f),
			EngagementRate: m.EngagementRate,
		}
	}
	return out
}

func scaleKarma(ps []models.KarmaPoint, f float64) []models.KarmaPoint {
	out := make([]models.KarmaPoint, len(ps))
	for i, p := range ps {
		acc := make(map[string]float64, len(p.Accounts))
		for k, v := range p.Accounts {
			acc[k] = roundInt(v * f)
		}
		out[i] = models.KarmaPoint{Date: p.Date, Accounts: acc}
	}
	return out
}

func scaleAccountRows(rs []models.AccountRow, f float64) []models.AccountRow {
	out := make([]models.AccountRow, len(rs))
	for i, r := range rs {
		trend := make([]float64, len(r.KarmaTrend))
		for j, v := range r.KarmaTrend {
			trend[j] = roundInt(v * f)
		}
		out[i] = models.AccountRow{
			AccountName:           r.AccountName,
			PostsPerWeek:          r.PostsPerWeek,
			KarmaVelocity:         roundInt(r.KarmaVelocity * f),
			EngagementRate:        r.EngagementRate,
			AttributedConversions: roundInt(r.AttributedConversions * f),
			AttributedRevenue:     roundInt(r.AttributedRevenue * f),
			KarmaTrend:            trend,
			Impressions:           roundInt(r.Impressions * f),
			TrafficContribution:   roundInt(r.TrafficContribution * f),
			DeltaConversions:      r.DeltaConversions,
			DeltaRevenue:          r.DeltaRevenue,
		}
	}
	return out
}

func scaleSubredditKPIs(k models.SubredditKPIs, f float64) models.SubredditKPIs {
	return models.SubredditKPIs{
		SubredditValues:  scaleSubredditValues(k.SubredditValues, f),
		FollowerGrowth:   roundInt(k.FollowerGrowth * f),
		PostingFrequency: roundN(k.PostingFrequency*ratioNudge(f, 0.9, 1.1), 1),
		PreviousPeriod:   scaleSubredditValues(k.PreviousPeriod, f),
	}
}

func scaleSubredditValues(v models.SubredditValues, f float64) models.SubredditValues {
	return models.SubredditValues{
		Followers:            roundInt(v.Followers * f),
		TotalImpressions:     roundInt(v.TotalImpressions * f),
		TotalEngagement:      roundInt(v.TotalEngagement * f),
		TrafficFromSubreddit: roundInt(v.TrafficFromSubreddit * f),
		Conversions:          roundInt(v.Conversions * f),
		Revenue:              roundInt(v.Revenue * f),
	}
}

func scaleSubredditGrowth(ps []models.SubredditGrowthPoint, f float64) []models.SubredditGrowthPoint {
	out := make([]models.SubredditGrowthPoint, len(ps))
	for i, p := range ps {
		out[i] = models.SubredditGrowthPoint{
			Date:        p.Date,
			Followers:   roundInt(p.Followers * f),
			Impressions: roundInt(p.Impressions * f),
			Upvotes:     roundInt(p.Upvotes * f),
			Comments:    roundInt(p.Comments * f),
		}
	}
	return out
}

func scaleSEOGEOKPIs(k models.SEOGEOKPIs, f float64) models.SEOGEOKPIs {
	return models.SEOGEOKPIs{SEOGEOValues: scaleSEOGEOValues(k.SEOGEOValues, f), PreviousPeriod: scaleSEOGEOValues(k.PreviousPeriod, f)}
}

// Visibility indices are 0-100 scores; they take the ratio nudge, not the factor.
func scaleSEOGEOValues(v models.SEOGEOValues, f float64) models.SEOGEOValues {
	return models.SEOGEOValues{
		LLMReferralTraffic:    roundInt(v.LLMReferralTraffic * f),
		RedditVisibilityIndex: roundInt(v.RedditVisibilityIndex * ratioNudge(f, 0.95, 1.05)),
		SearchVisibilityScore: roundInt(v.SearchVisibilityScore * ratioNudge(f, 0.95, 1.05)),
		TotalLLMSessions:      roundInt(v.TotalLLMSessions * f),
	}
}

func scaleLLMReferrals(ps []models.LLMReferralPoint, f float64) []models.LLMReferralPoint {
	out := make([]models.LLMReferralPoint, len(ps))
	for i, p := range ps {
		out[i] = models.LLMReferralPoint{
			Date:       p.Date,
			ChatGPT:    roundInt(p.ChatGPT * f),
			Perplexity: roundInt(p.Perplexity * f),
			Gemini:     roundInt(p.Gemini * f),
			Other:      roundInt(p.Other * f),
		}
	}
	return out
}

func scaleVisibility(ps []models.SearchVisibilityPoint, f float64) []models.SearchVisibilityPoint {
	out := make([]models.SearchVisibilityPoint, len(ps))
	n := ratioNudge(f, 0.95, 1.05)
	for i, p := range ps {
		out[i] = models.SearchVisibilityPoint{
			Date:             p.Date,
			RedditVisibility: roundInt(p.RedditVisibility * n),
			SearchVisibility: roundInt(p.SearchVisibility * n),
		}
	}
	return out
}

// ratioNudge picks up for factors above 1 and down for everything else.
func ratioNudge(f, up, down float64) float64 {
	if f > 1 {
		return up
	}
	return down
}

func roundInt(f float64) float64 { return math.Floor(f + 0.5) }

func roundN(f float64, n int) float64 { return utils.ToFixed(f, n) }
