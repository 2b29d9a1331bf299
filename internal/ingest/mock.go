package ingest

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/AngelCh415/recho/internal/models"
)

// Mock series are seeded by (client, series, day), so the same day always
// yields the same values no matter which range asked for it.

func dayRand(clientID, series string, d time.Time) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(clientID))
	h.Write([]byte{0})
	h.Write([]byte(series))
	h.Write([]byte{0})
	h.Write([]byte(d.Format("2006-01-02")))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func eachDay(r models.DateRange, fn func(i int, d time.Time)) {
	n := r.Days()
	for i := 0; i < n; i++ {
		fn(i, r.From.AddDate(0, 0, i))
	}
}

// spikeStart places the mention burst at 60% of the window, the same spot as
// days 18-19 of a 30-day window.
func spikeStart(n int) int { return n * 3 / 5 }

func mockKPIs() models.KPIData {
	return models.KPIData{
		KPIValues:      models.KPIValues{TotalTraffic: 127432, TotalConversions: 3847, Revenue: 284930, BlendedROAS: 4.2, KarmaGrowth: 15420},
		PreviousPeriod: models.KPIValues{TotalTraffic: 112340, TotalConversions: 3421, Revenue: 241200, BlendedROAS: 3.8, KarmaGrowth: 12800},
	}
}

func mockTimeSeries(clientID string, r models.DateRange) []models.TimeSeriesPoint {
	out := make([]models.TimeSeriesPoint, 0, r.Days())
	eachDay(r, func(i int, d time.Time) {
		rnd := dayRand(clientID, "timeseries", d)
		fi := float64(i)
		out = append(out, models.TimeSeriesPoint{
			Date:        d.Format("2006-01-02"),
			Activity:    math.Floor(80 + rnd.Float64()*40 + fi*1.5),
			Traffic:     math.Floor(3500 + rnd.Float64()*1500 + fi*50),
			Conversions: math.Floor(100 + rnd.Float64()*50 + fi*3),
		})
	})
	return out
}

func mockChannels() models.ChannelSnapshot {
	return models.ChannelSnapshot{
		DirectRedditTraffic: 42800,
		Channels: []models.ChannelBreakdown{
			{Channel: "Reddit Referral", Sessions: 42800, Conversions: 2184, Revenue: 168420},
			{Channel: "Direct (Inferred)", Sessions: 18400, Conversions: 892, Revenue: 64200},
			{Channel: "Unassigned", Sessions: 34200, Conversions: 482, Revenue: 32800},
			{Channel: "Organic Search", Sessions: 128000, Conversions: 3420, Revenue: 248000},
			{Channel: "Social (Other)", Sessions: 24600, Conversions: 612, Revenue: 42300},
		},
	}
}

func mockMentions(clientID string, r models.DateRange) []models.BrandMentionPoint {
	n := r.Days()
	s := spikeStart(n)
	out := make([]models.BrandMentionPoint, 0, n)
	eachDay(r, func(i int, d time.Time) {
		rnd := dayRand(clientID, "mentions", d)
		spike := 0.0
		if n >= 7 && (i == s || i == s+1) {
			spike = 80
		}
		out = append(out, models.BrandMentionPoint{
			Date:     d.Format("2006-01-02"),
			Mentions: math.Floor(40 + rnd.Float64()*30 + spike),
		})
	})
	return out
}

func mockSentiment(clientID string, r models.DateRange) []models.SentimentPoint {
	n := r.Days()
	s := spikeStart(n)
	out := make([]models.SentimentPoint, 0, n)
	eachDay(r, func(i int, d time.Time) {
		rnd := dayRand(clientID, "sentiment", d)
		neg := 0.0
		if n >= 7 && i >= s && i <= s+2 {
			neg = 15
		}
		out = append(out, models.SentimentPoint{
			Date:     d.Format("2006-01-02"),
			Positive: math.Floor(25 + rnd.Float64()*10 - neg/2),
			Neutral:  math.Floor(15 + rnd.Float64()*8),
			Negative: math.Floor(5 + rnd.Float64()*5 + neg),
		})
	})
	return out
}

func mockPaidKPIs() models.PaidKPIs {
	return models.PaidKPIs{
		Spend: 67840, Budget: 85000, CTR: 2.34, CPC: 1.87, CPM: 12.40, CPA: 17.64, ROAS: 4.2,
		Impressions: 5471000, TotalConversions: 3847, TotalRevenue: 284930,
	}
}

func mockSpend(clientID string, r models.DateRange) []models.SpendPoint {
	out := make([]models.SpendPoint, 0, r.Days())
	eachDay(r, func(i int, d time.Time) {
		rnd := dayRand(clientID, "spend", d)
		weekly := 0.0
		if i%7 == 0 {
			weekly = 500
		}
		fi := float64(i)
		out = append(out, models.SpendPoint{
			Date:        d.Format("2006-01-02"),
			Spend:       math.Floor(1800 + rnd.Float64()*600 + weekly),
			Budget:      2833,
			Conversions: math.Floor(90 + rnd.Float64()*40 + fi*1.5),
			Impressions: math.Floor(150000 + rnd.Float64()*60000 + fi*3000),
		})
	})
	return out
}

func mockCampaigns() []models.Campaign {
	return []models.Campaign{
		{Name: "Brand Awareness Q1", Spend: 18500, CTR: 2.1, Conversions: 847, CPA: 21.84, ROAS: 3.8, Revenue: 70300},
		{Name: "Product Launch Feb", Spend: 24200, CTR: 2.8, Conversions: 1423, CPA: 17.01, ROAS: 4.7, Revenue: 113740},
		{Name: "Retargeting - Engaged", Spend: 12400, CTR: 3.2, Conversions: 892, CPA: 13.90, ROAS: 5.2, Revenue: 64480},
		{Name: "Subreddit Targeting", Spend: 8740, CTR: 1.9, Conversions: 412, CPA: 21.21, ROAS: 3.4, Revenue: 29716},
		{Name: "Competitor Keywords", Spend: 4000, CTR: 1.4, Conversions: 273, CPA: 14.65, ROAS: 4.9, Revenue: 19600},
	}
}

func mockCreatives() []models.Creative {
	return []models.Creative{
		{Name: "Video: Product Demo 30s", Format: "Video", Impressions: 1240000, Clicks: 34720, CTR: 2.8, CPC: 1.42, CPA: 14.20, Conversions: 892, ROAS: 5.8, Spend: 12670, Revenue: 73460},
		{Name: "Carousel: Feature Highlights", Format: "Carousel", Impressions: 890000, Clicks: 22250, CTR: 2.5, CPC: 1.78, CPA: 16.80, Conversions: 624, ROAS: 4.6, Spend: 10483, Revenue: 48212},
		{Name: "Static: Brand Awareness", Format: "Image", Impressions: 1560000, Clicks: 28080, CTR: 1.8, CPC: 2.12, CPA: 22.40, Conversions: 478, ROAS: 3.2, Spend: 10710, Revenue: 34272},
		{Name: "Video: Customer Testimonial", Format: "Video", Impressions: 680000, Clicks: 20400, CTR: 3.0, CPC: 1.34, CPA: 12.60, Conversions: 542, ROAS: 6.1, Spend: 6829, Revenue: 41662},
		{Name: "GIF: Quick Tips Series", Format: "GIF", Impressions: 420000, Clicks: 10080, CTR: 2.4, CPC: 1.56, CPA: 18.90, Conversions: 312, ROAS: 3.9, Spend: 5899, Revenue: 23006},
		{Name: "Static: Discount Promo", Format: "Image", Impressions: 980000, Clicks: 14700, CTR: 1.5, CPC: 2.48, CPA: 28.40, Conversions: 198, ROAS: 2.4, Spend: 5625, Revenue: 13500},
	}
}

func mockOrganic() []models.AccountMetrics {
	return []models.AccountMetrics{
		{Account: "u/OfficialBrand", Posts: 24, AvgPostScore: 847, RepliesPerPost: 32, EngagementRate: 4.2},
		{Account: "u/ProductUpdates", Posts: 18, AvgPostScore: 623, RepliesPerPost: 28, EngagementRate: 3.8},
		{Account: "u/CommunityManager", Posts: 45, AvgPostScore: 412, RepliesPerPost: 56, EngagementRate: 5.1},
		{Account: "u/TechSupport", Posts: 67, AvgPostScore: 234, RepliesPerPost: 42, EngagementRate: 6.3},
	}
}

// karmaCurves gives each account a starting total, a daily gain and a jitter range.
var karmaCurves = []struct {
	account             string
	base, slope, jitter float64
}{
	{"u/OfficialBrand", 45000, 180, 100},
	{"u/ProductUpdates", 32000, 120, 80},
	{"u/CommunityManager", 28000, 200, 120},
	{"u/TechSupport", 18000, 80, 50},
}

func mockKarma(clientID string, r models.DateRange) []models.KarmaPoint {
	out := make([]models.KarmaPoint, 0, r.Days())
	eachDay(r, func(i int, d time.Time) {
		rnd := dayRand(clientID, "karma", d)
		acc := make(map[string]float64, len(karmaCurves))
		for _, c := range karmaCurves {
			acc[c.account] = c.base + float64(i)*c.slope + math.Floor(rnd.Float64()*c.jitter)
		}
		out = append(out, models.KarmaPoint{Date: d.Format("2006-01-02"), Accounts: acc})
	})
	return out
}

func mockAccountRows() []models.AccountRow {
	return []models.AccountRow{
		{AccountName: "u/OfficialBrand", PostsPerWeek: 6.0, KarmaVelocity: 1260, EngagementRate: 4.2, AttributedConversions: 1847, AttributedRevenue: 142300,
			KarmaTrend: []float64{42, 45, 43, 48, 52, 55, 58, 61}, Impressions: 892000, TrafficContribution: 42800, DeltaConversions: 12.4, DeltaRevenue: 18.1},
		{AccountName: "u/ProductUpdates", PostsPerWeek: 4.5, KarmaVelocity: 890, EngagementRate: 3.8, AttributedConversions: 1123, AttributedRevenue: 86200,
			KarmaTrend: []float64{30, 32, 31, 34, 35, 38, 40, 42}, Impressions: 654000, TrafficContribution: 31200, DeltaConversions: 8.2, DeltaRevenue: 11.3},
		{AccountName: "u/CommunityManager", PostsPerWeek: 11.3, KarmaVelocity: 1450, EngagementRate: 5.1, AttributedConversions: 612, AttributedRevenue: 38900,
			KarmaTrend: []float64{25, 28, 32, 35, 38, 42, 45, 50}, Impressions: 478000, TrafficContribution: 18600, DeltaConversions: -3.1, DeltaRevenue: -1.8},
		{AccountName: "u/TechSupport", PostsPerWeek: 16.8, KarmaVelocity: 620, EngagementRate: 6.3, AttributedConversions: 265, AttributedRevenue: 17530,
			KarmaTrend: []float64{15, 16, 17, 17, 18, 19, 20, 21}, Impressions: 312000, TrafficContribution: 9400, DeltaConversions: 5.6, DeltaRevenue: 7.2},
	}
}

func mockSubredditKPIs() models.SubredditKPIs {
	return models.SubredditKPIs{
		SubredditValues: models.SubredditValues{Followers: 24680, TotalImpressions: 1240000, TotalEngagement: 48200, TrafficFromSubreddit: 34200, Conversions: 1247, Revenue: 98400},
		FollowerGrowth:   1840,
		PostingFrequency: 4.2,
		PreviousPeriod:   models.SubredditValues{Followers: 22840, TotalImpressions: 1080000, TotalEngagement: 41300, TrafficFromSubreddit: 28900, Conversions: 1082, Revenue: 84200},
	}
}

func mockSubredditGrowth(clientID string, r models.DateRange) []models.SubredditGrowthPoint {
	out := make([]models.SubredditGrowthPoint, 0, r.Days())
	eachDay(r, func(i int, d time.Time) {
		rnd := dayRand(clientID, "subreddit", d)
		fi := float64(i)
		out = append(out, models.SubredditGrowthPoint{
			Date:        d.Format("2006-01-02"),
			Followers:   22840 + fi*62 + math.Floor(rnd.Float64()*30),
			Impressions: math.Floor(35000 + rnd.Float64()*15000 + fi*800),
			Upvotes:     math.Floor(800 + rnd.Float64()*400 + fi*20),
			Comments:    math.Floor(200 + rnd.Float64()*100 + fi*8),
		})
	})
	return out
}

func mockSEOGEOKPIs() models.SEOGEOKPIs {
	return models.SEOGEOKPIs{
		SEOGEOValues:   models.SEOGEOValues{LLMReferralTraffic: 18400, RedditVisibilityIndex: 72, SearchVisibilityScore: 64, TotalLLMSessions: 42800},
		PreviousPeriod: models.SEOGEOValues{LLMReferralTraffic: 14200, RedditVisibilityIndex: 65, SearchVisibilityScore: 58, TotalLLMSessions: 34600},
	}
}

func mockLLMReferrals(clientID string, r models.DateRange) []models.LLMReferralPoint {
	out := make([]models.LLMReferralPoint, 0, r.Days())
	eachDay(r, func(i int, d time.Time) {
		rnd := dayRand(clientID, "llm", d)
		fi := float64(i)
		out = append(out, models.LLMReferralPoint{
			Date:       d.Format("2006-01-02"),
			ChatGPT:    math.Floor(180 + rnd.Float64()*80 + fi*5),
			Perplexity: math.Floor(120 + rnd.Float64()*60 + fi*4),
			Gemini:     math.Floor(80 + rnd.Float64()*40 + fi*3),
			Other:      math.Floor(40 + rnd.Float64()*20 + fi),
		})
	})
	return out
}

func mockVisibility(clientID string, r models.DateRange) []models.SearchVisibilityPoint {
	out := make([]models.SearchVisibilityPoint, 0, r.Days())
	eachDay(r, func(i int, d time.Time) {
		rnd := dayRand(clientID, "visibility", d)
		fi := float64(i)
		out = append(out, models.SearchVisibilityPoint{
			Date:             d.Format("2006-01-02"),
			RedditVisibility: math.Floor(55 + rnd.Float64()*10 + fi*0.5),
			SearchVisibility: math.Floor(48 + rnd.Float64()*8 + fi*0.4),
		})
	})
	return out
}
