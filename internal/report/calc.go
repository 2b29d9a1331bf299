package report

import (
	"fmt"
	"sort"

	"github.com/AngelCh415/recho/internal/attribution"
	"github.com/AngelCh415/recho/internal/models"
	"github.com/AngelCh415/recho/internal/utils"
)

func kpiChanges(k models.KPIData) map[string]models.KPIChange {
	cur, prev := k.KPIValues, k.PreviousPeriod
	return map[string]models.KPIChange{
		"total_traffic":     attribution.CalculateChange(cur.TotalTraffic, prev.TotalTraffic),
		"total_conversions": attribution.CalculateChange(cur.TotalConversions, prev.TotalConversions),
		"revenue":           attribution.CalculateChange(cur.Revenue, prev.Revenue),
		"blended_roas":      attribution.CalculateChange(cur.BlendedROAS, prev.BlendedROAS),
		"karma_growth":      attribution.CalculateChange(cur.KarmaGrowth, prev.KarmaGrowth),
	}
}

func subredditChanges(k models.SubredditKPIs) map[string]models.KPIChange {
	cur, prev := k.SubredditValues, k.PreviousPeriod
	return map[string]models.KPIChange{
		"followers":              attribution.CalculateChange(cur.Followers, prev.Followers),
		"total_impressions":      attribution.CalculateChange(cur.TotalImpressions, prev.TotalImpressions),
		"total_engagement":       attribution.CalculateChange(cur.TotalEngagement, prev.TotalEngagement),
		"traffic_from_subreddit": attribution.CalculateChange(cur.TrafficFromSubreddit, prev.TrafficFromSubreddit),
		"conversions":            attribution.CalculateChange(cur.Conversions, prev.Conversions),
		"revenue":                attribution.CalculateChange(cur.Revenue, prev.Revenue),
	}
}

func seoGeoChanges(k models.SEOGEOKPIs) map[string]models.KPIChange {
	cur, prev := k.SEOGEOValues, k.PreviousPeriod
	return map[string]models.KPIChange{
		"llm_referral_traffic":    attribution.CalculateChange(cur.LLMReferralTraffic, prev.LLMReferralTraffic),
		"reddit_visibility_index": attribution.CalculateChange(cur.RedditVisibilityIndex, prev.RedditVisibilityIndex),
		"search_visibility_score": attribution.CalculateChange(cur.SearchVisibilityScore, prev.SearchVisibilityScore),
		"total_llm_sessions":      attribution.CalculateChange(cur.TotalLLMSessions, prev.TotalLLMSessions),
	}
}

// weeklySpend buckets the daily series into 7-day weeks from the first day;
// a trailing partial week is kept.
func weeklySpend(ps []models.SpendPoint) []models.WeeklySpend {
	out := make([]models.WeeklySpend, 0, (len(ps)+6)/7)
	for start := 0; start < len(ps); start += 7 {
		end := min(start+7, len(ps))
		var w models.WeeklySpend
		for _, p := range ps[start:end] {
			w.Spend += p.Spend
			w.Budget += p.Budget
		}
		w.Week = fmt.Sprintf("Week %d", start/7+1)
		w.Pacing = pct(w.Spend, w.Budget)
		out = append(out, w)
	}
	return out
}

// karmaGains is the day-over-day karma gain summed over accounts; it has one
// point fewer than the karma series.
func karmaGains(ps []models.KarmaPoint) []float64 {
	if len(ps) < 2 {
		return []float64{}
	}
	out := make([]float64, len(ps)-1)
	for i := 1; i < len(ps); i++ {
		for acc, v := range ps[i].Accounts {
			out[i-1] += v - ps[i-1].Accounts[acc]
		}
	}
	return out
}

func karmaGrowth(ps []models.KarmaPoint) map[string]float64 {
	out := map[string]float64{}
	if len(ps) == 0 {
		return out
	}
	first, last := ps[0].Accounts, ps[len(ps)-1].Accounts
	for acc, v := range last {
		out[acc] = v - first[acc]
	}
	return out
}

func accountTotals(rows []models.AccountRow) (models.AccountsTotals, map[string]float64) {
	var t models.AccountsTotals
	for _, r := range rows {
		t.Conversions += r.AttributedConversions
		t.Revenue += r.AttributedRevenue
		t.Impressions += r.Impressions
		t.Traffic += r.TrafficContribution
	}
	share := make(map[string]float64, len(rows))
	for _, r := range rows {
		share[r.AccountName] = pct(r.AttributedRevenue, t.Revenue)
	}
	return t, share
}

func referralShare(ps []models.LLMReferralPoint) map[string]float64 {
	var gpt, pplx, gem, other float64
	for _, p := range ps {
		gpt += p.ChatGPT
		pplx += p.Perplexity
		gem += p.Gemini
		other += p.Other
	}
	total := gpt + pplx + gem + other
	return map[string]float64{
		"chatgpt":    pct(gpt, total),
		"perplexity": pct(pplx, total),
		"gemini":     pct(gem, total),
		"other":      pct(other, total),
	}
}

// totalRevenue is the revenue denominator for attribution: every channel, Reddit or not.
func totalRevenue(chs []models.ChannelBreakdown) float64 {
	var sum float64
	for _, c := range chs {
		sum += c.Revenue
	}
	return sum
}

func sentimentShare(ps []models.SentimentPoint) models.SentimentShare {
	var pos, neu, neg float64
	for _, p := range ps {
		pos += p.Positive
		neu += p.Neutral
		neg += p.Negative
	}
	total := pos + neu + neg
	return models.SentimentShare{
		PositivePercent: pct(pos, total),
		NeutralPercent:  pct(neu, total),
		NegativePercent: pct(neg, total),
	}
}

// brandAlerts emits one alert per spike day, ordered by date; mention alerts
// come before sentiment alerts on the same day.
func brandAlerts(mentions []models.BrandMentionPoint, counts []float64, mentionSpikes []int, sentiment []models.SentimentPoint, negativeSpikes []int) []models.Alert {
	out := make([]models.Alert, 0, len(mentionSpikes)+len(negativeSpikes))
	avg := mean(counts)
	for _, i := range mentionSpikes {
		m := mentions[i]
		desc := fmt.Sprintf("Brand mentions reached %.0f on %s.", m.Mentions, m.Date)
		if avg > 0 {
			desc = fmt.Sprintf("Brand mentions reached %.0f on %s, %.0f%% above the period average.", m.Mentions, m.Date, (m.Mentions-avg)/avg*100)
		}
		out = append(out, models.Alert{Type: models.AlertWarning, Title: "Mentions Spike Detected", Description: desc, Date: m.Date})
	}
	for _, i := range negativeSpikes {
		p := sentiment[i]
		share := pct(p.Negative, p.Positive+p.Neutral+p.Negative)
		out = append(out, models.Alert{
			Type:        models.AlertDanger,
			Title:       "Negative Sentiment Increase",
			Description: fmt.Sprintf("Negative sentiment rose to %.0f%% of mentions on %s.", share, p.Date),
			Date:        p.Date,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// pct is part/whole as a one-decimal percentage, 0 when whole is not positive.
func pct(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return round1(part / whole * 100)
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func round1(f float64) float64 { return utils.ToFixed(f, 1) }
