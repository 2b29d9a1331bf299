package models

import "time"

type Client struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Industry string  `json:"industry" yaml:"industry"`
	Factor   float64 `json:"-" yaml:"factor"`
}

type DateRange struct {
	Preset string    `json:"preset"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
}

// Days returns the inclusive number of days covered by the range.
func (r DateRange) Days() int {
	if r.To.Before(r.From) {
		return 0
	}
	return int(r.To.Sub(r.From).Hours()/24) + 1
}

type ChannelBreakdown struct {
	Channel     string  `json:"channel" validate:"required"`
	Sessions    float64 `json:"sessions" validate:"gte=0,lte=1e15"`
	Conversions float64 `json:"conversions" validate:"gte=0,lte=1e15"`
	Revenue     float64 `json:"revenue" validate:"gte=0,lte=1e15"`
}

type AttributionResult struct {
	Baseline                 float64 `json:"baseline"`
	Spike                    float64 `json:"spike"`
	LiftPercent              float64 `json:"lift_percent"`
	InferredInfluence        float64 `json:"inferred_influence"`
	InferredInfluencePercent float64 `json:"inferred_influence_percent"`
}

type ChannelCorrelation struct {
	Channel          string  `json:"channel"`
	Sessions         float64 `json:"sessions"`
	SpikeDetected    bool    `json:"spike_detected"`
	CorrelationScore float64 `json:"correlation_score"`
}

type EnhancedAttributionResult struct {
	AttributionResult
	DirectRedditTraffic        float64              `json:"direct_reddit_traffic"`
	InferredRedditTraffic      float64              `json:"inferred_reddit_traffic"`
	TotalAttributedConversions float64              `json:"total_attributed_conversions"`
	TotalAttributedRevenue     float64              `json:"total_attributed_revenue"`
	RevenueInfluencePercent    float64              `json:"revenue_influence_percent"`
	ChannelCorrelations        []ChannelCorrelation `json:"channel_correlations"`
}

type KPIChange struct {
	Value      float64 `json:"value"`
	IsPositive bool    `json:"is_positive"`
}

type KPIValues struct {
	TotalTraffic     float64 `json:"total_traffic"`
	TotalConversions float64 `json:"total_conversions"`
	Revenue          float64 `json:"revenue"`
	BlendedROAS      float64 `json:"blended_roas"`
	KarmaGrowth      float64 `json:"karma_growth"`
}

type KPIData struct {
	KPIValues
	PreviousPeriod KPIValues `json:"previous_period"`
}

// OverviewSnapshot is one row of the overview_snapshots table.
type OverviewSnapshot struct {
	ClientID         string    `json:"client_id" validate:"required"`
	Date             time.Time `json:"date" validate:"required"`
	TotalTraffic     float64   `json:"total_traffic" validate:"gte=0"`
	TotalConversions float64   `json:"total_conversions" validate:"gte=0"`
	Revenue          float64   `json:"revenue" validate:"gte=0"`
	BlendedROAS      float64   `json:"blended_roas" validate:"gte=0"`
	KarmaGrowth      float64   `json:"karma_growth"`
}

type TimeSeriesPoint struct {
	Date        string  `json:"date"`
	Activity    float64 `json:"activity"`
	Traffic     float64 `json:"traffic"`
	Conversions float64 `json:"conversions"`
}

type ChannelSnapshot struct {
	DirectRedditTraffic float64            `json:"direct_reddit_traffic"`
	Channels            []ChannelBreakdown `json:"channels"`
}

type BrandMentionPoint struct {
	Date     string  `json:"date"`
	Mentions float64 `json:"mentions"`
}

type SentimentPoint struct {
	Date     string  `json:"date"`
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

type SentimentShare struct {
	PositivePercent float64 `json:"positive_percent"`
	NeutralPercent  float64 `json:"neutral_percent"`
	NegativePercent float64 `json:"negative_percent"`
}

type PaidKPIs struct {
	Spend            float64 `json:"spend"`
	Budget           float64 `json:"budget"`
	CTR              float64 `json:"ctr"`
	CPC              float64 `json:"cpc"`
	CPM              float64 `json:"cpm"`
	CPA              float64 `json:"cpa"`
	ROAS             float64 `json:"roas"`
	Impressions      float64 `json:"impressions"`
	TotalConversions float64 `json:"total_conversions"`
	TotalRevenue     float64 `json:"total_revenue"`
}

type SpendPoint struct {
	Date        string  `json:"date"`
	Spend       float64 `json:"spend"`
	Budget      float64 `json:"budget"`
	Conversions float64 `json:"conversions"`
	Impressions float64 `json:"impressions"`
}

type AlertType string

const (
	AlertWarning AlertType = "warning"
	AlertDanger  AlertType = "danger"
)

type Alert struct {
	Type        AlertType `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
}

type OverviewReport struct {
	Client        Client                    `json:"client"`
	Range         DateRange                 `json:"range"`
	KPIs          KPIData                   `json:"kpis"`
	Changes       map[string]KPIChange      `json:"changes"`
	TimeSeries    []TimeSeriesPoint         `json:"time_series"`
	Attribution   AttributionResult         `json:"attribution"`
	Enhanced      EnhancedAttributionResult `json:"enhanced_attribution"`
	Channels      []ChannelBreakdown        `json:"channels"`
	TrafficSpikes []int                     `json:"traffic_spikes"`
}

type AttributionReport struct {
	Client   Client                    `json:"client"`
	Range    DateRange                 `json:"range"`
	Enhanced EnhancedAttributionResult `json:"enhanced_attribution"`
	Channels []ChannelBreakdown        `json:"channels"`
}

type BrandReport struct {
	Client         Client              `json:"client"`
	Range          DateRange           `json:"range"`
	Mentions       []BrandMentionPoint `json:"mentions"`
	TotalMentions  float64             `json:"total_mentions"`
	Sentiment      []SentimentPoint    `json:"sentiment"`
	SentimentShare SentimentShare      `json:"sentiment_share"`
	MentionSpikes  []int               `json:"mention_spikes"`
	NegativeSpikes []int               `json:"negative_spikes"`
	Alerts         []Alert             `json:"alerts"`
}

type PaidReport struct {
	Client      Client        `json:"client"`
	Range       DateRange     `json:"range"`
	KPIs        PaidKPIs      `json:"kpis"`
	Pacing      float64       `json:"pacing_percent"`
	Spend       []SpendPoint  `json:"spend"`
	SpendSpikes []int         `json:"spend_spikes"`
	Weekly      []WeeklySpend `json:"weekly"`
	Campaigns   []Campaign    `json:"campaigns"`
	Creatives   []Creative    `json:"creatives"`
}

type Campaign struct {
	Name        string  `json:"campaign_name"`
	Spend       float64 `json:"spend"`
	CTR         float64 `json:"ctr"`
	Conversions float64 `json:"conversions"`
	CPA         float64 `json:"cpa"`
	ROAS        float64 `json:"roas"`
	Revenue     float64 `json:"revenue"`
}

type Creative struct {
	Name        string  `json:"creative_name"`
	Format      string  `json:"format"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	CTR         float64 `json:"ctr"`
	CPC         float64 `json:"cpc"`
	CPA         float64 `json:"cpa"`
	Conversions float64 `json:"conversions"`
	ROAS        float64 `json:"roas"`
	Spend       float64 `json:"spend"`
	Revenue     float64 `json:"revenue"`
}

// WeeklySpend rolls the daily spend series up into seven-day buckets.
type WeeklySpend struct {
	Week   string  `json:"week"`
	Spend  float64 `json:"spend"`
	Budget float64 `json:"budget"`
	Pacing float64 `json:"pacing"`
}

// AccountMetrics is the organic posting summary for one Reddit account.
type AccountMetrics struct {
	Account        string  `json:"account"`
	Posts          float64 `json:"posts"`
	AvgPostScore   float64 `json:"avg_post_score"`
	RepliesPerPost float64 `json:"replies_per_post"`
	EngagementRate float64 `json:"engagement_rate"`
}

// KarmaPoint holds each account's karma total on one day.
type KarmaPoint struct {
	Date     string             `json:"date"`
	Accounts map[string]float64 `json:"accounts"`
}

type AccountRow struct {
	AccountName           string    `json:"account_name"`
	PostsPerWeek          float64   `json:"posts_per_week"`
	KarmaVelocity         float64   `json:"karma_velocity"`
	EngagementRate        float64   `json:"engagement_rate"`
	AttributedConversions float64   `json:"attributed_conversions"`
	AttributedRevenue     float64   `json:"attributed_revenue"`
	KarmaTrend            []float64 `json:"karma_trend"`
	Impressions           float64   `json:"impressions"`
	TrafficContribution   float64   `json:"traffic_contribution"`
	DeltaConversions      float64   `json:"delta_conversions"`
	DeltaRevenue          float64   `json:"delta_revenue"`
}

type SubredditValues struct {
	Followers            float64 `json:"followers"`
	TotalImpressions     float64 `json:"total_impressions"`
	TotalEngagement      float64 `json:"total_engagement"`
	TrafficFromSubreddit float64 `json:"traffic_from_subreddit"`
	Conversions          float64 `json:"conversions"`
	Revenue              float64 `json:"revenue"`
}

type SubredditKPIs struct {
	SubredditValues
	FollowerGrowth   float64         `json:"follower_growth"`
	PostingFrequency float64         `json:"posting_frequency"`
	PreviousPeriod   SubredditValues `json:"previous_period"`
}

type SubredditGrowthPoint struct {
	Date        string  `json:"date"`
	Followers   float64 `json:"followers"`
	Impressions float64 `json:"impressions"`
	Upvotes     float64 `json:"upvotes"`
	Comments    float64 `json:"comments"`
}

type SEOGEOValues struct {
	LLMReferralTraffic    float64 `json:"llm_referral_traffic"`
	RedditVisibilityIndex float64 `json:"reddit_visibility_index"`
	SearchVisibilityScore float64 `json:"search_visibility_score"`
	TotalLLMSessions      float64 `json:"total_llm_sessions"`
}

type SEOGEOKPIs struct {
	SEOGEOValues
	PreviousPeriod SEOGEOValues `json:"previous_period"`
}

// LLMReferralPoint is one day of sessions referred by AI assistants.
type LLMReferralPoint struct {
	Date       string  `json:"date"`
	ChatGPT    float64 `json:"chatgpt"`
	Perplexity float64 `json:"perplexity"`
	Gemini     float64 `json:"gemini"`
	Other      float64 `json:"other"`
}

func (p LLMReferralPoint) Total() float64 { return p.ChatGPT + p.Perplexity + p.Gemini + p.Other }

type SearchVisibilityPoint struct {
	Date             string  `json:"date"`
	RedditVisibility float64 `json:"reddit_visibility"`
	SearchVisibility float64 `json:"search_visibility"`
}

type OrganicReport struct {
	Client      Client             `json:"client"`
	Range       DateRange          `json:"range"`
	Accounts    []AccountMetrics   `json:"accounts"`
	TotalPosts  float64            `json:"total_posts"`
	Karma       []KarmaPoint       `json:"karma"`
	KarmaGrowth map[string]float64 `json:"karma_growth"`
	KarmaSpikes []int              `json:"karma_spikes"`
}

type SubredditReport struct {
	Client           Client                 `json:"client"`
	Range            DateRange              `json:"range"`
	KPIs             SubredditKPIs          `json:"kpis"`
	Changes          map[string]KPIChange   `json:"changes"`
	Growth           []SubredditGrowthPoint `json:"growth"`
	ImpressionSpikes []int                  `json:"impression_spikes"`
}

type AccountsTotals struct {
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"revenue"`
	Impressions float64 `json:"impressions"`
	Traffic     float64 `json:"traffic"`
}

type AccountsReport struct {
	Client       Client             `json:"client"`
	Range        DateRange          `json:"range"`
	Accounts     []AccountRow       `json:"accounts"`
	Totals       AccountsTotals     `json:"totals"`
	RevenueShare map[string]float64 `json:"revenue_share_percent"`
}

type SEOGEOReport struct {
	Client        Client                  `json:"client"`
	Range         DateRange               `json:"range"`
	KPIs          SEOGEOKPIs              `json:"kpis"`
	Changes       map[string]KPIChange    `json:"changes"`
	LLMReferrals  []LLMReferralPoint      `json:"llm_referrals"`
	ReferralShare map[string]float64      `json:"referral_share_percent"`
	Visibility    []SearchVisibilityPoint `json:"visibility"`
	LLMSpikes     []int                   `json:"llm_spikes"`
}
