// Package attribution estimates how much of a traffic lift or channel mix can be
// attributed to Reddit activity. Every function here is pure and never fails:
// degenerate inputs (empty series, zero baseline, zero revenue) resolve to zero values.
package attribution

import (
	"math"
	"strings"

	"github.com/AngelCh415/recho/internal/models"
	"github.com/AngelCh415/recho/internal/utils"
)

// RedditInfluenceFactor is the share of a detected lift, or of qualifying
// channel sessions, attributed to Reddit.
const RedditInfluenceFactor = 0.25

// liftSpikeFloor gates spike flagging on unassigned/direct channels.
const liftSpikeFloor = 10.0

const (
	scoreReddit     = 0.95
	scoreUnassigned = 0.45
	scoreOther      = 0.15
)

// Engine carries the influence factor. The zero value uses RedditInfluenceFactor.
type Engine struct {
	factor float64
}

// New returns an Engine for factor; non-positive or non-finite factors fall
// back to RedditInfluenceFactor.
func New(factor float64) Engine {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		factor = RedditInfluenceFactor
	}
	return Engine{factor: factor}
}

// Factor is the influence factor the engine applies.
func (e Engine) Factor() float64 {
	if e.factor <= 0 {
		return RedditInfluenceFactor
	}
	return e.factor
}

var std = Engine{factor: RedditInfluenceFactor}

// ComputeInferredLift runs Engine.ComputeInferredLift with the default factor.
func ComputeInferredLift(baseline, spike []float64) models.AttributionResult {
	return std.ComputeInferredLift(baseline, spike)
}

// ComputeEnhancedAttribution runs Engine.ComputeEnhancedAttribution with the default factor.
func ComputeEnhancedAttribution(baseline, spike []float64, channels []models.ChannelBreakdown, directRedditTraffic, totalRevenue float64) models.EnhancedAttributionResult {
	return std.ComputeEnhancedAttribution(baseline, spike, channels, directRedditTraffic, totalRevenue)
}

// ComputeInferredLift compares the mean of the spike window against the mean of
// the baseline window. Rounding is applied to the returned fields only.
func (e Engine) ComputeInferredLift(baselineValues, spikeValues []float64) models.AttributionResult {
	f := e.Factor()
	baseline := mean(baselineValues)
	spike := mean(spikeValues)

	lift := 0.0
	if baseline > 0 {
		lift = (spike - baseline) / baseline * 100
	}
	influence := (spike - baseline) * f
	influencePct := lift * f

	return models.AttributionResult{
		Baseline:                 roundInt(baseline),
		Spike:                    roundInt(spike),
		LiftPercent:              round1(lift),
		InferredInfluence:        roundInt(influence),
		InferredInfluencePercent: round1(influencePct),
	}
}

// ComputeEnhancedAttribution layers GA4-style channel heuristics on top of the
// basic lift. directRedditTraffic is passed through untouched.
func (e Engine) ComputeEnhancedAttribution(baselineValues, spikeValues []float64, channels []models.ChannelBreakdown, directRedditTraffic, totalRevenue float64) models.EnhancedAttributionResult {
	f := e.Factor()
	basic := e.ComputeInferredLift(baselineValues, spikeValues)

	correlations := make([]models.ChannelCorrelation, 0, len(channels))
	var unassignedSessions, conversions, revenue float64
	for _, ch := range channels {
		class := Classify(ch.Channel)
		correlations = append(correlations, models.ChannelCorrelation{
			Channel:          ch.Channel,
			Sessions:         ch.Sessions,
			SpikeDetected:    class == ClassReddit || (class == ClassUnassigned && basic.LiftPercent > liftSpikeFloor),
			CorrelationScore: class.Score(),
		})
		if countsAsInferredTraffic(ch.Channel) {
			unassignedSessions += ch.Sessions
		}
		if class == ClassReddit {
			conversions += ch.Conversions
			revenue += ch.Revenue
		}
	}

	influencePct := 0.0
	if totalRevenue > 0 {
		influencePct = round1(revenue / totalRevenue * 100)
	}

	return models.EnhancedAttributionResult{
		AttributionResult:          basic,
		DirectRedditTraffic:        directRedditTraffic,
		InferredRedditTraffic:      roundInt(unassignedSessions * f),
		TotalAttributedConversions: conversions,
		TotalAttributedRevenue:     revenue,
		RevenueInfluencePercent:    influencePct,
		ChannelCorrelations:        correlations,
	}
}

// ChannelClass is derived from the channel label alone.
type ChannelClass int

const (
	ClassOther ChannelClass = iota
	ClassUnassigned
	ClassReddit
)

func (c ChannelClass) String() string {
	switch c {
	case ClassReddit:
		return "reddit"
	case ClassUnassigned:
		return "unassigned"
	default:
		return "other"
	}
}

func (c ChannelClass) Score() float64 {
	switch c {
	case ClassReddit:
		return scoreReddit
	case ClassUnassigned:
		return scoreUnassigned
	default:
		return scoreOther
	}
}

// Classify matches case-insensitive substrings. Reddit-related wins over
// unassigned/direct, so "Direct (Inferred)" is Reddit-related.
func Classify(label string) ChannelClass {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "reddit") || strings.Contains(l, "inferred"):
		return ClassReddit
	case strings.Contains(l, "unassigned") || strings.Contains(l, "direct"):
		return ClassUnassigned
	default:
		return ClassOther
	}
}

// countsAsInferredTraffic is narrower than ClassUnassigned: a plain "Direct"
// channel does not contribute to inferred Reddit traffic.
func countsAsInferredTraffic(label string) bool {
	l := strings.ToLower(label)
	return strings.Contains(l, "unassigned") || l == "direct (inferred)"
}

// CalculateChange is the period-over-period percent change shown on KPI cards.
func CalculateChange(current, previous float64) models.KPIChange {
	if previous == 0 {
		return models.KPIChange{Value: 0, IsPositive: current >= 0}
	}
	change := (current - previous) / previous * 100
	return models.KPIChange{Value: round1(math.Abs(change)), IsPositive: change >= 0}
}

// SplitBaseline returns the first n points as the baseline window and the
// rest as the spike window. Series no longer than n are split in half.
func SplitBaseline(values []float64, n int) (baseline, spike []float64) {
	if n <= 0 || len(values) <= n {
		n = len(values) / 2
	}
	return values[:n:n], values[n:]
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

// roundInt rounds halves toward +Inf, so -2.5 becomes -2.
func roundInt(f float64) float64 { return math.Floor(f + 0.5) }

// round1 rounds to one decimal on the exact binary value, so 1.45 gives 1.4.
func round1(f float64) float64 { return utils.ToFixed(f, 1) }
