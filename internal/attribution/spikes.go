package attribution

import "math"

// DefaultSpikeThreshold is the number of standard deviations above the mean a
// value must exceed to be flagged.
const DefaultSpikeThreshold = 2.0

// minSpikeSample is the shortest series DetectSpikes will evaluate.
const minSpikeSample = 7

// DetectSpikes returns the ascending indices of values strictly above
// mean + threshold*stdDev, using the population standard deviation.
// Series shorter than seven points yield no spikes.
func DetectSpikes(values []float64, threshold float64) []int {
	out := []int{}
	if len(values) < minSpikeSample {
		return out
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	limit := m + threshold*math.Sqrt(sq/float64(len(values)))
	for i, v := range values {
		if v > limit {
			out = append(out, i)
		}
	}
	return out
}
