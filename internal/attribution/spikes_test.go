package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSpikesBelowSampleFloor(t *testing.T) {
	assert.Empty(t, DetectSpikes([]float64{1, 2, 3, 4, 5, 6}, DefaultSpikeThreshold))
	assert.Empty(t, DetectSpikes([]float64{1, 1, 1, 1, 1, 1000}, 0))
	assert.NotNil(t, DetectSpikes(nil, DefaultSpikeThreshold))
}

func TestDetectSpikesSingleOutlier(t *testing.T) {
	vals := []float64{10, 10, 10, 10, 10, 10, 10, 100}
	assert.Equal(t, []int{7}, DetectSpikes(vals, 2.0))
	assert.Equal(t, []float64{10, 10, 10, 10, 10, 10, 10, 100}, vals)
}

func TestDetectSpikesFlatSeries(t *testing.T) {
	// stdDev is zero and no value is strictly above the mean
	assert.Empty(t, DetectSpikes([]float64{5, 5, 5, 5, 5, 5, 5}, 2.0))
}

func TestDetectSpikesOrderAndThreshold(t *testing.T) {
	vals := []float64{40, 45, 42, 120, 44, 41, 43, 118, 46, 40}
	got := DetectSpikes(vals, 1.0)
	assert.Equal(t, []int{3, 7}, got)

	// a very high threshold suppresses everything
	assert.Empty(t, DetectSpikes(vals, 10))
}

func TestDetectSpikesIdempotent(t *testing.T) {
	vals := []float64{3, 9, 4, 4, 5, 30, 4, 3, 2, 6}
	assert.Equal(t, DetectSpikes(vals, DefaultSpikeThreshold), DetectSpikes(vals, DefaultSpikeThreshold))
}
