package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdsGetSetRoundTrip(t *testing.T) {
	th := DefaultThresholds()

	for _, key := range ThresholdKeys() {
		require.NoError(t, th.Set(key, 42))
		got, err := th.Get(key)
		require.NoError(t, err)
		assert.Equal(t, float64(42), got, "key %s", key)
	}
}

func TestThresholdsUnknownKey(t *testing.T) {
	th := DefaultThresholds()

	_, err := th.Get("bogus")
	assert.ErrorIs(t, err, ErrUnknownThresholdKey)

	err = th.Set("bogus", 1)
	assert.ErrorIs(t, err, ErrUnknownThresholdKey)
}

func TestThresholdsRejectNonFiniteValues(t *testing.T) {
	th := DefaultThresholds()

	assert.Error(t, th.Set("bounceRate", math.NaN()))
	assert.Error(t, th.Set("bounceRate", math.Inf(1)))
	assert.Error(t, th.Set("bounceRate", -0.5))
	assert.Equal(t, DefaultThresholds().BounceRate, th.BounceRate)
}

func TestThresholdsMapCoversAllKeys(t *testing.T) {
	m := DefaultThresholds().Map()

	assert.Len(t, m, len(ThresholdKeys()))
	assert.Equal(t, float64(5), m["bounceRate"])
	assert.Equal(t, float64(95), m["reviewDeliveryRate"])
}

func TestFraction(t *testing.T) {
	assert.InDelta(t, 0.05, fraction(5), 1e-9)
	assert.InDelta(t, 0.955, fraction(95.5), 1e-9)
	assert.Zero(t, fraction(0))
}
