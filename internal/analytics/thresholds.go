package analytics

import (
	"fmt"
	"math"
)

// Thresholds holds the configurable alert and review threshold values.
// Percentage-like values are stored as whole numbers (5 means 5%) and
// converted to fractional form before being compared against rates.
// LowActivityCampaigns is a plain count.
//
// Two independent families live here: region-level alerting thresholds
// (bounce/unsub/activity/engagement, used in overview mode) and
// campaign-review thresholds (open/click/delivery minimums, used only in
// single-region detail mode).
type Thresholds struct {
	BounceRate           float64 `json:"bounceRate"`
	UnsubRate            float64 `json:"unsubRate"`
	LowActivityCampaigns float64 `json:"lowActivityCampaigns"`
	LowOpenRate          float64 `json:"lowOpenRate"`
	LowClickRate         float64 `json:"lowClickRate"`
	ReviewOpenRate       float64 `json:"reviewOpenRate"`
	ReviewClickRate      float64 `json:"reviewClickRate"`
	ReviewDeliveryRate   float64 `json:"reviewDeliveryRate"`
}

// DefaultThresholds returns the documented default threshold values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BounceRate:           5,
		UnsubRate:            1,
		LowActivityCampaigns: 2,
		LowOpenRate:          15,
		LowClickRate:         1,
		ReviewOpenRate:       20,
		ReviewClickRate:      2,
		ReviewDeliveryRate:   95,
	}
}

// ErrUnknownThresholdKey is returned by Set for unrecognized keys.
var ErrUnknownThresholdKey = fmt.Errorf("unknown threshold key")

// ThresholdKeys lists the recognized threshold keys in a stable order.
func ThresholdKeys() []string {
	return []string{
		"bounceRate",
		"unsubRate",
		"lowActivityCampaigns",
		"lowOpenRate",
		"lowClickRate",
		"reviewOpenRate",
		"reviewClickRate",
		"reviewDeliveryRate",
	}
}

// Get returns the value for a named threshold key.
func (t Thresholds) Get(key string) (float64, error) {
	switch key {
	case "bounceRate":
		return t.BounceRate, nil
	case "unsubRate":
		return t.UnsubRate, nil
	case "lowActivityCampaigns":
		return t.LowActivityCampaigns, nil
	case "lowOpenRate":
		return t.LowOpenRate, nil
	case "lowClickRate":
		return t.LowClickRate, nil
	case "reviewOpenRate":
		return t.ReviewOpenRate, nil
	case "reviewClickRate":
		return t.ReviewClickRate, nil
	case "reviewDeliveryRate":
		return t.ReviewDeliveryRate, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownThresholdKey, key)
	}
}

// Set assigns a value to a named threshold key. Values must be finite and
// non-negative.
func (t *Thresholds) Set(key string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return fmt.Errorf("invalid threshold value %v for key %q", value, key)
	}
	switch key {
	case "bounceRate":
		t.BounceRate = value
	case "unsubRate":
		t.UnsubRate = value
	case "lowActivityCampaigns":
		t.LowActivityCampaigns = value
	case "lowOpenRate":
		t.LowOpenRate = value
	case "lowClickRate":
		t.LowClickRate = value
	case "reviewOpenRate":
		t.ReviewOpenRate = value
	case "reviewClickRate":
		t.ReviewClickRate = value
	case "reviewDeliveryRate":
		t.ReviewDeliveryRate = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownThresholdKey, key)
	}
	return nil
}

// Map returns the thresholds as a flat key/value map.
func (t Thresholds) Map() map[string]float64 {
	m := make(map[string]float64, 8)
	for _, key := range ThresholdKeys() {
		v, _ := t.Get(key)
		m[key] = v
	}
	return m
}

// fraction converts a whole-number percentage to its fractional form.
func fraction(pct float64) float64 {
	return pct / 100
}
