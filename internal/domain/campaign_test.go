package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSentAt(t *testing.T) {
	c := Campaign{SendTime: "2025-06-01T10:30:00+00:00"}
	assert.Equal(t, time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC), c.SentAt().UTC())

	assert.True(t, (&Campaign{}).SentAt().IsZero())
	assert.True(t, (&Campaign{SendTime: "yesterday"}).SentAt().IsZero())
}

func TestDeliveryRate(t *testing.T) {
	c := Campaign{EmailsSent: 1000, Bounces: 30}
	assert.InDelta(t, 0.97, c.DeliveryRate(), 1e-9)

	// Zero sends count as fully delivered rather than dividing by zero.
	assert.Equal(t, float64(1), (&Campaign{}).DeliveryRate())

	all := Campaign{EmailsSent: 10, Bounces: 10}
	assert.Zero(t, all.DeliveryRate())
}
