package coinlore

import (
	"testing"
	"time"

	"cryptoview/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := NewTimeNormalizer(3600, func() time.Time { return now })

	testCases := []struct {
		name        string
		time        int64
		wantTime    int64
		synthesized bool
	}{
		{name: "Zero", time: 0, wantTime: now.Unix(), synthesized: true},
		{name: "Negative", time: -5, wantTime: now.Unix(), synthesized: true},
		{name: "Stale", time: now.Unix() - 3601, wantTime: now.Unix(), synthesized: true},
		{name: "ExactlyAtWindow", time: now.Unix() - 3600, wantTime: now.Unix() - 3600, synthesized: false},
		{name: "Fresh", time: now.Unix() - 10, wantTime: now.Unix() - 10, synthesized: false},
		{name: "Future", time: now.Unix() + 60, wantTime: now.Unix() + 60, synthesized: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := n.Normalize(models.TradingPair{Base: "BTC", Quote: "USD", Time: tc.time})

			assert.Equal(t, tc.wantTime, got.Time)
			assert.Positive(t, got.Time)
			if tc.synthesized {
				assert.Contains(t, got.FormattedTime, "(Current)")
			} else {
				want := time.Unix(tc.wantTime, 0).Local().Format(timeLayout)
				assert.Equal(t, want, got.FormattedTime)
			}
		})
	}
}

func TestNormalizerDefaults(t *testing.T) {
	// A zero window and nil clock fall back to sane defaults.
	n := NewTimeNormalizer(0, nil)
	got := n.Normalize(models.TradingPair{Time: 0})
	assert.Positive(t, got.Time)
	assert.Contains(t, got.FormattedTime, "(Current)")
}
