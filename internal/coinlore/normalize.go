package coinlore

import (
	"time"

	"cryptoview/internal/models"
)

// timeLayout is the display format for pair timestamps.
const timeLayout = "2006-01-02 15:04:05"

// defaultFreshnessWindow is how old an upstream timestamp may be, in
// seconds, before it is treated as stale and replaced.
const defaultFreshnessWindow = 3600

// NowFunc supplies the current time; injectable for tests.
type NowFunc func() time.Time

// TimeNormalizer repairs missing or stale pair timestamps. A pair's time is
// invalid if it is <= 0 or older than the freshness window; such a time is
// replaced with the current time and the display string is marked
// "(Current)" so downstream consumers can tell a fallback from genuine
// upstream freshness.
type TimeNormalizer struct {
	window int64
	now    NowFunc
}

// NewTimeNormalizer creates a normalizer with the given freshness window in
// seconds. A nil now function defaults to time.Now.
func NewTimeNormalizer(window int64, now NowFunc) *TimeNormalizer {
	if window <= 0 {
		window = defaultFreshnessWindow
	}
	if now == nil {
		now = time.Now
	}
	return &TimeNormalizer{window: window, now: now}
}

// Normalize returns the pair with its time repaired and the display string
// derived. Downstream of this call the time is never zero or negative.
func (n *TimeNormalizer) Normalize(pair models.TradingPair) models.TradingPair {
	now := n.now()
	if pair.Time <= 0 || now.Unix()-pair.Time > n.window {
		pair.Time = now.Unix()
		pair.FormattedTime = now.Local().Format(timeLayout) + " (Current)"
		return pair
	}
	pair.FormattedTime = time.Unix(pair.Time, 0).Local().Format(timeLayout)
	return pair
}
