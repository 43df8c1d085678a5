package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"cryptoview/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore records store calls in memory so tests can assert ordering and
// persistence effects without a database.
type fakeStore struct {
	alerts    []models.PriceAlert
	deleted   []models.PriceAlert
	deleteErr error
	saveErr   error
}

func (f *fakeStore) SaveAlert(alert *models.PriceAlert) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if alert.CreatedAt == 0 {
		alert.CreatedAt = time.Now().Unix()
	}
	f.alerts = append(f.alerts, *alert)
	return nil
}

func (f *fakeStore) EnabledAlerts() ([]models.PriceAlert, error) {
	var out []models.PriceAlert
	for _, a := range f.alerts {
		if a.IsEnabled {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteAlert(alert models.PriceAlert) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, alert)
	for i := range f.alerts {
		if sameIdentity(f.alerts[i], alert) {
			f.alerts = append(f.alerts[:i], f.alerts[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) SetAlertEnabled(alert models.PriceAlert, enabled bool) error {
	for i := range f.alerts {
		if sameIdentity(f.alerts[i], alert) {
			f.alerts[i].IsEnabled = enabled
		}
	}
	return nil
}

func (f *fakeStore) ClearAlerts() error {
	f.alerts = nil
	return nil
}

func (f *fakeStore) AlertExists(symbol string, target decimal.Decimal, direction models.AlertDirection, enabled bool) (bool, error) {
	for _, a := range f.alerts {
		if a.Symbol == symbol && a.TargetPrice.Equal(target) && a.Direction == direction && a.IsEnabled == enabled {
			return true, nil
		}
	}
	return false, nil
}

// fakeSnapshot serves a fixed pair set.
type fakeSnapshot struct {
	pairs []models.TradingPair
}

func (f *fakeSnapshot) Current() []models.TradingPair {
	return f.pairs
}

func pairAt(base, quote, priceUsd string) models.TradingPair {
	return models.TradingPair{Base: base, Quote: quote, PriceUsd: decimal.RequireFromString(priceUsd)}
}

func newAlert(symbol, target string, dir models.AlertDirection, createdAt int64) models.PriceAlert {
	return models.PriceAlert{
		Symbol:      symbol,
		TargetPrice: decimal.RequireFromString(target),
		Direction:   dir,
		IsEnabled:   true,
		CreatedAt:   createdAt,
	}
}

func newTestEngine(store *fakeStore, snap *fakeSnapshot) *Engine {
	return NewEngine(zap.NewNop(), store, snap, time.Minute)
}

func drainTriggers(e *Engine) []Trigger {
	var out []Trigger
	for {
		select {
		case t := <-e.Triggers():
			out = append(out, t)
		default:
			return out
		}
	}
}

func TestEvaluateBoundaries(t *testing.T) {
	testCases := []struct {
		name  string
		dir   models.AlertDirection
		price string
		fires bool
	}{
		{"AboveBelowTarget", models.DirectionAbove, "99.99", false},
		{"AboveAtTarget", models.DirectionAbove, "100.00", true},
		{"AbovePastTarget", models.DirectionAbove, "100.01", true},
		{"BelowPastTarget", models.DirectionBelow, "99.99", true},
		{"BelowAtTarget", models.DirectionBelow, "100.00", true},
		{"BelowAboveTarget", models.DirectionBelow, "100.01", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{alerts: []models.PriceAlert{
				newAlert("BTC/USDT", "100.00", tc.dir, 1),
			}}
			snap := &fakeSnapshot{pairs: []models.TradingPair{pairAt("BTC", "USDT", tc.price)}}
			e := newTestEngine(store, snap)
			require.NoError(t, e.Load())

			e.Evaluate()

			triggers := drainTriggers(e)
			if tc.fires {
				require.Len(t, triggers, 1)
				assert.Equal(t, "BTC/USDT", triggers[0].Symbol)
				assert.True(t, triggers[0].Price.Equal(decimal.RequireFromString(tc.price)))
			} else {
				assert.Empty(t, triggers)
			}
		})
	}
}

func TestEvaluateDeletesBeforeEmitting(t *testing.T) {
	store := &fakeStore{alerts: []models.PriceAlert{
		newAlert("BTC/USDT", "100", models.DirectionAbove, 1),
	}}
	snap := &fakeSnapshot{pairs: []models.TradingPair{pairAt("BTC", "USDT", "150")}}
	e := newTestEngine(store, snap)
	require.NoError(t, e.Load())

	e.Evaluate()

	require.Len(t, store.deleted, 1)
	require.Len(t, drainTriggers(e), 1)
	// Gone from both the store and the working set: it cannot fire again.
	assert.Empty(t, store.alerts)
	assert.Empty(t, e.Alerts())

	e.Evaluate()
	assert.Empty(t, drainTriggers(e))
}

func TestEvaluateKeepsAlertWhenDeleteFails(t *testing.T) {
	store := &fakeStore{
		alerts:    []models.PriceAlert{newAlert("BTC/USDT", "100", models.DirectionAbove, 1)},
		deleteErr: errors.New("disk full"),
	}
	snap := &fakeSnapshot{pairs: []models.TradingPair{pairAt("BTC", "USDT", "150")}}
	e := newTestEngine(store, snap)
	require.NoError(t, e.Load())

	e.Evaluate()

	// No notification without a successful delete; the alert stays armed.
	assert.Empty(t, drainTriggers(e))
	assert.Len(t, e.Alerts(), 1)
}

func TestEvaluateSkipsDisabledAndMissingSymbols(t *testing.T) {
	disabled := newAlert("BTC/USDT", "100", models.DirectionAbove, 1)
	disabled.IsEnabled = false
	store := &fakeStore{alerts: []models.PriceAlert{
		disabled,
		newAlert("DOGE/USDT", "1", models.DirectionAbove, 2),
	}}
	snap := &fakeSnapshot{pairs: []models.TradingPair{pairAt("BTC", "USDT", "150")}}
	e := newTestEngine(store, snap)

	// Load only admits enabled alerts, so seed the working set directly.
	e.mu.Lock()
	e.alerts = append([]models.PriceAlert(nil), store.alerts...)
	e.mu.Unlock()

	e.Evaluate()

	assert.Empty(t, drainTriggers(e))
	assert.Empty(t, store.deleted)
}

func TestEvaluateNoopWhenEmpty(t *testing.T) {
	t.Run("NoAlerts", func(t *testing.T) {
		e := newTestEngine(&fakeStore{}, &fakeSnapshot{pairs: []models.TradingPair{pairAt("BTC", "USDT", "1")}})
		e.Evaluate()
		assert.Empty(t, drainTriggers(e))
	})

	t.Run("EmptySnapshot", func(t *testing.T) {
		store := &fakeStore{alerts: []models.PriceAlert{newAlert("BTC/USDT", "100", models.DirectionAbove, 1)}}
		e := newTestEngine(store, &fakeSnapshot{})
		require.NoError(t, e.Load())
		e.Evaluate()
		assert.Empty(t, drainTriggers(e))
		assert.Len(t, e.Alerts(), 1)
	})
}

func TestEvaluateMultipleAlertsSameSymbol(t *testing.T) {
	store := &fakeStore{alerts: []models.PriceAlert{
		newAlert("BTC/USDT", "100", models.DirectionAbove, 1),
		newAlert("BTC/USDT", "200", models.DirectionAbove, 2),
		newAlert("BTC/USDT", "120", models.DirectionBelow, 3),
	}}
	snap := &fakeSnapshot{pairs: []models.TradingPair{pairAt("BTC", "USDT", "110")}}
	e := newTestEngine(store, snap)
	require.NoError(t, e.Load())

	e.Evaluate()

	triggers := drainTriggers(e)
	require.Len(t, triggers, 2)
	assert.Len(t, e.Alerts(), 1)
	assert.True(t, e.Alerts()[0].TargetPrice.Equal(decimal.NewFromInt(200)))
}

func TestAdd(t *testing.T) {
	store := &fakeStore{}
	e := newTestEngine(store, &fakeSnapshot{})

	t.Run("RejectsNonPositiveTarget", func(t *testing.T) {
		err := e.Add(models.PriceAlert{Symbol: "BTC/USDT", TargetPrice: decimal.Zero})
		assert.Error(t, err)
		err = e.Add(models.PriceAlert{Symbol: "BTC/USDT", TargetPrice: decimal.NewFromInt(-5)})
		assert.Error(t, err)
		assert.Empty(t, store.alerts)
	})

	t.Run("PersistsAndAdmits", func(t *testing.T) {
		alert := newAlert("BTC/USDT", "100", models.DirectionAbove, 0)
		require.NoError(t, e.Add(alert))
		require.Len(t, store.alerts, 1)
		require.Len(t, e.Alerts(), 1)
		assert.NotZero(t, e.Alerts()[0].CreatedAt)
	})

	t.Run("Exists", func(t *testing.T) {
		ok, err := e.Exists("BTC/USDT", decimal.NewFromInt(100), models.DirectionAbove)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = e.Exists("BTC/USDT", decimal.NewFromInt(100), models.DirectionBelow)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestDeleteAndSetEnabled(t *testing.T) {
	first := newAlert("BTC/USDT", "100", models.DirectionAbove, 1)
	second := newAlert("ETH/USDT", "3000", models.DirectionBelow, 2)
	store := &fakeStore{alerts: []models.PriceAlert{first, second}}
	e := newTestEngine(store, &fakeSnapshot{})
	require.NoError(t, e.Load())

	require.NoError(t, e.SetEnabled(second, false))
	for _, a := range e.Alerts() {
		if sameIdentity(a, second) {
			assert.False(t, a.IsEnabled)
		}
	}

	require.NoError(t, e.Delete(first))
	require.Len(t, e.Alerts(), 1)
	assert.Equal(t, "ETH/USDT", e.Alerts()[0].Symbol)
	require.Len(t, store.deleted, 1)

	require.NoError(t, e.Clear())
	assert.Empty(t, e.Alerts())
	assert.Empty(t, store.alerts)
}

func TestSetEnabledAdmitsAlertDisabledAtLoad(t *testing.T) {
	dormant := newAlert("BTC/USDT", "100", models.DirectionAbove, 1)
	dormant.IsEnabled = false
	store := &fakeStore{alerts: []models.PriceAlert{dormant}}
	snap := &fakeSnapshot{pairs: []models.TradingPair{pairAt("BTC", "USDT", "150")}}
	e := newTestEngine(store, snap)

	// Load skips disabled alerts, so the working set starts empty.
	require.NoError(t, e.Load())
	require.Empty(t, e.Alerts())

	require.NoError(t, e.SetEnabled(dormant, true))
	require.Len(t, e.Alerts(), 1)
	assert.True(t, e.Alerts()[0].IsEnabled)

	// The re-enabled alert is evaluated on the very next tick.
	e.Evaluate()
	triggers := drainTriggers(e)
	require.Len(t, triggers, 1)
	assert.Equal(t, "BTC/USDT", triggers[0].Symbol)
}

func TestRunStopsOnCancel(t *testing.T) {
	e := newTestEngine(&fakeStore{}, &fakeSnapshot{})
	e.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("engine did not stop after cancel")
	}
}
