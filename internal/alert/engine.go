package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryptoview/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Trigger is the one-time event emitted when an alert condition becomes
// true. The alert is already deleted from the store by the time the event
// is observable.
type Trigger struct {
	Symbol      string
	TargetPrice decimal.Decimal
	Direction   models.AlertDirection
	Price       decimal.Decimal
	Message     string
}

// SnapshotSource supplies the current pair set. The engine only ever reads
// it; the refresh cycle owns all writes.
type SnapshotSource interface {
	Current() []models.TradingPair
}

// AlertStore is the persistence the engine needs.
type AlertStore interface {
	SaveAlert(alert *models.PriceAlert) error
	EnabledAlerts() ([]models.PriceAlert, error)
	DeleteAlert(alert models.PriceAlert) error
	SetAlertEnabled(alert models.PriceAlert, enabled bool) error
	ClearAlerts() error
	AlertExists(symbol string, target decimal.Decimal, direction models.AlertDirection, enabled bool) (bool, error)
}

// Engine holds the working alert set and evaluates it against the live
// snapshot on a fixed interval. A triggered alert is deleted exactly once
// and never re-triggers; notification delivery is at most once.
type Engine struct {
	logger   *zap.Logger
	store    AlertStore
	snapshot SnapshotSource
	interval time.Duration

	mu     sync.Mutex
	alerts []models.PriceAlert

	triggers chan Trigger
}

// NewEngine creates an alert engine. A non-positive interval falls back to
// the 30 second default.
func NewEngine(logger *zap.Logger, store AlertStore, snapshot SnapshotSource, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Engine{
		logger:   logger,
		store:    store,
		snapshot: snapshot,
		interval: interval,
		triggers: make(chan Trigger, 16),
	}
}

// Triggers is the event stream of fired alerts.
func (e *Engine) Triggers() <-chan Trigger {
	return e.triggers
}

// Load replaces the working set with the enabled alerts on record.
func (e *Engine) Load() error {
	alerts, err := e.store.EnabledAlerts()
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.alerts = alerts
	e.mu.Unlock()
	e.logger.Info("Loaded alerts", zap.Int("count", len(alerts)))
	return nil
}

// Alerts returns a copy of the working set.
func (e *Engine) Alerts() []models.PriceAlert {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.PriceAlert, len(e.alerts))
	copy(out, e.alerts)
	return out
}

// Add persists a new alert and admits it to the working set. Alerts added
// during an evaluation tick are not evaluated until the next tick.
func (e *Engine) Add(alert models.PriceAlert) error {
	if alert.TargetPrice.Sign() <= 0 {
		return fmt.Errorf("alert target price must be positive, got %s", alert.TargetPrice)
	}
	if alert.CreatedAt == 0 {
		alert.CreatedAt = time.Now().Unix()
	}
	if err := e.store.SaveAlert(&alert); err != nil {
		return err
	}
	e.mu.Lock()
	e.alerts = append(e.alerts, alert)
	e.mu.Unlock()
	return nil
}

// Exists reports whether an enabled alert with the same symbol, target and
// direction is already on record, backing the duplicate check offered
// before a new alert is accepted.
func (e *Engine) Exists(symbol string, target decimal.Decimal, direction models.AlertDirection) (bool, error) {
	return e.store.AlertExists(symbol, target, direction, true)
}

// Delete removes an alert by identity tuple from the store and the working set.
func (e *Engine) Delete(alert models.PriceAlert) error {
	if err := e.store.DeleteAlert(alert); err != nil {
		return err
	}
	e.remove(alert)
	return nil
}

// SetEnabled flips the enabled flag in the store and the working set. An
// alert that was disabled when the working set was loaded is absent from it,
// so enabling one admits it for evaluation without requiring a reload.
func (e *Engine) SetEnabled(alert models.PriceAlert, enabled bool) error {
	if err := e.store.SetAlertEnabled(alert, enabled); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	found := false
	for i := range e.alerts {
		if sameIdentity(e.alerts[i], alert) {
			e.alerts[i].IsEnabled = enabled
			found = true
		}
	}
	if enabled && !found {
		alert.IsEnabled = true
		e.alerts = append(e.alerts, alert)
	}
	return nil
}

// Clear removes every alert.
func (e *Engine) Clear() error {
	if err := e.store.ClearAlerts(); err != nil {
		return err
	}
	e.mu.Lock()
	e.alerts = nil
	e.mu.Unlock()
	return nil
}

// Run starts the evaluation loop and blocks until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("Starting alert evaluation loop", zap.Duration("interval", e.interval))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping alert engine...")
			return
		case <-ticker.C:
			e.Evaluate()
		}
	}
}

// Evaluate runs one evaluation tick. It iterates over a copy of the working
// set taken at tick start, so concurrent additions and removals cannot
// disturb the iteration. A tick with no alerts or an empty snapshot is a
// no-op.
func (e *Engine) Evaluate() {
	pairs := e.snapshot.Current()
	alerts := e.Alerts()
	if len(alerts) == 0 || len(pairs) == 0 {
		return
	}

	bySymbol := make(map[string]models.TradingPair, len(pairs))
	for _, p := range pairs {
		bySymbol[p.Symbol()] = p
	}

	for _, a := range alerts {
		if !a.IsEnabled {
			continue
		}
		pair, ok := bySymbol[a.Symbol]
		if !ok {
			// Symbol not in the current snapshot; check again next tick.
			continue
		}
		if !conditionMet(a, pair.PriceUsd) {
			continue
		}

		// Delete from the store before surfacing the event, so a crash in
		// between cannot resurrect a triggered alert. The notification may
		// then be lost; that trade-off is accepted.
		if err := e.store.DeleteAlert(a); err != nil {
			e.logger.Error("Failed to delete triggered alert",
				zap.String("symbol", a.Symbol), zap.Error(err))
			continue
		}
		e.remove(a)
		e.emit(Trigger{
			Symbol:      a.Symbol,
			TargetPrice: a.TargetPrice,
			Direction:   a.Direction,
			Price:       pair.PriceUsd,
			Message:     a.Message,
		})
		e.logger.Info("Alert triggered",
			zap.String("symbol", a.Symbol),
			zap.String("target", a.TargetPrice.String()),
			zap.Stringer("direction", a.Direction),
			zap.String("price", pair.PriceUsd.String()),
		)
	}
}

// conditionMet checks the trigger condition. The boundary is inclusive in
// both directions: an alert set exactly at the current price triggers
// immediately.
func conditionMet(alert models.PriceAlert, price decimal.Decimal) bool {
	switch alert.Direction {
	case models.DirectionAbove:
		return price.GreaterThanOrEqual(alert.TargetPrice)
	case models.DirectionBelow:
		return price.LessThanOrEqual(alert.TargetPrice)
	default:
		return false
	}
}

func sameIdentity(a, b models.PriceAlert) bool {
	return a.Symbol == b.Symbol &&
		a.TargetPrice.Equal(b.TargetPrice) &&
		a.Direction == b.Direction &&
		a.CreatedAt == b.CreatedAt
}

func (e *Engine) remove(alert models.PriceAlert) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.alerts {
		if sameIdentity(e.alerts[i], alert) {
			e.alerts = append(e.alerts[:i], e.alerts[i+1:]...)
			return
		}
	}
}

func (e *Engine) emit(t Trigger) {
	select {
	case e.triggers <- t:
	default:
		e.logger.Warn("Trigger channel full, dropping event", zap.String("symbol", t.Symbol))
	}
}
