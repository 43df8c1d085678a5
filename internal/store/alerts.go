package store

import (
	"fmt"
	"time"

	"cryptoview/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaveAlert persists a new alert. CreatedAt is filled when absent because it
// is part of the alert's identity tuple.
func (s *Store) SaveAlert(alert *models.PriceAlert) error {
	if alert.CreatedAt == 0 {
		alert.CreatedAt = time.Now().Unix()
	}
	if err := s.db.Create(alert).Error; err != nil {
		return fmt.Errorf("failed to save alert for %s: %w", alert.Symbol, err)
	}
	return nil
}

// EnabledAlerts lists every enabled alert.
func (s *Store) EnabledAlerts() ([]models.PriceAlert, error) {
	var alerts []models.PriceAlert
	if err := s.db.Where("is_enabled = ?", true).Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// byIdentity filters on the alert identity tuple: symbol, target price,
// direction and creation time. No surrogate key is exposed to callers.
func (s *Store) byIdentity(alert models.PriceAlert) *gorm.DB {
	return s.db.Where(
		"symbol = ? AND target_price = ? AND alert_type = ? AND created_at = ?",
		alert.Symbol, alert.TargetPrice, alert.Direction, alert.CreatedAt,
	)
}

// DeleteAlert removes an alert by its identity tuple.
func (s *Store) DeleteAlert(alert models.PriceAlert) error {
	if err := s.byIdentity(alert).Delete(&models.PriceAlert{}).Error; err != nil {
		return fmt.Errorf("failed to delete alert for %s: %w", alert.Symbol, err)
	}
	return nil
}

// SetAlertEnabled updates the enabled flag for an alert identity tuple.
func (s *Store) SetAlertEnabled(alert models.PriceAlert, enabled bool) error {
	err := s.byIdentity(alert).Model(&models.PriceAlert{}).Update("is_enabled", enabled).Error
	if err != nil {
		return fmt.Errorf("failed to update alert for %s: %w", alert.Symbol, err)
	}
	return nil
}

// ClearAlerts deletes every alert.
func (s *Store) ClearAlerts() error {
	if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.PriceAlert{}).Error; err != nil {
		return fmt.Errorf("failed to clear alerts: %w", err)
	}
	return nil
}

// AlertExists backs the duplicate check offered before a new alert is
// accepted: same symbol, target, direction and enabled state.
func (s *Store) AlertExists(symbol string, target decimal.Decimal, direction models.AlertDirection, enabled bool) (bool, error) {
	var count int64
	err := s.db.Model(&models.PriceAlert{}).
		Where("symbol = ? AND target_price = ? AND alert_type = ? AND is_enabled = ?",
			symbol, target, direction, enabled).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check alert existence: %w", err)
	}
	return count > 0, nil
}
