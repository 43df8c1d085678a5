package store

import (
	"fmt"

	"cryptoview/internal/models"
)

// SaveHistoricalPrice appends one price sample.
func (s *Store) SaveHistoricalPrice(sample models.HistoricalPrice) error {
	if err := s.db.Create(&sample).Error; err != nil {
		return fmt.Errorf("failed to save price sample for %s: %w", sample.Symbol, err)
	}
	return nil
}

// HistoricalPrices returns the samples for a symbol within [from, to] unix
// seconds, oldest first.
func (s *Store) HistoricalPrices(symbol string, from, to int64) ([]models.HistoricalPrice, error) {
	var samples []models.HistoricalPrice
	err := s.db.
		Where("symbol = ? AND timestamp BETWEEN ? AND ?", symbol, from, to).
		Order("timestamp").
		Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query price history for %s: %w", symbol, err)
	}
	return samples, nil
}
