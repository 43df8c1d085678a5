package models

import "github.com/shopspring/decimal"

// HistoricalPrice is one sampled price point for a symbol.
type HistoricalPrice struct {
	ID        uint            `gorm:"primaryKey"`
	Symbol    string          `gorm:"index:idx_historical_symbol_timestamp;not null"`
	Price     decimal.Decimal `gorm:"type:decimal;not null"`
	Timestamp int64           `gorm:"index:idx_historical_symbol_timestamp;not null"`
}

func (HistoricalPrice) TableName() string { return "HistoricalPrices" }
