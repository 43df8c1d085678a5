package models

import "github.com/shopspring/decimal"

// Favorite is one saved symbol. The enriched columns are nullable so rows
// written by the symbol-only legacy schema still scan cleanly.
type Favorite struct {
	ID           uint   `gorm:"primaryKey"`
	Symbol       string `gorm:"uniqueIndex;not null"`
	Base         *string
	Quote        *string
	LastPrice    *decimal.Decimal `gorm:"type:decimal"`
	LastExchange *string
	CreatedAt    *int64
}

func (Favorite) TableName() string { return "Favorites" }
