package models

import "github.com/shopspring/decimal"

// AlertDirection says which side of the target price triggers the alert.
// Stored as an integer in the alert_type column, Above = 0, Below = 1.
type AlertDirection int

const (
	DirectionAbove AlertDirection = iota
	DirectionBelow
)

func (d AlertDirection) String() string {
	if d == DirectionBelow {
		return "Below"
	}
	return "Above"
}

// PriceAlert is a user-defined price threshold watch.
// Identity for delete and update operations is the tuple
// (Symbol, TargetPrice, Direction, CreatedAt); the row id is never
// exposed to the alert engine.
type PriceAlert struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	Symbol      string          `gorm:"not null" json:"symbol"`
	TargetPrice decimal.Decimal `gorm:"type:decimal;not null" json:"target_price"`
	Direction   AlertDirection  `gorm:"column:alert_type;not null" json:"direction"`
	IsEnabled   bool            `gorm:"not null" json:"is_enabled"`
	CreatedAt   int64           `gorm:"not null" json:"created_at"`
	Message     string          `json:"message,omitempty"`
}

func (PriceAlert) TableName() string { return "PriceAlerts" }
