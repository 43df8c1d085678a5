package models

import "github.com/shopspring/decimal"

// Exchange is one entry from the exchange listing endpoint.
type Exchange struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExchangeInfo describes the exchange a batch of pairs came from.
// All fields are optional upstream; absent values are reported as "Unknown".
type ExchangeInfo struct {
	Name     string `json:"name"`
	DateLive string `json:"date_live"`
	URL      string `json:"url"`
}

// TradingPair is one tradable base/quote combination as normalized from the
// exchange API. Instances are recreated wholesale on every refresh.
type TradingPair struct {
	Base          string          `json:"base"`
	Quote         string          `json:"quote"`
	Price         decimal.Decimal `json:"price"`
	PriceUsd      decimal.Decimal `json:"price_usd"`
	Volume        decimal.Decimal `json:"volume"`
	Time          int64           `json:"time"`
	FormattedTime string          `json:"formatted_time"`
}

// Symbol is the pair's identity, e.g. "BTC/USD".
func (p TradingPair) Symbol() string {
	return p.Base + "/" + p.Quote
}
