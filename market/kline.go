package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kline represents OHLC data for the frontend price chart.
type Kline struct {
	Symbol string          `json:"symbol"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Ts     time.Time       `json:"ts"`
}
