package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot represents a market snapshot for one pair.
type Snapshot struct {
	Symbol    string          `json:"symbol"`
	BestBid   decimal.Decimal `json:"bestBid"`
	BestAsk   decimal.Decimal `json:"bestAsk"`
	Mid       decimal.Decimal `json:"mid"`
	Spread    decimal.Decimal `json:"spread"`
	Timestamp time.Time       `json:"ts"`
}

func newSnapshot(symbol string, q Quote, ts time.Time) Snapshot {
	two := decimal.NewFromInt(2)
	return Snapshot{
		Symbol:    symbol,
		BestBid:   q.BestBid,
		BestAsk:   q.BestAsk,
		Mid:       q.BestBid.Add(q.BestAsk).Div(two),
		Spread:    q.BestAsk.Sub(q.BestBid),
		Timestamp: ts,
	}
}
