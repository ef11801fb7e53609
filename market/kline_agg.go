package market

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// KlineAggregator 从轮询得到的中间价采样生成固定周期的 Kline。
type KlineAggregator struct {
	Symbol   string
	Interval time.Duration
	mu       sync.Mutex
	current  *Kline
}

func NewKlineAggregator(symbol string, interval time.Duration) *KlineAggregator {
	return &KlineAggregator{Symbol: symbol, Interval: interval}
}

// OnSample 更新当前 Kline；返回新生成的 Kline（闭合的）或 nil。
func (a *KlineAggregator) OnSample(price decimal.Decimal, ts time.Time) *Kline {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil || ts.Sub(a.current.Ts) >= a.Interval {
		var closed *Kline
		if a.current != nil {
			closed = a.current
			closed.Close = price
			if price.GreaterThan(closed.High) {
				closed.High = price
			}
			if price.LessThan(closed.Low) {
				closed.Low = price
			}
		}
		a.current = &Kline{
			Symbol: a.Symbol,
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Ts:     ts,
		}
		return closed
	}

	if price.GreaterThan(a.current.High) {
		a.current.High = price
	}
	if price.LessThan(a.current.Low) {
		a.current.Low = price
	}
	a.current.Close = price
	return nil
}
