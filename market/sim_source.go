package market

import (
	"context"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
)

// SimSource 生成随机游走的模拟行情，只用于开发环境；完全无副作用，
// 不触碰任何网络或链上状态。
type SimSource struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	mids map[string]float64
}

// NewSimSource creates a simulated source. The seed makes runs reproducible.
func NewSimSource(seed int64) *SimSource {
	return &SimSource{
		rnd:  rand.New(rand.NewSource(seed)),
		mids: make(map[string]float64),
	}
}

func (s *SimSource) Name() string { return "sim" }

func (s *SimSource) BestPrices(_ context.Context, pair Pair) (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mid, ok := s.mids[pair.Symbol]
	if !ok {
		// 初始价格由交易对符号派生，保证不同交易对错开
		mid = 50 + float64(len(pair.Symbol))*7
	}
	// ±0.5% 随机游走，贴地板避免归零
	mid *= 1 + (s.rnd.Float64()-0.5)*0.01
	if mid < 1 {
		mid = 1
	}
	s.mids[pair.Symbol] = mid

	spread := mid * 0.002
	bid := decimal.NewFromFloat(mid - spread/2).Round(6)
	ask := decimal.NewFromFloat(mid + spread/2).Round(6)
	return Quote{BestBid: bid, BestAsk: ask}, nil
}
