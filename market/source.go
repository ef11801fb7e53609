package market

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"dex-trader-go/chain"
)

// Pair identifies a traded pair and its on-chain assets.
type Pair struct {
	Symbol          string
	TokenAsset      common.Address
	PaymentAsset    common.Address
	TokenDecimals   int32
	PaymentDecimals int32
}

// Quote is the best buy/sell price pair for one poll.
type Quote struct {
	BestBid decimal.Decimal // best buy price
	BestAsk decimal.Decimal // best sell price
}

// Source 行情数据源；真实链上读取与模拟生成二选一，由配置显式指定，
// 绝不在运行时隐式回退到模拟数据。
type Source interface {
	BestPrices(ctx context.Context, pair Pair) (Quote, error)
	Name() string
}

// PriceReader is the order-book read surface the chain source needs;
// implemented by chain.OrderBook.
type PriceReader interface {
	BestPrices(ctx context.Context, tokenAsset, paymentAsset common.Address) (*big.Int, *big.Int, error)
}

// ChainSource reads best prices from the venue contract.
type ChainSource struct {
	reader PriceReader
}

func NewChainSource(reader PriceReader) *ChainSource {
	return &ChainSource{reader: reader}
}

func (s *ChainSource) Name() string { return "chain" }

func (s *ChainSource) BestPrices(ctx context.Context, pair Pair) (Quote, error) {
	buy, sell, err := s.reader.BestPrices(ctx, pair.TokenAsset, pair.PaymentAsset)
	if err != nil {
		return Quote{}, err
	}
	decimals := pair.PaymentDecimals
	if decimals == 0 {
		decimals = chain.WeiDecimals
	}
	return Quote{
		BestBid: chain.FromWei(buy, decimals),
		BestAsk: chain.FromWei(sell, decimals),
	}, nil
}
