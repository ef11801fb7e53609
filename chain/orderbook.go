package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"dex-trader-go/order"
)

// OrderBook is a typed binding over the venue's order-book contract. Matching
// and settlement live behind it; this side only reads state and requests
// transitions.
type OrderBook struct {
	*Contract
}

func NewOrderBook(backend Backend, addr common.Address, limiter RateLimiter) (*OrderBook, error) {
	c, err := newContract(backend, addr, orderBookABI, limiter)
	if err != nil {
		return nil, err
	}
	return &OrderBook{Contract: c}, nil
}

// CreateOrder submits an order and waits for confirmation. The order id is
// recovered from the OrderCreated event when present; a receipt with an
// unknown id is still a success, inclusion is already proven.
func (b *OrderBook) CreateOrder(ctx context.Context, opts *bind.TransactOpts, tokenAsset, paymentAsset common.Address, amount, price *big.Int, typ order.Type, side order.Side) (*Receipt, *big.Int, error) {
	receipt, err := b.transact(ctx, opts, "createOrder", tokenAsset, paymentAsset, amount, price, typ.Code(), side.Code())
	if err != nil {
		return nil, nil, err
	}
	return receipt, b.orderIDFromLogs(receipt), nil
}

// CancelOrder requests cancellation of an order and waits for confirmation.
// Ownership and cancellability are enforced by the contract, not here.
func (b *OrderBook) CancelOrder(ctx context.Context, opts *bind.TransactOpts, id *big.Int) (*Receipt, error) {
	return b.transact(ctx, opts, "cancelOrder", id)
}

// BestPrices returns the best buy and sell prices for a pair, fixed point.
func (b *OrderBook) BestPrices(ctx context.Context, tokenAsset, paymentAsset common.Address) (bestBuy, bestSell *big.Int, err error) {
	var out []interface{}
	if err := b.call(ctx, &out, "getBestPrices", tokenAsset, paymentAsset); err != nil {
		return nil, nil, err
	}
	return out[0].(*big.Int), out[1].(*big.Int), nil
}

// TraderOrders returns a page of order ids belonging to trader.
func (b *OrderBook) TraderOrders(ctx context.Context, trader common.Address, offset, limit uint64) ([]*big.Int, error) {
	var out []interface{}
	if err := b.call(ctx, &out, "getTraderOrders", trader, new(big.Int).SetUint64(offset), new(big.Int).SetUint64(limit)); err != nil {
		return nil, err
	}
	return out[0].([]*big.Int), nil
}

// Order reads a full order record. Unknown enum codes are decoding errors,
// never coerced: a silent mismatch here corrupts order semantics.
func (b *OrderBook) Order(ctx context.Context, id *big.Int) (order.Order, error) {
	var out []interface{}
	if err := b.call(ctx, &out, "orders", id); err != nil {
		return order.Order{}, err
	}
	if len(out) != 12 {
		return order.Order{}, fmt.Errorf("orders(%s): expected 12 fields, got %d", id, len(out))
	}
	typ, err := order.TypeFromCode(out[9].(uint8))
	if err != nil {
		return order.Order{}, fmt.Errorf("orders(%s): %w", id, err)
	}
	side, err := order.SideFromCode(out[10].(uint8))
	if err != nil {
		return order.Order{}, fmt.Errorf("orders(%s): %w", id, err)
	}
	status, err := order.StatusFromCode(out[11].(uint8))
	if err != nil {
		return order.Order{}, fmt.Errorf("orders(%s): %w", id, err)
	}
	return order.Order{
		ID:           out[0].(*big.Int),
		Trader:       out[1].(common.Address),
		TokenAsset:   out[2].(common.Address),
		PaymentAsset: out[3].(common.Address),
		Amount:       out[4].(*big.Int),
		Price:        out[5].(*big.Int),
		Filled:       out[6].(*big.Int),
		Timestamp:    out[7].(*big.Int).Uint64(),
		Expiry:       out[8].(*big.Int).Uint64(),
		Type:         typ,
		Side:         side,
		Status:       status,
	}, nil
}

// ReaderFor binds a trader address into an order.Reader for the tracker.
func (b *OrderBook) ReaderFor(trader common.Address) order.Reader {
	return traderReader{book: b, trader: trader}
}

type traderReader struct {
	book   *OrderBook
	trader common.Address
}

func (r traderReader) TraderOrders(ctx context.Context, offset, limit uint64) ([]*big.Int, error) {
	return r.book.TraderOrders(ctx, r.trader, offset, limit)
}

func (r traderReader) Order(ctx context.Context, id *big.Int) (order.Order, error) {
	return r.book.Order(ctx, id)
}

func (b *OrderBook) orderIDFromLogs(receipt *Receipt) *big.Int {
	created, ok := b.abi.Events["OrderCreated"]
	if !ok {
		return nil
	}
	for _, lg := range receipt.Logs {
		if lg.Address != b.addr || len(lg.Topics) < 2 {
			continue
		}
		if lg.Topics[0] != created.ID {
			continue
		}
		return new(big.Int).SetBytes(lg.Topics[1].Bytes())
	}
	return nil
}
