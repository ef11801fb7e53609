package order

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
)

// Reader 提供跟踪器所需的链上只读访问；由 chain.OrderBook 实现。
type Reader interface {
	TraderOrders(ctx context.Context, offset, limit uint64) ([]*big.Int, error)
	Order(ctx context.Context, id *big.Int) (Order, error)
}

// Tracker keeps a local snapshot of the trader's orders, refreshed from the
// venue contract. It never mutates order state itself; lifecycle is owned by
// the contract and Refresh simply replaces the snapshot.
type Tracker struct {
	reader   Reader
	pageSize uint64

	mu     sync.RWMutex
	orders map[string]Order
}

func NewTracker(reader Reader, pageSize uint64) *Tracker {
	if pageSize == 0 {
		pageSize = 50
	}
	return &Tracker{
		reader:   reader,
		pageSize: pageSize,
		orders:   make(map[string]Order),
	}
}

// Refresh pages through the trader's order ids and swaps in a new snapshot
// atomically. On any read error the previous snapshot is kept untouched.
func (t *Tracker) Refresh(ctx context.Context) error {
	next := make(map[string]Order)
	var offset uint64
	for {
		ids, err := t.reader.TraderOrders(ctx, offset, t.pageSize)
		if err != nil {
			return fmt.Errorf("list trader orders: %w", err)
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			o, err := t.reader.Order(ctx, id)
			if err != nil {
				return fmt.Errorf("read order %s: %w", id, err)
			}
			next[id.String()] = o
		}
		if uint64(len(ids)) < t.pageSize {
			break
		}
		offset += uint64(len(ids))
	}

	t.mu.Lock()
	t.orders = next
	t.mu.Unlock()
	return nil
}

// Get returns a tracked order by id.
func (t *Tracker) Get(id *big.Int) (Order, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	o, ok := t.orders[id.String()]
	return o, ok
}

// Open returns the non-terminal orders, newest first.
func (t *Tracker) Open() []Order {
	t.mu.RLock()
	out := make([]Order, 0, len(t.orders))
	for _, o := range t.orders {
		if !o.Status.Terminal() {
			out = append(out, o)
		}
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// All returns every tracked order, newest first.
func (t *Tracker) All() []Order {
	t.mu.RLock()
	out := make([]Order, 0, len(t.orders))
	for _, o := range t.orders {
		out = append(out, o)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// Len returns the snapshot size.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.orders)
}
