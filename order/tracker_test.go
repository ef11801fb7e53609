package order

import (
	"context"
	"errors"
	"math/big"
	"testing"
)

type fakeReader struct {
	ids     []*big.Int
	orders  map[string]Order
	listErr error
	readErr error
}

func (f *fakeReader) TraderOrders(_ context.Context, offset, limit uint64) ([]*big.Int, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if offset >= uint64(len(f.ids)) {
		return nil, nil
	}
	end := offset + limit
	if end > uint64(len(f.ids)) {
		end = uint64(len(f.ids))
	}
	return f.ids[offset:end], nil
}

func (f *fakeReader) Order(_ context.Context, id *big.Int) (Order, error) {
	if f.readErr != nil {
		return Order{}, f.readErr
	}
	return f.orders[id.String()], nil
}

func newFakeReader(orders ...Order) *fakeReader {
	f := &fakeReader{orders: make(map[string]Order)}
	for _, o := range orders {
		f.ids = append(f.ids, o.ID)
		f.orders[o.ID.String()] = o
	}
	return f
}

func TestTrackerRefreshAndOpen(t *testing.T) {
	reader := newFakeReader(
		Order{ID: big.NewInt(1), Timestamp: 100, Status: StatusOpen},
		Order{ID: big.NewInt(2), Timestamp: 200, Status: StatusFilled},
		Order{ID: big.NewInt(3), Timestamp: 300, Status: StatusPartialFilled},
	)
	tr := NewTracker(reader, 2)
	if err := tr.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh err: %v", err)
	}
	if tr.Len() != 3 {
		t.Fatalf("expected 3 tracked orders, got %d", tr.Len())
	}
	open := tr.Open()
	if len(open) != 2 {
		t.Fatalf("expected 2 open orders, got %d", len(open))
	}
	if open[0].ID.Int64() != 3 {
		t.Fatalf("expected newest first, got id %s", open[0].ID)
	}
}

func TestTrackerRefreshKeepsSnapshotOnError(t *testing.T) {
	reader := newFakeReader(Order{ID: big.NewInt(1), Timestamp: 1, Status: StatusOpen})
	tr := NewTracker(reader, 10)
	if err := tr.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh err: %v", err)
	}
	reader.listErr = errors.New("rpc down")
	if err := tr.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}
	if tr.Len() != 1 {
		t.Fatalf("snapshot should be kept on error, got %d", tr.Len())
	}
	if _, ok := tr.Get(big.NewInt(1)); !ok {
		t.Fatalf("order 1 should still be tracked")
	}
}
