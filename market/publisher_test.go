package market

import (
	"testing"
	"time"
)

func TestPublisherSnapshotFanOut(t *testing.T) {
	pub := NewPublisher()
	a := pub.SubscribeSnapshot()
	b := pub.SubscribeSnapshot()
	snap := newSnapshot("WETH/USDC", Quote{BestBid: d("100"), BestAsk: d("101")}, time.Now())
	pub.PublishSnapshot(snap)
	for _, ch := range []<-chan Snapshot{a, b} {
		select {
		case got := <-ch:
			if got.Symbol != "WETH/USDC" || !got.Mid.Equal(d("100.5")) {
				t.Fatalf("unexpected snapshot %+v", got)
			}
		default:
			t.Fatalf("expected snapshot delivered")
		}
	}
}

func TestPublisherDropsWhenSubscriberFull(t *testing.T) {
	pub := NewPublisher()
	ch := pub.SubscribeKline()
	k := Kline{Symbol: "WETH/USDC", Open: d("1"), High: d("1"), Low: d("1"), Close: d("1")}
	// 填满缓冲后继续发布不应阻塞
	for i := 0; i < 20; i++ {
		pub.PublishKline(k)
	}
	if len(ch) == 0 {
		t.Fatalf("expected at least one kline buffered")
	}
}
