package market

import "sync"

// Publisher 一个轻量事件分发器，慢订阅者丢弃而不阻塞轮询循环。
type Publisher struct {
	mu           sync.Mutex
	snapshotSubs []chan Snapshot
	klineSubs    []chan Kline
}

func NewPublisher() *Publisher {
	return &Publisher{
		snapshotSubs: make([]chan Snapshot, 0),
		klineSubs:    make([]chan Kline, 0),
	}
}

func (p *Publisher) SubscribeSnapshot() <-chan Snapshot {
	ch := make(chan Snapshot, 8)
	p.mu.Lock()
	p.snapshotSubs = append(p.snapshotSubs, ch)
	p.mu.Unlock()
	return ch
}

func (p *Publisher) SubscribeKline() <-chan Kline {
	ch := make(chan Kline, 8)
	p.mu.Lock()
	p.klineSubs = append(p.klineSubs, ch)
	p.mu.Unlock()
	return ch
}

func (p *Publisher) PublishSnapshot(s Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.snapshotSubs {
		select {
		case ch <- s:
		default:
		}
	}
}

func (p *Publisher) PublishKline(k Kline) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.klineSubs {
		select {
		case ch <- k:
		default:
		}
	}
}
