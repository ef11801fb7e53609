package market

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"dex-trader-go/logs"
)

// Metrics is the monitoring surface the poll loop reports into.
type Metrics interface {
	SetBestPrices(symbol string, bid, ask, mid float64)
	IncPollError(symbol string)
}

type nopMetrics struct{}

func (nopMetrics) SetBestPrices(string, float64, float64, float64) {}
func (nopMetrics) IncPollError(string)                             {}

// Service 按固定间隔加抖动轮询所有交易对，维护最新快照并向订阅者广播。
type Service struct {
	source   Source
	pub      *Publisher
	pairs    []Pair
	interval time.Duration
	jitter   time.Duration
	metrics  Metrics

	mu     sync.RWMutex
	latest map[string]Snapshot
	last   map[string]time.Time
	aggs   map[string]*KlineAggregator
	rnd    *rand.Rand
}

func NewService(source Source, pub *Publisher, pairs []Pair, interval, jitter, klineInterval time.Duration) *Service {
	if pub == nil {
		pub = NewPublisher()
	}
	aggs := make(map[string]*KlineAggregator, len(pairs))
	for _, p := range pairs {
		aggs[p.Symbol] = NewKlineAggregator(p.Symbol, klineInterval)
	}
	return &Service{
		source:   source,
		pub:      pub,
		pairs:    pairs,
		interval: interval,
		jitter:   jitter,
		metrics:  nopMetrics{},
		latest:   make(map[string]Snapshot),
		last:     make(map[string]time.Time),
		aggs:     aggs,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Service) WithMetrics(m Metrics) *Service {
	if m != nil {
		s.metrics = m
	}
	return s
}

func (s *Service) Publisher() *Publisher { return s.pub }

// Run 阻塞运行轮询循环直到 ctx 取消。
func (s *Service) Run(ctx context.Context) {
	logs.Info("market service started", "source", s.source.Name(), "pairs", len(s.pairs), "interval", s.interval.String())
	for {
		s.PollOnce(ctx)
		select {
		case <-ctx.Done():
			logs.Info("market service stopped")
			return
		case <-time.After(s.nextDelay()):
		}
	}
}

// PollOnce 对所有交易对采样一轮。
func (s *Service) PollOnce(ctx context.Context) {
	now := time.Now()
	for _, pair := range s.pairs {
		quote, err := s.source.BestPrices(ctx, pair)
		if err != nil {
			s.metrics.IncPollError(pair.Symbol)
			logs.Warn("poll best prices failed", "symbol", pair.Symbol, "err", err)
			continue
		}
		snap := newSnapshot(pair.Symbol, quote, now)

		s.mu.Lock()
		s.latest[pair.Symbol] = snap
		s.last[pair.Symbol] = now
		agg := s.aggs[pair.Symbol]
		s.mu.Unlock()

		bid, _ := snap.BestBid.Float64()
		ask, _ := snap.BestAsk.Float64()
		mid, _ := snap.Mid.Float64()
		s.metrics.SetBestPrices(pair.Symbol, bid, ask, mid)

		s.pub.PublishSnapshot(snap)
		if agg != nil {
			if closed := agg.OnSample(snap.Mid, now); closed != nil {
				s.pub.PublishKline(*closed)
			}
		}
	}
}

func (s *Service) nextDelay() time.Duration {
	d := s.interval
	if s.jitter > 0 {
		s.mu.Lock()
		d += time.Duration(s.rnd.Int63n(int64(s.jitter)))
		s.mu.Unlock()
	}
	return d
}

// Latest 返回指定交易对的最新快照。
func (s *Service) Latest(symbol string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.latest[symbol]
	return snap, ok
}

// Staleness 返回距离上次成功采样的时间间隔；如无数据返回正无穷近似值。
func (s *Service) Staleness(symbol string) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.last[symbol]
	if !ok {
		return time.Hour * 24 * 365
	}
	return time.Since(ts)
}
