package notify

import (
	"fmt"
	"sync"
	"time"
)

// Level of a notification event.
type Level string

const (
	LevelPending Level = "PENDING"
	LevelInfo    Level = "INFO"
	LevelSuccess Level = "SUCCESS"
	LevelError   Level = "ERROR"
)

// Event 一条通知；Topic 标识一次用户发起的操作生命周期。
type Event struct {
	Level     Level
	Topic     string
	Message   string
	Timestamp time.Time
	Fields    map[string]interface{}
}

// Throttler 限制相同通知的发送频率
type Throttler struct {
	lastSent map[string]time.Time
	interval time.Duration
	mu       sync.Mutex
}

func NewThrottler(interval time.Duration) *Throttler {
	return &Throttler{
		lastSent: make(map[string]time.Time),
		interval: interval,
	}
}

// Allow 检查是否允许发送（限流）
func (t *Throttler) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	last, exists := t.lastSent[key]
	if !exists || now.Sub(last) >= t.interval {
		t.lastSent[key] = now
		return true
	}
	return false
}

// Clear 清空限流记录
func (t *Throttler) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSent = make(map[string]time.Time)
}

// Notifier fans notification events out to channels. Each user-initiated
// operation gets one pending→resolved lifecycle through Begin; lifecycle
// events are never throttled, only repeated intermediate INFO events are.
type Notifier struct {
	channels []Channel
	throttle *Throttler
	mu       sync.RWMutex
}

func New(channels []Channel, throttleInterval time.Duration) *Notifier {
	return &Notifier{
		channels: channels,
		throttle: NewThrottler(throttleInterval),
	}
}

// AddChannel 添加通知通道
func (n *Notifier) AddChannel(ch Channel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.channels = append(n.channels, ch)
}

// Begin opens a notification lifecycle and emits the pending event.
func (n *Notifier) Begin(topic, message string, fields map[string]interface{}) *Pending {
	p := &Pending{notifier: n, topic: topic}
	n.send(Event{Level: LevelPending, Topic: topic, Message: message, Fields: fields})
	return p
}

func (n *Notifier) send(event Event) {
	if n == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Level == LevelInfo {
		key := fmt.Sprintf("%s:%s", event.Topic, event.Message)
		if !n.throttle.Allow(key) {
			return
		}
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.channels {
		// 单个通道失败不影响其余通道
		_ = ch.Send(event)
	}
}

// Pending is an unresolved notification lifecycle. It resolves exactly once;
// later resolutions are ignored so a lifecycle can never flip outcome.
type Pending struct {
	notifier *Notifier
	topic    string
	once     sync.Once
	resolved bool
	mu       sync.Mutex
}

// Info emits an intermediate informational event, e.g. the approval step.
func (p *Pending) Info(message string, fields map[string]interface{}) {
	if p == nil {
		return
	}
	p.notifier.send(Event{Level: LevelInfo, Topic: p.topic, Message: message, Fields: fields})
}

// Succeed resolves the lifecycle as successful.
func (p *Pending) Succeed(message string, fields map[string]interface{}) {
	p.resolve(LevelSuccess, message, fields)
}

// Fail resolves the lifecycle as failed.
func (p *Pending) Fail(message string, fields map[string]interface{}) {
	p.resolve(LevelError, message, fields)
}

// Resolved reports whether the lifecycle has terminated.
func (p *Pending) Resolved() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolved
}

func (p *Pending) resolve(level Level, message string, fields map[string]interface{}) {
	if p == nil {
		return
	}
	p.once.Do(func() {
		p.mu.Lock()
		p.resolved = true
		p.mu.Unlock()
		p.notifier.send(Event{Level: level, Topic: p.topic, Message: message, Fields: fields})
	})
}
