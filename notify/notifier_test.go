package notify

import (
	"testing"
	"time"
)

func levels(events []Event) []Level {
	out := make([]Level, 0, len(events))
	for _, e := range events {
		out = append(out, e.Level)
	}
	return out
}

func TestLifecyclePendingToSuccess(t *testing.T) {
	ch := NewMockChannel("mock")
	n := New([]Channel{ch}, time.Minute)

	p := n.Begin("order_submit", "submitting order", nil)
	p.Info("approval required", nil)
	p.Succeed("order confirmed", map[string]interface{}{"tx": "0xabc"})

	got := levels(ch.Events())
	want := []Level{LevelPending, LevelInfo, LevelSuccess}
	if len(got) != len(want) {
		t.Fatalf("events = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
	if !p.Resolved() {
		t.Fatalf("lifecycle should be resolved")
	}
}

func TestLifecycleResolvesOnce(t *testing.T) {
	ch := NewMockChannel("mock")
	n := New([]Channel{ch}, time.Minute)

	p := n.Begin("order_cancel", "cancelling", nil)
	p.Fail("reverted", nil)
	p.Succeed("should be ignored", nil)

	got := levels(ch.Events())
	if len(got) != 2 || got[1] != LevelError {
		t.Fatalf("outcome must not flip: %v", got)
	}
}

func TestInfoThrottled(t *testing.T) {
	ch := NewMockChannel("mock")
	n := New([]Channel{ch}, time.Minute)

	p := n.Begin("order_submit", "submitting", nil)
	p.Info("same message", nil)
	p.Info("same message", nil)
	p.Succeed("done", nil)

	if got := levels(ch.Events()); len(got) != 3 {
		t.Fatalf("duplicate info should be throttled: %v", got)
	}
}

func TestLifecycleEventsNeverThrottled(t *testing.T) {
	ch := NewMockChannel("mock")
	n := New([]Channel{ch}, time.Hour)

	// 相同消息的两个独立生命周期都必须完整送达
	for i := 0; i < 2; i++ {
		p := n.Begin("order_submit", "submitting order", nil)
		p.Succeed("order confirmed", nil)
	}
	if got := levels(ch.Events()); len(got) != 4 {
		t.Fatalf("lifecycle events dropped: %v", got)
	}
}
