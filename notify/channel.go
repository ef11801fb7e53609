package notify

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Channel 通知通道接口
type Channel interface {
	Send(event Event) error
	Name() string
}

// LogChannel 把通知写入标准日志
type LogChannel struct {
	logger *log.Logger
	name   string
}

func NewLogChannel(name string, output *os.File) *LogChannel {
	if output == nil {
		output = os.Stdout
	}
	return &LogChannel{
		logger: log.New(output, "[NOTIFY] ", log.LstdFlags),
		name:   name,
	}
}

func (c *LogChannel) Send(event Event) error {
	msg := fmt.Sprintf("[%s] %s %s", event.Level, event.Topic, event.Message)
	if len(event.Fields) > 0 {
		msg += " |"
		for k, v := range event.Fields {
			msg += fmt.Sprintf(" %s=%v", k, v)
		}
	}
	c.logger.Println(msg)
	return nil
}

func (c *LogChannel) Name() string { return c.name }

// MockChannel 测试用通道，记录全部事件
type MockChannel struct {
	name string

	mu     sync.Mutex
	events []Event
	err    error
}

func NewMockChannel(name string) *MockChannel {
	return &MockChannel{name: name}
}

func (c *MockChannel) Send(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, event)
	return nil
}

func (c *MockChannel) Name() string { return c.name }

// Events returns a copy of everything sent so far.
func (c *MockChannel) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event{}, c.events...)
}

// FailWith makes subsequent sends return err.
func (c *MockChannel) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}
