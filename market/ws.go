package market

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dex-trader-go/logs"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsSendBuffer = 16
)

type wsEnvelope struct {
	Type string `json:"type"` // snapshot | kline
	Data any    `json:"data"`
}

// wsClient 一个前端连接；写全部经 writePump 串行化
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Hub 向前端 WebSocket 客户端推送快照与 Kline。
type Hub struct {
	upgrader websocket.Upgrader
	pub      *Publisher
	pongWait time.Duration

	mu    sync.Mutex
	conns map[*wsClient]struct{}

	onCount func(n int)
}

func NewHub(pub *Publisher) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// 行情是公开数据，不校验 Origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
		pub:      pub,
		pongWait: wsPongWait,
		conns:    make(map[*wsClient]struct{}),
	}
}

// OnClientCount 注册连接数变化回调，用于指标上报。
func (h *Hub) OnClientCount(fn func(n int)) { h.onCount = fn }

// 心跳必须快于读超时，否则 pong 来不及续期
func (h *Hub) pingPeriod() time.Duration { return h.pongWait * 9 / 10 }

// HandleWS 升级 HTTP 连接并纳入广播集合。
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logs.Warn("ws upgrade failed", "err", err)
		return
	}
	c := &wsClient{
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
		done: make(chan struct{}),
	}
	h.add(c)
	go h.writePump(c)
	go h.readPump(c)
}

// readPump 只消费控制帧，客户端不发业务消息。读超时由服务端
// 周期 ping 换回的 pong 续期。
func (h *Hub) readPump(c *wsClient) {
	defer h.remove(c)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump 串行化该连接的所有写：广播帧与周期 ping。
func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(h.pingPeriod())
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// Run 消费发布器事件并广播，阻塞直到 ctx 取消。
func (h *Hub) Run(ctx context.Context) {
	snaps := h.pub.SubscribeSnapshot()
	klines := h.pub.SubscribeKline()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case snap := <-snaps:
			h.broadcast(wsEnvelope{Type: "snapshot", Data: snap})
		case k := <-klines:
			h.broadcast(wsEnvelope{Type: "kline", Data: k})
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	if h.onCount != nil {
		h.onCount(n)
	}
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.conns[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c)
	n := len(h.conns)
	h.mu.Unlock()
	close(c.done)
	_ = c.conn.Close()
	if h.onCount != nil {
		h.onCount(n)
	}
}

func (h *Hub) broadcast(env wsEnvelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		logs.Error("ws marshal failed", "err", err)
		return
	}
	h.mu.Lock()
	conns := make([]*wsClient, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		select {
		case c.send <- payload:
		default:
			// 慢客户端丢帧，下一个快照会补上
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	conns := make([]*wsClient, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[*wsClient]struct{})
	h.mu.Unlock()
	for _, c := range conns {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
		close(c.done)
		_ = c.conn.Close()
	}
}
