package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// 订单指标
	ordersSubmitted *prometheus.CounterVec
	ordersCancelled prometheus.Counter
	submitFailures  *prometheus.CounterVec
	confirmLatency  *prometheus.HistogramVec

	// 授权指标
	approvalsSent    prometheus.Counter
	approvalsSkipped prometheus.Counter

	// 市场指标
	bidPrice *prometheus.GaugeVec
	askPrice *prometheus.GaugeVec
	midPrice *prometheus.GaugeVec

	// 系统指标
	pollErrors    *prometheus.CounterVec
	wsClients     prometheus.Gauge
	rpcRequests   *prometheus.CounterVec
	trackedOrders prometheus.Gauge
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "dex",
		Subsystem: "trader",
	}
}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Monitor{
		registry: reg,

		ordersSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "orders_submitted_total",
				Help:      "订单提交成功总数",
			},
			[]string{"side"},
		),
		ordersCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_cancelled_total",
			Help:      "订单撤销成功总数",
		}),
		submitFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "submit_failures_total",
				Help:      "提交失败总数，按错误类别分类",
			},
			[]string{"code"},
		),
		confirmLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "confirm_latency_seconds",
				Help:      "交易确认延迟分布（秒）",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"stage"},
		),

		approvalsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "approvals_sent_total",
			Help:      "发送的approve交易总数",
		}),
		approvalsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "approvals_skipped_total",
			Help:      "额度已足而跳过approve的次数",
		}),

		bidPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "bid_price",
				Help:      "当前买一价",
			},
			[]string{"symbol"},
		),
		askPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ask_price",
				Help:      "当前卖一价",
			},
			[]string{"symbol"},
		),
		midPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "mid_price",
				Help:      "当前中间价",
			},
			[]string{"symbol"},
		),

		pollErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "poll_errors_total",
				Help:      "行情轮询错误总数",
			},
			[]string{"symbol"},
		),
		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ws_clients",
			Help:      "当前WebSocket客户端数",
		}),
		rpcRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rpc_requests_total",
				Help:      "RPC请求总数",
			},
			[]string{"action"},
		),
		trackedOrders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "tracked_orders",
			Help:      "本地跟踪的订单数",
		}),
	}

	return m
}

// 订单相关方法，满足提交器的指标接口

func (m *Monitor) IncSubmitted(side string) {
	m.ordersSubmitted.WithLabelValues(side).Inc()
}

func (m *Monitor) IncCancelled() {
	m.ordersCancelled.Inc()
}

func (m *Monitor) IncFailure(code string) {
	m.submitFailures.WithLabelValues(code).Inc()
}

func (m *Monitor) ObserveConfirmLatency(stage string, seconds float64) {
	m.confirmLatency.WithLabelValues(stage).Observe(seconds)
}

func (m *Monitor) IncApprovalSent() {
	m.approvalsSent.Inc()
}

func (m *Monitor) IncApprovalSkipped() {
	m.approvalsSkipped.Inc()
}

// 市场相关方法，满足行情服务的指标接口

func (m *Monitor) SetBestPrices(symbol string, bid, ask, mid float64) {
	m.bidPrice.WithLabelValues(symbol).Set(bid)
	m.askPrice.WithLabelValues(symbol).Set(ask)
	m.midPrice.WithLabelValues(symbol).Set(mid)
}

func (m *Monitor) IncPollError(symbol string) {
	m.pollErrors.WithLabelValues(symbol).Inc()
}

// 系统相关方法

func (m *Monitor) SetWSClients(n int) {
	m.wsClients.Set(float64(n))
}

func (m *Monitor) IncRPCRequest(action string) {
	m.rpcRequests.WithLabelValues(action).Inc()
}

func (m *Monitor) SetTrackedOrders(n int) {
	m.trackedOrders.Set(float64(n))
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
