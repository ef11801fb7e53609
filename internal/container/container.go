package container

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"dex-trader-go/chain"
	"dex-trader-go/config"
	"dex-trader-go/infrastructure/logger"
	"dex-trader-go/infrastructure/monitor"
	"dex-trader-go/market"
	"dex-trader-go/monitor/logschema"
	"dex-trader-go/notify"
	"dex-trader-go/order"
	"dex-trader-go/trade"
	"dex-trader-go/wallet"
)

// Container 依赖注入容器，管理所有组件的生命周期
type Container struct {
	// 配置
	cfg config.AppConfig

	// 基础设施
	logger  *logger.Logger
	monitor *monitor.Monitor

	// 链访问
	backend chain.Backend
	book    *chain.OrderBook
	wallet  *wallet.Context

	tokenMu sync.Mutex
	tokens  map[common.Address]*chain.ERC20

	// 核心服务
	notifier  *notify.Notifier
	submitter *trade.Submitter
	tracker   *order.Tracker
	marketSvc *market.Service
	pub       *market.Publisher
	hub       *market.Hub
	api       *trade.API

	// HTTP服务器
	apiServer *http.Server
	wsServer  *http.Server

	// 生命周期管理
	lifecycle *LifecycleManager
}

// New 创建新的Container实例
func New(configPath string) (*Container, error) {
	cfg, err := config.LoadWithEnvOverrides(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	return &Container{
		cfg:       cfg,
		tokens:    make(map[common.Address]*chain.ERC20),
		lifecycle: NewLifecycleManager(),
	}, nil
}

// Config 返回加载的配置
func (c *Container) Config() config.AppConfig { return c.cfg }

// Build 构建所有组件
func (c *Container) Build(ctx context.Context) error {
	if err := c.buildInfrastructure(); err != nil {
		return fmt.Errorf("build infrastructure failed: %w", err)
	}

	if err := c.buildChain(ctx); err != nil {
		return fmt.Errorf("build chain access failed: %w", err)
	}

	if err := c.buildCoreServices(); err != nil {
		return fmt.Errorf("build core services failed: %w", err)
	}

	c.registerLifecycleComponents()
	c.logger.Info("container built successfully")
	return nil
}

func (c *Container) buildInfrastructure() error {
	logCfg := logger.DefaultConfig()
	if c.cfg.Logger.Level != "" {
		logCfg.Level = c.cfg.Logger.Level
	}
	if c.cfg.Logger.Format != "" {
		logCfg.Format = c.cfg.Logger.Format
	}
	if c.cfg.Logger.Outputs != "" {
		logCfg.Outputs = strings.Split(c.cfg.Logger.Outputs, ",")
	}

	var err error
	c.logger, err = logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("create logger failed: %w", err)
	}

	c.monitor = monitor.New(monitor.DefaultConfig())

	c.logger.Info("infrastructure built")
	return nil
}

func (c *Container) buildChain(ctx context.Context) error {
	if c.cfg.Chain.PrivateKey != "" {
		w, err := wallet.NewFromHexKey(c.cfg.Chain.PrivateKey, c.cfg.Chain.ChainID)
		if err != nil {
			return fmt.Errorf("load wallet key failed: %w", err)
		}
		c.wallet = w
	} else {
		c.wallet = wallet.NewDisconnected(c.cfg.Chain.ChainID)
	}

	client, err := chain.Dial(ctx, c.cfg.Chain.RPCURL)
	if err != nil {
		return fmt.Errorf("dial rpc failed: %w", err)
	}
	c.backend = client

	// 公共 RPC 提供商普遍限速，读路径统一走令牌桶
	limiter := countingLimiter{
		inner: chain.NewTokenBucketLimiter(10, 20),
		inc:   func() { c.monitor.IncRPCRequest("book_read") },
	}
	book, err := chain.NewOrderBook(c.backend, common.HexToAddress(c.cfg.Chain.OrderBook), limiter)
	if err != nil {
		return fmt.Errorf("bind order book failed: %w", err)
	}
	c.book = book

	c.logger.Info("chain access built")
	return nil
}

func (c *Container) buildCoreServices() error {
	c.notifier = notify.New([]notify.Channel{notify.NewLogChannel("stderr", nil)}, 5*time.Second)

	c.submitter = trade.NewSubmitter(c.wallet, c.book, c.TokenClient, c.notifier).
		WithMetrics(c.monitor)

	c.tracker = order.NewTracker(c.book.ReaderFor(c.wallet.Address()), 50)

	pairs := make([]market.Pair, 0, len(c.cfg.Pairs))
	pairSpecs := make(map[string]trade.PairSpec, len(c.cfg.Pairs))
	for sym, pc := range c.cfg.Pairs {
		pairs = append(pairs, market.Pair{
			Symbol:          sym,
			TokenAsset:      common.HexToAddress(pc.TokenAsset),
			PaymentAsset:    common.HexToAddress(pc.PaymentAsset),
			TokenDecimals:   pc.TokenDecimals,
			PaymentDecimals: pc.PaymentDecimals,
		})
		pairSpecs[sym] = trade.PairSpec{
			TokenAsset:      common.HexToAddress(pc.TokenAsset),
			PaymentAsset:    common.HexToAddress(pc.PaymentAsset),
			TokenDecimals:   pc.TokenDecimals,
			PaymentDecimals: pc.PaymentDecimals,
		}
	}
	c.api = trade.NewAPI(c.submitter, pairSpecs, schemaSink{c.logger})

	var source market.Source
	if c.cfg.Market.Source == "sim" {
		source = market.NewSimSource(time.Now().UnixNano())
	} else {
		source = market.NewChainSource(c.book)
	}

	c.pub = market.NewPublisher()
	c.marketSvc = market.NewService(
		source,
		c.pub,
		pairs,
		time.Duration(c.cfg.Market.PollIntervalMs)*time.Millisecond,
		time.Duration(c.cfg.Market.JitterMs)*time.Millisecond,
		time.Duration(c.cfg.Market.KlineIntervalS)*time.Second,
	).WithMetrics(c.monitor)

	if c.cfg.Market.WSAddr != "" {
		c.hub = market.NewHub(c.pub)
		c.hub.OnClientCount(c.monitor.SetWSClients)
	}

	c.logger.Info("core services built")
	return nil
}

// countingLimiter 在限流前计数，读调用量进入监控指标
type countingLimiter struct {
	inner chain.RateLimiter
	inc   func()
}

func (l countingLimiter) Wait() {
	l.inc()
	l.inner.Wait()
}

// TokenClient 返回指定资产的ERC20客户端，按地址缓存绑定。
func (c *Container) TokenClient(asset common.Address) (trade.TokenClient, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	if t, ok := c.tokens[asset]; ok {
		return t, nil
	}
	t, err := chain.NewERC20(c.backend, asset, chain.NopLimiter{})
	if err != nil {
		return nil, err
	}
	c.tokens[asset] = t
	return t, nil
}

// schemaSink 在落日志前校验事件必填字段，缺字段的事件带 _schema_error 落盘
type schemaSink struct {
	l *logger.Logger
}

func (s schemaSink) LogOrder(event, orderID string, fields map[string]interface{}) {
	s.l.LogOrder(event, orderID, schemaFields(event, fields))
}

func (s schemaSink) LogTx(event, txHash string, fields map[string]interface{}) {
	s.l.LogTx(event, txHash, schemaFields(event, fields))
}

func schemaFields(event string, fields map[string]interface{}) map[string]interface{} {
	if err := logschema.Validate(event, fields); err != nil {
		fields["_schema_error"] = err.Error()
	}
	return fields
}

func (c *Container) registerLifecycleComponents() {
	c.lifecycle.Register(&metricsComponent{
		name:    "metrics_server",
		addr:    c.cfg.Server.MetricsAddr,
		handler: c.monitor.Handler(),
		logger:  c.logger,
	})

	apiMux := http.NewServeMux()
	c.api.Register(apiMux)
	c.lifecycle.Register(&httpServerComponent{
		name:    "api_server",
		handler: apiMux,
		addr:    c.cfg.Server.APIAddr,
		logger:  c.logger,
		server:  &c.apiServer,
	})

	c.lifecycle.Register(&loopComponent{
		name:   "market_service",
		run:    c.marketSvc.Run,
		logger: c.logger,
	})

	if c.hub != nil {
		c.lifecycle.Register(&loopComponent{
			name:   "ws_hub",
			run:    c.hub.Run,
			logger: c.logger,
		})
		mux := http.NewServeMux()
		mux.HandleFunc("/ws/market", c.hub.HandleWS)
		c.lifecycle.Register(&httpServerComponent{
			name:    "ws_server",
			handler: mux,
			addr:    c.cfg.Market.WSAddr,
			logger:  c.logger,
			server:  &c.wsServer,
		})
	}

	// 快照以 schema 校验过的结构化事件落日志，供离线对账
	snaps := c.pub.SubscribeSnapshot()
	c.lifecycle.Register(&loopComponent{
		name: "snapshot_log",
		run: func(ctx context.Context) {
			for {
				select {
				case <-ctx.Done():
					return
				case snap := <-snaps:
					c.logger.LogMarket("market_snapshot", schemaFields("market_snapshot", map[string]interface{}{
						"symbol": snap.Symbol,
						"bid":    snap.BestBid.String(),
						"ask":    snap.BestAsk.String(),
					}))
				}
			}
		},
		logger: c.logger,
	})

	// 本地订单跟踪按行情轮询同样的节奏刷新
	c.lifecycle.Register(&loopComponent{
		name: "order_tracker",
		run: func(ctx context.Context) {
			interval := time.Duration(c.cfg.Market.PollIntervalMs) * time.Millisecond
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(interval):
				}
				if !c.wallet.Connected() {
					continue
				}
				if err := c.tracker.Refresh(ctx); err != nil {
					c.logger.LogError(err, map[string]interface{}{"action": "tracker_refresh"})
					continue
				}
				c.monitor.SetTrackedOrders(c.tracker.Len())
			}
		},
		logger: c.logger,
	})
}

// Submitter 返回交易提交器
func (c *Container) Submitter() *trade.Submitter { return c.submitter }

// Tracker 返回本地订单跟踪器
func (c *Container) Tracker() *order.Tracker { return c.tracker }

// Wallet 返回钱包上下文
func (c *Container) Wallet() *wallet.Context { return c.wallet }

// OrderBook 返回订单簿客户端
func (c *Container) OrderBook() *chain.OrderBook { return c.book }

// Market 返回行情服务
func (c *Container) Market() *market.Service { return c.marketSvc }

// Monitor 返回监控指标收集器
func (c *Container) Monitor() *monitor.Monitor { return c.monitor }

// Logger 返回结构化日志器
func (c *Container) Logger() *logger.Logger { return c.logger }

func (c *Container) Start(ctx context.Context) error {
	c.logger.Info("starting container...")

	if err := c.lifecycle.StartAll(ctx); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}

	c.logger.Info("container started")
	return nil
}

func (c *Container) Stop() error {
	c.logger.Info("stopping container...")

	if err := c.lifecycle.StopAll(); err != nil {
		c.logger.LogError(err, map[string]interface{}{"action": "stop"})
		return err
	}

	c.wallet.Close()

	if c.logger != nil {
		c.logger.Close()
	}

	return nil
}

func (c *Container) HealthCheck() error {
	return c.lifecycle.CheckHealth()
}
