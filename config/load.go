package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env    string                `yaml:"env"`
	Chain  ChainConfig           `yaml:"chain"`
	Market MarketConfig          `yaml:"market"`
	Server ServerConfig          `yaml:"server"`
	Logger LoggerConfig          `yaml:"logger"`
	Pairs  map[string]PairConfig `yaml:"pairs"`
}

// ServerConfig 本地 HTTP 监听地址；写死端口会和同机其他进程冲突。
type ServerConfig struct {
	MetricsAddr string `yaml:"metricsAddr"` // Prometheus 抓取端点，缺省 :9100
	APIAddr     string `yaml:"apiAddr"`     // 下单/撤单控制接口，缺省 :8080
}

type ChainConfig struct {
	RPCURL     string `yaml:"rpcURL"`
	WSURL      string `yaml:"wsURL"`
	ChainID    int64  `yaml:"chainID"`
	OrderBook  string `yaml:"orderBook"`
	PrivateKey string `yaml:"privateKey"`
}

// MarketConfig 行情轮询参数；间隔与抖动都显式配置，避免写死在代码里。
type MarketConfig struct {
	PollIntervalMs int    `yaml:"pollIntervalMs"` // 轮询基础周期（毫秒）
	JitterMs       int    `yaml:"jitterMs"`       // 每次轮询附加的随机抖动上限（毫秒）
	Source         string `yaml:"source"`         // chain 或 sim，显式选择数据源
	KlineIntervalS int    `yaml:"klineIntervalS"` // K线聚合周期（秒）
	WSAddr         string `yaml:"wsAddr"`         // 行情推送 WebSocket 监听地址，留空则关闭
}

type LoggerConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Outputs string `yaml:"outputs"`
}

// PairConfig 保存交易对的链上资产地址与精度。
type PairConfig struct {
	TokenAsset      string `yaml:"tokenAsset"`      // 交易资产（tokenized stock）合约地址
	PaymentAsset    string `yaml:"paymentAsset"`    // 计价资产（稳定币）合约地址
	TokenDecimals   int32  `yaml:"tokenDecimals"`   // 缺省 18
	PaymentDecimals int32  `yaml:"paymentDecimals"` // 缺省 18
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides sensitive fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("DEX_PRIVATE_KEY"); v != "" {
		cfg.Chain.PrivateKey = v
	}
	if v := os.Getenv("DEX_RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	return cfg, Validate(cfg)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Market.PollIntervalMs == 0 {
		cfg.Market.PollIntervalMs = 3000
	}
	if cfg.Market.JitterMs == 0 {
		cfg.Market.JitterMs = 300
	}
	if cfg.Market.Source == "" {
		cfg.Market.Source = "chain"
	}
	if cfg.Market.KlineIntervalS == 0 {
		cfg.Market.KlineIntervalS = 60
	}
	if cfg.Server.MetricsAddr == "" {
		cfg.Server.MetricsAddr = ":9100"
	}
	if cfg.Server.APIAddr == "" {
		cfg.Server.APIAddr = ":8080"
	}
	for sym, pc := range cfg.Pairs {
		if pc.TokenDecimals == 0 {
			pc.TokenDecimals = 18
		}
		if pc.PaymentDecimals == 0 {
			pc.PaymentDecimals = 18
		}
		cfg.Pairs[sym] = pc
	}
}

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Chain.RPCURL == "" {
		return errors.New("chain.rpcURL is required (or DEX_RPC_URL)")
	}
	if cfg.Chain.ChainID <= 0 {
		return errors.New("chain.chainID must be > 0")
	}
	if !isHexAddress(cfg.Chain.OrderBook) {
		return errors.New("chain.orderBook must be a hex contract address")
	}
	switch cfg.Market.Source {
	case "chain", "sim":
	default:
		return fmt.Errorf("market.source must be chain or sim, got %q", cfg.Market.Source)
	}
	if cfg.Market.PollIntervalMs < 0 {
		return errors.New("market.pollIntervalMs must be >= 0")
	}
	if cfg.Market.JitterMs < 0 {
		return errors.New("market.jitterMs must be >= 0")
	}
	if len(cfg.Pairs) == 0 {
		return errors.New("pairs config is required")
	}
	for sym, pc := range cfg.Pairs {
		if !isHexAddress(pc.TokenAsset) {
			return fmt.Errorf("pair %s tokenAsset must be a hex address", sym)
		}
		if !isHexAddress(pc.PaymentAsset) {
			return fmt.Errorf("pair %s paymentAsset must be a hex address", sym)
		}
		if pc.TokenDecimals < 0 || pc.TokenDecimals > 36 {
			return fmt.Errorf("pair %s tokenDecimals out of range", sym)
		}
		if pc.PaymentDecimals < 0 || pc.PaymentDecimals > 36 {
			return fmt.Errorf("pair %s paymentDecimals out of range", sym)
		}
	}
	return nil
}

func isHexAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") || len(s) != 42 {
		return false
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
