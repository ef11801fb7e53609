package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
env: dev
chain:
  rpcURL: https://rpc.test
  chainID: 137
  orderBook: "0x00000000000000000000000000000000000000b1"
market:
  pollIntervalMs: 2000
  jitterMs: 200
  source: chain
pairs:
  AAPLX-USDC:
    tokenAsset: "0x00000000000000000000000000000000000000a1"
    paymentAsset: "0x00000000000000000000000000000000000000a2"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Env != "dev" || cfg.Chain.ChainID != 137 {
		t.Fatalf("unexpected cfg values: %+v", cfg)
	}
	pc, ok := cfg.Pairs["AAPLX-USDC"]
	if !ok {
		t.Fatalf("pair missing")
	}
	if pc.TokenDecimals != 18 || pc.PaymentDecimals != 18 {
		t.Fatalf("expected decimals defaulted to 18, got %+v", pc)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)
	t.Setenv("DEX_PRIVATE_KEY", "deadbeef")
	t.Setenv("DEX_RPC_URL", "https://rpc.override")
	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Chain.PrivateKey != "deadbeef" || cfg.Chain.RPCURL != "https://rpc.override" {
		t.Fatalf("env overrides not applied: %+v", cfg.Chain)
	}
}

func TestServerAddrDefaultsAndOverride(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.MetricsAddr != ":9100" || cfg.Server.APIAddr != ":8080" {
		t.Fatalf("server defaults not applied: %+v", cfg.Server)
	}

	path = writeTempConfig(t, sampleConfig+`
server:
  metricsAddr: "127.0.0.1:19100"
  apiAddr: "127.0.0.1:18080"
`)
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.MetricsAddr != "127.0.0.1:19100" || cfg.Server.APIAddr != "127.0.0.1:18080" {
		t.Fatalf("server overrides not applied: %+v", cfg.Server)
	}
}

func TestValidateRejectsBadSource(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Market.Source = "mock"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected source validation error")
	}
}

func TestValidateRejectsBadAddress(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Chain.OrderBook = "orderbook.eth"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected address validation error")
	}
}
