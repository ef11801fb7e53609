package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"dex-trader-go/infrastructure/monitor"
)

func TestMonitorCounters(t *testing.T) {
	m := monitor.New(monitor.DefaultConfig())

	m.IncSubmitted("BUY")
	m.IncSubmitted("BUY")
	m.IncSubmitted("SELL")
	m.IncApprovalSent()
	m.IncApprovalSkipped()
	m.IncFailure("OrderReverted")
	m.IncCancelled()
	m.ObserveConfirmLatency("order", 1.5)

	count, err := testutil.GatherAndCount(m.Registry(),
		"dex_trader_orders_submitted_total",
		"dex_trader_approvals_sent_total",
		"dex_trader_approvals_skipped_total",
		"dex_trader_submit_failures_total",
		"dex_trader_orders_cancelled_total",
		"dex_trader_confirm_latency_seconds",
	)
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	// orders_submitted 有两个 side 标签值，其余各一个
	if count != 7 {
		t.Errorf("expected 7 metric series, got %d", count)
	}
}

func TestStartMetricsServer(t *testing.T) {
	m := monitor.New(monitor.DefaultConfig())
	m.IncCancelled()

	addr, shutdown, err := StartMetricsServer("127.0.0.1:0", m.Handler())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			t.Errorf("shutdown failed: %v", err)
		}
	}()

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "dex_trader_orders_cancelled_total 1") {
		t.Errorf("expected cancelled counter in scrape output")
	}
}

func TestMetricsEndpointServesMonitor(t *testing.T) {
	m := monitor.New(monitor.DefaultConfig())
	m.IncSubmitted("BUY")
	m.SetBestPrices("WETH/USDC", 100, 101, 100.5)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	if !strings.Contains(text, `dex_trader_orders_submitted_total{side="BUY"} 1`) {
		t.Errorf("expected orders_submitted_total in scrape output:\n%s", text)
	}
	if !strings.Contains(text, `dex_trader_mid_price{symbol="WETH/USDC"} 100.5`) {
		t.Errorf("expected mid_price in scrape output")
	}
}
