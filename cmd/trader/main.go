package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	appconfig "dex-trader-go/config"
	hotreload "dex-trader-go/internal/config"
	"dex-trader-go/internal/container"
	"dex-trader-go/monitor/logschema"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	c, err := container.New(*cfgPath)
	if err != nil {
		log.Fatalf("初始化容器失败: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := c.Build(ctx); err != nil {
		log.Fatalf("构建组件失败: %v", err)
	}
	if err := c.Start(ctx); err != nil {
		log.Fatalf("启动失败: %v", err)
	}

	reloader, err := hotreload.NewHotReloader(*cfgPath, hotreload.DefaultHotReloadConfig())
	if err != nil {
		log.Fatalf("初始化热更新失败: %v", err)
	}
	reloader.RegisterValidator("market", &hotreload.MarketParameterValidator{})
	reloader.RegisterValidator("chain", &hotreload.ChainParameterValidator{})
	reloader.SetReloadHandler(func(cfg appconfig.AppConfig) error {
		// 链与钱包参数需要重启才能生效，这里只接管可热切的部分
		logEvent("config_reloaded", map[string]interface{}{
			"source":     cfg.Market.Source,
			"intervalMs": cfg.Market.PollIntervalMs,
		})
		return nil
	})
	if err := reloader.Start(ctx); err != nil {
		log.Printf("启动热更新失败: %v", err)
	}
	defer reloader.Stop()

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Printf("sd_notify 失败: %v", err)
	} else if sent {
		logEvent("sd_notify_ready", nil)
	}

	cfg := c.Config()
	logEvent("trader_started", map[string]interface{}{
		"env":    cfg.Env,
		"source": cfg.Market.Source,
		"pairs":  len(cfg.Pairs),
		"trader": c.Wallet().Address().Hex(),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	cancel()
	if err := c.Stop(); err != nil {
		log.Printf("停止失败: %v", err)
	}
	logEvent("trader_exit", nil)
}

func logEvent(event string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	if err := logschema.Validate(event, fields); err != nil {
		fields["_schema_error"] = err.Error()
	}
	fields["event"] = event
	fields["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(fields)
	if err != nil {
		log.Printf("%s %+v", event, fields)
		return
	}
	log.Println(string(data))
	if isErrorEvent(event, fields) {
		appendErrorLog(data)
	}
}

func isErrorEvent(event string, fields map[string]interface{}) bool {
	if strings.Contains(event, "error") {
		return true
	}
	if _, ok := fields["error"]; ok {
		return true
	}
	return false
}

func appendErrorLog(line []byte) {
	const errorLogPath = "/var/log/dex-trader/trader_errors.log"
	f, err := os.OpenFile(errorLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0664)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return
	}
}
