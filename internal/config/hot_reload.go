package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	appconfig "dex-trader-go/config"
	"dex-trader-go/logs"
)

// HotReloadConfig 热更新配置
type HotReloadConfig struct {
	Enabled      bool          // 是否启用热更新
	CooldownTime time.Duration // 冷却时间，避免频繁更新
}

// DefaultHotReloadConfig 默认热更新配置
func DefaultHotReloadConfig() HotReloadConfig {
	return HotReloadConfig{
		Enabled:      true,
		CooldownTime: 5 * time.Second,
	}
}

// ParameterValidator 参数验证器接口
type ParameterValidator interface {
	Validate(params map[string]interface{}) error
}

// ParameterApplier 参数应用器接口
type ParameterApplier interface {
	ApplyParameters(params map[string]interface{}) error
}

// HotReloader 配置热更新器，文件变更后重新加载并下发给注册的处理函数。
type HotReloader struct {
	config        HotReloadConfig
	configPath    string
	watcher       *fsnotify.Watcher
	validators    map[string]ParameterValidator
	appliers      map[string]ParameterApplier
	lastReload    time.Time
	mu            sync.RWMutex
	stopChan      chan struct{}
	doneChan      chan struct{}
	reloadHandler func(newConfig appconfig.AppConfig) error
}

// NewHotReloader 创建热更新器
func NewHotReloader(configPath string, cfg HotReloadConfig) (*HotReloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &HotReloader{
		config:     cfg,
		configPath: configPath,
		watcher:    watcher,
		validators: make(map[string]ParameterValidator),
		appliers:   make(map[string]ParameterApplier),
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}, nil
}

// RegisterValidator 注册参数验证器
func (h *HotReloader) RegisterValidator(name string, validator ParameterValidator) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.validators[name] = validator
}

// RegisterApplier 注册参数应用器
func (h *HotReloader) RegisterApplier(name string, applier ParameterApplier) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.appliers[name] = applier
}

// SetReloadHandler 设置重载处理函数
func (h *HotReloader) SetReloadHandler(handler func(newConfig appconfig.AppConfig) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reloadHandler = handler
}

// Start 启动热更新监听
func (h *HotReloader) Start(ctx context.Context) error {
	if !h.config.Enabled {
		return nil
	}

	if err := h.watcher.Add(h.configPath); err != nil {
		return fmt.Errorf("failed to watch config file: %w", err)
	}

	go h.watch(ctx)

	return nil
}

// Stop 停止热更新
func (h *HotReloader) Stop() error {
	if !h.config.Enabled {
		if h.watcher != nil {
			return h.watcher.Close()
		}
		return nil
	}

	select {
	case <-h.stopChan:
	default:
		close(h.stopChan)
	}

	// 等待 goroutine 结束（带超时）
	select {
	case <-h.doneChan:
	case <-time.After(1 * time.Second):
	}

	if h.watcher != nil {
		return h.watcher.Close()
	}

	return nil
}

// watch 监听文件变化
func (h *HotReloader) watch(ctx context.Context) {
	defer close(h.doneChan)

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopChan:
			return
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}

			// 只处理写入和创建事件
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				h.handleConfigChange()
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			logs.Warn("config watcher error", "err", err)
		}
	}
}

// handleConfigChange 处理配置变化
func (h *HotReloader) handleConfigChange() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if time.Since(h.lastReload) < h.config.CooldownTime {
		return
	}

	cfg, err := appconfig.LoadWithEnvOverrides(h.configPath)
	if err != nil {
		logs.Error("reload config failed", "path", h.configPath, "err", err)
		return
	}

	if h.reloadHandler != nil {
		if err := h.reloadHandler(cfg); err != nil {
			logs.Error("apply reloaded config failed", "err", err)
			return
		}
	}

	h.lastReload = time.Now()
}

// ValidateParameters 验证参数
func (h *HotReloader) ValidateParameters(category string, params map[string]interface{}) error {
	h.mu.RLock()
	validator, ok := h.validators[category]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("no validator registered for category: %s", category)
	}

	return validator.Validate(params)
}

// ApplyParameters 应用参数
func (h *HotReloader) ApplyParameters(category string, params map[string]interface{}) error {
	if err := h.ValidateParameters(category, params); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	h.mu.RLock()
	applier, ok := h.appliers[category]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("no applier registered for category: %s", category)
	}

	return applier.ApplyParameters(params)
}

// GetLastReloadTime 获取最后重载时间
func (h *HotReloader) GetLastReloadTime() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastReload
}

// MarketParameterValidator 行情参数验证器
type MarketParameterValidator struct{}

func (v *MarketParameterValidator) Validate(params map[string]interface{}) error {
	if interval, ok := params["poll_interval_ms"].(float64); ok {
		if interval < 100 || interval > 60000 {
			return fmt.Errorf("poll_interval_ms must be between 100 and 60000, got %f", interval)
		}
	}

	if jitter, ok := params["jitter_ms"].(float64); ok {
		if jitter < 0 || jitter > 10000 {
			return fmt.Errorf("jitter_ms must be between 0 and 10000, got %f", jitter)
		}
	}

	if source, ok := params["source"].(string); ok {
		if source != "chain" && source != "sim" {
			return fmt.Errorf("source must be chain or sim, got %s", source)
		}
	}

	return nil
}

// ChainParameterValidator 链参数验证器
type ChainParameterValidator struct{}

func (v *ChainParameterValidator) Validate(params map[string]interface{}) error {
	if rpc, ok := params["rpc_url"].(string); ok {
		if rpc == "" {
			return fmt.Errorf("rpc_url must not be empty")
		}
	}

	if chainID, ok := params["chain_id"].(float64); ok {
		if chainID <= 0 {
			return fmt.Errorf("chain_id must be positive, got %f", chainID)
		}
	}

	return nil
}

// NotifyParameterValidator 通知参数验证器
type NotifyParameterValidator struct{}

func (v *NotifyParameterValidator) Validate(params map[string]interface{}) error {
	if interval, ok := params["throttle_interval"].(string); ok {
		if _, err := time.ParseDuration(interval); err != nil {
			return fmt.Errorf("invalid throttle_interval: %w", err)
		}
	}

	return nil
}
