package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"dex-trader-go/chain"
	"dex-trader-go/config"
	"dex-trader-go/wallet"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	address := flag.String("address", "", "查询地址，默认使用配置的私钥地址")
	pairFilter := flag.String("pair", "", "可选的交易对过滤（例如 WETH/USDC）")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	owner, err := resolveOwner(cfg, *address)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := chain.Dial(ctx, cfg.Chain.RPCURL)
	if err != nil {
		log.Fatalf("连接 RPC 失败: %v", err)
	}
	defer client.Close()

	filter := strings.ToUpper(strings.TrimSpace(*pairFilter))
	shown := 0
	for sym, pc := range cfg.Pairs {
		if filter != "" && strings.ToUpper(sym) != filter {
			continue
		}
		printBalance(ctx, client, sym+" token", pc.TokenAsset, pc.TokenDecimals, owner)
		printBalance(ctx, client, sym+" payment", pc.PaymentAsset, pc.PaymentDecimals, owner)
		shown++
	}
	if filter != "" && shown == 0 {
		fmt.Printf("no pairs matched %s\n", filter)
	}
}

func resolveOwner(cfg config.AppConfig, override string) (common.Address, error) {
	if override != "" {
		if !common.IsHexAddress(override) {
			return common.Address{}, fmt.Errorf("invalid address %s", override)
		}
		return common.HexToAddress(override), nil
	}
	if cfg.Chain.PrivateKey == "" {
		return common.Address{}, fmt.Errorf("no -address given and no private key configured")
	}
	w, err := wallet.NewFromHexKey(cfg.Chain.PrivateKey, cfg.Chain.ChainID)
	if err != nil {
		return common.Address{}, fmt.Errorf("load wallet key: %w", err)
	}
	return w.Address(), nil
}

func printBalance(ctx context.Context, backend chain.Backend, label, asset string, decimals int32, owner common.Address) {
	token, err := chain.NewERC20(backend, common.HexToAddress(asset), chain.NopLimiter{})
	if err != nil {
		log.Printf("%s: bind failed: %v", label, err)
		return
	}
	raw, err := token.BalanceOf(ctx, owner)
	if err != nil {
		log.Printf("%s: query failed: %v", label, err)
		return
	}
	fmt.Printf("%-24s %s (%s)\n", label, chain.FromWei(raw, decimals).String(), asset)
}
