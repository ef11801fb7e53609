package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"dex-trader-go/chain"
	"dex-trader-go/config"
	"dex-trader-go/order"
	"dex-trader-go/wallet"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	address := flag.String("address", "", "查询地址，默认使用配置的私钥地址")
	openOnly := flag.Bool("open", false, "只显示未终结的订单")
	limit := flag.Uint64("limit", 100, "最多显示的订单数")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	var trader common.Address
	if *address != "" {
		if !common.IsHexAddress(*address) {
			log.Fatalf("invalid address %s", *address)
		}
		trader = common.HexToAddress(*address)
	} else {
		w, err := wallet.NewFromHexKey(cfg.Chain.PrivateKey, cfg.Chain.ChainID)
		if err != nil {
			log.Fatalf("加载钱包失败: %v", err)
		}
		trader = w.Address()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := chain.Dial(ctx, cfg.Chain.RPCURL)
	if err != nil {
		log.Fatalf("连接 RPC 失败: %v", err)
	}
	defer client.Close()

	book, err := chain.NewOrderBook(client, common.HexToAddress(cfg.Chain.OrderBook), chain.NopLimiter{})
	if err != nil {
		log.Fatalf("绑定订单簿失败: %v", err)
	}

	tracker := order.NewTracker(book.ReaderFor(trader), 50)
	if err := tracker.Refresh(ctx); err != nil {
		log.Fatalf("读取订单失败: %v", err)
	}

	orders := tracker.All()
	if *openOnly {
		orders = tracker.Open()
	}

	shown := uint64(0)
	for _, o := range orders {
		if shown >= *limit {
			break
		}
		fmt.Printf("#%s %s %s %s amount=%s price=%s filled=%s\n",
			o.ID, o.Side, o.Type, o.Status,
			chain.FromWei(o.Amount, chain.WeiDecimals),
			chain.FromWei(o.Price, chain.WeiDecimals),
			chain.FromWei(o.Filled, chain.WeiDecimals),
		)
		shown++
	}
	fmt.Printf("%d orders (trader %s)\n", shown, trader.Hex())
}
