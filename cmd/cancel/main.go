package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"dex-trader-go/chain"
	"dex-trader-go/config"
	"dex-trader-go/notify"
	"dex-trader-go/trade"
	"dex-trader-go/wallet"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	orderID := flag.String("id", "", "要撤销的订单 id")
	flag.Parse()

	if *orderID == "" {
		log.Fatalf("请用 -id 指定订单")
	}
	id, ok := new(big.Int).SetString(*orderID, 10)
	if !ok {
		log.Fatalf("无效的订单 id: %s", *orderID)
	}

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	w, err := wallet.NewFromHexKey(cfg.Chain.PrivateKey, cfg.Chain.ChainID)
	if err != nil {
		log.Fatalf("加载钱包失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
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

	notifier := notify.New([]notify.Channel{notify.NewLogChannel("stdout", nil)}, 0)
	submitter := trade.NewSubmitter(w, book, tokenResolver(client), notifier)

	res, err := submitter.Cancel(ctx, id)
	if err != nil {
		log.Fatalf("撤销失败 [%s]: %v", trade.CodeOf(err), err)
	}
	fmt.Printf("order %s cancelled, tx=%s block=%d\n", id, res.TxHash.Hex(), res.BlockNumber)
}

func tokenResolver(backend chain.Backend) trade.TokenResolver {
	return func(asset common.Address) (trade.TokenClient, error) {
		return chain.NewERC20(backend, asset, chain.NopLimiter{})
	}
}
