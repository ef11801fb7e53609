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
	"dex-trader-go/notify"
	"dex-trader-go/order"
	"dex-trader-go/trade"
	"dex-trader-go/wallet"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	pair := flag.String("pair", "", "交易对（配置中的键，例如 WETH/USDC）")
	side := flag.String("side", "BUY", "BUY 或 SELL")
	typ := flag.String("type", "LIMIT", "LIMIT 或 MARKET")
	amount := flag.String("amount", "", "下单数量（十进制）")
	price := flag.String("price", "", "限价（十进制，市价单忽略）")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	pc, ok := cfg.Pairs[*pair]
	if !ok {
		log.Fatalf("pair %s not found in config", *pair)
	}

	orderSide, err := order.ParseSide(*side)
	if err != nil {
		log.Fatalf("%v", err)
	}
	orderType, err := order.ParseType(*typ)
	if err != nil {
		log.Fatalf("%v", err)
	}

	w, err := wallet.NewFromHexKey(cfg.Chain.PrivateKey, cfg.Chain.ChainID)
	if err != nil {
		log.Fatalf("加载钱包失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
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
	resolver := func(asset common.Address) (trade.TokenClient, error) {
		return chain.NewERC20(client, asset, chain.NopLimiter{})
	}

	notifier := notify.New([]notify.Channel{notify.NewLogChannel("stdout", nil)}, 0)
	submitter := trade.NewSubmitter(w, book, resolver, notifier)

	res, err := submitter.Submit(ctx, trade.TradeParams{
		TokenAsset:      common.HexToAddress(pc.TokenAsset),
		PaymentAsset:    common.HexToAddress(pc.PaymentAsset),
		TokenDecimals:   pc.TokenDecimals,
		PaymentDecimals: pc.PaymentDecimals,
		Amount:          *amount,
		Price:           *price,
		Type:            orderType,
		Side:            orderSide,
	})
	if err != nil {
		log.Fatalf("提交失败 [%s]: %v", trade.CodeOf(err), err)
	}

	if res.ApprovalTx != nil {
		fmt.Printf("approval tx=%s\n", res.ApprovalTx.Hex())
	}
	fmt.Printf("order confirmed, tx=%s block=%d\n", res.TxHash.Hex(), res.BlockNumber)
	if res.OrderID != nil {
		fmt.Printf("order id=%s\n", res.OrderID)
	}
}
