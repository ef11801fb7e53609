package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is the slice of the RPC client the bindings need. *ethclient.Client
// satisfies it; tests provide fakes at the package boundaries above instead.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Dial connects to the configured JSON-RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	return client, nil
}

// gas 估算加 20% 余量，避免区块间状态变化导致 out-of-gas。
const (
	gasMarginNum = 120
	gasMarginDen = 100
)

func withGasMargin(estimate uint64) uint64 {
	return estimate * gasMarginNum / gasMarginDen
}

// Receipt is the confirmed result of a state-changing call.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
	Logs        []*types.Log
}

// Contract wraps a bound contract with rate limiting, gas margin handling and
// error classification shared by the concrete bindings.
type Contract struct {
	addr    common.Address
	abi     abi.ABI
	bound   *bind.BoundContract
	backend Backend
	limiter RateLimiter
}

func newContract(backend Backend, addr common.Address, abiJSON string, limiter RateLimiter) (*Contract, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	if limiter == nil {
		limiter = NopLimiter{}
	}
	return &Contract{
		addr:    addr,
		abi:     parsed,
		bound:   bind.NewBoundContract(addr, parsed, backend, backend, backend),
		backend: backend,
		limiter: limiter,
	}, nil
}

// Address returns the contract address.
func (c *Contract) Address() common.Address { return c.addr }

// call performs a rate-limited read-only call.
func (c *Contract) call(ctx context.Context, out *[]interface{}, method string, args ...interface{}) error {
	c.limiter.Wait()
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, out, method, args...); err != nil {
		return providerError(method, err)
	}
	return nil
}

// transact submits a state-changing call and waits for inclusion. The wait has
// no client-side deadline beyond ctx; a submitted transaction is never assumed
// failed on transport errors.
func (c *Contract) transact(ctx context.Context, opts *bind.TransactOpts, method string, args ...interface{}) (*Receipt, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, providerError(method, fmt.Errorf("pack: %w", err))
	}

	sendOpts := *opts
	sendOpts.Context = ctx
	if sendOpts.GasLimit == 0 {
		estimate, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
			From:  sendOpts.From,
			To:    &c.addr,
			Value: sendOpts.Value,
			Data:  data,
		})
		if err != nil {
			return nil, providerError(method, fmt.Errorf("estimate gas: %w", err))
		}
		sendOpts.GasLimit = withGasMargin(estimate)
	}

	tx, err := c.bound.RawTransact(&sendOpts, data)
	if err != nil {
		return nil, sendError(method, err)
	}

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, providerError(method, fmt.Errorf("wait mined %s: %w", tx.Hash(), err))
	}
	if receipt.Status == types.ReceiptStatusFailed {
		reason := c.revertReason(ctx, sendOpts.From, tx, receipt.BlockNumber)
		return nil, revertedError(method, reason)
	}
	return &Receipt{
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		Logs:        receipt.Logs,
	}, nil
}

// revertReason replays the failed transaction as a call at its block to
// recover the revert string. Best effort: nodes without archive state or
// reason-less reverts yield an empty string.
func (c *Contract) revertReason(ctx context.Context, from common.Address, tx *types.Transaction, blockNumber *big.Int) string {
	msg := ethereum.CallMsg{
		From:  from,
		To:    tx.To(),
		Gas:   tx.Gas(),
		Value: tx.Value(),
		Data:  tx.Data(),
	}
	_, err := c.backend.CallContract(ctx, msg, blockNumber)
	if err == nil {
		return ""
	}
	reason := err.Error()
	if i := strings.Index(reason, "execution reverted"); i >= 0 {
		reason = strings.TrimPrefix(reason[i:], "execution reverted")
		reason = strings.TrimLeft(reason, ": ")
	}
	return reason
}
