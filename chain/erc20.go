package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ERC20 is a typed binding over the minimal token surface the trader needs.
type ERC20 struct {
	*Contract
}

func NewERC20(backend Backend, addr common.Address, limiter RateLimiter) (*ERC20, error) {
	c, err := newContract(backend, addr, erc20ABI, limiter)
	if err != nil {
		return nil, err
	}
	return &ERC20{Contract: c}, nil
}

// BalanceOf returns the fixed-point token balance of account.
func (e *ERC20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	var out []interface{}
	if err := e.call(ctx, &out, "balanceOf", account); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// Allowance returns the fixed-point amount spender may transfer from owner.
func (e *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	var out []interface{}
	if err := e.call(ctx, &out, "allowance", owner, spender); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// Approve grants spender rights over amount and waits for confirmation.
func (e *ERC20) Approve(ctx context.Context, opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*Receipt, error) {
	return e.transact(ctx, opts, "approve", spender, amount)
}
