package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"dex-trader-go/chain"
)

// ErrNotConnected is returned when no signing identity is present.
var ErrNotConnected = errors.New("wallet not connected")

// Context holds the signing identity explicitly instead of as ambient global
// state. Account and chain changes go through explicit setters that fire
// registered callbacks; Close tears everything down.
type Context struct {
	mu      sync.RWMutex
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	closed  bool

	onAccount []func(common.Address)
	onChain   []func(*big.Int)
}

// NewFromHexKey builds a connected context from a hex-encoded private key.
func NewFromHexKey(hexKey string, chainID int64) (*Context, error) {
	if chainID <= 0 {
		return nil, fmt.Errorf("invalid chain id %d", chainID)
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Context{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: big.NewInt(chainID),
	}, nil
}

// NewDisconnected builds a context with no signer, for read-only use.
func NewDisconnected(chainID int64) *Context {
	return &Context{chainID: big.NewInt(chainID)}
}

// Connected reports whether a signing identity is present.
func (c *Context) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.key != nil && !c.closed
}

// Address returns the signer address; zero when disconnected.
func (c *Context) Address() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.address
}

// ChainID returns the configured chain id.
func (c *Context) ChainID() *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return new(big.Int).Set(c.chainID)
}

// TransactOpts builds signing options for one transaction. Refusals from the
// signer surface wrapped in chain.ErrSigningDeclined so the workflow can
// classify them as a deliberate decline rather than a transport failure.
func (c *Context) TransactOpts() (*bind.TransactOpts, error) {
	c.mu.RLock()
	key, chainID, closed := c.key, c.chainID, c.closed
	c.mu.RUnlock()
	if key == nil || closed {
		return nil, ErrNotConnected
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	inner := opts.Signer
	opts.Signer = func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
		signed, err := inner(addr, tx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", chain.ErrSigningDeclined, err)
		}
		return signed, nil
	}
	return opts, nil
}

// SwitchAccount replaces the signing key and notifies subscribers.
func (c *Context) SwitchAccount(hexKey string) error {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.key = key
	c.address = addr
	subs := append([]func(common.Address){}, c.onAccount...)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(addr)
	}
	return nil
}

// SwitchChain changes the chain id and notifies subscribers.
func (c *Context) SwitchChain(chainID int64) error {
	if chainID <= 0 {
		return fmt.Errorf("invalid chain id %d", chainID)
	}
	id := big.NewInt(chainID)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.chainID = id
	subs := append([]func(*big.Int){}, c.onChain...)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(new(big.Int).Set(id))
	}
	return nil
}

// OnAccountChange registers a callback fired after account switches.
func (c *Context) OnAccountChange(fn func(common.Address)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAccount = append(c.onAccount, fn)
}

// OnChainChange registers a callback fired after chain switches.
func (c *Context) OnChainChange(fn func(*big.Int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChain = append(c.onChain, fn)
}

// Close disconnects the wallet and drops key material and subscriptions.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.key = nil
	c.address = common.Address{}
	c.onAccount = nil
	c.onChain = nil
}
