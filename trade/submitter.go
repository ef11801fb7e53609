package trade

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"dex-trader-go/chain"
	"dex-trader-go/logs"
	"dex-trader-go/notify"
	"dex-trader-go/order"
	"dex-trader-go/wallet"
)

// TokenClient 工作流所需的代币合约访问；由 chain.ERC20 实现。
type TokenClient interface {
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*chain.Receipt, error)
}

// BookClient 工作流所需的订单簿合约访问；由 chain.OrderBook 实现。
type BookClient interface {
	Address() common.Address
	CreateOrder(ctx context.Context, opts *bind.TransactOpts, tokenAsset, paymentAsset common.Address, amount, price *big.Int, typ order.Type, side order.Side) (*chain.Receipt, *big.Int, error)
	CancelOrder(ctx context.Context, opts *bind.TransactOpts, id *big.Int) (*chain.Receipt, error)
}

// TokenResolver returns the token client for an asset address.
type TokenResolver func(asset common.Address) (TokenClient, error)

// TradeParams are the immutable inputs of one submission.
type TradeParams struct {
	TokenAsset      common.Address
	PaymentAsset    common.Address
	TokenDecimals   int32 // 0 defaults to 18
	PaymentDecimals int32 // 0 defaults to 18
	Amount          string
	Price           string // ignored for MARKET orders
	Type            order.Type
	Side            order.Side
}

// Result reports a confirmed submission.
type Result struct {
	TxHash         common.Hash
	BlockNumber    uint64
	OrderID        *big.Int        // nil when the OrderCreated event was absent
	ApprovalTx     *common.Hash    // nil when the approval step was skipped
	ApprovalAmount decimal.Decimal // buffered amount written by approve; zero when skipped
}

// Metrics 工作流指标钩子；infrastructure/monitor.Monitor 实现。
type Metrics interface {
	IncSubmitted(side string)
	IncApprovalSent()
	IncApprovalSkipped()
	IncCancelled()
	IncFailure(code string)
	ObserveConfirmLatency(stage string, seconds float64)
}

type nopMetrics struct{}

func (nopMetrics) IncSubmitted(string)                   {}
func (nopMetrics) IncApprovalSent()                      {}
func (nopMetrics) IncApprovalSkipped()                   {}
func (nopMetrics) IncCancelled()                         {}
func (nopMetrics) IncFailure(string)                     {}
func (nopMetrics) ObserveConfirmLatency(string, float64) {}

// Submitter drives the order submission and cancellation workflows against
// the venue contract. One Submitter admits one in-flight submission at a
// time; that is a cooperative UI-level exclusion, not a lock the contract
// knows about.
type Submitter struct {
	wallet   *wallet.Context
	book     BookClient
	tokens   TokenResolver
	notifier *notify.Notifier
	metrics  Metrics
	log      logs.Logger

	mu         sync.Mutex
	submitting bool
}

func NewSubmitter(w *wallet.Context, book BookClient, tokens TokenResolver, notifier *notify.Notifier) *Submitter {
	return &Submitter{
		wallet:   w,
		book:     book,
		tokens:   tokens,
		notifier: notifier,
		metrics:  nopMetrics{},
		log:      logs.DefaultLogger,
	}
}

// WithMetrics attaches workflow metrics.
func (s *Submitter) WithMetrics(m Metrics) *Submitter {
	if m != nil {
		s.metrics = m
	}
	return s
}

// Submitting reports whether a submission is currently in flight.
func (s *Submitter) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Submit validates params, sizes and (if needed) sends the approval, then
// submits the order and waits for confirmation. Validation failures return
// before any network call. The approval transaction, when needed, is
// confirmed strictly before the order transaction is sent, so the allowance
// is visible to the contract when createOrder executes.
func (s *Submitter) Submit(ctx context.Context, params TradeParams) (*Result, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	amount, price, failure := s.validate(params)
	if failure != nil {
		s.metrics.IncFailure(string(failure.Code))
		return nil, failure
	}

	tokenDecimals := defaultDecimals(params.TokenDecimals)
	paymentDecimals := defaultDecimals(params.PaymentDecimals)

	pending := s.notifier.Begin("order_submit", "submitting "+params.Side.String()+" order", map[string]interface{}{
		"side":   params.Side.String(),
		"type":   params.Type.String(),
		"amount": amount.String(),
		"price":  price.String(),
	})
	// 生命周期绝不悬挂：任何未显式处理的退出路径都以失败收尾
	resolved := false
	defer func() {
		if !resolved {
			pending.Fail("submission aborted", nil)
		}
	}()

	req := order.ComputeApproval(params.Side, params.TokenAsset, params.PaymentAsset, tokenDecimals, paymentDecimals, amount, price)

	token, err := s.tokens(req.Asset)
	if err != nil {
		return nil, s.fail(pending, &resolved, &Failure{Code: CodeProviderError, Err: err})
	}

	allowanceWei, err := token.Allowance(ctx, s.wallet.Address(), s.book.Address())
	if err != nil {
		return nil, s.fail(pending, &resolved, classify(stageApproval, err))
	}

	var approvalTx *common.Hash
	var approvalAmount decimal.Decimal
	if req.Satisfied(chain.FromWei(allowanceWei, req.Decimals)) {
		s.metrics.IncApprovalSkipped()
	} else {
		opts, err := s.wallet.TransactOpts()
		if err != nil {
			return nil, s.fail(pending, &resolved, invalidInput(err.Error()))
		}
		pending.Info("approval required for "+req.Buffered.String(), map[string]interface{}{
			"asset":  req.Asset.Hex(),
			"amount": req.Buffered.String(),
		})
		start := time.Now()
		receipt, err := token.Approve(ctx, opts, s.book.Address(), chain.ToWei(req.Buffered, req.Decimals))
		if err != nil {
			return nil, s.fail(pending, &resolved, classify(stageApproval, err))
		}
		s.metrics.IncApprovalSent()
		s.metrics.ObserveConfirmLatency("approval", time.Since(start).Seconds())
		hash := receipt.TxHash
		approvalTx = &hash
		approvalAmount = req.Buffered
		s.log.Info("approval confirmed", "tx", hash.Hex(), "block", receipt.BlockNumber)
	}

	opts, err := s.wallet.TransactOpts()
	if err != nil {
		return nil, s.fail(pending, &resolved, invalidInput(err.Error()))
	}
	amountWei := chain.ToWei(amount, tokenDecimals)
	priceWei := chain.ToWei(price, paymentDecimals)

	start := time.Now()
	receipt, orderID, err := s.book.CreateOrder(ctx, opts, params.TokenAsset, params.PaymentAsset, amountWei, priceWei, params.Type, params.Side)
	if err != nil {
		return nil, s.fail(pending, &resolved, classify(stageOrder, err))
	}
	s.metrics.IncSubmitted(params.Side.String())
	s.metrics.ObserveConfirmLatency("order", time.Since(start).Seconds())

	fields := map[string]interface{}{
		"tx":    receipt.TxHash.Hex(),
		"block": receipt.BlockNumber,
	}
	if orderID != nil {
		fields["orderId"] = orderID.String()
	}
	resolved = true
	pending.Succeed("order confirmed", fields)
	s.log.Info("order confirmed", "tx", receipt.TxHash.Hex(), "block", receipt.BlockNumber)

	return &Result{
		TxHash:         receipt.TxHash,
		BlockNumber:    receipt.BlockNumber,
		OrderID:        orderID,
		ApprovalTx:     approvalTx,
		ApprovalAmount: approvalAmount,
	}, nil
}

// Venue returns the order-book contract address, the spender of approvals.
func (s *Submitter) Venue() common.Address { return s.book.Address() }

// Cancel submits a cancellation and waits for confirmation. Ownership and
// current status are not checked locally; the contract is the sole authority
// and reverts when the order is not cancellable by the caller.
func (s *Submitter) Cancel(ctx context.Context, orderID *big.Int) (*Result, error) {
	if !s.wallet.Connected() {
		f := invalidInput("wallet not connected")
		s.metrics.IncFailure(string(f.Code))
		return nil, f
	}
	if orderID == nil || orderID.Sign() < 0 {
		f := invalidInput("order id required")
		s.metrics.IncFailure(string(f.Code))
		return nil, f
	}

	pending := s.notifier.Begin("order_cancel", "cancelling order "+orderID.String(), map[string]interface{}{
		"orderId": orderID.String(),
	})
	resolved := false
	defer func() {
		if !resolved {
			pending.Fail("cancellation aborted", nil)
		}
	}()

	opts, err := s.wallet.TransactOpts()
	if err != nil {
		return nil, s.fail(pending, &resolved, invalidInput(err.Error()))
	}
	start := time.Now()
	receipt, err := s.book.CancelOrder(ctx, opts, orderID)
	if err != nil {
		return nil, s.fail(pending, &resolved, classify(stageCancel, err))
	}
	s.metrics.IncCancelled()
	s.metrics.ObserveConfirmLatency("cancel", time.Since(start).Seconds())

	resolved = true
	pending.Succeed("order cancelled", map[string]interface{}{
		"orderId": orderID.String(),
		"tx":      receipt.TxHash.Hex(),
		"block":   receipt.BlockNumber,
	})
	return &Result{TxHash: receipt.TxHash, BlockNumber: receipt.BlockNumber, OrderID: orderID}, nil
}

// validate enforces the local preconditions. It issues no network calls.
func (s *Submitter) validate(params TradeParams) (amount, price decimal.Decimal, failure *Failure) {
	if !s.wallet.Connected() {
		return amount, price, invalidInput("wallet not connected")
	}
	amount, err := decimal.NewFromString(params.Amount)
	if err != nil || !amount.IsPositive() {
		return amount, price, invalidInput("amount must be a positive decimal")
	}
	switch params.Type {
	case order.TypeLimit:
		price, err = decimal.NewFromString(params.Price)
		if err != nil || !price.IsPositive() {
			return amount, price, invalidInput("limit orders require a positive price")
		}
	case order.TypeMarket:
		// 市价单价格清零，由合约按最优价成交
		price = decimal.Zero
	default:
		return amount, price, invalidInput("unknown order type")
	}
	return amount, price, nil
}

func (s *Submitter) fail(pending *notify.Pending, resolved *bool, failure *Failure) *Failure {
	*resolved = true
	pending.Fail(failure.Error(), map[string]interface{}{"code": string(failure.Code)})
	s.metrics.IncFailure(string(failure.Code))
	s.log.Error("trade workflow failed", "code", string(failure.Code), "error", failure.Error())
	return failure
}

func (s *Submitter) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmitInFlight
	}
	s.submitting = true
	return nil
}

func (s *Submitter) release() {
	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

func defaultDecimals(d int32) int32 {
	if d == 0 {
		return chain.WeiDecimals
	}
	return d
}
