package trade

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"dex-trader-go/chain"
	"dex-trader-go/notify"
	"dex-trader-go/order"
	"dex-trader-go/wallet"
)

var (
	tokenAddr   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	paymentAddr = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	bookAddr    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

type fakeToken struct {
	allowance  *big.Int
	approveErr error
	approved   []*big.Int
	calls      *[]string
}

func (f *fakeToken) Allowance(context.Context, common.Address, common.Address) (*big.Int, error) {
	*f.calls = append(*f.calls, "allowance")
	return f.allowance, nil
}

func (f *fakeToken) Approve(_ context.Context, _ *bind.TransactOpts, _ common.Address, amount *big.Int) (*chain.Receipt, error) {
	*f.calls = append(*f.calls, "approve")
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	f.approved = append(f.approved, amount)
	return &chain.Receipt{TxHash: common.HexToHash("0x01"), BlockNumber: 10}, nil
}

type fakeBook struct {
	createErr error
	cancelErr error
	created   int
	cancelled int
	lastPrice *big.Int
	lastAmt   *big.Int
	orderID   *big.Int
	calls     *[]string
}

func (f *fakeBook) Address() common.Address { return bookAddr }

func (f *fakeBook) CreateOrder(_ context.Context, _ *bind.TransactOpts, _, _ common.Address, amount, price *big.Int, _ order.Type, _ order.Side) (*chain.Receipt, *big.Int, error) {
	*f.calls = append(*f.calls, "createOrder")
	if f.createErr != nil {
		return nil, nil, f.createErr
	}
	f.created++
	f.lastAmt, f.lastPrice = amount, price
	return &chain.Receipt{TxHash: common.HexToHash("0x02"), BlockNumber: 11}, f.orderID, nil
}

func (f *fakeBook) CancelOrder(_ context.Context, _ *bind.TransactOpts, _ *big.Int) (*chain.Receipt, error) {
	*f.calls = append(*f.calls, "cancelOrder")
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	f.cancelled++
	return &chain.Receipt{TxHash: common.HexToHash("0x03"), BlockNumber: 12}, nil
}

type harness struct {
	sub   *Submitter
	token *fakeToken
	book  *fakeBook
	ch    *notify.MockChannel
	calls []string
}

func wei(s string) *big.Int {
	d, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad wei " + s)
	}
	return d
}

func newHarness(t *testing.T, allowanceWei *big.Int, connected bool) *harness {
	t.Helper()
	h := &harness{}
	h.token = &fakeToken{allowance: allowanceWei, calls: &h.calls}
	h.book = &fakeBook{orderID: big.NewInt(7), calls: &h.calls}
	h.ch = notify.NewMockChannel("mock")

	w := newTestWallet(t, connected)
	notifier := notify.New([]notify.Channel{h.ch}, time.Minute)
	h.sub = NewSubmitter(w, h.book, func(common.Address) (TokenClient, error) { return h.token, nil }, notifier)
	return h
}

func newTestWallet(t *testing.T, connected bool) *wallet.Context {
	t.Helper()
	if !connected {
		return wallet.NewDisconnected(1)
	}
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	w, err := wallet.NewFromHexKey(common.Bytes2Hex(crypto.FromECDSA(key)), 1)
	require.NoError(t, err)
	return w
}

func buyParams() TradeParams {
	return TradeParams{
		TokenAsset:   tokenAddr,
		PaymentAsset: paymentAddr,
		Amount:       "10",
		Price:        "2.00",
		Type:         order.TypeLimit,
		Side:         order.SideBuy,
	}
}

func TestSubmitSkipsApprovalWhenAllowanceCovers(t *testing.T) {
	// allowance 21.00 >= required 20.00
	h := newHarness(t, wei("21000000000000000000"), true)
	res, err := h.sub.Submit(context.Background(), buyParams())
	require.NoError(t, err)
	require.Equal(t, []string{"allowance", "createOrder"}, h.calls)
	require.Nil(t, res.ApprovalTx)
	require.Equal(t, int64(7), res.OrderID.Int64())
}

func TestSubmitApprovesBeforeOrder(t *testing.T) {
	h := newHarness(t, wei("0"), true)
	res, err := h.sub.Submit(context.Background(), buyParams())
	require.NoError(t, err)
	require.Equal(t, []string{"allowance", "approve", "createOrder"}, h.calls)
	require.NotNil(t, res.ApprovalTx)
	// buffered 21.00 in wei
	require.Equal(t, wei("21000000000000000000"), h.token.approved[0])
}

func TestSubmitInvalidAmountNoNetworkCalls(t *testing.T) {
	h := newHarness(t, wei("0"), true)
	for _, amount := range []string{"", "0", "-3", "abc"} {
		p := buyParams()
		p.Amount = amount
		_, err := h.sub.Submit(context.Background(), p)
		require.Equal(t, CodeInvalidInput, CodeOf(err))
	}
	require.Empty(t, h.calls)
	require.Empty(t, h.ch.Events(), "invalid input must not open a notification lifecycle")
}

func TestSubmitLimitRequiresPrice(t *testing.T) {
	h := newHarness(t, wei("0"), true)
	p := buyParams()
	p.Price = ""
	_, err := h.sub.Submit(context.Background(), p)
	require.Equal(t, CodeInvalidInput, CodeOf(err))

	p.Price = "0"
	_, err = h.sub.Submit(context.Background(), p)
	require.Equal(t, CodeInvalidInput, CodeOf(err))
	require.Empty(t, h.calls)
}

func TestSubmitMarketZeroesPrice(t *testing.T) {
	h := newHarness(t, wei("5000000000000000000"), true)
	p := TradeParams{
		TokenAsset:   tokenAddr,
		PaymentAsset: paymentAddr,
		Amount:       "5",
		Price:        "99999", // must be ignored
		Type:         order.TypeMarket,
		Side:         order.SideSell,
	}
	_, err := h.sub.Submit(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, 0, h.book.lastPrice.Sign())
	// SELL sizing: allowance 5 covers amount 5, no approval
	require.Equal(t, []string{"allowance", "createOrder"}, h.calls)
}

func TestSubmitWalletNotConnected(t *testing.T) {
	h := newHarness(t, wei("0"), false)
	_, err := h.sub.Submit(context.Background(), buyParams())
	require.Equal(t, CodeInvalidInput, CodeOf(err))
	require.Contains(t, err.Error(), "wallet not connected")
	require.Empty(t, h.calls)
}

func TestSubmitOrderRevertClassified(t *testing.T) {
	h := newHarness(t, wei("21000000000000000000"), true)
	h.book.createErr = &chain.Error{Kind: chain.KindReverted, Op: "createOrder", Reason: "inactive pair"}
	_, err := h.sub.Submit(context.Background(), buyParams())
	require.Equal(t, CodeOrderReverted, CodeOf(err))
	require.Contains(t, err.Error(), "inactive pair")

	events := h.ch.Events()
	require.Equal(t, notify.LevelPending, events[0].Level)
	require.Equal(t, notify.LevelError, events[len(events)-1].Level)
}

func TestSubmitApprovalRejectedClassified(t *testing.T) {
	h := newHarness(t, wei("0"), true)
	h.token.approveErr = &chain.Error{Kind: chain.KindRejected, Op: "approve"}
	_, err := h.sub.Submit(context.Background(), buyParams())
	require.Equal(t, CodeApprovalRejected, CodeOf(err))
	// 审批失败后不得继续提交订单
	require.Equal(t, []string{"allowance", "approve"}, h.calls)
}

func TestSubmitProviderErrorNotReverted(t *testing.T) {
	h := newHarness(t, wei("21000000000000000000"), true)
	h.book.createErr = &chain.Error{Kind: chain.KindProvider, Op: "createOrder"}
	_, err := h.sub.Submit(context.Background(), buyParams())
	require.Equal(t, CodeProviderError, CodeOf(err))
}

func TestCancelSingleTxAndLifecycle(t *testing.T) {
	h := newHarness(t, wei("0"), true)
	res, err := h.sub.Cancel(context.Background(), big.NewInt(42))
	require.NoError(t, err)
	require.Equal(t, []string{"cancelOrder"}, h.calls)
	require.Equal(t, int64(42), res.OrderID.Int64())

	events := h.ch.Events()
	require.Len(t, events, 2)
	require.Equal(t, notify.LevelPending, events[0].Level)
	require.Equal(t, notify.LevelSuccess, events[1].Level)
}

func TestCancelFailureStillResolvesLifecycle(t *testing.T) {
	h := newHarness(t, wei("0"), true)
	h.book.cancelErr = &chain.Error{Kind: chain.KindReverted, Op: "cancelOrder", Reason: "not order owner"}
	_, err := h.sub.Cancel(context.Background(), big.NewInt(42))
	require.Equal(t, CodeCancelReverted, CodeOf(err))

	events := h.ch.Events()
	require.Len(t, events, 2)
	require.Equal(t, notify.LevelError, events[1].Level)
}

func TestCancelRequiresWallet(t *testing.T) {
	h := newHarness(t, wei("0"), false)
	_, err := h.sub.Cancel(context.Background(), big.NewInt(1))
	require.Equal(t, CodeInvalidInput, CodeOf(err))
	require.Empty(t, h.calls)
}

func TestSubmittingGuard(t *testing.T) {
	h := newHarness(t, wei("0"), true)
	require.NoError(t, h.sub.acquire())
	_, err := h.sub.Submit(context.Background(), buyParams())
	require.ErrorIs(t, err, ErrSubmitInFlight)
	h.sub.release()
	require.False(t, h.sub.Submitting())
}
