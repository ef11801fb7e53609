package order

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	testToken   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testPayment = common.HexToAddress("0x00000000000000000000000000000000000000a2")
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeApprovalBuy(t *testing.T) {
	req := ComputeApproval(SideBuy, testToken, testPayment, 18, 18, dec("10"), dec("2.00"))
	require.Equal(t, testPayment, req.Asset)
	require.True(t, req.Required.Equal(dec("20.00")), "required = %s", req.Required)
	require.True(t, req.Buffered.Equal(dec("21.00")), "buffered = %s", req.Buffered)
}

func TestComputeApprovalSell(t *testing.T) {
	// price must not affect SELL sizing
	for _, price := range []string{"0", "2.00", "999999"} {
		req := ComputeApproval(SideSell, testToken, testPayment, 18, 18, dec("5"), dec(price))
		require.Equal(t, testToken, req.Asset)
		require.True(t, req.Required.Equal(dec("5")), "required = %s", req.Required)
		require.True(t, req.Buffered.Equal(dec("5.25")), "buffered = %s", req.Buffered)
	}
}

func TestComputeApprovalTruncatesToPrecision(t *testing.T) {
	// 1 * 1.05 = 1.05 truncates to 1.0 at one decimal of precision
	req := ComputeApproval(SideSell, testToken, testPayment, 1, 18, dec("1"), decimal.Zero)
	require.True(t, req.Buffered.Equal(dec("1.0")), "buffered = %s", req.Buffered)
}

func TestSatisfied(t *testing.T) {
	req := ComputeApproval(SideBuy, testToken, testPayment, 18, 18, dec("10"), dec("2.00"))
	require.True(t, req.Satisfied(dec("21.00")))
	require.True(t, req.Satisfied(dec("20.00")))
	require.False(t, req.Satisfied(dec("19.999999")))
}
