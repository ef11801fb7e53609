package order

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// 审批额度策略：BUY 需要 amount*price 的计价资产，SELL 需要 amount 的交易资产。
// 缓冲 5% 吸收两笔交易之间的价格/数量重输入与小数转换误差。
var (
	approvalBufferNum = decimal.NewFromInt(105)
	approvalBufferDen = decimal.NewFromInt(100)
)

// ApprovalRequirement describes the spend approval a trade needs before the
// order transaction may be submitted.
type ApprovalRequirement struct {
	Asset    common.Address  // asset the signer must grant spending rights on
	Decimals int32           // decimal precision of that asset
	Required decimal.Decimal // minimum allowance for the order to succeed
	Buffered decimal.Decimal // Required * 1.05, truncated to asset precision
}

// ComputeApproval derives the approval requirement for a trade. Price is
// ignored for SELL sizing; amounts are in user-facing decimal units.
func ComputeApproval(side Side, tokenAsset, paymentAsset common.Address, tokenDecimals, paymentDecimals int32, amount, price decimal.Decimal) ApprovalRequirement {
	var req ApprovalRequirement
	switch side {
	case SideBuy:
		req.Asset = paymentAsset
		req.Decimals = paymentDecimals
		req.Required = amount.Mul(price)
	default:
		req.Asset = tokenAsset
		req.Decimals = tokenDecimals
		req.Required = amount
	}
	req.Buffered = req.Required.Mul(approvalBufferNum).Div(approvalBufferDen).Truncate(req.Decimals)
	return req
}

// Satisfied reports whether an existing allowance covers the requirement.
// The comparison uses the unbuffered amount: a prior buffered approval is
// reused instead of triggering another round trip.
func (r ApprovalRequirement) Satisfied(allowance decimal.Decimal) bool {
	return allowance.GreaterThanOrEqual(r.Required)
}
