package chain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// WeiDecimals is the standard on-chain fixed-point scale.
const WeiDecimals int32 = 18

// ToWei converts a user-facing decimal amount to the asset's fixed-point
// representation, truncating anything below the asset's precision.
func ToWei(d decimal.Decimal, decimals int32) *big.Int {
	return d.Shift(decimals).BigInt()
}

// FromWei converts a fixed-point amount back to its decimal representation.
func FromWei(x *big.Int, decimals int32) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x, -decimals)
}
