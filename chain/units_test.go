package chain

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToWeiFromWeiRoundTrip(t *testing.T) {
	cases := []string{"0", "1", "0.000000000000000001", "20.00", "5.25", "123456.789"}
	for _, s := range cases {
		d, err := decimal.NewFromString(s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		wei := ToWei(d, WeiDecimals)
		back := FromWei(wei, WeiDecimals)
		if !back.Equal(d) {
			t.Fatalf("round trip %s: got %s", s, back)
		}
	}
}

func TestToWeiTruncatesBelowPrecision(t *testing.T) {
	d, _ := decimal.NewFromString("1.56")
	wei := ToWei(d, 1)
	if wei.Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("expected truncation to 15, got %s", wei)
	}
}

func TestFromWeiNil(t *testing.T) {
	if !FromWei(nil, WeiDecimals).IsZero() {
		t.Fatalf("nil should convert to zero")
	}
}

func TestToWeiKnownValues(t *testing.T) {
	d, _ := decimal.NewFromString("2.5")
	want, _ := new(big.Int).SetString("2500000000000000000", 10)
	if got := ToWei(d, WeiDecimals); got.Cmp(want) != 0 {
		t.Fatalf("got %s want %s", got, want)
	}
}
