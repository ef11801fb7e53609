package order

import (
	"math/big"
	"testing"
)

func TestEnumCodesRoundTrip(t *testing.T) {
	for _, typ := range []Type{TypeLimit, TypeMarket} {
		got, err := TypeFromCode(typ.Code())
		if err != nil || got != typ {
			t.Fatalf("type %v round trip failed: %v %v", typ, got, err)
		}
	}
	for _, side := range []Side{SideBuy, SideSell} {
		got, err := SideFromCode(side.Code())
		if err != nil || got != side {
			t.Fatalf("side %v round trip failed: %v %v", side, got, err)
		}
	}
	for _, st := range []Status{StatusOpen, StatusFilled, StatusPartialFilled, StatusCancelled, StatusExpired} {
		got, err := StatusFromCode(st.Code())
		if err != nil || got != st {
			t.Fatalf("status %v round trip failed: %v %v", st, got, err)
		}
	}
}

func TestEnumWireValues(t *testing.T) {
	// 与合约侧编码逐一对齐，错位会静默破坏订单语义
	cases := []struct {
		code uint8
		want string
	}{
		{TypeLimit.Code(), "LIMIT"},
		{TypeMarket.Code(), "MARKET"},
	}
	if cases[0].code != 0 || cases[1].code != 1 {
		t.Fatalf("type codes drifted: %+v", cases)
	}
	if SideBuy.Code() != 0 || SideSell.Code() != 1 {
		t.Fatalf("side codes drifted")
	}
	statuses := []Status{StatusOpen, StatusFilled, StatusPartialFilled, StatusCancelled, StatusExpired}
	for i, st := range statuses {
		if st.Code() != uint8(i) {
			t.Fatalf("status %s code = %d, want %d", st, st.Code(), i)
		}
	}
}

func TestEnumUnknownCodes(t *testing.T) {
	if _, err := TypeFromCode(2); err == nil {
		t.Fatalf("expected error for type code 2")
	}
	if _, err := SideFromCode(7); err == nil {
		t.Fatalf("expected error for side code 7")
	}
	if _, err := StatusFromCode(5); err == nil {
		t.Fatalf("expected error for status code 5")
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusOpen.Cancellable() || !StatusPartialFilled.Cancellable() {
		t.Fatalf("open/partial must be cancellable")
	}
	for _, st := range []Status{StatusFilled, StatusCancelled, StatusExpired} {
		if st.Cancellable() {
			t.Fatalf("%s should not be cancellable", st)
		}
		if !st.Terminal() {
			t.Fatalf("%s should be terminal", st)
		}
	}
}

func TestRemaining(t *testing.T) {
	o := Order{Amount: big.NewInt(10), Filled: big.NewInt(4)}
	if o.Remaining().Int64() != 6 {
		t.Fatalf("remaining = %s", o.Remaining())
	}
	if (Order{}).Remaining().Sign() != 0 {
		t.Fatalf("nil amounts should give zero remaining")
	}
}

func TestParseSideAndType(t *testing.T) {
	for in, want := range map[string]Side{"BUY": SideBuy, "buy": SideBuy, "SELL": SideSell} {
		got, err := ParseSide(in)
		if err != nil || got != want {
			t.Fatalf("ParseSide(%q) = %v, %v", in, got, err)
		}
	}
	for in, want := range map[string]Type{"LIMIT": TypeLimit, "market": TypeMarket} {
		got, err := ParseType(in)
		if err != nil || got != want {
			t.Fatalf("ParseType(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSide("HOLD"); err == nil {
		t.Fatalf("expected error for unknown side")
	}
	if _, err := ParseType("STOP"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
