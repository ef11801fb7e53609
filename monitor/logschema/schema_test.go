package logschema

import "testing"

func TestValidate(t *testing.T) {
	err := Validate("order_submit", map[string]interface{}{
		"symbol": "WETH/USDC",
		"side":   "BUY",
		"type":   "LIMIT",
		"amount": "10",
		"price":  "2.00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = Validate("order_submit", map[string]interface{}{
		"symbol": "WETH/USDC",
	})
	if err == nil {
		t.Fatalf("expected error for missing fields")
	}
}

func TestValidateUnknownEventPasses(t *testing.T) {
	if err := Validate("unknown_event", nil); err != nil {
		t.Fatalf("unknown events should not be validated: %v", err)
	}
}

func TestKnownEvents(t *testing.T) {
	names := Known()
	if len(names) == 0 {
		t.Fatalf("expected non-empty schema list")
	}
	found := false
	for _, n := range names {
		if n == "approval_sent" {
			found = true
		}
	}
	if !found {
		t.Fatalf("approval_sent not found in schemas")
	}
}
