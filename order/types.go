package order

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Type represents how an order is priced.
type Type uint8

const (
	TypeLimit  Type = 0
	TypeMarket Type = 1
)

// Side represents the direction of an order.
type Side uint8

const (
	SideBuy  Side = 0
	SideSell Side = 1
)

// Status represents order lifecycle as owned by the venue contract.
type Status uint8

const (
	StatusOpen          Status = 0
	StatusFilled        Status = 1
	StatusPartialFilled Status = 2
	StatusCancelled     Status = 3
	StatusExpired       Status = 4
)

// 枚举与链上 uint8 编码一一对应；任何未知编码都按错误处理，绝不静默归并。

func (t Type) String() string {
	switch t {
	case TypeLimit:
		return "LIMIT"
	case TypeMarket:
		return "MARKET"
	}
	return fmt.Sprintf("TYPE(%d)", uint8(t))
}

func (t Type) Code() uint8 { return uint8(t) }

// ParseType maps the user-facing name to an order type, case-insensitive.
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(s) {
	case "LIMIT":
		return TypeLimit, nil
	case "MARKET":
		return TypeMarket, nil
	}
	return 0, fmt.Errorf("unknown order type %q", s)
}

func TypeFromCode(c uint8) (Type, error) {
	switch Type(c) {
	case TypeLimit, TypeMarket:
		return Type(c), nil
	}
	return 0, fmt.Errorf("unknown order type code %d", c)
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	}
	return fmt.Sprintf("SIDE(%d)", uint8(s))
}

func (s Side) Code() uint8 { return uint8(s) }

// ParseSide maps the user-facing name to a side, case-insensitive.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(s) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

func SideFromCode(c uint8) (Side, error) {
	switch Side(c) {
	case SideBuy, SideSell:
		return Side(c), nil
	}
	return 0, fmt.Errorf("unknown order side code %d", c)
}

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusFilled:
		return "FILLED"
	case StatusPartialFilled:
		return "PARTIAL_FILLED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusExpired:
		return "EXPIRED"
	}
	return fmt.Sprintf("STATUS(%d)", uint8(s))
}

func (s Status) Code() uint8 { return uint8(s) }

func StatusFromCode(c uint8) (Status, error) {
	switch Status(c) {
	case StatusOpen, StatusFilled, StatusPartialFilled, StatusCancelled, StatusExpired:
		return Status(c), nil
	}
	return 0, fmt.Errorf("unknown order status code %d", c)
}

// Terminal reports whether the status admits no further transition.
func (s Status) Terminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Cancellable reports whether a cancel request is meaningful for this status.
// The venue contract is the sole authority; this is only used for display.
func (s Status) Cancellable() bool {
	return s == StatusOpen || s == StatusPartialFilled
}

// Order mirrors the record stored by the order-book contract. Amounts are
// 18-decimal fixed point as returned on the wire.
type Order struct {
	ID           *big.Int
	Trader       common.Address
	TokenAsset   common.Address
	PaymentAsset common.Address
	Amount       *big.Int
	Price        *big.Int
	Filled       *big.Int
	Timestamp    uint64
	Expiry       uint64
	Type         Type
	Side         Side
	Status       Status
}

// Remaining returns amount - filled; nil-safe.
func (o Order) Remaining() *big.Int {
	if o.Amount == nil {
		return new(big.Int)
	}
	rem := new(big.Int).Set(o.Amount)
	if o.Filled != nil {
		rem.Sub(rem, o.Filled)
	}
	if rem.Sign() < 0 {
		return new(big.Int)
	}
	return rem
}
