package chain

import (
	"errors"
	"fmt"
)

// Kind classifies a failed contract interaction.
type Kind int

const (
	// KindRejected 签名身份拒绝签署；未上链，可安全重试。
	KindRejected Kind = iota
	// KindReverted 交易已被打包但被合约回滚；链上状态未变。
	KindReverted
	// KindProvider RPC/网络层失败；交易状态未知，不得假定失败。
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindReverted:
		return "reverted"
	case KindProvider:
		return "provider"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ErrSigningDeclined marks errors returned by a signer that refused to sign.
// Wallet implementations wrap their refusal in this sentinel so the workflow
// can distinguish a deliberate decline from a transport failure.
var ErrSigningDeclined = errors.New("signing declined")

// Error carries the classification of a failed chain call.
type Error struct {
	Kind   Kind
	Op     string // contract method, e.g. "createOrder"
	Reason string // revert reason where obtainable
	Err    error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Kind, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the classification of err, and whether err is a chain error.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

// ReasonOf returns the revert reason attached to err, if any.
func ReasonOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ""
}

func sendError(op string, err error) *Error {
	if errors.Is(err, ErrSigningDeclined) {
		return &Error{Kind: KindRejected, Op: op, Err: err}
	}
	return &Error{Kind: KindProvider, Op: op, Err: err}
}

func providerError(op string, err error) *Error {
	return &Error{Kind: KindProvider, Op: op, Err: err}
}

func revertedError(op, reason string) *Error {
	return &Error{Kind: KindReverted, Op: op, Reason: reason}
}
