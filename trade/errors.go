package trade

import (
	"errors"
	"fmt"

	"dex-trader-go/chain"
)

// Code identifies a workflow failure class.
type Code string

const (
	CodeInvalidInput     Code = "InvalidInput"
	CodeApprovalRejected Code = "ApprovalRejected"
	CodeApprovalReverted Code = "ApprovalReverted"
	CodeOrderRejected    Code = "OrderRejected"
	CodeOrderReverted    Code = "OrderReverted"
	CodeCancelRejected   Code = "CancelRejected"
	CodeCancelReverted   Code = "CancelReverted"
	CodeProviderError    Code = "ProviderError"
)

// Failure is the single error value a workflow invocation resolves to. There
// is no partial success: an approval that landed before a failed order still
// surfaces as one overall failure (its allowance stays usable on-chain).
type Failure struct {
	Code   Code
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Reason != "" {
		return fmt.Sprintf("%s: %s", f.Code, f.Reason)
	}
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Code, f.Err)
	}
	return string(f.Code)
}

func (f *Failure) Unwrap() error { return f.Err }

// CodeOf extracts the failure code from err, defaulting to ProviderError.
func CodeOf(err error) Code {
	var f *Failure
	if errors.As(err, &f) {
		return f.Code
	}
	return CodeProviderError
}

// ErrSubmitInFlight 同一个 Submitter 上已有未完成的提交；协作式互斥，
// 对应 UI 提交按钮的 isSubmitting 置灰。
var ErrSubmitInFlight = errors.New("a submission is already in flight")

func invalidInput(reason string) *Failure {
	return &Failure{Code: CodeInvalidInput, Reason: reason}
}

type stage int

const (
	stageApproval stage = iota
	stageOrder
	stageCancel
)

// classify maps a chain-layer error onto the workflow taxonomy for the stage
// it occurred in. Provider errors stay provider errors at every stage: the
// transaction state is unknown and must not be reported as a revert.
func classify(s stage, err error) *Failure {
	kind, ok := chain.KindOf(err)
	if !ok {
		return &Failure{Code: CodeProviderError, Err: err}
	}
	switch kind {
	case chain.KindRejected:
		switch s {
		case stageApproval:
			return &Failure{Code: CodeApprovalRejected, Err: err}
		case stageCancel:
			return &Failure{Code: CodeCancelRejected, Err: err}
		default:
			return &Failure{Code: CodeOrderRejected, Err: err}
		}
	case chain.KindReverted:
		reason := chain.ReasonOf(err)
		switch s {
		case stageApproval:
			return &Failure{Code: CodeApprovalReverted, Reason: reason, Err: err}
		case stageCancel:
			return &Failure{Code: CodeCancelReverted, Reason: reason, Err: err}
		default:
			return &Failure{Code: CodeOrderReverted, Reason: reason, Err: err}
		}
	default:
		return &Failure{Code: CodeProviderError, Err: err}
	}
}
