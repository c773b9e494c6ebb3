package domain

import "errors"

var (
	// Ledger errors
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrAccountNotFound   = errors.New("account not found")

	// Transfer errors
	ErrSameAccount = errors.New("cannot transfer to same account")
)

// FailureKind classifies a transfer failure for the outer boundary.
type FailureKind string

const (
	FailureValidation        FailureKind = "VALIDATION"
	FailureNotFound          FailureKind = "NOT_FOUND"
	FailureInsufficientFunds FailureKind = "INSUFFICIENT_FUNDS"
	FailureTransport         FailureKind = "TRANSPORT"
	FailureInternal          FailureKind = "INTERNAL"
)

// TransferError is the typed failure returned by the payment service. The
// saga never lets an error cross the saga/ledger boundary; every failure is
// mapped to one of these kinds.
type TransferError struct {
	Kind    FailureKind
	Message string
}

func (e *TransferError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// NewTransferError creates a TransferError.
func NewTransferError(kind FailureKind, message string) *TransferError {
	return &TransferError{Kind: kind, Message: message}
}
