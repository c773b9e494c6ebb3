package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RollbackSuffix marks a compensating deposit. The ledger treats the
// suffixed id as a distinct idempotency key; observers strip it to correlate
// the refund with the original transaction.
const RollbackSuffix = "-rollback"

// RejectReason classifies a rejected account command.
type RejectReason string

const (
	ReasonInsufficientFunds RejectReason = "INSUFFICIENT_FUNDS"
	ReasonInvalidAmount     RejectReason = "INVALID_AMOUNT"
)

// Event is a persisted fact. Events are immutable once journaled; EventType
// tags the union for the journal codec.
type Event interface {
	EventType() string
}

// DepositedEvent records money added to an account.
type DepositedEvent struct {
	AccountID     string          `json:"account_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
}

func (DepositedEvent) EventType() string { return "account.deposited" }

// WithdrawnEvent records money removed from an account.
type WithdrawnEvent struct {
	AccountID     string          `json:"account_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
}

func (WithdrawnEvent) EventType() string { return "account.withdrawn" }

// RejectedEvent reports a command the account refused to apply. Rejections
// are acknowledged but never journaled.
type RejectedEvent struct {
	AccountID string       `json:"account_id"`
	Reason    RejectReason `json:"reason"`
	Detail    string       `json:"detail,omitempty"`
}

func (RejectedEvent) EventType() string { return "account.rejected" }

// TransferEvent is the saga's persisted state at a given status. Each status
// change appends a fresh copy with the new status.
type TransferEvent struct {
	TransactionID string          `json:"transaction_id"`
	AccountFromID string          `json:"account_from_id"`
	AccountToID   string          `json:"account_to_id"`
	Amount        decimal.Decimal `json:"amount"`
	Remarks       string          `json:"remarks,omitempty"`
	Source        string          `json:"source,omitempty"`
	Status        TransferStatus  `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (TransferEvent) EventType() string { return "transfer.status" }

// With returns a copy of the event carrying the given status.
func (e TransferEvent) With(status TransferStatus) TransferEvent {
	e.Status = status
	return e
}

// IsCompensation reports whether a transaction id belongs to a compensating
// deposit.
func IsCompensation(transactionID string) bool {
	return strings.HasSuffix(transactionID, RollbackSuffix)
}

// OriginalTransactionID strips the rollback marker, yielding the id of the
// transaction being compensated.
func OriginalTransactionID(transactionID string) string {
	return strings.TrimSuffix(transactionID, RollbackSuffix)
}
