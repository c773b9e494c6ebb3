package domain

import "github.com/shopspring/decimal"

// WithdrawCmd asks an account to withdraw Amount. DeliveryID is the delivery
// channel's tag; TransactionID is the idempotency key the account dedupes
// on.
type WithdrawCmd struct {
	DeliveryID    int64
	TransactionID string
	AccountID     string
	Amount        decimal.Decimal
}

// DepositCmd asks an account to deposit Amount.
type DepositCmd struct {
	DeliveryID    int64
	TransactionID string
	AccountID     string
	Amount        decimal.Decimal
}

// TransferCmd starts a transfer saga. It is the saga's entry point, sent by
// the payment service on behalf of the API caller.
type TransferCmd struct {
	AccountFromID string
	AccountToID   string
	Amount        decimal.Decimal
	Remarks       string
	Source        string
}

// CmdAck acknowledges a Command with the event it produced, Deposited,
// Withdrawn or Rejected.
type CmdAck struct {
	DeliveryID int64
	Event      Event
}
