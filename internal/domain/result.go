package domain

import "github.com/shopspring/decimal"

// MoneyTransfer is the caller's transfer request body.
type MoneyTransfer struct {
	Amount  decimal.Decimal
	Remarks string
	Source  string
}

// TransferSuccess tells the initiator the transfer was accepted. It is sent
// as soon as the debit is durable; the credit proceeds asynchronously.
type TransferSuccess struct {
	TransactionID string
}

// TransferFailure tells the initiator the transfer will not happen.
type TransferFailure struct {
	Kind    FailureKind
	Message string
}
