package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransferEventWith(t *testing.T) {
	original := TransferEvent{
		TransactionID: "tx-1",
		AccountFromID: "1",
		AccountToID:   "2",
		Amount:        decimal.NewFromInt(50),
		Status:        StatusNew,
	}

	next := original.With(StatusWithdrawing)

	if next.Status != StatusWithdrawing {
		t.Fatalf("expected WITHDRAWING, got %s", next.Status)
	}
	if original.Status != StatusNew {
		t.Fatalf("With mutated the receiver: %s", original.Status)
	}
	if next.TransactionID != original.TransactionID || !next.Amount.Equal(original.Amount) {
		t.Fatalf("With dropped fields: %+v", next)
	}
}

func TestCompensationMarker(t *testing.T) {
	id := "tx-42"
	rollbackID := id + RollbackSuffix

	if IsCompensation(id) {
		t.Fatalf("%q should not be a compensation id", id)
	}
	if !IsCompensation(rollbackID) {
		t.Fatalf("%q should be a compensation id", rollbackID)
	}
	if got := OriginalTransactionID(rollbackID); got != id {
		t.Fatalf("OriginalTransactionID(%q) = %q, want %q", rollbackID, got, id)
	}
	if got := OriginalTransactionID(id); got != id {
		t.Fatalf("OriginalTransactionID(%q) = %q, want %q", id, got, id)
	}
}

func TestTransferErrorMessage(t *testing.T) {
	err := NewTransferError(FailureInsufficientFunds, "insufficient funds")
	if err.Error() != "INSUFFICIENT_FUNDS: insufficient funds" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}
