package domain

// TransferStatus is the saga-local state of a money transfer.
//
// NEW -> WITHDRAWING -> WITHDRAWN -> DEPOSITING -> COMPLETED
//
//	|             |                        |-> DEPOSIT_FAILED -> ROLLBACK_PENDING -> ROLLBACK
//	|             |-> WITHDRAW_FAILED                                            |-> ROLLBACK_FAILED
//	|-> FAILED
type TransferStatus string

const (
	StatusNew             TransferStatus = "NEW"
	StatusWithdrawing     TransferStatus = "WITHDRAWING"
	StatusWithdrawn       TransferStatus = "WITHDRAWN"
	StatusWithdrawFailed  TransferStatus = "WITHDRAW_FAILED"
	StatusDepositing      TransferStatus = "DEPOSITING"
	StatusCompleted       TransferStatus = "COMPLETED"
	StatusDepositFailed   TransferStatus = "DEPOSIT_FAILED"
	StatusRollbackPending TransferStatus = "ROLLBACK_PENDING"
	StatusRollback        TransferStatus = "ROLLBACK"
	StatusRollbackFailed  TransferStatus = "ROLLBACK_FAILED"
	StatusFailed          TransferStatus = "FAILED"
)

// Terminal reports whether a saga in this status has finished for good.
func (s TransferStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusWithdrawFailed, StatusRollback, StatusRollbackFailed, StatusFailed:
		return true
	}
	return false
}

// NonTerminalStatuses lists every status a hanging transaction can be found
// in at startup.
func NonTerminalStatuses() []TransferStatus {
	return []TransferStatus{
		StatusNew,
		StatusWithdrawing,
		StatusWithdrawn,
		StatusDepositing,
		StatusDepositFailed,
		StatusRollbackPending,
	}
}
