package domain

import "testing"

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   TransferStatus
		terminal bool
	}{
		{StatusNew, false},
		{StatusWithdrawing, false},
		{StatusWithdrawn, false},
		{StatusDepositing, false},
		{StatusDepositFailed, false},
		{StatusRollbackPending, false},
		{StatusCompleted, true},
		{StatusWithdrawFailed, true},
		{StatusRollback, true},
		{StatusRollbackFailed, true},
		{StatusFailed, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestNonTerminalStatusesCoverEverythingElse(t *testing.T) {
	nonTerminal := NonTerminalStatuses()

	seen := make(map[TransferStatus]bool, len(nonTerminal))
	for _, status := range nonTerminal {
		if status.Terminal() {
			t.Errorf("NonTerminalStatuses contains terminal status %s", status)
		}
		seen[status] = true
	}

	all := []TransferStatus{
		StatusNew, StatusWithdrawing, StatusWithdrawn, StatusWithdrawFailed,
		StatusDepositing, StatusCompleted, StatusDepositFailed,
		StatusRollbackPending, StatusRollback, StatusRollbackFailed, StatusFailed,
	}
	for _, status := range all {
		if !status.Terminal() && !seen[status] {
			t.Errorf("NonTerminalStatuses is missing %s", status)
		}
	}
}
