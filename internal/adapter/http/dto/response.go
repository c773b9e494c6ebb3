package dto

import (
	"github.com/shopspring/decimal"

	"github.com/kiamesdavies/money-transfer/internal/domain"
)

// TransferResponse acknowledges an accepted transfer.
type TransferResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// BalanceResponse represents an account balance in API responses.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// BalanceFromDomain converts a balance snapshot to a response.
func BalanceFromDomain(s domain.BalanceSnapshot) *BalanceResponse {
	return &BalanceResponse{
		AccountID: s.AccountID,
		Balance:   s.Balance,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
