package dto

import (
	"github.com/shopspring/decimal"

	"github.com/kiamesdavies/money-transfer/internal/domain"
)

// CreateTransferRequest represents a request to move money between two
// accounts.
type CreateTransferRequest struct {
	AccountFromID string          `json:"account_from_id"`
	AccountToID   string          `json:"account_to_id"`
	Amount        decimal.Decimal `json:"amount"`
	Remarks       string          `json:"remarks,omitempty"`
	Source        string          `json:"source,omitempty"`
}

// ToDomain converts to the service request body.
func (r *CreateTransferRequest) ToDomain() domain.MoneyTransfer {
	return domain.MoneyTransfer{
		Amount:  r.Amount,
		Remarks: r.Remarks,
		Source:  r.Source,
	}
}
