package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiamesdavies/money-transfer/internal/adapter/http/dto"
	"github.com/kiamesdavies/money-transfer/internal/domain"
)

// PaymentAPI is the slice of the payment service the HTTP layer needs.
type PaymentAPI interface {
	Transfer(ctx context.Context, accountFromID, accountToID string, mt domain.MoneyTransfer) (string, error)
	Balance(ctx context.Context, accountID string) (domain.BalanceSnapshot, error)
}

// PaymentHandler handles transfer and balance HTTP requests.
type PaymentHandler struct {
	payments PaymentAPI
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments PaymentAPI) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateTransfer submits a transfer. The response arrives once the debit
// is durable; the credit settles asynchronously.
func (h *PaymentHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.AccountFromID == "" || req.AccountToID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	transactionID, err := h.payments.Transfer(r.Context(), req.AccountFromID, req.AccountToID, req.ToDomain())
	if err != nil {
		status := mapTransferError(err)
		writeError(w, status, "transfer failed", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, dto.TransferResponse{
		TransactionID: transactionID,
		Status:        "accepted",
	})
}

// GetBalance retrieves the current balance of an account.
func (h *PaymentHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	snapshot, err := h.payments.Balance(r.Context(), accountID)
	if err != nil {
		status := mapTransferError(err)
		writeError(w, status, "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(snapshot))
}
