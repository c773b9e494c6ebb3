package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kiamesdavies/money-transfer/internal/adapter/http/dto"
	"github.com/kiamesdavies/money-transfer/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapTransferError maps service errors to HTTP status codes.
func mapTransferError(err error) int {
	var terr *domain.TransferError
	if errors.As(err, &terr) {
		switch terr.Kind {
		case domain.FailureValidation, domain.FailureInsufficientFunds:
			return http.StatusBadRequest
		case domain.FailureNotFound:
			return http.StatusNotFound
		case domain.FailureTransport:
			return http.StatusBadGateway
		default:
			return http.StatusInternalServerError
		}
	}

	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
