// Package readside holds the transaction status projection. The core only
// requires one thing from it: a list of transaction ids in non-terminal
// status, fetched once at startup to resume hanging transfers.
package readside

import (
	"context"

	"github.com/kiamesdavies/money-transfer/internal/domain"
)

// StatusStore records every transfer status change and answers the
// startup recovery query.
type StatusStore interface {
	// SaveStatus upserts the latest status of a transaction.
	SaveStatus(ctx context.Context, event domain.TransferEvent) error

	// FindTransactionsInStatus returns the ids of transactions currently in
	// any of the given statuses.
	FindTransactionsInStatus(ctx context.Context, statuses []domain.TransferStatus) ([]string, error)
}
