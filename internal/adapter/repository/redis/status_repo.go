// Package redis keeps the transfer status projection in Redis: one key
// per transaction plus a set per status acting as the reverse index for
// the startup recovery query.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kiamesdavies/money-transfer/internal/domain"
)

const (
	statusKeyPrefix = "transfer:status:"
	indexKeyPrefix  = "transfer:by-status:"
)

// StatusRepository implements readside.StatusStore using Redis.
type StatusRepository struct {
	client *redis.Client
}

// NewStatusRepository creates a new StatusRepository.
func NewStatusRepository(client *redis.Client) *StatusRepository {
	return &StatusRepository{client: client}
}

// SaveStatus upserts the latest status of a transaction and moves it
// between the per-status index sets.
func (r *StatusRepository) SaveStatus(ctx context.Context, event domain.TransferEvent) error {
	key := statusKeyPrefix + event.TransactionID

	prev, err := r.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("get status for %s: %w", event.TransactionID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, string(event.Status), 0)
	if prev != "" && prev != string(event.Status) {
		pipe.SRem(ctx, indexKeyPrefix+prev, event.TransactionID)
	}
	pipe.SAdd(ctx, indexKeyPrefix+string(event.Status), event.TransactionID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save status for %s: %w", event.TransactionID, err)
	}
	return nil
}

// FindTransactionsInStatus returns the ids of transactions currently in
// any of the given statuses.
func (r *StatusRepository) FindTransactionsInStatus(ctx context.Context, statuses []domain.TransferStatus) ([]string, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(statuses))
	for _, status := range statuses {
		keys = append(keys, indexKeyPrefix+string(status))
	}

	ids, err := r.client.SUnion(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("find transactions by status: %w", err)
	}
	return ids, nil
}
