package readside

import (
	"context"
	"sort"
	"sync"

	"github.com/kiamesdavies/money-transfer/internal/domain"
)

// MemoryStore is an in-process StatusStore used by tests and as the default
// when no Redis is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	statuses map[string]domain.TransferStatus
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{statuses: make(map[string]domain.TransferStatus)}
}

// SaveStatus upserts the latest status of a transaction.
func (s *MemoryStore) SaveStatus(ctx context.Context, event domain.TransferEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[event.TransactionID] = event.Status
	return nil
}

// FindTransactionsInStatus returns ids currently in any of the statuses.
func (s *MemoryStore) FindTransactionsInStatus(ctx context.Context, statuses []domain.TransferStatus) ([]string, error) {
	wanted := make(map[domain.TransferStatus]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, status := range s.statuses {
		if _, ok := wanted[status]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Status returns the recorded status of a transaction, for tests.
func (s *MemoryStore) Status(transactionID string) (domain.TransferStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[transactionID]
	return status, ok
}
