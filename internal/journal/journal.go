// Package journal defines the event-sourcing store contract: ordered
// durable append per persistence id, replay from an offset, and
// point-in-time snapshots.
package journal

import (
	"context"

	"github.com/kiamesdavies/money-transfer/internal/domain"
)

// PersistedEvent is an event read back from the journal together with its
// position in the owner's log.
type PersistedEvent struct {
	SequenceNr int64
	Event      domain.Event
}

// Snapshot is an opaque point-in-time state capture. Events with
// SequenceNr > Snapshot.SequenceNr still need to be replayed on top.
type Snapshot struct {
	SequenceNr int64
	State      []byte
}

// Store is the durability contract shared by ledger accounts and transfer
// sagas. Each entity appends to its own log keyed by persistence id;
// sequence numbers start at 1 and are gapless per id.
type Store interface {
	// Append persists event at the next sequence number for persistenceID
	// and returns that number.
	Append(ctx context.Context, persistenceID string, event domain.Event) (int64, error)

	// Read returns all events with SequenceNr >= fromSequenceNr in order.
	Read(ctx context.Context, persistenceID string, fromSequenceNr int64) ([]PersistedEvent, error)

	// SaveSnapshot stores state as the snapshot taken at sequenceNr,
	// replacing any older snapshot for the same id.
	SaveSnapshot(ctx context.Context, persistenceID string, sequenceNr int64, state []byte) error

	// LoadSnapshot returns the latest snapshot, or nil when none exists.
	LoadSnapshot(ctx context.Context, persistenceID string) (*Snapshot, error)
}

// Recovery loads the latest snapshot and replays subsequent events.
// applySnapshot may be nil for entities that never snapshot. It returns the
// highest sequence number seen.
func Recovery(
	ctx context.Context,
	store Store,
	persistenceID string,
	applySnapshot func(state []byte) error,
	applyEvent func(event domain.Event),
) (int64, error) {
	var from int64 = 1

	if applySnapshot != nil {
		snap, err := store.LoadSnapshot(ctx, persistenceID)
		if err != nil {
			return 0, err
		}
		if snap != nil {
			if err := applySnapshot(snap.State); err != nil {
				return 0, err
			}
			from = snap.SequenceNr + 1
		}
	}

	events, err := store.Read(ctx, persistenceID, from)
	if err != nil {
		return 0, err
	}

	lastSeq := from - 1
	for _, pe := range events {
		applyEvent(pe.Event)
		lastSeq = pe.SequenceNr
	}
	return lastSeq, nil
}
