// Package postgres persists the event journal and snapshots in
// PostgreSQL. One row per event, keyed by (persistence_id, sequence_nr);
// the primary key enforces the gapless-append invariant.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiamesdavies/money-transfer/internal/domain"
	"github.com/kiamesdavies/money-transfer/internal/journal"
)

// JournalRepository implements journal.Store on a pgx connection pool.
type JournalRepository struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(pool *pgxpool.Pool, retrier *Retrier) *JournalRepository {
	return &JournalRepository{
		pool:    pool,
		retrier: retrier,
	}
}

// Append persists event at the next sequence number for persistenceID.
// The sequence number is computed and the row inserted in one statement,
// so concurrent appends for the same id conflict on the primary key and
// one of them retries with a fresh number.
func (r *JournalRepository) Append(ctx context.Context, persistenceID string, event domain.Event) (int64, error) {
	payload, err := journal.MarshalEvent(event)
	if err != nil {
		return 0, fmt.Errorf("encode event: %w", err)
	}

	var seq int64
	err = r.retrier.Retry(ctx, func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO journal (persistence_id, sequence_nr, event_type, payload)
			SELECT $1, COALESCE(MAX(sequence_nr), 0) + 1, $2, $3
			FROM journal
			WHERE persistence_id = $1
			RETURNING sequence_nr`,
			persistenceID, event.EventType(), payload,
		).Scan(&seq)
	})
	if err != nil {
		return 0, fmt.Errorf("append event for %s: %w", persistenceID, err)
	}

	return seq, nil
}

// Read returns all events with sequence_nr >= fromSequenceNr in order.
func (r *JournalRepository) Read(ctx context.Context, persistenceID string, fromSequenceNr int64) ([]journal.PersistedEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sequence_nr, payload
		FROM journal
		WHERE persistence_id = $1 AND sequence_nr >= $2
		ORDER BY sequence_nr`,
		persistenceID, fromSequenceNr,
	)
	if err != nil {
		return nil, fmt.Errorf("read journal for %s: %w", persistenceID, err)
	}
	defer rows.Close()

	var events []journal.PersistedEvent
	for rows.Next() {
		var (
			seq     int64
			payload []byte
		)
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, err
		}
		event, err := journal.UnmarshalEvent(payload)
		if err != nil {
			return nil, fmt.Errorf("decode event %d for %s: %w", seq, persistenceID, err)
		}
		events = append(events, journal.PersistedEvent{SequenceNr: seq, Event: event})
	}

	return events, rows.Err()
}

// SaveSnapshot stores state as the snapshot taken at sequenceNr, replacing
// any older snapshot for the same id.
func (r *JournalRepository) SaveSnapshot(ctx context.Context, persistenceID string, sequenceNr int64, state []byte) error {
	return r.retrier.Retry(ctx, func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO snapshots (persistence_id, sequence_nr, state)
			VALUES ($1, $2, $3)
			ON CONFLICT (persistence_id) DO UPDATE
			SET sequence_nr = EXCLUDED.sequence_nr,
			    state       = EXCLUDED.state,
			    created_at  = now()`,
			persistenceID, sequenceNr, state,
		)
		return err
	})
}

// LoadSnapshot returns the latest snapshot, or nil when none exists.
func (r *JournalRepository) LoadSnapshot(ctx context.Context, persistenceID string) (*journal.Snapshot, error) {
	var snap journal.Snapshot
	err := r.pool.QueryRow(ctx, `
		SELECT sequence_nr, state
		FROM snapshots
		WHERE persistence_id = $1`,
		persistenceID,
	).Scan(&snap.SequenceNr, &snap.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot for %s: %w", persistenceID, err)
	}
	return &snap, nil
}
