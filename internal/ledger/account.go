// Package ledger implements the event-sourced bank account actor. A bank
// account owns one balance, applies Deposit/Withdraw commands idempotently
// and recovers from its journal on restart.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kiamesdavies/money-transfer/internal/actor"
	"github.com/kiamesdavies/money-transfer/internal/domain"
	"github.com/kiamesdavies/money-transfer/internal/journal"
)

// AddressFor returns the actor address of an account id. Addresses are
// stable so delivery destinations survive restarts.
func AddressFor(accountID string) string {
	return "account-" + accountID
}

// Config holds an account's tunables.
type Config struct {
	Store           journal.Store
	InitialBalance  decimal.Decimal
	SnapshotEvery   int64         // persisted events between snapshots
	RetentionWindow time.Duration // how long applied transaction ids are remembered
	SweepInterval   time.Duration // how often the retention set is rebuilt
	Clock           func() time.Time
}

func (c *Config) defaults() {
	if c.SnapshotEvery == 0 {
		c.SnapshotEvery = 100
	}
	if c.RetentionWindow == 0 {
		c.RetentionWindow = 6 * time.Hour
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = 30 * time.Minute
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// sweepTick triggers a retention sweep.
type sweepTick struct{}

// appliedEntry remembers the acknowledgement produced for a transaction id
// so redelivered commands get the identical ack without re-applying.
type appliedEntry struct {
	Event domain.Event
	At    time.Time
}

// Account is the bank account actor.
type Account struct {
	id  string
	cfg Config

	balance decimal.Decimal
	applied map[string]appliedEntry
	lastSeq int64
}

// New returns a factory for a bank account actor. The factory builds a
// fresh instance per (re)start; state comes back from the journal.
func New(id string, cfg Config) func() actor.Actor {
	cfg.defaults()
	return func() actor.Actor {
		return &Account{id: id, cfg: cfg}
	}
}

func (a *Account) persistenceID() string { return AddressFor(a.id) }

// PreStart recovers balance and retention set from the latest snapshot plus
// subsequent events, then starts the periodic retention sweep.
func (a *Account) PreStart(c *actor.Context) error {
	a.balance = a.cfg.InitialBalance
	a.applied = make(map[string]appliedEntry)

	lastSeq, err := journal.Recovery(
		context.Background(),
		a.cfg.Store,
		a.persistenceID(),
		a.restoreSnapshot,
		a.apply,
	)
	if err != nil {
		return fmt.Errorf("account %s recovery: %w", a.id, err)
	}
	a.lastSeq = lastSeq

	c.ScheduleEvery(a.cfg.SweepInterval, sweepTick{})
	c.Log().Info().Str("account_id", a.id).Str("balance", a.balance.String()).Msg("bank account started")
	return nil
}

func (a *Account) Receive(c *actor.Context, msg actor.Message) {
	switch m := msg.(type) {
	case domain.BalanceQuery:
		c.Sender().Tell(domain.BalanceSnapshot{AccountID: a.id, Balance: a.balance}, c.Self())

	case domain.WithdrawCmd:
		a.handleCommand(c, m.DeliveryID, m.TransactionID, m.Amount, true)

	case domain.DepositCmd:
		a.handleCommand(c, m.DeliveryID, m.TransactionID, m.Amount, false)

	case sweepTick:
		a.sweep()

	default:
		c.Log().Error().Type("msg", msg).Msg("unattended message")
	}
}

func (a *Account) handleCommand(c *actor.Context, deliveryID int64, transactionID string, amount decimal.Decimal, withdraw bool) {
	// Redelivery safety: an already-applied transaction id gets its
	// previous acknowledgement back, effect not repeated.
	if prev, ok := a.applied[transactionID]; ok {
		c.Sender().Tell(domain.CmdAck{DeliveryID: deliveryID, Event: prev.Event}, c.Self())
		return
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		c.Sender().Tell(domain.CmdAck{DeliveryID: deliveryID, Event: domain.RejectedEvent{
			AccountID: a.id,
			Reason:    domain.ReasonInvalidAmount,
			Detail:    "amount is too small",
		}}, c.Self())
		return
	}

	if withdraw && amount.GreaterThan(a.balance) {
		c.Sender().Tell(domain.CmdAck{DeliveryID: deliveryID, Event: domain.RejectedEvent{
			AccountID: a.id,
			Reason:    domain.ReasonInsufficientFunds,
		}}, c.Self())
		return
	}

	var event domain.Event
	now := a.cfg.Clock().UTC()
	if withdraw {
		event = domain.WithdrawnEvent{AccountID: a.id, TransactionID: transactionID, Amount: amount, Timestamp: now}
	} else {
		event = domain.DepositedEvent{AccountID: a.id, TransactionID: transactionID, Amount: amount, Timestamp: now}
	}

	seq, err := a.cfg.Store.Append(context.Background(), a.persistenceID(), event)
	if err != nil {
		// Crash into the backoff supervisor; the command will be
		// redelivered once the store is reachable again.
		panic(fmt.Errorf("account %s journal append: %w", a.id, err))
	}
	a.lastSeq = seq
	a.apply(event)
	c.Sender().Tell(domain.CmdAck{DeliveryID: deliveryID, Event: event}, c.Self())

	if seq%a.cfg.SnapshotEvery == 0 {
		if err := a.saveSnapshot(seq); err != nil {
			c.Log().Warn().Err(err).Str("account_id", a.id).Msg("snapshot failed")
		}
	}
}

// apply folds a journaled event into the in-memory state. Used on both the
// hot path and replay.
func (a *Account) apply(event domain.Event) {
	switch e := event.(type) {
	case domain.DepositedEvent:
		a.balance = a.balance.Add(e.Amount)
		a.applied[e.TransactionID] = appliedEntry{Event: e, At: e.Timestamp}
	case domain.WithdrawnEvent:
		a.balance = a.balance.Sub(e.Amount)
		a.applied[e.TransactionID] = appliedEntry{Event: e, At: e.Timestamp}
	}
}

// sweep rebuilds the retention set keeping only entries newer than the
// window, bounding memory.
func (a *Account) sweep() {
	cutoff := a.cfg.Clock().UTC().Add(-a.cfg.RetentionWindow)
	kept := make(map[string]appliedEntry, len(a.applied))
	for id, entry := range a.applied {
		if entry.At.After(cutoff) {
			kept[id] = entry
		}
	}
	a.applied = kept
}

// snapshotState is the serialized account snapshot.
type snapshotState struct {
	AccountID string                     `json:"account_id"`
	Balance   decimal.Decimal            `json:"balance"`
	Applied   map[string]json.RawMessage `json:"applied"`
}

func (a *Account) saveSnapshot(seq int64) error {
	state := snapshotState{
		AccountID: a.id,
		Balance:   a.balance,
		Applied:   make(map[string]json.RawMessage, len(a.applied)),
	}
	for id, entry := range a.applied {
		raw, err := journal.MarshalEvent(entry.Event)
		if err != nil {
			return err
		}
		state.Applied[id] = raw
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return a.cfg.Store.SaveSnapshot(context.Background(), a.persistenceID(), seq, raw)
}

func (a *Account) restoreSnapshot(raw []byte) error {
	var state snapshotState
	if err := json.Unmarshal(raw, &state); err != nil {
		return err
	}

	a.balance = state.Balance
	a.applied = make(map[string]appliedEntry, len(state.Applied))
	for id, rawEvent := range state.Applied {
		event, err := journal.UnmarshalEvent(rawEvent)
		if err != nil {
			return err
		}
		entry := appliedEntry{Event: event}
		switch e := event.(type) {
		case domain.DepositedEvent:
			entry.At = e.Timestamp
		case domain.WithdrawnEvent:
			entry.At = e.Timestamp
		}
		a.applied[id] = entry
	}
	return nil
}
