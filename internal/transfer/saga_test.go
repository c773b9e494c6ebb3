package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kiamesdavies/money-transfer/internal/actor"
	"github.com/kiamesdavies/money-transfer/internal/directory"
	"github.com/kiamesdavies/money-transfer/internal/domain"
	"github.com/kiamesdavies/money-transfer/internal/journal"
	"github.com/kiamesdavies/money-transfer/internal/ledger"
	"github.com/kiamesdavies/money-transfer/internal/readside"
)

// bankFixture is a running bank: directory, ledger accounts and shared
// stores, on fast redelivery timings so exhaustion paths finish quickly.
type bankFixture struct {
	system   *actor.System
	store    *journal.MemoryStore
	statuses *readside.MemoryStore
	cfg      Config
}

func newBank(t *testing.T, balances map[string]int64, unresponsive ...string) *bankFixture {
	t.Helper()
	system := actor.NewSystem("saga-test", zerolog.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		system.Shutdown(ctx)
	})

	store := journal.NewMemoryStore()
	statuses := readside.NewMemoryStore()

	entries := make(map[string]string)
	for id, balance := range balances {
		address := ledger.AddressFor(id)
		_, err := system.Spawn(address, ledger.New(id, ledger.Config{
			Store:          store,
			InitialBalance: decimal.NewFromInt(balance),
		}))
		if err != nil {
			t.Fatalf("spawn account %s: %v", id, err)
		}
		entries[id] = address
	}
	for _, id := range unresponsive {
		address := ledger.AddressFor(id)
		if _, err := system.Spawn(address, ledger.NewUnresponsive()); err != nil {
			t.Fatalf("spawn unresponsive account %s: %v", id, err)
		}
		entries[id] = address
	}

	if _, err := system.Spawn(directory.Address, directory.New(entries)); err != nil {
		t.Fatalf("spawn directory: %v", err)
	}

	return &bankFixture{
		system:   system,
		store:    store,
		statuses: statuses,
		cfg: Config{
			Store:             store,
			Statuses:          statuses,
			RedeliverInterval: 20 * time.Millisecond,
			WarnAfterAttempts: 3,
		},
	}
}

func (b *bankFixture) startTransfer(t *testing.T, txID, from, to string, amount int64) actor.Message {
	t.Helper()
	saga, err := b.system.Spawn(AddressFor(txID), NewSaga(txID, b.cfg))
	if err != nil {
		t.Fatalf("spawn saga: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reply, err := b.system.Ask(ctx, saga, domain.TransferCmd{
		AccountFromID: from,
		AccountToID:   to,
		Amount:        decimal.NewFromInt(amount),
	})
	if err != nil {
		t.Fatalf("transfer ask failed: %v", err)
	}
	return reply
}

func (b *bankFixture) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	ref, ok := b.system.Lookup(ledger.AddressFor(accountID))
	if !ok {
		t.Fatalf("account %s is not running", accountID)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, err := b.system.Ask(ctx, ref, domain.BalanceQuery{AccountID: accountID})
	if err != nil {
		t.Fatalf("balance ask failed: %v", err)
	}
	return reply.(domain.BalanceSnapshot).Balance
}

// awaitStatus polls the read side until the transaction reaches status.
func (b *bankFixture) awaitStatus(t *testing.T, txID string, status domain.TransferStatus) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if got, ok := b.statuses.Status(txID); ok && got == status {
			return
		}
		if time.Now().After(deadline) {
			got, _ := b.statuses.Status(txID)
			t.Fatalf("transaction %s never reached %s, last status %s", txID, status, got)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTransferMovesMoney(t *testing.T) {
	bank := newBank(t, map[string]int64{"1": 10000, "2": 10000})

	reply := bank.startTransfer(t, "tx-ok", "1", "2", 250)
	success, ok := reply.(domain.TransferSuccess)
	if !ok {
		t.Fatalf("expected TransferSuccess, got %#v", reply)
	}
	if success.TransactionID != "tx-ok" {
		t.Fatalf("unexpected transaction id %s", success.TransactionID)
	}

	bank.awaitStatus(t, "tx-ok", domain.StatusCompleted)

	if got := bank.balance(t, "1"); !got.Equal(decimal.NewFromInt(9750)) {
		t.Fatalf("expected 9750 on source, got %s", got)
	}
	if got := bank.balance(t, "2"); !got.Equal(decimal.NewFromInt(10250)) {
		t.Fatalf("expected 10250 on destination, got %s", got)
	}
}

func TestTransferToSameAccountRejected(t *testing.T) {
	bank := newBank(t, map[string]int64{"1": 10000})

	reply := bank.startTransfer(t, "tx-same", "1", "1", 100)
	failure, ok := reply.(domain.TransferFailure)
	if !ok {
		t.Fatalf("expected TransferFailure, got %#v", reply)
	}
	if failure.Kind != domain.FailureValidation {
		t.Fatalf("expected VALIDATION, got %s", failure.Kind)
	}

	// Rejected before anything was persisted.
	if _, ok := bank.statuses.Status("tx-same"); ok {
		t.Fatalf("same-account transfer must not reach the read side")
	}
	events, err := bank.store.Read(context.Background(), AddressFor("tx-same"), 1)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty journal, got %d events", len(events))
	}
}

func TestTransferFromUnknownAccountFails(t *testing.T) {
	bank := newBank(t, map[string]int64{"1": 10000})

	reply := bank.startTransfer(t, "tx-missing", "1", "99", 100)
	failure, ok := reply.(domain.TransferFailure)
	if !ok {
		t.Fatalf("expected TransferFailure, got %#v", reply)
	}
	if failure.Kind != domain.FailureNotFound {
		t.Fatalf("expected NOT_FOUND, got %s", failure.Kind)
	}
	if failure.Message != "99 not found" {
		t.Fatalf("unexpected message %q", failure.Message)
	}

	bank.awaitStatus(t, "tx-missing", domain.StatusFailed)

	if got := bank.balance(t, "1"); !got.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("source must be untouched, got %s", got)
	}
}

func TestTransferFailsOnInsufficientFunds(t *testing.T) {
	bank := newBank(t, map[string]int64{"1": 100, "2": 10000})

	reply := bank.startTransfer(t, "tx-poor", "1", "2", 500)
	failure, ok := reply.(domain.TransferFailure)
	if !ok {
		t.Fatalf("expected TransferFailure, got %#v", reply)
	}
	if failure.Kind != domain.FailureInsufficientFunds {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %s", failure.Kind)
	}

	bank.awaitStatus(t, "tx-poor", domain.StatusWithdrawFailed)

	if got := bank.balance(t, "1"); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("source must be untouched, got %s", got)
	}
	if got := bank.balance(t, "2"); !got.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("destination must be untouched, got %s", got)
	}
}

func TestUnresponsiveDestinationRollsBack(t *testing.T) {
	bank := newBank(t, map[string]int64{"1": 10000}, "10")

	// Optimistic notification: the caller sees success once the debit is
	// durable, even though the credit will never land.
	reply := bank.startTransfer(t, "tx-dead", "1", "10", 400)
	if _, ok := reply.(domain.TransferSuccess); !ok {
		t.Fatalf("expected optimistic TransferSuccess, got %#v", reply)
	}

	// Deposit deliveries exhaust, then the compensating deposit refunds
	// the source.
	bank.awaitStatus(t, "tx-dead", domain.StatusRollback)

	if got := bank.balance(t, "1"); !got.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("expected full refund, got %s", got)
	}

	// The refund is journaled under the rollback marker.
	events, err := bank.store.Read(context.Background(), ledger.AddressFor("1"), 1)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	var sawRollback bool
	for _, pe := range events {
		if dep, ok := pe.Event.(domain.DepositedEvent); ok && domain.IsCompensation(dep.TransactionID) {
			if domain.OriginalTransactionID(dep.TransactionID) != "tx-dead" {
				t.Fatalf("rollback correlates to %s", dep.TransactionID)
			}
			sawRollback = true
		}
	}
	if !sawRollback {
		t.Fatalf("no compensating deposit in the source journal")
	}
}

func TestUnresponsiveBankDirectoryFailsTransfer(t *testing.T) {
	system := actor.NewSystem("saga-test", zerolog.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		system.Shutdown(ctx)
	})

	// A directory that swallows everything.
	if _, err := system.Spawn(directory.Address, ledger.NewUnresponsive()); err != nil {
		t.Fatalf("spawn directory: %v", err)
	}

	store := journal.NewMemoryStore()
	statuses := readside.NewMemoryStore()
	cfg := Config{
		Store:             store,
		Statuses:          statuses,
		RedeliverInterval: 20 * time.Millisecond,
		WarnAfterAttempts: 3,
	}

	saga, err := system.Spawn(AddressFor("tx-nodir"), NewSaga("tx-nodir", cfg))
	if err != nil {
		t.Fatalf("spawn saga: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reply, err := system.Ask(ctx, saga, domain.TransferCmd{
		AccountFromID: "1",
		AccountToID:   "2",
		Amount:        decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("transfer ask failed: %v", err)
	}
	failure, ok := reply.(domain.TransferFailure)
	if !ok {
		t.Fatalf("expected TransferFailure, got %#v", reply)
	}
	if failure.Kind != domain.FailureTransport {
		t.Fatalf("expected TRANSPORT, got %s", failure.Kind)
	}

	if status, _ := statuses.Status("tx-nodir"); status != domain.StatusFailed {
		t.Fatalf("expected FAILED, got %s", status)
	}
}

func TestNotifyAtCompletionDelaysReply(t *testing.T) {
	bank := newBank(t, map[string]int64{"1": 10000, "2": 10000})
	bank.cfg.NotifyAtCompletion = true

	reply := bank.startTransfer(t, "tx-late", "1", "2", 50)
	if _, ok := reply.(domain.TransferSuccess); !ok {
		t.Fatalf("expected TransferSuccess, got %#v", reply)
	}

	// The reply only happens at COMPLETED, so the projection must already
	// be there.
	if status, _ := bank.statuses.Status("tx-late"); status != domain.StatusCompleted {
		t.Fatalf("expected COMPLETED at reply time, got %s", status)
	}
}

func TestMoneyIsConservedAcrossOutcomes(t *testing.T) {
	bank := newBank(t, map[string]int64{"1": 1000, "2": 1000, "3": 50}, "10")

	bank.startTransfer(t, "tx-c1", "1", "2", 100)
	bank.startTransfer(t, "tx-c2", "2", "1", 250)
	bank.startTransfer(t, "tx-c3", "3", "1", 500) // insufficient funds
	bank.startTransfer(t, "tx-c4", "1", "10", 75) // rollback

	bank.awaitStatus(t, "tx-c1", domain.StatusCompleted)
	bank.awaitStatus(t, "tx-c2", domain.StatusCompleted)
	bank.awaitStatus(t, "tx-c3", domain.StatusWithdrawFailed)
	bank.awaitStatus(t, "tx-c4", domain.StatusRollback)

	total := bank.balance(t, "1").Add(bank.balance(t, "2")).Add(bank.balance(t, "3"))
	if !total.Equal(decimal.NewFromInt(2050)) {
		t.Fatalf("money not conserved: total %s", total)
	}
}

func TestRecoveredSagaResumesDeposit(t *testing.T) {
	bank := newBank(t, map[string]int64{"1": 1000, "2": 1000})

	// A saga crashed after the debit: its journal ends at DEPOSITING and
	// the debit is already in the source account's journal.
	ctx := context.Background()
	state := domain.TransferEvent{
		TransactionID: "tx-resume",
		AccountFromID: "1",
		AccountToID:   "2",
		Amount:        decimal.NewFromInt(200),
		Status:        domain.StatusNew,
		CreatedAt:     time.Now().UTC(),
	}
	for _, status := range []domain.TransferStatus{domain.StatusNew, domain.StatusWithdrawing, domain.StatusWithdrawn, domain.StatusDepositing} {
		if _, err := bank.store.Append(ctx, AddressFor("tx-resume"), state.With(status)); err != nil {
			t.Fatalf("seed journal: %v", err)
		}
	}
	if _, err := bank.store.Append(ctx, ledger.AddressFor("1"), domain.WithdrawnEvent{
		AccountID:     "1",
		TransactionID: "tx-resume",
		Amount:        decimal.NewFromInt(200),
		Timestamp:     time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed account journal: %v", err)
	}

	if _, err := bank.system.Spawn(AddressFor("tx-resume"), NewSaga("tx-resume", bank.cfg)); err != nil {
		t.Fatalf("spawn recovered saga: %v", err)
	}

	// After the grace period the saga re-resolves and re-issues the
	// deposit; the destination credits it exactly once.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if got := bank.balance(t, "2"); got.Equal(decimal.NewFromInt(1200)) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("deposit never resumed, destination at %s", bank.balance(t, "2"))
		}
		time.Sleep(10 * time.Millisecond)
	}
	bank.awaitStatus(t, "tx-resume", domain.StatusCompleted)
}

func TestFinishedSagaStopsOnRestart(t *testing.T) {
	bank := newBank(t, map[string]int64{"1": 1000, "2": 1000})

	bank.startTransfer(t, "tx-done", "1", "2", 10)
	bank.awaitStatus(t, "tx-done", domain.StatusCompleted)

	// Wait for the finished saga to unregister, then recreate it: it must
	// notice the terminal status and stop without touching anything.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, running := bank.system.Lookup(AddressFor("tx-done")); !running {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("finished saga never stopped")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := bank.system.Spawn(AddressFor("tx-done"), NewSaga("tx-done", bank.cfg)); err != nil {
		t.Fatalf("respawn saga: %v", err)
	}

	deadline = time.Now().Add(5 * time.Second)
	for {
		if _, running := bank.system.Lookup(AddressFor("tx-done")); !running {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("respawned finished saga never stopped")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := bank.balance(t, "1"); !got.Equal(decimal.NewFromInt(990)) {
		t.Fatalf("respawn changed balances: %s", got)
	}
}
