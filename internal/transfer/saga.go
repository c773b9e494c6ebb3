// Package transfer implements the two-party transfer saga and the payment
// service that fronts it. The saga drives Withdraw then Deposit against two
// ledger accounts through the at-least-once delivery channel, compensating
// the debit when the credit cannot be completed.
package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/kiamesdavies/money-transfer/internal/actor"
	"github.com/kiamesdavies/money-transfer/internal/delivery"
	"github.com/kiamesdavies/money-transfer/internal/domain"
	"github.com/kiamesdavies/money-transfer/internal/journal"
	"github.com/kiamesdavies/money-transfer/internal/readside"
)

// AddressFor returns the saga's actor address for a transaction id.
// Deterministic addressing makes recreating an already-running or finished
// saga harmless.
func AddressFor(transactionID string) string {
	return "transaction-" + transactionID
}

// Recorder receives saga lifecycle observations. Implemented by the metrics
// package; nil disables recording.
type Recorder interface {
	TransferStarted()
	TransferTerminal(status domain.TransferStatus)
	DeliveryExhaustedAt(status domain.TransferStatus)
}

// Config holds the saga tunables shared by every instance.
type Config struct {
	Store            journal.Store
	Statuses         readside.StatusStore
	DirectoryAddress string

	RedeliverInterval time.Duration
	WarnAfterAttempts int

	// NotifyAtCompletion delays the initiator's Success until COMPLETED
	// instead of the default optimistic notification at WITHDRAWN.
	NotifyAtCompletion bool

	Metrics Recorder
	Clock   func() time.Time
}

func (c *Config) defaults() {
	if c.RedeliverInterval == 0 {
		c.RedeliverInterval = 5 * time.Second
	}
	if c.WarnAfterAttempts == 0 {
		c.WarnAfterAttempts = 5
	}
	if c.DirectoryAddress == "" {
		c.DirectoryAddress = "bank"
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// resume is the one-shot self-message that restarts a recovered saga's
// current stage after the post-crash grace period.
type resume struct{}

// Saga is the transfer process manager. One instance owns one transaction;
// it mutates its state only from its own mailbox and self-terminates on any
// terminal status.
type Saga struct {
	transactionID string
	cfg           Config

	deliveries *delivery.Manager
	state      *domain.TransferEvent
	initiator  *actor.Ref
	addrFrom   string
	addrTo     string
}

// NewSaga returns a factory for the saga owning transactionID.
func NewSaga(transactionID string, cfg Config) func() actor.Actor {
	cfg.defaults()
	return func() actor.Actor {
		return &Saga{
			transactionID: transactionID,
			cfg:           cfg,
			deliveries:    delivery.NewManager(cfg.RedeliverInterval, cfg.WarnAfterAttempts),
		}
	}
}

func (s *Saga) persistenceID() string { return AddressFor(s.transactionID) }

// PreStart replays the saga's journal. A terminal replayed status stops the
// saga immediately; a non-terminal one schedules a resume after a grace
// period sized to outlast redeliveries issued before the crash.
func (s *Saga) PreStart(c *actor.Context) error {
	_, err := journal.Recovery(context.Background(), s.cfg.Store, s.persistenceID(), nil, func(event domain.Event) {
		if te, ok := event.(domain.TransferEvent); ok {
			s.state = &te
		}
	})
	if err != nil {
		return fmt.Errorf("saga %s recovery: %w", s.transactionID, err)
	}

	c.ScheduleEvery(s.cfg.RedeliverInterval, delivery.Tick{})

	if s.state == nil {
		// Fresh saga, waiting for its TransferCmd.
		return nil
	}
	if s.state.Status.Terminal() {
		c.Log().Warn().Str("transaction_id", s.transactionID).Str("status", string(s.state.Status)).
			Msg("finished transaction tried to restart, stopping")
		c.Stop()
		return nil
	}

	grace := s.cfg.RedeliverInterval * time.Duration(s.cfg.WarnAfterAttempts)
	c.Log().Info().Str("transaction_id", s.transactionID).Str("status", string(s.state.Status)).
		Dur("grace", grace).Msg("recovered mid-flight transaction, resuming after grace period")
	c.ScheduleOnce(grace, resume{})
	return nil
}

func (s *Saga) Receive(c *actor.Context, msg actor.Message) {
	switch m := msg.(type) {
	case domain.TransferCmd:
		s.handleTransferCmd(c, m)
	case domain.FoundAll:
		s.handleResolved(c, m)
	case domain.NotFound:
		s.handleNotFound(c, m)
	case domain.CmdAck:
		s.handleAck(c, m)
	case delivery.Tick:
		if warning := s.deliveries.Redeliver(c); warning != nil {
			s.handleWarning(c, warning)
		}
	case resume:
		// Re-resolve both accounts; the stage resumes once addresses are
		// fresh again.
		s.resolveAccounts(c)
	default:
		c.Log().Error().Type("msg", msg).Interface("state", s.state).Msg("unattended message")
	}
}

func (s *Saga) handleTransferCmd(c *actor.Context, cmd domain.TransferCmd) {
	if s.state != nil {
		c.Log().Warn().Str("transaction_id", s.transactionID).Msg("duplicate transfer command ignored")
		return
	}
	s.initiator = c.Sender()

	if cmd.AccountFromID == cmd.AccountToID {
		// Rejected before anything is persisted.
		s.notify(c, domain.TransferFailure{Kind: domain.FailureValidation, Message: domain.ErrSameAccount.Error()})
		c.Stop()
		return
	}

	s.persist(c, domain.TransferEvent{
		TransactionID: s.transactionID,
		AccountFromID: cmd.AccountFromID,
		AccountToID:   cmd.AccountToID,
		Amount:        cmd.Amount,
		Remarks:       cmd.Remarks,
		Source:        cmd.Source,
		Status:        domain.StatusNew,
		CreatedAt:     s.cfg.Clock().UTC(),
	})
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.TransferStarted()
	}
	s.resolveAccounts(c)
}

func (s *Saga) resolveAccounts(c *actor.Context) {
	from, to := s.state.AccountFromID, s.state.AccountToID
	s.deliveries.Deliver(c, s.cfg.DirectoryAddress, func(deliveryID int64) actor.Message {
		return domain.ResolveMany{DeliveryID: deliveryID, AccountIDs: []string{from, to}}
	})
}

func (s *Saga) handleResolved(c *actor.Context, m domain.FoundAll) {
	s.deliveries.Confirm(m.DeliveryID)
	s.addrFrom = m.Addresses[s.state.AccountFromID]
	s.addrTo = m.Addresses[s.state.AccountToID]

	switch s.state.Status {
	case domain.StatusNew:
		s.persist(c, s.state.With(domain.StatusWithdrawing))
		s.deliverWithdraw(c)
	case domain.StatusWithdrawing:
		// Crashed after entering the stage; just re-issue the command, the
		// ledger dedupes on transaction id.
		s.deliverWithdraw(c)
	case domain.StatusWithdrawn:
		s.persist(c, s.state.With(domain.StatusDepositing))
		s.deliverDeposit(c)
	case domain.StatusDepositing:
		s.deliverDeposit(c)
	case domain.StatusDepositFailed:
		s.persist(c, s.state.With(domain.StatusRollbackPending))
		s.deliverRollback(c)
	case domain.StatusRollbackPending:
		s.deliverRollback(c)
	default:
		c.Log().Warn().Interface("state", s.state).Msg("finished transaction tried to resume, stopping")
		c.Stop()
	}
}

func (s *Saga) handleNotFound(c *actor.Context, m domain.NotFound) {
	s.deliveries.Confirm(m.DeliveryID)

	if s.state.Status == domain.StatusNew {
		s.persist(c, s.state.With(domain.StatusFailed))
		s.notify(c, domain.TransferFailure{
			Kind:    domain.FailureNotFound,
			Message: fmt.Sprintf("%s not found", m.AccountID),
		})
		c.Stop()
		return
	}

	// Directory entries are static; losing one mid-flight is a wiring
	// fault, not a state the machine accounts for.
	c.Log().Error().Str("account_id", m.AccountID).Interface("state", s.state).
		Msg("account vanished mid-transfer")
	s.notify(c, domain.TransferFailure{
		Kind:    domain.FailureNotFound,
		Message: fmt.Sprintf("%s not found", m.AccountID),
	})
	c.Stop()
}

func (s *Saga) handleAck(c *actor.Context, ack domain.CmdAck) {
	if s.state == nil || s.addrFrom == "" {
		// Ack from a delivery issued before a restart. The resume path will
		// re-drive the stage and the ledger replays its cached answer.
		s.deliveries.Confirm(ack.DeliveryID)
		return
	}

	switch s.state.Status {
	case domain.StatusWithdrawing:
		switch event := ack.Event.(type) {
		case domain.WithdrawnEvent:
			s.persist(c, s.state.With(domain.StatusWithdrawn))
			s.deliveries.Confirm(ack.DeliveryID)
			if !s.cfg.NotifyAtCompletion {
				// Funds are reserved; the transfer is accepted. The credit
				// proceeds asynchronously.
				s.notify(c, domain.TransferSuccess{TransactionID: s.transactionID})
			}
			s.persist(c, s.state.With(domain.StatusDepositing))
			s.deliverDeposit(c)
		case domain.RejectedEvent:
			c.Log().Error().Interface("state", s.state).Str("reason", string(event.Reason)).Msg("withdraw rejected")
			s.persist(c, s.state.With(domain.StatusWithdrawFailed))
			s.deliveries.Confirm(ack.DeliveryID)
			s.notify(c, failureFromRejection(event))
			c.Stop()
		}

	case domain.StatusDepositing:
		switch event := ack.Event.(type) {
		case domain.DepositedEvent:
			s.persist(c, s.state.With(domain.StatusCompleted))
			s.deliveries.Confirm(ack.DeliveryID)
			if s.cfg.NotifyAtCompletion {
				s.notify(c, domain.TransferSuccess{TransactionID: s.transactionID})
			}
			c.Stop()
		case domain.RejectedEvent:
			c.Log().Error().Interface("state", s.state).Str("reason", string(event.Reason)).
				Msg("deposit rejected, will attempt rollback")
			s.persist(c, s.state.With(domain.StatusDepositFailed))
			s.deliveries.Confirm(ack.DeliveryID)
			s.beginRollback(c)
		}

	case domain.StatusRollbackPending:
		switch ack.Event.(type) {
		case domain.DepositedEvent:
			c.Log().Info().Interface("state", s.state).Msg("rollback completed")
			s.persist(c, s.state.With(domain.StatusRollback))
			s.deliveries.Confirm(ack.DeliveryID)
			c.Stop()
		case domain.RejectedEvent:
			s.persist(c, s.state.With(domain.StatusRollbackFailed))
			s.deliveries.Confirm(ack.DeliveryID)
			c.Stop()
		}

	default:
		// Late or duplicate acknowledgement.
		s.deliveries.Confirm(ack.DeliveryID)
	}
}

// handleWarning applies the escalation policy when the delivery channel has
// exhausted its attempts for the current stage.
func (s *Saga) handleWarning(c *actor.Context, warning *delivery.UnconfirmedWarning) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.DeliveryExhaustedAt(s.state.Status)
	}

	switch s.state.Status {
	case domain.StatusNew:
		c.Log().Error().Interface("state", s.state).Int("attempts", s.cfg.WarnAfterAttempts).
			Msg("bank directory failed to respond")
		s.persist(c, s.state.With(domain.StatusFailed))
		s.deliveries.ConfirmAll()
		s.notify(c, domain.TransferFailure{Kind: domain.FailureTransport, Message: "bank directory not responding"})
		c.Stop()

	case domain.StatusWithdrawing:
		c.Log().Error().Interface("state", s.state).Int("attempts", s.cfg.WarnAfterAttempts).
			Msg("withdraw account failed to respond")
		s.persist(c, s.state.With(domain.StatusWithdrawFailed))
		s.deliveries.ConfirmAll()
		s.notify(c, domain.TransferFailure{Kind: domain.FailureTransport, Message: "bank account not responding"})
		c.Stop()

	case domain.StatusDepositing:
		c.Log().Error().Interface("state", s.state).Int("attempts", s.cfg.WarnAfterAttempts).
			Msg("deposit account failed to respond, will attempt rollback")
		s.persist(c, s.state.With(domain.StatusDepositFailed))
		s.deliveries.ConfirmAll()
		s.beginRollback(c)

	case domain.StatusRollbackPending:
		// Deliberate boundary: the system cannot know whether the funds
		// were recovered, so it stops retrying and leaves the transaction
		// for external reconciliation.
		c.Log().Error().Interface("state", s.state).Int("attempts", s.cfg.WarnAfterAttempts).
			Int("pending", len(warning.PendingDeliveryIDs)).
			Msg("rollback exhausted, external reconciliation required")
		s.persist(c, s.state.With(domain.StatusRollbackFailed))
		s.deliveries.ConfirmAll()
		c.Stop()
	}
}

func (s *Saga) beginRollback(c *actor.Context) {
	s.persist(c, s.state.With(domain.StatusRollbackPending))
	s.deliverRollback(c)
}

func (s *Saga) deliverWithdraw(c *actor.Context) {
	state := *s.state
	s.deliveries.Deliver(c, s.addrFrom, func(deliveryID int64) actor.Message {
		return domain.WithdrawCmd{
			DeliveryID:    deliveryID,
			TransactionID: state.TransactionID,
			AccountID:     state.AccountFromID,
			Amount:        state.Amount,
		}
	})
}

func (s *Saga) deliverDeposit(c *actor.Context) {
	state := *s.state
	s.deliveries.Deliver(c, s.addrTo, func(deliveryID int64) actor.Message {
		return domain.DepositCmd{
			DeliveryID:    deliveryID,
			TransactionID: state.TransactionID,
			AccountID:     state.AccountToID,
			Amount:        state.Amount,
		}
	})
}

// deliverRollback refunds the debited account. The transaction id carries
// the rollback marker so the ledger treats it as a distinct idempotency key
// from the original deposit attempt.
func (s *Saga) deliverRollback(c *actor.Context) {
	state := *s.state
	s.deliveries.Deliver(c, s.addrFrom, func(deliveryID int64) actor.Message {
		return domain.DepositCmd{
			DeliveryID:    deliveryID,
			TransactionID: state.TransactionID + domain.RollbackSuffix,
			AccountID:     state.AccountFromID,
			Amount:        state.Amount,
		}
	})
}

// persist appends the status change, projects it to the read side and
// records terminal outcomes. Journal unavailability crashes the saga into
// its backoff supervisor.
func (s *Saga) persist(c *actor.Context, event domain.TransferEvent) {
	if _, err := s.cfg.Store.Append(context.Background(), s.persistenceID(), event); err != nil {
		panic(fmt.Errorf("saga %s journal append: %w", s.transactionID, err))
	}
	s.state = &event

	if s.cfg.Statuses != nil {
		if err := s.cfg.Statuses.SaveStatus(context.Background(), event); err != nil {
			c.Log().Warn().Err(err).Str("transaction_id", s.transactionID).Msg("read side projection failed")
		}
	}
	if s.cfg.Metrics != nil && event.Status.Terminal() {
		s.cfg.Metrics.TransferTerminal(event.Status)
	}
}

// notify answers the initiator exactly once. Follow-up compensation
// activity is never separately reported.
func (s *Saga) notify(c *actor.Context, msg actor.Message) {
	if s.initiator == nil {
		return
	}
	s.initiator.Tell(msg, c.Self())
	s.initiator = nil
}

func failureFromRejection(event domain.RejectedEvent) domain.TransferFailure {
	if event.Reason == domain.ReasonInsufficientFunds {
		detail := event.Detail
		if detail == "" {
			detail = domain.ErrInsufficientFunds.Error()
		}
		return domain.TransferFailure{Kind: domain.FailureInsufficientFunds, Message: detail}
	}
	detail := event.Detail
	if detail == "" {
		detail = domain.ErrInvalidAmount.Error()
	}
	return domain.TransferFailure{Kind: domain.FailureValidation, Message: detail}
}
