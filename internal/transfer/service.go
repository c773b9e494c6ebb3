package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/kiamesdavies/money-transfer/internal/actor"
	"github.com/kiamesdavies/money-transfer/internal/domain"
)

// PaymentService is the synchronous outer boundary: submit a transfer,
// query a balance, resume hanging transactions. Each call is
// request-with-timeout; an expired ask fails the caller but never aborts
// the underlying saga.
type PaymentService struct {
	system  *actor.System
	sagaCfg Config
	log     zerolog.Logger

	transferTimeout time.Duration
	balanceTimeout  time.Duration
}

// ServiceConfig holds the payment service tunables.
type ServiceConfig struct {
	TransferTimeout time.Duration
	BalanceTimeout  time.Duration
}

// NewPaymentService creates the service on top of an actor system and the
// saga configuration every transfer shares.
func NewPaymentService(system *actor.System, sagaCfg Config, svcCfg ServiceConfig, log zerolog.Logger) *PaymentService {
	sagaCfg.defaults()
	if svcCfg.TransferTimeout == 0 {
		svcCfg.TransferTimeout = 60 * time.Second
	}
	if svcCfg.BalanceTimeout == 0 {
		svcCfg.BalanceTimeout = 10 * time.Second
	}
	return &PaymentService{
		system:          system,
		sagaCfg:         sagaCfg,
		log:             log.With().Str("component", "payment_service").Logger(),
		transferTimeout: svcCfg.TransferTimeout,
		balanceTimeout:  svcCfg.BalanceTimeout,
	}
}

// Transfer moves amount between two accounts. It returns the transaction id
// once the debit is durable; the credit and any compensation proceed
// asynchronously. Failures come back as *domain.TransferError.
func (s *PaymentService) Transfer(ctx context.Context, accountFromID, accountToID string, mt domain.MoneyTransfer) (string, error) {
	transactionID := ulid.Make().String()

	saga, err := s.system.Spawn(
		AddressFor(transactionID),
		NewSaga(transactionID, s.sagaCfg),
		actor.WithBackoff(time.Second, 10*time.Second),
	)
	if err != nil {
		return "", domain.NewTransferError(domain.FailureInternal, err.Error())
	}

	askCtx, cancel := context.WithTimeout(ctx, s.transferTimeout)
	defer cancel()

	reply, err := s.system.Ask(askCtx, saga, domain.TransferCmd{
		AccountFromID: accountFromID,
		AccountToID:   accountToID,
		Amount:        mt.Amount,
		Remarks:       mt.Remarks,
		Source:        mt.Source,
	})
	if err != nil {
		// The saga keeps running; only this caller's wait is over.
		s.log.Error().Err(err).Str("transaction_id", transactionID).Msg("transfer wait expired")
		return "", domain.NewTransferError(domain.FailureInternal, "transfer timed out")
	}

	switch r := reply.(type) {
	case domain.TransferSuccess:
		return r.TransactionID, nil
	case domain.TransferFailure:
		return "", domain.NewTransferError(r.Kind, r.Message)
	default:
		s.log.Error().Type("reply", reply).Msg("unknown transfer reply")
		return "", domain.NewTransferError(domain.FailureInternal, fmt.Sprintf("unknown reply %T", reply))
	}
}

// Balance resolves the account through the directory and queries its
// current balance.
func (s *PaymentService) Balance(ctx context.Context, accountID string) (domain.BalanceSnapshot, error) {
	askCtx, cancel := context.WithTimeout(ctx, s.balanceTimeout)
	defer cancel()

	bank, ok := s.system.Lookup(s.sagaCfg.DirectoryAddress)
	if !ok {
		return domain.BalanceSnapshot{}, errors.New("bank directory is not running")
	}

	reply, err := s.system.Ask(askCtx, bank, domain.ResolveOne{AccountID: accountID})
	if err != nil {
		return domain.BalanceSnapshot{}, err
	}

	var address string
	switch r := reply.(type) {
	case domain.Found:
		address = r.Address
	case domain.NotFound:
		return domain.BalanceSnapshot{}, domain.ErrAccountNotFound
	default:
		return domain.BalanceSnapshot{}, fmt.Errorf("unknown directory reply %T", reply)
	}

	account, ok := s.system.Lookup(address)
	if !ok {
		return domain.BalanceSnapshot{}, domain.ErrAccountNotFound
	}

	reply, err = s.system.Ask(askCtx, account, domain.BalanceQuery{AccountID: accountID})
	if err != nil {
		return domain.BalanceSnapshot{}, err
	}
	snapshot, ok := reply.(domain.BalanceSnapshot)
	if !ok {
		return domain.BalanceSnapshot{}, fmt.Errorf("unknown balance reply %T", reply)
	}
	return snapshot, nil
}

// RecoverHanging queries the read side for transactions in non-terminal
// status and recreates one saga per id. Called once at startup after a
// grace delay. Each saga rebuilds its state from its journal and resumes
// its current stage; an id whose saga is already running is skipped.
func (s *PaymentService) RecoverHanging(ctx context.Context) (int, error) {
	if s.sagaCfg.Statuses == nil {
		return 0, nil
	}

	ids, err := s.sagaCfg.Statuses.FindTransactionsInStatus(ctx, domain.NonTerminalStatuses())
	if err != nil {
		return 0, fmt.Errorf("failed to query hanging transactions: %w", err)
	}

	recovered := 0
	for _, transactionID := range ids {
		if _, running := s.system.Lookup(AddressFor(transactionID)); running {
			continue
		}
		_, err := s.system.Spawn(
			AddressFor(transactionID),
			NewSaga(transactionID, s.sagaCfg),
			actor.WithBackoff(time.Second, 10*time.Second),
		)
		if err != nil {
			if errors.Is(err, actor.ErrNameInUse) {
				continue
			}
			return recovered, err
		}
		recovered++
	}

	if recovered > 0 {
		s.log.Info().Int("count", recovered).Msg("resumed hanging transactions")
	}
	return recovered, nil
}
