package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayo6706/wallet-ledger/internal/directory"
	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/ledger"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/observability"
	"github.com/ayo6706/wallet-ledger/internal/wallet"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultLockTimeout  = 2 * time.Second
	defaultRetryBackoff = 50 * time.Millisecond
	lockRetries         = 1
)

// TransferCmd moves Amount minor units from SrcWalletID to DestWalletID.
// SrcUserID and DestUserID are the owners the caller claims for each wallet.
type TransferCmd struct {
	SrcUserID    string
	DestUserID   string
	SrcWalletID  string
	DestWalletID string
	Amount       int64
}

// TransferService coordinates a debit and a credit as one atomic step.
type TransferService struct {
	wallets      WalletStore
	ledger       LedgerStore
	directory    directory.Directory
	audit        *AuditService
	clock        *ledger.Clock
	lockTimeout  time.Duration
	retryBackoff time.Duration
	logger       *zap.Logger
}

func NewTransferService(wallets WalletStore, l LedgerStore, dir directory.Directory, audit *AuditService, logger *zap.Logger) *TransferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = NewAuditService(0, logger)
	}
	return &TransferService{
		wallets:      wallets,
		ledger:       l,
		directory:    dir,
		audit:        audit,
		clock:        ledger.NewClock(),
		lockTimeout:  defaultLockTimeout,
		retryBackoff: defaultRetryBackoff,
		logger:       logger,
	}
}

// WithLockTimeout bounds the wait for both wallet locks.
func (s *TransferService) WithLockTimeout(d time.Duration) *TransferService {
	if d > 0 {
		s.lockTimeout = d
	}
	return s
}

// WithRetryBackoff sets the pause before the single lock retry.
func (s *TransferService) WithRetryBackoff(d time.Duration) *TransferService {
	if d >= 0 {
		s.retryBackoff = d
	}
	return s
}

// Transfer validates cmd, moves the funds and records a COMMITTED ledger
// entry. Either both balances change and the entry is appended, or nothing
// changes.
func (s *TransferService) Transfer(ctx context.Context, cmd TransferCmd) (*models.Transaction, error) {
	txn, err := s.transfer(ctx, cmd)
	observability.IncrementTransfer(transferOutcome(err))
	if err != nil && !models.IsSecurityViolation(err) {
		s.logger.Debug("transfer rejected",
			zap.String("src_wallet_id", cmd.SrcWalletID),
			zap.String("dest_wallet_id", cmd.DestWalletID),
			zap.Int64("amount", cmd.Amount),
			zap.Error(err),
		)
	}
	return txn, err
}

func (s *TransferService) transfer(ctx context.Context, cmd TransferCmd) (*models.Transaction, error) {
	if cmd.Amount <= 0 {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidAmount, cmd.Amount)
	}
	for _, id := range []string{cmd.SrcWalletID, cmd.DestWalletID} {
		if !s.wallets.Exists(id) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
		}
	}
	if err := s.verifyOwner(ctx, cmd.SrcUserID, cmd.SrcWalletID, cmd.SrcUserID); err != nil {
		return nil, err
	}
	if err := s.verifyOwner(ctx, cmd.SrcUserID, cmd.DestWalletID, cmd.DestUserID); err != nil {
		return nil, err
	}
	if cmd.SrcWalletID == cmd.DestWalletID {
		return nil, fmt.Errorf("%w: %s", models.ErrSelfTransfer, cmd.SrcWalletID)
	}

	first, second, err := s.lockPair(ctx, cmd.SrcWalletID, cmd.DestWalletID)
	if err != nil {
		return nil, err
	}
	defer func() {
		second.Unlock()
		first.Unlock()
	}()

	src, dest := first, second
	if src.ID() != cmd.SrcWalletID {
		src, dest = second, first
	}

	txn := models.Transaction{
		ID:           uuid.NewString(),
		SrcWalletID:  cmd.SrcWalletID,
		DestWalletID: cmd.DestWalletID,
		Amount:       cmd.Amount,
		Status:       domain.TxStatusPending,
	}

	if err := src.ApplyDelta(-cmd.Amount); err != nil {
		return nil, err
	}
	if err := dest.ApplyDelta(cmd.Amount); err != nil {
		return nil, s.compensate(ctx, src, txn, err)
	}

	if err := transitionTransactionState(&txn, domain.TxStatusCommitted); err != nil {
		return nil, s.rollback(src, dest, txn, err)
	}
	txn.Timestamp = s.clock.Now()
	if err := s.ledger.Append(ctx, txn); err != nil {
		return nil, s.rollback(src, dest, txn, err)
	}
	return &txn, nil
}

// verifyOwner checks that claimedUserID owns walletID. A mismatch is never
// folded into a validation error: it is audited and returned as
// *models.OwnershipError.
func (s *TransferService) verifyOwner(ctx context.Context, actorID, walletID, claimedUserID string) error {
	owner, found, err := s.directory.OwnerOf(ctx, walletID)
	if err != nil {
		return fmt.Errorf("lookup owner of wallet %s: %w", walletID, err)
	}
	if found && owner == claimedUserID {
		return nil
	}

	oerr := &models.OwnershipError{
		WalletID:      walletID,
		ClaimedUserID: claimedUserID,
		ActualOwnerID: owner,
		Found:         found,
	}
	s.audit.RecordOwnershipMismatch(ctx, actorID, oerr)
	return oerr
}

// lockPair locks both wallets in the global order. A timed out attempt is
// retried once after a short backoff.
func (s *TransferService) lockPair(ctx context.Context, a, b string) (*wallet.Locked, *wallet.Locked, error) {
	lo, hi := lockOrder(a, b)
	for attempt := 0; ; attempt++ {
		first, second, err := s.tryLockPair(ctx, lo, hi)
		if err == nil {
			return first, second, nil
		}
		if !errors.Is(err, models.ErrTimeout) || attempt >= lockRetries || ctx.Err() != nil {
			return nil, nil, err
		}

		s.logger.Info("wallet lock timed out, retrying",
			zap.String("first_wallet_id", lo),
			zap.String("second_wallet_id", hi),
			zap.Duration("backoff", s.retryBackoff),
		)
		timer := time.NewTimer(s.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, nil, err
		case <-timer.C:
		}
	}
}

func (s *TransferService) tryLockPair(ctx context.Context, lo, hi string) (*wallet.Locked, *wallet.Locked, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	start := time.Now()
	first, err := s.wallets.Lock(lockCtx, lo)
	if err != nil {
		return nil, nil, err
	}
	second, err := s.wallets.Lock(lockCtx, hi)
	if err != nil {
		first.Unlock()
		return nil, nil, err
	}
	observability.ObserveLockWait(time.Since(start))
	return first, second, nil
}

// compensate restores the source after a failed credit and records the
// attempt as FAILED.
func (s *TransferService) compensate(ctx context.Context, src *wallet.Locked, txn models.Transaction, cause error) error {
	if err := src.ApplyDelta(txn.Amount); err != nil {
		s.logger.Error("CRITICAL: compensation of debit failed",
			zap.String("transaction_id", txn.ID),
			zap.String("src_wallet_id", txn.SrcWalletID),
			zap.Int64("amount", txn.Amount),
			zap.Error(err),
		)
		return fmt.Errorf("%w: compensating debit on wallet %s: %w", models.ErrInternalInconsistency, txn.SrcWalletID, err)
	}

	if err := transitionTransactionState(&txn, domain.TxStatusFailed); err != nil {
		return err
	}
	txn.Reason = cause.Error()
	txn.Timestamp = s.clock.Now()
	var appendErr error
	if err := s.ledger.Append(ctx, txn); err != nil {
		s.logger.Error("failed to record FAILED transaction",
			zap.String("transaction_id", txn.ID),
			zap.Error(err),
		)
		appendErr = fmt.Errorf("record failed transaction %s: %w", txn.ID, err)
	}
	s.logger.Warn("transfer compensated",
		zap.String("transaction_id", txn.ID),
		zap.String("dest_wallet_id", txn.DestWalletID),
		zap.Error(cause),
	)
	return errors.Join(
		fmt.Errorf("transaction %s failed crediting wallet %s: %w", txn.ID, txn.DestWalletID, cause),
		appendErr,
	)
}

// rollback undoes both deltas when the committed entry could not be recorded.
func (s *TransferService) rollback(src, dest *wallet.Locked, txn models.Transaction, cause error) error {
	destErr := dest.ApplyDelta(-txn.Amount)
	srcErr := src.ApplyDelta(txn.Amount)
	s.logger.Error("CRITICAL: ledger append failed, transfer rolled back",
		zap.String("transaction_id", txn.ID),
		zap.Error(cause),
		zap.NamedError("dest_rollback_error", destErr),
		zap.NamedError("src_rollback_error", srcErr),
	)
	return fmt.Errorf("%w: recording transaction %s: %w", models.ErrInternalInconsistency, txn.ID, errors.Join(cause, destErr, srcErr))
}

func transferOutcome(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, models.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, models.ErrOwnershipMismatch):
		return "ownership_mismatch"
	case errors.Is(err, models.ErrTimeout):
		return "timeout"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrSelfTransfer):
		return "invalid"
	default:
		return "failed"
	}
}
