package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("wallet not found")
	ErrAlreadyExists     = errors.New("wallet already exists")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidWallet     = errors.New("invalid wallet")
	ErrSelfTransfer      = errors.New("source and destination wallet are the same")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrOwnershipMismatch is security relevant. Callers must not fold it into
	// a generic validation failure.
	ErrOwnershipMismatch = errors.New("wallet ownership mismatch")

	// ErrTimeout is returned when wallet locks could not be acquired in time.
	// It is safe to retry.
	ErrTimeout = errors.New("timed out acquiring wallet locks")

	// ErrInternalInconsistency marks state that should be unreachable.
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

// OwnershipError describes which wallet failed the ownership check and for
// which claimed user.
type OwnershipError struct {
	WalletID      string
	ClaimedUserID string
	ActualOwnerID string
	Found         bool
}

func (e *OwnershipError) Error() string {
	if !e.Found {
		return fmt.Sprintf("%s: wallet %s has no registered owner (claimed by %s)", ErrOwnershipMismatch, e.WalletID, e.ClaimedUserID)
	}
	return fmt.Sprintf("%s: wallet %s is not owned by %s", ErrOwnershipMismatch, e.WalletID, e.ClaimedUserID)
}

func (e *OwnershipError) Unwrap() error {
	return ErrOwnershipMismatch
}

// IsRetryable reports whether err is a transient failure the caller may retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsSecurityViolation reports whether err must be escalated for audit.
func IsSecurityViolation(err error) bool {
	return errors.Is(err, ErrOwnershipMismatch)
}
