package wallet

import (
	"fmt"

	"github.com/ayo6706/wallet-ledger/internal/models"
)

// Locked is a held wallet lock. Balance mutation is only reachable through it,
// so the funds check and the write always happen in one critical section.
// A Locked must be used by a single goroutine and released exactly once.
type Locked struct {
	e        *entry
	released bool
}

func (l *Locked) ID() string {
	return l.e.wallet.ID
}

func (l *Locked) Balance() int64 {
	return l.e.wallet.Balance
}

func (l *Locked) Wallet() models.Wallet {
	return l.e.wallet
}

// ApplyDelta adds delta to the balance. It fails without side effects when the
// result would be negative or overflow.
func (l *Locked) ApplyDelta(delta int64) error {
	w := &l.e.wallet
	if l.released {
		return fmt.Errorf("%w: wallet %s mutated after unlock", models.ErrInternalInconsistency, w.ID)
	}
	if w.Balance < 0 {
		return fmt.Errorf("%w: wallet %s holds negative balance %d", models.ErrInternalInconsistency, w.ID, w.Balance)
	}
	if delta == 0 {
		return nil
	}

	next := w.Balance + delta
	if delta > 0 && next < w.Balance {
		return fmt.Errorf("%w: crediting %d to wallet %s overflows", models.ErrInternalInconsistency, delta, w.ID)
	}
	if next < 0 {
		return fmt.Errorf("%w: wallet %s has %d, needs %d", models.ErrInsufficientFunds, w.ID, w.Balance, -delta)
	}

	w.Balance = next
	w.Version++
	return nil
}

// Unlock releases the wallet lock. Extra calls are no-ops.
func (l *Locked) Unlock() {
	if l.released {
		return
	}
	l.released = true
	l.e.lock.Release(1)
}
