package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/observability"
	"go.uber.org/zap"
)

var (
	// ErrDuplicateTransaction is returned when a transaction id was already appended.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrInvalidTransaction is returned for entries that are not final or are malformed.
	ErrInvalidTransaction = errors.New("invalid ledger transaction")
)

// Order selects the direction of a history read.
type Order int

const (
	OldestFirst Order = iota
	NewestFirst
)

// ParseOrder maps "newest"/"desc" to NewestFirst; everything else is OldestFirst.
func ParseOrder(s string) Order {
	switch s {
	case "newest", "desc", "newest_first":
		return NewestFirst
	default:
		return OldestFirst
	}
}

// Publisher receives every appended transaction for durable storage.
type Publisher interface {
	Write(ctx context.Context, txn models.Transaction) error
}

// Ledger is the append-only, time-ordered record of finished transfers.
// Every sequence is ordered by (Timestamp, ID).
type Ledger struct {
	mu       sync.RWMutex
	global   []models.Transaction
	byWallet map[string][]models.Transaction
	ids      map[string]struct{}
	// net is each wallet's committed credits minus committed debits.
	net map[string]int64

	sink   Publisher
	logger *zap.Logger
}

// New creates an empty ledger.
func New(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		byWallet: make(map[string][]models.Transaction),
		ids:      make(map[string]struct{}),
		net:      make(map[string]int64),
		logger:   logger,
	}
}

// WithSink forwards appended entries to p.
func (l *Ledger) WithSink(p Publisher) *Ledger {
	l.sink = p
	return l
}

// Append records a COMMITTED or FAILED transaction exactly once.
func (l *Ledger) Append(ctx context.Context, txn models.Transaction) error {
	if err := validate(txn); err != nil {
		return err
	}

	l.mu.Lock()
	if _, exists := l.ids[txn.ID]; exists {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateTransaction, txn.ID)
	}
	l.ids[txn.ID] = struct{}{}
	l.global = insertOrdered(l.global, txn)
	l.byWallet[txn.SrcWalletID] = insertOrdered(l.byWallet[txn.SrcWalletID], txn)
	l.byWallet[txn.DestWalletID] = insertOrdered(l.byWallet[txn.DestWalletID], txn)
	if txn.Status == domain.TxStatusCommitted {
		l.net[txn.SrcWalletID] -= txn.Amount
		l.net[txn.DestWalletID] += txn.Amount
	}
	size := len(l.global)
	l.mu.Unlock()

	observability.SetLedgerSize(size)
	l.publish(ctx, txn)
	return nil
}

// HistoryFor returns a copy of walletID's transactions in the requested order.
func (l *Ledger) HistoryFor(walletID string, order Order) []models.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return ordered(l.byWallet[walletID], order)
}

// All returns a copy of the global sequence.
func (l *Ledger) All(order Order) []models.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return ordered(l.global, order)
}

// NetFor returns walletID's committed credits minus its committed debits.
func (l *Ledger) NetFor(walletID string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.net[walletID]
}

// Len returns the number of appended transactions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.global)
}

func (l *Ledger) publish(ctx context.Context, txn models.Transaction) {
	if l.sink == nil {
		return
	}
	if err := l.sink.Write(ctx, txn); err != nil {
		observability.IncrementSinkEvent("write_failed")
		l.logger.Warn("ledger sink write failed",
			zap.String("transaction_id", txn.ID),
			zap.Error(err),
		)
	}
}

func validate(txn models.Transaction) error {
	switch {
	case txn.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidTransaction)
	case txn.SrcWalletID == "" || txn.DestWalletID == "":
		return fmt.Errorf("%w: %s missing wallet ids", ErrInvalidTransaction, txn.ID)
	case txn.Amount <= 0:
		return fmt.Errorf("%w: %s amount %d", ErrInvalidTransaction, txn.ID, txn.Amount)
	case txn.Timestamp.IsZero():
		return fmt.Errorf("%w: %s missing timestamp", ErrInvalidTransaction, txn.ID)
	case txn.Status != domain.TxStatusCommitted && txn.Status != domain.TxStatusFailed:
		return fmt.Errorf("%w: %s has non-final status %q", ErrInvalidTransaction, txn.ID, txn.Status)
	}
	return nil
}

func less(a, b models.Transaction) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.ID < b.ID
}

// insertOrdered keeps seq sorted. Entries almost always arrive in clock order,
// so the tail check avoids the search.
func insertOrdered(seq []models.Transaction, txn models.Transaction) []models.Transaction {
	if n := len(seq); n == 0 || !less(txn, seq[n-1]) {
		return append(seq, txn)
	}
	i := sort.Search(len(seq), func(i int) bool { return less(txn, seq[i]) })
	return slices.Insert(seq, i, txn)
}

func ordered(seq []models.Transaction, order Order) []models.Transaction {
	out := make([]models.Transaction, len(seq))
	copy(out, seq)
	if order == NewestFirst {
		slices.Reverse(out)
	}
	return out
}
