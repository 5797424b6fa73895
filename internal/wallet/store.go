package wallet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ayo6706/wallet-ledger/internal/models"
	"golang.org/x/sync/semaphore"
)

const snapshotAttempts = 3

// entry couples a wallet with its exclusive lock. Both are created together in
// CreateWallet, so there is never a lazily created lock to race on.
type entry struct {
	lock   *semaphore.Weighted
	wallet models.Wallet // guarded by lock
}

// Store is the authoritative wallet id -> balance mapping.
// The registry mutex guards only the map; balances are guarded by the
// per-wallet lock.
type Store struct {
	mu          sync.RWMutex
	entries     map[string]*entry
	provisioned int64
	now         func() time.Time
}

// NewStore creates an empty wallet store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateWallet registers a wallet together with its lock.
func (s *Store) CreateWallet(id, ownerID string, initialBalance int64) (models.Wallet, error) {
	id = strings.TrimSpace(id)
	ownerID = strings.TrimSpace(ownerID)
	if id == "" {
		return models.Wallet{}, fmt.Errorf("%w: wallet id is required", models.ErrInvalidWallet)
	}
	if ownerID == "" {
		return models.Wallet{}, fmt.Errorf("%w: owner id is required", models.ErrInvalidWallet)
	}
	if initialBalance < 0 {
		return models.Wallet{}, fmt.Errorf("%w: initial balance %d is negative", models.ErrInvalidAmount, initialBalance)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		return models.Wallet{}, fmt.Errorf("%w: %s", models.ErrAlreadyExists, id)
	}
	if s.provisioned > math.MaxInt64-initialBalance {
		return models.Wallet{}, fmt.Errorf("%w: provisioned total would overflow", models.ErrInvalidAmount)
	}

	e := &entry{
		lock: semaphore.NewWeighted(1),
		wallet: models.Wallet{
			ID:             id,
			OwnerID:        ownerID,
			Balance:        initialBalance,
			OpeningBalance: initialBalance,
			CreatedAt:      s.now(),
		},
	}
	s.entries[id] = e
	s.provisioned += initialBalance
	return e.wallet, nil
}

// Exists reports whether id is registered.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[id]
	return ok
}

// OwnerOf returns the owner recorded at creation. Owners never change, so no
// wallet lock is taken.
func (s *Store) OwnerOf(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return "", false
	}
	return e.wallet.OwnerID, true
}

// Len returns the number of registered wallets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Provisioned returns the total value injected through CreateWallet.
func (s *Store) Provisioned() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provisioned
}

// Lock blocks until the wallet's lock is held or ctx is done.
// A deadline expiry is reported as models.ErrTimeout.
func (s *Store) Lock(ctx context.Context, id string) (*Locked, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := e.lock.Acquire(ctx, 1); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: wallet %s: %w", models.ErrTimeout, id, err)
		}
		return nil, fmt.Errorf("lock wallet %s: %w", id, err)
	}
	return &Locked{e: e}, nil
}

// GetBalance reads the balance under the wallet's own lock.
func (s *Store) GetBalance(ctx context.Context, id string) (int64, error) {
	l, err := s.Lock(ctx, id)
	if err != nil {
		return 0, err
	}
	defer l.Unlock()
	return l.Balance(), nil
}

// Get returns a copy of the wallet read under its lock.
func (s *Store) Get(ctx context.Context, id string) (models.Wallet, error) {
	l, err := s.Lock(ctx, id)
	if err != nil {
		return models.Wallet{}, err
	}
	defer l.Unlock()
	return l.Wallet(), nil
}

// Snapshot returns a consistent cut of every wallet, sorted by id.
func (s *Store) Snapshot(ctx context.Context) ([]models.Wallet, error) {
	var out []models.Wallet
	err := s.View(ctx, func(wallets []models.Wallet) error {
		out = wallets
		return nil
	})
	return out, err
}

// View calls fn with every wallet while all wallet locks are held, so no
// transfer can commit until fn returns. Locks are taken in id order, the same
// order transfers use.
func (s *Store) View(ctx context.Context, fn func(wallets []models.Wallet) error) error {
	for attempt := 0; attempt < snapshotAttempts; attempt++ {
		complete, err := s.viewOnce(ctx, fn)
		if err != nil {
			return err
		}
		if complete {
			return nil
		}
	}
	return fmt.Errorf("snapshot: wallet registry changed during %d attempts", snapshotAttempts)
}

func (s *Store) viewOnce(ctx context.Context, fn func([]models.Wallet) error) (bool, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)

	held := make([]*Locked, 0, len(ids))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}()
	for _, id := range ids {
		l, err := s.Lock(ctx, id)
		if err != nil {
			return false, err
		}
		held = append(held, l)
	}

	// A wallet registered after the id copy may have exchanged value with a
	// wallet we had not locked yet; the cut is only valid if none appeared.
	if s.Len() != len(ids) {
		return false, nil
	}

	wallets := make([]models.Wallet, len(held))
	for i, l := range held {
		wallets[i] = l.Wallet()
	}
	return true, fn(wallets)
}

func (s *Store) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return e, nil
}
