// Package directory answers "which user owns wallet W?" for the transfer path.
package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ayo6706/wallet-ledger/internal/models"
)

// Directory maps wallets to their owning user.
type Directory interface {
	// OwnerOf returns the owner of walletID. found is false when the wallet has
	// no registered owner.
	OwnerOf(ctx context.Context, walletID string) (userID string, found bool, err error)

	// Assign records userID as the owner of walletID. Assigning the same owner
	// twice is a no-op; a different owner yields models.ErrAlreadyExists.
	Assign(ctx context.Context, walletID, userID string) error
}

// Memory is an in-process Directory.
type Memory struct {
	mu     sync.RWMutex
	owners map[string]string
}

func NewMemory() *Memory {
	return &Memory{owners: make(map[string]string)}
}

func (m *Memory) OwnerOf(_ context.Context, walletID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owner, ok := m.owners[walletID]
	return owner, ok, nil
}

func (m *Memory) Assign(_ context.Context, walletID, userID string) error {
	walletID, userID, err := normalize(walletID, userID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.owners[walletID]; ok {
		if current == userID {
			return nil
		}
		return fmt.Errorf("%w: wallet %s already has an owner", models.ErrAlreadyExists, walletID)
	}
	m.owners[walletID] = userID
	return nil
}

func normalize(walletID, userID string) (string, string, error) {
	walletID = strings.TrimSpace(walletID)
	userID = strings.TrimSpace(userID)
	if walletID == "" || userID == "" {
		return "", "", fmt.Errorf("%w: wallet id and owner id are required", models.ErrInvalidWallet)
	}
	return walletID, userID, nil
}
