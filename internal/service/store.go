package service

import (
	"context"

	"github.com/ayo6706/wallet-ledger/internal/ledger"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/wallet"
)

// WalletStore is the balance authority the services depend on.
type WalletStore interface {
	CreateWallet(id, ownerID string, initialBalance int64) (models.Wallet, error)
	Exists(id string) bool
	Lock(ctx context.Context, id string) (*wallet.Locked, error)
	GetBalance(ctx context.Context, id string) (int64, error)
	Get(ctx context.Context, id string) (models.Wallet, error)
	Snapshot(ctx context.Context) ([]models.Wallet, error)
	View(ctx context.Context, fn func(wallets []models.Wallet) error) error
	Provisioned() int64
}

// LedgerStore is the append-only transaction history.
type LedgerStore interface {
	Append(ctx context.Context, txn models.Transaction) error
	HistoryFor(walletID string, order ledger.Order) []models.Transaction
	All(order ledger.Order) []models.Transaction
	NetFor(walletID string) int64
	Len() int
}

var (
	_ WalletStore = (*wallet.Store)(nil)
	_ LedgerStore = (*ledger.Ledger)(nil)
)
