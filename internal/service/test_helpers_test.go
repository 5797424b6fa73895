package service

import (
	"context"
	"testing"
	"time"

	"github.com/ayo6706/wallet-ledger/internal/directory"
	"github.com/ayo6706/wallet-ledger/internal/ledger"
	"github.com/ayo6706/wallet-ledger/internal/wallet"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store     *wallet.Store
	ledger    *ledger.Ledger
	directory *directory.Memory
	audit     *AuditService
	transfers *TransferService
	wallets   *WalletService
	recon     *ReconciliationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	f := &fixture{
		store:     wallet.NewStore(),
		ledger:    ledger.New(logger),
		directory: directory.NewMemory(),
		audit:     NewAuditService(100, logger),
	}
	f.transfers = NewTransferService(f.store, f.ledger, f.directory, f.audit, logger).
		WithLockTimeout(5 * time.Second).
		WithRetryBackoff(time.Millisecond)
	f.wallets = NewWalletService(f.store, f.ledger, f.directory, logger)
	f.recon = NewReconciliationService(f.store, f.ledger, logger)
	return f
}

func (f *fixture) createWallet(t *testing.T, id, owner string, balance int64) {
	t.Helper()
	_, err := f.wallets.CreateWallet(context.Background(), CreateWalletCmd{ID: id, OwnerID: owner, InitialBalance: balance})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, id string) int64 {
	t.Helper()
	b, err := f.wallets.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return b
}
