package service

import (
	"context"
	"testing"
	"time"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciliation_Balanced(t *testing.T) {
	f := newFixture(t)
	f.createWallet(t, "W1", "U1", 1000)
	f.createWallet(t, "W2", "U2", 0)
	_, err := f.transfers.Transfer(context.Background(), TransferCmd{SrcUserID: "U1", DestUserID: "U2", SrcWalletID: "W1", DestWalletID: "W2", Amount: 400})
	require.NoError(t, err)

	report, err := f.recon.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Balanced())
	assert.Equal(t, 2, report.Wallets)
	assert.Equal(t, int64(1000), report.TotalBalance)
	assert.Equal(t, 1, report.Transactions)
}

func TestReconciliation_DetectsBalanceTampering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWallet(t, "W1", "U1", 100)

	l, err := f.store.Lock(ctx, "W1")
	require.NoError(t, err)
	require.NoError(t, l.ApplyDelta(25))
	l.Unlock()

	report, err := f.recon.Run(ctx)
	assert.ErrorIs(t, err, models.ErrInternalInconsistency)
	require.NotNil(t, report)

	kinds := map[string]bool{}
	for _, issue := range report.Issues {
		kinds[issue.Kind] = true
	}
	assert.True(t, kinds[IssueConservation])
	assert.True(t, kinds[IssueLedgerMismatch])
}

func TestReconciliation_DetectsUnappliedLedgerEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWallet(t, "W1", "U1", 100)
	f.createWallet(t, "W2", "U2", 100)

	require.NoError(t, f.ledger.Append(ctx, models.Transaction{
		ID: uuid.NewString(), SrcWalletID: "W1", DestWalletID: "W2", Amount: 10,
		Status: domain.TxStatusCommitted, Timestamp: time.Now(),
	}))

	report, err := f.recon.Run(ctx)
	assert.ErrorIs(t, err, models.ErrInternalInconsistency)
	require.Len(t, report.Issues, 2)
	for _, issue := range report.Issues {
		assert.Equal(t, IssueLedgerMismatch, issue.Kind)
	}
}

func TestReconciliation_IgnoresFailedEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWallet(t, "W1", "U1", 100)
	f.createWallet(t, "W2", "U2", 100)

	require.NoError(t, f.ledger.Append(ctx, models.Transaction{
		ID: uuid.NewString(), SrcWalletID: "W1", DestWalletID: "W2", Amount: 10,
		Status: domain.TxStatusFailed, Reason: "credit failed", Timestamp: time.Now(),
	}))

	_, err := f.recon.Run(ctx)
	assert.NoError(t, err)
}
