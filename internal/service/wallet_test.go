package service

import (
	"context"
	"testing"

	"github.com/ayo6706/wallet-ledger/internal/ledger"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.wallets.CreateWallet(ctx, CreateWalletCmd{ID: "W1", OwnerID: "U1", InitialBalance: 500})
	require.NoError(t, err)
	assert.Equal(t, "W1", w.ID)
	assert.Equal(t, int64(500), w.Balance)

	owner, found, err := f.directory.OwnerOf(ctx, "W1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "U1", owner)

	_, err = f.wallets.CreateWallet(ctx, CreateWalletCmd{ID: "W1", OwnerID: "U1"})
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
}

func TestCreateWallet_GeneratesID(t *testing.T) {
	f := newFixture(t)
	w, err := f.wallets.CreateWallet(context.Background(), CreateWalletCmd{OwnerID: "U1"})
	require.NoError(t, err)
	assert.Len(t, w.ID, 36)
	assert.Zero(t, w.Balance)
}

func TestCreateWallet_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.wallets.CreateWallet(ctx, CreateWalletCmd{ID: "W1"})
	assert.ErrorIs(t, err, models.ErrInvalidWallet)

	_, err = f.wallets.CreateWallet(ctx, CreateWalletCmd{ID: "W1", OwnerID: "U1", InitialBalance: -1})
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	require.NoError(t, f.directory.Assign(ctx, "W2", "someone-else"))
	_, err = f.wallets.CreateWallet(ctx, CreateWalletCmd{ID: "W2", OwnerID: "U1"})
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
	assert.False(t, f.store.Exists("W2"))
}

func TestGetBalance_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.wallets.GetBalance(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = f.wallets.GetWallet(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetBalance_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.createWallet(t, "W1", "U1", 42)

	for i := 0; i < 3; i++ {
		assert.Equal(t, int64(42), f.balance(t, "W1"))
	}
	w, err := f.wallets.GetWallet(context.Background(), "W1")
	require.NoError(t, err)
	assert.Zero(t, w.Version)
}

func TestAccountStatement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWallet(t, "W1", "U1", 1000)
	f.createWallet(t, "W2", "U2", 1000)
	f.createWallet(t, "W3", "U3", 1000)

	for _, amount := range []int64{10, 20, 30} {
		_, err := f.transfers.Transfer(ctx, TransferCmd{SrcUserID: "U1", DestUserID: "U2", SrcWalletID: "W1", DestWalletID: "W2", Amount: amount})
		require.NoError(t, err)
	}
	_, err := f.transfers.Transfer(ctx, TransferCmd{SrcUserID: "U3", DestUserID: "U2", SrcWalletID: "W3", DestWalletID: "W2", Amount: 5})
	require.NoError(t, err)

	stmt, err := f.wallets.AccountStatement(ctx, "W1", ledger.OldestFirst, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(940), stmt.Wallet.Balance)
	require.Len(t, stmt.Transactions, 3)
	assert.Equal(t, int64(10), stmt.Transactions[0].Amount)
	assert.Equal(t, int64(30), stmt.Transactions[2].Amount)

	stmt, err = f.wallets.AccountStatement(ctx, "W2", ledger.NewestFirst, 2)
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 2)
	assert.Equal(t, "W3", stmt.Transactions[0].SrcWalletID)
	assert.Equal(t, int64(30), stmt.Transactions[1].Amount)

	_, err = f.wallets.AccountStatement(ctx, "missing", ledger.OldestFirst, 0)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAccountStatement_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWallet(t, "W1", "U1", 1000)
	f.createWallet(t, "W2", "U2", 1000)
	_, err := f.transfers.Transfer(ctx, TransferCmd{SrcUserID: "U1", DestUserID: "U2", SrcWalletID: "W1", DestWalletID: "W2", Amount: 300})
	require.NoError(t, err)

	first, err := f.wallets.AccountStatement(ctx, "W1", ledger.OldestFirst, 0)
	require.NoError(t, err)
	second, err := f.wallets.AccountStatement(ctx, "W1", ledger.OldestFirst, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, uint64(1), second.Wallet.Version)

	// Callers own the returned history.
	first.Transactions[0].Amount = 1
	third, err := f.wallets.AccountStatement(ctx, "W1", ledger.OldestFirst, 0)
	require.NoError(t, err)
	assert.Equal(t, second, third)
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	f.createWallet(t, "b", "U2", 20)
	f.createWallet(t, "a", "U1", 10)

	_, err := f.transfers.Transfer(context.Background(), TransferCmd{SrcUserID: "U2", DestUserID: "U1", SrcWalletID: "b", DestWalletID: "a", Amount: 5})
	require.NoError(t, err)

	overview, err := f.wallets.Overview(context.Background())
	require.NoError(t, err)
	require.Len(t, overview.Wallets, 2)
	assert.Equal(t, "a", overview.Wallets[0].ID)
	assert.Equal(t, int64(15), overview.Wallets[0].Balance)
	assert.Equal(t, int64(30), overview.TotalBalance)
	assert.Equal(t, int64(30), overview.Provisioned)

	assert.Len(t, f.wallets.History(ledger.NewestFirst, 0), 1)
}
