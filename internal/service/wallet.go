package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ayo6706/wallet-ledger/internal/directory"
	"github.com/ayo6706/wallet-ledger/internal/ledger"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateWalletCmd struct {
	ID             string
	OwnerID        string
	InitialBalance int64
}

// Overview is a consistent listing of every wallet.
type Overview struct {
	Wallets      []models.Wallet `json:"wallets"`
	TotalBalance int64           `json:"total_balance"`
	Provisioned  int64           `json:"provisioned"`
}

// WalletService provisions wallets and serves read-only views of them.
type WalletService struct {
	wallets   WalletStore
	ledger    LedgerStore
	directory directory.Directory
	logger    *zap.Logger
}

func NewWalletService(wallets WalletStore, l LedgerStore, dir directory.Directory, logger *zap.Logger) *WalletService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalletService{
		wallets:   wallets,
		ledger:    l,
		directory: dir,
		logger:    logger,
	}
}

// CreateWallet registers the owner in the directory and then the wallet in
// the store. An empty ID gets a generated one.
func (s *WalletService) CreateWallet(ctx context.Context, cmd CreateWalletCmd) (*models.Wallet, error) {
	id := strings.TrimSpace(cmd.ID)
	if id == "" {
		id = uuid.NewString()
	}
	owner := strings.TrimSpace(cmd.OwnerID)
	if owner == "" {
		return nil, fmt.Errorf("%w: owner id is required", models.ErrInvalidWallet)
	}
	if cmd.InitialBalance < 0 {
		return nil, fmt.Errorf("%w: initial balance %d is negative", models.ErrInvalidAmount, cmd.InitialBalance)
	}
	if s.wallets.Exists(id) {
		return nil, fmt.Errorf("%w: %s", models.ErrAlreadyExists, id)
	}

	if err := s.directory.Assign(ctx, id, owner); err != nil {
		return nil, fmt.Errorf("assign owner: %w", err)
	}
	w, err := s.wallets.CreateWallet(id, owner, cmd.InitialBalance)
	if err != nil {
		return nil, err
	}

	s.logger.Info("wallet created",
		zap.String("wallet_id", w.ID),
		zap.String("owner_id", w.OwnerID),
		zap.Int64("initial_balance", w.Balance),
	)
	return &w, nil
}

func (s *WalletService) GetBalance(ctx context.Context, walletID string) (int64, error) {
	return s.wallets.GetBalance(ctx, walletID)
}

func (s *WalletService) GetWallet(ctx context.Context, walletID string) (*models.Wallet, error) {
	w, err := s.wallets.Get(ctx, walletID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// AccountStatement returns the wallet and up to n history entries in the
// given order. The balance is read first; a transfer committing in between
// can appear in the history without being reflected in the balance.
func (s *WalletService) AccountStatement(ctx context.Context, walletID string, order ledger.Order, n int) (*models.Statement, error) {
	w, err := s.wallets.Get(ctx, walletID)
	if err != nil {
		return nil, err
	}
	return &models.Statement{
		Wallet:       w,
		Transactions: limit(s.ledger.HistoryFor(walletID, order), n),
	}, nil
}

// Overview lists every wallet from a single consistent cut.
func (s *WalletService) Overview(ctx context.Context) (*Overview, error) {
	wallets, err := s.wallets.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot wallets: %w", err)
	}
	out := &Overview{Wallets: wallets, Provisioned: s.wallets.Provisioned()}
	for _, w := range wallets {
		out.TotalBalance += w.Balance
	}
	return out, nil
}

// History returns the global ledger.
func (s *WalletService) History(order ledger.Order, n int) []models.Transaction {
	return limit(s.ledger.All(order), n)
}
