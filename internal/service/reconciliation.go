package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/observability"
	"go.uber.org/zap"
)

const (
	IssueNegativeBalance = "negative_balance"
	IssueConservation    = "conservation"
	IssueLedgerMismatch  = "ledger_mismatch"
)

type ReconciliationIssue struct {
	Kind     string `json:"kind"`
	WalletID string `json:"wallet_id,omitempty"`
	Expected int64  `json:"expected"`
	Actual   int64  `json:"actual"`
}

type ReconciliationReport struct {
	Wallets      int                   `json:"wallets"`
	TotalBalance int64                 `json:"total_balance"`
	Opening      int64                 `json:"opening"`
	Transactions int                   `json:"transactions"`
	Issues       []ReconciliationIssue `json:"issues,omitempty"`
	CheckedAt    time.Time             `json:"checked_at"`
}

func (r *ReconciliationReport) Balanced() bool {
	return len(r.Issues) == 0
}

// ReconciliationService verifies balance and ledger invariants.
type ReconciliationService struct {
	wallets WalletStore
	ledger  LedgerStore
	logger  *zap.Logger
}

// NewReconciliationService creates a reconciliation service.
func NewReconciliationService(wallets WalletStore, l LedgerStore, logger *zap.Logger) *ReconciliationService {
	if logger == nil {
		logger = zap.L()
	}
	return &ReconciliationService{wallets: wallets, ledger: l, logger: logger}
}

// Run checks, on one consistent cut, that no balance is negative, that the
// balances add up to what was provisioned, and that every balance equals its
// opening balance plus committed credits minus committed debits.
func (s *ReconciliationService) Run(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{CheckedAt: time.Now().UTC()}

	err := s.wallets.View(ctx, func(wallets []models.Wallet) error {
		// Appends happen under both wallet locks, so the ledger is frozen here too.
		report.Wallets = len(wallets)
		report.Transactions = s.ledger.Len()

		for _, w := range wallets {
			report.TotalBalance += w.Balance
			report.Opening += w.OpeningBalance
			if w.Balance < 0 {
				report.Issues = append(report.Issues, ReconciliationIssue{
					Kind: IssueNegativeBalance, WalletID: w.ID, Expected: 0, Actual: w.Balance,
				})
			}
			if expected := w.OpeningBalance + s.ledger.NetFor(w.ID); expected != w.Balance {
				report.Issues = append(report.Issues, ReconciliationIssue{
					Kind: IssueLedgerMismatch, WalletID: w.ID, Expected: expected, Actual: w.Balance,
				})
			}
		}
		if report.TotalBalance != report.Opening {
			report.Issues = append(report.Issues, ReconciliationIssue{
				Kind: IssueConservation, Expected: report.Opening, Actual: report.TotalBalance,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconciliation snapshot: %w", err)
	}

	if !report.Balanced() {
		for _, issue := range report.Issues {
			observability.IncrementLedgerImbalance(issue.Kind)
			s.logger.Error("CRITICAL: ledger imbalance detected",
				zap.String("kind", issue.Kind),
				zap.String("wallet_id", issue.WalletID),
				zap.Int64("expected", issue.Expected),
				zap.Int64("actual", issue.Actual),
			)
		}
		return report, fmt.Errorf("%w: %d reconciliation issues", models.ErrInternalInconsistency, len(report.Issues))
	}

	s.logger.Info("ledger balanced",
		zap.Int("wallets", report.Wallets),
		zap.Int64("total_balance", report.TotalBalance),
	)
	return report, nil
}
