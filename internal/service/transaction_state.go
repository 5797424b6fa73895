package service

import (
	"fmt"
	"strings"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
)

// A transaction is settled exactly once; both final states are terminal.
var transactionTransitions = map[string]map[string]struct{}{
	domain.TxStatusPending: {
		domain.TxStatusCommitted: {},
		domain.TxStatusFailed:    {},
	},
	domain.TxStatusCommitted: {},
	domain.TxStatusFailed:    {},
}

func normalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

func canTransition(current, next string) bool {
	current = normalizeState(current)
	next = normalizeState(next)
	nextStates, ok := transactionTransitions[current]
	if !ok {
		return false
	}
	_, ok = nextStates[next]
	return ok
}

func transitionTransactionState(txn *models.Transaction, nextState string) error {
	if !canTransition(txn.Status, nextState) {
		return fmt.Errorf("%w: invalid transaction state transition %s -> %s", models.ErrInternalInconsistency, txn.Status, nextState)
	}
	txn.Status = normalizeState(nextState)
	return nil
}
