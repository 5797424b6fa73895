package sink

import (
	"context"
	"fmt"

	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_transactions (
    id             UUID PRIMARY KEY,
    src_wallet_id  TEXT NOT NULL,
    dest_wallet_id TEXT NOT NULL,
    amount         BIGINT NOT NULL CHECK (amount > 0),
    status         TEXT NOT NULL,
    reason         TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL
)`

// Execer is the subset of pgxpool.Pool used by Postgres.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres inserts transactions into ledger_transactions. Replays of an
// already stored id are ignored.
type Postgres struct {
	db Execer
}

func NewPostgres(db Execer) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create ledger_transactions: %w", err)
	}
	return nil
}

func (p *Postgres) Write(ctx context.Context, txn models.Transaction) error {
	tag, err := p.db.Exec(ctx,
		`INSERT INTO ledger_transactions (id, src_wallet_id, dest_wallet_id, amount, status, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		txn.ID, txn.SrcWalletID, txn.DestWalletID, txn.Amount, txn.Status, txn.Reason, txn.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert ledger transaction %s: %w", txn.ID, err)
	}
	return requireAtMostOne(tag.RowsAffected(), "insert ledger transaction")
}

func requireAtMostOne(rows int64, operation string) error {
	if rows > 1 {
		return fmt.Errorf("%s affected %d rows", operation, rows)
	}
	return nil
}
