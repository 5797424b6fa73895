package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const schema = `
CREATE TABLE IF NOT EXISTS wallet_owners (
    wallet_id  TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// DBTX is the subset of pgxpool.Pool used by Postgres.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores ownership in the wallet_owners table.
type Postgres struct {
	db DBTX
}

func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the wallet_owners table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create wallet_owners: %w", err)
	}
	return nil
}

func (p *Postgres) OwnerOf(ctx context.Context, walletID string) (string, bool, error) {
	var owner string
	err := p.db.QueryRow(ctx, `SELECT user_id FROM wallet_owners WHERE wallet_id = $1`, walletID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup wallet owner: %w", err)
	}
	return owner, true, nil
}

func (p *Postgres) Assign(ctx context.Context, walletID, userID string) error {
	walletID, userID, err := normalize(walletID, userID)
	if err != nil {
		return err
	}

	tag, err := p.db.Exec(ctx,
		`INSERT INTO wallet_owners (wallet_id, user_id) VALUES ($1, $2) ON CONFLICT (wallet_id) DO NOTHING`,
		walletID, userID,
	)
	if err != nil {
		return fmt.Errorf("assign wallet owner: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	current, found, err := p.OwnerOf(ctx, walletID)
	if err != nil {
		return err
	}
	if found && current == userID {
		return nil
	}
	return fmt.Errorf("%w: wallet %s already has an owner", models.ErrAlreadyExists, walletID)
}
