// Package pgtest gives integration tests exclusive access to the database
// named by DATABASE_URL.
package pgtest

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/ayo6706/wallet-ledger/internal/db"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// Packages run as separate test binaries, so the lock is a listening port.
const lockAddr = "127.0.0.1:45432"

// Acquire blocks until no other test binary holds the database.
func Acquire() func() {
	for {
		ln, err := net.Listen("tcp", lockAddr)
		if err == nil {
			return func() { ln.Close() }
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// Connect skips t when DATABASE_URL is unset. Otherwise it holds the database
// lock and returns a pool, both released when t finishes.
func Connect(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	release := Acquire()
	t.Cleanup(release)

	pool, err := db.Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}
