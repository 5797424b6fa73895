package sink

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/testutil/pgtest"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memorySink struct {
	mu   sync.Mutex
	got  []string
	fail bool
}

func (m *memorySink) Write(_ context.Context, txn models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("backend unavailable")
	}
	m.got = append(m.got, txn.ID)
	return nil
}

func (m *memorySink) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.got...)
}

func committed(id string) models.Transaction {
	return models.Transaction{
		ID:           id,
		SrcWalletID:  "W1",
		DestWalletID: "W2",
		Amount:       1250,
		Status:       domain.TxStatusCommitted,
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Write(context.Background(), committed("t1")))
}

func TestAsync_ForwardsInOrder(t *testing.T) {
	backend := &memorySink{}
	async := NewAsync(backend, 16, zap.NewNop())
	stop := async.Run(context.Background())

	for i := 0; i < 10; i++ {
		require.NoError(t, async.Write(context.Background(), committed(strconv.Itoa(i))))
	}

	require.Eventually(t, func() bool { return len(backend.ids()) == 10 }, 2*time.Second, 5*time.Millisecond)
	stop()
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}, backend.ids())
}

func TestAsync_QueueFull(t *testing.T) {
	async := NewAsync(&memorySink{}, 1, nil)

	require.NoError(t, async.Write(context.Background(), committed("t1")))
	err := async.Write(context.Background(), committed("t2"))
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, async.Pending())
}

func TestAsync_StopFlushesQueue(t *testing.T) {
	backend := &memorySink{}
	async := NewAsync(backend, 8, nil)
	for i := 0; i < 5; i++ {
		require.NoError(t, async.Write(context.Background(), committed(strconv.Itoa(i))))
	}

	stop := async.Run(context.Background())
	stop()
	stop()

	assert.Len(t, backend.ids(), 5)
	assert.Zero(t, async.Pending())
}

func TestAsync_BackendFailureKeepsRunning(t *testing.T) {
	backend := &memorySink{fail: true}
	async := NewAsync(backend, 4, nil)
	stop := async.Run(context.Background())
	defer stop()

	require.NoError(t, async.Write(context.Background(), committed("t1")))
	require.Eventually(t, func() bool { return async.Pending() == 0 }, time.Second, 5*time.Millisecond)

	backend.mu.Lock()
	backend.fail = false
	backend.mu.Unlock()

	require.NoError(t, async.Write(context.Background(), committed("t2")))
	require.Eventually(t, func() bool { return len(backend.ids()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"t2"}, backend.ids())
}

func TestRedisStream_Write(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStream(client, "").WithMaxLen(1000)
	txn := committed(uuid.NewString())
	require.NoError(t, s.Write(context.Background(), txn))

	entries, err := client.XRange(context.Background(), DefaultStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	values := entries[0].Values
	assert.Equal(t, txn.ID, values["id"])
	assert.Equal(t, "W1", values["src"])
	assert.Equal(t, "W2", values["dest"])
	assert.Equal(t, "1250", values["amount"])
	assert.Equal(t, "12.50", values["display"])
	assert.Equal(t, domain.TxStatusCommitted, values["status"])
	assert.Equal(t, "2026-03-01T12:00:00Z", values["timestamp"])
}

func TestRedisStream_WriteError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	err := NewRedisStream(client, "s").Write(context.Background(), committed("t1"))
	assert.Error(t, err)
}

func TestPostgres_Write(t *testing.T) {
	pool := pgtest.Connect(t)
	ctx := context.Background()

	p := NewPostgres(pool)
	require.NoError(t, p.EnsureSchema(ctx))

	txn := committed(uuid.NewString())
	require.NoError(t, p.Write(ctx, txn))
	require.NoError(t, p.Write(ctx, txn), "replay is ignored")

	var amount int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT amount FROM ledger_transactions WHERE id = $1`, txn.ID).Scan(&amount))
	assert.Equal(t, txn.Amount, amount)
}
