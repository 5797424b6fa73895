package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var base = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func txn(id, src, dest string, at time.Duration) models.Transaction {
	return models.Transaction{
		ID:           id,
		SrcWalletID:  src,
		DestWalletID: dest,
		Amount:       10,
		Status:       domain.TxStatusCommitted,
		Timestamp:    base.Add(at),
	}
}

func ids(txns []models.Transaction) []string {
	out := make([]string, len(txns))
	for i, t := range txns {
		out[i] = t.ID
	}
	return out
}

type recordingSink struct {
	mu   sync.Mutex
	got  []models.Transaction
	fail error
}

func (s *recordingSink) Write(_ context.Context, txn models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, txn)
	return s.fail
}

func TestAppend_IndexesBothWalletsAndGlobal(t *testing.T) {
	l := New(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, txn("t1", "A", "B", 1)))
	require.NoError(t, l.Append(ctx, txn("t2", "B", "C", 2)))

	assert.Equal(t, []string{"t1"}, ids(l.HistoryFor("A", OldestFirst)))
	assert.Equal(t, []string{"t1", "t2"}, ids(l.HistoryFor("B", OldestFirst)))
	assert.Equal(t, []string{"t2"}, ids(l.HistoryFor("C", OldestFirst)))
	assert.Equal(t, []string{"t1", "t2"}, ids(l.All(OldestFirst)))
	assert.Equal(t, 2, l.Len())
	assert.Empty(t, l.HistoryFor("unknown", OldestFirst))
}

func TestAppend_OrdersByTimestampThenID(t *testing.T) {
	l := New(nil)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, txn("t3", "A", "B", 3)))
	require.NoError(t, l.Append(ctx, txn("t1", "A", "B", 1)))
	require.NoError(t, l.Append(ctx, txn("b-tie", "A", "B", 2)))
	require.NoError(t, l.Append(ctx, txn("a-tie", "A", "B", 2)))

	assert.Equal(t, []string{"t1", "a-tie", "b-tie", "t3"}, ids(l.All(OldestFirst)))
	assert.Equal(t, []string{"t3", "b-tie", "a-tie", "t1"}, ids(l.HistoryFor("A", NewestFirst)))
}

func TestAppend_RejectsDuplicates(t *testing.T) {
	l := New(nil)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, txn("t1", "A", "B", 1)))
	err := l.Append(ctx, txn("t1", "A", "B", 5))
	assert.ErrorIs(t, err, ErrDuplicateTransaction)
	assert.Equal(t, 1, l.Len())
}

func TestAppend_RejectsInvalid(t *testing.T) {
	l := New(nil)
	ctx := context.Background()

	pending := txn("p", "A", "B", 1)
	pending.Status = domain.TxStatusPending

	noTime := txn("n", "A", "B", 0)
	noTime.Timestamp = time.Time{}

	zero := txn("z", "A", "B", 1)
	zero.Amount = 0

	for name, bad := range map[string]models.Transaction{
		"pending":   pending,
		"no time":   noTime,
		"zero":      zero,
		"no id":     txn("", "A", "B", 1),
		"no wallet": txn("w", "", "B", 1),
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, l.Append(ctx, bad), ErrInvalidTransaction)
		})
	}
	assert.Zero(t, l.Len())
}

func TestAppend_FailedEntriesAreRecorded(t *testing.T) {
	l := New(nil)
	failed := txn("f1", "A", "B", 1)
	failed.Status = domain.TxStatusFailed
	failed.Reason = "credit failed"

	require.NoError(t, l.Append(context.Background(), failed))
	history := l.HistoryFor("A", OldestFirst)
	require.Len(t, history, 1)
	assert.Equal(t, domain.TxStatusFailed, history[0].Status)
}

func TestNetFor_CountsCommittedEntriesOnly(t *testing.T) {
	l := New(nil)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, txn("t1", "A", "B", 1)))
	require.NoError(t, l.Append(ctx, txn("t2", "B", "C", 2)))
	failed := txn("f1", "A", "C", 3)
	failed.Status = domain.TxStatusFailed
	failed.Reason = "credit failed"
	require.NoError(t, l.Append(ctx, failed))
	assert.ErrorIs(t, l.Append(ctx, txn("t1", "A", "B", 4)), ErrDuplicateTransaction)

	assert.Equal(t, int64(-10), l.NetFor("A"))
	assert.Equal(t, int64(0), l.NetFor("B"))
	assert.Equal(t, int64(10), l.NetFor("C"))
	assert.Zero(t, l.NetFor("unknown"))
	assert.Equal(t, 3, l.Len())
}

func TestHistoryReturnsCopies(t *testing.T) {
	l := New(nil)
	require.NoError(t, l.Append(context.Background(), txn("t1", "A", "B", 1)))

	history := l.HistoryFor("A", OldestFirst)
	history[0].Amount = 999

	assert.Equal(t, int64(10), l.HistoryFor("A", OldestFirst)[0].Amount)
}

func TestAppend_ForwardsToSink(t *testing.T) {
	sink := &recordingSink{}
	l := New(nil).WithSink(sink)

	require.NoError(t, l.Append(context.Background(), txn("t1", "A", "B", 1)))
	require.Len(t, sink.got, 1)
	assert.Equal(t, "t1", sink.got[0].ID)
}

func TestAppend_SinkFailureDoesNotFailAppend(t *testing.T) {
	sink := &recordingSink{fail: errors.New("redis down")}
	l := New(nil).WithSink(sink)

	require.NoError(t, l.Append(context.Background(), txn("t1", "A", "B", 1)))
	assert.Equal(t, 1, l.Len())
}

func TestAppend_Concurrent(t *testing.T) {
	l := New(nil)
	clock := NewClock()
	const workers = 20
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				entry := models.Transaction{
					ID:           fmt.Sprintf("w%d-%d", w, i),
					SrcWalletID:  fmt.Sprintf("W%d", w%4),
					DestWalletID: fmt.Sprintf("W%d", (w+1)%4),
					Amount:       1,
					Status:       domain.TxStatusCommitted,
					Timestamp:    clock.Now(),
				}
				if err := l.Append(context.Background(), entry); err != nil {
					t.Errorf("append: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	all := l.All(OldestFirst)
	require.Len(t, all, workers*perWorker)
	for i := 1; i < len(all); i++ {
		assert.False(t, less(all[i], all[i-1]), "global history out of order at %d", i)
	}

	perWallet := 0
	for w := 0; w < 4; w++ {
		perWallet += len(l.HistoryFor(fmt.Sprintf("W%d", w), OldestFirst))
	}
	assert.Equal(t, 2*workers*perWorker, perWallet)
}

func TestParseOrder(t *testing.T) {
	assert.Equal(t, NewestFirst, ParseOrder("newest"))
	assert.Equal(t, NewestFirst, ParseOrder("desc"))
	assert.Equal(t, OldestFirst, ParseOrder(""))
	assert.Equal(t, OldestFirst, ParseOrder("oldest"))
}
