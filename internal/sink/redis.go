package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/redis/go-redis/v9"
)

const DefaultStream = "ledger:transactions"

// RedisStream appends each transaction to a Redis stream.
type RedisStream struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

func NewRedisStream(client redis.Cmdable, stream string) *RedisStream {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStream{client: client, stream: stream}
}

// WithMaxLen caps the stream length (approximate trimming).
func (r *RedisStream) WithMaxLen(n int64) *RedisStream {
	if n > 0 {
		r.maxLen = n
	}
	return r
}

func (r *RedisStream) Write(ctx context.Context, txn models.Transaction) error {
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"id":        txn.ID,
			"src":       txn.SrcWalletID,
			"dest":      txn.DestWalletID,
			"amount":    txn.Amount,
			"display":   domain.NewMoney(txn.Amount).String(),
			"status":    txn.Status,
			"reason":    txn.Reason,
			"timestamp": txn.Timestamp.Format(time.RFC3339Nano),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", r.stream, err)
	}
	return nil
}
