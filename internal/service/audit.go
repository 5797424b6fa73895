package service

import (
	"context"
	"sync"
	"time"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
	"github.com/ayo6706/wallet-ledger/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultAuditCapacity = 1000

// AuditService keeps a bounded, append-only trail of security events.
// The oldest event is evicted once capacity is reached.
type AuditService struct {
	mu       sync.Mutex
	events   []models.AuditEvent
	capacity int
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuditService(capacity int, logger *zap.Logger) *AuditService {
	if capacity <= 0 {
		capacity = defaultAuditCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		capacity: capacity,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Record stores event, filling in its id and time.
func (s *AuditService) Record(_ context.Context, event models.AuditEvent) models.AuditEvent {
	event.ID = uuid.NewString()
	event.CreatedAt = s.now()

	s.mu.Lock()
	if len(s.events) == s.capacity {
		copy(s.events, s.events[1:])
		s.events = s.events[:len(s.events)-1]
	}
	s.events = append(s.events, event)
	s.mu.Unlock()

	observability.IncrementSecurityEvent(event.Kind)
	s.logger.Warn("SECURITY: audit event recorded",
		zap.String("audit_id", event.ID),
		zap.String("kind", event.Kind),
		zap.String("actor_id", event.ActorID),
		zap.String("wallet_id", event.WalletID),
		zap.String("claimed_user_id", event.ClaimedUserID),
		zap.String("actual_owner_id", event.ActualOwnerID),
	)
	return event
}

// RecordOwnershipMismatch escalates a failed ownership check.
func (s *AuditService) RecordOwnershipMismatch(ctx context.Context, actorID string, oerr *models.OwnershipError) models.AuditEvent {
	return s.Record(ctx, models.AuditEvent{
		Kind:          domain.AuditKindOwnershipMismatch,
		ActorID:       actorID,
		WalletID:      oerr.WalletID,
		ClaimedUserID: oerr.ClaimedUserID,
		ActualOwnerID: oerr.ActualOwnerID,
		Detail:        oerr.Error(),
	})
}

// Events returns a copy of the trail, oldest first.
func (s *AuditService) Events() []models.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}
