package domain

const (
	TxStatusPending   = "PENDING"
	TxStatusCommitted = "COMMITTED"
	TxStatusFailed    = "FAILED"

	// Audit event kinds
	AuditKindOwnershipMismatch = "ownership_mismatch"

	// Sink backends and modes
	SinkBackendNone     = "none"
	SinkBackendRedis    = "redis"
	SinkBackendPostgres = "postgres"
	SinkModeAsync       = "async"
	SinkModeSync        = "sync"

	// Directory backends
	DirectoryBackendMemory   = "memory"
	DirectoryBackendPostgres = "postgres"

	RoleAdmin = "admin"
	RoleUser  = "user"
)
