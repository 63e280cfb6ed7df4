package domain

import (
	"context"
	"time"
)

// AuditEntry records one successful action.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
}

// AuditRepository is the port for the append-only audit trail.
// FindAll returns entries newest first.
type AuditRepository interface {
	Save(ctx context.Context, e AuditEntry) (int64, error)
	FindAll(ctx context.Context) ([]AuditEntry, error)
}
