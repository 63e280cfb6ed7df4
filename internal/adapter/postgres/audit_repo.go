package postgres

import (
	"context"

	"meters/internal/domain"
)

// AuditRepo persists the audit trail.
type AuditRepo struct {
	db *DB
}

// NewAuditRepo creates an audit repository on d.
func NewAuditRepo(d *DB) *AuditRepo {
	return &AuditRepo{db: d}
}

var _ domain.AuditRepository = (*AuditRepo)(nil)

// Save appends an audit entry.
func (r *AuditRepo) Save(ctx context.Context, e domain.AuditEntry) (int64, error) {
	var id int64
	err := r.db.sql.QueryRowContext(ctx,
		"INSERT INTO audit_entries (username, recorded_at, action) VALUES ($1, $2, $3) RETURNING id",
		e.Username, e.Timestamp.UTC(), e.Action,
	).Scan(&id)
	return id, err
}

// FindAll returns all entries, newest first.
func (r *AuditRepo) FindAll(ctx context.Context) ([]domain.AuditEntry, error) {
	rows, err := r.db.sql.QueryContext(ctx,
		"SELECT id, username, recorded_at, action FROM audit_entries ORDER BY recorded_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Timestamp, &e.Action); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
