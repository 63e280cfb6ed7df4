// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"meters/internal/domain"
)

// DB implements an in-memory user store.
type DB struct {
	mu            sync.Mutex
	users         []*domain.User
	userIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.ReadingRepository = (*ReadingRepo)(nil)
var _ domain.ColumnStore = (*ReadingRepo)(nil)
var _ domain.AuditRepository = (*AuditRepo)(nil)

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create stores a new user.
func (db *DB) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.users {
		if existing.Username == u.Username {
			return nil, domain.ErrUserExists
		}
	}

	db.userIDCounter++
	u.ID = db.userIDCounter
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	stored := u
	db.users = append(db.users, &stored)
	return &u, nil
}

// UpdateRole changes the role of an existing user.
func (db *DB) UpdateRole(ctx context.Context, username string, role domain.Role) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			u.Role = role
			return nil
		}
	}
	return domain.ErrUserNotFound
}

// List returns all users ordered by ID.
func (db *DB) List(ctx context.Context) ([]domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, *u)
	}
	return out, nil
}

// --- ReadingRepository and ColumnStore ---

// ReadingRepo keeps readings and the set of value columns together so that
// dropping a column also drops its values.
type ReadingRepo struct {
	mu        sync.Mutex
	readings  []domain.Reading
	columns   map[string]struct{}
	idCounter int64
}

// NewReadingRepo creates a reading store with the given value columns.
func NewReadingRepo(columns ...string) *ReadingRepo {
	r := &ReadingRepo{columns: make(map[string]struct{}, len(columns))}
	for _, c := range columns {
		r.columns[c] = struct{}{}
	}
	return r
}

// Save stores a reading. Values must name existing columns.
func (r *ReadingRepo) Save(ctx context.Context, reading domain.Reading) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k := range reading.Values {
		if _, ok := r.columns[k]; !ok {
			return 0, fmt.Errorf("column %q does not exist", k)
		}
	}

	r.idCounter++
	reading.ID = r.idCounter
	reading.Values = maps.Clone(reading.Values)
	if reading.CreatedAt.IsZero() {
		reading.CreatedAt = time.Now().UTC()
	}
	r.readings = append(r.readings, reading)
	return reading.ID, nil
}

// FindByUsername returns a user's readings in insertion order.
func (r *ReadingRepo) FindByUsername(ctx context.Context, username string) ([]domain.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Reading
	for _, rd := range r.readings {
		if rd.Username == username {
			out = append(out, clone(rd))
		}
	}
	return out, nil
}

// FindByUsernameMonthYear returns the reading for one period, or nil.
func (r *ReadingRepo) FindByUsernameMonthYear(ctx context.Context, username string, month, year int) (*domain.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rd := range r.readings {
		if rd.Username == username && rd.Month == month && rd.Year == year {
			cp := clone(rd)
			return &cp, nil
		}
	}
	return nil, nil
}

// FindAll returns every reading in insertion order.
func (r *ReadingRepo) FindAll(ctx context.Context) ([]domain.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Reading, 0, len(r.readings))
	for _, rd := range r.readings {
		out = append(out, clone(rd))
	}
	return out, nil
}

// AddColumn adds a value column.
func (r *ReadingRepo) AddColumn(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.columns[name]; ok {
		return domain.ErrTypeExists
	}
	r.columns[name] = struct{}{}
	return nil
}

// DropColumn removes a value column and its values from every reading.
func (r *ReadingRepo) DropColumn(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.columns[name]; !ok {
		return domain.ErrTypeNotFound
	}
	delete(r.columns, name)
	for i := range r.readings {
		delete(r.readings[i].Values, name)
	}
	return nil
}

// ListColumns returns the value column names, sorted.
func (r *ReadingRepo) ListColumns(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Sorted(maps.Keys(r.columns)), nil
}

func clone(rd domain.Reading) domain.Reading {
	rd.Values = maps.Clone(rd.Values)
	return rd
}

// --- AuditRepository ---

// AuditRepo is an append-only in-memory audit trail.
type AuditRepo struct {
	mu        sync.Mutex
	entries   []domain.AuditEntry
	idCounter int64
}

// NewAuditRepo creates an empty audit trail.
func NewAuditRepo() *AuditRepo {
	return &AuditRepo{}
}

// Save appends an entry.
func (r *AuditRepo) Save(ctx context.Context, e domain.AuditEntry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.idCounter++
	e.ID = r.idCounter
	r.entries = append(r.entries, e)
	return e.ID, nil
}

// FindAll returns all entries, newest first.
func (r *AuditRepo) FindAll(ctx context.Context) ([]domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := slices.Clone(r.entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
