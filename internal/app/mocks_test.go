package app_test

import (
	"context"
	"errors"
	"sync"

	"meters/internal/domain"
)

type mockUserRepo struct {
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	createFn        func(ctx context.Context, u domain.User) (*domain.User, error)
	updateRoleFn    func(ctx context.Context, username string, role domain.Role) error
	listFn          func(ctx context.Context) ([]domain.User, error)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	u.ID = 1
	return &u, nil
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, username string, role domain.Role) error {
	if m.updateRoleFn != nil {
		return m.updateRoleFn(ctx, username, role)
	}
	return nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// recordingAuditRepo keeps saved entries so tests can count them.
type recordingAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	saveErr error
}

func (r *recordingAuditRepo) Save(_ context.Context, e domain.AuditEntry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return 0, r.saveErr
	}
	r.entries = append(r.entries, e)
	return int64(len(r.entries)), nil
}

func (r *recordingAuditRepo) FindAll(_ context.Context) ([]domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditEntry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}

func (r *recordingAuditRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

type mockReadingRepo struct {
	saveFn     func(ctx context.Context, r domain.Reading) (int64, error)
	byUserFn   func(ctx context.Context, username string) ([]domain.Reading, error)
	byPeriodFn func(ctx context.Context, username string, month, year int) (*domain.Reading, error)
	findAllFn  func(ctx context.Context) ([]domain.Reading, error)
	saveCalls  int
}

func (m *mockReadingRepo) Save(ctx context.Context, r domain.Reading) (int64, error) {
	m.saveCalls++
	if m.saveFn != nil {
		return m.saveFn(ctx, r)
	}
	return int64(m.saveCalls), nil
}

func (m *mockReadingRepo) FindByUsername(ctx context.Context, username string) ([]domain.Reading, error) {
	if m.byUserFn != nil {
		return m.byUserFn(ctx, username)
	}
	return nil, nil
}

func (m *mockReadingRepo) FindByUsernameMonthYear(ctx context.Context, username string, month, year int) (*domain.Reading, error) {
	if m.byPeriodFn != nil {
		return m.byPeriodFn(ctx, username, month, year)
	}
	return nil, nil
}

func (m *mockReadingRepo) FindAll(ctx context.Context) ([]domain.Reading, error) {
	if m.findAllFn != nil {
		return m.findAllFn(ctx)
	}
	return nil, nil
}

type mockColumnStore struct {
	addFn  func(ctx context.Context, name string) error
	dropFn func(ctx context.Context, name string) error
	listFn func(ctx context.Context) ([]string, error)
}

func (m *mockColumnStore) AddColumn(ctx context.Context, name string) error {
	if m.addFn != nil {
		return m.addFn(ctx, name)
	}
	return nil
}

func (m *mockColumnStore) DropColumn(ctx context.Context, name string) error {
	if m.dropFn != nil {
		return m.dropFn(ctx, name)
	}
	return nil
}

func (m *mockColumnStore) ListColumns(ctx context.Context) ([]string, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type staticTypes []string

func (s staticTypes) List() []string { return s }

func isKind(err, kind error) bool { return errors.Is(err, kind) }
