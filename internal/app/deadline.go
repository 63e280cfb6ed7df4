package app

import (
	"context"
	"time"

	"meters/internal/domain"
)

// BoundUsers returns a UserRepository whose calls each carry a deadline of d.
func BoundUsers(next domain.UserRepository, d time.Duration) domain.UserRepository {
	return boundUsers{next: next, d: d}
}

// BoundReadings returns a ReadingRepository whose calls each carry a deadline of d.
func BoundReadings(next domain.ReadingRepository, d time.Duration) domain.ReadingRepository {
	return boundReadings{next: next, d: d}
}

// BoundAudits returns an AuditRepository whose calls each carry a deadline of d.
func BoundAudits(next domain.AuditRepository, d time.Duration) domain.AuditRepository {
	return boundAudits{next: next, d: d}
}

type boundUsers struct {
	next domain.UserRepository
	d    time.Duration
}

func (b boundUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.GetByUsername(ctx, username)
}

func (b boundUsers) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.Create(ctx, u)
}

func (b boundUsers) UpdateRole(ctx context.Context, username string, role domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.UpdateRole(ctx, username, role)
}

func (b boundUsers) List(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.List(ctx)
}

type boundReadings struct {
	next domain.ReadingRepository
	d    time.Duration
}

func (b boundReadings) Save(ctx context.Context, r domain.Reading) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.Save(ctx, r)
}

func (b boundReadings) FindByUsername(ctx context.Context, username string) ([]domain.Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.FindByUsername(ctx, username)
}

func (b boundReadings) FindByUsernameMonthYear(ctx context.Context, username string, month, year int) (*domain.Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.FindByUsernameMonthYear(ctx, username, month, year)
}

func (b boundReadings) FindAll(ctx context.Context) ([]domain.Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.FindAll(ctx)
}

type boundAudits struct {
	next domain.AuditRepository
	d    time.Duration
}

func (b boundAudits) Save(ctx context.Context, e domain.AuditEntry) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.Save(ctx, e)
}

func (b boundAudits) FindAll(ctx context.Context) ([]domain.AuditEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, b.d)
	defer cancel()
	return b.next.FindAll(ctx)
}
