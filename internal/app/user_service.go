package app

import (
	"context"

	"meters/internal/domain"
)

// UserService covers account administration.
type UserService struct {
	users domain.UserRepository
	audit *Auditor
}

// NewUserService creates a UserService.
func NewUserService(users domain.UserRepository, audit *Auditor) *UserService {
	return &UserService{users: users, audit: audit}
}

// AssignAdmin grants the ADMIN role to username.
func (s *UserService) AssignAdmin(ctx context.Context, username string) error {
	spec := AuditSpec{Operation: "AssignAdmin", Action: "admin role assigned to " + username}
	return AuditedErr(ctx, s.audit, spec, func(ctx context.Context) error {
		u, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return storeFault("load user", err)
		}
		if u == nil {
			return domain.ErrUserNotFound
		}
		if u.Role == domain.RoleAdmin {
			return nil
		}
		if err := s.users.UpdateRole(ctx, username, domain.RoleAdmin); err != nil {
			return storeFault("update role", err)
		}
		return nil
	})
}

// List returns all registered users.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeFault("list users", err)
	}
	return users, nil
}
