// Package app holds the application services and business logic.
package app

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"meters/internal/domain"
)

// AuthService handles registration, login and token refresh.
type AuthService struct {
	users  domain.UserRepository
	tokens *TokenService
	audit  *Auditor
	log    *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, tokens *TokenService, audit *Auditor, log *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		audit:  audit,
		log:    log.Named("auth"),
	}
}

// Register creates a USER account.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if err := checkCredentials(username, password); err != nil {
		return nil, err
	}
	spec := AuditSpec{Operation: "Register", Action: "user registered", Subject: Credentials{Username: username}}
	return Audited(ctx, s.audit, spec, func(ctx context.Context) (*domain.User, error) {
		return s.create(ctx, username, password, domain.RoleUser)
	})
}

func (s *AuthService) create(ctx context.Context, username, password string, role domain.Role) (*domain.User, error) {
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, storeFault("load user", err)
	}
	if existing != nil {
		return nil, domain.ErrUserExists
	}

	salt, err := newSalt()
	if err != nil {
		return nil, storeFault("register", err)
	}
	hash, err := hashPassword(password, salt)
	if err != nil {
		return nil, storeFault("register", err)
	}

	u, err := s.users.Create(ctx, domain.User{
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, storeFault("create user", err)
	}
	s.log.Info("user registered", zap.String("username", u.Username), zap.String("role", string(u.Role)))
	return u, nil
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.JwtPair, error) {
	username = strings.TrimSpace(username)
	if err := checkCredentials(username, password); err != nil {
		return domain.JwtPair{}, err
	}
	spec := AuditSpec{Operation: "Login", Action: "user authorized", Subject: Credentials{Username: username}}
	return Audited(ctx, s.audit, spec, func(ctx context.Context) (domain.JwtPair, error) {
		u, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return domain.JwtPair{}, storeFault("load user", err)
		}
		if u == nil {
			return domain.JwtPair{}, domain.ErrUserNotFound
		}
		if !passwordMatches(password, u.Salt, u.PasswordHash) {
			return domain.JwtPair{}, domain.ErrIncorrectPassword
		}
		return s.tokens.IssuePair(u.Username)
	})
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.JwtPair, error) {
	v := s.tokens.Verify(refreshToken)
	if !v.Valid {
		return domain.JwtPair{}, domain.KindError(domain.ErrUnauthenticated, "invalid refresh token: "+v.Reason)
	}
	if v.Kind != domain.TokenRefresh {
		return domain.JwtPair{}, domain.KindError(domain.ErrUnauthenticated, "invalid refresh token: not a refresh token")
	}
	u, err := s.users.GetByUsername(ctx, v.Subject)
	if err != nil {
		return domain.JwtPair{}, storeFault("load user", err)
	}
	if u == nil {
		return domain.JwtPair{}, domain.ErrAccessDenied
	}
	return s.tokens.IssuePair(u.Username)
}

// EnsureAdmin creates an ADMIN account named username unless one with that
// name already exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if err := checkCredentials(username, password); err != nil {
		return err
	}
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return storeFault("load user", err)
	}
	if existing != nil {
		return nil
	}
	_, err = s.create(ctx, username, password, domain.RoleAdmin)
	return err
}

func checkCredentials(username, password string) error {
	var violations []string
	if username == "" {
		violations = append(violations, "username must not be empty")
	}
	if password == "" {
		violations = append(violations, "password must not be empty")
	}
	if len(violations) > 0 {
		return &domain.ValidationError{Violations: violations}
	}
	return nil
}
