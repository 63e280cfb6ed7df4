package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"meters/internal/domain"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	Kind domain.TokenKind `json:"typ"`
}

// TokenService issues and verifies HS256 access and refresh tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	users      domain.UserRepository
	now        func() time.Time
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration, users domain.UserRepository) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		users:      users,
		now:        time.Now,
	}
}

// IssueAccessToken returns a short-lived token for subject.
func (s *TokenService) IssueAccessToken(subject string) (string, error) {
	return s.issue(subject, domain.TokenAccess, s.accessTTL)
}

// IssueRefreshToken returns a long-lived token for subject.
func (s *TokenService) IssueRefreshToken(subject string) (string, error) {
	return s.issue(subject, domain.TokenRefresh, s.refreshTTL)
}

// IssuePair returns a fresh access and refresh token for subject.
func (s *TokenService) IssuePair(subject string) (domain.JwtPair, error) {
	access, err := s.IssueAccessToken(subject)
	if err != nil {
		return domain.JwtPair{}, err
	}
	refresh, err := s.IssueRefreshToken(subject)
	if err != nil {
		return domain.JwtPair{}, err
	}
	return domain.JwtPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) issue(subject string, kind domain.TokenKind, ttl time.Duration) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt(now, ttl)),
		},
		Kind: kind,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: sign token: %w", domain.ErrInternal, err)
	}
	return signed, nil
}

// expiresAt rounds now+ttl up to the whole second a NumericDate can carry,
// so a token never lives shorter than ttl.
func expiresAt(now time.Time, ttl time.Duration) time.Time {
	exp := now.Add(ttl)
	if whole := exp.Truncate(time.Second); whole.Before(exp) {
		return whole.Add(time.Second)
	}
	return exp
}

// Verify checks signature, algorithm and expiry. It never returns an error;
// failures are reported through Valid and Reason.
func (s *TokenService) Verify(token string) domain.TokenVerification {
	claims := &tokenClaims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return domain.TokenVerification{Reason: verifyReason(err)}
	}
	if claims.Subject == "" {
		return domain.TokenVerification{Reason: "token has no subject"}
	}
	return domain.TokenVerification{Subject: claims.Subject, Kind: claims.Kind, Valid: true}
}

func verifyReason(err error) string {
	switch {
	case err == nil:
		return "invalid token"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed token"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "invalid signature"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "unexpected signing method"
	default:
		return "invalid token"
	}
}

// Authenticate resolves an access token to a known user.
// An unverifiable token yields an unauthenticated result with a nil error.
// A valid token for an unknown user yields ErrAccessDenied.
func (s *TokenService) Authenticate(ctx context.Context, token string) (domain.AuthenticationResult, error) {
	v := s.Verify(token)
	if !v.Valid {
		return domain.AuthenticationResult{Reason: "access denied: " + v.Reason}, nil
	}
	if v.Kind != domain.TokenAccess {
		return domain.AuthenticationResult{Reason: "access denied: not an access token"}, nil
	}
	u, err := s.users.GetByUsername(ctx, v.Subject)
	if err != nil {
		return domain.AuthenticationResult{}, storeFault("load user", err)
	}
	if u == nil {
		return domain.AuthenticationResult{}, domain.ErrAccessDenied
	}
	return domain.AuthenticationResult{Username: u.Username, Role: u.Role, Authenticated: true}, nil
}
