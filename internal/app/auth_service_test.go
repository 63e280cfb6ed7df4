package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meters/internal/adapter/memory"
	"meters/internal/app"
	"meters/internal/domain"
)

type authFixture struct {
	db     *memory.DB
	audits *memory.AuditRepo
	tokens *app.TokenService
	svc    *app.AuthService
}

func newAuthFixture() *authFixture {
	db := memory.New()
	audits := memory.NewAuditRepo()
	tokens := app.NewTokenService("test-secret", time.Minute, time.Hour, db)
	auditor := app.NewAuditor(audits, zap.NewNop())
	return &authFixture{
		db:     db,
		audits: audits,
		tokens: tokens,
		svc:    app.NewAuthService(db, tokens, auditor, zap.NewNop()),
	}
}

func (f *authFixture) auditCount(t *testing.T) int {
	t.Helper()
	entries, err := f.audits.FindAll(context.Background())
	require.NoError(t, err)
	return len(entries)
}

func TestRegister_DuplicateScenario(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	u, err := f.svc.Register(ctx, "bob", "pw1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.NotEmpty(t, u.Salt)
	assert.NotEqual(t, "pw1", u.PasswordHash)
	assert.Equal(t, 1, f.auditCount(t))

	_, err = f.svc.Register(ctx, "bob", "pw2")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, f.auditCount(t), "failed registration must not be audited")

	users, err := f.db.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRegister_AuditActor(t *testing.T) {
	f := newAuthFixture()
	_, err := f.svc.Register(context.Background(), "alice", "pw")
	require.NoError(t, err)

	entries, _ := f.audits.FindAll(context.Background())
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, "user registered", entries[0].Action)
}

func TestRegister_SaltsDiffer(t *testing.T) {
	f := newAuthFixture()
	a, err := f.svc.Register(context.Background(), "a", "same")
	require.NoError(t, err)
	b, err := f.svc.Register(context.Background(), "b", "same")
	require.NoError(t, err)
	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}

func TestRegister_EmptyCredentials(t *testing.T) {
	f := newAuthFixture()
	_, err := f.svc.Register(context.Background(), " ", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegister_StoreFault(t *testing.T) {
	users := &mockUserRepo{
		createFn: func(context.Context, domain.User) (*domain.User, error) { return nil, errors.New("db down") },
	}
	audits := &recordingAuditRepo{}
	svc := app.NewAuthService(users, newTokens(users), app.NewAuditor(audits, zap.NewNop()), zap.NewNop())

	_, err := svc.Register(context.Background(), "bob", "pw")
	assert.ErrorIs(t, err, domain.ErrInternal)
	assert.Zero(t, audits.count())
}

func TestLogin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	_, err := f.svc.Register(ctx, "bob", "pw1")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		pair, err := f.svc.Login(ctx, "bob", "pw1")
		require.NoError(t, err)
		assert.True(t, f.tokens.Verify(pair.AccessToken).Valid)
		assert.Equal(t, domain.TokenRefresh, f.tokens.Verify(pair.RefreshToken).Kind)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "nobody", "pw1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "bob", "wrong")
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		assert.ErrorIs(t, err, domain.ErrIncorrectPassword)
	})

	entries, _ := f.audits.FindAll(ctx)
	var authorized int
	for _, e := range entries {
		if e.Action == "user authorized" {
			authorized++
			assert.Equal(t, "bob", e.Username)
		}
	}
	assert.Equal(t, 1, authorized)
}

func TestRefresh(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	_, err := f.svc.Register(ctx, "bob", "pw")
	require.NoError(t, err)
	pair, err := f.svc.Login(ctx, "bob", "pw")
	require.NoError(t, err)

	next, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "bob", f.tokens.Verify(next.AccessToken).Subject)

	_, err = f.svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated, "access token must not refresh")

	_, err = f.svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestEnsureAdmin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.EnsureAdmin(ctx, "root", "toor"))
	require.NoError(t, f.svc.EnsureAdmin(ctx, "root", "other"))

	u, err := f.db.GetByUsername(ctx, "root")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	_, err = f.svc.Login(ctx, "root", "toor")
	assert.NoError(t, err)
}
