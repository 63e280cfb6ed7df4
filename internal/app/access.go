package app

import (
	"context"

	"meters/internal/domain"
)

type authKey struct{}

// WithAuthentication stores the request identity in ctx.
func WithAuthentication(ctx context.Context, res domain.AuthenticationResult) context.Context {
	return context.WithValue(ctx, authKey{}, res)
}

// AuthenticationFrom returns the request identity stored by WithAuthentication.
func AuthenticationFrom(ctx context.Context) (domain.AuthenticationResult, bool) {
	res, ok := ctx.Value(authKey{}).(domain.AuthenticationResult)
	return res, ok
}

// AccessPolicy decides what a role may do.
type AccessPolicy interface {
	CanReadOwner(actor, owner string) bool
	IsAdmin() bool
}

type userPolicy struct{}

func (userPolicy) CanReadOwner(actor, owner string) bool { return actor == owner }
func (userPolicy) IsAdmin() bool { return false }

type adminPolicy struct{}

func (adminPolicy) CanReadOwner(string, string) bool { return true }
func (adminPolicy) IsAdmin() bool { return true }

type denyPolicy struct{}

func (denyPolicy) CanReadOwner(string, string) bool { return false }
func (denyPolicy) IsAdmin() bool { return false }

var policies = map[domain.Role]AccessPolicy{
	domain.RoleUser:  userPolicy{},
	domain.RoleAdmin: adminPolicy{},
}

// PolicyFor returns the policy for role. Unknown roles are denied everything.
func PolicyFor(role domain.Role) AccessPolicy {
	if !role.Valid() {
		return denyPolicy{}
	}
	return policies[role]
}

// authorizeOwner checks that actor may read data belonging to owner.
func authorizeOwner(actor domain.AuthenticationResult, owner string) error {
	if !actor.Authenticated {
		return domain.ErrUnauthenticated
	}
	if !PolicyFor(actor.Role).CanReadOwner(actor.Username, owner) {
		return domain.KindError(domain.ErrForbidden, "access to readings of another user is forbidden")
	}
	return nil
}
