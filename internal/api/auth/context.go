package auth

import "context"

type contextKey string

const identityKey contextKey = "auth_identity"

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// RequireRole checks that the context carries an authenticated identity
// with the given role. Admins pass every role check.
func RequireRole(ctx context.Context, role string) error {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if identity.Role == RoleAdmin || identity.Role == role {
		return nil
	}
	return ErrForbidden
}
