package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/pkg/enums"
)

type principalKey struct{}

// Principal is the authenticated identity seeded into the request context by
// the auth middleware.
type Principal struct {
	UserID   uuid.UUID
	Role     enums.UserRole
	SellerID *uuid.UUID
	AccessID string
}

// WithPrincipal injects the authenticated principal into the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the authenticated principal, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// ContextAuth resolves the current user from the request context. It backs
// the basket synchronizer's identity checks.
type ContextAuth struct{}

// CurrentUserID returns the authenticated user id from the context.
func (ContextAuth) CurrentUserID(ctx context.Context) (uuid.UUID, bool) {
	p, ok := PrincipalFrom(ctx)
	if !ok || p.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return p.UserID, true
}
