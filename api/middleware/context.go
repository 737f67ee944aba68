package middleware

import (
	"context"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/auth"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// WithIdentity injects the authenticated actor into the context.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}

// IdentityFromContext returns the actor seeded by Auth.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	if ctx == nil {
		return auth.Identity{}, false
	}
	identity, ok := ctx.Value(ctxIdentity).(auth.Identity)
	return identity, ok
}

func UserIDFromContext(ctx context.Context) string {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return ""
	}
	return identity.UserID.String()
}

func RoleFromContext(ctx context.Context) enums.Role {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return ""
	}
	return identity.Role
}
