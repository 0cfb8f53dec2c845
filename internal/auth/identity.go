// Package auth resolves request identities and decides what scope they may
// read. The aggregators never see roles; handlers run Policy checks first.
package auth

import (
	"context"

	"gigtrack/internal/core"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID   string
	Role     core.Role
	Currency string // display currency for formatted amounts
}

func (i Identity) IsAdmin() bool {
	return i.Role == core.RoleAdmin
}

type ctxKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.UserID != ""
}
