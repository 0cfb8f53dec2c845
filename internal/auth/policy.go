package auth

import (
	"fmt"

	"gigtrack/internal/core"
)

// Policy is the single authorization check applied before any aggregation.
type Policy struct{}

// Authorize allows the owner of targetUserID and admins.
func (Policy) Authorize(id Identity, targetUserID string) error {
	if id.UserID == "" {
		return core.ErrUnauthenticated
	}
	if id.UserID == targetUserID || id.IsAdmin() {
		return nil
	}
	return fmt.Errorf("user %s reading %s: %w", id.UserID, targetUserID, core.ErrForbidden)
}

// RequireAdmin allows admins only.
func (Policy) RequireAdmin(id Identity) error {
	if id.UserID == "" {
		return core.ErrUnauthenticated
	}
	if !id.IsAdmin() {
		return fmt.Errorf("user %s is not an admin: %w", id.UserID, core.ErrForbidden)
	}
	return nil
}
