package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gigtrack/internal/cache"
	"gigtrack/internal/core"
	"gigtrack/internal/log"
)

// SessionCookie is the cookie name carrying a session token.
const SessionCookie = "session"

// SessionStore looks up sessions and their users.
type SessionStore interface {
	LookupSession(ctx context.Context, token string) (core.Session, error)
	GetUser(ctx context.Context, userID string) (core.User, error)
}

// Resolver maps a bearer token or session cookie to an Identity. Resolved
// identities are cached briefly and never outlive their session.
type Resolver struct {
	store  SessionStore
	cache  *cache.LRUCache[cachedIdentity]
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
}

type cachedIdentity struct {
	id        Identity
	expiresAt time.Time
}

// ResolverConfig tunes the identity cache.
type ResolverConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

func NewResolver(store SessionStore, cfg ResolverConfig, logger *log.Logger) *Resolver {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Resolver{
		store:  store,
		cache:  cache.NewLRUCache[cachedIdentity](cfg.CacheSize, cfg.CacheTTL),
		ttl:    cfg.CacheTTL,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

// Cache exposes the identity cache so a cache.Manager can sweep it.
func (r *Resolver) Cache() cache.Cleaner {
	return r.cache
}

// TokenFromRequest extracts a bearer token, falling back to the session cookie.
func TokenFromRequest(req *http.Request) string {
	if h := req.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := req.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// Resolve returns the identity behind req or core.ErrUnauthenticated.
func (r *Resolver) Resolve(req *http.Request) (Identity, error) {
	return r.ResolveToken(req.Context(), TokenFromRequest(req))
}

// ResolveToken returns the identity for token. Unknown and expired tokens
// yield core.ErrUnauthenticated; store failures are returned wrapped.
func (r *Resolver) ResolveToken(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, core.ErrUnauthenticated
	}
	now := r.now()
	if hit, ok := r.cache.Get(token); ok {
		if now.Before(hit.expiresAt) {
			return hit.id, nil
		}
		r.cache.Delete(token)
	}

	sess, err := r.store.LookupSession(ctx, token)
	if errors.Is(err, core.ErrNotFound) {
		return Identity{}, core.ErrUnauthenticated
	}
	if err != nil {
		return Identity{}, fmt.Errorf("lookup session: %w", err)
	}
	if sess.Expired(now) {
		r.logger.DebugContext(ctx, "Expired session presented", log.FieldUserID, sess.UserID)
		return Identity{}, core.ErrUnauthenticated
	}

	user, err := r.store.GetUser(ctx, sess.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return Identity{}, core.ErrUnauthenticated
	}
	if err != nil {
		return Identity{}, fmt.Errorf("load session user: %w", err)
	}

	id := Identity{UserID: user.ID, Role: user.Role, Currency: user.Currency}
	ttl := r.ttl
	if left := sess.ExpiresAt.Sub(now); left < ttl {
		ttl = left
	}
	r.cache.SetWithTTL(token, cachedIdentity{id: id, expiresAt: sess.ExpiresAt}, ttl)
	return id, nil
}

// Forget drops a cached token, e.g. after logout.
func (r *Resolver) Forget(token string) {
	r.cache.Delete(token)
}
