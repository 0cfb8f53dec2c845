package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gigtrack/internal/auth"
	"gigtrack/internal/log"
)

// authenticate resolves the caller and stores the identity in the context.
// Every /api route requires one.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.resolver.Resolve(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := auth.WithIdentity(r.Context(), id)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, id.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		if err := s.policy.RequireAdmin(id); err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// scope returns the caller and the user whose data the request reads. For
// /api/reports that is always the caller; admin routes name the target.
func (s *Server) scope(r *http.Request) (auth.Identity, string, error) {
	id, _ := auth.FromContext(r.Context())
	target := id.UserID
	if p := chi.URLParam(r, "userID"); p != "" {
		target = p
	}
	if err := s.policy.Authorize(id, target); err != nil {
		return id, "", err
	}
	return id, target, nil
}
