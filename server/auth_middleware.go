package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-todo-client/auth"
	"github.com/jrsteele09/go-todo-client/routeguard"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the auth.Session of the signed-in user
const ContextKeySession ContextKey = "session"

// SessionFromContext returns the session injected by RequireSession.
func SessionFromContext(ctx context.Context) (auth.Session, bool) {
	session, ok := ctx.Value(ContextKeySession).(auth.Session)
	return session, ok
}

// RequireSession guards protected pages. While the session is still being
// resolved it holds the request (see holdLoading). Without a session it
// replaces the location with the login page.
func (s *Server) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := s.auth.Snapshot()
		switch routeguard.Decide(snapshot.State) {
		case routeguard.OutcomeLoading:
			s.holdLoading(w, r)
			return
		case routeguard.OutcomeRedirectLogin:
			redirectReplace(w, r, RouteLogin)
			return
		}
		if snapshot.Session == nil {
			redirectReplace(w, r, RouteLogin)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeySession, *snapshot.Session)
		next(w, r.WithContext(ctx))
	}
}

// AwaitSession holds public pages until the session is resolved. Only
// early form posts are redirected.
func (s *Server) AwaitSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if routeguard.Decide(s.auth.State()) == routeguard.OutcomeLoading {
			s.holdLoading(w, r)
			return
		}
		next(w, r)
	}
}

// RedirectIfAuthenticated sends signed-in users away from the login page.
func (s *Server) RedirectIfAuthenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.auth.State() == auth.StateAuthenticated {
			redirectReplace(w, r, RouteHome)
			return
		}
		next(w, r)
	}
}
