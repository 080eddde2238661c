package middleware

import (
	"context"
	"net/http"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/session"
)

type stateContextKey struct{}

// Session resolves the viewer's session from its cookie, creating one when the
// cookie is missing or stale, and stores it in the request context.
func Session(store *session.Store, cfg config.SessionConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				id = c.Value
			}

			state, created := store.GetOrCreate(id)
			if created {
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    state.ID(),
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := observability.WithSessionID(r.Context(), state.ID())
			ctx = context.WithValue(ctx, stateContextKey{}, state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StateFrom returns the session attached by Session.
func StateFrom(ctx context.Context) (*session.State, bool) {
	s, ok := ctx.Value(stateContextKey{}).(*session.State)
	return s, ok
}
