package web

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/servicebook/internal/session"
)

type sessionKey struct{}

// Session loads the token cookie into a session.Store for the request and writes every change
// back as a cookie. Clearing the store expires the cookie.
func (h *Handler) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(h.cookie.Name); err == nil {
			token = c.Value
		}

		store := session.NewStore(token)
		unsubscribe := store.Subscribe(func(token string) {
			http.SetCookie(w, h.tokenCookie(token))
		})
		defer unsubscribe()

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, store)))
	})
}

func (h *Handler) tokenCookie(token string) *http.Cookie {
	c := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	}
	return c
}

// sessionFrom never returns nil; outside the middleware it hands out an empty store.
func sessionFrom(ctx context.Context) *session.Store {
	if s, ok := ctx.Value(sessionKey{}).(*session.Store); ok {
		return s
	}
	return session.NewStore("")
}
