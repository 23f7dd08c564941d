package auth

import (
	"context"
	"net/http"
)

// contextKey is unexported so no other package can read or overwrite the
// session email stored in a request context.
type contextKey string

const emailKey contextKey = "email"

// CookieName is the HttpOnly cookie carrying the session token.
const CookieName = "token"

// RequireAuth rejects requests without a valid session cookie with 401 and
// stores the session email in the context otherwise.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := extractEmail(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
		})
	}
}

// OptionalAuth stores the session email when a valid cookie is present and
// lets anonymous requests through untouched.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if email, err := extractEmail(r, tokens); err == nil && email != "" {
				r = r.WithContext(WithEmail(r.Context(), email))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithEmail returns a copy of ctx carrying the session email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey, email)
}

// EmailFromContext returns ("", false) for anonymous requests.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok && email != ""
}

func extractEmail(r *http.Request, tokens *TokenService) (string, error) {
	if tokens == nil {
		return "", http.ErrNoCookie
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
