package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"salgados/internal/audit"
	"salgados/internal/models"
)

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.AdminAccount, error)
}

type sessionKey struct{}

// WithSession stores the caller's session in ctx.
func WithSession(ctx context.Context, s models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored by BasicAuthMiddleware, or an empty one.
func SessionFrom(ctx context.Context) models.Session {
	s, _ := ctx.Value(sessionKey{}).(models.Session)
	return s
}

// BasicAuthMiddleware checks HTTP basic credentials against the administrator
// accounts for the listed methods. Other methods pass through, with a session
// attached when valid credentials were sent anyway.
func BasicAuthMiddleware(auth Authenticator, methods ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			var admin *models.AdminAccount
			if ok {
				admin, _ = auth.Authenticate(r.Context(), u, p)
			}
			if admin == nil && methodInList(r.Method, methods) {
				w.Header().Set("WWW-Authenticate", `Basic realm="salgados"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if admin != nil {
				r = r.WithContext(WithSession(r.Context(), models.Session{Admin: admin}))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func LogMiddleware(auditLog audit.Logger, methods ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if methodInList(r.Method, methods) {
				log.Printf("[%s] %s", r.Method, r.URL.Path)
				auditLog.Log(audit.Record{
					Timestamp:  time.Now().UTC(),
					Action:     "http_request",
					Collection: "http",
					RecordID:   r.URL.Path,
					Actor:      SessionFrom(r.Context()).Actor(),
					Message:    r.Method + " " + r.URL.String(),
				})
			}
			next.ServeHTTP(w, r)
		})
	}
}

func methodInList(method string, methods []string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}
