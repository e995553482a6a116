package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/andreasstove999/retail-backend/internal/auth"
)

// PrincipalResolver turns a bearer token into the calling principal.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (*auth.Principal, error)
}

type ctxKey string

const ctxPrincipal ctxKey = "principal"

// RequireAuth resolves the Authorization header and stores the
// principal in context. Missing or bad tokens end the request with 401.
func RequireAuth(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			p, err := resolver.ResolvePrincipal(r.Context(), token)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxPrincipal, *p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates admin endpoints; it must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok || !p.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func PrincipalFrom(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(ctxPrincipal).(auth.Principal)
	return p, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
