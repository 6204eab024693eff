// internal/api/middleware.go
package api

import (
	"net/http"
	"strings"

	"bankcards/internal/api/handler"
	"bankcards/internal/domain"
)

// CallerResolver turns a bearer token into the caller it identifies.
// *auth.TokenManager implements it.
type CallerResolver interface {
	Resolve(token string) (domain.Caller, error)
}

// RequireCaller rejects requests without a valid bearer token and stores
// the resolved caller in the request context.
func RequireCaller(resolver CallerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			caller, err := resolver.Resolve(token)
			if err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(handler.WithCaller(r.Context(), caller)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Authentication required"}`))
}
