package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"petshop-backend/internal/auth"
	"petshop-backend/internal/transport"
)

const (
	AccessCookie  = "petshop_access"
	RefreshCookie = "petshop_refresh"
	AdminKeyUser  = "admin-api-key"
)

// Authenticate attaches the caller's Session to the request context when a valid
// access token is presented (Bearer header first, then cookie). Anonymous requests pass through.
func Authenticate(manager *auth.Manager, adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey != "" {
				if key := r.Header.Get("X-Admin-Key"); key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) == 1 {
					ctx := auth.WithSession(r.Context(), auth.Session{UserID: AdminKeyUser, Role: auth.RoleAdmin})
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			if manager != nil {
				if token := accessToken(r); token != "" {
					if claims, err := manager.ParseKind(token, auth.TokenAccess); err == nil {
						ctx := auth.WithSession(r.Context(), claims.Session())
						next.ServeHTTP(w, r.WithContext(ctx))
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.SessionFromContext(r.Context()); !ok {
			transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin is the only admin gate: role == "admin".
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := auth.SessionFromContext(r.Context())
		if !ok {
			transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		if !s.IsAdmin() {
			transport.WriteError(w, http.StatusForbidden, "forbidden", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func accessToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(AccessCookie); err == nil {
		return cookie.Value
	}
	return ""
}
