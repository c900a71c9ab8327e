package auth

import (
	"net/http"
	"strings"

	"github.com/mmiyara/naim-hub-go/internal/api"
	"github.com/mmiyara/naim-hub-go/internal/apperrors"
	"github.com/mmiyara/naim-hub-go/internal/config"
)

var publicRoutes = map[string]struct{}{
	"/v1/auth/pair":    {},
	"/v1/auth/refresh": {},
}

var publicPrefixes = []string{
	"/v1/health",
}

// Middleware validates bearer tokens for protected routes.
func Middleware(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicRoute(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if isTestModeRequest(r, cfg) {
				host := Host{
					Sub:      "test-host",
					HostName: "Test Host",
					Type:     TokenTypeAccess,
				}
				next.ServeHTTP(w, r.WithContext(WithHost(r.Context(), host)))
				return
			}

			token := bearerToken(r)
			if token == "" {
				api.WriteError(w, r, apperrors.NewUnauthorizedError("Missing or malformed Authorization header"))
				return
			}

			payload, err := VerifyToken(cfg, token)
			if err != nil {
				if err == ErrTokenExpired {
					api.WriteError(w, r, apperrors.NewUnauthorizedError("Token has expired", apperrors.ErrorCodeAuthTokenExpired))
					return
				}
				api.WriteError(w, r, apperrors.NewUnauthorizedError("Invalid token", apperrors.ErrorCodeAuthTokenInvalid))
				return
			}
			if payload.Type != TokenTypeAccess {
				api.WriteError(w, r, apperrors.NewUnauthorizedError("Invalid token type", apperrors.ErrorCodeAuthTokenInvalid))
				return
			}

			host := Host{
				Sub:      payload.Sub,
				HostName: payload.HostName,
				Type:     payload.Type,
			}
			next.ServeHTTP(w, r.WithContext(WithHost(r.Context(), host)))
		})
	}
}

// bearerToken extracts the token from the Authorization header, or falls back
// to the access_token query parameter so browser WebSocket clients can
// authenticate.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if header == "" {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func isPublicRoute(path string) bool {
	if _, ok := publicRoutes[path]; ok {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isTestModeRequest(r *http.Request, cfg config.Config) bool {
	if !cfg.AllowTestMode {
		return false
	}
	return r.Header.Get("x-test-mode") == "true"
}
