package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dom/coursemarket/internal/api/response"
	"github.com/dom/coursemarket/internal/config"
	"github.com/dom/coursemarket/internal/domain"
	"github.com/google/uuid"
)

type contextKey string

const (
	PrincipalIDKey contextKey = "principalID"
	NamespaceKey   contextKey = "namespace"
)

// TokenCookie is the cookie that carries the token under cookie transport.
const TokenCookie = "jwt"

type TokenVerifier interface {
	Verify(token string, ns domain.Namespace) (uuid.UUID, error)
}

// Auth admits requests carrying a valid token for ns. The token is read from
// the transport configured for the deployment and nowhere else.
func Auth(tokens TokenVerifier, ns domain.Namespace, transport string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, msg := extractToken(r, transport)
			if msg != "" {
				slog.Debug("rejecting request", "namespace", ns, "reason", msg)
				response.Error(w, http.StatusUnauthorized, msg)
				return
			}

			principalID, err := tokens.Verify(token, ns)
			if err != nil {
				slog.Debug("token verification failed", "namespace", ns, "error", err)
				response.Error(w, http.StatusUnauthorized, "Invalid token or expired")
				return
			}

			setLoggedPrincipal(r.Context(), principalID.String())

			ctx := context.WithValue(r.Context(), PrincipalIDKey, principalID)
			ctx = context.WithValue(ctx, NamespaceKey, ns)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request, transport string) (string, string) {
	if transport == config.TransportCookie {
		cookie, err := r.Cookie(TokenCookie)
		if err != nil || cookie.Value == "" {
			return "", "No token provided"
		}
		return cookie.Value, ""
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "No token provided"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", "Invalid authorization header"
	}
	return strings.TrimSpace(parts[1]), ""
}

func GetPrincipalID(ctx context.Context) (uuid.UUID, bool) {
	principalID, ok := ctx.Value(PrincipalIDKey).(uuid.UUID)
	return principalID, ok
}

func GetNamespace(ctx context.Context) (domain.Namespace, bool) {
	ns, ok := ctx.Value(NamespaceKey).(domain.Namespace)
	return ns, ok
}
