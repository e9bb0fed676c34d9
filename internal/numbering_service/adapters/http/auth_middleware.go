package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// PermissionWrite is required to create, edit or resync ranges.
const PermissionWrite = "numbering:write"

type contextKey string

const principalContextKey = contextKey("principal")

// Principal is the operator identified by the bearer token.
type Principal struct {
	Subject     string
	Permissions []string
}

func (p Principal) Has(permission string) bool {
	return slices.Contains(p.Permissions, permission)
}

// PrincipalFrom returns the principal stored by JWTAuthMiddleware.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(Principal)
	return p, ok
}

// JWTAuthMiddleware accepts HS256 bearer tokens signed with secret. The token must carry
// "sub"; "permissions" is an optional list of strings.
func JWTAuthMiddleware(secret string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, tokenString, found := strings.Cut(r.Header.Get("Authorization"), " ")
			if !found || scheme != "Bearer" || tokenString == "" {
				logger.WarnContext(r.Context(), "Missing or malformed Authorization header")
				writeError(w, http.StatusUnauthorized, "unauthenticated", "Bearer token required")
				return
			}

			principal, err := parseToken(tokenString, secret)
			if err != nil {
				logger.WarnContext(r.Context(), "Token validation failed", "error", err)
				writeError(w, http.StatusUnauthorized, "unauthenticated", "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseToken(tokenString, secret string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Principal{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errors.New("unexpected claims type")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Principal{}, errors.New("token has no subject")
	}

	p := Principal{Subject: sub}
	if raw, ok := claims["permissions"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				p.Permissions = append(p.Permissions, s)
			}
		}
	}
	return p, nil
}

// RequirePermission rejects principals lacking permission. JWTAuthMiddleware must run first.
func RequirePermission(permission string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFrom(r.Context())
			if !ok {
				logger.ErrorContext(r.Context(), "Principal not found in context")
				writeError(w, http.StatusUnauthorized, "unauthenticated", "Bearer token required")
				return
			}
			if !principal.Has(permission) {
				logger.WarnContext(r.Context(), "Permission denied",
					"subject", principal.Subject,
					"required_permission", permission)
				writeError(w, http.StatusForbidden, "forbidden", "Missing permission "+permission)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
