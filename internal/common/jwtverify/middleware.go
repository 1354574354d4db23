package jwtverify

import (
	"context"
	"crypto/rsa"
	"errors"
	"net/http"
	"strings"

	commonerrors "github.com/applyflow/auth-service/internal/common/errors"
	commonhttp "github.com/applyflow/auth-service/internal/common/http"
	"github.com/applyflow/auth-service/internal/common/logger"
)

type contextKey string

const claimsKey contextKey = "jwt_claims"

// Middleware authenticates requests carrying a private access token. Refresh
// and public tokens are rejected even when cryptographically valid.
func Middleware(key *rsa.PublicKey, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := BearerToken(r)
			if raw == "" {
				log.Warnf("jwt auth failed path=%s: missing or invalid authorization header", r.URL.Path)
				commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingAuthorization, "missing or invalid authorization", nil, "")
				return
			}

			claims, err := ParseToken(raw, key)
			if err != nil {
				if errors.Is(err, commonerrors.ErrInvalidTokenSchema) {
					log.Warnf("jwt auth failed path=%s: malformed claims: %v", r.URL.Path, err)
				} else {
					log.Warnf("jwt auth failed path=%s: %v", r.URL.Path, err)
				}
				commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeInvalidToken, "invalid token", nil, "")
				return
			}

			if claims.Tier != TierPrivate || claims.Kind != KindAccess {
				log.Warnf("jwt auth failed path=%s: token tier=%s kind=%s not usable for access", r.URL.Path, claims.Tier, claims.Kind)
				commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeInvalidToken, "invalid token", nil, "")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func FromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}

func BearerToken(r *http.Request) string {
	raw := r.Header.Get("Authorization")
	if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(raw, "Bearer ")
}
