package http

import (
	"crypto/rsa"
	"net/http"

	commonhttp "github.com/applyflow/auth-service/internal/common/http"
	"github.com/applyflow/auth-service/internal/common/jwtverify"
	"github.com/applyflow/auth-service/internal/common/logger"
	"github.com/applyflow/auth-service/internal/observability/metrics"
)

// PublicKeyGate is the outer perimeter in front of the routes that require a
// public token before any credential handling starts. It checks only the
// token's signature and expiry against the gate key; the usual bearer
// authentication still applies behind it where configured.
func PublicKeyGate(gateKey *rsa.PublicKey, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := jwtverify.BearerToken(r)
			if raw == "" {
				log.Warnf("public-key gate rejected path=%s: missing token", r.URL.Path)
				metrics.GateRejectionsTotal.WithLabelValues(r.URL.Path, "missing_token").Inc()
				commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingAuthorization, "token is required", nil, "")
				return
			}

			if err := jwtverify.VerifySignature(raw, gateKey); err != nil {
				log.Warnf("public-key gate rejected path=%s: %v", r.URL.Path, err)
				metrics.GateRejectionsTotal.WithLabelValues(r.URL.Path, "invalid_token").Inc()
				commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeInvalidToken, "public token is invalid or expired", nil, "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
