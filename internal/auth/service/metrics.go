package service

import (
	"github.com/applyflow/auth-service/internal/observability/metrics"
)

func incrementAccessTokensIssued() {
	metrics.AccessTokensIssued.Inc()
}

func incrementRefreshTokensIssued() {
	metrics.RefreshTokensIssued.Inc()
}

func incrementRefreshTokensUsed() {
	metrics.RefreshTokensUsed.Inc()
}

func incrementRefreshTokensRevoked() {
	metrics.RefreshTokensRevoked.Inc()
}

func incrementRefreshTokensExpired() {
	metrics.RefreshTokensExpired.Inc()
}

func incrementPublicTokensIssued() {
	metrics.PublicTokensIssued.Inc()
}

func incrementPublicKeyAttestationsFailed() {
	metrics.PublicKeyAttestationsFailed.Inc()
}
