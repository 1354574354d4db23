package cleanup

import (
	"context"
	"time"

	authrepo "github.com/applyflow/auth-service/internal/auth/repository"
	"github.com/applyflow/auth-service/internal/common/constants"
	"github.com/applyflow/auth-service/internal/common/logger"
	"github.com/applyflow/auth-service/internal/observability/metrics"
)

// StartRefreshTokenCleanup periodically sweeps expired refresh token rows.
// The store never honors an expired record either way; the sweep only keeps
// the table from growing without bound.
func StartRefreshTokenCleanup(ctx context.Context, repo authrepo.RefreshTokenRepository, log *logger.Logger) {
	ticker := time.NewTicker(constants.TokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.DeleteExpired(ctx)
			if err != nil {
				log.Errorf("refresh token cleanup failed: %v", err)
				continue
			}
			if deleted > 0 {
				metrics.RefreshTokensCleanupDeleted.Add(float64(deleted))
				log.Infof("refresh token cleanup: deleted %d expired tokens", deleted)
			}
		}
	}
}
