package http

import (
	"net/http"

	"github.com/applyflow/auth-service/internal/common/constants"
	"github.com/applyflow/auth-service/internal/common/httpmetrics"
	"github.com/applyflow/auth-service/internal/common/logger"
)

// BuildBaseHandler wires the cross-cutting middleware chain around a handler:
// security headers, recovery, trace ids, request size limits and metrics.
func BuildBaseHandler(log *logger.Logger, handler http.Handler) http.Handler {
	metrics := httpmetrics.New()
	recovery := RecoveryMiddleware(log)
	traceID := TraceIDMiddleware
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)
	securityHeaders := SecurityHeadersMiddleware

	return securityHeaders(recovery(traceID(maxRequestSize(metrics.Wrap(handler)))))
}
