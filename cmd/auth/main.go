package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authcleanup "github.com/applyflow/auth-service/internal/auth/cleanup"
	authhttp "github.com/applyflow/auth-service/internal/auth/http"
	authrepo "github.com/applyflow/auth-service/internal/auth/repository"
	"github.com/applyflow/auth-service/internal/auth/service"
	"github.com/applyflow/auth-service/internal/auth/token"
	"github.com/applyflow/auth-service/internal/common/clock"
	"github.com/applyflow/auth-service/internal/common/config"
	commoncrypto "github.com/applyflow/auth-service/internal/common/crypto"
	"github.com/applyflow/auth-service/internal/common/db"
	commonhttp "github.com/applyflow/auth-service/internal/common/http"
	"github.com/applyflow/auth-service/internal/common/logger"
	srv "github.com/applyflow/auth-service/internal/common/server"
	userrepo "github.com/applyflow/auth-service/internal/user/repository"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_DIR"), "auth", os.Getenv("LOG_LEVEL"))
	if err != nil {
		os.Stderr.WriteString(fmt.Sprintf("failed to initialize logger: %v\n", err))
		os.Exit(1)
	}

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	privateKey, err := token.LoadPrivateKey(cfg.JWTPrivateKeyFile)
	if err != nil {
		log.Fatalf("failed to load signing key: %v", err)
	}

	publicKey, err := token.LoadPublicKey(cfg.JWTPublicKeyFile)
	if err != nil {
		log.Fatalf("failed to load verification key: %v", err)
	}

	gateKey, err := token.LoadPublicKey(cfg.GatePublicKeyFile)
	if err != nil {
		log.Fatalf("failed to load gate key: %v", err)
	}

	pool := db.NewPool(log, cfg.DatabaseURL)
	defer pool.Close()

	clk := clock.NewRealClock()
	signer := token.NewSigner(privateKey, publicKey, clk)

	userRepo := userrepo.NewPgRepository(pool)
	refreshTokenRepo := authrepo.NewPgRefreshTokenRepository(pool)
	hasher := &commoncrypto.BcryptHasher{}
	idGenerator := commoncrypto.NewUUIDGenerator()

	tokenService := service.NewTokenService(
		signer,
		refreshTokenRepo,
		idGenerator,
		clk,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		log,
	)
	authService := service.NewAuthService(
		userRepo,
		refreshTokenRepo,
		tokenService,
		hasher,
		publicKey,
		clk,
		log,
	)
	publicTokenService := service.NewPublicTokenService(signer, cfg.PublicTokenTTL, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go authcleanup.StartRefreshTokenCleanup(ctx, refreshTokenRepo, log)

	handler := authhttp.NewHandler(authService, publicTokenService, gateKey, publicKey, cfg, log)

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.Handler())

	rateLimiter := commonhttp.NewStrictRateLimiter()
	baseHandler := commonhttp.BuildBaseHandler(log, mux)

	rateLimitMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "/health" || path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			rateLimiter.MiddlewareForPath(path)(next).ServeHTTP(w, r)
		})
	}

	finalHandler := rateLimitMiddleware(baseHandler)

	serverConfig := srv.DefaultServerConfig(cfg.HTTPPort)
	server := srv.NewServer(serverConfig, finalHandler)

	shutdownHooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("auth service: stopping cleanup goroutine")
			cancel()
			return nil
		},
	}

	srv.StartWithGracefulShutdownAndHooks(server, log, "auth", shutdownHooks)
}
