package config

import (
	"fmt"
	"os"
	"time"

	"github.com/applyflow/auth-service/internal/common/constants"
	commonerrors "github.com/applyflow/auth-service/internal/common/errors"
)

type AuthConfig struct {
	HTTPPort    string
	DatabaseURL string

	// Key pair used for user-facing tokens. The gate public key is a
	// separate, client-facing key checked by the public-key gate.
	JWTPrivateKeyFile string
	JWTPublicKeyFile  string
	GatePublicKeyFile string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	PublicTokenTTL  time.Duration
	RequestTimeout  time.Duration
}

func LoadAuthConfig() (AuthConfig, error) {
	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return AuthConfig{}, err
	}

	privateKeyFile, err := mustEnv("JWT_PRIVATE_KEY_FILE")
	if err != nil {
		return AuthConfig{}, err
	}

	publicKeyFile, err := mustEnv("JWT_PUBLIC_KEY_FILE")
	if err != nil {
		return AuthConfig{}, err
	}

	gatePublicKeyFile, err := mustEnv("GATE_PUBLIC_KEY_FILE")
	if err != nil {
		return AuthConfig{}, err
	}

	return AuthConfig{
		HTTPPort:          getEnv("AUTH_HTTP_PORT", constants.DefaultAuthHTTPPort),
		DatabaseURL:       databaseURL,
		JWTPrivateKeyFile: privateKeyFile,
		JWTPublicKeyFile:  publicKeyFile,
		GatePublicKeyFile: gatePublicKeyFile,
		AccessTokenTTL:    getDurationEnv("ACCESS_TOKEN_TTL", constants.DefaultAccessTokenTTL),
		RefreshTokenTTL:   getDurationEnv("REFRESH_TOKEN_TTL", constants.DefaultRefreshTokenTTL),
		PublicTokenTTL:    getDurationEnv("PUBLIC_TOKEN_TTL", constants.DefaultPublicTokenTTL),
		RequestTimeout:    getDurationEnv("AUTH_REQUEST_TIMEOUT", constants.DefaultAuthRequestTimeout),
	}, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", commonerrors.ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
