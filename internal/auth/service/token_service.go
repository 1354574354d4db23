package service

import (
	"context"
	"time"

	authdomain "github.com/applyflow/auth-service/internal/auth/domain"
	authrepo "github.com/applyflow/auth-service/internal/auth/repository"
	"github.com/applyflow/auth-service/internal/auth/token"
	"github.com/applyflow/auth-service/internal/common/clock"
	commoncrypto "github.com/applyflow/auth-service/internal/common/crypto"
	"github.com/applyflow/auth-service/internal/common/logger"
)

// TokenService mints matched access/refresh token pairs for an authenticated
// subject and records the refresh half durably before either is disclosed.
type TokenService struct {
	signer           *token.Signer
	refreshTokenRepo authrepo.RefreshTokenRepository
	idGenerator      commoncrypto.IDGenerator
	clock            clock.Clock
	log              *logger.Logger
	accessTokenTTL   time.Duration
	refreshTokenTTL  time.Duration
}

func NewTokenService(
	signer *token.Signer,
	refreshTokenRepo authrepo.RefreshTokenRepository,
	idGenerator commoncrypto.IDGenerator,
	clk clock.Clock,
	accessTokenTTL time.Duration,
	refreshTokenTTL time.Duration,
	log *logger.Logger,
) *TokenService {
	return &TokenService{
		signer:           signer,
		refreshTokenRepo: refreshTokenRepo,
		idGenerator:      idGenerator,
		clock:            clk,
		log:              log,
		accessTokenTTL:   accessTokenTTL,
		refreshTokenTTL:  refreshTokenTTL,
	}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// GenerateTokens issues a pair for userID. The refresh token row is persisted
// after both tokens are signed and before the pair is returned: a signing or
// store failure fails the issuance as a whole, so every refresh token a
// caller ever sees has a store record behind it.
func (s *TokenService) GenerateTokens(ctx context.Context, userID, ipAddress, deviceInfo string) (TokenPair, error) {
	refreshTokenID, err := s.idGenerator.NewID()
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "generate_tokens_id_failed",
		}).Errorf("token issuance failed: id generation error: %v", err)
		return TokenPair{}, err
	}

	accessToken, err := s.signer.SignAccess(userID, s.accessTokenTTL)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "sign_access_token_failed",
		}).Errorf("token issuance failed: %v", err)
		return TokenPair{}, err
	}

	refreshToken, err := s.signer.SignRefresh(userID, refreshTokenID, s.refreshTokenTTL)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "sign_refresh_token_failed",
		}).Errorf("token issuance failed: %v", err)
		return TokenPair{}, err
	}

	now := s.clock.Now()
	stored := authdomain.RefreshToken{
		ID:         refreshTokenID,
		Token:      refreshToken,
		UserID:     userID,
		ExpiresAt:  now.Add(s.refreshTokenTTL),
		DeviceInfo: deviceInfo,
		IPAddress:  ipAddress,
		CreatedAt:  now,
	}

	if err := s.refreshTokenRepo.Create(ctx, stored); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "persist_refresh_token_failed",
		}).Errorf("token issuance failed: %v", err)
		return TokenPair{}, err
	}

	incrementAccessTokensIssued()
	incrementRefreshTokensIssued()

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
