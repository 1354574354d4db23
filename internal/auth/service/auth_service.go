package service

import (
	"context"
	"crypto/rsa"
	"errors"

	authrepo "github.com/applyflow/auth-service/internal/auth/repository"
	"github.com/applyflow/auth-service/internal/common/clock"
	commoncrypto "github.com/applyflow/auth-service/internal/common/crypto"
	commonerrors "github.com/applyflow/auth-service/internal/common/errors"
	"github.com/applyflow/auth-service/internal/common/jwtverify"
	"github.com/applyflow/auth-service/internal/common/logger"
	userdomain "github.com/applyflow/auth-service/internal/user/domain"
	userrepo "github.com/applyflow/auth-service/internal/user/repository"
)

type AuthService struct {
	users            userrepo.Repository
	refreshTokenRepo authrepo.RefreshTokenRepository
	tokens           *TokenService
	hasher           commoncrypto.PasswordHasher
	verifyKey        *rsa.PublicKey
	clock            clock.Clock
	log              *logger.Logger
}

func NewAuthService(
	users userrepo.Repository,
	refreshTokenRepo authrepo.RefreshTokenRepository,
	tokens *TokenService,
	hasher commoncrypto.PasswordHasher,
	verifyKey *rsa.PublicKey,
	clk clock.Clock,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		users:            users,
		refreshTokenRepo: refreshTokenRepo,
		tokens:           tokens,
		hasher:           hasher,
		verifyKey:        verifyKey,
		clock:            clk,
		log:              log,
	}
}

type AuthenticateInput struct {
	Email      string
	Password   string
	IPAddress  string
	DeviceInfo string
}

type AuthenticateResult struct {
	AccessToken  string
	RefreshToken string
	User         userdomain.Summary
}

// Authenticate verifies credentials and issues a token pair. An unknown email
// and a wrong password fail with the same error so callers cannot enumerate
// accounts.
func (s *AuthService) Authenticate(ctx context.Context, input AuthenticateInput) (AuthenticateResult, error) {
	s.log.WithFields(ctx, logger.Fields{
		"email":  input.Email,
		"action": "login_attempt",
	}).Info("login attempt")

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"email":  input.Email,
				"action": "login_user_not_found",
			}).Warn("login failed: not found")
			return AuthenticateResult{}, commonerrors.ErrWrongCredentials
		}
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		return AuthenticateResult{}, commonerrors.ErrInternalError.WithCause(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  input.Email,
			"action": "login_invalid_password",
		}).Warn("login failed: invalid password")
		return AuthenticateResult{}, commonerrors.ErrWrongCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.clock.Now()); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": user.ID,
			"action":  "login_touch_failed",
		}).Errorf("login failed: last login update error: %v", err)
		return AuthenticateResult{}, commonerrors.ErrInternalError.WithCause(err)
	}

	pair, err := s.tokens.GenerateTokens(ctx, user.ID, input.IPAddress, input.DeviceInfo)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": user.ID,
			"action":  "login_token_issue_failed",
		}).Errorf("login failed: token issue error: %v", err)
		return AuthenticateResult{}, commonerrors.ErrInternalError.WithCause(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": user.ID,
		"action":  "login_success",
	}).Info("login success")

	return AuthenticateResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.Summary(),
	}, nil
}

// Refresh redeems a refresh token for a new pair. The token must carry a
// valid signature and refresh claims AND still have an unexpired store
// record; the old record is deleted before the new pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ipAddress, deviceInfo string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, commonerrors.ErrInvalidRefreshToken
	}

	claims, err := jwtverify.ParseToken(refreshToken, s.verifyKey)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "refresh_token_verify_failed",
		}).Warnf("refresh failed: %v", err)
		return TokenPair{}, commonerrors.ErrInvalidRefreshToken
	}

	if claims.Tier != jwtverify.TierPrivate || claims.Kind != jwtverify.KindRefresh {
		s.log.WithFields(ctx, logger.Fields{
			"action": "refresh_token_wrong_kind",
		}).Warnf("refresh failed: token tier=%s kind=%s", claims.Tier, claims.Kind)
		return TokenPair{}, commonerrors.ErrInvalidRefreshToken
	}

	stored, err := s.refreshTokenRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, authrepo.ErrRefreshTokenNotFound) {
			fields := logger.Fields{"action": "refresh_token_not_found"}
			if ipAddress != "" {
				fields["client_ip"] = ipAddress
			}
			s.log.WithFields(ctx, fields).Warn("refresh failed: no record")
			return TokenPair{}, commonerrors.ErrInvalidRefreshToken
		}
		s.log.WithFields(ctx, logger.Fields{
			"action": "refresh_token_lookup_failed",
		}).Errorf("refresh lookup failed: %v", err)
		return TokenPair{}, commonerrors.ErrInternalError.WithCause(err)
	}

	if !s.clock.Now().Before(stored.ExpiresAt) {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "refresh_token_expired",
		}).Warn("refresh failed: record expired")
		incrementRefreshTokensExpired()
		if err := s.refreshTokenRepo.DeleteByToken(ctx, refreshToken); err != nil && !errors.Is(err, authrepo.ErrRefreshTokenNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"user_id": stored.UserID,
				"action":  "refresh_token_delete_expired_failed",
			}).Errorf("refresh failed to delete expired record: %v", err)
		}
		return TokenPair{}, commonerrors.ErrRefreshTokenExpired
	}

	// Rotation: the delete acts as the single-use guard, so a concurrently
	// redeemed copy of the same token loses here.
	if err := s.refreshTokenRepo.DeleteByToken(ctx, refreshToken); err != nil {
		if errors.Is(err, authrepo.ErrRefreshTokenNotFound) {
			return TokenPair{}, commonerrors.ErrInvalidRefreshToken
		}
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "refresh_token_rotate_failed",
		}).Errorf("refresh failed to delete old record: %v", err)
		return TokenPair{}, commonerrors.ErrInternalError.WithCause(err)
	}

	pair, err := s.tokens.GenerateTokens(ctx, stored.UserID, ipAddress, deviceInfo)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": stored.UserID,
			"action":  "refresh_token_issue_failed",
		}).Errorf("refresh failed to issue new pair: %v", err)
		return TokenPair{}, commonerrors.ErrInternalError.WithCause(err)
	}

	incrementRefreshTokensUsed()

	s.log.WithFields(ctx, logger.Fields{
		"user_id": stored.UserID,
		"action":  "refresh_token_success",
	}).Info("refresh token redeemed")

	return pair, nil
}

// Logout revokes every refresh token belonging to the user.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.refreshTokenRepo.DeleteByUserID(ctx, userID); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "logout_revoke_failed",
		}).Errorf("logout failed: %v", err)
		return commonerrors.ErrInternalError.WithCause(err)
	}

	incrementRefreshTokensRevoked()

	s.log.WithFields(ctx, logger.Fields{
		"user_id": userID,
		"action":  "logout_success",
	}).Info("refresh tokens revoked")

	return nil
}
