package service

import (
	"context"
	"time"

	"github.com/applyflow/auth-service/internal/auth/token"
	commonerrors "github.com/applyflow/auth-service/internal/common/errors"
	"github.com/applyflow/auth-service/internal/common/jwtverify"
	"github.com/applyflow/auth-service/internal/common/logger"
)

// PublicTokenService attests a caller-supplied public key against the
// server's signing key and issues the bootstrap token for the public-key
// gate. Nothing is persisted; the protocol is a pure sign-then-verify round
// trip.
type PublicTokenService struct {
	signer     *token.Signer
	defaultTTL time.Duration
	log        *logger.Logger
}

func NewPublicTokenService(signer *token.Signer, defaultTTL time.Duration, log *logger.Logger) *PublicTokenService {
	return &PublicTokenService{
		signer:     signer,
		defaultTTL: defaultTTL,
		log:        log,
	}
}

// Create signs an empty-claims token with the sentinel subject, then verifies
// it with the caller's key. Verification succeeding proves the caller holds
// the genuine counterpart of the server's private key; anything else is an
// authorization failure, not a lookup failure.
func (s *PublicTokenService) Create(ctx context.Context, publicKeyPEM string, expiresIn time.Duration) (string, error) {
	if expiresIn <= 0 {
		expiresIn = s.defaultTTL
	}

	callerKey, err := token.ParsePublicKey(publicKeyPEM)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "public_key_parse_failed",
		}).Warnf("public token rejected: %v", err)
		incrementPublicKeyAttestationsFailed()
		return "", commonerrors.ErrPublicKeyInvalid
	}

	signed, err := s.signer.SignPublic(expiresIn)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "public_token_sign_failed",
		}).Errorf("public token issuance failed: %v", err)
		return "", commonerrors.ErrInternalError.WithCause(err)
	}

	if err := jwtverify.VerifySignature(signed, callerKey); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "public_key_attestation_failed",
		}).Warn("public token rejected: key is not the counterpart of the signing key")
		incrementPublicKeyAttestationsFailed()
		return "", commonerrors.ErrPublicKeyInvalid
	}

	incrementPublicTokensIssued()

	s.log.WithFields(ctx, logger.Fields{
		"action": "public_token_issued",
	}).Info("public token issued")

	return signed, nil
}
