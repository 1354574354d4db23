package token

import (
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/applyflow/auth-service/internal/common/clock"
	"github.com/applyflow/auth-service/internal/common/jwtverify"
)

// Signer issues RS256-signed tokens with the process-wide key pair. The keys
// are read-only after construction.
type Signer struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	clock      clock.Clock
}

func NewSigner(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, clk clock.Clock) *Signer {
	return &Signer{
		privateKey: privateKey,
		publicKey:  publicKey,
		clock:      clk,
	}
}

func (s *Signer) PublicKey() *rsa.PublicKey {
	return s.publicKey
}

func (s *Signer) SignAccess(userID string, ttl time.Duration) (string, error) {
	now := s.clock.Now()
	return s.sign(jwt.MapClaims{
		"sub":        userID,
		"type":       string(jwtverify.TierPrivate),
		"token_type": string(jwtverify.KindAccess),
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
	})
}

func (s *Signer) SignRefresh(userID, refreshTokenID string, ttl time.Duration) (string, error) {
	now := s.clock.Now()
	return s.sign(jwt.MapClaims{
		"sub":              userID,
		"type":             string(jwtverify.TierPrivate),
		"token_type":       string(jwtverify.KindRefresh),
		"refresh_token_id": refreshTokenID,
		"iat":              now.Unix(),
		"exp":              now.Add(ttl).Unix(),
	})
}

// SignPublic issues the bootstrap token for the public-key gate: the subject
// is a fixed sentinel and the claim set is otherwise empty, so the token
// carries no user identity.
func (s *Signer) SignPublic(ttl time.Duration) (string, error) {
	now := s.clock.Now()
	return s.sign(jwt.MapClaims{
		"sub": jwtverify.PublicSubject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
}

func (s *Signer) Verify(raw string) (jwtverify.Claims, error) {
	return jwtverify.ParseToken(raw, s.publicKey)
}

func (s *Signer) sign(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
}
