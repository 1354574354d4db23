package jwtverify

import (
	"crypto/rsa"
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"

	commonerrors "github.com/applyflow/auth-service/internal/common/errors"
)

// Tier is the permission tier of a token: identity-less bootstrap tokens are
// public, user-identity-bearing tokens are private. Tier and Kind are
// orthogonal and a consumer must check both before trusting a claim.
type Tier string

const (
	TierPublic  Tier = "public"
	TierPrivate Tier = "private"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// PublicSubject is the sentinel subject carried by public tokens.
const PublicSubject = "##" + string(TierPublic)

type Claims struct {
	UserID         string
	Tier           Tier
	Kind           Kind
	RefreshTokenID string
	IssuedAt       time.Time
	ExpiresAt      time.Time
}

// VerifySignature checks only the cryptographic validity of a token against
// the given key: signature, embedded expiry and signing algorithm. The gate
// middleware and the public-key attestation use it directly since public
// tokens carry no claim schema.
func VerifySignature(raw string, key *rsa.PublicKey) error {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return commonerrors.ErrInvalidToken.WithCause(err)
	}
	if !parsed.Valid {
		return commonerrors.ErrInvalidToken
	}
	return nil
}

// ParseToken verifies a token's signature and then structurally validates its
// claims. Signature failures surface as ErrInvalidToken, malformed claims as
// ErrInvalidTokenSchema; callers treat both as unauthenticated but may log
// them apart.
func ParseToken(raw string, key *rsa.PublicKey) (Claims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return Claims{}, commonerrors.ErrInvalidToken.WithCause(err)
	}
	if !parsed.Valid {
		return Claims{}, commonerrors.ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, commonerrors.ErrInvalidTokenSchema
	}

	return claimsFromMap(mapClaims)
}

func claimsFromMap(mc jwt.MapClaims) (Claims, error) {
	tier, err := stringClaim(mc, "type")
	if err != nil {
		return Claims{}, err
	}
	if Tier(tier) != TierPublic && Tier(tier) != TierPrivate {
		return Claims{}, schemaError("type", tier)
	}

	kind, err := stringClaim(mc, "token_type")
	if err != nil {
		return Claims{}, err
	}
	if Kind(kind) != KindAccess && Kind(kind) != KindRefresh {
		return Claims{}, schemaError("token_type", kind)
	}

	iat, err := integerClaim(mc, "iat")
	if err != nil {
		return Claims{}, err
	}

	exp, err := integerClaim(mc, "exp")
	if err != nil {
		return Claims{}, err
	}

	sub, _ := mc["sub"].(string)
	if sub == "" {
		return Claims{}, schemaError("sub", nil)
	}

	claims := Claims{
		UserID:    sub,
		Tier:      Tier(tier),
		Kind:      Kind(kind),
		IssuedAt:  time.Unix(iat, 0),
		ExpiresAt: time.Unix(exp, 0),
	}

	if raw, present := mc["refresh_token_id"]; present {
		id, ok := raw.(string)
		if !ok || id == "" {
			return Claims{}, schemaError("refresh_token_id", raw)
		}
		claims.RefreshTokenID = id
	}

	return claims, nil
}

func stringClaim(mc jwt.MapClaims, name string) (string, error) {
	raw, present := mc[name]
	if !present {
		return "", schemaError(name, nil)
	}
	s, ok := raw.(string)
	if !ok {
		return "", schemaError(name, raw)
	}
	return s, nil
}

func integerClaim(mc jwt.MapClaims, name string) (int64, error) {
	raw, present := mc[name]
	if !present {
		return 0, schemaError(name, nil)
	}
	f, ok := raw.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, schemaError(name, raw)
	}
	return int64(f), nil
}

func schemaError(claim string, value any) error {
	return commonerrors.ErrInvalidTokenSchema.WithCause(
		fmt.Errorf("claim %q has unexpected value %v", claim, value),
	)
}
