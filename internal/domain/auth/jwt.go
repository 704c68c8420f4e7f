// Package auth validates and mints the bearer tokens that identify an actor
// and the pharmacy it works for.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/id"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		Issuer:         "pharmaledger",
		AccessTokenTTL: 12 * time.Hour,
	}
}

// Claims represents JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	ActorID    string   `json:"uid"`
	PharmacyID string   `json:"pid"`
	Roles      []string `json:"roles,omitempty"`
}

// JWTService handles JWT operations.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) (*JWTService, error) {
	if len(config.Secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	if config.AccessTokenTTL <= 0 {
		config.AccessTokenTTL = DefaultJWTConfig(config.Secret).AccessTokenTTL
	}
	return &JWTService{config: config}, nil
}

// GenerateAccessToken signs a token for actor.
func (s *JWTService) GenerateAccessToken(actor appctx.Actor) (string, time.Time, error) {
	if !actor.Valid() {
		return "", time.Time{}, errors.New("actor and pharmacy are required")
	}
	now := time.Now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   actor.ActorID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		ActorID:    actor.ActorID.String(),
		PharmacyID: actor.PharmacyID.String(),
		Roles:      actor.Roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies the signature, issuer and expiry and returns the actor.
func (s *JWTService) ValidateToken(tokenString string) (appctx.Actor, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return appctx.Actor{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return appctx.Actor{}, errors.New("invalid token")
	}

	actorID, err := id.Parse(claims.ActorID)
	if err != nil {
		return appctx.Actor{}, fmt.Errorf("invalid uid claim: %w", err)
	}
	pharmacyID, err := id.Parse(claims.PharmacyID)
	if err != nil {
		return appctx.Actor{}, fmt.Errorf("invalid pid claim: %w", err)
	}

	actor := appctx.Actor{ActorID: actorID, PharmacyID: pharmacyID, Roles: claims.Roles}
	if !actor.Valid() {
		return appctx.Actor{}, errors.New("token carries an empty actor or pharmacy")
	}
	return actor, nil
}
