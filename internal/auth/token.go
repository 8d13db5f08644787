package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/expensetracker/expenses/internal/config"
	"github.com/expensetracker/expenses/pkg/user"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoVerificationKey = errors.New("no token verification key configured")
	ErrInvalidToken      = errors.New("invalid token")
)

// Claims are the identity provider claims we rely on.
type Claims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() user.Identity {
	return user.Identity{
		Uid:         c.Subject,
		Email:       c.Email,
		DisplayName: c.Name,
		ImageUrl:    c.Picture,
	}
}

type TokenValidator struct {
	key    any
	parser *jwt.Parser
}

// NewTokenValidator builds an RS256 validator when a public key file is configured, otherwise an
// HS256 validator from the shared secret.
func NewTokenValidator(cfg config.Auth) (*TokenValidator, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired(), jwt.WithLeeway(30 * time.Second)}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	switch {
	case cfg.PublicKeyFile != "":
		pemBytes, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key: %w", err)
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
		return &TokenValidator{key: key, parser: jwt.NewParser(opts...)}, nil
	case cfg.HMACSecret != "":
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		return &TokenValidator{key: []byte(cfg.HMACSecret), parser: jwt.NewParser(opts...)}, nil
	default:
		return nil, ErrNoVerificationKey
	}
}

func (v *TokenValidator) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
