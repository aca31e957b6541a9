package identity

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"clinic-appointment-service/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrEmailNotVerified = errors.New("email address is not verified")
	ErrSigningDisabled  = errors.New("token issuing requires a shared secret")
)

// Identity is the verified caller of a request
type Identity struct {
	UserID        string
	Email         string
	EmailVerified bool
	Admin         bool
}

// Claims mirrors the ID token issued by the identity provider.
// The uid is carried in user_id, falling back to sub.
type Claims struct {
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	Admin         bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Provider verifies bearer tokens
type Provider interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// JWTVerifier checks ID tokens signed either with an RSA key (RS256) or a shared secret (HS256)
type JWTVerifier struct {
	config    config.AuthConfig
	publicKey *rsa.PublicKey
}

func NewJWTVerifier(cfg config.AuthConfig) (*JWTVerifier, error) {
	v := &JWTVerifier{config: cfg}
	if cfg.PublicKeyPEM != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse identity provider public key: %w", err)
		}
		v.publicKey = key
	}
	if v.publicKey == nil && cfg.Secret == "" {
		return nil, errors.New("identity provider needs AUTH_PUBLIC_KEY or AUTH_SECRET")
	}
	return v, nil
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.config.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	if v.config.RequireEmailVerified && !claims.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return &Identity{
		UserID:        userID,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Admin:         claims.Admin,
	}, nil
}

func (v *JWTVerifier) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA:
		if v.publicKey == nil {
			return nil, errors.New("RSA tokens are not accepted")
		}
		return v.publicKey, nil
	case *jwt.SigningMethodHMAC:
		if v.config.Secret == "" {
			return nil, errors.New("HMAC tokens are not accepted")
		}
		return []byte(v.config.Secret), nil
	default:
		return nil, errors.New("invalid signing method")
	}
}

// IssueToken signs an HS256 token for id. Used by local tooling and tests;
// production tokens come from the identity provider.
func (v *JWTVerifier) IssueToken(id Identity, ttl time.Duration) (string, error) {
	if v.config.Secret == "" {
		return "", ErrSigningDisabled
	}
	now := time.Now()
	claims := Claims{
		UserID:        id.UserID,
		Email:         id.Email,
		EmailVerified: id.EmailVerified,
		Admin:         id.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    v.config.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if v.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{v.config.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(v.config.Secret))
}
