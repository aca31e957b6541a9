package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"clinic-appointment-service/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifier(t *testing.T, cfg config.AuthConfig) *JWTVerifier {
	t.Helper()
	v, err := NewJWTVerifier(cfg)
	require.NoError(t, err)
	return v
}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v := newVerifier(t, config.AuthConfig{Secret: "test-secret", Issuer: "clinic-test", Audience: "clinic"})

	token, err := v.IssueToken(Identity{UserID: "u1", Email: "u1@clinic.test", EmailVerified: true}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "u1@clinic.test", id.Email)
	assert.True(t, id.EmailVerified)
	assert.False(t, id.Admin)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v := newVerifier(t, config.AuthConfig{Secret: "test-secret", RequireEmailVerified: true})
	other := newVerifier(t, config.AuthConfig{Secret: "other-secret"})

	expired, err := v.IssueToken(Identity{UserID: "u1", EmailVerified: true}, -time.Minute)
	require.NoError(t, err)
	forged, err := other.IssueToken(Identity{UserID: "u1", EmailVerified: true}, time.Hour)
	require.NoError(t, err)
	unverified, err := v.IssueToken(Identity{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(context.Background(), forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(context.Background(), unverified)
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestJWTVerifier_RSA(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	v := newVerifier(t, config.AuthConfig{PublicKeyPEM: string(pemKey)})

	claims := Claims{
		EmailVerified: true,
		Admin:         true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "firebase-uid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid", id.UserID)
	assert.True(t, id.Admin)

	_, err = v.IssueToken(Identity{UserID: "x"}, time.Hour)
	assert.ErrorIs(t, err, ErrSigningDisabled)
}

func TestNewJWTVerifier_RequiresKeyMaterial(t *testing.T) {
	_, err := NewJWTVerifier(config.AuthConfig{})
	assert.Error(t, err)

	_, err = NewJWTVerifier(config.AuthConfig{PublicKeyPEM: "garbage"})
	assert.Error(t, err)
}
