package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() JWTConfig {
	return JWTConfig{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(testConfig())
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "doc@clinic.example", "clinician")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "doc@clinic.example", claims.Email)
	assert.Equal(t, "clinician", claims.Role)
}

func TestAccessTokenExpiryComesFromConfig(t *testing.T) {
	svc := NewJWTService(testConfig())
	assert.Equal(t, time.Hour, svc.AccessTokenExpiry())

	defaulted := NewJWTService(JWTConfig{Secret: "a", RefreshSecret: "b"})
	assert.Equal(t, 24*time.Hour, defaulted.AccessTokenExpiry())
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(testConfig())
	userID := uuid.New()

	token, err := svc.GenerateRefreshToken(userID)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Empty(t, claims.Email)
}

func TestAccessTokenRejectedAsRefresh(t *testing.T) {
	svc := NewJWTService(testConfig())

	token, err := svc.GenerateAccessToken(uuid.New(), "doc@clinic.example", "clinician")
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(token)
	require.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	svc := NewJWTService(testConfig())
	other := NewJWTService(JWTConfig{Secret: "different", RefreshSecret: "also-different"})

	token, err := svc.GenerateAccessToken(uuid.New(), "doc@clinic.example", "clinician")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	require.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := testConfig()
	cfg.Expiry = -time.Minute
	svc := NewJWTService(cfg)

	token, err := svc.GenerateAccessToken(uuid.New(), "doc@clinic.example", "clinician")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}

func TestGarbageTokenRejected(t *testing.T) {
	svc := NewJWTService(testConfig())
	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
}
