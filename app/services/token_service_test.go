package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHMACTokenService(t *testing.T, accessTTL time.Duration) TokenService {
	t.Helper()
	svc, err := NewTokenService(
		accessTTL,
		24*time.Hour,
		"sms-panel-test",
		"sms-panel-test-api",
		false,
		"",
		"",
		"test-secret-key-at-least-32-characters",
	)
	require.NoError(t, err)
	return svc
}

func TestTokenService_GenerateAndValidate(t *testing.T) {
	svc := newHMACTokenService(t, time.Hour)

	accessToken, refreshToken, err := svc.GenerateTokens(42)
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)
	assert.NotEqual(t, accessToken, refreshToken)

	claims, err := svc.ValidateToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "access", claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)

	refreshClaims, err := svc.ValidateToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	svc := newHMACTokenService(t, time.Hour)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestTokenService_RejectsWrongKey(t *testing.T) {
	svc := newHMACTokenService(t, time.Hour)
	other, err := NewTokenService(
		time.Hour,
		24*time.Hour,
		"sms-panel-test",
		"sms-panel-test-api",
		false,
		"",
		"",
		"another-secret-key-with-32-characters!",
	)
	require.NoError(t, err)

	accessToken, _, err := svc.GenerateTokens(1)
	require.NoError(t, err)

	_, err = other.ValidateToken(accessToken)
	assert.Error(t, err)
}

func TestTokenService_Refresh(t *testing.T) {
	svc := newHMACTokenService(t, time.Hour)

	_, refreshToken, err := svc.GenerateTokens(7)
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(refreshToken)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(newAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)

	_, err = svc.ValidateToken(newRefresh)
	require.NoError(t, err)
}

func TestTokenService_RefreshRejectsAccessToken(t *testing.T) {
	svc := newHMACTokenService(t, time.Hour)

	accessToken, _, err := svc.GenerateTokens(7)
	require.NoError(t, err)

	_, _, err = svc.RefreshToken(accessToken)
	assert.Error(t, err)
}

func TestTokenService_Revoke(t *testing.T) {
	svc := newHMACTokenService(t, time.Hour)

	accessToken, _, err := svc.GenerateTokens(9)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(accessToken))

	_, err = svc.ValidateToken(accessToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revoked")
}
