// Package services provides external service integrations and technical concerns like provisioning and tokens
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestTokenService creates a token service for testing
func createTestTokenService() (TokenService, error) {
	return NewTokenService(
		24*time.Hour,
		30*time.Minute,
		"test-issuer",
		"test-audience",
		"test-secret-key-for-jwt-signing-32-chars",
	)
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name           string
		accessTokenTTL time.Duration
		adminTokenTTL  time.Duration
		issuer         string
		audience       string
		secretKey      string
		expectError    bool
	}{
		{
			name:           "valid configuration",
			accessTokenTTL: 24 * time.Hour,
			adminTokenTTL:  30 * time.Minute,
			issuer:         "test-issuer",
			audience:       "test-audience",
			secretKey:      "test-secret-key-for-jwt-signing-32-chars",
			expectError:    false,
		},
		{
			name:           "missing secret key",
			accessTokenTTL: 24 * time.Hour,
			adminTokenTTL:  30 * time.Minute,
			issuer:         "test-issuer",
			audience:       "test-audience",
			secretKey:      "",
			expectError:    true,
		},
		{
			name:           "empty issuer and audience",
			accessTokenTTL: 24 * time.Hour,
			adminTokenTTL:  30 * time.Minute,
			issuer:         "",
			audience:       "",
			secretKey:      "test-secret-key-for-jwt-signing-32-chars",
			expectError:    false, // Should not error, just use empty strings
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewTokenService(
				tt.accessTokenTTL,
				tt.adminTokenTTL,
				tt.issuer,
				tt.audience,
				tt.secretKey,
			)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, service)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, service)
			}
		})
	}
}

func TestGenerateAccessToken(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	tests := []struct {
		name      string
		accountID uint
	}{
		{
			name:      "valid account ID",
			accountID: 123,
		},
		{
			name:      "zero account ID",
			accountID: 0,
		},
		{
			name:      "large account ID",
			accountID: 4294967295,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := service.GenerateAccessToken(tt.accountID)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := service.ValidateToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.accountID, claims.AccountID)
			assert.Equal(t, "access", claims.TokenType)
			assert.NotEmpty(t, claims.TokenID)
		})
	}
}

func TestGenerateAccessTokenUniqueness(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	token1, err := service.GenerateAccessToken(1)
	require.NoError(t, err)
	token2, err := service.GenerateAccessToken(1)
	require.NoError(t, err)

	// Same account, different jti
	assert.NotEqual(t, token1, token2)

	claims1, err := service.ValidateToken(token1)
	require.NoError(t, err)
	claims2, err := service.ValidateToken(token2)
	require.NoError(t, err)
	assert.NotEqual(t, claims1.TokenID, claims2.TokenID)
}

func TestValidateTokenExpiry(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	token, err := service.GenerateAccessToken(42)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)

	// Expiry roughly 24 hours from issuance
	ttl := claims.ExpiresAt.Sub(claims.IssuedAt)
	assert.InDelta(t, (24 * time.Hour).Seconds(), ttl.Seconds(), 5)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestValidateExpiredToken(t *testing.T) {
	// TTL in the past makes every generated token already expired
	service, err := NewTokenService(
		-1*time.Hour,
		-1*time.Hour,
		"test-issuer",
		"test-audience",
		"test-secret-key-for-jwt-signing-32-chars",
	)
	require.NoError(t, err)

	token, err := service.GenerateAccessToken(42)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateTokenInvalidInput(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "empty token",
			token: "",
		},
		{
			name:  "garbage token",
			token: "not-a-jwt",
		},
		{
			name:  "malformed jwt",
			token: "aaa.bbb.ccc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	otherService, err := NewTokenService(
		24*time.Hour,
		30*time.Minute,
		"test-issuer",
		"test-audience",
		"a-completely-different-secret-key-32-chars",
	)
	require.NoError(t, err)

	token, err := service.GenerateAccessToken(42)
	require.NoError(t, err)

	claims, err := otherService.ValidateToken(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAdminTokenRoundTrip(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	token, err := service.GenerateAdminToken(7)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.AdminID)
	assert.Equal(t, "admin", claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)

	// Admin tokens carry the shorter TTL
	ttl := claims.ExpiresAt.Sub(claims.IssuedAt)
	assert.InDelta(t, (30 * time.Minute).Seconds(), ttl.Seconds(), 5)
}

func TestTokenTypeSeparation(t *testing.T) {
	service, err := createTestTokenService()
	require.NoError(t, err)

	accessToken, err := service.GenerateAccessToken(1)
	require.NoError(t, err)
	adminToken, err := service.GenerateAdminToken(1)
	require.NoError(t, err)

	// An admin token must not pass subscriber validation, and vice versa
	claims, err := service.ValidateToken(adminToken)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	adminClaims, err := service.ValidateAdminToken(accessToken)
	assert.Nil(t, adminClaims)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
