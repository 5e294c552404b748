package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewPasswordService(t *testing.T) {
	tests := []struct {
		name        string
		cost        int
		expectError bool
	}{
		{
			name:        "minimum cost",
			cost:        bcrypt.MinCost,
			expectError: false,
		},
		{
			name:        "default cost",
			cost:        bcrypt.DefaultCost,
			expectError: false,
		},
		{
			name:        "cost below minimum",
			cost:        bcrypt.MinCost - 1,
			expectError: true,
		},
		{
			name:        "cost above maximum",
			cost:        bcrypt.MaxCost + 1,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewPasswordService(tt.cost)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestPasswordHashAndVerify(t *testing.T) {
	svc, err := NewPasswordService(bcrypt.MinCost)
	require.NoError(t, err)

	password := "SecurePass123!"
	digest, err := svc.Hash(password)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$2a$"))
	assert.NotContains(t, digest, password)

	assert.NoError(t, svc.Verify(digest, password))
	assert.Error(t, svc.Verify(digest, "WrongPass123!"))
	assert.Error(t, svc.Verify(digest, ""))
}

func TestPasswordHashSalted(t *testing.T) {
	svc, err := NewPasswordService(bcrypt.MinCost)
	require.NoError(t, err)

	first, err := svc.Hash("SecurePass123!")
	require.NoError(t, err)
	second, err := svc.Hash("SecurePass123!")
	require.NoError(t, err)

	// bcrypt embeds a random salt, so identical inputs produce distinct digests
	assert.NotEqual(t, first, second)
	assert.NoError(t, svc.Verify(first, "SecurePass123!"))
	assert.NoError(t, svc.Verify(second, "SecurePass123!"))
}

func TestPasswordVerifyMalformedDigest(t *testing.T) {
	svc, err := NewPasswordService(bcrypt.MinCost)
	require.NoError(t, err)

	assert.Error(t, svc.Verify("not-a-bcrypt-digest", "SecurePass123!"))
	assert.Error(t, svc.Verify("", "SecurePass123!"))
}
