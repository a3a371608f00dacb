package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestValidateToken(t *testing.T) {
	token, err := GenerateToken(123, "test@example.com", "user", testSecret, 15*time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{name: "Valid token", token: token, secret: testSecret},
		{name: "Invalid secret", token: token, secret: "wrong-secret", wantErr: ErrInvalidToken},
		{name: "Invalid token format", token: "invalid.token.format", secret: testSecret, wantErr: ErrInvalidToken},
		{name: "Empty token", token: "", secret: testSecret, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(123), claims.UserID)
			assert.Equal(t, "test@example.com", claims.Email)
			assert.Equal(t, "user", claims.Role)
			assert.NotEmpty(t, claims.ID)
		})
	}
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken(1, "test@example.com", "user", testSecret, -time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestTokensAreUnique(t *testing.T) {
	a, err := GenerateToken(1, "a@example.com", "user", testSecret, time.Minute)
	require.NoError(t, err)
	b, err := GenerateToken(1, "a@example.com", "user", testSecret, time.Minute)
	require.NoError(t, err)

	ca, err := ValidateToken(a, testSecret)
	require.NoError(t, err)
	cb, err := ValidateToken(b, testSecret)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestClaims_RemainingTTL(t *testing.T) {
	token, err := GenerateToken(42, "user@example.com", "admin", testSecret, time.Hour)
	require.NoError(t, err)
	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)

	ttl := claims.RemainingTTL(time.Now())
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)
	assert.Zero(t, claims.RemainingTTL(time.Now().Add(2*time.Hour)))
}
