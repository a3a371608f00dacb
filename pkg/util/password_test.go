package util

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, VerifyPassword(hash, "secret123"))
	assert.False(t, VerifyPassword(hash, "secret124"))
	assert.False(t, VerifyPassword("not-a-hash", "secret123"))
}

func TestCheckPasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "Long enough", password: "secret123"},
		{name: "Too short", password: "short", wantErr: true},
		{name: "Too long for bcrypt", password: strings.Repeat("a", 73), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPasswordPolicy(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrWeakPassword)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Levi's Trucker Jacket": "levis-trucker-jacket",
		"  80s  Wool -- Coat ":  "80s-wool-coat",
		"Café Noir":             "café-noir",
		"":                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestNewOrderNumber(t *testing.T) {
	n := NewOrderNumber(time.Unix(1700123456, 0))
	assert.Regexp(t, `^ORD-123456-[0-9A-F]{4}$`, n)
	assert.NotEqual(t, n, NewOrderNumber(time.Unix(1700123456, 0)))
}
