package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	SetJWTSecret("test-secret-123")

	token, claims, err := GenerateToken(TokenSubject{UserID: 4, FirstName: "Laura", LastName: "Gomez", Role: "dentist", RoleID: 2}, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(4), parsed.UserID)
	assert.Equal(t, "dentist", parsed.Role)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestParseToken_Expired(t *testing.T) {
	SetJWTSecret("test-secret-123")

	token, _, err := GenerateToken(TokenSubject{UserID: 1}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_WrongSecret(t *testing.T) {
	SetJWTSecret("first-secret")
	token, _, err := GenerateToken(TokenSubject{UserID: 1}, time.Hour)
	require.NoError(t, err)

	SetJWTSecret("second-secret")
	defer SetJWTSecret("test-secret-123")

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestGenerateToken_NoSecret(t *testing.T) {
	SetJWTSecret("")
	defer SetJWTSecret("test-secret-123")

	_, _, err := GenerateToken(TokenSubject{UserID: 1}, time.Hour)
	assert.Error(t, err)
}
