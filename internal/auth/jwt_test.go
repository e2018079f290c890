package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := MintToken("test-secret", userID)
	require.NoError(t, err)

	got, err := ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := MintToken("secret-a", uuid.New())
	require.NoError(t, err)

	_, err = ParseToken("secret-b", token)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("secret", "not.a.jwt")
	assert.Error(t, err)
}
