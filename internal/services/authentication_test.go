package services

import (
	"testing"

	"wayfarer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticationRoundTrip(t *testing.T) {
	authentication, err := NewAuthentication("test-secret")
	require.NoError(t, err)

	user := &models.UserFromAuth{
		ID:           "alice",
		DisplayName:  "Alice",
		PhotoURL:     "https://example.com/alice.png",
		LanguageCode: "en",
	}

	token, err := authentication.CreateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := authentication.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestAuthenticationRejectsBadTokens(t *testing.T) {
	authentication, err := NewAuthentication("test-secret")
	require.NoError(t, err)

	_, err = authentication.Validate("not-a-token")
	require.Error(t, err)

	// signed under a different secret
	other, err := NewAuthentication("other-secret")
	require.NoError(t, err)
	token, err := other.CreateToken(&models.UserFromAuth{ID: "alice"})
	require.NoError(t, err)

	_, err = authentication.Validate(token)
	require.Error(t, err)
}

func TestNewAuthenticationRequiresSecret(t *testing.T) {
	_, err := NewAuthentication("")
	require.Error(t, err)
}
