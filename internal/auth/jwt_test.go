package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(TierEditor)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, TierEditor, claims.Tier)
	require.NotEmpty(t, claims.ID)
}

func TestGenerateToken_UnknownTier(t *testing.T) {
	_, err := GenerateToken(Tier("root"))
	require.Error(t, err)
}

func TestValidateToken_Invalid(t *testing.T) {
	_, err := ValidateToken("invalid.token")
	require.Error(t, err)
}

func TestTierAtLeast(t *testing.T) {
	assert.True(t, TierAdmin.AtLeast(TierEditor))
	assert.True(t, TierViewer.AtLeast(TierViewer))
	assert.False(t, TierGuest.AtLeast(TierViewer))
	assert.False(t, Tier("root").AtLeast(TierGuest))
}
