package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRingLookup(t *testing.T) {
	hashed, err := HashKey("s3cret")
	require.NoError(t, err)

	ring, err := NewKeyRing(map[string]string{
		"plain-admin": "admin",
		"plain-guest": "Guest",
		hashed:        "viewer",
	})
	require.NoError(t, err)
	require.Equal(t, 3, ring.Len())

	tests := map[string]struct {
		key     string
		expTier Tier
		expErr  bool
	}{
		"A plain key should resolve.":                 {key: "plain-admin", expTier: TierAdmin},
		"Tier names should be case insensitive.":      {key: "plain-guest", expTier: TierGuest},
		"A hashed key should resolve.":                {key: "s3cret", expTier: TierViewer},
		"Surrounding spaces should be ignored.":       {key: "  plain-admin ", expTier: TierAdmin},
		"An unknown key should fail.":                 {key: "nope", expErr: true},
		"An empty key should fail.":                   {key: "", expErr: true},
		"The hash itself should not be a usable key.": {key: hashed, expErr: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			tier, err := ring.Lookup(test.key)
			if test.expErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expTier, tier)
		})
	}
}

func TestNewKeyRingRejectsUnknownTier(t *testing.T) {
	_, err := NewKeyRing(map[string]string{"k": "superuser"})
	assert.Error(t, err)
}
