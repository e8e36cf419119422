package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Tier is a permission tier. Tiers gate what the dashboard shows; they are not
// a security boundary for the data itself.
type Tier string

const (
	TierAdmin  Tier = "admin"
	TierEditor Tier = "editor"
	TierViewer Tier = "viewer"
	TierGuest  Tier = "guest"
)

var tierRank = map[Tier]int{
	TierGuest:  0,
	TierViewer: 1,
	TierEditor: 2,
	TierAdmin:  3,
}

// ErrInvalidKey is returned for an access key that maps to no tier.
var ErrInvalidKey = errors.New("invalid access key")

// ParseTier accepts the tier names case-insensitively.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tierRank[t]; !ok {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}

// AtLeast reports whether t ranks at or above min.
func (t Tier) AtLeast(min Tier) bool {
	r, ok := tierRank[t]
	return ok && r >= tierRank[min]
}

type hashedKey struct {
	hash []byte
	tier Tier
}

// KeyRing maps access keys to tiers. Keys may be stored in plain text or as
// bcrypt hashes.
type KeyRing struct {
	plain  map[string]Tier
	hashed []hashedKey
}

// NewKeyRing builds a KeyRing from a key -> tier name table.
func NewKeyRing(keys map[string]string) (*KeyRing, error) {
	k := &KeyRing{plain: map[string]Tier{}}
	for key, name := range keys {
		tier, err := ParseTier(name)
		if err != nil {
			return nil, fmt.Errorf("access key table: %w", err)
		}
		if _, err := bcrypt.Cost([]byte(key)); err == nil {
			k.hashed = append(k.hashed, hashedKey{hash: []byte(key), tier: tier})
			continue
		}
		k.plain[key] = tier
	}
	// Higher tiers first so a key hashed twice resolves to its best tier.
	sort.SliceStable(k.hashed, func(i, j int) bool {
		return tierRank[k.hashed[i].tier] > tierRank[k.hashed[j].tier]
	})
	return k, nil
}

// Len is the number of keys in the ring.
func (k *KeyRing) Len() int { return len(k.plain) + len(k.hashed) }

// Lookup returns the tier of an access key or ErrInvalidKey.
func (k *KeyRing) Lookup(key string) (Tier, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	if t, ok := k.plain[key]; ok {
		return t, nil
	}
	for _, h := range k.hashed {
		if bcrypt.CompareHashAndPassword(h.hash, []byte(key)) == nil {
			return h.tier, nil
		}
	}
	return "", ErrInvalidKey
}

// HashKey returns the bcrypt hash of an access key for the settings file.
func HashKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("could not hash key: %w", err)
	}
	return string(h), nil
}
