package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

var (
	jwtSecret   = []byte(getEnv("JWT_SECRET", "development-insecure-secret-change-me"))
	jwtIssuer   = getEnv("JWT_ISSUER", "project-tracker")
	jwtAudience = getEnv("JWT_AUDIENCE", "project-tracker-dashboard")
)

const tokenTTL = 24 * time.Hour

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Claims represents the JWT claims
type Claims struct {
	Tier Tier `json:"tier"`
	jwt.RegisteredClaims
}

// GenerateToken generates a session token for the given permission tier
func GenerateToken(tier Tier) (string, error) {
	if _, err := ParseTier(string(tier)); err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		Tier: tier,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   string(tier),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    jwtIssuer,
			Audience:  jwt.ClaimStrings{jwtAudience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateToken validates a session token and returns the claims
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return jwtSecret, nil
	}, jwt.WithIssuer(jwtIssuer), jwt.WithAudience(jwtAudience))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if _, err := ParseTier(string(claims.Tier)); err != nil {
		return nil, err
	}
	return claims, nil
}
