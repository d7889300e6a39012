package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"clinic-scheduling-server/internal/config"
	"clinic-scheduling-server/internal/models"
)

// Claims carries the caller identity inside access and refresh tokens.
type Claims struct {
	UserID         string      `json:"user_id"`
	Role           models.Role `json:"role"`
	OrganizationID string      `json:"organization_id,omitempty"`
	jwt.RegisteredClaims
}

// GenerateTokens issues an access token and a refresh token for user.
func GenerateTokens(user *models.User, cfg *config.Config) (accessToken string, refreshToken string, err error) {
	accessToken, err = signToken(user, cfg.JWTSecret, AccessTokenTTL(cfg))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}
	refreshToken, err = signToken(user, cfg.JWTRefreshSecret, RefreshTokenTTL(cfg))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return accessToken, refreshToken, nil
}

func AccessTokenTTL(cfg *config.Config) time.Duration {
	return time.Duration(cfg.JWTExpirationMinutes) * time.Minute
}

func RefreshTokenTTL(cfg *config.Config) time.Duration {
	return time.Duration(cfg.JWTRefreshExpirationHours) * time.Hour
}

func signToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:         user.ID,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateToken parses an HS256 token signed with secretKey.
func ValidateToken(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
