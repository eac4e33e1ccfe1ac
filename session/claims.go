package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of JWT claims the client cares about.
type Claims struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// parseToken decodes token claims without signature verification. The client
// holds no signing secret; the backend remains the authority and rejects
// tampered tokens with 401.
func parseToken(token string) (*Claims, error) {
	if token == "" {
		return nil, errors.New("session: empty token")
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("session: parse token: %w", err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("session: invalid token claims")
	}

	claims := &Claims{}

	switch v := mapClaims["user_id"].(type) {
	case float64:
		claims.UserID = strconv.FormatInt(int64(v), 10)
	case string:
		claims.UserID = v
	default:
		if sub, _ := mapClaims["sub"].(string); sub != "" {
			claims.UserID = sub
		}
	}

	if role, _ := mapClaims["role"].(string); role != "" {
		claims.Role = role
	}

	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims, nil
}
