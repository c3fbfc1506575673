package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the session credential payload.
type Claims struct {
	UserId string `json:"user_id"`
	Phone  string `json:"phone"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func IssueToken(secret string, c Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserId: c.UserId.String(),
		Phone:  c.Phone,
		Role:   string(c.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserId.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func ParseToken(secret, tokenStr string) (Caller, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Caller{}, ErrInvalidToken
	}

	userId, err := uuid.Parse(claims.UserId)
	if err != nil {
		return Caller{}, ErrInvalidToken
	}

	role := Role(claims.Role)
	if role == "" {
		role = RoleCitizen
	}
	return Caller{UserId: userId, Phone: claims.Phone, Role: role}, nil
}
