// internal/utils/jwt.go
package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/tubetrade/dealdesk/internal/models"
)

const tokenIssuer = "tubetrade"

var ErrInvalidToken = errors.New("invalid token")

type JWTClaims struct {
	UserID   uint        `json:"user_id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

var jwtSecret = []byte("your-secret-key-change-in-production")

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// GenerateJWT signs an access token. The role is fixed at issue time.
func GenerateJWT(caller models.Caller, ttlHours int) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID:   caller.UserID,
		Username: caller.Username,
		Email:    caller.Email,
		Role:     caller.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(caller.UserID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateJWT(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		if claims.UserID == 0 {
			return nil, errors.New("token has no subject")
		}
		return claims, nil
	}

	return nil, ErrInvalidToken
}

func (c *JWTClaims) Caller() *models.Caller {
	role := c.Role
	if role != models.RoleAdmin {
		role = models.RoleUser
	}
	return &models.Caller{
		UserID:   c.UserID,
		Email:    c.Email,
		Username: c.Username,
		Role:     role,
	}
}
