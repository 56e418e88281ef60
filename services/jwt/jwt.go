package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// AccessTokenValidity is how long an issued identity token stays valid.
const AccessTokenValidity = time.Hour * 24

var ErrInvalidToken = errors.New("invalid token")

// GenerateToken issues a signed identity token for the given user id.
func GenerateToken(userID string, secret string) (string, error) {
	claims := jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(AccessTokenValidity).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAndGetClaims verifies the token signature and expiry and returns
// its claims.
func ValidateAndGetClaims(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
