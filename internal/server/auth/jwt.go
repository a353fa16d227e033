// Package auth issues and validates the API session tokens. A token only
// proves account identity for record access; it carries no key material
// and grants no ability to read note content.
package auth

import (
	"time"

	"github.com/avolkov/notevault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims extends the registered claims with the account email.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func GenerateToken(email string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Email: email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

func GetEmailFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", common.ErrInvalidToken
	}
	if !token.Valid || claims.Email == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Email, nil
}
