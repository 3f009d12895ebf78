package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Payload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// NewJWTToken signs payload with HS256. The token expires after ttl.
func NewJWTToken(payload Payload, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"id":       payload.ID,
		"username": payload.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secret)
}

func ParseJWTToken(tokenString string, secret []byte) (*Payload, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return secret, nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)

	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	username, ok1 := claims["username"].(string)
	id, ok2 := claims["id"].(string)

	if !ok1 || !ok2 || username == "" || id == "" {
		return nil, fmt.Errorf("%w: missing id or username", ErrInvalidToken)
	}

	payload := &Payload{
		Username: username,
		ID:       id,
	}

	return payload, nil
}
