// Package identity resolves the user behind a request from its JWT
// bearer token. Requests without a token run as the anonymous session.
package identity

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a presented token fails validation.
var ErrInvalidToken = errors.New("invalid token")

// Resolver validates and issues the signed tokens that identify users.
type Resolver struct {
	secret []byte
	ttl    time.Duration
}

// NewResolver creates a resolver signing and verifying with the given
// HMAC secret. ttl bounds the lifetime of issued tokens.
func NewResolver(secret string, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Resolver{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for the given user ID.
func (r *Resolver) Issue(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
	})
	return token.SignedString(r.secret)
}

// Resolve returns the user ID carried by the token.
func (r *Resolver) Resolve(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// FromRequest extracts the user ID from the request's Authorization
// header. A request without a bearer token resolves to the empty user
// ID, which the session layer treats as anonymous. A present but
// invalid token is an error.
func (r *Resolver) FromRequest(req *http.Request) (string, error) {
	header := req.Header.Get("Authorization")
	if header == "" {
		return "", nil
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header {
		return "", ErrInvalidToken
	}
	return r.Resolve(tokenString)
}
