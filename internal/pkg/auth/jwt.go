package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrNotJWT is returned when a token cannot be decoded as a JWT.
var ErrNotJWT = errors.New("auth: token is not a JWT")

// Claims are the fields the client reads from a session token. The backend
// signs tokens with a secret the client never sees, so the signature is not
// verified here: the server stays the only authority on validity.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ParseUnverified decodes the claims of tokenStr without checking its signature.
func ParseUnverified(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, ErrNotJWT
	}
	return claims, nil
}

// Expired reports whether tokenStr is a JWT whose expiry is at or before now.
// Opaque tokens and JWTs without an expiry are never considered expired.
func Expired(tokenStr string, now time.Time) bool {
	claims, err := ParseUnverified(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// GenerateToken creates an HS256 token for subject expiring after ttl. It is
// used by the in-memory backend that tests run against.
func GenerateToken(subject, role string, ttl time.Duration, secret []byte) (string, error) {
	claims := Claims{
		UserID: subject,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	// Create a new token with HS256 signing method and the specified claims.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates tokenStr against secret and returns its claims.
func ParseToken(tokenStr string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
