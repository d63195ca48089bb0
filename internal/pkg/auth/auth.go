// Package auth provides the client side of bearer-token authentication.
// It reads the session token from storage at send time and stamps it onto
// outgoing requests, and it inspects tokens to tell whether they have expired.
package auth

import (
	"net/http"
	"strings"

	"agromitra/internal/storage"
)

// TokenSource yields the bearer token for the next request. An empty token
// means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// StoredToken reads the token stored under a storage key on every call, so a
// login or logout takes effect on the very next request.
type StoredToken struct {
	Store storage.Storage
	Key   string
}

// Token returns the stored value, or "" when the key is absent.
func (s StoredToken) Token() string {
	if s.Store == nil {
		return ""
	}
	v, _ := s.Store.Get(s.Key)
	return strings.TrimSpace(v)
}

// StaticToken is a fixed token, mostly useful in tests.
type StaticToken string

// Token returns the fixed value.
func (s StaticToken) Token() string { return string(s) }

// SetBearer stamps the Authorization header when token is non-empty.
func SetBearer(req *http.Request, token string) {
	if token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

// BearerFromHeader extracts the token from an "Authorization: Bearer" header.
func BearerFromHeader(h http.Header) (string, bool) {
	authHeader := h.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
