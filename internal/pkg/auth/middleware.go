package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"agromitra/internal/models"
)

// contextKey is a custom type used for storing values in a context without risking collisions.
type contextKey string

const (
	// ContextUserID is the key under which CheckJWTMiddleware stores the token subject.
	ContextUserID contextKey = "contextUserID"
	// ContextRole is the key under which CheckJWTMiddleware stores the token role.
	ContextRole contextKey = "contextRole"
)

// CheckJWTMiddleware validates the bearer token of incoming requests against
// secret and stores its subject and role in the request context. When roles
// are given, tokens carrying any other role are refused with 403.
// The in-memory backend that tests run against is its only server-side user.
func CheckJWTMiddleware(secret []byte, roles ...string) func(h http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerFromHeader(r.Header)
			if !ok {
				writeErrorResponse(w, "No token, authorization denied", http.StatusUnauthorized)
				return
			}

			claims, err := ParseToken(token, secret)
			if err != nil {
				writeErrorResponse(w, "Token is not valid", http.StatusUnauthorized)
				return
			}

			if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
				writeErrorResponse(w, "Access denied", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ContextUserID, claims.UserID)
			ctx = context.WithValue(ctx, ContextRole, claims.Role)
			h.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// UserID returns the subject stored by CheckJWTMiddleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ContextUserID).(string)
	return id
}

// writeErrorResponse writes a JSON-formatted error response with the given status code.
func writeErrorResponse(res http.ResponseWriter, message string, statusCode int) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	json.NewEncoder(res).Encode(models.ErrorResponse{Message: message})
}
