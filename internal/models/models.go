// Package models defines the records exchanged with the advisory platform API.
// The client trusts the server's shape: records carry no client-side identity,
// ordering or integrity rules beyond what is needed to decode them into a single
// canonical form.
package models

import (
	"github.com/shopspring/decimal"
)

func init() {
	// The backend expects prices as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Ref carries the identifier of a backend record. Depending on the route the
// server sends either "id" or the raw "_id"; Key returns whichever is present.
type Ref struct {
	ID  string `json:"id,omitempty"`
	OID string `json:"_id,omitempty"`
}

// Key returns the record identifier, preferring "_id".
func (r Ref) Key() string {
	if r.OID != "" {
		return r.OID
	}
	return r.ID
}

// Location is a farmer's or listing's administrative location.
type Location struct {
	State    string `json:"state,omitempty"`
	District string `json:"district,omitempty"`
	Village  string `json:"village,omitempty"`
}

// IsZero reports whether no location field is set.
func (l Location) IsZero() bool {
	return l.State == "" && l.District == "" && l.Village == ""
}

// String joins the non-empty fields from most to least specific.
func (l Location) String() string {
	return joinNonEmpty(", ", l.Village, l.District, l.State)
}

// User is the farmer profile returned by the auth routes.
type User struct {
	Ref
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	PreferredLanguage string   `json:"preferredLanguage"`
	Location          Location `json:"location"`
	SoilType          string   `json:"soilType"`
	FarmSize          float64  `json:"farmSize"`
	Experience        string   `json:"experience"`
}

// AuthRequest is the login payload.
type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the registration payload. Password confirmation is the
// caller's concern and is not part of the request.
type RegisterRequest struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	Password          string   `json:"password"`
	PreferredLanguage string   `json:"preferredLanguage"`
	Location          Location `json:"location"`
	SoilType          string   `json:"soilType"`
	FarmSize          float64  `json:"farmSize"`
	Experience        string   `json:"experience"`
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// ProfileResponse wraps the profile routes.
type ProfileResponse struct {
	Message string `json:"message,omitempty"`
	User    User   `json:"user"`
}

// FieldError is one entry of a validation failure.
type FieldError struct {
	Msg   string `json:"msg"`
	Param string `json:"param,omitempty"`
	Path  string `json:"path,omitempty"`
}

// ErrorDetail is one entry of the "details" list some routes attach.
type ErrorDetail struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

// ErrorResponse is the structured error body the API returns on failure.
type ErrorResponse struct {
	Message string        `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
	Errors  []FieldError  `json:"errors,omitempty"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// MessageResponse is the body of routes that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
