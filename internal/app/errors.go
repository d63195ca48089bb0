package app

import (
	"errors"
	"fmt"
	"strings"

	"agromitra/internal/api"
	"agromitra/internal/models"
)

// Predefined errors returned by the controllers.
var (
	// ErrNotAuthenticated indicates that the action needs a farmer session.
	ErrNotAuthenticated = errors.New("app: not logged in")
	// ErrSessionExpired indicates that the admin token was rejected; the admin keys are already removed.
	ErrSessionExpired = errors.New("app: admin session expired")
	// ErrInvalidListing indicates that the listing form misses a crop name, a positive quantity or a positive price.
	ErrInvalidListing = errors.New("app: invalid listing")
	// ErrListingLocked indicates an edit or delete of a listing that is no longer active.
	ErrListingLocked = errors.New("app: listing is not active")
	// ErrPasswordMismatch indicates that the password confirmation differs.
	ErrPasswordMismatch = errors.New("app: passwords do not match")
	// ErrPasswordTooShort indicates a password below MinPasswordLength.
	ErrPasswordTooShort = errors.New("app: password too short")
	// ErrCancelled indicates that the user declined a confirmation prompt.
	ErrCancelled = errors.New("app: cancelled")
	// ErrBusy indicates that a chat message is already being sent.
	ErrBusy = errors.New("app: request already in progress")
	// ErrNotImage indicates an attachment that is not an image.
	ErrNotImage = errors.New("app: attachment is not an image")
	// ErrEmptySample indicates a training sample without text or category.
	ErrEmptySample = errors.New("app: training sample needs text and category")
)

// User-facing texts for the sentinels above.
const (
	SessionExpiredMessage = "Admin session expired. Please login again."
	InvalidListingMessage = "Please fill crop name, quantity and price."
)

var sentinelMessages = map[error]string{
	ErrNotAuthenticated: "Please login to continue.",
	ErrSessionExpired:   SessionExpiredMessage,
	ErrInvalidListing:   InvalidListingMessage,
	ErrListingLocked:    "Only active listings can be changed.",
	ErrPasswordMismatch: "Passwords do not match",
	ErrPasswordTooShort: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength),
	ErrCancelled:        "Cancelled.",
	ErrBusy:             "Please wait for the current request to finish.",
	ErrNotImage:         "Please attach an image file.",
	ErrEmptySample:      "Please provide the sample text and category.",
}

// Error is a failed controller action. Message is what the user should see.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func failure(err error, fallback string) error {
	return &Error{Message: api.UserMessage(err, fallback), Err: err}
}

// Message returns the sentence to show for err. Controller errors carry their
// own message, sentinels map to fixed texts and anything else goes through
// api.UserMessage with fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	for sentinel, msg := range sentinelMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return api.UserMessage(err, fallback)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysConfirm approves every prompt.
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })

func confirmed(c Confirmer, prompt string) bool {
	if c == nil {
		return false
	}
	return c.Confirm(prompt)
}

// formatDetails renders the "details" list of an error body, one
// "field: value - message" line per entry.
func formatDetails(details []models.ErrorDetail) string {
	lines := make([]string, 0, len(details))
	for _, d := range details {
		lines = append(lines, fmt.Sprintf("%s: %v - %s", d.Field, d.Value, d.Message))
	}
	return strings.Join(lines, "\n")
}
