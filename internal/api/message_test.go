package api

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"agromitra/internal/models"
)

func TestUserMessage(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "Nil", err: nil, expected: ""},
		{
			name:     "Validation joined",
			err:      &Error{Status: 400, Body: models.ErrorResponse{Message: "ignored", Errors: []models.FieldError{{Msg: "Name is required"}, {Msg: "Please include a valid email"}}}},
			expected: "Name is required. Please include a valid email",
		},
		{name: "Server message", err: &Error{Status: 400, Body: models.ErrorResponse{Message: "Invalid credentials"}}, expected: "Invalid credentials"},
		{name: "Error field", err: &Error{Status: 500, Body: models.ErrorResponse{Error: "Database down"}}, expected: "Database down"},
		{name: "Empty body", err: &Error{Status: 502}, expected: "Login failed"},
		{name: "Unreachable", err: fmt.Errorf("%w: dial tcp", ErrUnreachable), expected: NetworkMessage},
		{name: "Other", err: context.DeadlineExceeded, expected: "Login failed"},
		{name: "Wrapped API error", err: fmt.Errorf("store: %w", &Error{Status: 403, Body: models.ErrorResponse{Message: "Account is suspended"}}), expected: "Account is suspended"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, UserMessage(tc.err, "Login failed"))
		})
	}
	assert.False(t, errors.Is(context.Canceled, ErrUnreachable))
}
