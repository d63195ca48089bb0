package api

import (
	"errors"
	"strings"
)

// NetworkMessage is shown when no response was received from the server.
const NetworkMessage = "Could not reach the server. Start the backend with: npm run dev (from project root) or node server.js"

// UserMessage turns err into the sentence shown to the user: validation
// messages joined with ". ", else the server message, else fallback.
// Transport failures yield NetworkMessage.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrUnreachable) {
		return NetworkMessage
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if msgs := apiErr.ValidationMessages(); len(msgs) > 0 {
			return strings.Join(msgs, ". ")
		}
		if msg := apiErr.Message(); msg != "" {
			return msg
		}
	}
	return fallback
}
