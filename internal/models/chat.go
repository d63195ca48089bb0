package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// ChatMessage is one entry of the in-memory chat transcript. User entries
// carry Message; assistant entries carry Response and Classification.
type ChatMessage struct {
	ID             string    `json:"id"`
	Message        string    `json:"message"`
	Response       string    `json:"response"`
	Classification string    `json:"classification"`
	Language       string    `json:"language"`
	Timestamp      time.Time `json:"timestamp"`
	IsUser         bool      `json:"isUser"`
	Model          string    `json:"model,omitempty"`
}

// ChatRequest is the text chat payload.
type ChatRequest struct {
	Message  string `json:"message"`
	Language string `json:"language,omitempty"`
}

// DiseaseImageRequest is the image diagnosis payload. Image is a base64 data URL.
type DiseaseImageRequest struct {
	Image    string `json:"image"`
	Message  string `json:"message,omitempty"`
	Language string `json:"language,omitempty"`
}

// ChatReply is the normalised assistant answer. The server sends the reply
// text either as {"response": {"message": "..."}} or {"response": "..."}.
type ChatReply struct {
	Message        string
	Classification string
	Model          string
}

// UnmarshalJSON accepts both response shapes.
func (r *ChatReply) UnmarshalJSON(data []byte) error {
	var raw struct {
		Response       json.RawMessage `json:"response"`
		Classification string          `json:"classification"`
		Model          string          `json:"model"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Classification = raw.Classification
	r.Model = raw.Model
	r.Message = ""

	body := bytes.TrimSpace(raw.Response)
	switch {
	case len(body) == 0 || bytes.Equal(body, []byte("null")):
	case body[0] == '"':
		if err := json.Unmarshal(body, &r.Message); err != nil {
			return err
		}
	case body[0] == '{':
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &nested); err != nil {
			return err
		}
		r.Message = nested.Message
	}
	return nil
}

// ChatHistoryEntry is one stored exchange from GET /chat/history.
type ChatHistoryEntry struct {
	Ref
	Message        string    `json:"message"`
	Response       string    `json:"response"`
	Classification string    `json:"classification"`
	Language       string    `json:"language"`
	Timestamp      time.Time `json:"timestamp"`
}

// ChatHistoryResponse wraps GET /chat/history.
type ChatHistoryResponse struct {
	Chats []ChatHistoryEntry `json:"chats"`
}
