package api

import (
	"context"
	"net/http"

	"agromitra/internal/models"
)

// ChatService covers the assistant routes.
type ChatService service

// Send asks the assistant a text question.
func (s *ChatService) Send(ctx context.Context, message, language string) (*models.ChatReply, error) {
	var out models.ChatReply
	req := models.ChatRequest{Message: message, Language: language}
	if err := s.client.do(ctx, "chat", http.MethodPost, "/chat/message", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendDiseaseImage submits a plant photo (a base64 data URL) for diagnosis
// with optional accompanying text.
func (s *ChatService) SendDiseaseImage(ctx context.Context, imageDataURL, message, language string) (*models.ChatReply, error) {
	var out models.ChatReply
	req := models.DiseaseImageRequest{Image: imageDataURL, Message: message, Language: language}
	if err := s.client.do(ctx, "chat", http.MethodPost, "/chat/disease-image", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns the stored exchanges of the authenticated farmer.
func (s *ChatService) History(ctx context.Context) ([]models.ChatHistoryEntry, error) {
	var out models.ChatHistoryResponse
	if err := s.client.do(ctx, "chat", http.MethodGet, "/chat/history", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Chats, nil
}
