package api

import (
	"context"
	"net/http"

	"agromitra/internal/models"
)

// AuthService covers farmer registration, login and profile routes.
type AuthService service

// Login exchanges credentials for a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	req := models.AuthRequest{Email: email, Password: password}
	if err := s.client.do(ctx, "auth", http.MethodPost, "/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a farmer account and returns its session.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := s.client.do(ctx, "auth", http.MethodPost, "/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile fetches the authenticated farmer's profile.
func (s *AuthService) Profile(ctx context.Context) (*models.User, error) {
	var out models.ProfileResponse
	if err := s.client.do(ctx, "auth", http.MethodGet, "/auth/profile", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateProfile replaces the editable profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, user models.User) (*models.User, error) {
	var out models.ProfileResponse
	if err := s.client.do(ctx, "auth", http.MethodPut, "/auth/profile", nil, user, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}
