package api

import (
	"context"
	"net/http"

	"agromitra/internal/models"
)

// AdminService covers the admin console routes. Use it through the admin
// client so requests carry the admin token.
type AdminService service

// Login exchanges admin credentials for an admin token.
func (s *AdminService) Login(ctx context.Context, email, password string) (*models.AdminLoginResponse, error) {
	var out models.AdminLoginResponse
	req := models.AuthRequest{Email: email, Password: password}
	if err := s.client.do(ctx, "admin", http.MethodPost, "/admin/login", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the identity behind the current admin token.
func (s *AdminService) Me(ctx context.Context) (*models.Admin, error) {
	var out models.AdminMeResponse
	if err := s.client.do(ctx, "admin", http.MethodGet, "/admin/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Admin, nil
}

// Users lists farmer accounts.
func (s *AdminService) Users(ctx context.Context, q models.AdminUsersQuery) (*models.AdminUsersResponse, error) {
	query := params{}.
		num("page", q.Page).
		num("limit", q.Limit).
		str("search", q.Search).
		values()

	var out models.AdminUsersResponse
	if err := s.client.do(ctx, "admin", http.MethodGet, "/admin/users", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetUserStatus activates or suspends a farmer account.
func (s *AdminService) SetUserStatus(ctx context.Context, userID string, active bool) (*models.UserStatusResponse, error) {
	var out models.UserStatusResponse
	req := models.UserStatusRequest{IsActive: active}
	if err := s.client.do(ctx, "admin", http.MethodPatch, "/admin/users/"+escape(userID)+"/status", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summary returns the platform counters.
func (s *AdminService) Summary(ctx context.Context) (*models.AdminSummary, error) {
	var out models.AdminSummary
	if err := s.client.do(ctx, "admin", http.MethodGet, "/admin/summary", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Orders lists recent orders, optionally filtered by status.
func (s *AdminService) Orders(ctx context.Context, q models.AdminOrdersQuery) (*models.AdminOrdersResponse, error) {
	query := params{}.
		num("page", q.Page).
		num("limit", q.Limit).
		str("status", q.Status).
		values()

	var out models.AdminOrdersResponse
	if err := s.client.do(ctx, "admin", http.MethodGet, "/admin/orders", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TrainingService covers the classifier training routes. The farmer client
// reaches them under /training, the admin client under /admin/training.
type TrainingService struct {
	client *Client
	prefix string
	group  string
}

// Stats returns the normalised dataset summary.
func (s *TrainingService) Stats(ctx context.Context) (*models.TrainingStats, error) {
	var out models.TrainingStats
	if err := s.client.do(ctx, s.group, http.MethodGet, s.prefix+"/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Performance returns the normalised model evaluation.
func (s *TrainingService) Performance(ctx context.Context) (*models.ModelPerformance, error) {
	var out models.ModelPerformance
	if err := s.client.do(ctx, s.group, http.MethodGet, s.prefix+"/performance", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Retrain rebuilds the classifier from the stored samples.
func (s *TrainingService) Retrain(ctx context.Context) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := s.client.do(ctx, s.group, http.MethodPost, s.prefix+"/retrain", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddData stores one labelled sample.
func (s *TrainingService) AddData(ctx context.Context, sample models.TrainingSample) (*models.MessageResponse, error) {
	var out models.MessageResponse
	if err := s.client.do(ctx, s.group, http.MethodPost, s.prefix+"/add-data", nil, sample, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Test runs the classifier on queries and returns its predictions unchanged.
func (s *TrainingService) Test(ctx context.Context, queries []string, language string) ([]models.TestResult, error) {
	var out models.TestModelResponse
	req := models.TestModelRequest{Queries: queries, Language: language}
	if err := s.client.do(ctx, s.group, http.MethodPost, s.prefix+"/test", nil, req, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
