package models

import (
	"encoding/json"
	"time"
)

// Admin is the identity behind an admin session.
type Admin struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AdminLoginResponse wraps POST /admin/login.
type AdminLoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	Admin   Admin  `json:"admin"`
}

// AdminMeResponse wraps GET /admin/me.
type AdminMeResponse struct {
	Admin Admin `json:"admin"`
}

// AdminUser is the moderation view of a farmer account.
type AdminUser struct {
	Ref
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	IsActive          *bool      `json:"isActive,omitempty"`
	PreferredLanguage string     `json:"preferredLanguage,omitempty"`
	Location          Location   `json:"location,omitempty"`
	SoilType          string     `json:"soilType,omitempty"`
	FarmSize          float64    `json:"farmSize,omitempty"`
	Experience        string     `json:"experience,omitempty"`
	CreatedAt         *time.Time `json:"createdAt,omitempty"`
	LastLogin         *time.Time `json:"lastLogin,omitempty"`
}

// Active reports the account state; an absent flag means active.
func (u AdminUser) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

// Badge is the status label shown next to the user.
func (u AdminUser) Badge() string {
	if u.Active() {
		return "Active"
	}
	return "Suspended"
}

// ToggleAction is the label of the moderation action available for the user.
func (u AdminUser) ToggleAction() string {
	if u.Active() {
		return "Suspend"
	}
	return "Activate"
}

// AdminUsersQuery filters the user list.
type AdminUsersQuery struct {
	Page   int
	Limit  int
	Search string
}

// AdminUsersResponse wraps GET /admin/users.
type AdminUsersResponse struct {
	Users      []AdminUser `json:"users"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"totalPages"`
}

// UserStatusRequest sets a user's active flag.
type UserStatusRequest struct {
	IsActive bool `json:"isActive"`
}

// UserStatusResponse wraps PATCH /admin/users/:id/status.
type UserStatusResponse struct {
	Message string    `json:"message"`
	User    AdminUser `json:"user"`
}

// AdminSummary aggregates platform counters.
type AdminSummary struct {
	Users struct {
		Total    int `json:"total"`
		Active   int `json:"active"`
		Inactive int `json:"inactive"`
	} `json:"users"`
	Listings struct {
		Total  int `json:"total"`
		Active int `json:"active"`
		Sold   int `json:"sold"`
	} `json:"listings"`
	Orders struct {
		Total    int            `json:"total"`
		ByStatus map[string]int `json:"byStatus"`
	} `json:"orders"`
}

// AdminOrdersQuery filters the order list.
type AdminOrdersQuery struct {
	Page   int
	Limit  int
	Status string
}

// AdminOrder is the moderation view of an order.
type AdminOrder struct {
	Ref
	Quantity  float64       `json:"quantity"`
	Status    OrderStatus   `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	Buyer     *Contact      `json:"buyerId,omitempty"`
	Listing   *OrderListing `json:"listingId,omitempty"`
}

// AdminOrdersResponse wraps GET /admin/orders.
type AdminOrdersResponse struct {
	Orders     []AdminOrder `json:"orders"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	TotalPages int          `json:"totalPages"`
}

// TrainingCategories are the classifier labels a sample may carry.
var TrainingCategories = []string{
	"crop_recommendation",
	"harvesting_guidance",
	"pest_control",
	"irrigation",
	"fertilization",
	"weather",
	"market_price",
	"general",
}

// TrainingSample is one labelled example for the classifier.
type TrainingSample struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Language string `json:"language,omitempty"`
}

// TrainingStats is the normalised classifier dataset summary. The server
// sends the counters either at the top level or nested under "stats".
type TrainingStats struct {
	TotalSamples int
	Categories   map[string]int
}

type trainingStatsBody struct {
	TotalSamples *int           `json:"totalSamples"`
	Categories   map[string]int `json:"categories"`
}

// UnmarshalJSON accepts both nesting shapes, preferring the nested one.
func (s *TrainingStats) UnmarshalJSON(data []byte) error {
	var raw struct {
		trainingStatsBody
		Stats *trainingStatsBody `json:"stats"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.TotalSamples = 0
	s.Categories = map[string]int{}
	if raw.Stats != nil && raw.Stats.TotalSamples != nil {
		s.TotalSamples = *raw.Stats.TotalSamples
	} else if raw.TotalSamples != nil {
		s.TotalSamples = *raw.TotalSamples
	}
	switch {
	case raw.Stats != nil && raw.Stats.Categories != nil:
		s.Categories = raw.Stats.Categories
	case raw.Categories != nil:
		s.Categories = raw.Categories
	}
	return nil
}

// ModelPerformance is the normalised classifier evaluation. Accuracy is nil
// when the server has none.
type ModelPerformance struct {
	Accuracy *float64
	Model    string
}

type modelPerformanceBody struct {
	Accuracy *float64 `json:"accuracy"`
	Model    string   `json:"model"`
}

// UnmarshalJSON accepts the counters at the top level or under "performance".
func (p *ModelPerformance) UnmarshalJSON(data []byte) error {
	var raw struct {
		modelPerformanceBody
		Performance *modelPerformanceBody `json:"performance"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Accuracy = raw.Accuracy
	p.Model = raw.Model
	if raw.Performance != nil {
		if raw.Performance.Accuracy != nil {
			p.Accuracy = raw.Performance.Accuracy
		}
		if raw.Performance.Model != "" {
			p.Model = raw.Performance.Model
		}
	}
	if p.Model == "" {
		p.Model = "N/A"
	}
	return nil
}

// TestModelRequest runs the classifier on ad-hoc queries.
type TestModelRequest struct {
	Queries  []string `json:"queries"`
	Language string   `json:"language,omitempty"`
}

// TestResult is one prediction returned by the classifier; it is displayed
// as-is.
type TestResult struct {
	Query      string   `json:"query"`
	Prediction string   `json:"prediction,omitempty"`
	Error      string   `json:"error,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Model      string   `json:"model,omitempty"`
}

// TestModelResponse wraps the test routes.
type TestModelResponse struct {
	Results []TestResult `json:"results"`
}
