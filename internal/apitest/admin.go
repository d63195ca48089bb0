package apitest

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"agromitra/internal/models"
	"agromitra/internal/pkg/auth"
	"agromitra/internal/pkg/security"

	"github.com/go-chi/chi/v5"
)

func (s *Server) adminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AuthRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	adm, ok := s.admins[strings.ToLower(strings.TrimSpace(req.Email))]
	if !ok || security.CheckPassword(adm.hash, req.Password) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid admin credentials")
		return
	}
	token, err := s.IssueToken(adm.admin.Email, RoleAdmin, TokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.AdminLoginResponse{Message: "Admin login successful", Token: token, Admin: adm.admin})
}

func (s *Server) adminMeHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	adm, ok := s.admins[auth.UserID(r.Context())]
	if !ok {
		writeError(w, http.StatusUnauthorized, "Admin not found")
		return
	}
	writeJSON(w, http.StatusOK, models.AdminMeResponse{Admin: adm.admin})
}

func adminUser(acc *account) models.AdminUser {
	active := acc.active
	created := acc.createdAt
	return models.AdminUser{
		Ref:               models.Ref{OID: acc.user.ID},
		Name:              acc.user.Name,
		Email:             acc.user.Email,
		Phone:             acc.user.Phone,
		IsActive:          &active,
		PreferredLanguage: acc.user.PreferredLanguage,
		Location:          acc.user.Location,
		SoilType:          acc.user.SoilType,
		FarmSize:          acc.user.FarmSize,
		Experience:        acc.user.Experience,
		CreatedAt:         &created,
		LastLogin:         acc.lastLogin,
	}
}

func totalPages(total, limit int) int {
	return (total + limit - 1) / limit
}

func (s *Server) adminUsersHandler(w http.ResponseWriter, r *http.Request) {
	search := strings.ToLower(r.URL.Query().Get("search"))
	pageNum, limit := intParam(r, "page", 1), intParam(r, "limit", 20)

	s.mu.Lock()
	out := []models.AdminUser{}
	for _, acc := range s.users {
		if search != "" &&
			!strings.Contains(strings.ToLower(acc.user.Name), search) &&
			!strings.Contains(acc.user.Email, search) {
			continue
		}
		out = append(out, adminUser(acc))
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(*out[j].CreatedAt) })
	writeJSON(w, http.StatusOK, models.AdminUsersResponse{
		Users:      page(out, pageNum, limit),
		Total:      len(out),
		Page:       pageNum,
		Limit:      limit,
		TotalPages: totalPages(len(out), limit),
	})
}

func (s *Server) userStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UserStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.users[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	acc.active = req.IsActive
	msg := "User activated"
	if !req.IsActive {
		msg = "User suspended"
	}
	writeJSON(w, http.StatusOK, models.UserStatusResponse{Message: msg, User: adminUser(acc)})
}

func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum models.AdminSummary
	sum.Users.Total = len(s.users)
	for _, acc := range s.users {
		if acc.active {
			sum.Users.Active++
		} else {
			sum.Users.Inactive++
		}
	}
	sum.Listings.Total = len(s.listings)
	for _, rec := range s.listings {
		switch rec.listing.Status {
		case models.ListingActive:
			sum.Listings.Active++
		case models.ListingSold:
			sum.Listings.Sold++
		}
	}
	sum.Orders.Total = len(s.orders)
	sum.Orders.ByStatus = map[string]int{}
	for _, rec := range s.orders {
		sum.Orders.ByStatus[string(rec.order.Status)]++
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) adminOrdersHandler(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	pageNum, limit := intParam(r, "page", 1), intParam(r, "limit", 20)

	s.mu.Lock()
	out := []models.AdminOrder{}
	for _, rec := range s.orders {
		o := rec.order
		if status != "" && string(o.Status) != status {
			continue
		}
		listing := o.Listing
		out = append(out, models.AdminOrder{
			Ref:       o.Ref,
			Quantity:  o.Quantity,
			Status:    o.Status,
			CreatedAt: o.CreatedAt,
			Buyer:     &models.Contact{Name: o.Buyer.Name, Email: o.Buyer.Email, Phone: o.Buyer.Phone},
			Listing:   &listing,
		})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	writeJSON(w, http.StatusOK, models.AdminOrdersResponse{
		Orders:     page(out, pageNum, limit),
		Total:      len(out),
		Page:       pageNum,
		Limit:      limit,
		TotalPages: totalPages(len(out), limit),
	})
}

// trainingRoutes mounts the classifier routes under prefix. The admin routes
// answer with the nested payload shapes, the farmer routes with flat ones,
// mirroring the two backend generations the client has to accept.
func (s *Server) trainingRoutes(router chi.Router, prefix string, nested bool) {
	router.Get(prefix+"/stats", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		total := len(s.samples)
		cats := map[string]int{}
		for _, sample := range s.samples {
			cats[sample.Category]++
		}
		s.mu.Unlock()

		body := map[string]any{"totalSamples": total, "categories": cats}
		if nested {
			body = map[string]any{"success": true, "stats": body}
		}
		writeJSON(w, http.StatusOK, body)
	})

	router.Get(prefix+"/performance", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"accuracy": 0.87, "model": "naive-bayes"}
		if nested {
			body = map[string]any{"success": true, "performance": body}
		}
		writeJSON(w, http.StatusOK, body)
	})

	router.Post(prefix+"/retrain", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		n := len(s.samples)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Model retrained with %d samples", n)})
	})

	router.Post(prefix+"/add-data", func(w http.ResponseWriter, r *http.Request) {
		var sample models.TrainingSample
		if err := decode(r, &sample); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var errs []models.FieldError
		if strings.TrimSpace(sample.Text) == "" {
			errs = append(errs, models.FieldError{Msg: "Text is required", Param: "text"})
		}
		if !contains(models.TrainingCategories, sample.Category) {
			errs = append(errs, models.FieldError{Msg: "Invalid category", Param: "category"})
		}
		if len(errs) > 0 {
			writeValidation(w, errs)
			return
		}
		s.mu.Lock()
		s.samples = append(s.samples, sample)
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "Training data added successfully"})
	})

	router.Post(prefix+"/test", func(w http.ResponseWriter, r *http.Request) {
		var req models.TestModelRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(req.Queries) == 0 {
			writeValidation(w, []models.FieldError{{Msg: "Queries must be a non-empty array", Param: "queries"}})
			return
		}
		confidence := 0.8
		results := make([]models.TestResult, 0, len(req.Queries))
		for _, q := range req.Queries {
			results = append(results, models.TestResult{
				Query:      q,
				Prediction: classify(q),
				Confidence: &confidence,
				Model:      "naive-bayes",
			})
		}
		writeJSON(w, http.StatusOK, models.TestModelResponse{Results: results})
	})
}
