package apitest

import (
	"net/http"
	"strings"

	"agromitra/internal/models"
	"agromitra/internal/pkg/security"

	"github.com/google/uuid"
)

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var errs []models.FieldError
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, models.FieldError{Msg: "Name is required", Param: "name"})
	}
	if !strings.Contains(req.Email, "@") {
		errs = append(errs, models.FieldError{Msg: "Please include a valid email", Param: "email"})
	}
	if len(req.Password) < 6 {
		errs = append(errs, models.FieldError{Msg: "Password must be at least 6 characters", Param: "password"})
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findByEmail(strings.ToLower(strings.TrimSpace(req.Email))) != nil {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}
	acc, err := s.addFarmerLocked(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	token, err := s.IssueToken(acc.user.ID, RoleFarmer, TokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, models.AuthResponse{Message: "User registered successfully", Token: token, User: acc.user})
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AuthRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var errs []models.FieldError
	if !strings.Contains(req.Email, "@") {
		errs = append(errs, models.FieldError{Msg: "Please include a valid email", Param: "email"})
	}
	if req.Password == "" {
		errs = append(errs, models.FieldError{Msg: "Password is required", Param: "password"})
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.findByEmail(req.Email)
	if acc == nil || security.CheckPassword(acc.hash, req.Password) != nil {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	if !acc.active {
		writeError(w, http.StatusForbidden, "Account is suspended. Please contact support.")
		return
	}
	token, err := s.IssueToken(acc.user.ID, RoleFarmer, TokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	now := s.now()
	acc.lastLogin = &now
	writeJSON(w, http.StatusOK, models.AuthResponse{Message: "Login successful", Token: token, User: acc.user})
}

func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, models.ProfileResponse{User: acc.user})
}

func (s *Server) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req models.User
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found")
		return
	}
	u := &acc.user
	if name := strings.TrimSpace(req.Name); name != "" {
		u.Name = name
	}
	if req.Phone != "" {
		u.Phone = req.Phone
	}
	if req.PreferredLanguage != "" {
		u.PreferredLanguage = req.PreferredLanguage
	}
	if !req.Location.IsZero() {
		u.Location = req.Location
	}
	if req.SoilType != "" {
		u.SoilType = req.SoilType
	}
	if req.FarmSize > 0 {
		u.FarmSize = req.FarmSize
	}
	if req.Experience != "" {
		u.Experience = req.Experience
	}
	writeJSON(w, http.StatusOK, models.ProfileResponse{Message: "Profile updated successfully", User: *u})
}

// classify is a keyword stand-in for the backend's query classifier.
func classify(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "pest") || strings.Contains(t, "insect"):
		return "pest_control"
	case strings.Contains(t, "price") || strings.Contains(t, "market"):
		return "market_price"
	case strings.Contains(t, "water") || strings.Contains(t, "irrigat"):
		return "irrigation"
	case strings.Contains(t, "fertili"):
		return "fertilization"
	case strings.Contains(t, "harvest"):
		return "harvesting_guidance"
	case strings.Contains(t, "weather") || strings.Contains(t, "rain"):
		return "weather"
	case strings.Contains(t, "crop") || strings.Contains(t, "grow") || strings.Contains(t, "sow"):
		return "crop_recommendation"
	default:
		return "general"
	}
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeValidation(w, []models.FieldError{{Msg: "Message is required", Param: "message"}})
		return
	}

	class := classify(req.Message)
	answer := "Here is some guidance on " + strings.ReplaceAll(class, "_", " ") + ": **monitor your field** regularly."
	s.recordChat(r, req.Message, answer, class, req.Language)

	writeJSON(w, http.StatusOK, map[string]any{
		"response":       map[string]string{"message": answer},
		"classification": class,
		"model":          "agromitra-nlp",
	})
}

func (s *Server) diseaseImageHandler(w http.ResponseWriter, r *http.Request) {
	var req models.DiseaseImageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !strings.HasPrefix(req.Image, "data:image/") {
		writeError(w, http.StatusBadRequest, "Please provide a valid image")
		return
	}

	answer := "The leaves show early signs of blight. Remove affected leaves and apply a copper fungicide."
	s.recordChat(r, req.Message, answer, "pest_control", req.Language)

	writeJSON(w, http.StatusOK, map[string]any{
		"response":       answer,
		"classification": "pest_control",
		"model":          "agromitra-vision",
	})
}

func (s *Server) recordChat(r *http.Request, message, response, class, lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.currentUser(r)
	if !ok {
		return
	}
	id := acc.user.ID
	s.chats[id] = append(s.chats[id], models.ChatHistoryEntry{
		Ref:            models.Ref{OID: uuid.NewString()},
		Message:        message,
		Response:       response,
		Classification: class,
		Language:       lang,
		Timestamp:      s.now(),
	})
}

func (s *Server) chatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found")
		return
	}
	chats := append([]models.ChatHistoryEntry{}, s.chats[acc.user.ID]...)
	writeJSON(w, http.StatusOK, models.ChatHistoryResponse{Chats: chats})
}
