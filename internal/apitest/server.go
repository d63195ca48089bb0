// Package apitest runs an in-memory stand-in for the advisory platform API.
// It serves the routes and response shapes of the real backend from a chi
// router behind an httptest server, so the client, store and controllers can
// be exercised end to end. Failures can be injected per route.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"agromitra/internal/models"
	"agromitra/internal/pkg/auth"
	"agromitra/internal/pkg/logger"
	"agromitra/internal/pkg/security"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Roles carried by the tokens the server issues.
const (
	RoleFarmer = "farmer"
	RoleAdmin  = "admin"
)

// TokenTTL is the lifetime of issued tokens.
const TokenTTL = 3 * time.Hour

const apiPrefix = "/api"

type account struct {
	user      models.User
	hash      string
	active    bool
	createdAt time.Time
	lastLogin *time.Time
}

type adminAccount struct {
	admin models.Admin
	hash  string
}

type calendarRecord struct {
	owner    string
	calendar models.Calendar
}

type listingRecord struct {
	owner   string
	listing models.Listing
}

type orderRecord struct {
	seller    string
	listingID string
	order     models.Order
}

type failure struct {
	status int
	body   models.ErrorResponse
}

// Server is the fake backend. The zero value is not usable; call New.
type Server struct {
	srv    *httptest.Server
	log    *logger.Logger
	secret []byte
	now    func() time.Time

	mu        sync.Mutex
	users     map[string]*account
	admins    map[string]*adminAccount
	crops     []models.Crop
	prices    []models.MarketPrice
	weather   map[string]models.Weather
	calendars map[string]*calendarRecord
	listings  map[string]*listingRecord
	orders    map[string]*orderRecord
	chats     map[string][]models.ChatHistoryEntry
	samples   []models.TrainingSample
	failures  map[string]failure
	requests  []string
}

// Option customises a Server.
type Option func(*Server)

// WithLogger logs every served request on l.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithClock replaces the server clock used for timestamps and the upcoming feed.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New starts a server seeded with a small crop catalogue, market prices and
// one admin account (see DefaultAdminEmail).
func New(opts ...Option) *Server {
	s := &Server{
		log:       logger.Nop(),
		secret:    []byte(uuid.NewString()),
		now:       time.Now,
		users:     map[string]*account{},
		admins:    map[string]*adminAccount{},
		weather:   map[string]models.Weather{},
		calendars: map[string]*calendarRecord{},
		listings:  map[string]*listingRecord{},
		orders:    map[string]*orderRecord{},
		chats:     map[string][]models.ChatHistoryEntry{},
		failures:  map[string]failure{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.seed()
	s.srv = httptest.NewServer(s.NewRouter())
	return s
}

// URL is the server root, without the /api prefix.
func (s *Server) URL() string { return s.srv.URL }

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// NewRouter builds the route table.
func (s *Server) NewRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(s.log.WithLogging(), s.intercept)

	router.Route(apiPrefix, func(r chi.Router) {
		r.Post("/auth/register", s.registerHandler)
		r.Post("/auth/login", s.loginHandler)
		r.Post("/admin/login", s.adminLoginHandler)

		r.Get("/crops", s.listCropsHandler)
		r.Get("/crops/market-prices", s.marketPricesHandler)
		r.Post("/crops/recommend", s.recommendHandler)
		r.Get("/crops/{id}", s.getCropHandler)
		r.Get("/crops/{id}/{guide}", s.cropGuideHandler)

		r.Get("/weather/current", s.weatherHandler)
		r.Get("/voice/languages", s.voiceLanguagesHandler)
		r.Get("/voice/formats", s.voiceFormatsHandler)

		r.Get("/marketplace/listings/browse", s.browseHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.CheckJWTMiddleware(s.secret, RoleFarmer))
			r.Get("/auth/profile", s.profileHandler)
			r.Put("/auth/profile", s.updateProfileHandler)

			r.Post("/chat/message", s.chatHandler)
			r.Post("/chat/disease-image", s.diseaseImageHandler)
			r.Get("/chat/history", s.chatHistoryHandler)

			r.Post("/calendar", s.createCalendarHandler)
			r.Get("/calendar", s.listCalendarsHandler)
			r.Get("/calendar/upcoming/activities", s.upcomingHandler)
			r.Delete("/calendar/{id}", s.deleteCalendarHandler)
			r.Post("/calendar/{id}/activities", s.addActivityHandler)
			r.Put("/calendar/{id}/activities/{activityId}", s.updateActivityHandler)
			r.Delete("/calendar/{id}/activities/{activityId}", s.deleteActivityHandler)

			r.Get("/marketplace/listings/my", s.myListingsHandler)
			r.Post("/marketplace/listings", s.createListingHandler)
			r.Patch("/marketplace/listings/{id}", s.updateListingHandler)
			r.Delete("/marketplace/listings/{id}", s.removeListingHandler)

			r.Get("/orders/for-seller", s.sellerOrdersHandler)
			r.Put("/orders/{id}/status", s.orderStatusHandler)

			s.trainingRoutes(r, "/training", false)
		})

		r.Get("/marketplace/listings/{id}", s.getListingHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.CheckJWTMiddleware(s.secret, RoleAdmin))
			r.Get("/admin/me", s.adminMeHandler)
			r.Get("/admin/users", s.adminUsersHandler)
			r.Patch("/admin/users/{id}/status", s.userStatusHandler)
			r.Get("/admin/summary", s.summaryHandler)
			r.Get("/admin/orders", s.adminOrdersHandler)

			s.trainingRoutes(r, "/admin/training", true)
		})
	})
	return router
}

// intercept records every request and serves injected failures.
func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, apiPrefix)
		key := r.Method + " " + path

		s.mu.Lock()
		entry := key
		if r.URL.RawQuery != "" {
			entry += "?" + r.URL.RawQuery
		}
		s.requests = append(s.requests, entry)
		f, failing := s.failures[key]
		s.mu.Unlock()

		if failing {
			writeJSON(w, f.status, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Fail makes every request to method path (without the /api prefix) answer
// status with body until Recover is called.
func (s *Server) Fail(method, path string, status int, body models.ErrorResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Recover removes an injected failure.
func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Requests lists the requests received so far as "METHOD /path?query".
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Hits counts the requests received for method path, ignoring query strings.
func (s *Server) Hits(method, path string) int {
	key := method + " " + path
	n := 0
	for _, r := range s.Requests() {
		if r == key || strings.HasPrefix(r, key+"?") {
			n++
		}
	}
	return n
}

// IssueToken mints a token for subject with the given role and lifetime.
func (s *Server) IssueToken(subject, role string, ttl time.Duration) (string, error) {
	return auth.GenerateToken(subject, role, ttl, s.secret)
}

// AddFarmer registers an account directly, bypassing validation.
func (s *Server) AddFarmer(req models.RegisterRequest) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.addFarmerLocked(req)
	if err != nil {
		return models.User{}, err
	}
	return acc.user, nil
}

// AddAdmin creates an admin account.
func (s *Server) AddAdmin(email, password string) error {
	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[strings.ToLower(email)] = &adminAccount{
		admin: models.Admin{Email: strings.ToLower(email), Role: RoleAdmin},
		hash:  hash,
	}
	return nil
}

// SetWeather makes location resolvable by the weather route.
func (s *Server) SetWeather(location string, w models.Weather) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.Location == "" {
		w.Location = location
	}
	s.weather[strings.ToLower(location)] = w
}

// AddOrder places an order by buyer on listingID and returns its id.
func (s *Server) AddOrder(listingID string, buyer models.OrderBuyer, quantity float64, status models.OrderStatus) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.listings[listingID]
	if !ok {
		return "", false
	}
	id := uuid.NewString()
	l := rec.listing
	s.orders[id] = &orderRecord{
		seller:    rec.owner,
		listingID: listingID,
		order: models.Order{
			Ref:   models.Ref{OID: id},
			Buyer: buyer,
			Listing: models.OrderListing{
				CropName:     l.CropName,
				Unit:         l.Unit,
				Quantity:     l.Quantity,
				PricePerUnit: nullDecimal(l.PricePerUnit),
				Seller:       l.Seller,
			},
			Quantity:  quantity,
			Status:    status,
			CreatedAt: s.now(),
		},
	}
	return id, true
}

// OrderStatus returns the stored status of an order.
func (s *Server) OrderStatus(id string) models.OrderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.orders[id]; ok {
		return rec.order.Status
	}
	return ""
}

// UserActive reports the stored active flag of a farmer account.
func (s *Server) UserActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.users[id]
	return ok && acc.active
}

// ListingIDs returns the ids of the listings owned by userID.
func (s *Server) ListingIDs(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, rec := range s.listings {
		if rec.owner == userID {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Server) addFarmerLocked(req models.RegisterRequest) (*account, error) {
	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	lang := req.PreferredLanguage
	if lang == "" {
		lang = "english"
	}
	acc := &account{
		user: models.User{
			Ref:               models.Ref{ID: id},
			Name:              strings.TrimSpace(req.Name),
			Email:             strings.ToLower(strings.TrimSpace(req.Email)),
			Phone:             req.Phone,
			PreferredLanguage: lang,
			Location:          req.Location,
			SoilType:          req.SoilType,
			FarmSize:          req.FarmSize,
			Experience:        req.Experience,
		},
		hash:      hash,
		active:    true,
		createdAt: s.now(),
	}
	s.users[id] = acc
	return acc, nil
}

func (s *Server) findByEmail(email string) *account {
	for _, acc := range s.users {
		if acc.user.Email == email {
			return acc
		}
	}
	return nil
}

// currentUser resolves the authenticated farmer; it must be called with s.mu held.
func (s *Server) currentUser(r *http.Request) (*account, bool) {
	acc, ok := s.users[auth.UserID(r.Context())]
	return acc, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Message: message})
}

func writeValidation(w http.ResponseWriter, errs []models.FieldError) {
	writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Errors: errs})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
