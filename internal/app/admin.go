package app

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"agromitra/internal/api"
	"agromitra/internal/models"
	"agromitra/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	adminUsersLimit  = 100
	adminOrdersLimit = 20

	adminLoadFailed = "Failed to load admin dashboard"
)

// Section names a part of the admin dashboard that loads on its own.
type Section string

const (
	SectionUsers       Section = "users"
	SectionSummary     Section = "summary"
	SectionOrders      Section = "orders"
	SectionStats       Section = "training stats"
	SectionPerformance Section = "model performance"
)

var sectionOrder = []Section{SectionUsers, SectionSummary, SectionOrders, SectionStats, SectionPerformance}

// Session roles returned by CombinedLogin.
const (
	RoleAdmin  = "admin"
	RoleFarmer = "farmer"
)

// AdminLogin starts an admin session. The farmer session is ended: only one
// kind of session is active at a time.
func (app *App) AdminLogin(ctx context.Context, email, password string) (*models.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	resp, err := app.admin.Admin.Login(ctx, email, password)
	if err != nil {
		return nil, failure(err, "Admin login failed")
	}

	raw, err := json.Marshal(resp.Admin)
	if err != nil {
		return nil, err
	}
	if err := app.kv.Set(storage.KeyAdmin, resp.Token); err != nil {
		return nil, err
	}
	if err := app.kv.Set(storage.KeyAdminUser, string(raw)); err != nil {
		return nil, err
	}
	if err := app.store.Logout(); err != nil {
		app.log.Warn("failed to clear farmer session", zap.Error(err))
	}
	admin := resp.Admin
	return &admin, nil
}

// CombinedLogin tries the credentials as an admin first and falls back to a
// farmer login when the admin route rejects them. Starting either session
// ends the other. It returns the role of the session that was started.
func (app *App) CombinedLogin(ctx context.Context, email, password string) (string, error) {
	_, err := app.AdminLogin(ctx, email, password)
	if err == nil {
		return RoleAdmin, nil
	}
	switch api.StatusOf(err) {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
	default:
		return "", err
	}
	if err := app.store.Login(ctx, email, password); err != nil {
		return "", err
	}
	if err := app.AdminLogout(); err != nil {
		app.log.Warn("failed to clear admin session", zap.Error(err))
	}
	return RoleFarmer, nil
}

// AdminSession returns the stored admin identity, if any.
func (app *App) AdminSession() (*models.Admin, bool) {
	token, ok := app.kv.Get(storage.KeyAdmin)
	if !ok || token == "" {
		return nil, false
	}
	raw, ok := app.kv.Get(storage.KeyAdminUser)
	if !ok {
		return &models.Admin{}, true
	}
	var admin models.Admin
	if err := json.Unmarshal([]byte(raw), &admin); err != nil {
		return &models.Admin{}, true
	}
	return &admin, true
}

// AdminLogout removes the admin session keys.
func (app *App) AdminLogout() error {
	return storage.RemoveAll(app.kv, storage.KeyAdmin, storage.KeyAdminUser)
}

// expireAdmin drops the admin session when err is an authorization failure
// and reports whether it did.
func (app *App) expireAdmin(err error) bool {
	switch api.StatusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		if rmErr := app.AdminLogout(); rmErr != nil {
			app.log.Warn("failed to remove admin session", zap.Error(rmErr))
		}
		return true
	}
	return false
}

// Dashboard is the admin console content. Nil sections failed to load.
type Dashboard struct {
	Admin       models.Admin
	Users       []models.AdminUser
	TotalUsers  int
	Summary     *models.AdminSummary
	Orders      []models.AdminOrder
	Stats       *models.TrainingStats
	Performance *models.ModelPerformance
	Failed      []Section
}

// Warning names the sections that failed, or is empty.
func (d *Dashboard) Warning() string {
	if len(d.Failed) == 0 {
		return ""
	}
	names := make([]string, len(d.Failed))
	for i, s := range d.Failed {
		names[i] = string(s)
	}
	return "Some dashboard sections failed to load: " + strings.Join(names, ", ")
}

// AdminView drives the admin console.
type AdminView struct {
	app *App

	mu          sync.Mutex
	dash        *Dashboard
	search      string
	orderStatus string
	notice      string
}

// NewAdmin returns the admin console controller.
func (app *App) NewAdmin() *AdminView {
	return &AdminView{app: app}
}

// FilterOrders restricts the order section to status; "" shows all.
func (v *AdminView) FilterOrders(status string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.orderStatus = status
}

// Notice is the message of the last moderation action.
func (v *AdminView) Notice() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.notice
}

// Dashboard returns the last loaded dashboard, or nil.
func (v *AdminView) Dashboard() *Dashboard {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dash
}

// Load verifies the admin identity and then loads every section in
// parallel. A rejected identity check ends the admin session and returns
// ErrSessionExpired; failed sections are listed in Dashboard.Failed.
func (v *AdminView) Load(ctx context.Context, search string) (*Dashboard, error) {
	admin, err := v.app.admin.Admin.Me(ctx)
	if err != nil {
		if v.app.expireAdmin(err) {
			return nil, ErrSessionExpired
		}
		return nil, failure(err, adminLoadFailed)
	}

	v.mu.Lock()
	v.search = search
	status := v.orderStatus
	v.mu.Unlock()

	dash := &Dashboard{Admin: *admin}
	var (
		mu     sync.Mutex
		failed = map[Section]bool{}
		g      errgroup.Group
	)
	section := func(name Section, load func() error) {
		g.Go(func() error {
			if err := load(); err != nil {
				v.app.log.Debug("dashboard section failed", zap.String("section", string(name)), zap.Error(err))
				mu.Lock()
				failed[name] = true
				mu.Unlock()
			}
			return nil
		})
	}

	client := v.app.admin
	section(SectionUsers, func() error {
		resp, err := client.Admin.Users(ctx, models.AdminUsersQuery{Limit: adminUsersLimit, Search: search})
		if err != nil {
			return err
		}
		dash.Users, dash.TotalUsers = resp.Users, resp.Total
		return nil
	})
	section(SectionSummary, func() error {
		var err error
		dash.Summary, err = client.Admin.Summary(ctx)
		return err
	})
	section(SectionOrders, func() error {
		resp, err := client.Admin.Orders(ctx, models.AdminOrdersQuery{Limit: adminOrdersLimit, Status: status})
		if err != nil {
			return err
		}
		dash.Orders = resp.Orders
		return nil
	})
	section(SectionStats, func() error {
		var err error
		dash.Stats, err = client.AdminTraining.Stats(ctx)
		return err
	})
	section(SectionPerformance, func() error {
		var err error
		dash.Performance, err = client.AdminTraining.Performance(ctx)
		return err
	})
	g.Wait()

	for _, s := range sectionOrder {
		if failed[s] {
			dash.Failed = append(dash.Failed, s)
		}
	}

	v.mu.Lock()
	v.dash = dash
	v.mu.Unlock()
	return dash, nil
}

// ToggleUser flips the account state of user and reloads the dashboard.
func (v *AdminView) ToggleUser(ctx context.Context, user models.AdminUser) error {
	resp, err := v.app.admin.Admin.SetUserStatus(ctx, user.Key(), !user.Active())
	if err != nil {
		if v.app.expireAdmin(err) {
			return ErrSessionExpired
		}
		return failure(err, "Failed to update user status")
	}

	v.mu.Lock()
	v.notice = resp.Message
	search := v.search
	v.mu.Unlock()

	_, err = v.Load(ctx, search)
	return err
}

// Training returns the training controller working on the admin routes.
func (v *AdminView) Training() *TrainingView {
	return &TrainingView{app: v.app, svc: v.app.admin.AdminTraining, admin: true}
}

// TrainingView manages the intent classifier's dataset and model.
type TrainingView struct {
	app   *App
	svc   *api.TrainingService
	admin bool
}

// NewTraining returns the training controller on the farmer routes.
func (app *App) NewTraining() *TrainingView {
	return &TrainingView{app: app, svc: app.farmer.Training}
}

func (v *TrainingView) fail(err error, fallback string) error {
	if v.admin && v.app.expireAdmin(err) {
		return ErrSessionExpired
	}
	return failure(err, fallback)
}

// Stats returns the dataset summary.
func (v *TrainingView) Stats(ctx context.Context) (*models.TrainingStats, error) {
	stats, err := v.svc.Stats(ctx)
	if err != nil {
		return nil, v.fail(err, "Failed to load training stats")
	}
	return stats, nil
}

// Performance returns the model evaluation.
func (v *TrainingView) Performance(ctx context.Context) (*models.ModelPerformance, error) {
	perf, err := v.svc.Performance(ctx)
	if err != nil {
		return nil, v.fail(err, "Failed to load model performance")
	}
	return perf, nil
}

// AddSample adds one labelled example. An empty language means the current one.
func (v *TrainingView) AddSample(ctx context.Context, sample models.TrainingSample) (string, error) {
	sample.Text = strings.TrimSpace(sample.Text)
	if sample.Text == "" || sample.Category == "" {
		return "", ErrEmptySample
	}
	if sample.Language == "" {
		sample.Language = v.app.language()
	}
	resp, err := v.svc.AddData(ctx, sample)
	if err != nil {
		return "", v.fail(err, "Failed to add training data")
	}
	return resp.Message, nil
}

// Retrain rebuilds the model from the stored samples.
func (v *TrainingView) Retrain(ctx context.Context) (string, error) {
	resp, err := v.svc.Retrain(ctx)
	if err != nil {
		return "", v.fail(err, "Failed to retrain model")
	}
	return resp.Message, nil
}

// SplitQueries turns a block of text into one query per non-blank line.
func SplitQueries(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Test classifies every non-blank line of text. Results are returned as the
// server sent them.
func (v *TrainingView) Test(ctx context.Context, text string) ([]models.TestResult, error) {
	queries := SplitQueries(text)
	if len(queries) == 0 {
		return nil, nil
	}
	results, err := v.svc.Test(ctx, queries, v.app.language())
	if err != nil {
		return nil, v.fail(err, "Failed to test model")
	}
	return results, nil
}
