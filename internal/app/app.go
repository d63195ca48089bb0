// Package app provides the feature controllers of the AgroMitra client.
// Each controller (chat, calendar, sell crops, admin dashboard, dashboard)
// issues API calls through the farmer or admin client, keeps its own view
// state and dispatches shared state to the store. Commands and screens only
// render what the controllers expose.
package app

import (
	"context"
	"strings"
	"time"

	"agromitra/internal/api"
	"agromitra/internal/models"
	"agromitra/internal/pkg/logger"
	"agromitra/internal/storage"
	"agromitra/internal/store"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// App encapsulates the dependencies shared by every controller.
type App struct {
	farmer *api.Client
	admin  *api.Client
	store  *store.Store
	kv     storage.Storage
	log    *logger.Logger

	now          func() time.Time
	pollInterval time.Duration
}

// Option customises an App.
type Option func(*App)

// WithClock replaces the clock used for timestamps and date classification.
func WithClock(now func() time.Time) Option {
	return func(app *App) { app.now = now }
}

// WithPollInterval changes how often the order watcher refreshes.
func WithPollInterval(d time.Duration) Option {
	return func(app *App) { app.pollInterval = d }
}

// NewApp creates an App over the farmer and admin clients, the state store
// and the key-value storage both clients read their tokens from.
func NewApp(farmer, admin *api.Client, st *store.Store, kv storage.Storage, log *logger.Logger, opts ...Option) *App {
	if log == nil {
		log = logger.Nop()
	}
	app := &App{
		farmer:       farmer,
		admin:        admin,
		store:        st,
		kv:           kv,
		log:          log,
		now:          time.Now,
		pollInterval: OrderPollInterval,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Store returns the global state store.
func (app *App) Store() *store.Store { return app.store }

// Now is the controllers' clock.
func (app *App) Now() time.Time { return app.now() }

func (app *App) language() string {
	return app.store.State().SelectedLanguage
}

func (app *App) requireAuth() error {
	if !app.store.State().IsAuthenticated {
		return ErrNotAuthenticated
	}
	return nil
}

// Register checks the password confirmation and creates the farmer account.
func (app *App) Register(ctx context.Context, req models.RegisterRequest, confirm string) error {
	if req.Password != confirm {
		return ErrPasswordMismatch
	}
	if len(req.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if req.PreferredLanguage == "" {
		req.PreferredLanguage = app.language()
	}
	req.Name = strings.TrimSpace(req.Name)
	return app.store.Register(ctx, req)
}
