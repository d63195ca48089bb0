// Package store holds the global application state: the farmer session, the
// selected language, the crop catalogue, the chat transcript and the calendar
// list. State changes go through a single reducer; subscribers receive a
// snapshot after every dispatch. The store also owns the session lifecycle:
// it rehydrates the session from storage, logs in and out, and clears the
// session when the API layer announces a forced logout on the event bus.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"agromitra/internal/api"
	"agromitra/internal/i18n"
	"agromitra/internal/models"
	"agromitra/internal/pkg/auth"
	"agromitra/internal/pkg/events"
	"agromitra/internal/pkg/logger"
	"agromitra/internal/storage"

	"go.uber.org/zap"
)

// Fallback messages used when the server gives no usable reason.
const (
	LoginFailed        = "Login failed"
	RegistrationFailed = "Registration failed"
)

// Error is a failed session action. Message is what the user should see.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Store is the application state container.
type Store struct {
	client  *api.Client
	storage storage.Storage
	bus     *events.Bus
	log     *logger.Logger
	now     func() time.Time

	mu     sync.RWMutex
	state  State
	subs   map[int]func(State)
	nextID int

	initOnce  sync.Once
	closeOnce sync.Once
	unsub     func()
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces the clock used to check token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a store that talks to the API through client and persists the
// session in st. bus may be nil.
func New(client *api.Client, st storage.Storage, bus *events.Bus, l *logger.Logger, opts ...Option) *Store {
	if l == nil {
		l = logger.Nop()
	}
	s := &Store{
		client:  client,
		storage: st,
		bus:     bus,
		log:     l,
		now:     time.Now,
		state:   InitialState(),
		subs:    map[int]func(State){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init rehydrates the session and language from storage and starts listening
// for forced logouts. AuthChecked becomes true once, at the end of the first call.
func (s *Store) Init() {
	s.initOnce.Do(func() {
		s.rehydrate()
		if lang, ok := s.storage.Get(storage.KeyLanguage); ok && lang != "" {
			s.Dispatch(SetLanguage{Language: lang})
		}
		if s.bus != nil {
			s.unsub = s.bus.Subscribe(events.AuthLogout, func(events.Event) {
				s.log.Info("session rejected by server, logging out")
				s.resetSession()
			})
		}
		s.Dispatch(SetAuthChecked{Checked: true})
	})
}

func (s *Store) rehydrate() {
	token, okToken := s.storage.Get(storage.KeyAuthToken)
	raw, okUser := s.storage.Get(storage.KeyUser)
	if !okToken || !okUser || token == "" {
		return
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.log.Warn("dropping unreadable stored session", zap.Error(err))
		s.clearStoredSession()
		return
	}
	if auth.Expired(token, s.now()) {
		s.log.Info("dropping expired stored session")
		s.clearStoredSession()
		return
	}

	s.Dispatch(SetUser{User: &user})
	s.Dispatch(SetAuthenticated{Authenticated: true})
}

// Close stops listening for forced logouts.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.unsub != nil {
			s.unsub()
		}
	})
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn to receive a snapshot after every dispatch and
// returns a function that removes it.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Dispatch applies a through the reducer and notifies subscribers.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	snapshot := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Login authenticates with email and password. The email is trimmed and
// lower-cased first. On failure the user-facing message is stored in
// State.Error and returned as *Error.
func (s *Store) Login(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	s.Dispatch(SetLoading{Loading: true})
	s.Dispatch(ClearError{})
	defer s.Dispatch(SetLoading{Loading: false})

	resp, err := s.client.Auth.Login(ctx, email, password)
	if err != nil {
		return s.fail(err, LoginFailed)
	}
	return s.startSession(resp)
}

// Register creates an account and starts its session. Password confirmation
// is the caller's concern.
func (s *Store) Register(ctx context.Context, req models.RegisterRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	s.Dispatch(SetLoading{Loading: true})
	s.Dispatch(ClearError{})
	defer s.Dispatch(SetLoading{Loading: false})

	resp, err := s.client.Auth.Register(ctx, req)
	if err != nil {
		return s.fail(err, RegistrationFailed)
	}
	return s.startSession(resp)
}

func (s *Store) fail(err error, fallback string) error {
	msg := api.UserMessage(err, fallback)
	s.log.Debug("session action failed", zap.String("message", msg), zap.Error(err))
	s.Dispatch(SetError{Message: msg})
	return &Error{Message: msg, Err: err}
}

func (s *Store) startSession(resp *models.AuthResponse) error {
	raw, err := json.Marshal(resp.User)
	if err != nil {
		return err
	}
	if err := s.storage.Set(storage.KeyAuthToken, resp.Token); err != nil {
		return err
	}
	if err := s.storage.Set(storage.KeyUser, string(raw)); err != nil {
		return err
	}

	user := resp.User
	s.Dispatch(SetUser{User: &user})
	s.Dispatch(SetAuthenticated{Authenticated: true})
	return nil
}

// Logout ends the farmer session locally; the server is not contacted.
func (s *Store) Logout() error {
	err := s.clearStoredSession()
	s.resetSession()
	return err
}

// SetUser replaces the session user and persists it, e.g. after a profile update.
func (s *Store) SetUser(user models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.storage.Set(storage.KeyUser, string(raw)); err != nil {
		return err
	}
	s.Dispatch(SetUser{User: &user})
	return nil
}

func (s *Store) clearStoredSession() error {
	return storage.RemoveAll(s.storage, storage.KeyAuthToken, storage.KeyUser)
}

func (s *Store) resetSession() {
	s.Dispatch(SetUser{User: nil})
	s.Dispatch(SetAuthenticated{Authenticated: false})
	s.Dispatch(SetChatMessages{Messages: nil})
	s.Dispatch(SetCalendarEvents{Calendars: nil})
}

// SetLanguage persists code and makes it the current language.
func (s *Store) SetLanguage(code string) error {
	s.Dispatch(SetLanguage{Language: code})
	return s.storage.Set(storage.KeyLanguage, code)
}

// T translates key into the current language.
func (s *Store) T(key string) string {
	s.mu.RLock()
	lang := s.state.SelectedLanguage
	s.mu.RUnlock()
	return i18n.T(lang, key)
}

// AddChatMessage appends msg to the transcript.
func (s *Store) AddChatMessage(msg models.ChatMessage) {
	s.Dispatch(AddChatMessage{Message: msg})
}

// SetCrops replaces the cached crop catalogue.
func (s *Store) SetCrops(crops []models.Crop) {
	s.Dispatch(SetCrops{Crops: crops})
}

// SetCalendarEvents replaces the cached calendar list.
func (s *Store) SetCalendarEvents(calendars []models.Calendar) {
	s.Dispatch(SetCalendarEvents{Calendars: calendars})
}

// ClearError removes the current error message.
func (s *Store) ClearError() {
	s.Dispatch(ClearError{})
}
