package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agromitra/internal/api"
	"agromitra/internal/apitest"
	"agromitra/internal/models"
	"agromitra/internal/pkg/events"
	"agromitra/internal/storage"
	"agromitra/internal/storage/mocks"
)

type fixture struct {
	srv   *apitest.Server
	store *Store
	kv    *storage.Memory
	bus   *events.Bus
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)

	kv := storage.NewMemory()
	bus := events.NewBus()
	client := api.NewFarmer(srv.URL(), kv, bus)
	s := New(client, kv, bus, nil, opts...)
	t.Cleanup(s.Close)

	_, err := srv.AddFarmer(models.RegisterRequest{
		Name:     "Asha Patil",
		Email:    "asha@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	return &fixture{srv: srv, store: s, kv: kv, bus: bus}
}

func TestReduce_IsPure(t *testing.T) {
	before := InitialState()
	before.ChatMessages = []models.ChatMessage{{ID: "1"}}

	after := Reduce(before, AddChatMessage{Message: models.ChatMessage{ID: "2"}})
	assert.Len(t, before.ChatMessages, 1)
	assert.Len(t, after.ChatMessages, 2)

	after = Reduce(after, SetError{Message: "boom"})
	assert.Equal(t, "boom", after.Error)
	assert.Empty(t, Reduce(after, ClearError{}).Error)
}

func TestReduce_Actions(t *testing.T) {
	user := &models.User{Name: "Asha"}
	testCases := []struct {
		name   string
		action Action
		check  func(t *testing.T, s State)
	}{
		{name: "SetUser", action: SetUser{User: user}, check: func(t *testing.T, s State) { assert.Equal(t, user, s.User) }},
		{name: "SetAuthenticated", action: SetAuthenticated{Authenticated: true}, check: func(t *testing.T, s State) { assert.True(t, s.IsAuthenticated) }},
		{name: "SetAuthChecked", action: SetAuthChecked{Checked: true}, check: func(t *testing.T, s State) { assert.True(t, s.AuthChecked) }},
		{name: "SetLanguage", action: SetLanguage{Language: "tamil"}, check: func(t *testing.T, s State) { assert.Equal(t, "tamil", s.SelectedLanguage) }},
		{name: "SetCrops", action: SetCrops{Crops: []models.Crop{{Name: "Rice"}}}, check: func(t *testing.T, s State) { assert.Len(t, s.Crops, 1) }},
		{name: "SetChatMessages", action: SetChatMessages{Messages: []models.ChatMessage{{}, {}}}, check: func(t *testing.T, s State) { assert.Len(t, s.ChatMessages, 2) }},
		{name: "SetCalendarEvents", action: SetCalendarEvents{Calendars: []models.Calendar{{}}}, check: func(t *testing.T, s State) { assert.Len(t, s.CalendarEvents, 1) }},
		{name: "SetLoading", action: SetLoading{Loading: true}, check: func(t *testing.T, s State) { assert.True(t, s.IsLoading) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, Reduce(InitialState(), tc.action))
		})
	}
}

func TestStore_InitialLanguage(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "english", f.store.State().SelectedLanguage)
	assert.False(t, f.store.State().AuthChecked)
}

func TestStore_InitRehydrates(t *testing.T) {
	f := newFixture(t)
	token, err := f.srv.IssueToken("u1", apitest.RoleFarmer, time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.kv.Set(storage.KeyAuthToken, token))
	require.NoError(t, f.kv.Set(storage.KeyUser, `{"name":"Asha","email":"asha@example.com"}`))
	require.NoError(t, f.kv.Set(storage.KeyLanguage, "hindi"))

	checked := 0
	f.store.Subscribe(func(s State) {
		if s.AuthChecked {
			checked++
		}
	})

	f.store.Init()
	f.store.Init()

	state := f.store.State()
	assert.True(t, state.IsAuthenticated)
	require.NotNil(t, state.User)
	assert.Equal(t, "Asha", state.User.Name)
	assert.Equal(t, "hindi", state.SelectedLanguage)
	assert.True(t, state.AuthChecked)
	assert.Equal(t, 1, checked)
}

func TestStore_InitDropsExpiredToken(t *testing.T) {
	now := time.Now()
	f := newFixture(t, WithClock(func() time.Time { return now }))
	token, err := f.srv.IssueToken("u1", apitest.RoleFarmer, -time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.kv.Set(storage.KeyAuthToken, token))
	require.NoError(t, f.kv.Set(storage.KeyUser, `{"name":"Asha"}`))

	f.store.Init()

	assert.False(t, f.store.State().IsAuthenticated)
	_, ok := f.kv.Get(storage.KeyAuthToken)
	assert.False(t, ok)
	_, ok = f.kv.Get(storage.KeyUser)
	assert.False(t, ok)
}

func TestStore_InitDropsUnreadableUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mocks.NewMockStorage(ctrl)
	kv.EXPECT().Get(storage.KeyAuthToken).Return("opaque-token", true)
	kv.EXPECT().Get(storage.KeyUser).Return("{not json", true)
	gomock.InOrder(
		kv.EXPECT().Remove(storage.KeyAuthToken).Return(nil),
		kv.EXPECT().Remove(storage.KeyUser).Return(nil),
	)
	kv.EXPECT().Get(storage.KeyLanguage).Return("", false)

	s := New(api.New("farmer", "http://localhost:1"), kv, nil, nil)
	s.Init()

	state := s.State()
	assert.False(t, state.IsAuthenticated)
	assert.Nil(t, state.User)
	assert.True(t, state.AuthChecked)
}

func TestStore_Login(t *testing.T) {
	f := newFixture(t)
	f.store.Init()

	var loadingSeen bool
	f.store.Subscribe(func(s State) {
		if s.IsLoading {
			loadingSeen = true
		}
	})

	err := f.store.Login(context.Background(), "  ASHA@Example.com ", "secret123")
	require.NoError(t, err)

	state := f.store.State()
	assert.True(t, state.IsAuthenticated)
	assert.False(t, state.IsLoading)
	assert.True(t, loadingSeen)
	assert.Equal(t, "asha@example.com", state.User.Email)

	token, ok := f.kv.Get(storage.KeyAuthToken)
	assert.True(t, ok)
	assert.NotEmpty(t, token)
	raw, ok := f.kv.Get(storage.KeyUser)
	require.True(t, ok)
	var stored models.User
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, "Asha Patil", stored.Name)
}

func TestStore_LoginFailures(t *testing.T) {
	testCases := []struct {
		name     string
		email    string
		password string
		setup    func(srv *apitest.Server)
		expected string
	}{
		{name: "Wrong password", email: "asha@example.com", password: "nope", expected: "Invalid credentials"},
		{name: "Validation", email: "bad", password: "", expected: "Please include a valid email. Password is required"},
		{
			name: "Empty error body", email: "asha@example.com", password: "secret123",
			setup: func(srv *apitest.Server) {
				srv.Fail(http.MethodPost, "/auth/login", http.StatusInternalServerError, models.ErrorResponse{})
			},
			expected: LoginFailed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.setup != nil {
				tc.setup(f.srv)
			}

			err := f.store.Login(context.Background(), tc.email, tc.password)
			require.Error(t, err)

			var storeErr *Error
			require.True(t, errors.As(err, &storeErr))
			assert.Equal(t, tc.expected, storeErr.Message)
			assert.Equal(t, tc.expected, f.store.State().Error)
			assert.False(t, f.store.State().IsAuthenticated)
		})
	}
}

func TestStore_Register(t *testing.T) {
	f := newFixture(t)

	err := f.store.Register(context.Background(), models.RegisterRequest{Name: "Ravi", Email: "asha@example.com", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, "User already exists", err.Error())

	err = f.store.Register(context.Background(), models.RegisterRequest{Name: "Ravi", Email: "Ravi@Example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", f.store.State().User.Email)
	assert.Empty(t, f.store.State().Error)
}

func TestStore_Logout(t *testing.T) {
	f := newFixture(t)
	f.store.Init()
	require.NoError(t, f.store.Login(context.Background(), "asha@example.com", "secret123"))
	require.NoError(t, f.store.SetLanguage("kannada"))
	f.store.AddChatMessage(models.ChatMessage{ID: "1", IsUser: true, Message: "hi"})
	f.store.AddChatMessage(models.ChatMessage{ID: "1", IsUser: true, Message: "hi"})
	f.store.SetCalendarEvents([]models.Calendar{{Crop: "Rice"}})
	assert.Len(t, f.store.State().ChatMessages, 2)

	require.NoError(t, f.store.Logout())

	state := f.store.State()
	assert.Nil(t, state.User)
	assert.False(t, state.IsAuthenticated)
	assert.Empty(t, state.ChatMessages)
	assert.Empty(t, state.CalendarEvents)
	assert.Equal(t, "kannada", state.SelectedLanguage)
	_, ok := f.kv.Get(storage.KeyAuthToken)
	assert.False(t, ok)
	_, ok = f.kv.Get(storage.KeyUser)
	assert.False(t, ok)
}

func TestStore_ForcedLogoutOn401(t *testing.T) {
	f := newFixture(t)
	f.store.Init()
	require.NoError(t, f.store.Login(context.Background(), "asha@example.com", "secret123"))
	f.store.AddChatMessage(models.ChatMessage{ID: "1"})

	require.NoError(t, f.kv.Set(storage.KeyAuthToken, "tampered"))
	client := api.NewFarmer(f.srv.URL(), f.kv, f.bus)
	_, err := client.Auth.Profile(context.Background())
	assert.Equal(t, http.StatusUnauthorized, api.StatusOf(err))

	state := f.store.State()
	assert.False(t, state.IsAuthenticated)
	assert.Empty(t, state.ChatMessages)

	f.store.Close()
	require.NoError(t, f.store.Login(context.Background(), "asha@example.com", "secret123"))
	f.bus.Publish(events.AuthLogout)
	assert.True(t, f.store.State().IsAuthenticated)
}

func TestStore_T(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SetLanguage("klingon"))
	assert.Equal(t, "no-such-key", f.store.T("no-such-key"))
	assert.NotEqual(t, "dashboard", f.store.T("dashboard"))
}

func TestStore_SubscribeSnapshot(t *testing.T) {
	f := newFixture(t)
	var got []State
	unsubscribe := f.store.Subscribe(func(s State) { got = append(got, s) })

	f.store.SetCrops([]models.Crop{{Name: "Rice"}})
	unsubscribe()
	f.store.SetCrops(nil)

	require.Len(t, got, 1)
	got[0].Crops[0].Name = "changed"
	assert.Nil(t, f.store.State().Crops)
}
