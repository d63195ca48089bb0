package app

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"agromitra/internal/api"
	"agromitra/internal/apitest"
	"agromitra/internal/models"
	"agromitra/internal/pkg/events"
	"agromitra/internal/storage"
	"agromitra/internal/store"
)

const (
	farmerEmail    = "asha@example.com"
	farmerPassword = "secret123"
)

type env struct {
	srv   *apitest.Server
	kv    *storage.Memory
	bus   *events.Bus
	store *store.Store
	app   *App
	user  models.User
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)

	kv := storage.NewMemory()
	bus := events.NewBus()
	farmer := api.NewFarmer(srv.URL(), kv, bus)
	admin := api.NewAdmin(srv.URL(), kv)
	st := store.New(farmer, kv, bus, nil)
	st.Init()
	t.Cleanup(st.Close)

	user, err := srv.AddFarmer(models.RegisterRequest{
		Name:     "Asha Patil",
		Email:    farmerEmail,
		Password: farmerPassword,
		Phone:    "9876543210",
		Location: models.Location{State: "Maharashtra", District: "Pune", Village: "Baramati"},
		SoilType: "black",
	})
	require.NoError(t, err)

	return &env{
		srv:   srv,
		kv:    kv,
		bus:   bus,
		store: st,
		app:   NewApp(farmer, admin, st, kv, nil, opts...),
		user:  user,
	}
}

func (e *env) login(t *testing.T) {
	t.Helper()
	require.NoError(t, e.store.Login(context.Background(), farmerEmail, farmerPassword))
}

func TestApp_Register(t *testing.T) {
	testCases := []struct {
		name     string
		password string
		confirm  string
		expected error
	}{
		{name: "Mismatch", password: "secret123", confirm: "secret124", expected: ErrPasswordMismatch},
		{name: "Too short", password: "abc", confirm: "abc", expected: ErrPasswordTooShort},
		{name: "Valid", password: "secret123", confirm: "secret123"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			req := models.RegisterRequest{Name: " Ravi ", Email: "ravi@example.com", Password: tc.password}

			err := e.app.Register(context.Background(), req, tc.confirm)
			if tc.expected != nil {
				assert.ErrorIs(t, err, tc.expected)
				assert.Equal(t, 0, e.srv.Hits(http.MethodPost, "/auth/register"))
				return
			}
			require.NoError(t, err)
			state := e.store.State()
			assert.True(t, state.IsAuthenticated)
			assert.Equal(t, "Ravi", state.User.Name)
			assert.Equal(t, "english", state.User.PreferredLanguage)
		})
	}
}

func TestMessage(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "Nil", err: nil, expected: ""},
		{name: "Controller error", err: &Error{Message: "Failed to save listing"}, expected: "Failed to save listing"},
		{name: "Session expired", err: ErrSessionExpired, expected: SessionExpiredMessage},
		{name: "Wrapped sentinel", err: errors.Join(errors.New("form"), ErrInvalidListing), expected: InvalidListingMessage},
		{name: "Unreachable", err: api.ErrUnreachable, expected: api.NetworkMessage},
		{name: "Server message", err: &api.Error{Status: 500, Body: models.ErrorResponse{Message: "Server error"}}, expected: "Server error"},
		{name: "Unknown", err: errors.New("boom"), expected: "Something went wrong"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Message(tc.err, "Something went wrong"))
		})
	}
}

func TestFormatDetails(t *testing.T) {
	out := formatDetails([]models.ErrorDetail{
		{Field: "season", Value: "", Message: "Season is required"},
		{Field: "soilType", Value: "clay", Message: "Invalid soil type"},
	})
	assert.Equal(t, "season:  - Season is required\nsoilType: clay - Invalid soil type", out)
}

// FlowSuite runs the main user journeys against the fake backend.
type FlowSuite struct {
	suite.Suite
	env *env
	ctx context.Context
}

func (s *FlowSuite) SetupTest() {
	s.env = newEnv(s.T())
	s.ctx = context.Background()
}

func (s *FlowSuite) TestChatAfterLogin() {
	s.env.login(s.T())
	token, ok := s.env.kv.Get(storage.KeyAuthToken)
	s.Require().True(ok)
	s.Require().NotEmpty(token)

	var lengths []int
	var firstIsUser bool
	unsubscribe := s.env.store.Subscribe(func(st store.State) {
		lengths = append(lengths, len(st.ChatMessages))
		if len(st.ChatMessages) == 1 {
			firstIsUser = st.ChatMessages[0].IsUser
		}
	})
	defer unsubscribe()

	chat := s.env.app.NewChat(nil, nil)
	reply, err := chat.Send(s.ctx, "How to control pests in rice?", nil)
	s.Require().NoError(err)

	s.Equal([]int{1, 2}, lengths)
	s.True(firstIsUser)
	msgs := chat.Messages()
	s.Require().Len(msgs, 2)
	s.Equal("How to control pests in rice?", msgs[0].Message)
	s.Equal("english", msgs[0].Language)
	s.False(msgs[1].IsUser)
	s.NotEmpty(msgs[1].Classification)
	s.Equal("pest_control", reply.Classification)
	s.Equal("agromitra-nlp", reply.Model)
	s.Equal(1, s.env.srv.Hits(http.MethodPost, "/chat/message"))
}

func (s *FlowSuite) TestRejectPendingOrder() {
	s.env.login(s.T())
	sell := s.env.app.NewSell(AlwaysConfirm)

	s.Require().NoError(sell.SaveListing(s.ctx, "", models.ListingForm{
		CropName:     "Onion",
		Quantity:     50,
		Unit:         "quintal",
		PricePerUnit: decimal.NewFromInt(1800),
	}))
	listings := sell.Listings()
	s.Require().Len(listings, 1)

	orderID, ok := s.env.srv.AddOrder(listings[0].Key(), models.OrderBuyer{Name: "Ravi"}, 10, models.OrderPending)
	s.Require().True(ok)
	s.Require().NoError(sell.LoadOrders(s.ctx, true))
	s.Require().Len(sell.Orders(), 1)
	s.Contains(ActionsFor(sell.Orders()[0].Status), ActionReject)

	s.Require().NoError(sell.UpdateOrderStatus(s.ctx, orderID, ActionReject))

	orders := sell.Orders()
	s.Require().Len(orders, 1)
	s.Equal(models.OrderRejected, orders[0].Status)
	actions := ActionsFor(orders[0].Status)
	s.NotContains(actions, ActionAccept)
	s.NotContains(actions, ActionReject)
	s.Equal(models.OrderRejected, s.env.srv.OrderStatus(orderID))
}

func (s *FlowSuite) TestAdminSuspendsFarmer() {
	_, err := s.env.app.AdminLogin(s.ctx, apitest.DefaultAdminEmail, apitest.DefaultAdminPassword)
	s.Require().NoError(err)

	view := s.env.app.NewAdmin()
	dash, err := view.Load(s.ctx, "")
	s.Require().NoError(err)
	s.Empty(dash.Warning())

	user := findAdminUser(dash.Users, s.env.user.ID)
	s.Require().NotNil(user)
	s.Equal("Active", user.Badge())
	s.Equal("Suspend", user.ToggleAction())

	s.Require().NoError(view.ToggleUser(s.ctx, *user))

	user = findAdminUser(view.Dashboard().Users, s.env.user.ID)
	s.Require().NotNil(user)
	s.Require().NotNil(user.IsActive)
	s.False(*user.IsActive)
	s.Equal("Suspended", user.Badge())
	s.Equal("Activate", user.ToggleAction())
	s.Equal("User suspended", view.Notice())
	s.False(s.env.srv.UserActive(s.env.user.ID))
}

func TestFlowSuite(t *testing.T) {
	suite.Run(t, new(FlowSuite))
}

func findAdminUser(users []models.AdminUser, id string) *models.AdminUser {
	for i := range users {
		if users[i].Key() == id {
			return &users[i]
		}
	}
	return nil
}
