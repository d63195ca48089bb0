package app

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agromitra/internal/apitest"
	"agromitra/internal/models"
	"agromitra/internal/storage"
)

func adminLogin(t *testing.T, e *env) {
	t.Helper()
	_, err := e.app.AdminLogin(context.Background(), apitest.DefaultAdminEmail, apitest.DefaultAdminPassword)
	require.NoError(t, err)
}

func TestApp_AdminLogin(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	require.True(t, e.store.State().IsAuthenticated)

	admin, err := e.app.AdminLogin(context.Background(), "  ADMIN@agromitra.in ", apitest.DefaultAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, apitest.DefaultAdminEmail, admin.Email)

	assert.False(t, e.store.State().IsAuthenticated)
	_, ok := e.kv.Get(storage.KeyAuthToken)
	assert.False(t, ok)

	session, ok := e.app.AdminSession()
	require.True(t, ok)
	assert.Equal(t, apitest.DefaultAdminEmail, session.Email)

	require.NoError(t, e.app.AdminLogout())
	_, ok = e.app.AdminSession()
	assert.False(t, ok)
}

func TestApp_AdminLoginRejected(t *testing.T) {
	e := newEnv(t)
	_, err := e.app.AdminLogin(context.Background(), apitest.DefaultAdminEmail, "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid admin credentials", Message(err, ""))
	_, ok := e.app.AdminSession()
	assert.False(t, ok)
}

func TestApp_CombinedLogin(t *testing.T) {
	testCases := []struct {
		name     string
		setup    func(t *testing.T, e *env)
		email    string
		password string
		role     string
		wantErr  bool
	}{
		{name: "Admin account", email: apitest.DefaultAdminEmail, password: apitest.DefaultAdminPassword, role: RoleAdmin},
		{name: "Admin account after farmer session", setup: func(t *testing.T, e *env) { e.login(t) },
			email: apitest.DefaultAdminEmail, password: apitest.DefaultAdminPassword, role: RoleAdmin},
		{name: "Farmer account", email: farmerEmail, password: farmerPassword, role: RoleFarmer},
		{name: "Farmer account after admin session", setup: adminLogin, email: farmerEmail, password: farmerPassword, role: RoleFarmer},
		{name: "Unknown account", email: "nobody@example.com", password: "secret123", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			if tc.setup != nil {
				tc.setup(t, e)
			}
			role, err := e.app.CombinedLogin(context.Background(), tc.email, tc.password)
			if tc.wantErr {
				assert.Error(t, err)
				assert.False(t, e.store.State().IsAuthenticated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.role, role)
			assert.Equal(t, tc.role == RoleFarmer, e.store.State().IsAuthenticated)
			_, admin := e.app.AdminSession()
			assert.Equal(t, tc.role == RoleAdmin, admin)
			_, adminUser := e.kv.Get(storage.KeyAdminUser)
			assert.Equal(t, tc.role == RoleAdmin, adminUser)
		})
	}
}

func TestAdminView_PartialFailure(t *testing.T) {
	e := newEnv(t)
	adminLogin(t, e)
	e.srv.Fail(http.MethodGet, "/admin/summary", http.StatusInternalServerError, models.ErrorResponse{Message: "Server error"})

	dash, err := e.app.NewAdmin().Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []Section{SectionSummary}, dash.Failed)
	assert.Equal(t, "Some dashboard sections failed to load: summary", dash.Warning())
	assert.Nil(t, dash.Summary)
	assert.Len(t, dash.Users, 1)
	require.NotNil(t, dash.Stats)
	require.NotNil(t, dash.Performance)
	assert.Equal(t, "naive-bayes", dash.Performance.Model)
}

func TestAdminView_SearchAndFilter(t *testing.T) {
	e := newEnv(t)
	adminLogin(t, e)
	view := e.app.NewAdmin()
	view.FilterOrders("pending")

	dash, err := view.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, dash.Users)
	assert.Equal(t, 0, dash.TotalUsers)
	assert.Equal(t, 1, e.srv.Hits(http.MethodGet, "/admin/users"))

	var sawFilter bool
	for _, r := range e.srv.Requests() {
		if r == "GET /admin/orders?limit=20&status=pending" {
			sawFilter = true
		}
	}
	assert.True(t, sawFilter)
}

func TestAdminView_SessionExpired(t *testing.T) {
	e := newEnv(t)
	adminLogin(t, e)
	require.NoError(t, e.kv.Set(storage.KeyAdmin, "tampered"))

	view := e.app.NewAdmin()
	_, err := view.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, SessionExpiredMessage, Message(err, ""))
	assert.Nil(t, view.Dashboard())

	_, ok := e.kv.Get(storage.KeyAdmin)
	assert.False(t, ok)
	_, ok = e.kv.Get(storage.KeyAdminUser)
	assert.False(t, ok)
	assert.Equal(t, 0, e.srv.Hits(http.MethodGet, "/admin/users"))
}

func TestSplitQueries(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected []string
	}{
		{name: "Empty", text: "", expected: nil},
		{name: "Blank lines", text: "\n  \n", expected: nil},
		{name: "Trimmed", text: "  when to sow rice \n\nprice of onion\n", expected: []string{"when to sow rice", "price of onion"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SplitQueries(tc.text))
		})
	}
}

func TestTrainingView(t *testing.T) {
	ctx := context.Background()

	t.Run("Admin routes", func(t *testing.T) {
		e := newEnv(t)
		adminLogin(t, e)
		training := e.app.NewAdmin().Training()

		_, err := training.AddSample(ctx, models.TrainingSample{Text: "  ", Category: "weather"})
		assert.ErrorIs(t, err, ErrEmptySample)

		msg, err := training.AddSample(ctx, models.TrainingSample{Text: "Will it rain tomorrow?", Category: "weather"})
		require.NoError(t, err)
		assert.Equal(t, "Training data added successfully", msg)

		stats, err := training.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalSamples)
		assert.Equal(t, map[string]int{"weather": 1}, stats.Categories)

		perf, err := training.Performance(ctx)
		require.NoError(t, err)
		require.NotNil(t, perf.Accuracy)
		assert.InDelta(t, 0.87, *perf.Accuracy, 1e-9)

		msg, err = training.Retrain(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Model retrained with 1 samples", msg)

		results, err := training.Test(ctx, "pest in my cotton\n\nmandi price today")
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "pest_control", results[0].Prediction)
		assert.Equal(t, "market_price", results[1].Prediction)

		results, err = training.Test(ctx, "\n")
		assert.NoError(t, err)
		assert.Nil(t, results)
		assert.Equal(t, 1, e.srv.Hits(http.MethodPost, "/admin/training/test"))
	})

	t.Run("Farmer routes", func(t *testing.T) {
		e := newEnv(t)
		e.login(t)
		training := e.app.NewTraining()

		_, err := training.AddSample(ctx, models.TrainingSample{Text: "Best time to harvest wheat", Category: "harvesting_guidance"})
		require.NoError(t, err)

		stats, err := training.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalSamples)
		assert.Equal(t, 1, e.srv.Hits(http.MethodGet, "/training/stats"))
	})

	t.Run("Admin session expires", func(t *testing.T) {
		e := newEnv(t)
		adminLogin(t, e)
		require.NoError(t, e.kv.Set(storage.KeyAdmin, "tampered"))

		_, err := e.app.NewAdmin().Training().Retrain(ctx)
		assert.ErrorIs(t, err, ErrSessionExpired)
		_, ok := e.app.AdminSession()
		assert.False(t, ok)
	})
}
