package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agromitra/internal/apitest"
	"agromitra/internal/models"
	"agromitra/internal/pkg/events"
	"agromitra/internal/storage"
)

func TestNormalizeBaseURL(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "Empty uses default", raw: "", expected: "http://localhost:3001/api"},
		{name: "Host only", raw: "http://host:3001", expected: "http://host:3001/api"},
		{name: "Trailing slash", raw: "http://host:3001/", expected: "http://host:3001/api"},
		{name: "Already prefixed", raw: "https://agro.example/api", expected: "https://agro.example/api"},
		{name: "Prefixed with slash", raw: "https://agro.example/api//", expected: "https://agro.example/api"},
		{name: "Whitespace", raw: "  http://host:3001 ", expected: "http://host:3001/api"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeBaseURL(tc.raw))
		})
	}
}

func TestClient_StampsTokenAtSendTime(t *testing.T) {
	var seen atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"crops":[]}`))
	}))
	defer ts.Close()

	store := storage.NewMemory()
	c := NewFarmer(ts.URL, store, nil)

	_, err := c.Crops.List(context.Background(), models.CropQuery{})
	require.NoError(t, err)
	assert.Equal(t, "", seen.Load())

	require.NoError(t, store.Set(storage.KeyAuthToken, "tok-1"))
	_, err = c.Crops.List(context.Background(), models.CropQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", seen.Load())
}

func TestClient_ErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"msg":"Please include a valid email"},{"msg":""},{"msg":"Password is required"}]}`))
	}))
	defer ts.Close()

	c := New("farmer", ts.URL)
	_, err := c.Auth.Login(context.Background(), "bad", "")
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, []string{"Please include a valid email", "Password is required"}, apiErr.ValidationMessages())
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Equal(t, 0, StatusOf(errors.New("plain")))
}

func TestError_Message(t *testing.T) {
	e := &Error{Status: 500, Body: models.ErrorResponse{Error: "boom"}}
	assert.Equal(t, "boom", e.Message())

	e.Body.Message = "Server error"
	assert.Equal(t, "Server error", e.Message())
	assert.Contains(t, e.Error(), "500 Server error")
}

func TestNewFarmer_UnauthorizedClearsSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Token is not valid"}`))
	}))
	defer ts.Close()

	store := storage.NewMemory()
	require.NoError(t, store.Set(storage.KeyAuthToken, "stale"))
	require.NoError(t, store.Set(storage.KeyUser, `{"name":"Asha"}`))
	require.NoError(t, store.Set(storage.KeyLanguage, "hindi"))

	bus := events.NewBus()
	var fired int
	bus.Subscribe(events.AuthLogout, func(events.Event) { fired++ })

	c := NewFarmer(ts.URL, store, bus)
	_, err := c.Auth.Profile(context.Background())
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))

	_, ok := store.Get(storage.KeyAuthToken)
	assert.False(t, ok)
	_, ok = store.Get(storage.KeyUser)
	assert.False(t, ok)
	lang, _ := store.Get(storage.KeyLanguage)
	assert.Equal(t, "hindi", lang)
	assert.Equal(t, 1, fired)
}

func TestNewAdmin_UnauthorizedKeepsFarmerSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	store := storage.NewMemory()
	require.NoError(t, store.Set(storage.KeyAuthToken, "farmer"))
	require.NoError(t, store.Set(storage.KeyAdmin, "admin"))

	c := NewAdmin(ts.URL, store)
	_, err := c.Admin.Me(context.Background())
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))

	_, ok := store.Get(storage.KeyAuthToken)
	assert.True(t, ok)
	_, ok = store.Get(storage.KeyAdmin)
	assert.True(t, ok)
}

func TestClient_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := New("farmer", url)
	_, err := c.Crops.List(context.Background(), models.CropQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Equal(t, 0, StatusOf(err))
}

func TestClient_CancelledContext(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New("farmer", srv.URL())
	_, err := c.Crops.List(ctx, models.CropQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUnreachable)
}

func TestClient_EmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := New("farmer", ts.URL)
	calendars, err := c.Calendar.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, calendars)
}

func TestClient_Metrics(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := New("farmer", srv.URL(), WithMetrics(m))

	_, err := c.Crops.List(context.Background(), models.CropQuery{})
	require.NoError(t, err)
	_, err = c.Crops.Get(context.Background(), "missing", "english")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("farmer", "crops", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("farmer", "crops", "GET", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}
