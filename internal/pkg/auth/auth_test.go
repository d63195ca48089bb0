package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agromitra/internal/storage"
)

var testSecret = []byte("test-secret")

func TestStoredToken(t *testing.T) {
	store := storage.NewMemory()
	src := StoredToken{Store: store, Key: storage.KeyAuthToken}
	assert.Equal(t, "", src.Token())

	require.NoError(t, store.Set(storage.KeyAuthToken, " abc \n"))
	assert.Equal(t, "abc", src.Token())

	assert.Equal(t, "", StoredToken{}.Token())
}

func TestSetBearer(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://localhost/api", nil)
	require.NoError(t, err)

	SetBearer(req, "")
	assert.Empty(t, req.Header.Get("Authorization"))

	SetBearer(req, "tok")
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))

	token, ok := BearerFromHeader(req.Header)
	assert.True(t, ok)
	assert.Equal(t, "tok", token)
}

func TestBearerFromHeader(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		ok     bool
	}{
		{name: "Missing", header: "", ok: false},
		{name: "Wrong scheme", header: "Basic abc", ok: false},
		{name: "No token", header: "Bearer ", ok: false},
		{name: "Valid", header: "Bearer abc", ok: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			h.Set("Authorization", tc.header)
			_, ok := BearerFromHeader(h)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestExpired(t *testing.T) {
	fresh, err := GenerateToken("u1", "farmer", time.Hour, testSecret)
	require.NoError(t, err)
	stale, err := GenerateToken("u1", "farmer", -time.Minute, testSecret)
	require.NoError(t, err)

	now := time.Now()
	assert.False(t, Expired(fresh, now))
	assert.True(t, Expired(stale, now))
	assert.False(t, Expired("opaque-session-token", now))
}

func TestParseToken(t *testing.T) {
	token, err := GenerateToken("u42", "admin", time.Hour, testSecret)
	require.NoError(t, err)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u42", claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, err = ParseToken(token, []byte("other"))
	assert.Error(t, err)

	unverified, err := ParseUnverified(token)
	require.NoError(t, err)
	assert.Equal(t, "u42", unverified.Subject)

	_, err = ParseUnverified("nope")
	assert.ErrorIs(t, err, ErrNotJWT)
}

func TestCheckJWTMiddleware(t *testing.T) {
	farmer, err := GenerateToken("u1", "farmer", time.Hour, testSecret)
	require.NoError(t, err)
	admin, err := GenerateToken("a1", "admin", time.Hour, testSecret)
	require.NoError(t, err)

	var seen string
	h := CheckJWTMiddleware(testSecret, "admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
	}))

	testCases := []struct {
		name   string
		token  string
		status int
	}{
		{name: "Missing token", token: "", status: http.StatusUnauthorized},
		{name: "Bad token", token: "garbage", status: http.StatusUnauthorized},
		{name: "Wrong role", token: farmer, status: http.StatusForbidden},
		{name: "Admin", token: admin, status: http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
			SetBearer(req, tc.token)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
	assert.Equal(t, "a1", seen)
}
