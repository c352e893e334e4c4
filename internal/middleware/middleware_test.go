package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medsport/attachments/internal/ctxkeys"
	"github.com/medsport/attachments/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("first"), mark("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestActor(t *testing.T) {
	auth := service.NewAuthService("secret")
	token, err := auth.GenerateJWT("user-1", time.Hour)
	require.NoError(t, err)

	var seen string
	h := Actor(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxkeys.Actor(r.Context())
	}))

	tests := []struct {
		name string
		set  func(r *http.Request)
		want string
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, "user-1"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "auth_token", Value: token}) }, "user-1"},
		{"invalid token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, ""},
		{"other scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpw") }, ""},
		{"anonymous", func(*http.Request) {}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = "unset"
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.set(r)
			h.ServeHTTP(httptest.NewRecorder(), r)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestRequireActor(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }

	rec := httptest.NewRecorder()
	RequireActor(true)(ok)(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"UNAUTHORIZED","message":"authentication required"}}`, rec.Body.String())

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r = r.WithContext(ctxkeys.WithActor(r.Context(), "user-1"))
	rec = httptest.NewRecorder()
	RequireActor(true)(ok)(rec, r)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	RequireActor(false)(ok)(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    2,
		window:   time.Minute,
		now:      func() time.Time { return now },
	}

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))

	now = now.Add(5 * time.Minute)
	rl.cleanup()
	assert.Empty(t, rl.requests)
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "[::1]:5555"
	assert.Equal(t, "::1", getClientIP(r))

	r.Header.Set("X-Real-IP", "10.1.1.1")
	assert.Equal(t, "10.1.1.1", getClientIP(r))

	r.Header.Set("X-Forwarded-For", "192.0.2.7, 10.0.0.1")
	assert.Equal(t, "192.0.2.7", getClientIP(r))
}

func TestCrossOriginPreflight(t *testing.T) {
	called := false
	h := CrossOrigin("*")(func(http.ResponseWriter, *http.Request) { called = true })

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodOptions, "/attachments/1/view", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/attachments/1/view", nil))
	assert.True(t, called)
	assert.Equal(t, "cross-origin", rec.Header().Get("Cross-Origin-Resource-Policy"))
}
