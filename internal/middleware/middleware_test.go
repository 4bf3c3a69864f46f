package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/wallet-ledger/internal/auth"
	"github.com/baharkarakas/wallet-ledger/internal/models"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestAuth(t *testing.T) {
	tm := auth.NewTokenManager("a", "r", time.Minute, time.Hour)
	pair, err := tm.GeneratePair("u1", models.RoleOperator)
	require.NoError(t, err)

	var seen UserCtx
	h := NewAuthMiddleware(tm).Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromCtx(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"refresh token", "Bearer " + pair.RefreshToken, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"access token", "Bearer " + pair.AccessToken, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, serve(h, r).Code)
		})
	}
	assert.Equal(t, UserCtx{UserID: "u1", Role: models.RoleOperator}, seen)
}

func TestAuth_QueryTokenOnlyForUpgrade(t *testing.T) {
	tm := auth.NewTokenManager("a", "r", time.Minute, time.Hour)
	pair, _ := tm.GeneratePair("u1", models.RoleUser)
	h := NewAuthMiddleware(tm).Auth(ok)

	r := httptest.NewRequest(http.MethodGet, "/ws?token="+pair.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, serve(h, r).Code)

	r.Header.Set("Upgrade", "websocket")
	assert.Equal(t, http.StatusNoContent, serve(h, r).Code)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleApprover, models.RoleAdmin)(ok)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(h, r).Code)

	r = r.WithContext(WithUser(r.Context(), UserCtx{UserID: "u", Role: models.RoleOperator}))
	assert.Equal(t, http.StatusForbidden, serve(h, r).Code)

	r = r.WithContext(WithUser(r.Context(), UserCtx{UserID: "u", Role: models.RoleAdmin}))
	assert.Equal(t, http.StatusNoContent, serve(h, r).Code)

	staff := RequireStaff(ok)
	r = r.WithContext(WithUser(r.Context(), UserCtx{UserID: "u", Role: models.RoleAgent}))
	assert.Equal(t, http.StatusForbidden, serve(staff, r).Code)
}

func TestRateLimit_PerClient(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := rateLimit(2, func() time.Time { return now })(ok)

	req := func(addr string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = addr
		return serve(h, r).Code
	}
	assert.Equal(t, http.StatusNoContent, req("10.0.0.1:1000"))
	assert.Equal(t, http.StatusNoContent, req("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, req("10.0.0.1:1002"))
	assert.Equal(t, http.StatusNoContent, req("10.0.0.2:1000"))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, req("10.0.0.1:1003"))
}

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = RequestIDFrom(r.Context())
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, got)
	assert.Equal(t, got, rec.Header().Get(RequestIDHeader))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "6f1c1e9e-6a43-4d0e-9a53-1f0b1e2d3c4b")
	serve(h, r)
	assert.Equal(t, "6f1c1e9e-6a43-4d0e-9a53-1f0b1e2d3c4b", got)

	r.Header.Set(RequestIDHeader, "not-a-uuid")
	serve(h, r)
	assert.NotEqual(t, "not-a-uuid", got)
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") }))
	assert.Equal(t, http.StatusInternalServerError, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}
