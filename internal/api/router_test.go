package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/wallet-ledger/internal/auth"
	"github.com/baharkarakas/wallet-ledger/internal/cache"
	"github.com/baharkarakas/wallet-ledger/internal/config"
	"github.com/baharkarakas/wallet-ledger/internal/models"
	"github.com/baharkarakas/wallet-ledger/internal/notify"
	"github.com/baharkarakas/wallet-ledger/internal/repository/memory"
	"github.com/baharkarakas/wallet-ledger/internal/services"
	"github.com/baharkarakas/wallet-ledger/internal/worker"
)

type testAPI struct {
	h      http.Handler
	tokens map[string]string // role -> access token
	ids    map[string]string // role -> user id
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	cfg := config.Config{
		Env:                   "test",
		Location:              time.UTC,
		MinWithdrawal:         decimal.NewFromInt(100),
		StatsCacheTTL:         time.Minute,
		IdempotencyTTL:        time.Hour,
		PlatformTelebirrPhone: "0911000000",
		PlatformCBEAccount:    "1000000000000",
		PlatformAccountName:   "Treasury",
	}
	repos := memory.NewRepositories(memory.New())
	pool := worker.NewPool(1)
	t.Cleanup(pool.Stop)
	c := cache.NewMemory()
	tm := auth.NewTokenManager("access", "refresh", time.Hour, 24*time.Hour)
	hub := notify.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))

	wallet := services.NewWalletService(repos.Transactions, repos.Users, c, cfg.StatsCacheTTL)
	users := services.NewUserService(repos.Users, tm)
	a := &testAPI{
		h: NewRouter(RouterDeps{
			Cfg:       cfg,
			Tokens:    tm,
			UserSvc:   users,
			TxnSvc:    services.NewTransactionService(services.Deps{Repos: repos, Wallet: wallet, Pool: pool, Cache: c, Hub: hub}, cfg),
			WalletSvc: wallet,
			ReportSvc: services.NewReportService(repos.Transactions, cfg.Location),
			Hub:       hub,
		}),
		tokens: map[string]string{},
		ids:    map[string]string{},
	}
	for _, role := range []string{models.RoleUser, models.RoleApprover, models.RoleOperator, models.RoleAdmin} {
		u, err := repos.Users.Create(context.Background(), models.User{Username: role, Email: role + "@example.com", Role: role})
		require.NoError(t, err)
		pair, err := tm.GeneratePair(u.ID, role)
		require.NoError(t, err)
		a.tokens[role], a.ids[role] = pair.AccessToken, u.ID
	}
	return a
}

func (a *testAPI) do(t *testing.T, method, path, role string, body any, hdr ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[role])
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out) // non-JSON bodies leave out nil
	return rec, out
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", body)
	return d
}

func TestAPI_DepositLifecycle(t *testing.T) {
	a := newTestAPI(t)

	rec, body := a.do(t, http.MethodPost, "/api/v1/transactions", models.RoleUser, map[string]any{
		"type": "deposit", "method": "cash", "amount": 500, "description": "tithe",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	tx := data(t, body)
	id := tx["id"].(string)
	assert.Equal(t, "pending", tx["status"])
	assert.Equal(t, float64(500), tx["amount"])

	rec, _ = a.do(t, http.MethodPut, "/api/v1/transactions/approve/"+id, models.RoleUser, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = a.do(t, http.MethodPut, "/api/v1/transactions/approve/"+id, models.RoleApprover, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "approved", data(t, body)["status"])

	rec, body = a.do(t, http.MethodPut, "/api/v1/transactions/complete/"+id, models.RoleOperator, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "completed", data(t, body)["status"])

	rec, body = a.do(t, http.MethodPut, "/api/v1/transactions/approve/"+id, models.RoleAdmin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", body["code"])
	assert.Equal(t, false, body["success"])

	rec, body = a.do(t, http.MethodGet, "/api/v1/wallet/stats", models.RoleUser, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := data(t, body)
	assert.Equal(t, float64(500), st["wallet"])
	assert.Equal(t, float64(500), st["totalDeposit"])

	rec, _ = a.do(t, http.MethodGet, "/api/v1/wallet/stats?userId="+a.ids[models.RoleUser], models.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = a.do(t, http.MethodGet, "/api/v1/wallet/stats?userId="+a.ids[models.RoleAdmin], models.RoleUser, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = a.do(t, http.MethodGet, "/api/v1/transactions/"+id+"/history", models.RoleUser, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_ValidationErrorShape(t *testing.T) {
	a := newTestAPI(t)

	rec, body := a.do(t, http.MethodPost, "/api/v1/transactions", models.RoleUser, map[string]any{
		"type": "deposit", "method": "telebirr", "amount": 100, "senderPhone": "0911223344",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", body["code"])
	details, ok := body["details"].([]any)
	require.True(t, ok, body)
	assert.Equal(t, "transactionId", details[0].(map[string]any)["field"])

	rec, body = a.do(t, http.MethodPost, "/api/v1/transactions", models.RoleUser, map[string]any{"bogus": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", body["code"])

	rec, _ = a.do(t, http.MethodPost, "/api/v1/transactions", models.RoleUser, map[string]any{
		"type": "withdrawal", "method": "telebirr", "amount": 200, "receiverPhone": "0911223344",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no balance to withdraw")

	rec, _ = a.do(t, http.MethodGet, "/api/v1/transactions/not-there", models.RoleAdmin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_IdempotencyHeader(t *testing.T) {
	a := newTestAPI(t)
	body := map[string]any{"type": "deposit", "method": "cash", "amount": 100}

	rec, first := a.do(t, http.MethodPost, "/api/v1/transactions", models.RoleUser, body, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, second := a.do(t, http.MethodPost, "/api/v1/transactions", models.RoleUser, body, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, data(t, first)["id"], data(t, second)["id"])
}

func TestAPI_ListAndScope(t *testing.T) {
	a := newTestAPI(t)
	for _, role := range []string{models.RoleUser, models.RoleUser, models.RoleAdmin} {
		rec, _ := a.do(t, http.MethodPost, "/api/v1/transactions", role, map[string]any{"type": "deposit", "method": "cash", "amount": 100})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, body := a.do(t, http.MethodGet, "/api/v1/transactions?limit=1", models.RoleUser, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pg := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pg["total"])
	assert.Equal(t, float64(2), pg["totalPages"])
	assert.NotEmpty(t, pg["nextCursor"])
	assert.Len(t, body["data"], 1)

	rec, body = a.do(t, http.MethodGet, "/api/v1/transactions?class=admin", models.RoleApprover, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["pagination"].(map[string]any)["total"])

	rec, _ = a.do(t, http.MethodGet, "/api/v1/transactions/user/"+a.ids[models.RoleAdmin], models.RoleUser, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = a.do(t, http.MethodGet, "/api/v1/transactions?status=bogus", models.RoleAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_AuthAndRoles(t *testing.T) {
	a := newTestAPI(t)

	rec, _ := a.do(t, http.MethodGet, "/api/v1/transactions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = a.do(t, http.MethodGet, "/api/v1/users", models.RoleApprover, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = a.do(t, http.MethodGet, "/api/v1/users", models.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = a.do(t, http.MethodGet, "/api/v1/reports/weekly?year=2026&month=3", models.RoleUser, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, body := a.do(t, http.MethodGet, "/api/v1/reports/weekly?year=2026&month=3", models.RoleOperator, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data(t, body)["weeks"], 6)
	rec, _ = a.do(t, http.MethodGet, "/api/v1/reports/monthly?month=13", models.RoleOperator, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = a.do(t, http.MethodGet, "/api/v1/reports/summary?startDate=2026-01-01&endDate=2026-12-31", models.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username": "selam", "email": "selam@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec, body = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "selam@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	sess := data(t, body)
	assert.NotEmpty(t, sess["accessToken"])

	rec, _ = a.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{"refreshToken": sess["refreshToken"]})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "selam@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
