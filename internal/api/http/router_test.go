package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/token-queue-service/internal/api/dto"
	"github.com/spec-kit/token-queue-service/internal/api/http/handlers"
	"github.com/spec-kit/token-queue-service/internal/auth"
	"github.com/spec-kit/token-queue-service/internal/config"
	"github.com/spec-kit/token-queue-service/internal/observability"
	"github.com/spec-kit/token-queue-service/internal/repository"
	"github.com/spec-kit/token-queue-service/internal/service"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	tokenStore := repository.NewMemoryTokenStore()
	userStore := repository.NewMemoryUserStore()

	tokenService := service.NewTokenService(service.TokenDependencies{TokenStore: tokenStore})
	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
	}, userStore)
	require.NoError(t, authService.EnsureAdmin(context.Background(), "admin", "secret"))

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", nil, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Tokens:         handlers.NewTokensHandler(tokenService),
		Counters:       handlers.NewCountersHandler(tokenService),
		Admin:          handlers.NewAdminHandler(tokenService),
		AuthMiddleware: auth.NewMiddleware(authService.TokenManager(), userStore),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, bearer string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	var resp dto.LoginResponse
	status := doJSON(t, app, http.MethodPost, "/auth/login", "",
		dto.LoginRequest{Username: "admin", Password: "secret"}, &resp)
	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t)

	status := doJSON(t, app, http.MethodPost, "/auth/login", "",
		dto.LoginRequest{Username: "admin", Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHandlerRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	status := doJSON(t, app, http.MethodPost, "/handler/call-next", "",
		dto.CallNextRequest{CounterName: "Counter 1"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = doJSON(t, app, http.MethodGet, "/admin/tokens", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTokenLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	bearer := login(t, app)

	// Book a token.
	var created dto.TokenEnvelope
	status := doJSON(t, app, http.MethodPost, "/token/create", "",
		dto.CreateTokenRequest{FullName: "Jane Doe", Mobile: "555-0100", Purpose: "Consultation"}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.True(t, created.Success)
	require.NotNil(t, created.Token)
	assert.Equal(t, 1, created.Token.TokenNumber)
	assert.Equal(t, "pending", created.Token.Status)

	// It shows up in the display queue.
	var display dto.DisplayStatusResponse
	status = doJSON(t, app, http.MethodGet, "/token/display-status", "", nil, &display)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, display.NowServing)
	require.Len(t, display.Queue, 1)

	// A counter calls it.
	var callNext dto.CallNextResponse
	status = doJSON(t, app, http.MethodPost, "/handler/call-next", bearer,
		dto.CallNextRequest{CounterName: "Counter 1"}, &callNext)
	require.Equal(t, http.StatusOK, status)
	require.True(t, callNext.Success)
	assert.Equal(t, created.Token.TokenGuid, callNext.TokenGuid)
	assert.Equal(t, 1, callNext.TokenNumber)

	// The display now shows it as serving.
	status = doJSON(t, app, http.MethodGet, "/token/display-status", "", nil, &display)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, display.NowServing)
	assert.Equal(t, created.Token.TokenGuid, display.NowServing.TokenGuid)
	assert.Equal(t, "Counter 1", display.NowServing.CounterName)
	assert.Empty(t, display.Queue)

	// The counter marks it served.
	var updated dto.StatusResponse
	status = doJSON(t, app, http.MethodPost, "/handler/update-status", bearer,
		dto.UpdateStatusRequest{TokenGuid: created.Token.TokenGuid, Status: "served", CounterName: "Counter 1"}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, updated.Success)

	var fetched dto.TokenEnvelope
	status = doJSON(t, app, http.MethodGet, "/token/by-guid/"+created.Token.TokenGuid, "", nil, &fetched)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "served", fetched.Token.Status)
}

func TestCallNextEmptyQueueOverHTTP(t *testing.T) {
	app := newTestApp(t)
	bearer := login(t, app)

	var resp dto.CallNextResponse
	status := doJSON(t, app, http.MethodPost, "/handler/call-next", bearer,
		dto.CallNextRequest{CounterName: "Counter 1"}, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, resp.Success)
	assert.Equal(t, "no pending tokens in queue", resp.Message)
}

func TestCallNextBusyCounterOverHTTP(t *testing.T) {
	app := newTestApp(t)
	bearer := login(t, app)

	for _, name := range []string{"Alice", "Bob"} {
		doJSON(t, app, http.MethodPost, "/token/create", "",
			dto.CreateTokenRequest{FullName: name}, nil)
	}

	var first dto.CallNextResponse
	status := doJSON(t, app, http.MethodPost, "/handler/call-next", bearer,
		dto.CallNextRequest{CounterName: "Counter 1"}, &first)
	require.Equal(t, http.StatusOK, status)
	require.True(t, first.Success)

	// Calling again while the counter still serves a token is a conflict.
	status = doJSON(t, app, http.MethodPost, "/handler/call-next", bearer,
		dto.CallNextRequest{CounterName: "Counter 1"}, nil)
	assert.Equal(t, http.StatusConflict, status)

	// Resolving the current token lets the counter call the next one.
	doJSON(t, app, http.MethodPost, "/handler/update-status", bearer,
		dto.UpdateStatusRequest{TokenGuid: first.TokenGuid, Status: "served", CounterName: "Counter 1"}, nil)

	var second dto.CallNextResponse
	status = doJSON(t, app, http.MethodPost, "/handler/call-next", bearer,
		dto.CallNextRequest{CounterName: "Counter 1"}, &second)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, second.Success)
	assert.NotEqual(t, first.TokenGuid, second.TokenGuid)
}

func TestUpdateStatusRejectsIllegalMove(t *testing.T) {
	app := newTestApp(t)
	bearer := login(t, app)

	var created dto.TokenEnvelope
	doJSON(t, app, http.MethodPost, "/token/create", "",
		dto.CreateTokenRequest{FullName: "Jane Doe"}, &created)
	require.NotNil(t, created.Token)

	// served is unreachable from pending
	status := doJSON(t, app, http.MethodPost, "/handler/update-status", bearer,
		dto.UpdateStatusRequest{TokenGuid: created.Token.TokenGuid, Status: "served"}, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestSearchOverHTTP(t *testing.T) {
	app := newTestApp(t)

	var created dto.TokenEnvelope
	doJSON(t, app, http.MethodPost, "/token/create", "",
		dto.CreateTokenRequest{FullName: "Jane Doe", Mobile: "555-0100"}, &created)
	require.NotNil(t, created.Token)

	var found dto.SearchResponse
	status := doJSON(t, app, http.MethodPost, "/token/search", "",
		dto.SearchRequest{SearchTerm: "1"}, &found)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, found.Success)
	assert.Equal(t, created.Token.TokenGuid, found.TokenGuid)

	var missing dto.SearchResponse
	status = doJSON(t, app, http.MethodPost, "/token/search", "",
		dto.SearchRequest{SearchTerm: "999"}, &missing)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, missing.Success)
	assert.Empty(t, missing.TokenGuid)
}

func TestAdminListTokens(t *testing.T) {
	app := newTestApp(t)
	bearer := login(t, app)

	for _, name := range []string{"Alice", "Bob", "Carol"} {
		doJSON(t, app, http.MethodPost, "/token/create", "",
			dto.CreateTokenRequest{FullName: name}, nil)
	}

	var page dto.TokenListResponse
	status := doJSON(t, app, http.MethodGet, "/admin/tokens?page=1&pageSize=2", bearer, nil, &page)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, page.TotalCount)
	assert.Len(t, page.Tokens, 2)

	var filtered dto.TokenListResponse
	status = doJSON(t, app, http.MethodGet, "/admin/tokens?status=pending&search=alice", bearer, nil, &filtered)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, filtered.Tokens, 1)
	assert.Equal(t, "Alice", filtered.Tokens[0].FullName)
}
