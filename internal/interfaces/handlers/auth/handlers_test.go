package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	authsvc "studio-backend/internal/auth"
	"studio-backend/internal/domain"
	"studio-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFinder struct {
	admin *domain.AdminUser
}

func (f *fakeFinder) FindByEmailAndPassword(_ context.Context, email, password string) (*domain.AdminUser, error) {
	if f.admin != nil && f.admin.Email == email && password == "password123" {
		return f.admin, nil
	}
	if f.admin != nil && f.admin.Email == email {
		return nil, authsvc.ErrWrongPassword
	}
	return nil, authsvc.ErrUnknownAdmin
}

func setupAuthApp(t *testing.T, finder authsvc.AdminFinder) (*fiber.App, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	cfg := middleware.SessionConfig{Secret: "test-secret"}
	h := &Handlers{Finder: finder, Rdb: rdb, Config: cfg}
	app := fiber.New()
	app.Use(middleware.Session(rdb, cfg))
	app.Post("/login", h.Login)
	app.Get("/me", h.Me)
	app.Delete("/logout", h.Logout)
	return app, rdb
}

func login(t *testing.T, app *fiber.App, email, password string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func owner() *domain.AdminUser {
	return &domain.AdminUser{ID: uuid.New(), Name: "Owner", Email: "owner@studio.test", Role: domain.RoleAdmin}
}

func TestLogin_MissingCredentials(t *testing.T) {
	app, _ := setupAuthApp(t, &fakeFinder{})
	resp := login(t, app, "owner@studio.test", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out.Error.Message
}

func TestLogin_RejectionsShareOneMessage(t *testing.T) {
	app, _ := setupAuthApp(t, &fakeFinder{admin: owner()})

	wrongPassword := login(t, app, "owner@studio.test", "nope")
	assert.Equal(t, fiber.StatusUnauthorized, wrongPassword.StatusCode)
	unknown := login(t, app, "someone@studio.test", "password123")
	assert.Equal(t, fiber.StatusUnauthorized, unknown.StatusCode)

	msg := errorMessage(t, wrongPassword)
	assert.Equal(t, authsvc.ErrBadCredentials.Error(), msg)
	assert.Equal(t, msg, errorMessage(t, unknown))
}

func TestLogin_NilFinder(t *testing.T) {
	app, _ := setupAuthApp(t, nil)
	resp := login(t, app, "owner@studio.test", "password123")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestLogin_MeLogout(t *testing.T) {
	app, rdb := setupAuthApp(t, &fakeFinder{admin: owner()})

	resp := login(t, app, "owner@studio.test", "password123")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "session cookie set")

	keys, err := rdb.Keys(context.Background(), middleware.SessionRedisPrefix+"*").Result()
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	req := httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	user := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "owner@studio.test", user["email"])

	req = httptest.NewRequest("DELETE", "/logout", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	keys, err = rdb.Keys(context.Background(), middleware.SessionRedisPrefix+"*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)

	req = httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMe_TamperedCookie(t *testing.T) {
	app, _ := setupAuthApp(t, &fakeFinder{admin: owner()})
	req := httptest.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "abc.forged"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, authsvc.ErrNoAdminSession.Error(), errorMessage(t, resp))
}
