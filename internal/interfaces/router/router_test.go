package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authsvc "studio-backend/internal/auth"
	"studio-backend/internal/config"
	"studio-backend/internal/infrastructure/database"
	"studio-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(redisAddr string) *config.Config {
	return &config.Config{
		Env:               "test",
		DatabaseURL:       "sqlite::memory:",
		RedisURL:          "redis://" + redisAddr,
		SessionSecret:     "router-test-secret",
		PaymentCurrency:   "aud",
		MonthlyCapacity:   4,
		MailProvider:      "brevo",
		StudioName:        "Studio",
		SiteURL:           "http://localhost:3000",
		HealthAdminKey:    "ops-key",
		BookingRateLimit:  3,
		BookingRateWindow: time.Minute,
	}
}

func setupRouter(t *testing.T) (*fiber.App, *Resources) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	app, res, err := CreateApp(testConfig(mr.Addr()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })
	require.NoError(t, database.AutoMigrate(res.DB))
	require.NoError(t, authsvc.EnsureAdmin(context.Background(), res.DB, "Owner", "owner@studio.test", "password123"))
	return app, res
}

func send(t *testing.T, app *fiber.App, method, path string, body interface{}, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func dataOf(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	data, _ := out["data"].(map[string]interface{})
	return data
}

func TestBookingFlow(t *testing.T) {
	app, _ := setupRouter(t)

	resp := send(t, app, "POST", "/api/v1/bookings", map[string]interface{}{
		"client_name":    "Ada Lovelace",
		"client_email":   "ada@example.com",
		"project_type":   "business",
		"specifications": "Brochure site",
		"booking_month":  "2025-08",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	projectID := dataOf(t, resp)["project_id"].(string)

	resp = send(t, app, "PATCH", "/api/v1/admin/bookings/"+projectID+"/approve", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = send(t, app, "POST", "/api/v1/auth/login", map[string]string{"email": "owner@studio.test", "password": "password123"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session)

	resp = send(t, app, "PATCH", "/api/v1/admin/bookings/"+projectID+"/approve", nil, session)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", dataOf(t, resp)["status"])

	resp = send(t, app, "GET", "/api/v1/bookings/availability/2025-08", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, dataOf(t, resp)["remaining"])

	// Stripe is not configured in tests.
	resp = send(t, app, "POST", "/api/v1/payments/create-intent", map[string]string{"project_id": projectID})
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestBookingRateLimit(t *testing.T) {
	app, _ := setupRouter(t)
	body := map[string]interface{}{"client_name": "Ada"}
	for i := 0; i < 3; i++ {
		resp := send(t, app, "POST", "/api/v1/bookings", body)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	}
	resp := send(t, app, "POST", "/api/v1/bookings", body)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	// availability is not limited
	resp = send(t, app, "GET", "/api/v1/bookings/availability/2025-08", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestWebhookRejectsUnsigned(t *testing.T) {
	app, _ := setupRouter(t)
	resp := send(t, app, "POST", "/api/v1/stripe/webhook", map[string]string{"type": "payment_intent.succeeded"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndHandler(t *testing.T) {
	app, res := setupRouter(t)

	send(t, app, "GET", "/api/v1/bookings/availability/2025-08", nil)
	resp := send(t, app, "GET", "/health/json", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "ok", out["status"])
	total, err := res.Rdb.Get(context.Background(), middleware.KeyReqTotal).Int()
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	rec := httptest.NewRecorder()
	Handler(app).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/bookings/availability/2025-09", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateApp_RateLimitStorageUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	app, res, err := CreateApp(testConfig(addr))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit storage")
	assert.Nil(t, app)
	assert.Nil(t, res)
}
