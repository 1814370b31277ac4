package middleware

import (
	"time"

	"studio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

const rateLimitKeyPrefix = "studio:ratelimit:bookings:"

// BookingRateLimiter caps public booking submissions per client IP. With a shared storage
// (Redis) every instance sees the same counters; nil keeps them in memory.
func BookingRateLimiter(storage fiber.Storage, max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		Storage:    storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return rateLimitKeyPrefix + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, "Too many booking requests, please try again later", fiber.StatusTooManyRequests, nil)
		},
	})
}
