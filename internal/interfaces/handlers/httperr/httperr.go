// Package httperr maps application errors onto the JSON error envelope.
package httperr

import (
	"errors"

	"studio-backend/internal/application/bookings"
	"studio-backend/internal/application/payments"
	"studio-backend/internal/middleware"
	"studio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"
)

// Respond writes err as an error response. Storage and gateway failures are logged and
// reported without their cause.
func Respond(c *fiber.Ctx, err error) error {
	var (
		ve  *bookings.ValidationError
		ce  *bookings.CapacityExceededError
		ite *bookings.InvalidTransitionError
		pe  *bookings.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		details := map[string]interface{}{}
		if ve.Field != "" {
			details["field"] = ve.Field
		}
		return response.Error(c, ve.Message, fiber.StatusBadRequest, details)
	case errors.As(err, &ce):
		return response.Error(c, ce.Error(), fiber.StatusBadRequest, fiber.Map{
			"month":   ce.Month,
			"current": ce.Current,
			"max":     ce.Max,
		})
	case errors.As(err, &ite):
		return response.Error(c, ite.Error(), fiber.StatusConflict, fiber.Map{
			"from": ite.From,
			"to":   ite.To,
		})
	case errors.Is(err, bookings.ErrNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, payments.ErrGatewayNotConfigured):
		return response.Error(c, err.Error(), fiber.StatusServiceUnavailable, nil)
	case errors.Is(err, payments.ErrUnknownIntent):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.As(err, &pe):
		log.Error().Err(pe.Err).Str("op", pe.Op).Str("trace_id", middleware.GetTraceID(c)).Msg("Persistence failure")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var se *stripe.Error
	if errors.As(err, &se) {
		log.Warn().Err(err).Str("stripe_code", string(se.Code)).Str("trace_id", middleware.GetTraceID(c)).Msg("Payment provider rejected request")
		return response.Error(c, "Payment provider error", fiber.StatusBadGateway, nil)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Message, fe.Code, nil)
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("Request failed")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
