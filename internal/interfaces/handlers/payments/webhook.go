package payments

import (
	"encoding/json"
	"errors"

	booksvc "studio-backend/internal/application/bookings"
	paysvc "studio-backend/internal/application/payments"
	"studio-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76/webhook"
)

type WebhookHandler struct {
	Payments      *paysvc.Service
	WebhookSecret string
}

type paymentIntentObject struct {
	ID             string            `json:"id"`
	Amount         int64             `json:"amount"`
	AmountReceived int64             `json:"amount_received"`
	Currency       string            `json:"currency"`
	Status         string            `json:"status"`
	Metadata       map[string]string `json:"metadata"`
}

var intentOutcomes = map[string]domain.PaymentOutcome{
	"payment_intent.succeeded":      domain.OutcomeSucceeded,
	"payment_intent.payment_failed": domain.OutcomeFailed,
	"payment_intent.canceled":       domain.OutcomeCanceled,
}

// HandleWebhook POST /api/v1/stripe/webhook. Needs the raw body for signature checks.
// Once the signature is valid it answers 200 for events the booking lifecycle rejected, so
// Stripe does not retry them, and 500 when storage failed, so it does.
func (wh *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	rawBody := c.BodyRaw()
	sig := c.Get("Stripe-Signature")

	if len(rawBody) == 0 {
		log.Warn().Msg("Stripe webhook received empty body")
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: empty body")
	}
	if sig == "" || wh.WebhookSecret == "" {
		log.Warn().Bool("has_sig", sig != "").Bool("has_secret", wh.WebhookSecret != "").Msg("Stripe webhook signature missing")
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: missing signature or secret")
	}

	event, err := webhook.ConstructEventWithOptions(rawBody, sig, wh.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Stripe webhook signature verification failed")
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: " + err.Error())
	}

	outcome, ok := intentOutcomes[string(event.Type)]
	if !ok {
		return c.Status(fiber.StatusOK).SendString("ok")
	}
	var pi paymentIntentObject
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil || pi.ID == "" {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("Stripe webhook payment intent unreadable")
		return c.Status(fiber.StatusOK).SendString("ok")
	}

	intent := &paysvc.Intent{
		ID:             pi.ID,
		AmountCents:    pi.Amount,
		AmountReceived: pi.AmountReceived,
		Currency:       pi.Currency,
		Status:         pi.Status,
		Metadata:       pi.Metadata,
	}
	rec, err := wh.Payments.RecordIntentOutcome(c.UserContext(), intent, outcome, rawBody)
	if err != nil {
		// Storage failures are answered 500 so Stripe redelivers; replay is idempotent.
		var pe *booksvc.PersistenceError
		if errors.As(err, &pe) {
			log.Error().Err(err).Str("event_id", event.ID).Str("payment_intent", pi.ID).Msg("Stripe webhook failed, awaiting redelivery")
			return c.Status(fiber.StatusInternalServerError).SendString("Webhook Error: temporarily unavailable")
		}
		log.Warn().Err(err).Str("event_id", event.ID).Str("payment_intent", pi.ID).Msg("Stripe webhook not applied")
		return c.Status(fiber.StatusOK).SendString("ok")
	}
	log.Info().Str("event_id", event.ID).Str("payment_intent", pi.ID).Str("project_status", string(rec.ProjectStatus)).
		Bool("replayed", rec.Replayed).Msg("Stripe webhook applied")
	return c.Status(fiber.StatusOK).SendString("ok")
}
