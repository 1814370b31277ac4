package payments

import (
	"strings"

	paysvc "studio-backend/internal/application/payments"
	"studio-backend/internal/domain"
	"studio-backend/internal/interfaces/handlers/httperr"
	"studio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *paysvc.Service
}

type createIntentRequest struct {
	ProjectID     string `json:"project_id"`
	PaymentMethod string `json:"payment_method"`
}

// CreateIntent POST /api/v1/payments/create-intent. Only approved bookings get an intent.
func (h *Handlers) CreateIntent(c *fiber.Ctx) error {
	var body createIntentRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", fiber.StatusBadRequest, nil)
	}
	if body.ProjectID == "" {
		return response.Error(c, "Missing required field: project_id", fiber.StatusBadRequest, nil)
	}
	projectID, err := uuid.Parse(body.ProjectID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for project_id", fiber.StatusBadRequest, nil)
	}
	res, err := h.Service.CreateIntent(c.UserContext(), projectID, domain.PaymentMethod(strings.ToLower(body.PaymentMethod)))
	if err != nil {
		return httperr.Respond(c, err)
	}
	return response.Success(c, "Payment intent created", res, nil)
}

// SyncIntent GET /api/v1/payments/intents/:intent_id. Pulls the intent status from Stripe
// and records it when final.
func (h *Handlers) SyncIntent(c *fiber.Ctx) error {
	intentID := c.Params("intent_id")
	if !strings.HasPrefix(intentID, "pi_") {
		return response.Error(c, "Invalid payment intent id", fiber.StatusBadRequest, nil)
	}
	intent, rec, err := h.Service.SyncIntent(c.UserContext(), intentID)
	if err != nil {
		return httperr.Respond(c, err)
	}
	data := fiber.Map{
		"payment_intent_id": intent.ID,
		"status":            intent.Status,
	}
	if rec != nil {
		data["payment_status"] = rec.Payment.PaymentStatus
		data["project_status"] = rec.ProjectStatus
	}
	return response.Success(c, "Payment intent synced", data, nil)
}
