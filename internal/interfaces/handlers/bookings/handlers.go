package bookings

import (
	"context"
	"strconv"

	booksvc "studio-backend/internal/application/bookings"
	"studio-backend/internal/domain"
	"studio-backend/internal/interfaces/handlers/httperr"
	"studio-backend/internal/middleware"
	"studio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *booksvc.Service
}

// Create POST /api/v1/bookings
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body booksvc.CreateBookingInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	res, err := h.Service.CreateBooking(c.UserContext(), body)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return response.SuccessCreated(c, "Booking request received", res, nil)
}

// Availability GET /api/v1/bookings/availability/:month
func (h *Handlers) Availability(c *fiber.Ctx) error {
	avail, err := h.Service.CheckAvailability(c.UserContext(), c.Params("month"))
	if err != nil {
		return httperr.Respond(c, err)
	}
	return response.Success(c, "Availability retrieved", avail, nil)
}

// Overview GET /api/v1/bookings/availability?from=YYYY-MM&months=n
func (h *Handlers) Overview(c *fiber.Ctx) error {
	months := 0
	if raw := c.Query("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return response.Error(c, "months must be a positive number", fiber.StatusBadRequest, nil)
		}
		months = n
	}
	out, err := h.Service.MonthlyOverview(c.UserContext(), c.Query("from"), months)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return response.Success(c, "Availability retrieved", out, nil)
}

// List GET /api/v1/admin/bookings?status=&month=&limit=&offset=
func (h *Handlers) List(c *fiber.Ctx) error {
	f := booksvc.ProjectFilter{
		Status: domain.ProjectStatus(c.Query("status")),
		Month:  c.Query("month"),
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	projects, total, err := h.Service.ListBookings(c.UserContext(), f)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return response.Success(c, "Bookings retrieved", projects, fiber.Map{
		"total":  total,
		"limit":  f.Limit,
		"offset": f.Offset,
	})
}

// Get GET /api/v1/admin/bookings/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid booking id", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.GetBooking(c.UserContext(), id)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return response.Success(c, "Booking retrieved", p, nil)
}

// Approve PATCH /api/v1/admin/bookings/:id/approve
func (h *Handlers) Approve(c *fiber.Ctx) error {
	return h.decide(c, "approved", h.Service.ApproveBooking)
}

// Decline PATCH /api/v1/admin/bookings/:id/decline
func (h *Handlers) Decline(c *fiber.Ctx) error {
	return h.decide(c, "declined", h.Service.DeclineBooking)
}

// Complete PATCH /api/v1/admin/bookings/:id/complete
func (h *Handlers) Complete(c *fiber.Ctx) error {
	return h.decide(c, "completed", h.Service.CompleteBooking)
}

// Cancel PATCH /api/v1/admin/bookings/:id/cancel
func (h *Handlers) Cancel(c *fiber.Ctx) error {
	return h.decide(c, "cancelled", h.Service.CancelBooking)
}

type decision func(ctx context.Context, id uuid.UUID) (*domain.Project, error)

func (h *Handlers) decide(c *fiber.Ctx, verb string, apply decision) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid booking id", fiber.StatusBadRequest, nil)
	}
	p, err := apply(c.UserContext(), id)
	if err != nil {
		return httperr.Respond(c, err)
	}
	admin := middleware.GetAdmin(c)
	if admin != nil {
		log.Info().Str("admin_id", admin.AdminID).Str("project_id", id.String()).Str("status", string(p.Status)).Msg("Booking decision")
	}
	return response.Success(c, "Booking "+verb, fiber.Map{
		"project_id": p.ID,
		"status":     p.Status,
	}, nil)
}
