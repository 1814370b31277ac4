package bookings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"studio-backend/internal/application/emails"
	"studio-backend/internal/domain"
	"studio-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	DefaultMonthlyCapacity = 4
	defaultSendTimeout     = 30 * time.Second
	maxOverviewMonths      = 12
)

// Service owns the booking lifecycle: intake, monthly capacity, admin decisions and
// payment outcomes. Notifications are sent in the background and never fail an operation.
type Service struct {
	Store       Store
	Notifier    emails.Notifier
	Capacity    int64
	AdminEmail  string
	SendTimeout time.Duration
	Now         func() time.Time

	wg sync.WaitGroup
}

func NewService(store Store, notifier emails.Notifier, capacity int64, adminEmail string) *Service {
	if capacity <= 0 {
		capacity = DefaultMonthlyCapacity
	}
	return &Service{
		Store:       store,
		Notifier:    notifier,
		Capacity:    capacity,
		AdminEmail:  adminEmail,
		SendTimeout: defaultSendTimeout,
		Now:         time.Now,
	}
}

// Close waits for in-flight notifications.
func (s *Service) Close() {
	s.wg.Wait()
}

// CreateBookingInput is the public booking form.
type CreateBookingInput struct {
	ClientName     string           `json:"client_name" validate:"required,max=255"`
	ClientEmail    string           `json:"client_email" validate:"required,email_address,max=255"`
	ClientPhone    *string          `json:"client_phone" validate:"omitempty,max=50"`
	ProjectType    string           `json:"project_type" validate:"required,oneof=landing business ecommerce webapp custom service-only"`
	Specifications string           `json:"specifications" validate:"max=10000"`
	BookingMonth   *string          `json:"booking_month" validate:"omitempty,booking_month"`
	BasePrice      *decimal.Decimal `json:"base_price"`
	TotalPrice     *decimal.Decimal `json:"total_price"`
	PrimaryColor   string           `json:"primary_color" validate:"omitempty,hexcolor"`
	SecondaryColor string           `json:"secondary_color" validate:"omitempty,hexcolor"`
}

type CreateBookingResult struct {
	ProjectID uuid.UUID            `json:"project_id"`
	ClientID  uuid.UUID            `json:"client_id"`
	Status    domain.ProjectStatus `json:"status"`
	Project   *domain.Project      `json:"project"`
}

// Availability is the slot usage of one booking month.
type Availability struct {
	Month     string `json:"month"`
	Current   int64  `json:"current"`
	Max       int64  `json:"max"`
	Remaining int64  `json:"remaining"`
	Available bool   `json:"available"`
}

func (in *CreateBookingInput) normalize() {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientEmail = strings.ToLower(strings.TrimSpace(in.ClientEmail))
	in.ProjectType = strings.TrimSpace(in.ProjectType)
	in.Specifications = strings.TrimSpace(in.Specifications)
	if in.ClientPhone != nil {
		phone := strings.TrimSpace(*in.ClientPhone)
		if phone == "" {
			in.ClientPhone = nil
		} else {
			in.ClientPhone = &phone
		}
	}
	if in.BookingMonth != nil {
		month := strings.TrimSpace(*in.BookingMonth)
		if month == "" {
			in.BookingMonth = nil
		} else {
			in.BookingMonth = &month
		}
	}
}

func validateInput(in *CreateBookingInput) error {
	if err := validation.Struct(in); err != nil {
		var fe *validation.FieldError
		if errors.As(err, &fe) {
			return &ValidationError{Field: fe.Field, Message: fe.Error()}
		}
		return &ValidationError{Message: err.Error()}
	}
	if in.BasePrice != nil && in.BasePrice.IsNegative() {
		return &ValidationError{Field: "base_price", Message: "base_price must not be negative"}
	}
	if in.TotalPrice != nil && in.TotalPrice.IsNegative() {
		return &ValidationError{Field: "total_price", Message: "total_price must not be negative"}
	}
	return nil
}

// CreateBooking validates the request, reserves a slot in the booking month (unless the
// project type does not use one), finds or creates the client and stores a pending project.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (*CreateBookingResult, error) {
	in.normalize()
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	projectType := domain.ProjectType(in.ProjectType)
	basePrice := domain.DefaultBasePrice(projectType)
	if in.BasePrice != nil {
		basePrice = *in.BasePrice
	}
	totalPrice := basePrice
	if in.TotalPrice != nil {
		totalPrice = *in.TotalPrice
	}
	project := &domain.Project{
		ProjectType:    projectType,
		Specifications: in.Specifications,
		BookingMonth:   in.BookingMonth,
		BasePrice:      basePrice.Round(2),
		TotalPrice:     totalPrice.Round(2),
		PrimaryColor:   orDefault(in.PrimaryColor, domain.DefaultPrimaryColor),
		SecondaryColor: orDefault(in.SecondaryColor, domain.DefaultSecondaryColor),
		Status:         domain.StatusPending,
	}

	var client *domain.Client
	create := func(st Store) error {
		if in.BookingMonth != nil && projectType.UsesMonthlySlot() {
			current, err := st.CountProjectsForMonth(ctx, *in.BookingMonth, domain.CapacityExcludedStatuses)
			if err != nil {
				return err
			}
			if current >= s.Capacity {
				return &CapacityExceededError{Month: *in.BookingMonth, Current: current, Max: s.Capacity}
			}
		}
		c, err := st.FindClientByEmail(ctx, in.ClientEmail)
		if err != nil {
			return err
		}
		if c == nil {
			if c, err = st.CreateClient(ctx, in.ClientName, in.ClientEmail, in.ClientPhone); err != nil {
				return err
			}
		}
		client = c
		project.ClientID = c.ID
		return st.CreateProject(ctx, project)
	}

	var err error
	if in.BookingMonth != nil && projectType.UsesMonthlySlot() {
		err = s.Store.WithinMonthLock(ctx, *in.BookingMonth, create)
	} else {
		err = s.Store.WithinTx(ctx, create)
	}
	if err != nil {
		return nil, persistErr("create booking", err)
	}
	project.Client = client

	log.Info().Str("project_id", project.ID.String()).Str("client_id", client.ID.String()).
		Str("project_type", string(projectType)).Str("booking_month", monthOf(project)).Msg("Booking created")

	details := detailsFor(project)
	s.notify(emails.KindBookingReceived, client.Email, details)
	s.notify(emails.KindAdminAlert, s.AdminEmail, details)

	return &CreateBookingResult{ProjectID: project.ID, ClientID: client.ID, Status: project.Status, Project: project}, nil
}

// CheckAvailability reports how many slots month has left. It never writes.
func (s *Service) CheckAvailability(ctx context.Context, month string) (*Availability, error) {
	month = strings.TrimSpace(month)
	if !validation.IsValidBookingMonth(month) {
		return nil, &ValidationError{Field: "month", Message: "month must be formatted as YYYY-MM"}
	}
	current, err := s.Store.CountProjectsForMonth(ctx, month, domain.CapacityExcludedStatuses)
	if err != nil {
		return nil, persistErr("check availability", err)
	}
	return s.availability(month, current), nil
}

// MonthlyOverview returns availability for `months` consecutive months starting at from
// (the current month when empty).
func (s *Service) MonthlyOverview(ctx context.Context, from string, months int) ([]Availability, error) {
	from = strings.TrimSpace(from)
	if from == "" {
		from = s.now().Format("2006-01")
	}
	if !validation.IsValidBookingMonth(from) {
		return nil, &ValidationError{Field: "from", Message: "from must be formatted as YYYY-MM"}
	}
	if months <= 0 {
		months = 6
	}
	if months > maxOverviewMonths {
		return nil, &ValidationError{Field: "months", Message: "months must be between 1 and 12"}
	}
	start, err := time.Parse("2006-01", from)
	if err != nil {
		return nil, &ValidationError{Field: "from", Message: "from must be formatted as YYYY-MM"}
	}
	out := make([]Availability, 0, months)
	for i := 0; i < months; i++ {
		month := start.AddDate(0, i, 0).Format("2006-01")
		current, err := s.Store.CountProjectsForMonth(ctx, month, domain.CapacityExcludedStatuses)
		if err != nil {
			return nil, persistErr("monthly overview", err)
		}
		out = append(out, *s.availability(month, current))
	}
	return out, nil
}

func (s *Service) availability(month string, current int64) *Availability {
	remaining := s.Capacity - current
	if remaining < 0 {
		remaining = 0
	}
	return &Availability{
		Month:     month,
		Current:   current,
		Max:       s.Capacity,
		Remaining: remaining,
		Available: current < s.Capacity,
	}
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	p, err := s.Store.GetProject(ctx, id)
	if err != nil {
		return nil, persistErr("get booking", err)
	}
	return p, nil
}

func (s *Service) ListBookings(ctx context.Context, f ProjectFilter) ([]domain.Project, int64, error) {
	if f.Status != "" && !knownStatus(f.Status) {
		return nil, 0, &ValidationError{Field: "status", Message: "Unknown booking status: " + string(f.Status)}
	}
	if f.Month != "" && !validation.IsValidBookingMonth(f.Month) {
		return nil, 0, &ValidationError{Field: "month", Message: "month must be formatted as YYYY-MM"}
	}
	projects, total, err := s.Store.ListProjects(ctx, f)
	if err != nil {
		return nil, 0, persistErr("list bookings", err)
	}
	return projects, total, nil
}

// ApproveBooking moves a pending booking to approved. Approving an approved booking
// returns it unchanged and sends nothing.
func (s *Service) ApproveBooking(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	p, changed, err := s.transition(ctx, id, domain.StatusApproved)
	if err != nil {
		return nil, err
	}
	if changed {
		s.notifyClient(emails.KindApproved, p)
	}
	return p, nil
}

// DeclineBooking moves a pending booking to declined. Declining twice is a no-op.
func (s *Service) DeclineBooking(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	p, changed, err := s.transition(ctx, id, domain.StatusDeclined)
	if err != nil {
		return nil, err
	}
	if changed {
		s.notifyClient(emails.KindDeclined, p)
	}
	return p, nil
}

func (s *Service) CompleteBooking(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	p, _, err := s.transition(ctx, id, domain.StatusCompleted)
	return p, err
}

// CancelBooking cancels an approved or in-progress booking, freeing its month slot.
func (s *Service) CancelBooking(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	p, _, err := s.transition(ctx, id, domain.StatusCancelled)
	return p, err
}

// transition applies from -> to as a compare-and-set so concurrent decisions cannot both win.
// Reaching a status the booking already has is reported as unchanged.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to domain.ProjectStatus) (*domain.Project, bool, error) {
	p, err := s.Store.GetProject(ctx, id)
	if err != nil {
		return nil, false, persistErr("load booking", err)
	}
	if p.Status == to {
		return p, false, nil
	}
	if !domain.CanTransition(p.Status, to) {
		return nil, false, &InvalidTransitionError{From: p.Status, To: to}
	}
	ok, err := s.Store.UpdateProjectStatus(ctx, id, p.Status, to)
	if err != nil {
		return nil, false, persistErr("update booking status", err)
	}
	if !ok {
		current, err := s.Store.GetProject(ctx, id)
		if err != nil {
			return nil, false, persistErr("load booking", err)
		}
		if current.Status == to {
			return current, false, nil
		}
		return nil, false, &InvalidTransitionError{From: current.Status, To: to}
	}
	log.Info().Str("project_id", id.String()).Str("from", string(p.Status)).Str("to", string(to)).Msg("Booking status changed")
	p.Status = to
	return p, true, nil
}

func (s *Service) notifyClient(kind emails.Kind, p *domain.Project) {
	if p.Client == nil {
		return
	}
	s.notify(kind, p.Client.Email, detailsFor(p))
}

// notify sends in the background with its own deadline; the request context may already be gone.
func (s *Service) notify(kind emails.Kind, recipient string, details emails.BookingDetails) {
	if s.Notifier == nil || recipient == "" {
		return
	}
	timeout := s.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("kind", string(kind)).Msg("Notification panicked")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Notifier.Notify(ctx, kind, recipient, details); err != nil {
			log.Warn().Err(err).Str("kind", string(kind)).Str("project_id", details.ProjectID).Msg("Notification failed")
		}
	}()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func detailsFor(p *domain.Project) emails.BookingDetails {
	d := emails.BookingDetails{
		ProjectID:      p.ID.String(),
		ProjectType:    string(p.ProjectType),
		BookingMonth:   monthOf(p),
		Specifications: p.Specifications,
		TotalPrice:     p.TotalPrice.StringFixed(2),
	}
	if p.Client != nil {
		d.ClientName = p.Client.Name
		d.ClientEmail = p.Client.Email
	}
	return d
}

func monthOf(p *domain.Project) string {
	if p.BookingMonth == nil {
		return ""
	}
	return *p.BookingMonth
}

func knownStatus(st domain.ProjectStatus) bool {
	switch st {
	case domain.StatusPending, domain.StatusApproved, domain.StatusDeclined,
		domain.StatusInProgress, domain.StatusCompleted, domain.StatusCancelled:
		return true
	}
	return false
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
