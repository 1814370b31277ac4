package payments

import (
	"context"
	"errors"
	"strings"

	"studio-backend/internal/application/bookings"
	"studio-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "aud"

// ErrUnknownIntent is returned when an intent carries no booking reference.
var ErrUnknownIntent = errors.New("Payment intent is not linked to a booking")

// Service connects the booking lifecycle to the payment gateway.
type Service struct {
	Bookings *bookings.Service
	Gateway  Gateway
	Currency string
}

func NewService(b *bookings.Service, g Gateway, currency string) *Service {
	return &Service{Bookings: b, Gateway: g, Currency: currency}
}

func (s *Service) currency() string {
	if s.Currency == "" {
		return DefaultCurrency
	}
	return strings.ToLower(s.Currency)
}

type CreateIntentResult struct {
	PaymentIntentID string          `json:"payment_intent_id"`
	ClientSecret    string          `json:"client_secret"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

// CreateIntent opens a gateway payment for the booking's total. Only approved bookings can pay.
func (s *Service) CreateIntent(ctx context.Context, projectID uuid.UUID, method domain.PaymentMethod) (*CreateIntentResult, error) {
	if method != "" && method != domain.MethodStripe {
		return nil, &bookings.ValidationError{Field: "payment_method", Message: "Only stripe payments can be started online"}
	}
	project, err := s.Bookings.BeginPayment(ctx, projectID)
	if err != nil {
		return nil, err
	}
	amountCents := ToCents(project.TotalPrice)
	if amountCents <= 0 {
		return nil, &bookings.ValidationError{Field: "total_price", Message: "Booking has nothing to pay"}
	}
	if s.Gateway == nil {
		return nil, ErrGatewayNotConfigured
	}
	intent, err := s.Gateway.CreateIntent(ctx, amountCents, s.currency(), map[string]string{
		"project_id": project.ID.String(),
		"client_id":  project.ClientID.String(),
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.Bookings.RegisterPaymentAttempt(ctx, project.ID, intent.ID, project.TotalPrice, s.currency(), domain.MethodStripe); err != nil {
		return nil, err
	}
	return &CreateIntentResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          project.TotalPrice,
		Currency:        s.currency(),
	}, nil
}

// SyncIntent reads the intent from the gateway and records its outcome, for clients that
// return from checkout before the webhook arrives. A still-open intent records nothing and
// returns a nil record.
func (s *Service) SyncIntent(ctx context.Context, intentID string) (*Intent, *bookings.PaymentRecord, error) {
	if s.Gateway == nil {
		return nil, nil, ErrGatewayNotConfigured
	}
	intent, err := s.Gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, nil, err
	}
	outcome, final := OutcomeForIntent(intent)
	if !final {
		return intent, nil, nil
	}
	rec, err := s.RecordIntentOutcome(ctx, intent, outcome, nil)
	if err != nil {
		return nil, nil, err
	}
	return intent, rec, nil
}

// RecordIntentOutcome records outcome for the booking named in the intent's metadata.
func (s *Service) RecordIntentOutcome(ctx context.Context, intent *Intent, outcome domain.PaymentOutcome, raw []byte) (*bookings.PaymentRecord, error) {
	projectID, err := uuid.Parse(intent.Metadata["project_id"])
	if err != nil {
		return nil, ErrUnknownIntent
	}
	cents := intent.AmountReceived
	if cents == 0 {
		cents = intent.AmountCents
	}
	return s.Bookings.RecordPaymentOutcome(ctx, bookings.PaymentOutcomeInput{
		ProjectID:        projectID,
		GatewayReference: intent.ID,
		Amount:           FromCents(cents),
		Currency:         intent.Currency,
		Method:           domain.MethodStripe,
		Outcome:          outcome,
		RawEvent:         raw,
	})
}

// OutcomeForIntent maps a Stripe intent status to a final outcome. The bool is false while
// the intent can still change.
func OutcomeForIntent(intent *Intent) (domain.PaymentOutcome, bool) {
	switch intent.Status {
	case "succeeded":
		return domain.OutcomeSucceeded, true
	case "canceled":
		return domain.OutcomeCanceled, true
	case "requires_payment_method":
		if intent.LastPaymentFailed {
			return domain.OutcomeFailed, true
		}
	}
	return "", false
}

func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
