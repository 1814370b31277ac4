package bookings

import (
	"context"
	"strings"

	"studio-backend/internal/application/emails"
	"studio-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentOutcomeInput is one gateway report about a payment attempt.
type PaymentOutcomeInput struct {
	ProjectID        uuid.UUID
	GatewayReference string
	Amount           decimal.Decimal
	Currency         string
	Method           domain.PaymentMethod
	Outcome          domain.PaymentOutcome
	RawEvent         []byte
}

// PaymentRecord is the state after an outcome has been applied.
type PaymentRecord struct {
	Payment       *domain.Payment      `json:"payment"`
	ProjectStatus domain.ProjectStatus `json:"project_status"`
	// Replayed is true when the outcome had already been applied.
	Replayed bool `json:"replayed"`
}

// BeginPayment returns the booking if it may be paid for. Only approved bookings can be.
func (s *Service) BeginPayment(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	p, err := s.Store.GetProject(ctx, id)
	if err != nil {
		return nil, persistErr("load booking", err)
	}
	if p.Status != domain.StatusApproved {
		return nil, &InvalidTransitionError{From: p.Status, To: domain.StatusInProgress}
	}
	return p, nil
}

// RegisterPaymentAttempt stores a pending payment for a freshly created gateway intent.
func (s *Service) RegisterPaymentAttempt(ctx context.Context, projectID uuid.UUID, ref string, amount decimal.Decimal, currency string, method domain.PaymentMethod) (*domain.Payment, error) {
	if ref == "" {
		return nil, &ValidationError{Field: "gateway_reference", Message: "Missing required field: gateway_reference"}
	}
	var out *domain.Payment
	err := s.Store.WithinTx(ctx, func(st Store) error {
		existing, err := st.FindPaymentByReference(ctx, ref)
		if err != nil {
			return err
		}
		if existing != nil {
			out = existing
			return nil
		}
		p := &domain.Payment{
			ProjectID:        projectID,
			Amount:           amount.Round(2),
			Currency:         strings.ToLower(currency),
			PaymentMethod:    methodOrDefault(method),
			PaymentStatus:    domain.PaymentPending,
			GatewayReference: ref,
		}
		if err := st.UpsertPayment(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, persistErr("register payment", err)
	}
	return out, nil
}

// RecordPaymentOutcome applies a gateway outcome. Redelivery of an outcome already applied
// is a no-op, a completed payment is never downgraded, and a declined booking never gets a
// completed payment. A succeeded payment moves an approved booking to in_progress once.
func (s *Service) RecordPaymentOutcome(ctx context.Context, in PaymentOutcomeInput) (*PaymentRecord, error) {
	if in.ProjectID == uuid.Nil {
		return nil, &ValidationError{Field: "project_id", Message: "Missing required field: project_id"}
	}
	if in.GatewayReference == "" {
		return nil, &ValidationError{Field: "gateway_reference", Message: "Missing required field: gateway_reference"}
	}
	target, ok := paymentStatusFor(in.Outcome)
	if !ok {
		return nil, &ValidationError{Field: "outcome", Message: "Unknown payment outcome: " + string(in.Outcome)}
	}
	if in.Amount.IsNegative() {
		return nil, &ValidationError{Field: "amount", Message: "amount must not be negative"}
	}

	var (
		record    PaymentRecord
		project   *domain.Project
		confirmed bool
	)
	err := s.Store.WithinTx(ctx, func(st Store) error {
		p, err := st.GetProject(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		project = p

		existing, err := st.FindPaymentByReference(ctx, in.GatewayReference)
		if err != nil {
			return err
		}
		if existing != nil && existing.ProjectID != in.ProjectID {
			return &ValidationError{Field: "gateway_reference", Message: "Payment reference belongs to another booking"}
		}

		status := target
		if status == domain.PaymentCompleted && p.Status == domain.StatusDeclined {
			log.Warn().Str("project_id", p.ID.String()).Str("gateway_reference", in.GatewayReference).
				Msg("Integrity warning: payment succeeded for a declined booking, recording as failed")
			status = domain.PaymentFailed
		}

		// A failed attempt may still succeed later (card retried on the same intent), and an
		// intent canceled after a failed attempt still cancels its approved booking. Every
		// other final status is kept.
		if existing != nil && existing.PaymentStatus.IsTerminal() {
			retried := existing.PaymentStatus == domain.PaymentFailed && status == domain.PaymentCompleted
			canceledAfterFailure := existing.PaymentStatus == domain.PaymentFailed &&
				in.Outcome == domain.OutcomeCanceled && p.Status == domain.StatusApproved
			if !retried && !canceledAfterFailure {
				if existing.PaymentStatus != status {
					log.Warn().Str("gateway_reference", in.GatewayReference).Str("stored", string(existing.PaymentStatus)).
						Str("reported", string(status)).Msg("Ignoring payment outcome that would downgrade a final payment")
				}
				record = PaymentRecord{Payment: existing, ProjectStatus: p.Status, Replayed: true}
				return nil
			}
		}

		payment := &domain.Payment{
			ProjectID:        in.ProjectID,
			Amount:           in.Amount.Round(2),
			Currency:         strings.ToLower(in.Currency),
			PaymentMethod:    methodOrDefault(in.Method),
			PaymentStatus:    status,
			GatewayReference: in.GatewayReference,
		}
		if existing != nil {
			payment.PaymentMethod = existing.PaymentMethod
			if payment.Currency == "" {
				payment.Currency = existing.Currency
			}
		}
		if len(in.RawEvent) > 0 {
			payment.RawEvent = datatypes.JSON(in.RawEvent)
		}
		if err := st.UpsertPayment(ctx, payment); err != nil {
			return err
		}

		switch {
		case status == domain.PaymentCompleted:
			if p.Status == domain.StatusApproved {
				moved, err := st.UpdateProjectStatus(ctx, p.ID, domain.StatusApproved, domain.StatusInProgress)
				if err != nil {
					return err
				}
				if moved {
					p.Status = domain.StatusInProgress
					confirmed = true
				}
			} else if p.Status != domain.StatusInProgress && p.Status != domain.StatusCompleted {
				log.Warn().Str("project_id", p.ID.String()).Str("status", string(p.Status)).
					Str("gateway_reference", in.GatewayReference).
					Msg("Integrity warning: payment succeeded for a booking that was not approved")
			}
		case in.Outcome == domain.OutcomeCanceled && p.Status == domain.StatusApproved:
			moved, err := st.UpdateProjectStatus(ctx, p.ID, domain.StatusApproved, domain.StatusCancelled)
			if err != nil {
				return err
			}
			if moved {
				p.Status = domain.StatusCancelled
			}
		}

		record = PaymentRecord{Payment: payment, ProjectStatus: p.Status}
		return nil
	})
	if err != nil {
		return nil, persistErr("record payment outcome", err)
	}

	log.Info().Str("project_id", in.ProjectID.String()).Str("gateway_reference", in.GatewayReference).
		Str("outcome", string(in.Outcome)).Bool("replayed", record.Replayed).
		Str("project_status", string(record.ProjectStatus)).Msg("Payment outcome recorded")

	if confirmed && project.Client != nil {
		details := detailsFor(project)
		details.AmountPaid = record.Payment.Amount.StringFixed(2)
		details.Currency = strings.ToUpper(record.Payment.Currency)
		s.notify(emails.KindPaymentConfirmed, project.Client.Email, details)
	}
	return &record, nil
}

func paymentStatusFor(o domain.PaymentOutcome) (domain.PaymentStatus, bool) {
	switch o {
	case domain.OutcomeSucceeded:
		return domain.PaymentCompleted, true
	case domain.OutcomeFailed, domain.OutcomeCanceled:
		return domain.PaymentFailed, true
	}
	return "", false
}

func methodOrDefault(m domain.PaymentMethod) domain.PaymentMethod {
	if m == "" {
		return domain.MethodStripe
	}
	return m
}
