package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	MethodStripe   PaymentMethod = "stripe"
	MethodPaypal   PaymentMethod = "paypal"
	MethodAfterpay PaymentMethod = "afterpay"
	MethodCredit   PaymentMethod = "credit"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// IsTerminal reports whether the gateway has reported a final result for the payment.
func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentPending
}

// PaymentOutcome is what the gateway reports for a payment attempt.
type PaymentOutcome string

const (
	OutcomeSucceeded PaymentOutcome = "succeeded"
	OutcomeFailed    PaymentOutcome = "failed"
	OutcomeCanceled  PaymentOutcome = "canceled"
)

// Payment is one payment attempt against a project, keyed by the gateway's reference
// (the Stripe PaymentIntent id).
type Payment struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID        uuid.UUID       `gorm:"column:project_id;type:uuid;not null;index" json:"project_id"`
	Amount           decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	Currency         string          `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
	PaymentMethod    PaymentMethod   `gorm:"column:payment_method;type:varchar(20);not null" json:"payment_method"`
	PaymentStatus    PaymentStatus   `gorm:"column:payment_status;type:varchar(20);not null;default:'pending'" json:"payment_status"`
	GatewayReference string          `gorm:"column:gateway_reference;not null;uniqueIndex" json:"gateway_reference"`
	RawEvent         datatypes.JSON  `gorm:"column:raw_event" json:"-"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func (Payment) TableName() string {
	return "Payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
