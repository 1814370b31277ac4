package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProjectType string

const (
	ProjectLanding     ProjectType = "landing"
	ProjectBusiness    ProjectType = "business"
	ProjectEcommerce   ProjectType = "ecommerce"
	ProjectWebapp      ProjectType = "webapp"
	ProjectCustom      ProjectType = "custom"
	ProjectServiceOnly ProjectType = "service-only"
)

// ProjectTypes lists every accepted project type, in display order.
var ProjectTypes = []ProjectType{
	ProjectLanding, ProjectBusiness, ProjectEcommerce, ProjectWebapp, ProjectCustom, ProjectServiceOnly,
}

// UsesMonthlySlot reports whether bookings of this type occupy one of the month's slots.
// Service-only work (hosting, maintenance, SEO) does not.
func (t ProjectType) UsesMonthlySlot() bool {
	return t != ProjectServiceOnly
}

// defaultBasePrices is the fallback price list used when a booking arrives without prices.
var defaultBasePrices = map[ProjectType]decimal.Decimal{
	ProjectLanding:     decimal.NewFromInt(500),
	ProjectBusiness:    decimal.NewFromInt(1500),
	ProjectEcommerce:   decimal.NewFromInt(3000),
	ProjectWebapp:      decimal.NewFromInt(5000),
	ProjectCustom:      decimal.NewFromInt(2500),
	ProjectServiceOnly: decimal.NewFromInt(150),
}

// DefaultBasePrice returns the list price for t (zero for unknown types).
func DefaultBasePrice(t ProjectType) decimal.Decimal {
	return defaultBasePrices[t]
}

const (
	DefaultPrimaryColor   = "#2563eb"
	DefaultSecondaryColor = "#64748b"
)

// Project is a booking: a client's request for one engagement. Status only moves through
// the transitions in status.go.
type Project struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ClientID       uuid.UUID       `gorm:"column:client_id;type:uuid;not null;index" json:"client_id"`
	Client         *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ProjectType    ProjectType     `gorm:"column:project_type;type:varchar(20);not null" json:"project_type"`
	Specifications string          `gorm:"column:specifications;type:text" json:"specifications"`
	BookingMonth   *string         `gorm:"column:booking_month;type:varchar(7);index" json:"booking_month"`
	BasePrice      decimal.Decimal `gorm:"column:base_price;type:decimal(12,2);not null" json:"base_price"`
	TotalPrice     decimal.Decimal `gorm:"column:total_price;type:decimal(12,2);not null" json:"total_price"`
	PrimaryColor   string          `gorm:"column:primary_color;type:varchar(7)" json:"primary_color"`
	SecondaryColor string          `gorm:"column:secondary_color;type:varchar(7)" json:"secondary_color"`
	Status         ProjectStatus   `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`
	Payments       []Payment       `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (Project) TableName() string {
	return "Projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
