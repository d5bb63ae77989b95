package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillStatus enum constants. POSTED and REJECTED are terminal; REWORK loops
// back to DRAFT.
const (
	BillDraft    = "DRAFT"
	BillPending  = "PENDING"
	BillApproved = "APPROVED"
	BillPosted   = "POSTED"
	BillRework   = "REWORK"
	BillRejected = "REJECTED"
)

// PaymentStatus enum constants
const (
	PaymentUnpaid  = "UNPAID"
	PaymentPartial = "PARTIAL"
	PaymentPaid    = "PAID"
)

// Bill is one billing period's charge for one meter. Monetary fields are
// only ever written by the billing pipeline: total_payable is recomputed from
// this_month_amount + outstanding_amount + penalty_amount, and
// outstanding_amount always equals the sum of the three aging buckets.
type Bill struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	MeterID         uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:ux_bills_meter_period" json:"meter_id"`
	Meter           *Meter          `gorm:"foreignKey:MeterID" json:"meter,omitempty"`
	TariffID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"tariff_id"`
	Tariff          *Tariff         `gorm:"foreignKey:TariffID" json:"tariff,omitempty"`
	MonthYear       string          `gorm:"type:varchar(7);not null;uniqueIndex:ux_bills_meter_period" json:"month_year"` // YYYY-MM
	PreviousReading decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"previous_reading"`
	CurrentReading  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"current_reading"`
	// ReadingReset records that the current reading was accepted below the
	// previous one as a meter rollover, so later recomputes keep honoring it.
	ReadingReset bool            `gorm:"not null;default:false" json:"reading_reset"`
	Consumption  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"consumption"`

	WaterCharge       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"water_charge"`
	MaintenanceFee    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"maintenance_fee"`
	SanitationFee     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"sanitation_fee"`
	SewerageCharge    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"sewerage_charge"`
	MeterRent         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"meter_rent"`
	VATAmount         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"vat_amount"`
	AdditionalCharges decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"additional_charges"`
	ThisMonthAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"this_month_amount"`

	Debit0To30        decimal.Decimal `gorm:"column:debit_0_30;type:decimal(18,4);not null;default:0" json:"debit_0_30"`
	Debit30To60       decimal.Decimal `gorm:"column:debit_30_60;type:decimal(18,4);not null;default:0" json:"debit_30_60"`
	Debit60Plus       decimal.Decimal `gorm:"column:debit_60_plus;type:decimal(18,4);not null;default:0" json:"debit_60_plus"`
	OutstandingAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"outstanding_amount"`
	PenaltyAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"penalty_amount"`
	TotalPayable      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_payable"`
	AmountPaid        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount_paid"`
	PaymentStatus     string          `gorm:"type:varchar(20);not null;default:'UNPAID'" json:"payment_status"`

	Status    string         `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	CreatedBy *uuid.UUID     `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy *uuid.UUID     `gorm:"type:uuid" json:"-"`
}

// BillHistory is the append-only audit trail of bill status transitions,
// exactly one row per transition
type BillHistory struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BillID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"bill_id"`
	FromStatus string     `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus   string     `gorm:"type:varchar(20);not null" json:"to_status"`
	ActorID    *uuid.UUID `gorm:"type:uuid" json:"actor_id"`
	Actor      *User      `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Remarks    string     `gorm:"type:text" json:"remarks"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
