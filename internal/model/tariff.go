package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MeterCategory enum constants
const (
	CategoryIndividual = "INDIVIDUAL"
	CategoryBulk       = "BULK"
)

// AdditionalFeeType enum constants
const (
	FeeTypeFlat = "FLAT"
	FeeTypeRate = "RATE"
)

// Tariff is an immutable, dated rate schedule for one meter category.
// Exactly one version is effective for any given date per category; a version
// is retired implicitly when a newer version's effective date arrives.
type Tariff struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Category       string            `gorm:"type:varchar(20);not null;index" json:"category"` // INDIVIDUAL, BULK
	EffectiveDate  time.Time         `gorm:"type:date;not null;index" json:"effective_date"`
	Bands          []ConsumptionBand `gorm:"foreignKey:TariffID;constraint:OnDelete:CASCADE" json:"bands"`
	MaintenanceFee decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0" json:"maintenance_fee"`
	SanitationFee  decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0" json:"sanitation_fee"`
	SewerageRate   decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0" json:"sewerage_rate"`
	MeterRents     []MeterRent       `gorm:"foreignKey:TariffID;constraint:OnDelete:CASCADE" json:"meter_rents"`
	VATRate        decimal.Decimal   `gorm:"type:decimal(10,4);not null;default:0" json:"vat_rate"` // e.g. 0.15 = 15%

	// Per-component taxability. VAT applies only to components flagged true;
	// the observed rule set taxes the water charge and maintenance fee while
	// exempting sewerage and meter rent.
	WaterChargeTaxable    bool `gorm:"not null;default:true" json:"water_charge_taxable"`
	MaintenanceFeeTaxable bool `gorm:"not null;default:true" json:"maintenance_fee_taxable"`
	SanitationFeeTaxable  bool `gorm:"not null;default:false" json:"sanitation_fee_taxable"`
	SewerageTaxable       bool `gorm:"not null;default:false" json:"sewerage_taxable"`
	MeterRentTaxable      bool `gorm:"not null;default:false" json:"meter_rent_taxable"`

	AdditionalFees []AdditionalFee `gorm:"foreignKey:TariffID;constraint:OnDelete:CASCADE" json:"additional_fees"`
	Description    string          `gorm:"type:text" json:"description"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
	DeletedBy      *uuid.UUID      `gorm:"type:uuid" json:"-"`
}

// ConsumptionBand is one tier of the tiered water charge. Bands of a tariff
// are contiguous with strictly increasing upper bounds; the last applicable
// band absorbs consumption above the highest bound.
type ConsumptionBand struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TariffID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"tariff_id"`
	UpperBound decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"upper_bound"` // cubic meters
	Rate       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"rate"`        // per cubic meter
	Position   int             `gorm:"not null" json:"position"`                       // ascending band order
}

// MeterRent maps a meter size to its monthly rent under a tariff version
type MeterRent struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TariffID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"tariff_id"`
	MeterSize string          `gorm:"type:varchar(20);not null" json:"meter_size"` // e.g. "1/2", "3/4", "1"
	Rent      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"rent"`
}

// AdditionalFee is a tariff-defined line item appended after VAT, either a
// flat amount or a rate applied to the pre-VAT subtotal
type AdditionalFee struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TariffID uuid.UUID       `gorm:"type:uuid;not null;index" json:"tariff_id"`
	Name     string          `gorm:"type:varchar(100);not null" json:"name"`
	FeeType  string          `gorm:"type:varchar(10);not null;default:'FLAT'" json:"fee_type"` // FLAT, RATE
	Amount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`
	Rate     decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"rate"`
}
