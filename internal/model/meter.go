package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Meter is a metering point, billed in aggregate (BULK) or per household
// (INDIVIDUAL). CustomerKeyNumber is the external identity key used by the
// legacy billing interfaces.
type Meter struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerKeyNumber string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"customer_key_number"`
	Category          string          `gorm:"type:varchar(20);not null;index" json:"category"` // INDIVIDUAL, BULK
	MeterSize         string          `gorm:"type:varchar(20);not null" json:"meter_size"`
	SewerageConnected bool            `gorm:"not null;default:false" json:"sewerage_connected"`
	CustomerID        *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id"`
	Customer          *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	BranchID          *uuid.UUID      `gorm:"type:uuid;index" json:"branch_id"`
	Branch            *Branch         `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	RouteID           *uuid.UUID      `gorm:"type:uuid;index" json:"route_id"`
	Route             *Route          `gorm:"foreignKey:RouteID" json:"route,omitempty"`
	PreviousReading   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"previous_reading"`
	CurrentReading    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"current_reading"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
	DeletedBy         *uuid.UUID      `gorm:"type:uuid" json:"-"`
}

// FaultCode classifies meter faults reported during reading rounds
type FaultCode struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy   *uuid.UUID     `gorm:"type:uuid" json:"-"`
}
