package model

import (
	"time"

	"github.com/google/uuid"
)

// Recycle-bin entity-type tags
const (
	EntityStaff     = "staff"
	EntityBranch    = "branch"
	EntityCustomer  = "customer"
	EntityBulkMeter = "bulk_meter"
	EntityMeter     = "meter"
	EntityRoute     = "route"
	EntityFaultCode = "fault_code"
	EntityBill      = "bill"
	EntityTariff    = "tariff"
)

// RecycleBinEntry holds the reversible soft-delete record for any deletable
// entity. It is created in the same transaction that soft-deletes the source
// row and destroyed on restore or permanent purge.
type RecycleBinEntry struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EntityType   string     `gorm:"type:varchar(30);not null;index" json:"entity_type"`
	EntityID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"entity_id"`
	EntityName   string     `gorm:"type:varchar(255)" json:"entity_name"`
	OriginalData string     `gorm:"type:jsonb;not null" json:"original_data"` // full pre-delete snapshot
	DeletedBy    *uuid.UUID `gorm:"type:uuid" json:"deleted_by"`
	Deleter      *User      `gorm:"foreignKey:DeletedBy" json:"deleter,omitempty"`
	DeletedAt    time.Time  `gorm:"index" json:"deleted_at"`
}
