package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateBill       = "CREATE_BILL"
	ActionTransitionBill   = "TRANSITION_BILL"
	ActionRecalculateBills = "RECALCULATE_BILLS"
	ActionCreateTariff     = "CREATE_TARIFF"
	ActionUpdateTariff     = "UPDATE_TARIFF"
	ActionCreateMeter      = "CREATE_METER"
	ActionUpdateMeter      = "UPDATE_METER"
	ActionCreateCustomer   = "CREATE_CUSTOMER"
	ActionCreateBranch     = "CREATE_BRANCH"
	ActionCreateRoute      = "CREATE_ROUTE"
	ActionCreateFaultCode  = "CREATE_FAULT_CODE"

	// Recycle bin actions
	ActionSoftDelete = "SOFT_DELETE"
	ActionRestore    = "RESTORE"
	ActionPurge      = "PURGE"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
