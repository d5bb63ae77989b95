package model

import (
	"time"

	"github.com/google/uuid"
)

// Capability codes consumed as gates by the bill state machine and the
// recycle bin manager
const (
	CapBillCreate     = "bill:create"
	CapBillViewDrafts = "bill:view_drafts"
	CapBillSubmit     = "bill:submit"
	CapBillRework     = "bill:rework"
	CapBillApprove    = "bill:approve"
	CapBillPost       = "bill:post"
	CapBillManageAll  = "bill:manage_all"
	CapRecycleDelete  = "recycle:delete"
	CapRecycleRestore = "recycle:restore"
	CapRecyclePurge   = "recycle:purge"
	CapTariffManage   = "tariff:manage"
	CapStaffManage    = "staff:manage"
)

// CapabilitySet is the typed set of capability codes an actor holds,
// resolved once per request and passed explicitly into service calls
type CapabilitySet map[string]struct{}

// NewCapabilitySet builds a set from a list of capability codes
func NewCapabilitySet(codes ...string) CapabilitySet {
	set := make(CapabilitySet, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the given capability code
func (s CapabilitySet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Role represents a user role with associated permissions
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission represents a single capability that can be assigned to roles
type Permission struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // e.g. "bill:approve"
	Name  string    `gorm:"type:varchar(255);not null" json:"name"`
	Group string    `gorm:"type:varchar(50);not null;index" json:"group"` // "bill", "recycle", "tariff"...
}
