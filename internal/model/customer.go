package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is the account holder behind one or more meters
type Customer struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	TIN       string         `gorm:"type:varchar(50)" json:"tin"` // tax identification number
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	Address   string         `gorm:"type:text" json:"address"`
	BranchID  *uuid.UUID     `gorm:"type:uuid;index" json:"branch_id"`
	Branch    *Branch        `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy *uuid.UUID     `gorm:"type:uuid" json:"-"`
}

// Branch is a utility service branch office
type Branch struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Address   string         `gorm:"type:text" json:"address"`
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy *uuid.UUID     `gorm:"type:uuid" json:"-"`
}

// Route is a meter-reading round within a branch
type Route struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	BranchID  *uuid.UUID     `gorm:"type:uuid;index" json:"branch_id"`
	Branch    *Branch        `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	DeletedBy *uuid.UUID     `gorm:"type:uuid" json:"-"`
}
