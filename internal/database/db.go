package database

import (
	"log"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate auto-migrates the billing models. Exposed separately so tests can
// run it against their own database handle.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.Branch{},
		&model.Route{},
		&model.Customer{},
		&model.Meter{},
		&model.FaultCode{},
		&model.Tariff{},
		&model.ConsumptionBand{},
		&model.MeterRent{},
		&model.AdditionalFee{},
		&model.Bill{},
		&model.BillHistory{},
		&model.RecycleBinEntry{},
		&model.AuditLog{},
	)
}
