package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MeterRepository interface {
	Create(ctx context.Context, meter *model.Meter) error
	Update(ctx context.Context, meter *model.Meter) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Meter, error)
	FindByCustomerKey(ctx context.Context, customerKeyNumber string) (*model.Meter, error)
	List(ctx context.Context, category string, page, limit int) ([]model.Meter, int64, error)
}

type meterRepository struct {
	db *gorm.DB
}

func NewMeterRepository(db *gorm.DB) MeterRepository {
	return &meterRepository{db: db}
}

func (r *meterRepository) Create(ctx context.Context, meter *model.Meter) error {
	return GetDB(ctx, r.db).Create(meter).Error
}

func (r *meterRepository) Update(ctx context.Context, meter *model.Meter) error {
	return GetDB(ctx, r.db).Save(meter).Error
}

func (r *meterRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Meter, error) {
	var meter model.Meter
	if err := GetDB(ctx, r.db).
		Preload("Customer").Preload("Branch").Preload("Route").
		First(&meter, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &meter, nil
}

func (r *meterRepository) FindByCustomerKey(ctx context.Context, customerKeyNumber string) (*model.Meter, error) {
	var meter model.Meter
	if err := GetDB(ctx, r.db).
		Preload("Customer").Preload("Branch").
		First(&meter, "customer_key_number = ?", customerKeyNumber).Error; err != nil {
		return nil, err
	}
	return &meter, nil
}

func (r *meterRepository) List(ctx context.Context, category string, page, limit int) ([]model.Meter, int64, error) {
	var meters []model.Meter
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Meter{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("Customer").Preload("Branch")
	if category != "" {
		fetch = fetch.Where("category = ?", category)
	}
	if err := fetch.Order("customer_key_number asc").Offset(offset).Limit(limit).Find(&meters).Error; err != nil {
		return nil, 0, err
	}

	return meters, total, nil
}
