package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TariffRepository interface {
	Create(ctx context.Context, tariff *model.Tariff) error
	Update(ctx context.Context, tariff *model.Tariff) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tariff, error)
	List(ctx context.Context, category string, page, limit int) ([]model.Tariff, int64, error)
	// FindEffective returns the tariff version for the category with the
	// greatest effective_date not after periodDate.
	FindEffective(ctx context.Context, category string, periodDate time.Time) (*model.Tariff, error)
	CountBillsReferencing(ctx context.Context, tariffID uuid.UUID) (int64, error)
	ExistsForDate(ctx context.Context, category string, effectiveDate time.Time, excludeID *uuid.UUID) (bool, error)
}

type tariffRepository struct {
	db *gorm.DB
}

func NewTariffRepository(db *gorm.DB) TariffRepository {
	return &tariffRepository{db: db}
}

func (r *tariffRepository) Create(ctx context.Context, tariff *model.Tariff) error {
	return GetDB(ctx, r.db).Create(tariff).Error
}

func (r *tariffRepository) Update(ctx context.Context, tariff *model.Tariff) error {
	return GetDB(ctx, r.db).Save(tariff).Error
}

func (r *tariffRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Tariff, error) {
	var tariff model.Tariff
	if err := GetDB(ctx, r.db).
		Preload("Bands").Preload("MeterRents").Preload("AdditionalFees").
		First(&tariff, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tariff, nil
}

func (r *tariffRepository) List(ctx context.Context, category string, page, limit int) ([]model.Tariff, int64, error) {
	var tariffs []model.Tariff
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Tariff{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("Bands").Preload("MeterRents").Preload("AdditionalFees")
	if category != "" {
		fetch = fetch.Where("category = ?", category)
	}
	if err := fetch.Order("effective_date desc").Offset(offset).Limit(limit).Find(&tariffs).Error; err != nil {
		return nil, 0, err
	}

	return tariffs, total, nil
}

func (r *tariffRepository) FindEffective(ctx context.Context, category string, periodDate time.Time) (*model.Tariff, error) {
	var tariff model.Tariff
	if err := GetDB(ctx, r.db).
		Preload("Bands").Preload("MeterRents").Preload("AdditionalFees").
		Where("category = ? AND effective_date <= ?", category, periodDate).
		Order("effective_date DESC").
		First(&tariff).Error; err != nil {
		return nil, err
	}
	return &tariff, nil
}

func (r *tariffRepository) CountBillsReferencing(ctx context.Context, tariffID uuid.UUID) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Bill{}).Where("tariff_id = ?", tariffID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *tariffRepository) ExistsForDate(ctx context.Context, category string, effectiveDate time.Time, excludeID *uuid.UUID) (bool, error) {
	query := GetDB(ctx, r.db).Model(&model.Tariff{}).
		Where("category = ? AND effective_date = ?", category, effectiveDate)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
