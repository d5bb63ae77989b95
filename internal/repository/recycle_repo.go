package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecycleBinRepository interface {
	Create(ctx context.Context, entry *model.RecycleBinEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RecycleBinEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, entityType string, page, limit int) ([]model.RecycleBinEntry, int64, error)
}

type recycleBinRepository struct {
	db *gorm.DB
}

func NewRecycleBinRepository(db *gorm.DB) RecycleBinRepository {
	return &recycleBinRepository{db: db}
}

func (r *recycleBinRepository) Create(ctx context.Context, entry *model.RecycleBinEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *recycleBinRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.RecycleBinEntry, error) {
	var entry model.RecycleBinEntry
	if err := GetDB(ctx, r.db).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *recycleBinRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.RecycleBinEntry{}).Error
}

func (r *recycleBinRepository) List(ctx context.Context, entityType string, page, limit int) ([]model.RecycleBinEntry, int64, error) {
	var entries []model.RecycleBinEntry
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.RecycleBinEntry{})
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("Deleter")
	if entityType != "" {
		fetch = fetch.Where("entity_type = ?", entityType)
	}
	if err := fetch.Order("deleted_at desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
