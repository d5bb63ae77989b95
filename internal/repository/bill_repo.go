package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BillListFilter narrows bill listings
type BillListFilter struct {
	MeterID   *uuid.UUID
	Status    string
	MonthYear string
	Page      int
	Limit     int
}

type BillRepository interface {
	Create(ctx context.Context, bill *model.Bill) error
	Update(ctx context.Context, bill *model.Bill) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	// FindByIDForUpdate locks the bill row for the duration of the enclosing
	// transaction so concurrent transitions serialize.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	List(ctx context.Context, filter BillListFilter) ([]model.Bill, int64, error)
	// ExistsForPeriod reports whether any bill, live or soft-deleted, already
	// occupies the meter's period. The unique index on (meter_id, month_year)
	// still counts rows sitting in the recycle bin, so the check must too.
	ExistsForPeriod(ctx context.Context, meterID uuid.UUID, monthYear string) (exists bool, inRecycleBin bool, err error)
	// RecentPriorBills returns up to limit bills for the meter with periods
	// strictly before monthYear, most recent first.
	RecentPriorBills(ctx context.Context, meterID uuid.UUID, monthYear string, limit int) ([]model.Bill, error)
	AppendHistory(ctx context.Context, entry *model.BillHistory) error
	History(ctx context.Context, billID uuid.UUID) ([]model.BillHistory, error)
	// UnpaidBillIDs streams ids of bills with an unpaid balance, for the bulk
	// recalculation pass.
	UnpaidBillIDs(ctx context.Context) ([]uuid.UUID, error)
}

type billRepository struct {
	db *gorm.DB
}

func NewBillRepository(db *gorm.DB) BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) Create(ctx context.Context, bill *model.Bill) error {
	return GetDB(ctx, r.db).Create(bill).Error
}

func (r *billRepository) Update(ctx context.Context, bill *model.Bill) error {
	return GetDB(ctx, r.db).Save(bill).Error
}

func (r *billRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	var bill model.Bill
	if err := GetDB(ctx, r.db).First(&bill, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *billRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	var bill model.Bill
	if err := GetDB(ctx, r.db).
		Preload("Meter").Preload("Meter.Customer").Preload("Meter.Branch").Preload("Tariff").
		First(&bill, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *billRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	db := GetDB(ctx, r.db)
	// sqlite has no row-level locks; its single-writer model serializes anyway
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var bill model.Bill
	if err := db.First(&bill, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *billRepository) List(ctx context.Context, filter BillListFilter) ([]model.Bill, int64, error) {
	db := GetDB(ctx, r.db)

	apply := func(q *gorm.DB) *gorm.DB {
		if filter.MeterID != nil {
			q = q.Where("meter_id = ?", *filter.MeterID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.MonthYear != "" {
			q = q.Where("month_year = ?", filter.MonthYear)
		}
		return q
	}

	var total int64
	if err := apply(db.Model(&model.Bill{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var bills []model.Bill
	if err := apply(db.Preload("Meter").Preload("Meter.Customer")).
		Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&bills).Error; err != nil {
		return nil, 0, err
	}

	return bills, total, nil
}

func (r *billRepository) ExistsForPeriod(ctx context.Context, meterID uuid.UUID, monthYear string) (bool, bool, error) {
	var bills []model.Bill
	if err := GetDB(ctx, r.db).Unscoped().
		Select("deleted_at").
		Where("meter_id = ? AND month_year = ?", meterID, monthYear).
		Limit(1).
		Find(&bills).Error; err != nil {
		return false, false, err
	}
	if len(bills) == 0 {
		return false, false, nil
	}
	return true, bills[0].DeletedAt.Valid, nil
}

func (r *billRepository) RecentPriorBills(ctx context.Context, meterID uuid.UUID, monthYear string, limit int) ([]model.Bill, error) {
	var bills []model.Bill
	if err := GetDB(ctx, r.db).
		Where("meter_id = ? AND month_year < ?", meterID, monthYear).
		Order("month_year DESC").
		Limit(limit).
		Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *billRepository) AppendHistory(ctx context.Context, entry *model.BillHistory) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *billRepository) History(ctx context.Context, billID uuid.UUID) ([]model.BillHistory, error) {
	var entries []model.BillHistory
	if err := GetDB(ctx, r.db).
		Preload("Actor").
		Where("bill_id = ?", billID).
		Order("created_at asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *billRepository) UnpaidBillIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := GetDB(ctx, r.db).Model(&model.Bill{}).
		Where("total_payable > amount_paid").
		Order("month_year asc").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
