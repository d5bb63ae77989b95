package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegistryRepository covers the small intake tables the billing pipeline
// references: customers, branches, routes and fault codes
type RegistryRepository interface {
	CreateCustomer(ctx context.Context, customer *model.Customer) error
	UpdateCustomer(ctx context.Context, customer *model.Customer) error
	FindCustomerByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	ListCustomers(ctx context.Context, branchID *uuid.UUID, page, limit int) ([]model.Customer, int64, error)

	CreateBranch(ctx context.Context, branch *model.Branch) error
	ListBranches(ctx context.Context) ([]model.Branch, error)

	CreateRoute(ctx context.Context, route *model.Route) error
	ListRoutes(ctx context.Context, branchID *uuid.UUID) ([]model.Route, error)

	CreateFaultCode(ctx context.Context, code *model.FaultCode) error
	ListFaultCodes(ctx context.Context) ([]model.FaultCode, error)
}

type registryRepository struct {
	db *gorm.DB
}

func NewRegistryRepository(db *gorm.DB) RegistryRepository {
	return &registryRepository{db: db}
}

func (r *registryRepository) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).WithContext(ctx).Create(customer).Error
}

func (r *registryRepository) UpdateCustomer(ctx context.Context, customer *model.Customer) error {
	return GetDB(ctx, r.db).WithContext(ctx).Save(customer).Error
}

func (r *registryRepository) FindCustomerByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	err := GetDB(ctx, r.db).WithContext(ctx).
		Preload("Branch").
		First(&customer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *registryRepository) ListCustomers(ctx context.Context, branchID *uuid.UUID, page, limit int) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	query := GetDB(ctx, r.db).WithContext(ctx).Model(&model.Customer{})
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Preload("Branch").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&customers).Error
	if err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *registryRepository) CreateBranch(ctx context.Context, branch *model.Branch) error {
	return GetDB(ctx, r.db).WithContext(ctx).Create(branch).Error
}

func (r *registryRepository) ListBranches(ctx context.Context) ([]model.Branch, error) {
	var branches []model.Branch
	err := GetDB(ctx, r.db).WithContext(ctx).Order("name ASC").Find(&branches).Error
	return branches, err
}

func (r *registryRepository) CreateRoute(ctx context.Context, route *model.Route) error {
	return GetDB(ctx, r.db).WithContext(ctx).Create(route).Error
}

func (r *registryRepository) ListRoutes(ctx context.Context, branchID *uuid.UUID) ([]model.Route, error) {
	var routes []model.Route
	query := GetDB(ctx, r.db).WithContext(ctx)
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	}
	err := query.Order("name ASC").Find(&routes).Error
	return routes, err
}

func (r *registryRepository) CreateFaultCode(ctx context.Context, code *model.FaultCode) error {
	return GetDB(ctx, r.db).WithContext(ctx).Create(code).Error
}

func (r *registryRepository) ListFaultCodes(ctx context.Context) ([]model.FaultCode, error) {
	var codes []model.FaultCode
	err := GetDB(ctx, r.db).WithContext(ctx).Order("code ASC").Find(&codes).Error
	return codes, err
}
