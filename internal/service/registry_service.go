package service

import (
	"context"
	"encoding/json"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateCustomerRequest struct {
	Name     string `json:"name" binding:"required"`
	TIN      string `json:"tin"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	BranchID string `json:"branch_id"`
}

type CreateBranchRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type CreateRouteRequest struct {
	Name     string `json:"name" binding:"required"`
	BranchID string `json:"branch_id"`
}

type CreateFaultCodeRequest struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
}

// --- Interface ---

// RegistryService manages the intake tables behind the billing pipeline:
// customers, branches, reading routes and fault codes
type RegistryService interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest, actorID string) (*model.Customer, error)
	ListCustomers(ctx context.Context, branchID string, page, limit int) ([]model.Customer, int64, error)
	CreateBranch(ctx context.Context, req CreateBranchRequest, actorID string) (*model.Branch, error)
	ListBranches(ctx context.Context) ([]model.Branch, error)
	CreateRoute(ctx context.Context, req CreateRouteRequest, actorID string) (*model.Route, error)
	ListRoutes(ctx context.Context, branchID string) ([]model.Route, error)
	CreateFaultCode(ctx context.Context, req CreateFaultCodeRequest, actorID string) (*model.FaultCode, error)
	ListFaultCodes(ctx context.Context) ([]model.FaultCode, error)
}

type registryService struct {
	registryRepo repository.RegistryRepository
	auditRepo    repository.AuditRepository
}

func NewRegistryService(registryRepo repository.RegistryRepository, auditRepo repository.AuditRepository) RegistryService {
	return &registryService{registryRepo: registryRepo, auditRepo: auditRepo}
}

// --- Implementation ---

func (s *registryService) CreateCustomer(ctx context.Context, req CreateCustomerRequest, actorID string) (*model.Customer, error) {
	customer := model.Customer{
		Name:    req.Name,
		TIN:     req.TIN,
		Phone:   req.Phone,
		Address: req.Address,
	}

	branchID, err := parseOptionalUUID(req.BranchID)
	if err != nil {
		return nil, fmt.Errorf("invalid branch_id: %w", err)
	}
	customer.BranchID = branchID

	if err := s.registryRepo.CreateCustomer(ctx, &customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.writeAudit(ctx, actorID, model.ActionCreateCustomer, customer.ID.String(), customer.Name, req)
	return &customer, nil
}

func (s *registryService) ListCustomers(ctx context.Context, branchID string, page, limit int) ([]model.Customer, int64, error) {
	var filter *uuid.UUID
	if branchID != "" {
		parsed, err := uuid.Parse(branchID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid branch_id: %w", err)
		}
		filter = &parsed
	}
	return s.registryRepo.ListCustomers(ctx, filter, page, limit)
}

func (s *registryService) CreateBranch(ctx context.Context, req CreateBranchRequest, actorID string) (*model.Branch, error) {
	branch := model.Branch{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	}

	if err := s.registryRepo.CreateBranch(ctx, &branch); err != nil {
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}

	s.writeAudit(ctx, actorID, model.ActionCreateBranch, branch.ID.String(), branch.Name, req)
	return &branch, nil
}

func (s *registryService) ListBranches(ctx context.Context) ([]model.Branch, error) {
	return s.registryRepo.ListBranches(ctx)
}

func (s *registryService) CreateRoute(ctx context.Context, req CreateRouteRequest, actorID string) (*model.Route, error) {
	route := model.Route{Name: req.Name}

	branchID, err := parseOptionalUUID(req.BranchID)
	if err != nil {
		return nil, fmt.Errorf("invalid branch_id: %w", err)
	}
	route.BranchID = branchID

	if err := s.registryRepo.CreateRoute(ctx, &route); err != nil {
		return nil, fmt.Errorf("failed to create route: %w", err)
	}

	s.writeAudit(ctx, actorID, model.ActionCreateRoute, route.ID.String(), route.Name, req)
	return &route, nil
}

func (s *registryService) ListRoutes(ctx context.Context, branchID string) ([]model.Route, error) {
	var filter *uuid.UUID
	if branchID != "" {
		parsed, err := uuid.Parse(branchID)
		if err != nil {
			return nil, fmt.Errorf("invalid branch_id: %w", err)
		}
		filter = &parsed
	}
	return s.registryRepo.ListRoutes(ctx, filter)
}

func (s *registryService) CreateFaultCode(ctx context.Context, req CreateFaultCodeRequest, actorID string) (*model.FaultCode, error) {
	code := model.FaultCode{
		Code:        req.Code,
		Description: req.Description,
	}

	if err := s.registryRepo.CreateFaultCode(ctx, &code); err != nil {
		return nil, fmt.Errorf("failed to create fault code: %w", err)
	}

	s.writeAudit(ctx, actorID, model.ActionCreateFaultCode, code.ID.String(), code.Code, req)
	return &code, nil
}

func (s *registryService) ListFaultCodes(ctx context.Context) ([]model.FaultCode, error) {
	return s.registryRepo.ListFaultCodes(ctx)
}

func (s *registryService) writeAudit(ctx context.Context, actorID, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
		UserID:     parseActor(actorID),
	}

	// Best-effort audit log — don't fail the operation if logging fails
	_ = s.auditRepo.Log(ctx, &entry)
}
