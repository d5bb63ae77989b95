package service

import (
	"context"
	"encoding/json"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type RegisterMeterRequest struct {
	CustomerKeyNumber string `json:"customer_key_number" binding:"required"`
	Category          string `json:"category" binding:"required,oneof=INDIVIDUAL BULK"`
	MeterSize         string `json:"meter_size" binding:"required"`
	SewerageConnected bool   `json:"sewerage_connected"`
	CustomerID        string `json:"customer_id"`
	BranchID          string `json:"branch_id"`
	RouteID           string `json:"route_id"`
	InitialReading    string `json:"initial_reading"` // decimal string, defaults to 0
}

type UpdateMeterRequest struct {
	MeterSize         string `json:"meter_size"`
	SewerageConnected *bool  `json:"sewerage_connected"`
	RouteID           string `json:"route_id"`
}

// --- Interface ---

type MeterService interface {
	RegisterMeter(ctx context.Context, req RegisterMeterRequest, actorID string) (*model.Meter, error)
	UpdateMeter(ctx context.Context, id string, req UpdateMeterRequest, actorID string) (*model.Meter, error)
	GetMeter(ctx context.Context, id string) (*model.Meter, error)
	GetMeterByKey(ctx context.Context, customerKeyNumber string) (*model.Meter, error)
	ListMeters(ctx context.Context, category string, page, limit int) ([]model.Meter, int64, error)
}

type meterService struct {
	meterRepo repository.MeterRepository
	auditRepo repository.AuditRepository
}

func NewMeterService(meterRepo repository.MeterRepository, auditRepo repository.AuditRepository) MeterService {
	return &meterService{meterRepo: meterRepo, auditRepo: auditRepo}
}

// --- Implementation ---

func (s *meterService) RegisterMeter(ctx context.Context, req RegisterMeterRequest, actorID string) (*model.Meter, error) {
	initial := decimal.Zero
	if req.InitialReading != "" {
		parsed, err := decimal.NewFromString(req.InitialReading)
		if err != nil {
			return nil, apperror.Newf("INVALID_READING", "initial_reading is not a valid decimal: %s", req.InitialReading)
		}
		if parsed.IsNegative() {
			return nil, apperror.New("INVALID_READING", "initial_reading cannot be negative")
		}
		initial = parsed
	}

	meter := model.Meter{
		CustomerKeyNumber: req.CustomerKeyNumber,
		Category:          req.Category,
		MeterSize:         req.MeterSize,
		SewerageConnected: req.SewerageConnected,
		PreviousReading:   initial,
		CurrentReading:    initial,
	}

	var err error
	if meter.CustomerID, err = parseOptionalUUID(req.CustomerID); err != nil {
		return nil, fmt.Errorf("invalid customer_id: %w", err)
	}
	if meter.BranchID, err = parseOptionalUUID(req.BranchID); err != nil {
		return nil, fmt.Errorf("invalid branch_id: %w", err)
	}
	if meter.RouteID, err = parseOptionalUUID(req.RouteID); err != nil {
		return nil, fmt.Errorf("invalid route_id: %w", err)
	}

	if err := s.meterRepo.Create(ctx, &meter); err != nil {
		return nil, fmt.Errorf("failed to register meter: %w", err)
	}

	s.writeAudit(ctx, actorID, model.ActionCreateMeter, meter.ID.String(), meter.CustomerKeyNumber, req)
	return &meter, nil
}

func (s *meterService) UpdateMeter(ctx context.Context, id string, req UpdateMeterRequest, actorID string) (*model.Meter, error) {
	meterID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid meter id", apperror.ErrNotFound)
	}

	meter, err := s.meterRepo.FindByID(ctx, meterID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: meter %s", apperror.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load meter: %w", err)
	}

	if req.MeterSize != "" {
		meter.MeterSize = req.MeterSize
	}
	if req.SewerageConnected != nil {
		meter.SewerageConnected = *req.SewerageConnected
	}
	if req.RouteID != "" {
		routeID, err := parseOptionalUUID(req.RouteID)
		if err != nil {
			return nil, fmt.Errorf("invalid route_id: %w", err)
		}
		meter.RouteID = routeID
	}

	if err := s.meterRepo.Update(ctx, meter); err != nil {
		return nil, fmt.Errorf("failed to update meter: %w", err)
	}

	s.writeAudit(ctx, actorID, model.ActionUpdateMeter, meter.ID.String(), meter.CustomerKeyNumber, req)
	return meter, nil
}

func (s *meterService) GetMeter(ctx context.Context, id string) (*model.Meter, error) {
	meterID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid meter id", apperror.ErrNotFound)
	}

	meter, err := s.meterRepo.FindByID(ctx, meterID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: meter %s", apperror.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load meter: %w", err)
	}
	return meter, nil
}

func (s *meterService) GetMeterByKey(ctx context.Context, customerKeyNumber string) (*model.Meter, error) {
	meter, err := s.meterRepo.FindByCustomerKey(ctx, customerKeyNumber)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: meter with key %s", apperror.ErrNotFound, customerKeyNumber)
		}
		return nil, fmt.Errorf("failed to load meter: %w", err)
	}
	return meter, nil
}

func (s *meterService) ListMeters(ctx context.Context, category string, page, limit int) ([]model.Meter, int64, error) {
	return s.meterRepo.List(ctx, category, page, limit)
}

func (s *meterService) writeAudit(ctx context.Context, actorID, action, entityID, entityName string, details interface{}) {
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

func parseOptionalUUID(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
