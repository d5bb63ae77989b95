package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type BandInput struct {
	UpperBound string `json:"upper_bound" binding:"required"` // decimal string, cubic meters
	Rate       string `json:"rate" binding:"required"`
}

type MeterRentInput struct {
	MeterSize string `json:"meter_size" binding:"required"`
	Rent      string `json:"rent" binding:"required"`
}

type AdditionalFeeInput struct {
	Name    string `json:"name" binding:"required"`
	FeeType string `json:"fee_type" binding:"required,oneof=FLAT RATE"`
	Amount  string `json:"amount"`
	Rate    string `json:"rate"`
}

type CreateTariffRequest struct {
	Category              string               `json:"category" binding:"required,oneof=INDIVIDUAL BULK"`
	EffectiveDate         string               `json:"effective_date" binding:"required"` // YYYY-MM-DD, not in the future
	Bands                 []BandInput          `json:"bands" binding:"required,min=1"`
	MaintenanceFee        string               `json:"maintenance_fee"`
	SanitationFee         string               `json:"sanitation_fee"`
	SewerageRate          string               `json:"sewerage_rate"`
	MeterRents            []MeterRentInput     `json:"meter_rents"`
	VATRate               string               `json:"vat_rate"`
	WaterChargeTaxable    *bool                `json:"water_charge_taxable"`
	MaintenanceFeeTaxable *bool                `json:"maintenance_fee_taxable"`
	SanitationFeeTaxable  *bool                `json:"sanitation_fee_taxable"`
	SewerageTaxable       *bool                `json:"sewerage_taxable"`
	MeterRentTaxable      *bool                `json:"meter_rent_taxable"`
	AdditionalFees        []AdditionalFeeInput `json:"additional_fees"`
	Description           string               `json:"description"`
}

// --- Interface ---

type TariffService interface {
	CreateTariff(ctx context.Context, req CreateTariffRequest, actorID string) (*model.Tariff, error)
	GetTariff(ctx context.Context, id string) (*model.Tariff, error)
	ListTariffs(ctx context.Context, category string, page, limit int) ([]model.Tariff, int64, error)
	UpdateDescription(ctx context.Context, id string, description string, actorID string) (*model.Tariff, error)
	// Resolve returns the tariff version effective for the category on
	// periodDate: greatest effective_date <= periodDate.
	Resolve(ctx context.Context, category string, periodDate time.Time) (*model.Tariff, error)
}

type tariffService struct {
	tariffRepo repository.TariffRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewTariffService(
	tariffRepo repository.TariffRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) TariffService {
	return &tariffService{
		tariffRepo: tariffRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
	}
}

// --- Implementation ---

func (s *tariffService) Resolve(ctx context.Context, category string, periodDate time.Time) (*model.Tariff, error) {
	tariff, err := s.tariffRepo.FindEffective(ctx, category, periodDate)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: category %s, period %s",
				apperror.ErrNoApplicableTariff, category, periodDate.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("failed to resolve tariff: %w", err)
	}
	return tariff, nil
}

func (s *tariffService) CreateTariff(ctx context.Context, req CreateTariffRequest, actorID string) (*model.Tariff, error) {
	effectiveDate, err := time.Parse("2006-01-02", req.EffectiveDate)
	if err != nil {
		return nil, fmt.Errorf("invalid effective_date format (expected YYYY-MM-DD): %w", err)
	}
	if effectiveDate.After(time.Now()) {
		return nil, apperror.New("INVALID_TARIFF", "effective_date must not be in the future")
	}

	tariff := model.Tariff{
		Category:              req.Category,
		EffectiveDate:         effectiveDate,
		Description:           req.Description,
		WaterChargeTaxable:    true,
		MaintenanceFeeTaxable: true,
	}

	if tariff.MaintenanceFee, err = parseOptionalDecimal(req.MaintenanceFee); err != nil {
		return nil, fmt.Errorf("invalid maintenance_fee: %w", err)
	}
	if tariff.SanitationFee, err = parseOptionalDecimal(req.SanitationFee); err != nil {
		return nil, fmt.Errorf("invalid sanitation_fee: %w", err)
	}
	if tariff.SewerageRate, err = parseOptionalDecimal(req.SewerageRate); err != nil {
		return nil, fmt.Errorf("invalid sewerage_rate: %w", err)
	}
	if tariff.VATRate, err = parseOptionalDecimal(req.VATRate); err != nil {
		return nil, fmt.Errorf("invalid vat_rate: %w", err)
	}

	if req.WaterChargeTaxable != nil {
		tariff.WaterChargeTaxable = *req.WaterChargeTaxable
	}
	if req.MaintenanceFeeTaxable != nil {
		tariff.MaintenanceFeeTaxable = *req.MaintenanceFeeTaxable
	}
	if req.SanitationFeeTaxable != nil {
		tariff.SanitationFeeTaxable = *req.SanitationFeeTaxable
	}
	if req.SewerageTaxable != nil {
		tariff.SewerageTaxable = *req.SewerageTaxable
	}
	if req.MeterRentTaxable != nil {
		tariff.MeterRentTaxable = *req.MeterRentTaxable
	}

	for i, band := range req.Bands {
		upper, parseErr := decimal.NewFromString(band.UpperBound)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid band upper_bound: %w", parseErr)
		}
		rate, parseErr := decimal.NewFromString(band.Rate)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid band rate: %w", parseErr)
		}
		tariff.Bands = append(tariff.Bands, model.ConsumptionBand{
			UpperBound: upper,
			Rate:       rate,
			Position:   i + 1,
		})
	}
	if err := ValidateBands(tariff.Bands); err != nil {
		return nil, err
	}

	for _, rent := range req.MeterRents {
		amount, parseErr := decimal.NewFromString(rent.Rent)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid meter rent: %w", parseErr)
		}
		tariff.MeterRents = append(tariff.MeterRents, model.MeterRent{
			MeterSize: rent.MeterSize,
			Rent:      amount,
		})
	}

	for _, fee := range req.AdditionalFees {
		item := model.AdditionalFee{Name: fee.Name, FeeType: fee.FeeType}
		if item.Amount, err = parseOptionalDecimal(fee.Amount); err != nil {
			return nil, fmt.Errorf("invalid additional fee amount: %w", err)
		}
		if item.Rate, err = parseOptionalDecimal(fee.Rate); err != nil {
			return nil, fmt.Errorf("invalid additional fee rate: %w", err)
		}
		tariff.AdditionalFees = append(tariff.AdditionalFees, item)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		exists, existsErr := s.tariffRepo.ExistsForDate(txCtx, req.Category, effectiveDate, nil)
		if existsErr != nil {
			return fmt.Errorf("failed to check existing tariff versions: %w", existsErr)
		}
		if exists {
			return fmt.Errorf("%w: a %s tariff already takes effect on %s",
				apperror.ErrConcurrentModification, req.Category, req.EffectiveDate)
		}

		if createErr := s.tariffRepo.Create(txCtx, &tariff); createErr != nil {
			return fmt.Errorf("failed to create tariff: %w", createErr)
		}

		s.writeAudit(txCtx, actorID, model.ActionCreateTariff, tariff.ID.String(),
			req.Category+" effective "+req.EffectiveDate, req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.tariffRepo.FindByID(ctx, tariff.ID)
}

func (s *tariffService) GetTariff(ctx context.Context, id string) (*model.Tariff, error) {
	tariffID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid tariff id: %w", err)
	}

	tariff, err := s.tariffRepo.FindByID(ctx, tariffID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: tariff %s", apperror.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to fetch tariff: %w", err)
	}
	return tariff, nil
}

func (s *tariffService) ListTariffs(ctx context.Context, category string, page, limit int) ([]model.Tariff, int64, error) {
	return s.tariffRepo.List(ctx, category, page, limit)
}

// UpdateDescription is the only mutation allowed on a tariff version. Rate
// fields are immutable: bills reference versions by id, and a version that
// any bill references must keep producing the same figures.
func (s *tariffService) UpdateDescription(ctx context.Context, id string, description string, actorID string) (*model.Tariff, error) {
	tariff, err := s.GetTariff(ctx, id)
	if err != nil {
		return nil, err
	}

	tariff.Description = description
	if err := s.tariffRepo.Update(ctx, tariff); err != nil {
		return nil, fmt.Errorf("failed to update tariff: %w", err)
	}

	s.writeAudit(ctx, actorID, model.ActionUpdateTariff, tariff.ID.String(),
		tariff.Category+" effective "+tariff.EffectiveDate.Format("2006-01-02"),
		map[string]string{"description": description})

	return tariff, nil
}

// --- Helpers ---

func parseOptionalDecimal(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

func (s *tariffService) writeAudit(ctx context.Context, actorID, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	if actorID != "" {
		if parsed, err := uuid.Parse(actorID); err == nil {
			entry.UserID = &parsed
		}
	}

	// Best-effort audit log — don't fail the operation if logging fails
	_ = s.auditRepo.Log(ctx, &entry)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
