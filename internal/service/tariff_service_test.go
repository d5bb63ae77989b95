package service

import (
	"testing"
	"time"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseTariffRequest(effectiveDate string) CreateTariffRequest {
	return CreateTariffRequest{
		Category:      model.CategoryIndividual,
		EffectiveDate: effectiveDate,
		Bands: []BandInput{
			{UpperBound: "5", Rate: "10"},
			{UpperBound: "12", Rate: "15"},
		},
		MaintenanceFee: "20",
		VATRate:        "0.15",
		MeterRents:     []MeterRentInput{{MeterSize: "1/2", Rent: "5"}},
	}
}

func TestCreateTariff(t *testing.T) {
	f := newBillingFixture(t)
	actor := uuid.New().String()

	tariff, err := f.tariffSvc.CreateTariff(testCtx(), baseTariffRequest("2024-01-01"), actor)
	require.NoError(t, err)

	assert.Equal(t, model.CategoryIndividual, tariff.Category)
	require.Len(t, tariff.Bands, 2)
	assert.Equal(t, 1, tariff.Bands[0].Position)
	assertDecimal(t, "5", tariff.Bands[0].UpperBound)
	require.Len(t, tariff.MeterRents, 1)
	assertDecimal(t, "20", tariff.MaintenanceFee)
	assert.True(t, tariff.WaterChargeTaxable)
	assert.True(t, tariff.MaintenanceFeeTaxable)
	assert.False(t, tariff.SewerageTaxable)
}

func TestCreateTariffValidation(t *testing.T) {
	f := newBillingFixture(t)
	actor := uuid.New().String()

	t.Run("future effective date", func(t *testing.T) {
		future := time.Now().AddDate(0, 1, 0).Format("2006-01-02")
		_, err := f.tariffSvc.CreateTariff(testCtx(), baseTariffRequest(future), actor)
		require.Error(t, err)
		assert.Equal(t, "INVALID_TARIFF", apperror.CodeOf(err))
	})

	t.Run("non-increasing bands", func(t *testing.T) {
		req := baseTariffRequest("2024-01-01")
		req.Bands = []BandInput{
			{UpperBound: "10", Rate: "10"},
			{UpperBound: "10", Rate: "15"},
		}
		_, err := f.tariffSvc.CreateTariff(testCtx(), req, actor)
		require.Error(t, err)
		assert.Equal(t, "INVALID_TARIFF", apperror.CodeOf(err))
	})

	t.Run("duplicate category and effective date", func(t *testing.T) {
		_, err := f.tariffSvc.CreateTariff(testCtx(), baseTariffRequest("2024-01-01"), actor)
		require.NoError(t, err)

		_, err = f.tariffSvc.CreateTariff(testCtx(), baseTariffRequest("2024-01-01"), actor)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrConcurrentModification))
	})
}

func TestResolvePicksLatestEffectiveVersion(t *testing.T) {
	f := newBillingFixture(t)
	actor := uuid.New().String()

	january, err := f.tariffSvc.CreateTariff(testCtx(), baseTariffRequest("2024-01-01"), actor)
	require.NoError(t, err)

	juneReq := baseTariffRequest("2024-06-01")
	juneReq.MaintenanceFee = "25"
	june, err := f.tariffSvc.CreateTariff(testCtx(), juneReq, actor)
	require.NoError(t, err)

	t.Run("period between versions resolves the earlier one", func(t *testing.T) {
		resolved, err := f.tariffSvc.Resolve(testCtx(), model.CategoryIndividual,
			time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, january.ID, resolved.ID)
	})

	t.Run("period after the newest version resolves it", func(t *testing.T) {
		resolved, err := f.tariffSvc.Resolve(testCtx(), model.CategoryIndividual,
			time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, june.ID, resolved.ID)
	})

	t.Run("effective date boundary is inclusive", func(t *testing.T) {
		resolved, err := f.tariffSvc.Resolve(testCtx(), model.CategoryIndividual,
			time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, june.ID, resolved.ID)
	})

	t.Run("period before every version", func(t *testing.T) {
		_, err := f.tariffSvc.Resolve(testCtx(), model.CategoryIndividual,
			time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrNoApplicableTariff))
	})

	t.Run("other category has no versions", func(t *testing.T) {
		_, err := f.tariffSvc.Resolve(testCtx(), model.CategoryBulk,
			time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrNoApplicableTariff))
	})
}

func TestUpdateDescriptionLeavesRatesUntouched(t *testing.T) {
	f := newBillingFixture(t)
	actor := uuid.New().String()

	tariff, err := f.tariffSvc.CreateTariff(testCtx(), baseTariffRequest("2024-01-01"), actor)
	require.NoError(t, err)

	updated, err := f.tariffSvc.UpdateDescription(testCtx(), tariff.ID.String(), "2024 gazette rates", actor)
	require.NoError(t, err)
	assert.Equal(t, "2024 gazette rates", updated.Description)

	fresh, err := f.tariffSvc.GetTariff(testCtx(), tariff.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "2024 gazette rates", fresh.Description)
	assertDecimal(t, "20", fresh.MaintenanceFee)
	require.Len(t, fresh.Bands, 2)
}

func TestGetTariffNotFound(t *testing.T) {
	f := newBillingFixture(t)

	_, err := f.tariffSvc.GetTariff(testCtx(), uuid.New().String())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.ErrNotFound))
}
