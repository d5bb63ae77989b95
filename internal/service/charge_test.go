package service

import (
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeBandTariff charges 10/m3 up to 5, 15/m3 up to 12, 20/m3 up to 20 and
// beyond. VAT 15% on the water charge and maintenance fee only.
func threeBandTariff() *model.Tariff {
	return &model.Tariff{
		Category: model.CategoryIndividual,
		Bands: []model.ConsumptionBand{
			{UpperBound: dec("20"), Rate: dec("20"), Position: 3},
			{UpperBound: dec("5"), Rate: dec("10"), Position: 1},
			{UpperBound: dec("12"), Rate: dec("15"), Position: 2},
		},
		MaintenanceFee:        dec("20"),
		SanitationFee:         dec("10"),
		SewerageRate:          dec("15"),
		MeterRents:            []model.MeterRent{{MeterSize: "1/2", Rent: dec("5")}},
		VATRate:               dec("0.15"),
		WaterChargeTaxable:    true,
		MaintenanceFeeTaxable: true,
	}
}

func TestTieredWaterCharge(t *testing.T) {
	bands := threeBandTariff().Bands

	tests := []struct {
		name        string
		consumption string
		want        string
	}{
		{"zero consumption", "0", "0"},
		{"within the first band", "3", "30"},
		{"exactly the first bound", "5", "50"},
		{"spanning two bands", "8", "95"},
		{"exactly the second bound", "12", "155"},
		{"spanning all bands", "18", "275"},
		{"above the highest bound at the last rate", "25", "415"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tieredWaterCharge(bands, dec(tt.consumption))
			assertDecimal(t, tt.want, got)
		})
	}
}

func TestTieredWaterChargeNoBands(t *testing.T) {
	assertDecimal(t, "0", tieredWaterCharge(nil, dec("10")))
}

func TestComputeCharge(t *testing.T) {
	tariff := threeBandTariff()

	t.Run("full breakdown for a sewerage-connected half-inch meter", func(t *testing.T) {
		breakdown, err := ComputeCharge(tariff, dec("100"), dec("110"), MeterAttributes{
			MeterSize:         "1/2",
			SewerageConnected: true,
		})
		require.NoError(t, err)

		assertDecimal(t, "10", breakdown.Consumption)
		assertDecimal(t, "125", breakdown.WaterCharge) // 5*10 + 5*15
		assertDecimal(t, "20", breakdown.MaintenanceFee)
		assertDecimal(t, "10", breakdown.SanitationFee)
		assertDecimal(t, "15", breakdown.SewerageCharge)
		assertDecimal(t, "5", breakdown.MeterRent)
		// VAT on water charge + maintenance fee only: 0.15 * 145
		assertDecimal(t, "21.75", breakdown.VATAmount)
		assertDecimal(t, "0", breakdown.AdditionalCharges)
		// 125 + 20 + 10 + 15 + 5 + 21.75
		assertDecimal(t, "196.75", breakdown.ThisMonthAmount)
	})

	t.Run("no sewerage charge for unconnected meters", func(t *testing.T) {
		breakdown, err := ComputeCharge(tariff, dec("0"), dec("3"), MeterAttributes{MeterSize: "1/2"})
		require.NoError(t, err)

		assertDecimal(t, "0", breakdown.SewerageCharge)
	})

	t.Run("unknown meter size gets no rent", func(t *testing.T) {
		breakdown, err := ComputeCharge(tariff, dec("0"), dec("3"), MeterAttributes{MeterSize: "2"})
		require.NoError(t, err)

		assertDecimal(t, "0", breakdown.MeterRent)
	})

	t.Run("reading regression fails without a reset", func(t *testing.T) {
		_, err := ComputeCharge(tariff, dec("110"), dec("100"), MeterAttributes{MeterSize: "1/2"})
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrInvalidReading))
	})

	t.Run("reset accepts the new reading as the whole consumption", func(t *testing.T) {
		breakdown, err := ComputeCharge(tariff, dec("110"), dec("7"), MeterAttributes{
			MeterSize:    "1/2",
			ReadingReset: true,
		})
		require.NoError(t, err)

		assertDecimal(t, "7", breakdown.Consumption)
		assertDecimal(t, "80", breakdown.WaterCharge) // 5*10 + 2*15
	})
}

func TestComputeChargeAdditionalFees(t *testing.T) {
	tariff := threeBandTariff()
	tariff.AdditionalFees = []model.AdditionalFee{
		{Name: "Road fund", FeeType: model.FeeTypeFlat, Amount: dec("7")},
		{Name: "Service levy", FeeType: model.FeeTypeRate, Rate: dec("0.02")},
	}

	breakdown, err := ComputeCharge(tariff, dec("100"), dec("110"), MeterAttributes{
		MeterSize:         "1/2",
		SewerageConnected: true,
	})
	require.NoError(t, err)

	require.Len(t, breakdown.AdditionalFees, 2)
	assert.Equal(t, "Road fund", breakdown.AdditionalFees[0].Name)
	assertDecimal(t, "7", breakdown.AdditionalFees[0].Amount)
	// Rate fees apply to the pre-VAT subtotal: 0.02 * 175
	assert.Equal(t, "Service levy", breakdown.AdditionalFees[1].Name)
	assertDecimal(t, "3.50", breakdown.AdditionalFees[1].Amount)
	assertDecimal(t, "10.50", breakdown.AdditionalCharges)
	// 175 + 21.75 + 10.50
	assertDecimal(t, "207.25", breakdown.ThisMonthAmount)
}

func TestValidateBands(t *testing.T) {
	t.Run("valid ascending bands pass", func(t *testing.T) {
		assert.NoError(t, ValidateBands(threeBandTariff().Bands))
	})

	t.Run("no bands", func(t *testing.T) {
		err := ValidateBands(nil)
		require.Error(t, err)
		assert.Equal(t, "INVALID_TARIFF", apperror.CodeOf(err))
	})

	t.Run("non-increasing upper bounds", func(t *testing.T) {
		err := ValidateBands([]model.ConsumptionBand{
			{UpperBound: dec("10"), Rate: dec("10"), Position: 1},
			{UpperBound: dec("10"), Rate: dec("15"), Position: 2},
		})
		require.Error(t, err)
		assert.Equal(t, "INVALID_TARIFF", apperror.CodeOf(err))
	})

	t.Run("negative rate", func(t *testing.T) {
		err := ValidateBands([]model.ConsumptionBand{
			{UpperBound: dec("10"), Rate: dec("-1"), Position: 1},
		})
		require.Error(t, err)
		assert.Equal(t, "INVALID_TARIFF", apperror.CodeOf(err))
	})
}
