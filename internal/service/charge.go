package service

import (
	"sort"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/shopspring/decimal"
)

// MeterAttributes carries the meter facts the charge computation depends on
type MeterAttributes struct {
	MeterSize         string
	SewerageConnected bool
	// ReadingReset marks an explicit meter reset/rollover override: the new
	// reading is accepted as the full consumption instead of failing on
	// regression.
	ReadingReset bool
}

// AdditionalFeeLine is one computed additional-fee line item
type AdditionalFeeLine struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// ChargeBreakdown is the itemized result of the tiered charge computation.
// All fields carry full precision except ThisMonthAmount, which is the only
// value rounded (half-up, 2dp).
type ChargeBreakdown struct {
	Consumption       decimal.Decimal     `json:"consumption"`
	WaterCharge       decimal.Decimal     `json:"water_charge"`
	MaintenanceFee    decimal.Decimal     `json:"maintenance_fee"`
	SanitationFee     decimal.Decimal     `json:"sanitation_fee"`
	SewerageCharge    decimal.Decimal     `json:"sewerage_charge"`
	MeterRent         decimal.Decimal     `json:"meter_rent"`
	VATAmount         decimal.Decimal     `json:"vat_amount"`
	AdditionalFees    []AdditionalFeeLine `json:"additional_fees"`
	AdditionalCharges decimal.Decimal     `json:"additional_charges"`
	ThisMonthAmount   decimal.Decimal     `json:"this_month_amount"`
}

// ComputeCharge converts a pair of meter readings into an itemized monetary
// charge under the given tariff. Pure: no side effects, no store access.
func ComputeCharge(tariff *model.Tariff, previousReading, currentReading decimal.Decimal, attrs MeterAttributes) (ChargeBreakdown, error) {
	consumption := currentReading.Sub(previousReading)
	if consumption.IsNegative() {
		if !attrs.ReadingReset {
			return ChargeBreakdown{}, apperror.Newf(apperror.ErrInvalidReading.Code,
				"current reading %s is lower than previous reading %s", currentReading.String(), previousReading.String())
		}
		// Meter replaced or register rolled over: the new reading is the
		// whole period's consumption.
		consumption = currentReading
	}

	waterCharge := tieredWaterCharge(tariff.Bands, consumption)

	meterRent := decimal.Zero
	for _, rent := range tariff.MeterRents {
		if rent.MeterSize == attrs.MeterSize {
			meterRent = rent.Rent
			break
		}
	}

	sewerageCharge := decimal.Zero
	if attrs.SewerageConnected {
		sewerageCharge = tariff.SewerageRate
	}

	// VAT applies only to the components the tariff marks taxable
	taxable := decimal.Zero
	if tariff.WaterChargeTaxable {
		taxable = taxable.Add(waterCharge)
	}
	if tariff.MaintenanceFeeTaxable {
		taxable = taxable.Add(tariff.MaintenanceFee)
	}
	if tariff.SanitationFeeTaxable {
		taxable = taxable.Add(tariff.SanitationFee)
	}
	if tariff.SewerageTaxable {
		taxable = taxable.Add(sewerageCharge)
	}
	if tariff.MeterRentTaxable {
		taxable = taxable.Add(meterRent)
	}
	vatAmount := taxable.Mul(tariff.VATRate)

	subtotal := waterCharge.Add(tariff.MaintenanceFee).Add(tariff.SanitationFee).Add(sewerageCharge).Add(meterRent)

	additionalCharges := decimal.Zero
	feeLines := make([]AdditionalFeeLine, 0, len(tariff.AdditionalFees))
	for _, fee := range tariff.AdditionalFees {
		amount := fee.Amount
		if fee.FeeType == model.FeeTypeRate {
			amount = subtotal.Mul(fee.Rate)
		}
		feeLines = append(feeLines, AdditionalFeeLine{Name: fee.Name, Amount: amount})
		additionalCharges = additionalCharges.Add(amount)
	}

	total := subtotal.Add(vatAmount).Add(additionalCharges)

	return ChargeBreakdown{
		Consumption:       consumption,
		WaterCharge:       waterCharge,
		MaintenanceFee:    tariff.MaintenanceFee,
		SanitationFee:     tariff.SanitationFee,
		SewerageCharge:    sewerageCharge,
		MeterRent:         meterRent,
		VATAmount:         vatAmount,
		AdditionalFees:    feeLines,
		AdditionalCharges: additionalCharges,
		ThisMonthAmount:   total.Round(2),
	}, nil
}

// tieredWaterCharge allocates consumption across the ascending bands: each
// band charges the portion falling between the previous bound and its own,
// and the last band absorbs any remainder above the highest bound.
func tieredWaterCharge(bands []model.ConsumptionBand, consumption decimal.Decimal) decimal.Decimal {
	if len(bands) == 0 || !consumption.IsPositive() {
		return decimal.Zero
	}

	sorted := make([]model.ConsumptionBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	charge := decimal.Zero
	remaining := consumption
	lowerBound := decimal.Zero

	for _, band := range sorted {
		bandWidth := band.UpperBound.Sub(lowerBound)
		portion := remaining
		if portion.GreaterThan(bandWidth) {
			portion = bandWidth
		}
		charge = charge.Add(portion.Mul(band.Rate))
		remaining = remaining.Sub(portion)
		lowerBound = band.UpperBound
		if !remaining.IsPositive() {
			return charge
		}
	}

	// Remainder above the highest bound at the last band's rate
	return charge.Add(remaining.Mul(sorted[len(sorted)-1].Rate))
}

// ValidateBands checks that consumption bands are contiguous with strictly
// increasing upper bounds in position order.
func ValidateBands(bands []model.ConsumptionBand) error {
	if len(bands) == 0 {
		return apperror.New("INVALID_TARIFF", "tariff must define at least one consumption band")
	}

	sorted := make([]model.ConsumptionBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	prev := decimal.Zero
	for i, band := range sorted {
		if !band.UpperBound.GreaterThan(prev) {
			return apperror.Newf("INVALID_TARIFF", "band %d upper bound %s must exceed %s", i+1, band.UpperBound.String(), prev.String())
		}
		if band.Rate.IsNegative() {
			return apperror.Newf("INVALID_TARIFF", "band %d rate must not be negative", i+1)
		}
		prev = band.UpperBound
	}
	return nil
}
