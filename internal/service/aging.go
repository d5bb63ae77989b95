package service

import (
	"github.com/shopspring/decimal"

	"backend/internal/model"
)

// Outstanding balances at or below one cent are treated as fully settled.
var centThreshold = decimal.NewFromFloat(0.01)

// AgingBuckets partitions an outstanding balance by approximate debt recency
type AgingBuckets struct {
	Debit0To30  decimal.Decimal `json:"debit_0_30"`
	Debit30To60 decimal.Decimal `json:"debit_30_60"`
	Debit60Plus decimal.Decimal `json:"debit_60_plus"`
}

// Sum returns the total allocated across all three buckets
func (b AgingBuckets) Sum() decimal.Decimal {
	return b.Debit0To30.Add(b.Debit30To60).Add(b.Debit60Plus)
}

// AllocateAging partitions outstandingBalance FIFO against the prior bills,
// most recent first. The most recent prior bill's unpaid amount fills the
// 0-30 bucket, the second most recent fills 30-60, and any remainder lands
// in 60+ regardless of actual calendar gaps between bills. With no prior
// bills the whole balance is 60+ debt.
func AllocateAging(outstandingBalance decimal.Decimal, priorBillsDescByPeriod []model.Bill) AgingBuckets {
	buckets := AgingBuckets{
		Debit0To30:  decimal.Zero,
		Debit30To60: decimal.Zero,
		Debit60Plus: decimal.Zero,
	}

	if !outstandingBalance.GreaterThan(centThreshold) {
		return buckets
	}

	remaining := outstandingBalance

	if len(priorBillsDescByPeriod) >= 1 {
		buckets.Debit0To30 = unpaidPortion(priorBillsDescByPeriod[0], remaining)
		remaining = remaining.Sub(buckets.Debit0To30)
	}

	if len(priorBillsDescByPeriod) >= 2 && remaining.GreaterThan(centThreshold) {
		buckets.Debit30To60 = unpaidPortion(priorBillsDescByPeriod[1], remaining)
		remaining = remaining.Sub(buckets.Debit30To60)
	}

	if remaining.GreaterThan(centThreshold) {
		buckets.Debit60Plus = remaining
	}

	return buckets
}

func unpaidPortion(bill model.Bill, remaining decimal.Decimal) decimal.Decimal {
	unpaid := bill.TotalPayable.Sub(bill.AmountPaid)
	if unpaid.IsNegative() {
		unpaid = decimal.Zero
	}
	if unpaid.GreaterThan(remaining) {
		return remaining
	}
	return unpaid
}

// ComputePenalty computes the late-payment penalty on aged debt, rounded to
// 2dp half-up.
func ComputePenalty(outstandingBalance decimal.Decimal, bankRate decimal.Decimal) decimal.Decimal {
	if !outstandingBalance.GreaterThan(centThreshold) {
		return decimal.Zero
	}
	return outstandingBalance.Mul(bankRate).Round(2)
}

// TotalPayable recomputes the bill total from its three components. This is
// the only way total_payable is ever produced.
func TotalPayable(thisMonthAmount, outstandingBalance, penaltyAmount decimal.Decimal) decimal.Decimal {
	return thisMonthAmount.Add(outstandingBalance).Add(penaltyAmount)
}
