package service

import (
	"testing"

	"backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func priorBill(totalPayable, amountPaid string) model.Bill {
	return model.Bill{
		TotalPayable: dec(totalPayable),
		AmountPaid:   dec(amountPaid),
	}
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s %v", expected, actual.String(), msgAndArgs)
}

func TestAllocateAging(t *testing.T) {
	tests := []struct {
		name        string
		outstanding string
		priors      []model.Bill
		want0To30   string
		want30To60  string
		want60Plus  string
	}{
		{
			name:        "zero balance allocates nothing",
			outstanding: "0",
			priors:      []model.Bill{priorBill("100", "0")},
			want0To30:   "0", want30To60: "0", want60Plus: "0",
		},
		{
			name:        "one cent balance is treated as settled",
			outstanding: "0.01",
			priors:      []model.Bill{priorBill("100", "99.99")},
			want0To30:   "0", want30To60: "0", want60Plus: "0",
		},
		{
			name:        "no prior bills puts everything in 60 plus",
			outstanding: "250.00",
			priors:      nil,
			want0To30:   "0", want30To60: "0", want60Plus: "250.00",
		},
		{
			name:        "one prior bill splits newest and oldest debt",
			outstanding: "100.00",
			priors:      []model.Bill{priorBill("40.00", "0")},
			want0To30:   "40.00", want30To60: "0", want60Plus: "60.00",
		},
		{
			name:        "two prior bills fill all three buckets",
			outstanding: "100.00",
			priors: []model.Bill{
				priorBill("40.00", "0"),
				priorBill("35.00", "0"),
			},
			want0To30: "40.00", want30To60: "35.00", want60Plus: "25.00",
		},
		{
			name:        "third and older prior bills land in 60 plus",
			outstanding: "250.00",
			priors: []model.Bill{
				priorBill("100.00", "0"),
				priorBill("100.00", "0"),
				priorBill("100.00", "0"),
			},
			want0To30: "100.00", want30To60: "100.00", want60Plus: "50.00",
		},
		{
			name:        "partial payments shrink the bucket share",
			outstanding: "55.00",
			priors: []model.Bill{
				priorBill("40.00", "15.00"),
				priorBill("35.00", "5.00"),
			},
			want0To30: "25.00", want30To60: "30.00", want60Plus: "0",
		},
		{
			name:        "newest unpaid exceeding the balance is capped",
			outstanding: "100.00",
			priors:      []model.Bill{priorBill("150.00", "0")},
			want0To30:   "100.00", want30To60: "0", want60Plus: "0",
		},
		{
			name:        "overpaid prior contributes nothing",
			outstanding: "50.00",
			priors:      []model.Bill{priorBill("40.00", "45.00")},
			want0To30:   "0", want30To60: "0", want60Plus: "50.00",
		},
		{
			name:        "second bucket skipped once the first absorbs the balance",
			outstanding: "100.00",
			priors: []model.Bill{
				priorBill("100.00", "0"),
				priorBill("20.00", "0"),
			},
			want0To30: "100.00", want30To60: "0", want60Plus: "0",
		},
		{
			name:        "sub-cent remainder after allocation is dropped",
			outstanding: "40.01",
			priors:      []model.Bill{priorBill("40.00", "0")},
			want0To30:   "40.00", want30To60: "0", want60Plus: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := AllocateAging(dec(tt.outstanding), tt.priors)

			assertDecimal(t, tt.want0To30, buckets.Debit0To30, "0-30")
			assertDecimal(t, tt.want30To60, buckets.Debit30To60, "30-60")
			assertDecimal(t, tt.want60Plus, buckets.Debit60Plus, "60+")
		})
	}
}

func TestAllocateAgingSumMatchesBalance(t *testing.T) {
	priors := []model.Bill{
		priorBill("40.00", "0"),
		priorBill("35.00", "0"),
	}

	buckets := AllocateAging(dec("120.00"), priors)

	assertDecimal(t, "120.00", buckets.Sum())
}

func TestComputePenalty(t *testing.T) {
	rate := dec("0.15")

	t.Run("settled balance carries no penalty", func(t *testing.T) {
		assertDecimal(t, "0", ComputePenalty(dec("0"), rate))
		assertDecimal(t, "0", ComputePenalty(dec("0.01"), rate))
	})

	t.Run("penalty is the bank rate applied to the balance", func(t *testing.T) {
		assertDecimal(t, "15.00", ComputePenalty(dec("100.00"), rate))
	})

	t.Run("penalty rounds half up to two decimals", func(t *testing.T) {
		// 10.10 * 0.15 = 1.515
		assertDecimal(t, "1.52", ComputePenalty(dec("10.10"), rate))
		// 10.03 * 0.15 = 1.5045
		assertDecimal(t, "1.50", ComputePenalty(dec("10.03"), rate))
	})
}

func TestTotalPayable(t *testing.T) {
	total := TotalPayable(dec("186.75"), dec("120.00"), dec("18.00"))
	assertDecimal(t, "324.75", total)
}
