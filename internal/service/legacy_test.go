package service

import (
	"encoding/json"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillKey(t *testing.T) {
	tests := []struct {
		name   string
		billID string
		want   string
	}{
		{
			// 0x12345678 = 305419896
			name:   "first eight hex characters become a zero-padded decimal",
			billID: "12345678-9abc-def0-1234-56789abcdef0",
			want:   "BBPT-0305419896",
		},
		{
			name:   "all-zero identifier",
			billID: "00000000-0000-0000-0000-000000000000",
			want:   "BBPT-0000000000",
		},
		{
			name:   "dashes are stripped before slicing",
			billID: "12-34-56-78-9abcdef0",
			want:   "BBPT-0305419896",
		},
		{
			name:   "too-short identifier falls back",
			billID: "1234",
			want:   "BBPT-0000000000",
		},
		{
			name:   "non-hex identifier falls back",
			billID: "not-a-uuid",
			want:   "BBPT-0000000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BillKey(tt.billID))
		})
	}
}

func TestToLegacyRecord(t *testing.T) {
	billID := uuid.MustParse("12345678-9abc-4ef0-8234-56789abcdef0")
	bill := &model.Bill{
		ID:                billID,
		PreviousReading:   dec("100"),
		CurrentReading:    dec("110.5"),
		Consumption:       dec("10.5"),
		ThisMonthAmount:   dec("196.75"),
		OutstandingAmount: dec("120"),
		PenaltyAmount:     dec("18"),
		TotalPayable:      dec("334.75"),
		Meter: &model.Meter{
			CustomerKeyNumber: "10001",
			Branch:            &model.Branch{Name: "Central"},
			Customer:          &model.Customer{Name: "A. Bekele", TIN: "0012345678"},
		},
	}

	record := ToLegacyRecord(bill, "meter replaced")

	assert.Equal(t, "BBPT-0305419896", record.BillKey)
	assert.Equal(t, "10001", record.CustomerKey)
	assert.Equal(t, "334.75", record.TotalBillAmount)
	assert.Equal(t, "120.00", record.OutstandingAmt)
	assert.Equal(t, "18.00", record.PenaltyAmt)
	assert.Equal(t, "196.75", record.ThisMonthAmt)
	assert.Equal(t, "100", record.PrevRead)
	assert.Equal(t, "110.5", record.CurrRead)
	assert.Equal(t, "10.5", record.Cons)
	assert.Equal(t, "Central", record.CustomerBranch)
	assert.Equal(t, "A. Bekele", record.CustomerName)
	assert.Equal(t, "0012345678", record.CustomerTIN)
	assert.Equal(t, "meter replaced", record.Reason)

	// Ledger accounts are assigned downstream; the export carries the keys
	// empty on purpose
	assert.Empty(t, record.DrAcctNo)
	assert.Empty(t, record.CrAcctNo)
}

func TestToLegacyRecordWithoutRelations(t *testing.T) {
	bill := &model.Bill{
		ID:              uuid.New(),
		TotalPayable:    dec("50"),
		ThisMonthAmount: dec("50"),
	}

	record := ToLegacyRecord(bill, "")

	require.Empty(t, record.CustomerKey)
	assert.Empty(t, record.CustomerBranch)
	assert.Empty(t, record.CustomerName)
	assert.Equal(t, "50.00", record.TotalBillAmount)
}

func TestLegacyRecordFieldNames(t *testing.T) {
	record := ToLegacyRecord(&model.Bill{ID: uuid.New()}, "")

	payload, err := json.Marshal(record)
	require.NoError(t, err)

	for _, key := range []string{
		"CUSTOMERKEY", "BILLKEY", "TOTALBILLAMOUNT", "OUTSTANDINGAMT",
		"PENALTYAMT", "THISMONTHBILLAMT", "PREVREAD", "CURRREAD", "CONS",
		"CUSTOMERBRANCH", "CUSTOMERNAME", "CUSTOMERTIN", "REASON",
		"DRACCTNO", "CRACCTNO",
	} {
		assert.Contains(t, string(payload), `"`+key+`"`)
	}
}
