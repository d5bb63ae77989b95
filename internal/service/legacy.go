package service

import (
	"fmt"
	"strconv"
	"strings"

	"backend/internal/model"
)

const fallbackBillKey = "BBPT-0000000000"

// BillKey derives the externally visible bill identifier from the bill's
// internal id: "BBPT-" plus the first 8 hex characters (dashes stripped)
// re-expressed as a 10-digit zero-padded decimal. Non-numeric identifiers
// fall back to BBPT-0000000000.
func BillKey(billID string) string {
	hex := strings.ReplaceAll(billID, "-", "")
	if len(hex) < 8 {
		return fallbackBillKey
	}

	value, err := strconv.ParseUint(hex[:8], 16, 64)
	if err != nil {
		return fallbackBillKey
	}
	return fmt.Sprintf("BBPT-%010d", value)
}

// LegacyBillRecord is the persisted export shape consumed by the downstream
// payment and reporting systems. Field names are a compatibility contract
// and must not change.
type LegacyBillRecord struct {
	CustomerKey     string `json:"CUSTOMERKEY"`
	BillKey         string `json:"BILLKEY"`
	TotalBillAmount string `json:"TOTALBILLAMOUNT"`
	OutstandingAmt  string `json:"OUTSTANDINGAMT"`
	PenaltyAmt      string `json:"PENALTYAMT"`
	ThisMonthAmt    string `json:"THISMONTHBILLAMT"`
	PrevRead        string `json:"PREVREAD"`
	CurrRead        string `json:"CURRREAD"`
	Cons            string `json:"CONS"`
	CustomerBranch  string `json:"CUSTOMERBRANCH"`
	CustomerName    string `json:"CUSTOMERNAME"`
	CustomerTIN     string `json:"CUSTOMERTIN"`
	Reason          string `json:"REASON"`
	DrAcctNo        string `json:"DRACCTNO"`
	CrAcctNo        string `json:"CRACCTNO"`
}

// ToLegacyRecord maps a bill with preloaded meter/customer/branch relations
// onto the legacy export shape. DRACCTNO and CRACCTNO stay empty: the
// downstream payment gateway fills in the ledger accounts on its side, this
// system only has to keep the keys in the payload.
func ToLegacyRecord(bill *model.Bill, reason string) LegacyBillRecord {
	record := LegacyBillRecord{
		BillKey:         BillKey(bill.ID.String()),
		TotalBillAmount: bill.TotalPayable.StringFixed(2),
		OutstandingAmt:  bill.OutstandingAmount.StringFixed(2),
		PenaltyAmt:      bill.PenaltyAmount.StringFixed(2),
		ThisMonthAmt:    bill.ThisMonthAmount.StringFixed(2),
		PrevRead:        bill.PreviousReading.String(),
		CurrRead:        bill.CurrentReading.String(),
		Cons:            bill.Consumption.String(),
		Reason:          reason,
	}

	if bill.Meter != nil {
		record.CustomerKey = bill.Meter.CustomerKeyNumber
		if bill.Meter.Branch != nil {
			record.CustomerBranch = bill.Meter.Branch.Name
		}
		if bill.Meter.Customer != nil {
			record.CustomerName = bill.Meter.Customer.Name
			record.CustomerTIN = bill.Meter.Customer.TIN
		}
	}

	return record
}
