package service

import (
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBill(t *testing.T) {
	f := newBillingFixture(t)
	f.seedTariff(t)
	meter := f.seedMeter(t, "10001")
	clerk := uuid.New().String()

	bill, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
		MeterKey:   "10001",
		PeriodDate: "2024-03-01",
		NewReading: "10",
	}, clerk, clerkCaps)
	require.NoError(t, err)

	assert.Equal(t, model.BillDraft, bill.Status)
	assert.Equal(t, "2024-03", bill.MonthYear)
	require.NotNil(t, bill.CreatedBy)
	assert.Equal(t, clerk, bill.CreatedBy.String())

	assertDecimal(t, "0", bill.PreviousReading)
	assertDecimal(t, "10", bill.Consumption)
	assertDecimal(t, "125", bill.WaterCharge)
	assertDecimal(t, "21.75", bill.VATAmount)
	assertDecimal(t, "186.75", bill.ThisMonthAmount)
	assertDecimal(t, "0", bill.OutstandingAmount)
	assertDecimal(t, "0", bill.PenaltyAmount)
	assertDecimal(t, "186.75", bill.TotalPayable)
	assert.Equal(t, model.PaymentUnpaid, bill.PaymentStatus)

	// The meter's reading pair advances with the bill
	fresh, err := f.meterRepo.FindByID(testCtx(), meter.ID)
	require.NoError(t, err)
	assertDecimal(t, "0", fresh.PreviousReading)
	assertDecimal(t, "10", fresh.CurrentReading)
}

func TestGenerateBillGuards(t *testing.T) {
	f := newBillingFixture(t)
	f.seedTariff(t)
	f.seedMeter(t, "10001")
	clerk := uuid.New().String()

	t.Run("requires the create capability", func(t *testing.T) {
		_, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
			MeterKey: "10001", PeriodDate: "2024-03-01", NewReading: "10",
		}, clerk, approverCaps)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrPermissionDenied))
	})

	t.Run("unknown meter", func(t *testing.T) {
		_, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
			MeterKey: "99999", PeriodDate: "2024-03-01", NewReading: "10",
		}, clerk, clerkCaps)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrNotFound))
	})

	t.Run("no tariff effective for the period", func(t *testing.T) {
		_, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
			MeterKey: "10001", PeriodDate: "2023-06-01", NewReading: "10",
		}, clerk, clerkCaps)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrNoApplicableTariff))
	})

	t.Run("reading regression without a reset", func(t *testing.T) {
		_, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
			MeterKey: "10001", PeriodDate: "2024-03-01", NewReading: "-4",
		}, clerk, clerkCaps)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrInvalidReading))
	})

	t.Run("duplicate period", func(t *testing.T) {
		_, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
			MeterKey: "10001", PeriodDate: "2024-03-01", NewReading: "10",
		}, clerk, clerkCaps)
		require.NoError(t, err)

		_, err = f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
			MeterKey: "10001", PeriodDate: "2024-03-15", NewReading: "12",
		}, clerk, clerkCaps)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrConcurrentModification))
	})
}

func TestBillLifecycle(t *testing.T) {
	f := newBillingFixture(t)
	f.seedTariff(t)
	f.seedMeter(t, "10001")
	clerk := uuid.New().String()
	approver := uuid.New().String()

	bill, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
		MeterKey: "10001", PeriodDate: "2024-03-01", NewReading: "10",
	}, clerk, clerkCaps)
	require.NoError(t, err)
	billID := bill.ID.String()

	steps := []struct {
		action  string
		actorID string
		caps    model.CapabilitySet
		want    string
	}{
		{ActionSubmit, clerk, clerkCaps, model.BillPending},
		{ActionSendBack, approver, approverCaps, model.BillRework},
		{ActionResume, clerk, clerkCaps, model.BillDraft},
		{ActionSubmit, clerk, clerkCaps, model.BillPending},
		{ActionApprove, approver, approverCaps, model.BillApproved},
		{ActionPost, approver, approverCaps, model.BillPosted},
	}
	for _, step := range steps {
		result, err := f.billSvc.Transition(testCtx(), billID, TransitionRequest{Action: step.action}, step.actorID, step.caps)
		require.NoError(t, err, "action %s", step.action)
		assert.Equal(t, step.want, result.NewStatus, "action %s", step.action)
	}

	// Exactly one history row per transition, in order
	history, err := f.billSvc.GetHistory(testCtx(), billID)
	require.NoError(t, err)
	require.Len(t, history, len(steps))
	for i, step := range steps {
		assert.Equal(t, step.want, history[i].ToStatus, "step %d", i)
	}
	assert.Equal(t, model.BillDraft, history[0].FromStatus)
	assert.Equal(t, model.BillApproved, history[len(history)-1].FromStatus)
}

func TestTransitionGuards(t *testing.T) {
	f := newBillingFixture(t)
	f.seedTariff(t)
	f.seedMeter(t, "10001")
	clerk := uuid.New().String()

	bill, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
		MeterKey: "10001", PeriodDate: "2024-03-01", NewReading: "10",
	}, clerk, clerkCaps)
	require.NoError(t, err)
	billID := bill.ID.String()

	t.Run("action from the wrong state", func(t *testing.T) {
		_, err := f.billSvc.Transition(testCtx(), billID, TransitionRequest{Action: ActionApprove}, clerk, approverCaps)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrIllegalTransition))
	})

	t.Run("missing capability", func(t *testing.T) {
		_, err := f.billSvc.Transition(testCtx(), billID, TransitionRequest{Action: ActionSubmit}, clerk, approverCaps)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrPermissionDenied))
	})

	t.Run("manage_all drives any edge without the edge capability", func(t *testing.T) {
		admin := uuid.New().String()
		result, err := f.billSvc.Transition(testCtx(), billID, TransitionRequest{Action: ActionSubmit}, admin, adminCaps)
		require.NoError(t, err)
		assert.Equal(t, model.BillPending, result.NewStatus)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := f.billSvc.Transition(testCtx(), billID, TransitionRequest{Action: "archive"}, clerk, adminCaps)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrIllegalTransition))
	})

	t.Run("unknown bill", func(t *testing.T) {
		_, err := f.billSvc.Transition(testCtx(), uuid.New().String(), TransitionRequest{Action: ActionSubmit}, clerk, clerkCaps)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrNotFound))
	})
}

func TestRejectIsTerminal(t *testing.T) {
	f := newBillingFixture(t)
	f.seedTariff(t)
	f.seedMeter(t, "10001")
	clerk := uuid.New().String()
	approver := uuid.New().String()

	bill, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
		MeterKey: "10001", PeriodDate: "2024-03-01", NewReading: "10",
	}, clerk, clerkCaps)
	require.NoError(t, err)
	billID := bill.ID.String()

	_, err = f.billSvc.Transition(testCtx(), billID, TransitionRequest{Action: ActionSubmit}, clerk, clerkCaps)
	require.NoError(t, err)
	result, err := f.billSvc.Transition(testCtx(), billID, TransitionRequest{Action: ActionReject, Remarks: "wrong meter"}, approver, approverCaps)
	require.NoError(t, err)
	assert.Equal(t, model.BillRejected, result.NewStatus)

	// No edge leaves REJECTED
	for _, action := range []string{ActionSubmit, ActionApprove, ActionResume, ActionPost} {
		_, err := f.billSvc.Transition(testCtx(), billID, TransitionRequest{Action: action}, approver, approverCaps)
		require.Error(t, err, "action %s", action)
		assert.True(t, apperror.Is(err, apperror.ErrIllegalTransition), "action %s", action)
	}

	history, err := f.billSvc.GetHistory(testCtx(), billID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "wrong meter", history[1].Remarks)
}

func TestMeterRolloverSurvivesSubmit(t *testing.T) {
	f := newBillingFixture(t)
	f.seedTariff(t)
	f.seedMeter(t, "10001")
	clerk := uuid.New().String()

	_, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
		MeterKey: "10001", PeriodDate: "2024-03-01", NewReading: "9990",
	}, clerk, clerkCaps)
	require.NoError(t, err)

	bill, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
		MeterKey: "10001", PeriodDate: "2024-04-01", NewReading: "5", ReadingReset: true,
	}, clerk, clerkCaps)
	require.NoError(t, err)
	assert.True(t, bill.ReadingReset)
	assertDecimal(t, "9990", bill.PreviousReading)
	assertDecimal(t, "5", bill.Consumption)

	// Submit recomputes against the live previous reading; the persisted
	// rollover marker keeps the low reading valid instead of failing it as a
	// regression.
	result, err := f.billSvc.Transition(testCtx(), bill.ID.String(), TransitionRequest{Action: ActionSubmit}, clerk, clerkCaps)
	require.NoError(t, err)
	assert.Equal(t, model.BillPending, result.NewStatus)

	fresh, err := f.billRepo.FindByID(testCtx(), bill.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BillPending, fresh.Status)
	assertDecimal(t, "5", fresh.Consumption)
	assertDecimal(t, "50", fresh.WaterCharge)
}

func TestRolloverMarkedDuringDraftEditSurvivesSubmit(t *testing.T) {
	f := newBillingFixture(t)
	f.seedTariff(t)
	f.seedMeter(t, "10001")
	clerk := uuid.New().String()

	_, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
		MeterKey: "10001", PeriodDate: "2024-03-01", NewReading: "9995",
	}, clerk, clerkCaps)
	require.NoError(t, err)

	bill, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
		MeterKey: "10001", PeriodDate: "2024-04-01", NewReading: "9999",
	}, clerk, clerkCaps)
	require.NoError(t, err)
	assert.False(t, bill.ReadingReset)

	updated, err := f.billSvc.UpdateDraftReading(testCtx(), bill.ID.String(),
		UpdateDraftReadingRequest{NewReading: "3", ReadingReset: true}, clerk, clerkCaps)
	require.NoError(t, err)
	assert.True(t, updated.ReadingReset)
	assertDecimal(t, "3", updated.Consumption)

	result, err := f.billSvc.Transition(testCtx(), bill.ID.String(), TransitionRequest{Action: ActionSubmit}, clerk, clerkCaps)
	require.NoError(t, err)
	assert.Equal(t, model.BillPending, result.NewStatus)

	fresh, err := f.billRepo.FindByID(testCtx(), bill.ID)
	require.NoError(t, err)
	assertDecimal(t, "3", fresh.Consumption)
	assertDecimal(t, "30", fresh.WaterCharge)
}

func TestGenerateBillBlockedBySoftDeletedPeriod(t *testing.T) {
	f := newBillingFixture(t)
	f.seedTariff(t)
	f.seedMeter(t, "10001")
	clerk := uuid.New().String()

	bill, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
		MeterKey: "10001", PeriodDate: "2024-03-01", NewReading: "10",
	}, clerk, clerkCaps)
	require.NoError(t, err)

	// A soft-deleted bill still occupies the period's unique slot, so
	// regeneration must point at the recycle bin rather than hit the raw
	// constraint.
	require.NoError(t, f.db.Delete(&model.Bill{}, "id = ?", bill.ID).Error)

	_, err = f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
		MeterKey: "10001", PeriodDate: "2024-03-15", NewReading: "12",
	}, clerk, clerkCaps)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.ErrConcurrentModification))
	assert.Contains(t, err.Error(), "recycle bin")
}

func TestUpdateDraftReading(t *testing.T) {
	f := newBillingFixture(t)
	f.seedTariff(t)
	f.seedMeter(t, "10001")
	clerk := uuid.New().String()

	bill, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
		MeterKey: "10001", PeriodDate: "2024-03-01", NewReading: "10",
	}, clerk, clerkCaps)
	require.NoError(t, err)
	billID := bill.ID.String()

	updated, err := f.billSvc.UpdateDraftReading(testCtx(), billID, UpdateDraftReadingRequest{NewReading: "8"}, clerk, clerkCaps)
	require.NoError(t, err)

	assertDecimal(t, "8", updated.CurrentReading)
	assertDecimal(t, "8", updated.Consumption)
	assertDecimal(t, "95", updated.WaterCharge) // 5*10 + 3*15

	// Readings freeze once the bill leaves DRAFT
	_, err = f.billSvc.Transition(testCtx(), billID, TransitionRequest{Action: ActionSubmit}, clerk, clerkCaps)
	require.NoError(t, err)
	_, err = f.billSvc.UpdateDraftReading(testCtx(), billID, UpdateDraftReadingRequest{NewReading: "9"}, clerk, clerkCaps)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.ErrIllegalTransition))
}

func TestDebtAgingAcrossPeriods(t *testing.T) {
	f := newBillingFixture(t)
	f.seedTariff(t)
	f.seedMeter(t, "10001")
	clerk := uuid.New().String()

	generate := func(period, reading string) *model.Bill {
		t.Helper()
		bill, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
			MeterKey: "10001", PeriodDate: period, NewReading: reading,
		}, clerk, clerkCaps)
		require.NoError(t, err)
		return bill
	}

	first := generate("2024-03-01", "10")
	assertDecimal(t, "186.75", first.TotalPayable)

	// One unpaid cycle behind: the whole balance is fresh debt
	second := generate("2024-04-01", "20")
	assertDecimal(t, "186.75", second.Debit0To30)
	assertDecimal(t, "0", second.Debit30To60)
	assertDecimal(t, "0", second.Debit60Plus)
	assertDecimal(t, "186.75", second.OutstandingAmount)
	// 186.75 * 0.15 = 28.0125
	assertDecimal(t, "28.01", second.PenaltyAmount)
	assertDecimal(t, "401.51", second.TotalPayable)

	// Two unpaid cycles behind: buckets split by bill recency
	third := generate("2024-05-01", "30")
	assertDecimal(t, "401.51", third.Debit0To30)
	assertDecimal(t, "186.75", third.Debit30To60)
	assertDecimal(t, "0", third.Debit60Plus)
	assertDecimal(t, "588.26", third.OutstandingAmount)
	// 588.26 * 0.15 = 88.239
	assertDecimal(t, "88.24", third.PenaltyAmount)
	assertDecimal(t, "863.25", third.TotalPayable)
}

func TestApplyPayment(t *testing.T) {
	f := newBillingFixture(t)
	f.seedTariff(t)
	f.seedMeter(t, "10001")
	clerk := uuid.New().String()
	approver := uuid.New().String()

	bill, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
		MeterKey: "10001", PeriodDate: "2024-03-01", NewReading: "10",
	}, clerk, clerkCaps)
	require.NoError(t, err)
	billID := bill.ID.String()

	t.Run("payments apply only to posted bills", func(t *testing.T) {
		_, err := f.billSvc.ApplyPayment(testCtx(), billID, ApplyPaymentRequest{Amount: "50"}, approver)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.ErrIllegalTransition))
	})

	for _, action := range []string{ActionSubmit, ActionApprove, ActionPost} {
		_, err := f.billSvc.Transition(testCtx(), billID, TransitionRequest{Action: action}, approver, adminCaps)
		require.NoError(t, err)
	}

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := f.billSvc.ApplyPayment(testCtx(), billID, ApplyPaymentRequest{Amount: "-5"}, approver)
		require.Error(t, err)
		assert.Equal(t, "INVALID_PAYMENT", apperror.CodeOf(err))
	})

	t.Run("partial then full settlement", func(t *testing.T) {
		paid, err := f.billSvc.ApplyPayment(testCtx(), billID, ApplyPaymentRequest{Amount: "100"}, approver)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentPartial, paid.PaymentStatus)
		assertDecimal(t, "100", paid.AmountPaid)

		paid, err = f.billSvc.ApplyPayment(testCtx(), billID, ApplyPaymentRequest{Amount: "86.75"}, approver)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentPaid, paid.PaymentStatus)
		assertDecimal(t, "186.75", paid.AmountPaid)
	})
}

func TestRecalculateUnpaid(t *testing.T) {
	f := newBillingFixture(t)
	f.seedTariff(t)
	f.seedMeter(t, "10001")
	clerk := uuid.New().String()
	admin := uuid.New().String()

	var bills []*model.Bill
	for _, p := range []struct{ period, reading string }{
		{"2024-03-01", "10"},
		{"2024-04-01", "20"},
		{"2024-05-01", "30"},
	} {
		bill, err := f.billSvc.GenerateBill(testCtx(), GenerateBillRequest{
			MeterKey: "10001", PeriodDate: p.period, NewReading: p.reading,
		}, clerk, clerkCaps)
		require.NoError(t, err)
		bills = append(bills, bill)
	}

	// Settle the first cycle out of band, then re-age the rest
	require.NoError(t, f.db.Model(&model.Bill{}).Where("id = ?", bills[0].ID).
		Updates(map[string]interface{}{
			"amount_paid":    bills[0].TotalPayable,
			"payment_status": model.PaymentPaid,
		}).Error)

	count, err := f.billSvc.RecalculateUnpaid(testCtx(), admin)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	second, err := f.billSvc.GetBill(testCtx(), bills[1].ID.String())
	require.NoError(t, err)
	assertDecimal(t, "0", second.OutstandingAmount)
	assertDecimal(t, "0", second.PenaltyAmount)
	assertDecimal(t, "186.75", second.TotalPayable)

	// The third cycle now owes only the second's recomputed balance
	third, err := f.billSvc.GetBill(testCtx(), bills[2].ID.String())
	require.NoError(t, err)
	assertDecimal(t, "186.75", third.Debit0To30)
	assertDecimal(t, "0", third.Debit30To60)
	assertDecimal(t, "186.75", third.OutstandingAmount)
	// 186.75 * 0.15 = 28.0125
	assertDecimal(t, "28.01", third.PenaltyAmount)
	assertDecimal(t, "401.51", third.TotalPayable)
}
