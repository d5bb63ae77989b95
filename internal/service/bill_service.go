package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bill lifecycle actions
const (
	ActionSubmit   = "submit"
	ActionApprove  = "approve"
	ActionSendBack = "send_back"
	ActionReject   = "reject"
	ActionResume   = "resume"
	ActionPost     = "post"
)

// transition describes one legal edge of the bill state machine
type transition struct {
	From       string
	To         string
	Capability string
}

// transitions is the full table of legal edges, keyed by action. The resume
// edge additionally admits the bill's original creator regardless of
// capability.
var transitions = map[string]transition{
	ActionSubmit:   {From: model.BillDraft, To: model.BillPending, Capability: model.CapBillSubmit},
	ActionApprove:  {From: model.BillPending, To: model.BillApproved, Capability: model.CapBillApprove},
	ActionSendBack: {From: model.BillPending, To: model.BillRework, Capability: model.CapBillApprove},
	ActionReject:   {From: model.BillPending, To: model.BillRejected, Capability: model.CapBillApprove},
	ActionResume:   {From: model.BillRework, To: model.BillDraft, Capability: model.CapBillRework},
	ActionPost:     {From: model.BillApproved, To: model.BillPosted, Capability: model.CapBillPost},
}

// --- DTOs ---

type GenerateBillRequest struct {
	MeterKey   string `json:"meter_key" binding:"required"`   // customer_key_number
	PeriodDate string `json:"period_date" binding:"required"` // YYYY-MM-DD
	NewReading string `json:"new_reading" binding:"required"` // decimal string
	// ReadingReset accepts a reading lower than the previous one as a meter
	// reset instead of failing on regression.
	ReadingReset bool `json:"reading_reset"`
}

type TransitionRequest struct {
	Action  string `json:"action" binding:"required,oneof=submit approve send_back reject resume post"`
	Remarks string `json:"remarks"`
}

type UpdateDraftReadingRequest struct {
	NewReading   string `json:"new_reading" binding:"required"`
	ReadingReset bool   `json:"reading_reset"`
}

type ApplyPaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type TransitionResult struct {
	BillID    string `json:"bill_id"`
	NewStatus string `json:"new_status"`
}

// billEvent is the payload broadcast to read-model subscribers after a
// transition commits
type billEvent struct {
	Type      string `json:"type"`
	BillID    string `json:"bill_id"`
	BillKey   string `json:"bill_key"`
	MeterKey  string `json:"meter_key,omitempty"`
	MonthYear string `json:"month_year"`
	Status    string `json:"status"`
	Total     string `json:"total_payable"`
}

// EventPublisher feeds committed billing events to subscribers (the
// websocket hub)
type EventPublisher interface {
	GetBroadcast() chan []byte
}

// --- Interface ---

type BillService interface {
	// GenerateBill runs the full pipeline for one meter and period: tariff
	// resolution, tiered charge, debt aging, penalty, then persists the bill
	// in DRAFT.
	GenerateBill(ctx context.Context, req GenerateBillRequest, actorID string, caps model.CapabilitySet) (*model.Bill, error)
	// Transition advances a bill through the lifecycle state machine,
	// appending exactly one history row per transition.
	Transition(ctx context.Context, billID string, req TransitionRequest, actorID string, caps model.CapabilitySet) (TransitionResult, error)
	UpdateDraftReading(ctx context.Context, billID string, req UpdateDraftReadingRequest, actorID string, caps model.CapabilitySet) (*model.Bill, error)
	ApplyPayment(ctx context.Context, billID string, req ApplyPaymentRequest, actorID string) (*model.Bill, error)
	GetBill(ctx context.Context, billID string) (*model.Bill, error)
	GetLegacyRecord(ctx context.Context, billID string) (LegacyBillRecord, error)
	ListBills(ctx context.Context, filter repository.BillListFilter) ([]model.Bill, int64, error)
	GetHistory(ctx context.Context, billID string) ([]model.BillHistory, error)
	// RecalculateUnpaid re-runs aging and penalty across every unpaid bill,
	// one bill at a time through the same pure engine.
	RecalculateUnpaid(ctx context.Context, actorID string) (int, error)
}

type billService struct {
	billRepo  repository.BillRepository
	meterRepo repository.MeterRepository
	tariffSvc TariffService
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	hub       EventPublisher
	bankRate  decimal.Decimal
}

func NewBillService(
	billRepo repository.BillRepository,
	meterRepo repository.MeterRepository,
	tariffSvc TariffService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub EventPublisher,
	bankRate decimal.Decimal,
) BillService {
	return &billService{
		billRepo:  billRepo,
		meterRepo: meterRepo,
		tariffSvc: tariffSvc,
		auditRepo: auditRepo,
		txManager: txManager,
		hub:       hub,
		bankRate:  bankRate,
	}
}

// --- Pipeline ---

func (s *billService) GenerateBill(ctx context.Context, req GenerateBillRequest, actorID string, caps model.CapabilitySet) (*model.Bill, error) {
	if !caps.Has(model.CapBillCreate) && !caps.Has(model.CapBillManageAll) {
		return nil, fmt.Errorf("%w: %s required", apperror.ErrPermissionDenied, model.CapBillCreate)
	}

	periodDate, err := time.Parse("2006-01-02", req.PeriodDate)
	if err != nil {
		return nil, fmt.Errorf("invalid period_date format (expected YYYY-MM-DD): %w", err)
	}
	newReading, err := decimal.NewFromString(req.NewReading)
	if err != nil {
		return nil, fmt.Errorf("invalid new_reading: %w", err)
	}

	meter, err := s.meterRepo.FindByCustomerKey(ctx, req.MeterKey)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: meter %s", apperror.ErrNotFound, req.MeterKey)
		}
		return nil, fmt.Errorf("failed to fetch meter: %w", err)
	}

	monthYear := periodDate.Format("2006-01")

	var bill *model.Bill
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		exists, inRecycleBin, existsErr := s.billRepo.ExistsForPeriod(txCtx, meter.ID, monthYear)
		if existsErr != nil {
			return fmt.Errorf("failed to check existing bills: %w", existsErr)
		}
		if inRecycleBin {
			return fmt.Errorf("%w: bill for meter %s period %s is in the recycle bin, restore it instead of regenerating",
				apperror.ErrConcurrentModification, req.MeterKey, monthYear)
		}
		if exists {
			return fmt.Errorf("%w: bill for meter %s period %s already exists",
				apperror.ErrConcurrentModification, req.MeterKey, monthYear)
		}

		tariff, resolveErr := s.tariffSvc.Resolve(txCtx, meter.Category, periodDate)
		if resolveErr != nil {
			return resolveErr
		}

		previousReading, prevErr := s.currentPreviousReading(txCtx, meter, monthYear)
		if prevErr != nil {
			return prevErr
		}

		computed, computeErr := s.computeBill(txCtx, meter, tariff, previousReading, newReading, req.ReadingReset, monthYear)
		if computeErr != nil {
			return computeErr
		}

		bill = computed
		bill.Status = model.BillDraft
		if actor := parseActor(actorID); actor != nil {
			bill.CreatedBy = actor
		}

		if createErr := s.billRepo.Create(txCtx, bill); createErr != nil {
			return fmt.Errorf("failed to create bill: %w", createErr)
		}

		// Advance the meter's reading pair so the next cycle sees this one
		meter.PreviousReading = previousReading
		meter.CurrentReading = newReading
		if updateErr := s.meterRepo.Update(txCtx, meter); updateErr != nil {
			return fmt.Errorf("failed to update meter readings: %w", updateErr)
		}

		s.writeAudit(txCtx, actorID, model.ActionCreateBill, bill.ID.String(),
			req.MeterKey+" "+monthYear, map[string]string{
				"meter_key":     req.MeterKey,
				"month_year":    monthYear,
				"total_payable": bill.TotalPayable.StringFixed(2),
			})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.billRepo.FindByIDWithRelations(ctx, bill.ID)
}

// computeBill runs the pure pipeline (charge -> aging -> penalty) and
// assembles the bill row. The caller persists it.
func (s *billService) computeBill(ctx context.Context, meter *model.Meter, tariff *model.Tariff,
	previousReading, newReading decimal.Decimal, readingReset bool, monthYear string) (*model.Bill, error) {

	breakdown, err := ComputeCharge(tariff, previousReading, newReading, MeterAttributes{
		MeterSize:         meter.MeterSize,
		SewerageConnected: meter.SewerageConnected,
		ReadingReset:      readingReset,
	})
	if err != nil {
		return nil, err
	}

	priorBills, err := s.billRepo.RecentPriorBills(ctx, meter.ID, monthYear, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prior bills: %w", err)
	}

	outstanding := decimal.Zero
	for _, prior := range priorBills {
		unpaid := prior.TotalPayable.Sub(prior.AmountPaid)
		if unpaid.IsPositive() {
			outstanding = outstanding.Add(unpaid)
		}
	}
	olderOutstanding, err := s.olderUnpaidBalance(ctx, meter.ID, monthYear, priorBills)
	if err != nil {
		return nil, err
	}
	outstanding = outstanding.Add(olderOutstanding)

	buckets := AllocateAging(outstanding, priorBills)
	penalty := ComputePenalty(outstanding, s.bankRate)

	return &model.Bill{
		MeterID:           meter.ID,
		TariffID:          tariff.ID,
		MonthYear:         monthYear,
		PreviousReading:   previousReading,
		CurrentReading:    newReading,
		ReadingReset:      readingReset,
		Consumption:       breakdown.Consumption,
		WaterCharge:       breakdown.WaterCharge,
		MaintenanceFee:    breakdown.MaintenanceFee,
		SanitationFee:     breakdown.SanitationFee,
		SewerageCharge:    breakdown.SewerageCharge,
		MeterRent:         breakdown.MeterRent,
		VATAmount:         breakdown.VATAmount,
		AdditionalCharges: breakdown.AdditionalCharges,
		ThisMonthAmount:   breakdown.ThisMonthAmount,
		Debit0To30:        buckets.Debit0To30,
		Debit30To60:       buckets.Debit30To60,
		Debit60Plus:       buckets.Debit60Plus,
		OutstandingAmount: buckets.Sum(),
		PenaltyAmount:     penalty,
		TotalPayable:      TotalPayable(breakdown.ThisMonthAmount, buckets.Sum(), penalty),
		AmountPaid:        decimal.Zero,
		PaymentStatus:     model.PaymentUnpaid,
	}, nil
}

// olderUnpaidBalance sums unpaid amounts of bills older than the ones
// already fetched, so debt beyond the two most recent cycles lands in the
// 60+ bucket.
func (s *billService) olderUnpaidBalance(ctx context.Context, meterID uuid.UUID, monthYear string, recent []model.Bill) (decimal.Decimal, error) {
	oldest := monthYear
	if len(recent) > 0 {
		oldest = recent[len(recent)-1].MonthYear
	}

	older, err := s.billRepo.RecentPriorBills(ctx, meterID, oldest, -1)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch older bills: %w", err)
	}

	balance := decimal.Zero
	for _, bill := range older {
		unpaid := bill.TotalPayable.Sub(bill.AmountPaid)
		if unpaid.IsPositive() {
			balance = balance.Add(unpaid)
		}
	}
	return balance, nil
}

// currentPreviousReading resolves the live previous reading, never a cached
// one: the most recent prior bill's current reading wins over the meter
// record.
func (s *billService) currentPreviousReading(ctx context.Context, meter *model.Meter, monthYear string) (decimal.Decimal, error) {
	prior, err := s.billRepo.RecentPriorBills(ctx, meter.ID, monthYear, 1)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch prior bill: %w", err)
	}
	if len(prior) > 0 {
		return prior[0].CurrentReading, nil
	}
	return meter.PreviousReading, nil
}

// --- State machine ---

func (s *billService) Transition(ctx context.Context, billID string, req TransitionRequest, actorID string, caps model.CapabilitySet) (TransitionResult, error) {
	id, err := uuid.Parse(billID)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("invalid bill id: %w", err)
	}

	edge, ok := transitions[req.Action]
	if !ok {
		return TransitionResult{}, fmt.Errorf("%w: unknown action %q", apperror.ErrIllegalTransition, req.Action)
	}

	var bill *model.Bill
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		bill, findErr = s.billRepo.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			if isNotFound(findErr) {
				return fmt.Errorf("%w: bill %s", apperror.ErrNotFound, billID)
			}
			return fmt.Errorf("failed to fetch bill: %w", findErr)
		}

		if guardErr := s.guardTransition(bill, edge, req.Action, actorID, caps); guardErr != nil {
			return guardErr
		}

		// Submission freezes proposed values; recompute so a reading edited
		// during rework is validated against the current previous reading.
		if req.Action == ActionSubmit {
			if recomputeErr := s.recompute(txCtx, bill); recomputeErr != nil {
				return recomputeErr
			}
		}

		fromStatus := bill.Status
		bill.Status = edge.To
		if updateErr := s.billRepo.Update(txCtx, bill); updateErr != nil {
			return fmt.Errorf("failed to update bill status: %w", updateErr)
		}

		history := model.BillHistory{
			BillID:     bill.ID,
			FromStatus: fromStatus,
			ToStatus:   edge.To,
			ActorID:    parseActor(actorID),
			Remarks:    req.Remarks,
		}
		if historyErr := s.billRepo.AppendHistory(txCtx, &history); historyErr != nil {
			return fmt.Errorf("failed to append bill history: %w", historyErr)
		}

		s.writeAudit(txCtx, actorID, model.ActionTransitionBill, bill.ID.String(),
			fromStatus+" -> "+edge.To, map[string]string{
				"action":  req.Action,
				"from":    fromStatus,
				"to":      edge.To,
				"remarks": req.Remarks,
			})
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}

	s.publishEvent(ctx, bill)

	return TransitionResult{BillID: bill.ID.String(), NewStatus: bill.Status}, nil
}

// guardTransition enforces the edge's source state and capability.
// bill:manage_all forces any edge but is still recorded like any other actor.
func (s *billService) guardTransition(bill *model.Bill, edge transition, action, actorID string, caps model.CapabilitySet) error {
	if caps.Has(model.CapBillManageAll) {
		return nil
	}

	if bill.Status != edge.From {
		return fmt.Errorf("%w: cannot %s a bill in status %s", apperror.ErrIllegalTransition, action, bill.Status)
	}

	if caps.Has(edge.Capability) {
		return nil
	}
	// The original creator may always pull their bill back from rework
	if action == ActionResume && bill.CreatedBy != nil && bill.CreatedBy.String() == actorID {
		return nil
	}

	return fmt.Errorf("%w: %s required", apperror.ErrPermissionDenied, edge.Capability)
}

// recompute re-runs the pure pipeline against the bill's current reading and
// the live previous reading. The bill's persisted reset marker carries
// through, so a rollover accepted at creation survives every later
// recompute.
func (s *billService) recompute(ctx context.Context, bill *model.Bill) error {
	meter, err := s.meterRepo.FindByID(ctx, bill.MeterID)
	if err != nil {
		return fmt.Errorf("failed to fetch meter: %w", err)
	}

	tariff, err := s.tariffSvc.GetTariff(ctx, bill.TariffID.String())
	if err != nil {
		return err
	}

	previousReading, err := s.currentPreviousReading(ctx, meter, bill.MonthYear)
	if err != nil {
		return err
	}

	fresh, err := s.computeBill(ctx, meter, tariff, previousReading, bill.CurrentReading, bill.ReadingReset, bill.MonthYear)
	if err != nil {
		return err
	}

	bill.PreviousReading = fresh.PreviousReading
	bill.Consumption = fresh.Consumption
	bill.WaterCharge = fresh.WaterCharge
	bill.MaintenanceFee = fresh.MaintenanceFee
	bill.SanitationFee = fresh.SanitationFee
	bill.SewerageCharge = fresh.SewerageCharge
	bill.MeterRent = fresh.MeterRent
	bill.VATAmount = fresh.VATAmount
	bill.AdditionalCharges = fresh.AdditionalCharges
	bill.ThisMonthAmount = fresh.ThisMonthAmount
	bill.Debit0To30 = fresh.Debit0To30
	bill.Debit30To60 = fresh.Debit30To60
	bill.Debit60Plus = fresh.Debit60Plus
	bill.OutstandingAmount = fresh.OutstandingAmount
	bill.PenaltyAmount = fresh.PenaltyAmount
	bill.TotalPayable = fresh.TotalPayable
	return nil
}

func (s *billService) UpdateDraftReading(ctx context.Context, billID string, req UpdateDraftReadingRequest, actorID string, caps model.CapabilitySet) (*model.Bill, error) {
	id, err := uuid.Parse(billID)
	if err != nil {
		return nil, fmt.Errorf("invalid bill id: %w", err)
	}
	newReading, err := decimal.NewFromString(req.NewReading)
	if err != nil {
		return nil, fmt.Errorf("invalid new_reading: %w", err)
	}

	var bill *model.Bill
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		bill, findErr = s.billRepo.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			if isNotFound(findErr) {
				return fmt.Errorf("%w: bill %s", apperror.ErrNotFound, billID)
			}
			return fmt.Errorf("failed to fetch bill: %w", findErr)
		}

		if bill.Status != model.BillDraft {
			return fmt.Errorf("%w: readings are editable only in DRAFT, bill is %s",
				apperror.ErrIllegalTransition, bill.Status)
		}
		isCreator := bill.CreatedBy != nil && bill.CreatedBy.String() == actorID
		if !caps.Has(model.CapBillCreate) && !caps.Has(model.CapBillManageAll) && !isCreator {
			return fmt.Errorf("%w: %s required", apperror.ErrPermissionDenied, model.CapBillCreate)
		}

		bill.CurrentReading = newReading
		bill.ReadingReset = req.ReadingReset
		if recomputeErr := s.recompute(txCtx, bill); recomputeErr != nil {
			return recomputeErr
		}

		if updateErr := s.billRepo.Update(txCtx, bill); updateErr != nil {
			return fmt.Errorf("failed to update bill: %w", updateErr)
		}

		// Keep the meter's reading pair aligned with the edited draft
		meter, meterErr := s.meterRepo.FindByID(txCtx, bill.MeterID)
		if meterErr != nil {
			return fmt.Errorf("failed to fetch meter: %w", meterErr)
		}
		meter.CurrentReading = newReading
		if updateErr := s.meterRepo.Update(txCtx, meter); updateErr != nil {
			return fmt.Errorf("failed to update meter readings: %w", updateErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.billRepo.FindByIDWithRelations(ctx, bill.ID)
}

func (s *billService) ApplyPayment(ctx context.Context, billID string, req ApplyPaymentRequest, actorID string) (*model.Bill, error) {
	id, err := uuid.Parse(billID)
	if err != nil {
		return nil, fmt.Errorf("invalid bill id: %w", err)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return nil, apperror.New("INVALID_PAYMENT", "payment amount must be positive")
	}

	var bill *model.Bill
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		bill, findErr = s.billRepo.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			if isNotFound(findErr) {
				return fmt.Errorf("%w: bill %s", apperror.ErrNotFound, billID)
			}
			return fmt.Errorf("failed to fetch bill: %w", findErr)
		}

		if bill.Status != model.BillPosted {
			return fmt.Errorf("%w: payments apply only to POSTED bills, bill is %s",
				apperror.ErrIllegalTransition, bill.Status)
		}

		bill.AmountPaid = bill.AmountPaid.Add(amount)
		switch {
		case bill.AmountPaid.GreaterThanOrEqual(bill.TotalPayable):
			bill.PaymentStatus = model.PaymentPaid
		case bill.AmountPaid.IsPositive():
			bill.PaymentStatus = model.PaymentPartial
		}

		if updateErr := s.billRepo.Update(txCtx, bill); updateErr != nil {
			return fmt.Errorf("failed to apply payment: %w", updateErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return bill, nil
}

// --- Queries ---

func (s *billService) GetBill(ctx context.Context, billID string) (*model.Bill, error) {
	id, err := uuid.Parse(billID)
	if err != nil {
		return nil, fmt.Errorf("invalid bill id: %w", err)
	}

	bill, err := s.billRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: bill %s", apperror.ErrNotFound, billID)
		}
		return nil, fmt.Errorf("failed to fetch bill: %w", err)
	}
	return bill, nil
}

func (s *billService) GetLegacyRecord(ctx context.Context, billID string) (LegacyBillRecord, error) {
	bill, err := s.GetBill(ctx, billID)
	if err != nil {
		return LegacyBillRecord{}, err
	}
	return ToLegacyRecord(bill, ""), nil
}

func (s *billService) ListBills(ctx context.Context, filter repository.BillListFilter) ([]model.Bill, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.billRepo.List(ctx, filter)
}

func (s *billService) GetHistory(ctx context.Context, billID string) ([]model.BillHistory, error) {
	id, err := uuid.Parse(billID)
	if err != nil {
		return nil, fmt.Errorf("invalid bill id: %w", err)
	}
	return s.billRepo.History(ctx, id)
}

// --- Bulk recalculation ---

func (s *billService) RecalculateUnpaid(ctx context.Context, actorID string) (int, error) {
	ids, err := s.billRepo.UnpaidBillIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list unpaid bills: %w", err)
	}

	recalculated := 0
	for _, id := range ids {
		err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			bill, findErr := s.billRepo.FindByIDForUpdate(txCtx, id)
			if findErr != nil {
				return findErr
			}
			if recomputeErr := s.recompute(txCtx, bill); recomputeErr != nil {
				return recomputeErr
			}
			return s.billRepo.Update(txCtx, bill)
		})
		if err != nil {
			return recalculated, fmt.Errorf("recalculation stopped at bill %s: %w", id, err)
		}
		recalculated++
	}

	s.writeAudit(ctx, actorID, model.ActionRecalculateBills, "",
		fmt.Sprintf("%d bills", recalculated), map[string]int{"count": recalculated})
	return recalculated, nil
}

// --- Helpers ---

func (s *billService) publishEvent(ctx context.Context, bill *model.Bill) {
	if s.hub == nil {
		return
	}

	event := billEvent{
		Type:      "bill.transition",
		BillID:    bill.ID.String(),
		BillKey:   BillKey(bill.ID.String()),
		MonthYear: bill.MonthYear,
		Status:    bill.Status,
		Total:     bill.TotalPayable.StringFixed(2),
	}
	if full, err := s.billRepo.FindByIDWithRelations(ctx, bill.ID); err == nil && full.Meter != nil {
		event.MeterKey = full.Meter.CustomerKeyNumber
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case s.hub.GetBroadcast() <- payload:
	default: // never block a request on slow subscribers
	}
}

func (s *billService) writeAudit(ctx context.Context, actorID, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	entry.UserID = parseActor(actorID)

	// Best-effort audit log — don't fail the operation if logging fails
	_ = s.auditRepo.Log(ctx, &entry)
}

func parseActor(actorID string) *uuid.UUID {
	if actorID == "" {
		return nil
	}
	parsed, err := uuid.Parse(actorID)
	if err != nil {
		return nil
	}
	return &parsed
}
