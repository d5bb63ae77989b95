package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BillHandler struct {
	billService service.BillService
}

func NewBillHandler(billService service.BillService) *BillHandler {
	return &BillHandler{billService: billService}
}

func (h *BillHandler) RegisterRoutes(router *gin.RouterGroup) {
	bills := router.Group("/api/bills")
	{
		bills.POST("", middleware.RequireCapability(model.CapBillCreate), h.GenerateBill)
		bills.GET("", middleware.RequireCapability(model.CapBillViewDrafts, model.CapBillCreate, model.CapBillApprove), h.ListBills)
		bills.GET("/:id", middleware.RequireCapability(model.CapBillViewDrafts, model.CapBillCreate, model.CapBillApprove), h.GetBill)
		bills.GET("/:id/history", middleware.RequireCapability(model.CapBillViewDrafts, model.CapBillApprove), h.GetHistory)
		bills.GET("/:id/legacy", middleware.RequireCapability(model.CapBillPost, model.CapBillApprove), h.GetLegacyRecord)
		bills.PUT("/:id/transition", middleware.RequireCapability(
			model.CapBillSubmit, model.CapBillApprove, model.CapBillRework, model.CapBillPost), h.Transition)
		bills.PUT("/:id/reading", middleware.RequireCapability(model.CapBillCreate), h.UpdateDraftReading)
		bills.PUT("/:id/payment", middleware.RequireCapability(model.CapBillPost), h.ApplyPayment)
		bills.POST("/recalculate", middleware.RequireCapability(model.CapBillManageAll), h.Recalculate)
	}
}

// GenerateBill runs the billing pipeline for one meter and period
// @Summary      Generate bill
// @Description  Resolves the tariff, computes charges, ages prior debt and creates a DRAFT bill
// @Tags         bills
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.GenerateBillRequest  true  "Generate Bill Payload"
// @Success      201      {object}  response.Response{data=model.Bill}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/bills [post]
func (h *BillHandler) GenerateBill(c *gin.Context) {
	var req service.GenerateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	bill, err := h.billService.GenerateBill(c.Request.Context(), req, middleware.ActorID(c), middleware.CapabilitiesFrom(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, bill))
}

// ListBills returns a paginated list of bills, optionally filtered
// @Summary      List bills
// @Description  Retrieves a paginated list of bills filtered by status, period or meter
// @Tags         bills
// @Security     BearerAuth
// @Produce      json
// @Param        status      query     string  false  "Filter by bill status (DRAFT, PENDING, APPROVED, POSTED, REWORK, REJECTED)"
// @Param        month_year  query     string  false  "Filter by billing period (YYYY-MM)"
// @Param        meter_id    query     string  false  "Filter by meter ID"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Success      200         {object}  response.Response{data=object}
// @Failure      500         {object}  response.Response
// @Router       /api/bills [get]
func (h *BillHandler) ListBills(c *gin.Context) {
	params := pagination.Parse(c)

	filter := repository.BillListFilter{
		Status:    c.Query("status"),
		MonthYear: c.Query("month_year"),
		Page:      params.Page,
		Limit:     params.Limit,
	}
	if raw := c.Query("meter_id"); raw != "" {
		meterID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid meter_id"))
			return
		}
		filter.MeterID = &meterID
	}

	bills, total, err := h.billService.ListBills(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"bills": bills,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetBill returns one bill with its meter, customer and tariff loaded
// @Summary      Get bill
// @Tags         bills
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Bill ID"
// @Success      200  {object}  response.Response{data=model.Bill}
// @Failure      404  {object}  response.Response
// @Router       /api/bills/{id} [get]
func (h *BillHandler) GetBill(c *gin.Context) {
	bill, err := h.billService.GetBill(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, bill))
}

// GetHistory returns the transition history of a bill, oldest first
// @Summary      Get bill history
// @Tags         bills
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Bill ID"
// @Success      200  {object}  response.Response{data=[]model.BillHistory}
// @Failure      404  {object}  response.Response
// @Router       /api/bills/{id}/history [get]
func (h *BillHandler) GetHistory(c *gin.Context) {
	history, err := h.billService.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, history))
}

// GetLegacyRecord exports a bill in the downstream accounting format
// @Summary      Export legacy bill record
// @Description  Returns the bill as the flat all-caps record expected by the downstream accounting system
// @Tags         bills
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Bill ID"
// @Success      200  {object}  service.LegacyBillRecord
// @Failure      404  {object}  response.Response
// @Router       /api/bills/{id}/legacy [get]
func (h *BillHandler) GetLegacyRecord(c *gin.Context) {
	record, err := h.billService.GetLegacyRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	// Raw record, no envelope: the downstream consumer expects the flat shape
	c.JSON(http.StatusOK, record)
}

// Transition advances a bill through its lifecycle
// @Summary      Transition bill
// @Description  Applies a lifecycle action (submit, approve, send_back, reject, resume, post) to a bill
// @Tags         bills
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "Bill ID"
// @Param        payload  body      service.TransitionRequest  true  "Transition Payload"
// @Success      200      {object}  response.Response{data=service.TransitionResult}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/bills/{id}/transition [put]
func (h *BillHandler) Transition(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.billService.Transition(c.Request.Context(), c.Param("id"), req, middleware.ActorID(c), middleware.CapabilitiesFrom(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateDraftReading corrects the reading on a DRAFT bill and recomputes it
// @Summary      Update draft reading
// @Tags         bills
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Bill ID"
// @Param        payload  body      service.UpdateDraftReadingRequest  true  "Reading Payload"
// @Success      200      {object}  response.Response{data=model.Bill}
// @Failure      400      {object}  response.Response
// @Router       /api/bills/{id}/reading [put]
func (h *BillHandler) UpdateDraftReading(c *gin.Context) {
	var req service.UpdateDraftReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	bill, err := h.billService.UpdateDraftReading(c.Request.Context(), c.Param("id"), req, middleware.ActorID(c), middleware.CapabilitiesFrom(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, bill))
}

// ApplyPayment records a payment against a POSTED bill
// @Summary      Apply payment
// @Tags         bills
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Bill ID"
// @Param        payload  body      service.ApplyPaymentRequest  true  "Payment Payload"
// @Success      200      {object}  response.Response{data=model.Bill}
// @Failure      400      {object}  response.Response
// @Router       /api/bills/{id}/payment [put]
func (h *BillHandler) ApplyPayment(c *gin.Context) {
	var req service.ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	bill, err := h.billService.ApplyPayment(c.Request.Context(), c.Param("id"), req, middleware.ActorID(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, bill))
}

// Recalculate re-runs aging and penalty across every unpaid bill
// @Summary      Recalculate unpaid bills
// @Description  Re-applies debt aging and penalty to all bills with an unpaid balance
// @Tags         bills
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/bills/recalculate [post]
func (h *BillHandler) Recalculate(c *gin.Context) {
	count, err := h.billService.RecalculateUnpaid(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{"recalculated": count}))
}
