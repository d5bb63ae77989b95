package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type MeterHandler struct {
	meterService service.MeterService
}

func NewMeterHandler(meterService service.MeterService) *MeterHandler {
	return &MeterHandler{meterService: meterService}
}

func (h *MeterHandler) RegisterRoutes(router *gin.RouterGroup) {
	meters := router.Group("/api/meters")
	{
		meters.POST("", middleware.RequireCapability(model.CapStaffManage, model.CapBillCreate), h.RegisterMeter)
		meters.GET("", middleware.RequireRole("admin", "approver", "clerk"), h.ListMeters)
		meters.GET("/:id", middleware.RequireRole("admin", "approver", "clerk"), h.GetMeter)
		meters.GET("/by-key/:key", middleware.RequireRole("admin", "approver", "clerk"), h.GetMeterByKey)
		meters.PUT("/:id", middleware.RequireCapability(model.CapStaffManage, model.CapBillCreate), h.UpdateMeter)
	}
}

// RegisterMeter registers a new metering point
// @Summary      Register meter
// @Tags         meters
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterMeterRequest  true  "Register Meter Payload"
// @Success      201      {object}  response.Response{data=model.Meter}
// @Failure      400      {object}  response.Response
// @Router       /api/meters [post]
func (h *MeterHandler) RegisterMeter(c *gin.Context) {
	var req service.RegisterMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	meter, err := h.meterService.RegisterMeter(c.Request.Context(), req, middleware.ActorID(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, meter))
}

// ListMeters returns meters, optionally filtered by category
// @Summary      List meters
// @Tags         meters
// @Security     BearerAuth
// @Produce      json
// @Param        category  query     string  false  "Filter by category (INDIVIDUAL, BULK)"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      500       {object}  response.Response
// @Router       /api/meters [get]
func (h *MeterHandler) ListMeters(c *gin.Context) {
	params := pagination.Parse(c)

	meters, total, err := h.meterService.ListMeters(c.Request.Context(), c.Query("category"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"meters": meters,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

// GetMeter returns one meter by ID
// @Summary      Get meter
// @Tags         meters
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Meter ID"
// @Success      200  {object}  response.Response{data=model.Meter}
// @Failure      404  {object}  response.Response
// @Router       /api/meters/{id} [get]
func (h *MeterHandler) GetMeter(c *gin.Context) {
	meter, err := h.meterService.GetMeter(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, meter))
}

// GetMeterByKey returns one meter by its customer key number
// @Summary      Get meter by customer key
// @Tags         meters
// @Security     BearerAuth
// @Produce      json
// @Param        key  path      string  true  "Customer key number"
// @Success      200  {object}  response.Response{data=model.Meter}
// @Failure      404  {object}  response.Response
// @Router       /api/meters/by-key/{key} [get]
func (h *MeterHandler) GetMeterByKey(c *gin.Context) {
	meter, err := h.meterService.GetMeterByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, meter))
}

// UpdateMeter updates mutable attributes of a meter
// @Summary      Update meter
// @Tags         meters
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Meter ID"
// @Param        payload  body      service.UpdateMeterRequest  true  "Update Meter Payload"
// @Success      200      {object}  response.Response{data=model.Meter}
// @Failure      400      {object}  response.Response
// @Router       /api/meters/{id} [put]
func (h *MeterHandler) UpdateMeter(c *gin.Context) {
	var req service.UpdateMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	meter, err := h.meterService.UpdateMeter(c.Request.Context(), c.Param("id"), req, middleware.ActorID(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, meter))
}
