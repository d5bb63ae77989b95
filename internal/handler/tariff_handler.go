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

type TariffHandler struct {
	tariffService service.TariffService
}

func NewTariffHandler(tariffService service.TariffService) *TariffHandler {
	return &TariffHandler{tariffService: tariffService}
}

func (h *TariffHandler) RegisterRoutes(router *gin.RouterGroup) {
	tariffs := router.Group("/api/tariffs")
	{
		tariffs.POST("", middleware.RequireCapability(model.CapTariffManage), h.CreateTariff)
		tariffs.GET("", middleware.RequireRole("admin", "approver", "clerk"), h.ListTariffs)
		tariffs.GET("/:id", middleware.RequireRole("admin", "approver", "clerk"), h.GetTariff)
		tariffs.PUT("/:id/description", middleware.RequireCapability(model.CapTariffManage), h.UpdateDescription)
	}
}

// CreateTariff creates a new tariff version
// @Summary      Create tariff
// @Description  Creates a new tariff version with consumption bands, fixed fees and VAT settings
// @Tags         tariffs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateTariffRequest  true  "Create Tariff Payload"
// @Success      201      {object}  response.Response{data=model.Tariff}
// @Failure      400      {object}  response.Response
// @Router       /api/tariffs [post]
func (h *TariffHandler) CreateTariff(c *gin.Context) {
	var req service.CreateTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tariff, err := h.tariffService.CreateTariff(c.Request.Context(), req, middleware.ActorID(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tariff))
}

// ListTariffs returns tariff versions, optionally filtered by category
// @Summary      List tariffs
// @Tags         tariffs
// @Security     BearerAuth
// @Produce      json
// @Param        category  query     string  false  "Filter by category (INDIVIDUAL, BULK)"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      500       {object}  response.Response
// @Router       /api/tariffs [get]
func (h *TariffHandler) ListTariffs(c *gin.Context) {
	params := pagination.Parse(c)

	tariffs, total, err := h.tariffService.ListTariffs(c.Request.Context(), c.Query("category"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"tariffs": tariffs,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// GetTariff returns one tariff version with its bands, rents and fees
// @Summary      Get tariff
// @Tags         tariffs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Tariff ID"
// @Success      200  {object}  response.Response{data=model.Tariff}
// @Failure      404  {object}  response.Response
// @Router       /api/tariffs/{id} [get]
func (h *TariffHandler) GetTariff(c *gin.Context) {
	tariff, err := h.tariffService.GetTariff(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tariff))
}

type updateTariffDescriptionRequest struct {
	Description string `json:"description" binding:"required"`
}

// UpdateDescription updates the free-text description of a tariff version.
// Rates and bands stay immutable once a bill references the version.
// @Summary      Update tariff description
// @Tags         tariffs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Tariff ID"
// @Param        payload  body      updateTariffDescriptionRequest  true  "Description Payload"
// @Success      200      {object}  response.Response{data=model.Tariff}
// @Failure      400      {object}  response.Response
// @Router       /api/tariffs/{id}/description [put]
func (h *TariffHandler) UpdateDescription(c *gin.Context) {
	var req updateTariffDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tariff, err := h.tariffService.UpdateDescription(c.Request.Context(), c.Param("id"), req.Description, middleware.ActorID(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tariff))
}
