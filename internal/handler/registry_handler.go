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

// RegistryHandler exposes the intake tables: customers, branches, routes
// and fault codes
type RegistryHandler struct {
	registryService service.RegistryService
}

func NewRegistryHandler(registryService service.RegistryService) *RegistryHandler {
	return &RegistryHandler{registryService: registryService}
}

func (h *RegistryHandler) RegisterRoutes(router *gin.RouterGroup) {
	customers := router.Group("/api/customers")
	{
		customers.POST("", middleware.RequireCapability(model.CapStaffManage, model.CapBillCreate), h.CreateCustomer)
		customers.GET("", middleware.RequireRole("admin", "approver", "clerk"), h.ListCustomers)
	}

	branches := router.Group("/api/branches")
	{
		branches.POST("", middleware.RequireCapability(model.CapStaffManage), h.CreateBranch)
		branches.GET("", middleware.RequireRole("admin", "approver", "clerk"), h.ListBranches)
	}

	routes := router.Group("/api/routes")
	{
		routes.POST("", middleware.RequireCapability(model.CapStaffManage), h.CreateRoute)
		routes.GET("", middleware.RequireRole("admin", "approver", "clerk"), h.ListRoutes)
	}

	faultCodes := router.Group("/api/fault-codes")
	{
		faultCodes.POST("", middleware.RequireCapability(model.CapStaffManage), h.CreateFaultCode)
		faultCodes.GET("", middleware.RequireRole("admin", "approver", "clerk"), h.ListFaultCodes)
	}
}

// CreateCustomer creates a new customer account
// @Summary      Create customer
// @Tags         registry
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCustomerRequest  true  "Create Customer Payload"
// @Success      201      {object}  response.Response{data=model.Customer}
// @Failure      400      {object}  response.Response
// @Router       /api/customers [post]
func (h *RegistryHandler) CreateCustomer(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	customer, err := h.registryService.CreateCustomer(c.Request.Context(), req, middleware.ActorID(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, customer))
}

// ListCustomers returns customers, optionally filtered by branch
// @Summary      List customers
// @Tags         registry
// @Security     BearerAuth
// @Produce      json
// @Param        branch_id  query     string  false  "Filter by branch ID"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=object}
// @Failure      500        {object}  response.Response
// @Router       /api/customers [get]
func (h *RegistryHandler) ListCustomers(c *gin.Context) {
	params := pagination.Parse(c)

	customers, total, err := h.registryService.ListCustomers(c.Request.Context(), c.Query("branch_id"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"customers": customers,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// CreateBranch creates a service branch office
// @Summary      Create branch
// @Tags         registry
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBranchRequest  true  "Create Branch Payload"
// @Success      201      {object}  response.Response{data=model.Branch}
// @Failure      400      {object}  response.Response
// @Router       /api/branches [post]
func (h *RegistryHandler) CreateBranch(c *gin.Context) {
	var req service.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	branch, err := h.registryService.CreateBranch(c.Request.Context(), req, middleware.ActorID(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, branch))
}

// ListBranches returns all branches
// @Summary      List branches
// @Tags         registry
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Branch}
// @Failure      500  {object}  response.Response
// @Router       /api/branches [get]
func (h *RegistryHandler) ListBranches(c *gin.Context) {
	branches, err := h.registryService.ListBranches(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, branches))
}

// CreateRoute creates a meter-reading route
// @Summary      Create route
// @Tags         registry
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRouteRequest  true  "Create Route Payload"
// @Success      201      {object}  response.Response{data=model.Route}
// @Failure      400      {object}  response.Response
// @Router       /api/routes [post]
func (h *RegistryHandler) CreateRoute(c *gin.Context) {
	var req service.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	route, err := h.registryService.CreateRoute(c.Request.Context(), req, middleware.ActorID(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, route))
}

// ListRoutes returns routes, optionally filtered by branch
// @Summary      List routes
// @Tags         registry
// @Security     BearerAuth
// @Produce      json
// @Param        branch_id  query     string  false  "Filter by branch ID"
// @Success      200        {object}  response.Response{data=[]model.Route}
// @Failure      500        {object}  response.Response
// @Router       /api/routes [get]
func (h *RegistryHandler) ListRoutes(c *gin.Context) {
	routes, err := h.registryService.ListRoutes(c.Request.Context(), c.Query("branch_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, routes))
}

// CreateFaultCode creates a meter fault classification code
// @Summary      Create fault code
// @Tags         registry
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateFaultCodeRequest  true  "Create Fault Code Payload"
// @Success      201      {object}  response.Response{data=model.FaultCode}
// @Failure      400      {object}  response.Response
// @Router       /api/fault-codes [post]
func (h *RegistryHandler) CreateFaultCode(c *gin.Context) {
	var req service.CreateFaultCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	code, err := h.registryService.CreateFaultCode(c.Request.Context(), req, middleware.ActorID(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, code))
}

// ListFaultCodes returns all fault codes
// @Summary      List fault codes
// @Tags         registry
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.FaultCode}
// @Failure      500  {object}  response.Response
// @Router       /api/fault-codes [get]
func (h *RegistryHandler) ListFaultCodes(c *gin.Context) {
	codes, err := h.registryService.ListFaultCodes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, codes))
}
