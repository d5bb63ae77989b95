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

type RecycleHandler struct {
	recycleService service.RecycleService
}

func NewRecycleHandler(recycleService service.RecycleService) *RecycleHandler {
	return &RecycleHandler{recycleService: recycleService}
}

func (h *RecycleHandler) RegisterRoutes(router *gin.RouterGroup) {
	recycle := router.Group("/api/recycle-bin")
	{
		recycle.GET("", middleware.RequireCapability(model.CapRecycleDelete, model.CapRecycleRestore), h.ListEntries)
		recycle.POST("/:entityType/:id", middleware.RequireCapability(model.CapRecycleDelete), h.SoftDelete)
		recycle.PUT("/:id/restore", middleware.RequireCapability(model.CapRecycleRestore), h.Restore)
		recycle.DELETE("/:id", middleware.RequireCapability(model.CapRecyclePurge), h.Purge)
	}
}

// ListEntries returns recycle bin entries, optionally filtered by entity type
// @Summary      List recycle bin entries
// @Tags         recycle-bin
// @Security     BearerAuth
// @Produce      json
// @Param        entity_type  query     string  false  "Filter by entity type (staff, branch, customer, bulk_meter, meter, route, fault_code, bill, tariff)"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Failure      500          {object}  response.Response
// @Router       /api/recycle-bin [get]
func (h *RecycleHandler) ListEntries(c *gin.Context) {
	params := pagination.Parse(c)

	entries, total, err := h.recycleService.List(c.Request.Context(), c.Query("entity_type"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}

// SoftDelete moves an entity into the recycle bin
// @Summary      Soft-delete entity
// @Description  Snapshots the entity and soft-deletes the source row in one transaction
// @Tags         recycle-bin
// @Security     BearerAuth
// @Produce      json
// @Param        entityType  path      string  true  "Entity type (staff, branch, customer, bulk_meter, meter, route, fault_code, bill, tariff)"
// @Param        id          path      string  true  "Entity ID"
// @Success      200         {object}  response.Response{data=model.RecycleBinEntry}
// @Failure      404         {object}  response.Response
// @Router       /api/recycle-bin/{entityType}/{id} [post]
func (h *RecycleHandler) SoftDelete(c *gin.Context) {
	entry, err := h.recycleService.SoftDelete(c.Request.Context(),
		c.Param("entityType"), c.Param("id"), middleware.ActorID(c), middleware.CapabilitiesFrom(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// Restore brings a recycled entity back
// @Summary      Restore entity
// @Description  Clears the soft-delete markers on the source row and removes the recycle bin entry
// @Tags         recycle-bin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Recycle bin entry ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/recycle-bin/{id}/restore [put]
func (h *RecycleHandler) Restore(c *gin.Context) {
	err := h.recycleService.Restore(c.Request.Context(), c.Param("id"), middleware.ActorID(c), middleware.CapabilitiesFrom(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"restored": true}))
}

// Purge permanently removes a recycled entity
// @Summary      Purge entity
// @Description  Hard-deletes the source row and the recycle bin entry. Irreversible.
// @Tags         recycle-bin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Recycle bin entry ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/recycle-bin/{id} [delete]
func (h *RecycleHandler) Purge(c *gin.Context) {
	err := h.recycleService.Purge(c.Request.Context(), c.Param("id"), middleware.ActorID(c), middleware.CapabilitiesFrom(c))
	if err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"purged": true}))
}
