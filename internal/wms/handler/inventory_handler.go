package handler

import (
	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/bitfantasy/nimo-wms/internal/wms/service"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	svc *service.InventoryService
}

func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// List GET /api/v1/inventory
func (h *InventoryHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.StockListParams{
		State: entity.StockState(c.Query("state")),
		Page:  page,
		Size:  pageSize,
	}
	entries, total, err := h.svc.ListStock(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取库存列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": entries, "total": total, "page": page, "page_size": pageSize})
}

// GetBySKU GET /api/v1/inventory/:skuId
func (h *InventoryHandler) GetBySKU(c *gin.Context) {
	view, err := h.svc.GetSKUStock(c.Request.Context(), c.Param("skuId"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, view)
}

type setQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

// SetQuantity PUT /api/v1/inventory/:skuId/:state
// 自然建成桶的正增量触发一级自动扣料；扣料失败在report中逐项返回，
// 父数量写入不回滚（部分成功）
func (h *InventoryHandler) SetQuantity(c *gin.Context) {
	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	result, err := h.svc.SetQuantity(
		c.Request.Context(),
		c.Param("skuId"),
		entity.StockState(c.Param("state")),
		req.Quantity,
		GetUserID(c),
	)
	if err != nil {
		ServiceError(c, err)
		return
	}
	if result.Report.PartialFailure() {
		// 数量已更新，但部分组件自动扣料失败
		c.JSON(200, Response{
			Code:    20001,
			Message: "数量已更新，部分组件自动扣料失败，请手工修正",
			Data:    result,
		})
		return
	}
	Success(c, result)
}

type batchSetRequest struct {
	Entries []service.BatchEntry `json:"entries" binding:"required"`
}

// BatchSet POST /api/v1/inventory/batch 按顺序逐条应用，逐条返回结果
func (h *InventoryHandler) BatchSet(c *gin.Context) {
	var req batchSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	results := h.svc.BatchSetQuantity(c.Request.Context(), req.Entries, GetUserID(c))
	Success(c, gin.H{"results": results})
}

// ListMovements GET /api/v1/inventory/:skuId/movements
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	page, pageSize := GetPagination(c)
	movements, total, err := h.svc.ListMovements(c.Request.Context(), c.Param("skuId"), page, pageSize)
	if err != nil {
		InternalError(c, "获取库存流水失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": movements, "total": total, "page": page, "page_size": pageSize})
}
