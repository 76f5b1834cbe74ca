package handler

import (
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/bitfantasy/nimo-wms/internal/wms/service"
	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	svc *service.PurchaseService
}

func NewPurchaseHandler(svc *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{svc: svc}
}

// Create POST /api/v1/purchase-orders
func (h *PurchaseHandler) Create(c *gin.Context) {
	var input service.CreatePurchaseOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	po, err := h.svc.Create(c.Request.Context(), &input, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, po)
}

// List GET /api/v1/purchase-orders
func (h *PurchaseHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.PurchaseListParams{
		SKUID:  c.Query("sku_id"),
		Status: c.Query("status"),
		Page:   page,
		Size:   pageSize,
	}
	orders, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取采购单列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": orders, "total": total, "page": page, "page_size": pageSize})
}

// Close PUT /api/v1/purchase-orders/:id/close
func (h *PurchaseHandler) Close(c *gin.Context) {
	po, err := h.svc.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, po)
}
