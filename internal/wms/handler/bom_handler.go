package handler

import (
	"strconv"

	"github.com/bitfantasy/nimo-wms/internal/wms/service"
	"github.com/gin-gonic/gin"
)

type BOMHandler struct {
	svc *service.BOMService
}

func NewBOMHandler(svc *service.BOMService) *BOMHandler {
	return &BOMHandler{svc: svc}
}

type setBOMRequest struct {
	Components []service.ComponentInput `json:"components"`
}

// SetBOM PUT /api/v1/skus/:id/bom 整体替换直接组件集
func (h *BOMHandler) SetBOM(c *gin.Context) {
	var req setBOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	comps, err := h.svc.SetBOM(c.Request.Context(), c.Param("id"), req.Components)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"components": comps})
}

// GetBOM GET /api/v1/skus/:id/bom
func (h *BOMHandler) GetBOM(c *gin.Context) {
	comps, err := h.svc.GetBOM(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"components": comps})
}

// Explode GET /api/v1/skus/:id/bom/explosion?quantity=N
// 展开到原材料叶子，逐级数量相乘
func (h *BOMHandler) Explode(c *gin.Context) {
	quantity := int64(1)
	if q := c.Query("quantity"); q != "" {
		v, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			BadRequest(c, "quantity必须为整数")
			return
		}
		quantity = v
	}
	requirements, err := h.svc.Explode(c.Request.Context(), c.Param("id"), quantity)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"quantity": quantity, "requirements": requirements})
}
