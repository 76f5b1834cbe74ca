package handler

import (
	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/bitfantasy/nimo-wms/internal/wms/service"
	"github.com/gin-gonic/gin"
)

type SKUHandler struct {
	svc *service.SKUService
}

func NewSKUHandler(svc *service.SKUService) *SKUHandler {
	return &SKUHandler{svc: svc}
}

// Create POST /api/v1/skus
func (h *SKUHandler) Create(c *gin.Context) {
	var input service.CreateSKUInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	sku, err := h.svc.CreateSKU(c.Request.Context(), &input, GetUserID(c))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, sku)
}

// List GET /api/v1/skus
func (h *SKUHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.SKUListParams{
		Kind:    entity.Kind(c.Query("kind")),
		Keyword: c.Query("keyword"),
		Page:    page,
		Size:    pageSize,
	}
	if active := c.Query("active"); active != "" {
		v := active == "true"
		params.Active = &v
	}
	skus, total, err := h.svc.ListSKUs(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取SKU列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": skus, "total": total, "page": page, "page_size": pageSize})
}

// Get GET /api/v1/skus/:id
func (h *SKUHandler) Get(c *gin.Context) {
	sku, err := h.svc.GetSKU(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, sku)
}

// Update PUT /api/v1/skus/:id
func (h *SKUHandler) Update(c *gin.Context) {
	var input service.UpdateSKUInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	sku, err := h.svc.UpdateSKU(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, sku)
}

// Deactivate DELETE /api/v1/skus/:id （软删除），返回引用情况供评估影响面
func (h *SKUHandler) Deactivate(c *gin.Context) {
	result, err := h.svc.DeactivateSKU(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}
