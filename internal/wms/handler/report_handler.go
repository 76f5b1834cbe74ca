package handler

import (
	"github.com/bitfantasy/nimo-wms/internal/wms/service"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// InAssembly GET /api/v1/reports/in-assembly
// 各原材料被锁在已建成上级库存中的数量
func (h *ReportHandler) InAssembly(c *gin.Context) {
	items, err := h.svc.InAssembly(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}
