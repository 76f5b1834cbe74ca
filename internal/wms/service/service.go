package service

import (
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	SKU       *SKUService
	BOM       *BOMService
	Inventory *InventoryService
	Report    *ReportService
	Purchase  *PurchaseService
}

// NewServices 创建服务集合。rdb可为nil（测试环境），报表缓存自动退化为直算
func NewServices(repos *repository.Repositories, rdb *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *Services {
	bomSvc := NewBOMService(repos.SKU, repos.BOM)
	reportSvc := NewReportService(repos.SKU, repos.Inventory, bomSvc, rdb, cacheTTL, logger)
	return &Services{
		SKU:       NewSKUService(repos.SKU, repos.BOM, repos.Inventory),
		BOM:       bomSvc,
		Inventory: NewInventoryService(repos.SKU, repos.BOM, repos.Inventory, repos.Purchase, reportSvc, logger),
		Report:    reportSvc,
		Purchase:  NewPurchaseService(repos.Purchase, repos.SKU),
	}
}
