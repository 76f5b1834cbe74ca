package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const inAssemblyCacheKey = "wms:report:in_assembly"

type ReportService struct {
	skuRepo  *repository.SKURepository
	invRepo  *repository.InventoryRepository
	bomSvc   *BOMService
	rdb      *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewReportService(
	skuRepo *repository.SKURepository,
	invRepo *repository.InventoryRepository,
	bomSvc *BOMService,
	rdb *redis.Client,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ReportService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &ReportService{
		skuRepo:  skuRepo,
		invRepo:  invRepo,
		bomSvc:   bomSvc,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// InAssemblyItem 某原材料被锁在已建成上级库存中的数量
type InAssemblyItem struct {
	SKUID    string `json:"sku_id"`
	SKUCode  string `json:"sku_code"`
	SKUName  string `json:"sku_name"`
	Quantity int64  `json:"quantity"`
}

// InAssembly 全量Rollup：对每个有非零建成数量的组件/成品SKU做BOM展开，
// 按原材料合并求和。读路径全量重算，不做增量维护；结果短时缓存
func (s *ReportService) InAssembly(ctx context.Context) ([]InAssemblyItem, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	roots, err := s.skuRepo.ListActiveByKinds(ctx, entity.KindAssembly, entity.KindCompleted)
	if err != nil {
		return nil, err
	}

	locked := make(map[string]int64)
	for _, root := range roots {
		bucket, ok := root.Kind.BuiltState()
		if !ok {
			continue
		}
		quantity, err := s.invRepo.GetQuantity(ctx, root.ID, bucket)
		if err != nil {
			return nil, err
		}
		if quantity == 0 {
			continue
		}
		exploded, err := s.bomSvc.Explode(ctx, root.ID, quantity)
		if err != nil {
			return nil, err
		}
		for rawID, qty := range exploded {
			locked[rawID] += qty
		}
	}

	items := make([]InAssemblyItem, 0, len(locked))
	for rawID, qty := range locked {
		sku, err := s.skuRepo.FindByID(ctx, rawID)
		if err != nil {
			return nil, err
		}
		items = append(items, InAssemblyItem{
			SKUID:    sku.ID,
			SKUCode:  sku.Code,
			SKUName:  sku.Name,
			Quantity: qty,
		})
	}
	// 按编码排序，保证报表输出稳定
	sort.Slice(items, func(i, j int) bool { return items[i].SKUCode < items[j].SKUCode })

	s.toCache(ctx, items)
	return items, nil
}

// Invalidate 台账写入后使缓存失效
func (s *ReportService) Invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, inAssemblyCacheKey).Err(); err != nil {
		s.logger.Warn("清除报表缓存失败", zap.Error(err))
	}
}

func (s *ReportService) fromCache(ctx context.Context) ([]InAssemblyItem, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, inAssemblyCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var items []InAssemblyItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (s *ReportService) toCache(ctx context.Context, items []InAssemblyItem) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, inAssemblyCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("写入报表缓存失败", zap.Error(err))
	}
}
