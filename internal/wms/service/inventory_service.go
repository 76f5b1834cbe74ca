package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InventoryService struct {
	skuRepo *repository.SKURepository
	bomRepo *repository.BOMRepository
	invRepo *repository.InventoryRepository
	poRepo  *repository.PurchaseRepository
	report  *ReportService
	logger  *zap.Logger
}

func NewInventoryService(
	skuRepo *repository.SKURepository,
	bomRepo *repository.BOMRepository,
	invRepo *repository.InventoryRepository,
	poRepo *repository.PurchaseRepository,
	report *ReportService,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		skuRepo: skuRepo,
		bomRepo: bomRepo,
		invRepo: invRepo,
		poRepo:  poRepo,
		report:  report,
		logger:  logger,
	}
}

// Deduction 一条成功的组件扣减
type Deduction struct {
	ComponentSKUID string            `json:"component_sku_id"`
	ComponentCode  string            `json:"component_code"`
	State          entity.StockState `json:"state"`
	Required       int64             `json:"required"`
	Remaining      int64             `json:"remaining"` // 扣减后数量，可为负（欠账）
}

// DeductionFailure 一条失败的组件扣减。父SKU数量已写入，
// 操作员需按此清单手工修正组件库存
type DeductionFailure struct {
	ComponentSKUID string `json:"component_sku_id"`
	ComponentCode  string `json:"component_code,omitempty"`
	Required       int64  `json:"required"`
	Reason         string `json:"reason"`
}

// DeductionReport 自动扣料结果。Failures非空即部分失败，不回滚
type DeductionReport struct {
	Deductions []Deduction        `json:"deductions"`
	Failures   []DeductionFailure `json:"failures,omitempty"`
}

// PartialFailure 是否存在扣料失败项
func (r *DeductionReport) PartialFailure() bool {
	return len(r.Failures) > 0
}

// QuantityUpdateResult 单格改数结果
type QuantityUpdateResult struct {
	SKUID    string            `json:"sku_id"`
	SKUCode  string            `json:"sku_code"`
	State    entity.StockState `json:"state"`
	Previous int64             `json:"previous"`
	Quantity int64             `json:"quantity"`
	Delta    int64             `json:"delta"`
	Report   *DeductionReport  `json:"report"`
}

// SetQuantity 单格改数：写入绝对数量，若该格是SKU的自然建成桶且数量增加，
// 触发一级自动扣料。扣料失败不回滚父写入，在Report中逐项报告
func (s *InventoryService) SetQuantity(ctx context.Context, skuID string, state entity.StockState, newQuantity int64, userID string) (*QuantityUpdateResult, error) {
	if !state.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, state)
	}
	sku, err := s.skuRepo.FindByID(ctx, skuID)
	if err != nil || !sku.Active {
		return nil, fmt.Errorf("%w: %s", ErrSKUNotFound, skuID)
	}

	previous, err := s.invRepo.GetQuantity(ctx, skuID, state)
	if err != nil {
		return nil, fmt.Errorf("读取库存失败: %w", err)
	}

	result := &QuantityUpdateResult{
		SKUID:    sku.ID,
		SKUCode:  sku.Code,
		State:    state,
		Previous: previous,
		Quantity: newQuantity,
		Delta:    newQuantity - previous,
		Report:   &DeductionReport{Deductions: []Deduction{}},
	}
	if result.Delta == 0 {
		return result, nil
	}

	if err := s.invRepo.SetQuantity(ctx, skuID, state, newQuantity); err != nil {
		return nil, fmt.Errorf("写入库存失败: %w", err)
	}
	s.journal(ctx, sku, state, result.Delta, entity.MoveReasonManualSet, "", userID)

	// 仅自然建成桶的正增量触发扣料；减少和非自然桶只是台账编辑
	builtState, ok := sku.Kind.BuiltState()
	if ok && state == builtState && result.Delta > 0 {
		result.Report = s.consumeComponents(ctx, sku, result.Delta, userID)
	}

	s.report.Invalidate(ctx)
	return result, nil
}

// ApplyBuildDelta 对外暴露的扣料入口：按建成增量扣减直接组件。
// delta≤0 或原材料SKU为空操作，返回空报告
func (s *InventoryService) ApplyBuildDelta(ctx context.Context, skuID string, delta int64, userID string) (*DeductionReport, error) {
	sku, err := s.skuRepo.FindByID(ctx, skuID)
	if err != nil || !sku.Active {
		return nil, fmt.Errorf("%w: %s", ErrSKUNotFound, skuID)
	}
	report := s.consumeComponents(ctx, sku, delta, userID)
	// 任何成功扣减都已写台账，缓存的报表必须失效
	if len(report.Deductions) > 0 || report.PartialFailure() {
		s.report.Invalidate(ctx)
	}
	return report, nil
}

// consumeComponents 一级扣料。只扣直接组件，不递归展开：更深层的消耗
// 在中间件自身建成时已经发生过。各组件按其自身类型的自然桶扣减，
// 允许扣成负数（先用后收的欠账）
func (s *InventoryService) consumeComponents(ctx context.Context, sku *entity.SKU, delta int64, userID string) *DeductionReport {
	report := &DeductionReport{Deductions: []Deduction{}}
	if delta <= 0 || sku.Kind == entity.KindRaw {
		return report
	}

	comps, err := s.bomRepo.GetComponents(ctx, sku.ID)
	if err != nil {
		report.Failures = append(report.Failures, DeductionFailure{
			Reason: fmt.Sprintf("读取BOM组件失败: %v", err),
		})
		return report
	}

	// 按BOM声明顺序扣减，保证结果可复现
	for _, comp := range comps {
		required := delta * comp.QuantityPerUnit

		component, err := s.skuRepo.FindByID(ctx, comp.ComponentSKUID)
		if err != nil {
			report.Failures = append(report.Failures, DeductionFailure{
				ComponentSKUID: comp.ComponentSKUID,
				Required:       required,
				Reason:         "组件SKU不存在",
			})
			continue
		}
		if !component.Active {
			report.Failures = append(report.Failures, DeductionFailure{
				ComponentSKUID: component.ID,
				ComponentCode:  component.Code,
				Required:       required,
				Reason:         "组件SKU已停用",
			})
			continue
		}
		bucket, ok := component.Kind.BuiltState()
		if !ok {
			report.Failures = append(report.Failures, DeductionFailure{
				ComponentSKUID: component.ID,
				ComponentCode:  component.Code,
				Required:       required,
				Reason:         fmt.Sprintf("未知SKU类型: %s", component.Kind),
			})
			continue
		}

		remaining, err := s.invRepo.AddQuantity(ctx, component.ID, bucket, -required)
		if err != nil {
			report.Failures = append(report.Failures, DeductionFailure{
				ComponentSKUID: component.ID,
				ComponentCode:  component.Code,
				Required:       required,
				Reason:         fmt.Sprintf("扣减库存失败: %v", err),
			})
			continue
		}
		s.journal(ctx, component, bucket, -required, entity.MoveReasonBuildConsume, sku.ID, userID)

		report.Deductions = append(report.Deductions, Deduction{
			ComponentSKUID: component.ID,
			ComponentCode:  component.Code,
			State:          bucket,
			Required:       required,
			Remaining:      remaining,
		})
	}

	if report.PartialFailure() {
		s.logger.Warn("自动扣料部分失败",
			zap.String("sku", sku.Code),
			zap.Int64("delta", delta),
			zap.Int("failures", len(report.Failures)),
		)
	}
	return report
}

// BatchEntry 批量改数的一条记录，按顺序独立应用
type BatchEntry struct {
	SKUID    string            `json:"sku_id" binding:"required"`
	State    entity.StockState `json:"state" binding:"required"`
	Quantity int64             `json:"quantity"`
}

// BatchEntryResult 批量改数的单条结果。Error非空表示该条在写入前被拒绝
type BatchEntryResult struct {
	SKUID  string                `json:"sku_id"`
	State  entity.StockState     `json:"state"`
	Result *QuantityUpdateResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// BatchSetQuantity 批量改数：逐条应用，单条结构性错误或部分失败
// 不中断后续条目，结果逐条收集
func (s *InventoryService) BatchSetQuantity(ctx context.Context, entries []BatchEntry, userID string) []BatchEntryResult {
	results := make([]BatchEntryResult, 0, len(entries))
	for _, entry := range entries {
		r := BatchEntryResult{SKUID: entry.SKUID, State: entry.State}
		result, err := s.SetQuantity(ctx, entry.SKUID, entry.State, entry.Quantity, userID)
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Result = result
		}
		results = append(results, r)
	}
	return results
}

// SKUStockView 单SKU库存视图：各桶数量 + 采购在途
type SKUStockView struct {
	SKU     *entity.SKU          `json:"sku"`
	Entries []entity.LedgerEntry `json:"entries"`
	OnOrder int64                `json:"on_order"`
}

func (s *InventoryService) GetSKUStock(ctx context.Context, skuID string) (*SKUStockView, error) {
	sku, err := s.skuRepo.FindByID(ctx, skuID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSKUNotFound, skuID)
	}
	entries, err := s.invRepo.ListBySKU(ctx, skuID)
	if err != nil {
		return nil, fmt.Errorf("读取库存失败: %w", err)
	}
	onOrder, err := s.poRepo.GetOnOrderQty(ctx, skuID)
	if err != nil {
		return nil, fmt.Errorf("读取在途数量失败: %w", err)
	}
	return &SKUStockView{SKU: sku, Entries: entries, OnOrder: onOrder}, nil
}

func (s *InventoryService) ListStock(ctx context.Context, params repository.StockListParams) ([]entity.LedgerEntry, int64, error) {
	return s.invRepo.List(ctx, params)
}

func (s *InventoryService) ListMovements(ctx context.Context, skuID string, page, size int) ([]entity.StockMovement, int64, error) {
	return s.invRepo.ListMovements(ctx, skuID, page, size)
}

// journal 记录库存流水。流水失败只告警不中断主流程
func (s *InventoryService) journal(ctx context.Context, sku *entity.SKU, state entity.StockState, delta int64, reason, parentSKUID, userID string) {
	mv := &entity.StockMovement{
		ID:          uuid.New().String()[:32],
		SKUID:       sku.ID,
		SKUCode:     sku.Code,
		State:       state,
		Delta:       delta,
		Reason:      reason,
		ParentSKUID: parentSKUID,
		CreatedBy:   userID,
		CreatedAt:   time.Now(),
	}
	if err := s.invRepo.CreateMovement(ctx, mv); err != nil {
		s.logger.Warn("写入库存流水失败",
			zap.String("sku", sku.Code),
			zap.String("state", string(state)),
			zap.Error(err),
		)
	}
}
