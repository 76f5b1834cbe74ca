package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/google/uuid"
)

// PurchaseService 采购单只作为报表的只读输入维护（在途数量）。
// 收货入库由外部采购子系统负责
type PurchaseService struct {
	poRepo  *repository.PurchaseRepository
	skuRepo *repository.SKURepository
}

func NewPurchaseService(poRepo *repository.PurchaseRepository, skuRepo *repository.SKURepository) *PurchaseService {
	return &PurchaseService{poRepo: poRepo, skuRepo: skuRepo}
}

type CreatePurchaseOrderInput struct {
	SKUID        string     `json:"sku_id" binding:"required"`
	Quantity     int64      `json:"quantity" binding:"required"`
	ExpectedDate *time.Time `json:"expected_date"`
	Notes        string     `json:"notes"`
}

func (s *PurchaseService) Create(ctx context.Context, input *CreatePurchaseOrderInput, createdBy string) (*entity.PurchaseOrder, error) {
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: 采购数量必须为正整数", ErrInvalidQuantity)
	}
	sku, err := s.skuRepo.FindByID(ctx, input.SKUID)
	if err != nil || !sku.Active {
		return nil, fmt.Errorf("%w: %s", ErrSKUNotFound, input.SKUID)
	}

	now := time.Now()
	po := &entity.PurchaseOrder{
		ID:              uuid.New().String()[:32],
		OrderCode:       fmt.Sprintf("PO-%s%04d", now.Format("20060102"), now.UnixNano()%10000),
		SKUID:           sku.ID,
		SKUCode:         sku.Code,
		QuantityOrdered: input.Quantity,
		Status:          entity.POStatusOpen,
		ExpectedDate:    input.ExpectedDate,
		Notes:           input.Notes,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.poRepo.Create(ctx, po); err != nil {
		return nil, fmt.Errorf("创建采购单失败: %w", err)
	}
	return po, nil
}

func (s *PurchaseService) List(ctx context.Context, params repository.PurchaseListParams) ([]entity.PurchaseOrder, int64, error) {
	return s.poRepo.List(ctx, params)
}

func (s *PurchaseService) Close(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("采购单不存在: %w", err)
	}
	po.Status = entity.POStatusClosed
	po.UpdatedAt = time.Now()
	if err := s.poRepo.Update(ctx, po); err != nil {
		return nil, fmt.Errorf("关闭采购单失败: %w", err)
	}
	return po, nil
}
