package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/google/uuid"
)

type SKUService struct {
	skuRepo *repository.SKURepository
	bomRepo *repository.BOMRepository
	invRepo *repository.InventoryRepository
}

func NewSKUService(skuRepo *repository.SKURepository, bomRepo *repository.BOMRepository, invRepo *repository.InventoryRepository) *SKUService {
	return &SKUService{skuRepo: skuRepo, bomRepo: bomRepo, invRepo: invRepo}
}

type CreateSKUInput struct {
	Code        string      `json:"code" binding:"required"`
	Name        string      `json:"name" binding:"required"`
	Kind        entity.Kind `json:"kind" binding:"required"`
	Category    string      `json:"category"`
	ProcessTags string      `json:"process_tags"`
}

type UpdateSKUInput struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	ProcessTags *string `json:"process_tags"`
	Active      *bool   `json:"active"`
}

// NormalizeCode SKU编码统一去空格转大写
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *SKUService) CreateSKU(ctx context.Context, input *CreateSKUInput, createdBy string) (*entity.SKU, error) {
	if !input.Kind.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, input.Kind)
	}
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: 编码不能为空", ErrInvalidCode)
	}
	if existing, err := s.skuRepo.FindByCode(ctx, code); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrSKUCodeExists, code)
	}

	sku := &entity.SKU{
		ID:          uuid.New().String()[:32],
		Code:        code,
		Name:        input.Name,
		Kind:        input.Kind,
		Category:    input.Category,
		ProcessTags: input.ProcessTags,
		Active:      true,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.skuRepo.Create(ctx, sku); err != nil {
		return nil, fmt.Errorf("创建SKU失败: %w", err)
	}
	return sku, nil
}

func (s *SKUService) GetSKU(ctx context.Context, id string) (*entity.SKU, error) {
	sku, err := s.skuRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSKUNotFound, id)
	}
	return sku, nil
}

func (s *SKUService) ListSKUs(ctx context.Context, params repository.SKUListParams) ([]entity.SKU, int64, error) {
	return s.skuRepo.List(ctx, params)
}

// UpdateSKU 更新SKU。Kind创建后不可变更，故不在输入中
func (s *SKUService) UpdateSKU(ctx context.Context, id string, input *UpdateSKUInput) (*entity.SKU, error) {
	sku, err := s.skuRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSKUNotFound, id)
	}
	if input.Name != nil {
		sku.Name = *input.Name
	}
	if input.Category != nil {
		sku.Category = *input.Category
	}
	if input.ProcessTags != nil {
		sku.ProcessTags = *input.ProcessTags
	}
	if input.Active != nil {
		sku.Active = *input.Active
	}
	sku.UpdatedAt = time.Now()
	if err := s.skuRepo.Update(ctx, sku); err != nil {
		return nil, fmt.Errorf("更新SKU失败: %w", err)
	}
	return sku, nil
}

// DeactivationResult 停用结果：SKU当前被引用的情况，供操作员评估影响面
type DeactivationResult struct {
	SKUID      string `json:"sku_id"`
	Code       string `json:"code"`
	UsedInBOMs int64  `json:"used_in_boms"` // 引用该SKU为组件的BOM边数
	HasStock   bool   `json:"has_stock"`    // 是否仍有台账行
}

// DeactivateSKU 停用SKU（软删除）。被BOM边或台账行引用时同样只做停用，
// 永不硬删：历史展开、报表和流水必须继续可读
func (s *SKUService) DeactivateSKU(ctx context.Context, id string) (*DeactivationResult, error) {
	sku, err := s.skuRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSKUNotFound, id)
	}
	if err := s.skuRepo.Deactivate(ctx, id); err != nil {
		return nil, fmt.Errorf("停用SKU失败: %w", err)
	}

	usedIn, err := s.bomRepo.CountReferencing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("统计BOM引用失败: %w", err)
	}
	hasStock, err := s.invRepo.HasRows(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("读取库存失败: %w", err)
	}
	return &DeactivationResult{
		SKUID:      sku.ID,
		Code:       sku.Code,
		UsedInBOMs: usedIn,
		HasStock:   hasStock,
	}, nil
}
