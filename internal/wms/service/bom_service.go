package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/google/uuid"
)

// maxBOMDepth 展开递归深度上限。合法DAG远达不到该深度，
// 超限说明图被绕过校验写坏，报循环错误而不是耗尽栈
const maxBOMDepth = 32

type BOMService struct {
	skuRepo *repository.SKURepository
	bomRepo *repository.BOMRepository
}

func NewBOMService(skuRepo *repository.SKURepository, bomRepo *repository.BOMRepository) *BOMService {
	return &BOMService{skuRepo: skuRepo, bomRepo: bomRepo}
}

type ComponentInput struct {
	ComponentSKUID  string `json:"component_sku_id" binding:"required"`
	QuantityPerUnit int64  `json:"quantity_per_unit" binding:"required"`
}

// SetBOM 整体替换父SKU的直接组件集。
// 校验：父SKU存在且启用；原材料不能有出边；不能自引用；单件用量为正整数；
// 重复 (parent, component) 对后者覆盖前者；替换后的全图必须仍是DAG
func (s *BOMService) SetBOM(ctx context.Context, parentSKUID string, inputs []ComponentInput) ([]entity.BOMComponent, error) {
	parent, err := s.skuRepo.FindByID(ctx, parentSKUID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSKUNotFound, parentSKUID)
	}
	if parent.Kind == entity.KindRaw && len(inputs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrRawHasBOM, parent.Code)
	}

	// 去重：同一组件出现多次时数量覆盖，保留首次出现的位置
	order := make([]string, 0, len(inputs))
	quantities := make(map[string]int64, len(inputs))
	for _, input := range inputs {
		if input.ComponentSKUID == parentSKUID {
			return nil, fmt.Errorf("%w: %s", ErrSelfReference, parent.Code)
		}
		if input.QuantityPerUnit <= 0 {
			return nil, fmt.Errorf("%w: 单件用量必须为正整数, got %d", ErrInvalidQuantity, input.QuantityPerUnit)
		}
		if _, seen := quantities[input.ComponentSKUID]; !seen {
			order = append(order, input.ComponentSKUID)
		}
		quantities[input.ComponentSKUID] = input.QuantityPerUnit
	}

	now := time.Now()
	comps := make([]entity.BOMComponent, 0, len(order))
	for i, componentID := range order {
		component, err := s.skuRepo.FindByID(ctx, componentID)
		if err != nil || !component.Active {
			return nil, fmt.Errorf("%w: 组件 %s", ErrSKUNotFound, componentID)
		}
		comps = append(comps, entity.BOMComponent{
			ID:              uuid.New().String()[:32],
			ParentSKUID:     parentSKUID,
			ComponentSKUID:  componentID,
			QuantityPerUnit: quantities[componentID],
			SortOrder:       i,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	if err := s.checkAcyclic(ctx, parentSKUID, comps); err != nil {
		return nil, err
	}

	if err := s.bomRepo.ReplaceComponents(ctx, parentSKUID, comps); err != nil {
		return nil, fmt.Errorf("保存BOM失败: %w", err)
	}
	return s.bomRepo.GetComponents(ctx, parentSKUID)
}

// checkAcyclic 替换父SKU出边后的全图成环校验。
// 只有父SKU的出边变化，新环必经过父SKU，检查父SKU可达自身即可
func (s *BOMService) checkAcyclic(ctx context.Context, parentSKUID string, newComps []entity.BOMComponent) error {
	edges, err := s.bomRepo.ListAllEdges(ctx)
	if err != nil {
		return fmt.Errorf("读取BOM边失败: %w", err)
	}

	adjacency := make(map[string][]string)
	for _, edge := range edges {
		if edge.ParentSKUID == parentSKUID {
			continue // 即将被替换的旧边
		}
		adjacency[edge.ParentSKUID] = append(adjacency[edge.ParentSKUID], edge.ComponentSKUID)
	}
	for _, comp := range newComps {
		adjacency[parentSKUID] = append(adjacency[parentSKUID], comp.ComponentSKUID)
	}

	visited := make(map[string]bool)
	var visit func(id string) bool
	visit = func(id string) bool {
		if id == parentSKUID {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		for _, next := range adjacency[id] {
			if visit(next) {
				return true
			}
		}
		return false
	}
	for _, next := range adjacency[parentSKUID] {
		if visit(next) {
			return fmt.Errorf("%w: 经由 %s", ErrCyclicBOM, next)
		}
	}
	return nil
}

// GetBOM 取父SKU的直接组件。未知SKU返回错误，与"无组件"可区分
func (s *BOMService) GetBOM(ctx context.Context, parentSKUID string) ([]entity.BOMComponent, error) {
	if _, err := s.skuRepo.FindByID(ctx, parentSKUID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSKUNotFound, parentSKUID)
	}
	return s.bomRepo.GetComponents(ctx, parentSKUID)
}

// Explode BOM展开：从根SKU按数量逐级相乘展开到原材料叶子，
// 返回 原材料SKUID → 累计需求量。整数精确运算，共享累加表，
// 深度优先递归，不跨调用缓存
func (s *BOMService) Explode(ctx context.Context, rootSKUID string, rootQuantity int64) (map[string]int64, error) {
	acc := make(map[string]int64)
	if err := s.explodeInto(ctx, rootSKUID, rootQuantity, 0, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *BOMService) explodeInto(ctx context.Context, skuID string, quantity int64, depth int, acc map[string]int64) error {
	if depth > maxBOMDepth {
		return fmt.Errorf("%w: 展开深度超过%d", ErrCyclicBOM, maxBOMDepth)
	}

	// 悬空BOM边是数据完整性问题，必须报错而不是静默少算
	sku, err := s.skuRepo.FindByID(ctx, skuID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSKUNotFound, skuID)
	}

	switch sku.Kind {
	case entity.KindRaw:
		acc[sku.ID] += quantity
		return nil
	case entity.KindAssembly, entity.KindCompleted:
		comps, err := s.bomRepo.GetComponents(ctx, sku.ID)
		if err != nil {
			return fmt.Errorf("读取BOM组件失败: %w", err)
		}
		for _, comp := range comps {
			if err := s.explodeInto(ctx, comp.ComponentSKUID, quantity*comp.QuantityPerUnit, depth+1, acc); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s (%s)", ErrInvalidKind, sku.Kind, sku.Code)
	}
}
