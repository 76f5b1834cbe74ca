package repository

import (
	"context"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"gorm.io/gorm"
)

type BOMRepository struct {
	db *gorm.DB
}

func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

// GetComponents 取某父SKU的直接组件边，按声明顺序返回
func (r *BOMRepository) GetComponents(ctx context.Context, parentSKUID string) ([]entity.BOMComponent, error) {
	var comps []entity.BOMComponent
	err := r.db.WithContext(ctx).
		Preload("Component").
		Where("parent_sku_id = ?", parentSKUID).
		Order("sort_order ASC, created_at ASC").
		Find(&comps).Error
	return comps, err
}

// ReplaceComponents 整体替换某父SKU的BOM边集
func (r *BOMRepository) ReplaceComponents(ctx context.Context, parentSKUID string, comps []entity.BOMComponent) error {
	tx := r.db.WithContext(ctx).Begin()
	if err := tx.Where("parent_sku_id = ?", parentSKUID).Delete(&entity.BOMComponent{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if len(comps) > 0 {
		if err := tx.Create(&comps).Error; err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit().Error
}

// ListAllEdges 取全部BOM边（成环校验用）
func (r *BOMRepository) ListAllEdges(ctx context.Context) ([]entity.BOMComponent, error) {
	var edges []entity.BOMComponent
	err := r.db.WithContext(ctx).Find(&edges).Error
	return edges, err
}

// CountReferencing 统计引用某SKU为组件的BOM边数
func (r *BOMRepository) CountReferencing(ctx context.Context, componentSKUID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.BOMComponent{}).
		Where("component_sku_id = ?", componentSKUID).
		Count(&count).Error
	return count, err
}
