package repository

import (
	"context"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"gorm.io/gorm"
)

type SKURepository struct {
	db *gorm.DB
}

func NewSKURepository(db *gorm.DB) *SKURepository {
	return &SKURepository{db: db}
}

func (r *SKURepository) DB() *gorm.DB {
	return r.db
}

func (r *SKURepository) Create(ctx context.Context, sku *entity.SKU) error {
	return r.db.WithContext(ctx).Create(sku).Error
}

func (r *SKURepository) FindByID(ctx context.Context, id string) (*entity.SKU, error) {
	var sku entity.SKU
	err := r.db.WithContext(ctx).First(&sku, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &sku, nil
}

func (r *SKURepository) FindByCode(ctx context.Context, code string) (*entity.SKU, error) {
	var sku entity.SKU
	err := r.db.WithContext(ctx).First(&sku, "code = ?", code).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &sku, nil
}

type SKUListParams struct {
	Kind    entity.Kind
	Keyword string
	Active  *bool
	Page    int
	Size    int
}

func (r *SKURepository) List(ctx context.Context, params SKUListParams) ([]entity.SKU, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.SKU{})
	if params.Kind != "" {
		query = query.Where("kind = ?", params.Kind)
	}
	if params.Active != nil {
		query = query.Where("active = ?", *params.Active)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if params.Page > 0 && params.Size > 0 {
		query = query.Offset((params.Page - 1) * params.Size).Limit(params.Size)
	}

	var skus []entity.SKU
	err := query.Order("code ASC").Find(&skus).Error
	return skus, total, err
}

// ListActiveByKinds 按类型列出启用的SKU（Rollup用）
func (r *SKURepository) ListActiveByKinds(ctx context.Context, kinds ...entity.Kind) ([]entity.SKU, error) {
	var skus []entity.SKU
	err := r.db.WithContext(ctx).
		Where("active = ? AND kind IN ?", true, kinds).
		Order("code ASC").
		Find(&skus).Error
	return skus, err
}

func (r *SKURepository) Update(ctx context.Context, sku *entity.SKU) error {
	return r.db.WithContext(ctx).Save(sku).Error
}

// Deactivate 软删除：置 active=false。被BOM或台账引用的SKU永不硬删
func (r *SKURepository) Deactivate(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&entity.SKU{}).
		Where("id = ?", id).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
