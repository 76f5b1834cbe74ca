package repository

import (
	"context"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"gorm.io/gorm"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *PurchaseRepository) FindByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.WithContext(ctx).First(&po, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &po, nil
}

func (r *PurchaseRepository) Update(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Save(po).Error
}

type PurchaseListParams struct {
	SKUID  string
	Status string
	Page   int
	Size   int
}

func (r *PurchaseRepository) List(ctx context.Context, params PurchaseListParams) ([]entity.PurchaseOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.PurchaseOrder{})
	if params.SKUID != "" {
		query = query.Where("sku_id = ?", params.SKUID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if params.Page > 0 && params.Size > 0 {
		query = query.Offset((params.Page - 1) * params.Size).Limit(params.Size)
	}

	var orders []entity.PurchaseOrder
	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, total, err
}

// GetOnOrderQty 某SKU在途数量 = Σ(已订-已收)，仅统计OPEN单
func (r *PurchaseRepository) GetOnOrderQty(ctx context.Context, skuID string) (int64, error) {
	var result struct{ Total int64 }
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(quantity_ordered - quantity_received), 0) as total
		FROM purchase_orders
		WHERE sku_id = ? AND status = ?
	`, skuID, entity.POStatusOpen).Scan(&result).Error
	return result.Total, err
}
