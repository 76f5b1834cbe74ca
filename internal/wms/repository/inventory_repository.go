package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// GetQuantity 取 (sku, state) 当前数量，无行即为0
func (r *InventoryRepository) GetQuantity(ctx context.Context, skuID string, state entity.StockState) (int64, error) {
	var entry entity.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("sku_id = ? AND state = ?", skuID, state).
		First(&entry).Error
	if err != nil {
		if translateError(err) == ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	return entry.Quantity, nil
}

// SetQuantity 写绝对数量。归零即删行
func (r *InventoryRepository) SetQuantity(ctx context.Context, skuID string, state entity.StockState, quantity int64) error {
	if quantity == 0 {
		return r.db.WithContext(ctx).
			Where("sku_id = ? AND state = ?", skuID, state).
			Delete(&entity.LedgerEntry{}).Error
	}
	now := time.Now()
	entry := entity.LedgerEntry{
		ID:        uuid.New().String()[:32],
		SKUID:     skuID,
		State:     state,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sku_id"}, {Name: "state"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   quantity,
			"updated_at": now,
		}),
	}).Create(&entry).Error
}

// AddQuantity 对 (sku, state) 行做原子增量（行级read-modify-write），
// 行不存在时以delta为初值创建；允许结果为负。返回更新后的数量
func (r *InventoryRepository) AddQuantity(ctx context.Context, skuID string, state entity.StockState, delta int64) (int64, error) {
	now := time.Now()
	entry := entity.LedgerEntry{
		ID:        uuid.New().String()[:32],
		SKUID:     skuID,
		State:     state,
		Quantity:  delta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sku_id"}, {Name: "state"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + excluded.quantity"),
			"updated_at": now,
		}),
	}).Create(&entry).Error
	if err != nil {
		return 0, err
	}

	result, err := r.GetQuantity(ctx, skuID, state)
	if err != nil {
		return 0, err
	}
	if result == 0 {
		// 归零行等同不存在。删除带quantity=0条件：读取和删除之间
		// 并发落入的增量不能被清理误删
		if err := r.db.WithContext(ctx).
			Where("sku_id = ? AND state = ? AND quantity = 0", skuID, state).
			Delete(&entity.LedgerEntry{}).Error; err != nil {
			return 0, err
		}
	}
	return result, nil
}

// ListBySKU 某SKU全部非零台账行
func (r *InventoryRepository) ListBySKU(ctx context.Context, skuID string) ([]entity.LedgerEntry, error) {
	var entries []entity.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("sku_id = ?", skuID).
		Order("state ASC").
		Find(&entries).Error
	return entries, err
}

type StockListParams struct {
	State entity.StockState
	Page  int
	Size  int
}

// List 台账总览
func (r *InventoryRepository) List(ctx context.Context, params StockListParams) ([]entity.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.LedgerEntry{})
	if params.State != "" {
		query = query.Where("state = ?", params.State)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if params.Page > 0 && params.Size > 0 {
		query = query.Offset((params.Page - 1) * params.Size).Limit(params.Size)
	}

	var entries []entity.LedgerEntry
	err := query.Order("sku_id ASC, state ASC").Find(&entries).Error
	return entries, total, err
}

func (r *InventoryRepository) CreateMovement(ctx context.Context, mv *entity.StockMovement) error {
	return r.db.WithContext(ctx).Create(mv).Error
}

func (r *InventoryRepository) ListMovements(ctx context.Context, skuID string, page, size int) ([]entity.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.StockMovement{})
	if skuID != "" {
		query = query.Where("sku_id = ?", skuID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page > 0 && size > 0 {
		query = query.Offset((page - 1) * size).Limit(size)
	}

	var movements []entity.StockMovement
	err := query.Order("created_at DESC").Find(&movements).Error
	return movements, total, err
}

// HasRows 判断SKU是否存在台账行（硬删保护）
func (r *InventoryRepository) HasRows(ctx context.Context, skuID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.LedgerEntry{}).
		Where("sku_id = ?", skuID).
		Count(&count).Error
	return count > 0, err
}
