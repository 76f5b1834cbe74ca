package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	SKU       *SKURepository
	BOM       *BOMRepository
	Inventory *InventoryRepository
	Purchase  *PurchaseRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		SKU:       NewSKURepository(db),
		BOM:       NewBOMRepository(db),
		Inventory: NewInventoryRepository(db),
		Purchase:  NewPurchaseRepository(db),
	}
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
