package entity

import "time"

// StockState 库存桶。是数量的归属桶，不是单件的生命周期状态：
// 同一SKU可同时在多个桶中持有数量
type StockState string

const (
	StateReceived  StockState = "RECEIVED"  // 已收货未投产
	StateRaw       StockState = "RAW"       // 原材料
	StateAssembled StockState = "ASSEMBLED" // 已组装
	StateCompleted StockState = "COMPLETED" // 已完成/已包装
)

// Valid 判断是否为已知库存桶
func (s StockState) Valid() bool {
	switch s {
	case StateReceived, StateRaw, StateAssembled, StateCompleted:
		return true
	}
	return false
}

// LedgerEntry 库存台账行，按 (sku_id, state) 唯一
// 数量为有符号整数：负数表示"先消耗后入账"的欠账，是合法状态不是错误。
// 数量归零的行会被删除，不留死行
type LedgerEntry struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	SKUID     string     `json:"sku_id" gorm:"column:sku_id;size:32;not null;uniqueIndex:idx_ledger_sku_state,priority:1"`
	State     StockState `json:"state" gorm:"size:16;not null;uniqueIndex:idx_ledger_sku_state,priority:2"`
	Quantity  int64      `json:"quantity" gorm:"not null"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (LedgerEntry) TableName() string {
	return "stock_ledger"
}

// 库存变动原因
const (
	MoveReasonManualSet    = "MANUAL_SET"    // 人工改数（单格或批量）
	MoveReasonBuildConsume = "BUILD_CONSUME" // 上级建成自动扣料
)

// StockMovement 库存流水（只追加），正=增加，负=扣减
type StockMovement struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	SKUID       string     `json:"sku_id" gorm:"column:sku_id;size:32;not null;index"`
	SKUCode     string     `json:"sku_code" gorm:"size:64"`
	State       StockState `json:"state" gorm:"size:16;not null"`
	Delta       int64      `json:"delta" gorm:"not null"`
	Reason      string     `json:"reason" gorm:"size:20;not null"`
	ParentSKUID string     `json:"parent_sku_id,omitempty" gorm:"column:parent_sku_id;size:32;index"` // BUILD_CONSUME时记录触发扣料的父SKU
	Notes       string     `json:"notes,omitempty" gorm:"type:text"`
	CreatedBy   string     `json:"created_by" gorm:"size:32;not null"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}

// 采购单状态
const (
	POStatusOpen   = "OPEN"
	POStatusClosed = "CLOSED"
)

// PurchaseOrder 采购单（报表只读输入：在途数量=已订未收）
// 收货本身由外部采购子系统负责，引擎不处理
type PurchaseOrder struct {
	ID               string     `json:"id" gorm:"primaryKey;size:32"`
	OrderCode        string     `json:"order_code" gorm:"size:50;not null;uniqueIndex"`
	SKUID            string     `json:"sku_id" gorm:"column:sku_id;size:32;not null;index"`
	SKUCode          string     `json:"sku_code" gorm:"size:64"`
	QuantityOrdered  int64      `json:"quantity_ordered" gorm:"not null"`
	QuantityReceived int64      `json:"quantity_received" gorm:"not null;default:0"`
	Status           string     `json:"status" gorm:"size:16;not null;default:OPEN"`
	ExpectedDate     *time.Time `json:"expected_date,omitempty"`
	Notes            string     `json:"notes,omitempty" gorm:"type:text"`
	CreatedBy        string     `json:"created_by" gorm:"size:32;not null"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}
