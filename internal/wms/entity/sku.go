package entity

import "time"

// Kind SKU类型（封闭集合，创建后不可变更）
type Kind string

const (
	KindRaw       Kind = "RAW"       // 原材料
	KindAssembly  Kind = "ASSEMBLY"  // 组件/半成品
	KindCompleted Kind = "COMPLETED" // 成品/包装品
)

// Valid 判断是否为已知SKU类型
func (k Kind) Valid() bool {
	switch k {
	case KindRaw, KindAssembly, KindCompleted:
		return true
	}
	return false
}

// BuiltState 返回该类型SKU建成入账的自然库存桶
// RAW→RAW, ASSEMBLY→ASSEMBLED, COMPLETED→COMPLETED
func (k Kind) BuiltState() (StockState, bool) {
	switch k {
	case KindRaw:
		return StateRaw, true
	case KindAssembly:
		return StateAssembled, true
	case KindCompleted:
		return StateCompleted, true
	}
	return "", false
}

// SKU 物料/产品主数据
type SKU struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Code        string    `json:"code" gorm:"size:64;not null;uniqueIndex"` // 统一大写
	Name        string    `json:"name" gorm:"size:128;not null"`
	Kind        Kind      `json:"kind" gorm:"size:16;not null"`
	Category    string    `json:"category,omitempty" gorm:"size:64"`     // 报表分类，引擎不使用
	ProcessTags string    `json:"process_tags,omitempty" gorm:"size:256"` // 工艺标签，报表元数据
	Active      bool      `json:"active" gorm:"not null;default:true"`
	CreatedBy   string    `json:"created_by" gorm:"size:32;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Components []BOMComponent `json:"components,omitempty" gorm:"foreignKey:ParentSKUID"`
}

func (SKU) TableName() string {
	return "skus"
}

// BOMComponent BOM边：父SKU每建成1件需消耗 QuantityPerUnit 件组件SKU
// (parent, component) 对唯一，更新数量即覆盖
type BOMComponent struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	ParentSKUID     string    `json:"parent_sku_id" gorm:"column:parent_sku_id;size:32;not null;uniqueIndex:idx_bom_parent_component,priority:1;index"`
	ComponentSKUID  string    `json:"component_sku_id" gorm:"column:component_sku_id;size:32;not null;uniqueIndex:idx_bom_parent_component,priority:2;index"`
	QuantityPerUnit int64     `json:"quantity_per_unit" gorm:"not null"` // 正整数
	SortOrder       int       `json:"sort_order" gorm:"not null;default:0"` // 扣减按此顺序执行，保证可复现
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Component *SKU `json:"component,omitempty" gorm:"foreignKey:ComponentSKUID"`
}

func (BOMComponent) TableName() string {
	return "bom_components"
}
