package service

import "errors"

// 结构性错误：在任何台账写入前拒绝该操作
var (
	ErrSKUNotFound     = errors.New("SKU不存在或已停用")
	ErrSKUCodeExists   = errors.New("SKU编码已存在")
	ErrInvalidCode     = errors.New("SKU编码不合法")
	ErrInvalidKind     = errors.New("SKU类型不合法")
	ErrInvalidState    = errors.New("库存状态不合法")
	ErrInvalidQuantity = errors.New("数量不合法")
	ErrRawHasBOM       = errors.New("原材料SKU不能挂载BOM组件")
	ErrSelfReference   = errors.New("BOM组件不能引用自身")
	ErrCyclicBOM       = errors.New("BOM存在循环引用")
)
