package product

import (
	"time"
)

// Type 产品类型
// 教学要点:
// 1. 使用int类型而非string(节省存储空间,便于索引)
// 2. 产品类型决定预订的日期语义:
//    - Room: 按夜售卖,占用[入住日,离店日)的每一天
//    - Event: 按场次售卖,只占用活动当天
type Type int

const (
	TypeRoom  Type = 1 // 客房
	TypeEvent Type = 2 // 活动/场次
)

// String 实现Stringer接口(方便日志输出)
func (t Type) String() string {
	switch t {
	case TypeRoom:
		return "客房"
	case TypeEvent:
		return "活动"
	default:
		return "未知类型"
	}
}

// IsValid 类型是否合法
func (t Type) IsValid() bool {
	return t == TypeRoom || t == TypeEvent
}

// Product 产品实体
// 设计说明:
// 1. 产品的内容管理(房型介绍、图片、优惠文案)由CMS负责,不在本仓库范围内
// 2. 库存/预订模块只依赖两个事实:产品是什么类型、属于哪家酒店
// 3. 因此实体保持最小字段集,只做"类型查询"这一件事
type Product struct {
	ID        uint
	HotelID   uint   // 所属酒店ID
	Name      string // 产品名称(房型名或活动名)
	Type      Type   // 产品类型(决定日期语义)
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRoom 是否为客房类型
func (p *Product) IsRoom() bool {
	return p.Type == TypeRoom
}

// IsEvent 是否为活动类型
func (p *Product) IsEvent() bool {
	return p.Type == TypeEvent
}
