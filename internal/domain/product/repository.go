package product

import (
	"context"
)

// Repository 产品仓储接口
// DDD设计说明:
// 1. 接口定义在domain层(依赖倒置原则),具体实现在infrastructure层
// 2. 预订流程只读产品,不写产品(产品的增删改属于CMS,是外部协作方)
type Repository interface {
	// FindByID 根据ID查找产品
	// 如果不存在,返回errors.ErrProductNotFound
	FindByID(ctx context.Context, id uint) (*Product, error)

	// ListByHotelID 查询某酒店下的所有产品
	// 用于后台展示库存日历时列出可配置的产品
	ListByHotelID(ctx context.Context, hotelID uint) ([]*Product, error)
}
