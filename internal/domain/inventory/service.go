package inventory

import (
	"context"
	"time"

	"github.com/xiebiao/hotelbooking/internal/domain/product"
)

// Service 库存领域服务接口
// 设计说明:
// 1. 领域服务封装跨实体的业务逻辑和业务规则校验
// 2. 可用性查询是纯读路径,不产生任何变更,
//    既用于下单前的预检,也用于前台渲染日历
type Service interface {
	// SetCapacity 配置单日库存(upsert)
	// 业务规则:
	// - 总容量必须>=0
	// - 价格必须>=0
	// - 不能把总容量调低到已售数量之下(Repository保证)
	SetCapacity(ctx context.Context, productID uint, productType product.Type, date time.Time, total int, price int64, currency string, isAvailable bool) (*InventoryDay, error)

	// GetDay 查询某产品某天的库存
	GetDay(ctx context.Context, productID uint, date time.Time) (*InventoryDay, error)

	// GetCalendar 查询[from, to)区间内已配置的库存(日历渲染用)
	GetCalendar(ctx context.Context, productID uint, from, to time.Time) ([]*InventoryDay, error)

	// IsAvailableSingleDay 单日可用性:当日已配置、可售开关打开、余量足够
	IsAvailableSingleDay(ctx context.Context, productID uint, date time.Time, quantity int) (bool, error)

	// IsAvailableForRange 区间可用性(客房语义,半开区间[from, to))
	// 区间内每一天都必须各自满足单日可用性
	IsAvailableForRange(ctx context.Context, productID uint, from, to time.Time, quantity int) (bool, error)

	// IsAvailableForStay 按产品类型推导日期集合后检查可用性
	// 下单预检的统一入口(与Debit/Credit共用StayDays推导)
	IsAvailableForStay(ctx context.Context, productID uint, productType product.Type, checkIn time.Time, checkOut *time.Time, quantity int) (bool, error)
}

// service 领域服务实现
type service struct {
	repo Repository
}

// NewService 创建库存领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// SetCapacity 配置单日库存
func (s *service) SetCapacity(ctx context.Context, productID uint, productType product.Type, date time.Time, total int, price int64, currency string, isAvailable bool) (*InventoryDay, error) {
	day := NewInventoryDay(productID, productType, date, total, price, currency, isAvailable)

	// 1. 实体校验(容量、价格非负等)
	if err := day.Validate(); err != nil {
		return nil, err
	}

	// 2. 持久化(Repository处理"容量低于已售"的拒绝逻辑)
	if err := s.repo.SetCapacity(ctx, day); err != nil {
		return nil, err
	}

	return day, nil
}

// GetDay 查询某产品某天的库存
func (s *service) GetDay(ctx context.Context, productID uint, date time.Time) (*InventoryDay, error) {
	return s.repo.GetDay(ctx, productID, date)
}

// GetCalendar 查询区间内已配置的库存
func (s *service) GetCalendar(ctx context.Context, productID uint, from, to time.Time) ([]*InventoryDay, error) {
	from = NormalizeDate(from)
	to = NormalizeDate(to)
	if !to.After(from) {
		return nil, ErrInvalidDateRange
	}
	return s.repo.GetRange(ctx, productID, from, to)
}

// IsAvailableSingleDay 单日可用性检查
func (s *service) IsAvailableSingleDay(ctx context.Context, productID uint, date time.Time, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, ErrInvalidQuantity
	}

	day, err := s.repo.GetDay(ctx, productID, NormalizeDate(date))
	if err != nil {
		// 未配置库存 = 不可预订(不是系统故障)
		if err == ErrNoInventory {
			return false, nil
		}
		return false, err
	}

	return day.CanSell(quantity), nil
}

// IsAvailableForRange 区间可用性检查(半开区间[from, to))
//
// 教学要点:保守策略
// 1. 区间内只要有一天不满足,整体就不可预订
// 2. 区间内一条库存记录都没有时,结果是"不可预订"而不是"可预订"
//    ——没有数据绝不能被解释成"随便订"。这是有意为之的策略,
//    未配置库存的日期必须先由运营配置容量才能开卖
func (s *service) IsAvailableForRange(ctx context.Context, productID uint, from, to time.Time, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, ErrInvalidQuantity
	}

	from = NormalizeDate(from)
	to = NormalizeDate(to)
	if !to.After(from) {
		return false, ErrInvalidDateRange
	}

	days, err := s.repo.GetRange(ctx, productID, from, to)
	if err != nil {
		return false, err
	}

	// 期望的天数 = 区间长度;查到的记录少于期望,说明有日期未配置
	expected := int(to.Sub(from).Hours() / 24)
	if len(days) < expected {
		return false, nil
	}

	for _, day := range days {
		if !day.CanSell(quantity) {
			return false, nil
		}
	}

	return true, nil
}

// IsAvailableForStay 按产品类型检查可用性(下单预检统一入口)
func (s *service) IsAvailableForStay(ctx context.Context, productID uint, productType product.Type, checkIn time.Time, checkOut *time.Time, quantity int) (bool, error) {
	// 活动:单日检查
	if productType == product.TypeEvent {
		return s.IsAvailableSingleDay(ctx, productID, checkIn, quantity)
	}

	// 客房:区间检查(StayDays负责校验区间合法性)
	days, err := StayDays(productType, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	return s.IsAvailableForRange(ctx, productID, days[0], days[len(days)-1].AddDate(0, 0, 1), quantity)
}
