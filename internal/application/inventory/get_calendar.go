package inventory

import (
	"context"
	"log"
	"time"

	"github.com/xiebiao/hotelbooking/internal/domain/inventory"
)

// CalendarCache 日历缓存接口(读穿透用)
// 生产环境注入Redis实现,单元测试注入假实现,本地开发可为nil
type CalendarCache interface {
	Get(ctx context.Context, productID uint, from, to time.Time) ([]*inventory.InventoryDay, error)
	Set(ctx context.Context, productID uint, from, to time.Time, days []*inventory.InventoryDay) error
}

// GetCalendarUseCase 库存日历查询用例
// 设计说明:
// 1. 日历是前台价格展示的数据源,读多写少,适合短TTL缓存
// 2. 缓存里的余量允许轻微滞后,防超卖由下单时的原子扣减兜底
// 3. 未配置的日期缺席于结果,前端渲染为"不可订",不是"余0"
type GetCalendarUseCase struct {
	inventoryService inventory.Service
	cache            CalendarCache // 可为nil
}

// NewGetCalendarUseCase 创建日历查询用例
func NewGetCalendarUseCase(inventoryService inventory.Service, cache CalendarCache) *GetCalendarUseCase {
	return &GetCalendarUseCase{
		inventoryService: inventoryService,
		cache:            cache,
	}
}

// CalendarDay 日历单日DTO
type CalendarDay struct {
	Date              string `json:"date"`
	TotalQuantity     int    `json:"total_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	Price             int64  `json:"price"`
	Currency          string `json:"currency"`
	IsAvailable       bool   `json:"is_available"`
}

// GetCalendarResponse 日历响应DTO
type GetCalendarResponse struct {
	ProductID uint           `json:"product_id"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Days      []*CalendarDay `json:"days"`
}

// Execute 查询[from, to)区间的库存日历
func (uc *GetCalendarUseCase) Execute(ctx context.Context, productID uint, from, to time.Time) (*GetCalendarResponse, error) {
	from = inventory.NormalizeDate(from)
	to = inventory.NormalizeDate(to)

	// 1. 先查缓存
	if uc.cache != nil {
		if days, err := uc.cache.Get(ctx, productID, from, to); err == nil && days != nil {
			return toCalendarResponse(productID, from, to, days), nil
		}
	}

	// 2. 回源数据库
	days, err := uc.inventoryService.GetCalendar(ctx, productID, from, to)
	if err != nil {
		return nil, err
	}

	// 3. 写缓存(失败只记日志)
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, productID, from, to, days); err != nil {
			log.Printf("写日历缓存失败 product_id=%d: %v", productID, err)
		}
	}

	return toCalendarResponse(productID, from, to, days), nil
}

// toCalendarResponse 领域实体 → 日历DTO
// 教学要点:对外只暴露"剩余可售",不暴露已售明细(商业敏感数据)
func toCalendarResponse(productID uint, from, to time.Time, days []*inventory.InventoryDay) *GetCalendarResponse {
	items := make([]*CalendarDay, len(days))
	for i, day := range days {
		items[i] = &CalendarDay{
			Date:              day.Date.Format("2006-01-02"),
			TotalQuantity:     day.TotalQuantity,
			AvailableQuantity: day.AvailableQuantity(),
			Price:             day.Price,
			Currency:          day.Currency,
			IsAvailable:       day.IsAvailable,
		}
	}
	return &GetCalendarResponse{
		ProductID: productID,
		From:      from.Format("2006-01-02"),
		To:        to.Format("2006-01-02"),
		Days:      items,
	}
}
