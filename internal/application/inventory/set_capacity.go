package inventory

import (
	"context"
	"log"
	"time"

	"github.com/xiebiao/hotelbooking/internal/application/booking"
	"github.com/xiebiao/hotelbooking/internal/domain/inventory"
	"github.com/xiebiao/hotelbooking/internal/domain/product"
)

// SetCapacityUseCase 配置单日库存用例(运营后台)
// 设计说明:
// 1. 运营按天配置产品的容量和价格(upsert语义,重复配置是覆盖)
// 2. 总容量不能调低到已售数量之下(需要先取消已有预订)
// 3. 配置变更后失效该产品的日历缓存
type SetCapacityUseCase struct {
	inventoryService inventory.Service
	productRepo      product.Repository
	cache            booking.CalendarInvalidator // 可为nil
}

// NewSetCapacityUseCase 创建配置库存用例
func NewSetCapacityUseCase(
	inventoryService inventory.Service,
	productRepo product.Repository,
	cache booking.CalendarInvalidator,
) *SetCapacityUseCase {
	return &SetCapacityUseCase{
		inventoryService: inventoryService,
		productRepo:      productRepo,
		cache:            cache,
	}
}

// SetCapacityRequest 配置库存请求DTO
type SetCapacityRequest struct {
	ProductID     uint
	Date          time.Time
	TotalQuantity int
	Price         int64  // 当日价格(分)
	Currency      string // 币种,默认CNY
	IsAvailable   bool   // 可售开关
}

// SetCapacityResponse 配置库存响应DTO
type SetCapacityResponse struct {
	ProductID      uint   `json:"product_id"`
	Date           string `json:"date"`
	TotalQuantity  int    `json:"total_quantity"`
	BookedQuantity int    `json:"booked_quantity"`
	Price          int64  `json:"price"`
	Currency       string `json:"currency"`
	IsAvailable    bool   `json:"is_available"`
}

// Execute 执行配置库存
func (uc *SetCapacityUseCase) Execute(ctx context.Context, req SetCapacityRequest) (*SetCapacityResponse, error) {
	// 1. 产品必须存在(产品类型从产品上取,不信任请求)
	prod, err := uc.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if req.Currency == "" {
		req.Currency = "CNY"
	}

	// 2. 领域服务处理校验和持久化
	day, err := uc.inventoryService.SetCapacity(ctx, req.ProductID, prod.Type,
		req.Date, req.TotalQuantity, req.Price, req.Currency, req.IsAvailable)
	if err != nil {
		return nil, err
	}

	// 3. 失效日历缓存(尽力而为)
	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, req.ProductID); err != nil {
			log.Printf("失效日历缓存失败 product_id=%d: %v", req.ProductID, err)
		}
	}

	return &SetCapacityResponse{
		ProductID:      day.ProductID,
		Date:           day.Date.Format("2006-01-02"),
		TotalQuantity:  day.TotalQuantity,
		BookedQuantity: day.BookedQuantity,
		Price:          day.Price,
		Currency:       day.Currency,
		IsAvailable:    day.IsAvailable,
	}, nil
}
