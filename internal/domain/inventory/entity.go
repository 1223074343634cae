package inventory

import (
	"time"

	"github.com/xiebiao/hotelbooking/internal/domain/product"
)

// InventoryDay 单日库存实体(聚合根)
//
// 教学要点:
// 1. 库存按"产品×日历日"建模,每个产品每天一行
//    - 客房:一行代表某房型当晚的可售间数
//    - 活动:一行代表某场次当天的可售名额
// 2. 核心不变量: 0 ≤ BookedQuantity ≤ TotalQuantity
//    任何create/cancel操作序列之后都必须成立(包括并发场景)
// 3. "没有记录"和"数量为0"是两种不同的状态:
//    - 没有记录 = 当天未配置库存(不可预订,但也不是售罄)
//    - TotalQuantity=0 = 当天明确配置为0间(售罄展示)
// 4. AvailableQuantity是派生值,永远不落库,查询时现算
//    (落库会引入冗余字段,两个字段不一致时无从仲裁)
type InventoryDay struct {
	ID             uint
	ProductID      uint         // 产品ID(客房房型或活动)
	ProductType    product.Type // 产品类型(冗余存储,避免跨表查询)
	Date           time.Time    // 日历日(不含时间部分,统一UTC零点)
	TotalQuantity  int          // 当日总可售数量
	BookedQuantity int          // 当日已售数量(只能通过Debit/Credit变更)
	Price          int64        // 当日价格(单位:分,1元=100分)
	Currency       string       // 币种(ISO 4217,如CNY)
	IsAvailable    bool         // 可售开关(与数量无关,用于临时下架某天)
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewInventoryDay 创建单日库存(工厂方法)
// 日期会被归一化为UTC零点,保证(ProductID, Date)的唯一性比较稳定
func NewInventoryDay(productID uint, productType product.Type, date time.Time, total int, price int64, currency string, isAvailable bool) *InventoryDay {
	now := time.Now()
	return &InventoryDay{
		ProductID:      productID,
		ProductType:    productType,
		Date:           NormalizeDate(date),
		TotalQuantity:  total,
		BookedQuantity: 0,
		Price:          price,
		Currency:       currency,
		IsAvailable:    isAvailable,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AvailableQuantity 当日剩余可售数量(派生值,不落库)
func (d *InventoryDay) AvailableQuantity() int {
	return d.TotalQuantity - d.BookedQuantity
}

// CanSell 当日能否售出quantity个单位
// 业务规则:
// 1. IsAvailable开关必须打开(运营可临时下架某天)
// 2. 剩余数量必须足够
func (d *InventoryDay) CanSell(quantity int) bool {
	return d.IsAvailable && d.AvailableQuantity() >= quantity
}

// Validate 校验实体
func (d *InventoryDay) Validate() error {
	if d.ProductID == 0 {
		return ErrInvalidProductID
	}
	if !d.ProductType.IsValid() {
		return ErrInvalidProductType
	}
	if d.TotalQuantity < 0 {
		return ErrInvalidCapacity
	}
	if d.BookedQuantity < 0 || d.BookedQuantity > d.TotalQuantity {
		return ErrQuantityInvariant
	}
	if d.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// NormalizeDate 将时间归一化为日历日(UTC零点)
// 教学要点:库存按"日"记账,必须在入口处统一抹掉时间部分,
// 否则2024-06-01 10:00和2024-06-01 22:00会被当成两条不同的库存
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
