package reservation

import (
	"time"

	"github.com/xiebiao/hotelbooking/internal/domain/inventory"
	"github.com/xiebiao/hotelbooking/internal/domain/product"
)

// Status 预订单状态
// 教学要点:
// 1. 使用int类型而非string(节省存储空间,便于索引)
// 2. 本设计没有"待支付"状态:支付授权(外部协作方)必须在创建预订
//    之前完成,创建即确认,是唯一的提交点
// 3. 状态机只有一条转换路径: Confirmed → Cancelled(终态)
type Status int

const (
	StatusConfirmed Status = 1 // 已确认
	StatusCancelled Status = 2 // 已取消
)

// String 实现Stringer接口(方便日志输出)
func (s Status) String() string {
	switch s {
	case StatusConfirmed:
		return "已确认"
	case StatusCancelled:
		return "已取消"
	default:
		return "未知状态"
	}
}

// Reservation 预订单实体(聚合根)
// 设计说明:
// 1. Reference是业务主键(对外暴露的预订号),全局唯一
// 2. TotalPrice由调用方在创建前算好(含优惠、税费),
//    台账只做冗余存储,不做任何价格计算(防止改价后历史预订金额变化)
// 3. 预订单永不物理删除(审计凭证),取消只翻转状态
type Reservation struct {
	ID          uint
	Reference   string       // 预订号(业务主键,全局唯一)
	ProductID   uint         // 产品ID
	ProductType product.Type // 产品类型(决定日期语义)
	CheckIn     time.Time    // 入住日/活动日
	CheckOut    *time.Time   // 离店日(客房必填,活动为nil)
	Quantity    int          // 预订数量(间数或名额数)
	OwnerID     uint         // 下单用户ID
	GuestName   string       // 入住人姓名
	GuestEmail  string       // 入住人邮箱
	GuestPhone  string       // 入住人电话
	TotalPrice  int64        // 总金额(分),调用方算好传入
	Currency    string       // 币种
	PaymentRef  string       // 支付授权凭证号(外部支付网关返回)
	Status      Status       // 预订单状态
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewReservation 创建新预订单(工厂方法)
// 教学要点:
// 1. 工厂方法封装创建逻辑,保证实体的有效性
// 2. 初始状态为Confirmed(支付已在外部完成,没有中间状态)
// 3. 日期在入口处归一化,保证与库存记账的日期对齐
func NewReservation(reference string, productID uint, productType product.Type, checkIn time.Time, checkOut *time.Time, quantity int, ownerID uint, guestName, guestEmail, guestPhone string, totalPrice int64, currency, paymentRef string) *Reservation {
	now := time.Now()
	in := inventory.NormalizeDate(checkIn)
	var out *time.Time
	if checkOut != nil {
		o := inventory.NormalizeDate(*checkOut)
		out = &o
	}
	return &Reservation{
		Reference:   reference,
		ProductID:   productID,
		ProductType: productType,
		CheckIn:     in,
		CheckOut:    out,
		Quantity:    quantity,
		OwnerID:     ownerID,
		GuestName:   guestName,
		GuestEmail:  guestEmail,
		GuestPhone:  guestPhone,
		TotalPrice:  totalPrice,
		Currency:    currency,
		PaymentRef:  paymentRef,
		Status:      StatusConfirmed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// StayDays 本预订单占用的日历日集合
// 教学要点:必须与创建时扣减库存用的是同一个推导函数,
// 否则取消时会把库存补错位置
func (r *Reservation) StayDays() ([]time.Time, error) {
	return inventory.StayDays(r.ProductType, r.CheckIn, r.CheckOut)
}

// IsCancelled 是否已取消
func (r *Reservation) IsCancelled() bool {
	return r.Status == StatusCancelled
}

// Cancel 取消预订单(领域行为)
// 状态机:Confirmed → Cancelled是唯一合法转换,Cancelled是终态
// 重复取消直接返回ErrAlreadyCancelled,由调用方决定是否视为幂等成功
func (r *Reservation) Cancel() error {
	if r.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	r.Status = StatusCancelled
	r.UpdatedAt = time.Now()
	return nil
}

// IsOwnedBy 检查预订单是否属于指定用户
func (r *Reservation) IsOwnedBy(userID uint) bool {
	return r.OwnerID == userID
}
