package booking

import (
	"context"
	"time"
)

// 预订事件路由键
// 通知服务(短信/邮件)按需绑定自己的队列
const (
	RoutingKeyReservationConfirmed = "reservation.confirmed"
	RoutingKeyReservationCancelled = "reservation.cancelled"
)

// EventPublisher 事件发布接口
// 设计说明:应用层只依赖接口,生产环境注入pkg/mq的Publisher,
// 单元测试注入假实现,本地开发可以注入nil(不发事件)
type EventPublisher interface {
	Publish(routingKey string, message interface{}) error
}

// CalendarInvalidator 日历缓存失效接口
// 预订/取消改变了余量,展示用的日历缓存需要主动失效
type CalendarInvalidator interface {
	Invalidate(ctx context.Context, productID uint) error
}

// ReservationEvent 预订事件载荷
// 教学要点:事件里带全量快照,消费方不需要回查数据库
type ReservationEvent struct {
	Reference   string    `json:"reference"`
	ProductID   uint      `json:"product_id"`
	ProductType int       `json:"product_type"`
	CheckIn     string    `json:"check_in"`            // 2006-01-02
	CheckOut    string    `json:"check_out,omitempty"` // 活动预订为空
	Quantity    int       `json:"quantity"`
	OwnerID     uint      `json:"owner_id"`
	GuestName   string    `json:"guest_name"`
	GuestEmail  string    `json:"guest_email"`
	GuestPhone  string    `json:"guest_phone,omitempty"`
	TotalPrice  int64     `json:"total_price"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}
