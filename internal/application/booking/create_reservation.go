package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/hotelbooking/internal/domain/inventory"
	"github.com/xiebiao/hotelbooking/internal/domain/product"
	"github.com/xiebiao/hotelbooking/internal/domain/reservation"
	"github.com/xiebiao/hotelbooking/internal/infrastructure/payment"
	"github.com/xiebiao/hotelbooking/pkg/metrics"
	"github.com/xiebiao/hotelbooking/pkg/saga"
	"github.com/xiebiao/hotelbooking/pkg/tracing"
)

// CreateReservationUseCase 创建预订用例
// 教学要点:这是整个项目最核心的用例
// 涉及:跨天原子扣减、补偿回滚、外部支付核验、事件发布
type CreateReservationUseCase struct {
	reservationRepo reservation.Repository
	inventoryRepo   inventory.Repository
	productRepo     product.Repository
	verifier        payment.Verifier
	publisher       EventPublisher      // 可为nil(本地开发不发事件)
	cache           CalendarInvalidator // 可为nil
}

// NewCreateReservationUseCase 创建预订用例
func NewCreateReservationUseCase(
	reservationRepo reservation.Repository,
	inventoryRepo inventory.Repository,
	productRepo product.Repository,
	verifier payment.Verifier,
	publisher EventPublisher,
	cache CalendarInvalidator,
) *CreateReservationUseCase {
	return &CreateReservationUseCase{
		reservationRepo: reservationRepo,
		inventoryRepo:   inventoryRepo,
		productRepo:     productRepo,
		verifier:        verifier,
		publisher:       publisher,
		cache:           cache,
	}
}

// CreateReservationRequest 预订请求DTO
type CreateReservationRequest struct {
	OwnerID    uint       // 下单用户ID(从JWT中提取)
	ProductID  uint       // 产品ID
	CheckIn    time.Time  // 入住日/活动日
	CheckOut   *time.Time // 离店日(客房必填,活动传nil)
	Quantity   int        // 间数/名额数
	GuestName  string     // 入住人姓名
	GuestEmail string     // 入住人邮箱
	GuestPhone string     // 入住人电话
	PaymentRef string     // 支付授权凭证号
}

// CreateReservationResponse 预订响应DTO
type CreateReservationResponse struct {
	Reference  string `json:"reference"`
	ProductID  uint   `json:"product_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out,omitempty"`
	Quantity   int    `json:"quantity"`
	TotalPrice int64  `json:"total_price"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// Execute 执行预订用例
// 教学重点:防止超卖的完整流程
//
// 核心问题:跨天库存的原子占用
// 场景:住3晚要同时占用3个日历日的库存,第2天可能恰好被别人抢光
// 错误实现:
//  1. 逐天检查余量 → 都够
//  2. 逐天扣减 → 第2天扣减时已被并发请求抢光,前1天白扣了
//     结果:库存被"半占用",既没成单,余量也丢了
//
// 正确实现:原子扣减 + 补偿回滚(Saga)
//  1. 每天的扣减是一条原子条件UPDATE(检查和变更在同一语句)
//  2. 任何一天扣减失败,已扣减的天逆序回补
//  3. 台账落库是最后一步,失败同样触发全量回补
//  4. 对外只有两种结局:全部占用+成单,或一无所动+报错
func (uc *CreateReservationUseCase) Execute(ctx context.Context, req CreateReservationRequest) (*CreateReservationResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "booking", "CreateReservation")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("product_id", int64(req.ProductID)),
		attribute.Int("quantity", req.Quantity),
	)

	start := time.Now()
	metrics.IncGauge(metrics.BookingsInProgress)
	defer func() {
		metrics.DecGauge(metrics.BookingsInProgress)
		metrics.ObserveHistogram(metrics.BookingCreationDuration, time.Since(start).Seconds())
	}()

	// 1. 参数校验
	if req.Quantity <= 0 {
		return nil, reservation.ErrInvalidQuantity
	}
	if req.GuestName == "" || req.GuestEmail == "" {
		return nil, reservation.ErrInvalidGuestInfo
	}

	// 2. 产品必须存在(产品类型决定日期语义)
	prod, err := uc.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	// 3. 推导占用的日历日集合
	// 客房:半开区间[入住日, 离店日),离店当天不占库存
	// 活动:单日
	days, err := inventory.StayDays(prod.Type, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	// 4. 预检 + 计算总价
	// 教学要点:价格必须取数据库里的当日价格,而非前端传递的价格
	// (防止改价攻击)。预检不加锁,真正的防超卖由步骤6的原子扣减保证,
	// 预检只是让大多数注定失败的请求提前返回友好错误
	totalPrice, currency, err := uc.quoteStay(ctx, req.ProductID, days, req.Quantity)
	if err != nil {
		metrics.IncCounter(metrics.BookingsFailedTotal)
		return nil, err
	}

	// 5. 核验支付授权(外部协作方,在任何扣减之前完成)
	if err := uc.verifier.VerifyAuthorization(ctx, req.PaymentRef, totalPrice, currency); err != nil {
		metrics.IncCounter(metrics.BookingsFailedTotal)
		return nil, err
	}

	// 6. Saga:逐天原子扣减 + 落台账
	// 每天的补偿是等量回补(下限0),最后的落库步骤无需补偿
	// (它是最后一步,失败时只需回补前面的扣减)
	reference := reservation.GenerateReference()
	rsv := reservation.NewReservation(reference, req.ProductID, prod.Type,
		req.CheckIn, req.CheckOut, req.Quantity, req.OwnerID,
		req.GuestName, req.GuestEmail, req.GuestPhone,
		totalPrice, currency, req.PaymentRef)

	sg := saga.NewSaga(30 * time.Second)
	for _, d := range days {
		day := d // 循环变量逃逸到闭包,必须复制
		sg.AddStep(
			"扣减库存 "+day.Format("2006-01-02"),
			func(ctx context.Context) error {
				return uc.inventoryRepo.Debit(ctx, req.ProductID, day, req.Quantity)
			},
			func(ctx context.Context) error {
				return uc.inventoryRepo.Credit(ctx, req.ProductID, day, req.Quantity)
			},
		)
	}
	sg.AddStep("创建预订单", func(ctx context.Context) error {
		return uc.reservationRepo.Create(ctx, rsv)
	}, nil)

	if err := sg.Execute(ctx); err != nil {
		metrics.IncCounter(metrics.BookingsFailedTotal)
		span.RecordError(err)
		// Saga会用%w包装步骤错误,必须用errors.Is判断
		if errors.Is(err, inventory.ErrOverbook) {
			metrics.IncCounter(metrics.OverbookConflictsTotal)
		}
		return nil, err
	}

	metrics.IncCounter(metrics.BookingsCreatedTotal)
	span.SetAttributes(attribute.String("reservation.reference", reference))
	log.Printf("预订创建成功 reference=%s TraceID=%s", reference, tracing.ExtractTraceID(ctx))

	// 7. 事件发布 + 缓存失效(尽力而为,失败不影响已成立的预订)
	uc.afterCommit(ctx, rsv, RoutingKeyReservationConfirmed)

	return toCreateResponse(rsv), nil
}

// quoteStay 校验日期覆盖并计算总价
// 保守策略:区间内任何一天未配置库存或余量不足,直接拒绝
func (uc *CreateReservationUseCase) quoteStay(ctx context.Context, productID uint, days []time.Time, quantity int) (int64, string, error) {
	from := days[0]
	to := days[len(days)-1].AddDate(0, 0, 1)

	configured, err := uc.inventoryRepo.GetRange(ctx, productID, from, to)
	if err != nil {
		return 0, "", err
	}

	// 查到的记录少于占用天数,说明有日期未配置 → 不可预订
	if len(configured) < len(days) {
		return 0, "", inventory.ErrNotAvailable
	}

	var total int64
	currency := configured[0].Currency
	for _, day := range configured {
		if !day.CanSell(quantity) {
			return 0, "", inventory.ErrNotAvailable
		}
		total += day.Price * int64(quantity)
	}

	return total, currency, nil
}

// afterCommit 预订成立后的旁路动作:发事件、失效日历缓存
// 教学要点:这些动作失败只记日志,绝不让已成立的预订回滚
func (uc *CreateReservationUseCase) afterCommit(ctx context.Context, rsv *reservation.Reservation, routingKey string) {
	if uc.publisher != nil {
		event := toReservationEvent(rsv)
		if err := uc.publisher.Publish(routingKey, event); err != nil {
			log.Printf("发布预订事件失败 reference=%s: %v", rsv.Reference, err)
		}
	}

	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, rsv.ProductID); err != nil {
			log.Printf("失效日历缓存失败 product_id=%d: %v", rsv.ProductID, err)
		}
	}
}

// toReservationEvent 领域实体 → 事件载荷
func toReservationEvent(rsv *reservation.Reservation) *ReservationEvent {
	event := &ReservationEvent{
		Reference:   rsv.Reference,
		ProductID:   rsv.ProductID,
		ProductType: int(rsv.ProductType),
		CheckIn:     rsv.CheckIn.Format("2006-01-02"),
		Quantity:    rsv.Quantity,
		OwnerID:     rsv.OwnerID,
		GuestName:   rsv.GuestName,
		GuestEmail:  rsv.GuestEmail,
		GuestPhone:  rsv.GuestPhone,
		TotalPrice:  rsv.TotalPrice,
		Currency:    rsv.Currency,
		Status:      rsv.Status.String(),
		OccurredAt:  time.Now(),
	}
	if rsv.CheckOut != nil {
		event.CheckOut = rsv.CheckOut.Format("2006-01-02")
	}
	return event
}

// toCreateResponse 领域实体 → 响应DTO
func toCreateResponse(rsv *reservation.Reservation) *CreateReservationResponse {
	resp := &CreateReservationResponse{
		Reference:  rsv.Reference,
		ProductID:  rsv.ProductID,
		CheckIn:    rsv.CheckIn.Format("2006-01-02"),
		Quantity:   rsv.Quantity,
		TotalPrice: rsv.TotalPrice,
		Currency:   rsv.Currency,
		Status:     rsv.Status.String(),
		CreatedAt:  rsv.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if rsv.CheckOut != nil {
		resp.CheckOut = rsv.CheckOut.Format("2006-01-02")
	}
	return resp
}
