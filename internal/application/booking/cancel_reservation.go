package booking

import (
	"context"
	"errors"
	"log"

	"github.com/xiebiao/hotelbooking/internal/domain/inventory"
	"github.com/xiebiao/hotelbooking/internal/domain/reservation"
	"github.com/xiebiao/hotelbooking/internal/infrastructure/persistence/mysql"
	apperrors "github.com/xiebiao/hotelbooking/pkg/errors"
	"github.com/xiebiao/hotelbooking/pkg/metrics"
	"github.com/xiebiao/hotelbooking/pkg/tracing"
)

// CancelReservationUseCase 取消预订用例
// 教学要点:取消是创建的精确逆操作
// 创建时扣了哪些天、各扣多少,取消时就按同一推导补回去
type CancelReservationUseCase struct {
	reservationRepo reservation.Repository
	inventoryRepo   inventory.Repository
	txManager       *mysql.TxManager
	publisher       EventPublisher
	cache           CalendarInvalidator
}

// NewCancelReservationUseCase 创建取消预订用例
func NewCancelReservationUseCase(
	reservationRepo reservation.Repository,
	inventoryRepo inventory.Repository,
	txManager *mysql.TxManager,
	publisher EventPublisher,
	cache CalendarInvalidator,
) *CancelReservationUseCase {
	return &CancelReservationUseCase{
		reservationRepo: reservationRepo,
		inventoryRepo:   inventoryRepo,
		txManager:       txManager,
		publisher:       publisher,
		cache:           cache,
	}
}

// CancelReservationRequest 取消请求DTO
type CancelReservationRequest struct {
	Reference string // 预订号
	UserID    uint   // 发起人(从JWT中提取,必须是预订单所有者)
}

// CancelReservationResponse 取消响应DTO
type CancelReservationResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// Execute 执行取消用例
// 教学重点:幂等取消 + 状态翻转和库存回补的原子性
//
// 1. 重复取消不报错:客户端超时重试、用户连点按钮都是常态,
//    第二次取消直接返回当前状态(已取消),不再回补库存
// 2. 预订号不存在同样视为取消成功:重试到达时单子可能已经处理完,
//    对查不到的单报错会把无害的重试变成告警
// 3. 状态翻转和逐天回补在同一个数据库事务中:
//    要么状态变了且库存全补回,要么什么都没发生
// 4. 回补下限为0(GREATEST兜底):即使出现计账异常,
//    已售数量也不会变成负数
func (uc *CancelReservationUseCase) Execute(ctx context.Context, req CancelReservationRequest) (*CancelReservationResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "booking", "CancelReservation")
	defer span.End()

	// 1. 查找预订单
	rsv, err := uc.reservationRepo.FindByReference(ctx, req.Reference)
	if err != nil {
		// 幂等:查不到的预订号当作已经取消,不报错
		if errors.Is(err, reservation.ErrReservationNotFound) {
			return &CancelReservationResponse{
				Reference: req.Reference,
				Status:    reservation.StatusCancelled.String(),
			}, nil
		}
		return nil, err
	}

	// 2. 权限校验:只有预订单所有者能取消
	if !rsv.IsOwnedBy(req.UserID) {
		return nil, apperrors.ErrForbidden
	}

	// 3. 幂等:已取消的单直接返回成功,不重复回补
	if rsv.IsCancelled() {
		return &CancelReservationResponse{
			Reference: rsv.Reference,
			Status:    rsv.Status.String(),
		}, nil
	}

	// 4. 领域行为:状态翻转(Confirmed → Cancelled)
	if err := rsv.Cancel(); err != nil {
		// 并发取消的另一个请求抢先翻转了状态,同样视为幂等成功
		if errors.Is(err, reservation.ErrAlreadyCancelled) {
			return &CancelReservationResponse{
				Reference: rsv.Reference,
				Status:    reservation.StatusCancelled.String(),
			}, nil
		}
		return nil, err
	}

	// 5. 推导创建时占用的日历日(与创建共用同一推导函数)
	days, err := rsv.StayDays()
	if err != nil {
		return nil, err
	}

	// 6. 事务:状态翻转 + 逐天回补,要么全成功要么全回滚
	// UpdateStatus是带状态守卫的条件更新:并发的两个取消请求
	// 只有一个能真正翻转并回补,另一个在这里拿到ErrAlreadyCancelled
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if err := uc.reservationRepo.UpdateStatus(txCtx, rsv); err != nil {
			return err
		}
		for _, day := range days {
			if err := uc.inventoryRepo.Credit(txCtx, rsv.ProductID, day, rsv.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// 并发取消:另一个请求抢先完成了翻转和回补,本次幂等成功
		if errors.Is(err, reservation.ErrAlreadyCancelled) {
			return &CancelReservationResponse{
				Reference: rsv.Reference,
				Status:    reservation.StatusCancelled.String(),
			}, nil
		}
		return nil, err
	}

	metrics.IncCounter(metrics.BookingsCancelledTotal)

	// 7. 事件发布 + 缓存失效(尽力而为)
	uc.afterCancel(ctx, rsv)

	return &CancelReservationResponse{
		Reference: rsv.Reference,
		Status:    rsv.Status.String(),
	}, nil
}

// afterCancel 取消成立后的旁路动作
// 通知失败只记日志,不影响已成立的取消
func (uc *CancelReservationUseCase) afterCancel(ctx context.Context, rsv *reservation.Reservation) {
	if uc.publisher != nil {
		if err := uc.publisher.Publish(RoutingKeyReservationCancelled, toReservationEvent(rsv)); err != nil {
			log.Printf("发布取消事件失败 reference=%s: %v", rsv.Reference, err)
		}
	}
	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, rsv.ProductID); err != nil {
			log.Printf("失效日历缓存失败 product_id=%d: %v", rsv.ProductID, err)
		}
	}
}
