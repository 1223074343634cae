package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/hotelbooking/internal/domain/product"
	"github.com/xiebiao/hotelbooking/internal/domain/reservation"
	apperrors "github.com/xiebiao/hotelbooking/pkg/errors"
)

// reservationRepository 预订单仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/reservation/repository.go定义的接口
// 2. 预订号唯一索引兜底:极小概率的预订号碰撞由数据库拒绝
// 3. 负责domain实体与GORM模型之间的转换
type reservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository 创建预订单仓储
func NewReservationRepository(db *gorm.DB) reservation.Repository {
	return &reservationRepository{db: db}
}

// Create 创建预订单
func (r *reservationRepository) Create(ctx context.Context, rsv *reservation.Reservation) error {
	model := toReservationModel(rsv)

	// 教学要点:必须使用getDB(ctx)参与事务
	// 创建预订单和扣减库存在同一事务中,任一失败全部回滚
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return reservation.ErrReferenceGenerate
		}
		return apperrors.Wrap(err, "创建预订单失败")
	}

	rsv.ID = model.ID
	rsv.CreatedAt = model.CreatedAt
	rsv.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByReference 根据预订号查找
func (r *reservationRepository) FindByReference(ctx context.Context, reference string) (*reservation.Reservation, error) {
	var model ReservationModel
	err := r.getDB(ctx).Where("reference = ?", reference).First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, apperrors.Wrap(err, "查询预订单失败")
	}

	return toReservationEntity(&model), nil
}

// UpdateStatus 更新预订单状态(带状态守卫的条件更新)
// 教学要点:
// 1. 只更新status列,不用Save全量更新
//    (全量更新会覆盖其他字段,且无法配合条件守卫)
// 2. WHERE带上前置状态:两个并发的取消请求只有一个能翻转成功,
//    另一个命中0行,返回ErrAlreadyCancelled由调用方按幂等处理
//    (单看RowsAffected无法区分"已是终态"和"记录不存在",
//    但调用方刚按预订号查到过这条记录,0行只可能是状态已翻转)
func (r *reservationRepository) UpdateStatus(ctx context.Context, rsv *reservation.Reservation) error {
	result := r.getDB(ctx).Model(&ReservationModel{}).
		Where("id = ? AND status = ?", rsv.ID, int(reservation.StatusConfirmed)).
		Update("status", int(rsv.Status))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新预订单状态失败")
	}

	if result.RowsAffected == 0 {
		return reservation.ErrAlreadyCancelled
	}

	return nil
}

// ListByOwnerID 查询用户的预订列表(分页,最新的在前)
func (r *reservationRepository) ListByOwnerID(ctx context.Context, ownerID uint, page, pageSize int) ([]*reservation.Reservation, int64, error) {
	var models []ReservationModel
	var total int64

	query := r.getDB(ctx).Model(&ReservationModel{}).Where("owner_id = ?", ownerID)

	// 查询总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询预订总数失败")
	}

	// 分页查询
	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&models).Error

	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询预订列表失败")
	}

	reservations := make([]*reservation.Reservation, len(models))
	for i := range models {
		reservations[i] = toReservationEntity(&models[i])
	}

	return reservations, total, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toReservationModel 领域实体 → GORM模型
func toReservationModel(rsv *reservation.Reservation) *ReservationModel {
	return &ReservationModel{
		ID:          rsv.ID,
		Reference:   rsv.Reference,
		ProductID:   rsv.ProductID,
		ProductType: int(rsv.ProductType),
		CheckIn:     rsv.CheckIn,
		CheckOut:    rsv.CheckOut,
		Quantity:    rsv.Quantity,
		OwnerID:     rsv.OwnerID,
		GuestName:   rsv.GuestName,
		GuestEmail:  rsv.GuestEmail,
		GuestPhone:  rsv.GuestPhone,
		TotalPrice:  rsv.TotalPrice,
		Currency:    rsv.Currency,
		PaymentRef:  rsv.PaymentRef,
		Status:      int(rsv.Status),
	}
}

// toReservationEntity GORM模型 → 领域实体
func toReservationEntity(model *ReservationModel) *reservation.Reservation {
	return &reservation.Reservation{
		ID:          model.ID,
		Reference:   model.Reference,
		ProductID:   model.ProductID,
		ProductType: product.Type(model.ProductType),
		CheckIn:     model.CheckIn,
		CheckOut:    model.CheckOut,
		Quantity:    model.Quantity,
		OwnerID:     model.OwnerID,
		GuestName:   model.GuestName,
		GuestEmail:  model.GuestEmail,
		GuestPhone:  model.GuestPhone,
		TotalPrice:  model.TotalPrice,
		Currency:    model.Currency,
		PaymentRef:  model.PaymentRef,
		Status:      reservation.Status(model.Status),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// getDB 从context获取事务DB,如果没有则使用默认DB
func (r *reservationRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db
}
