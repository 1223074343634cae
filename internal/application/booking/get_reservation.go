package booking

import (
	"context"

	"github.com/xiebiao/hotelbooking/internal/domain/reservation"
	apperrors "github.com/xiebiao/hotelbooking/pkg/errors"
)

// GetReservationUseCase 查询预订详情用例
type GetReservationUseCase struct {
	reservationRepo reservation.Repository
}

// NewGetReservationUseCase 创建查询预订详情用例
func NewGetReservationUseCase(reservationRepo reservation.Repository) *GetReservationUseCase {
	return &GetReservationUseCase{reservationRepo: reservationRepo}
}

// ReservationDetail 预订详情DTO
type ReservationDetail struct {
	Reference  string `json:"reference"`
	ProductID  uint   `json:"product_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out,omitempty"`
	Quantity   int    `json:"quantity"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	GuestPhone string `json:"guest_phone,omitempty"`
	TotalPrice int64  `json:"total_price"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// Execute 根据预订号查询详情
// 权限:只有预订单所有者能查看(防止预订号被遍历窥探他人行程)
func (uc *GetReservationUseCase) Execute(ctx context.Context, reference string, userID uint) (*ReservationDetail, error) {
	rsv, err := uc.reservationRepo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	if !rsv.IsOwnedBy(userID) {
		return nil, apperrors.ErrForbidden
	}

	return toDetail(rsv), nil
}

// toDetail 领域实体 → 详情DTO
func toDetail(rsv *reservation.Reservation) *ReservationDetail {
	d := &ReservationDetail{
		Reference:  rsv.Reference,
		ProductID:  rsv.ProductID,
		CheckIn:    rsv.CheckIn.Format("2006-01-02"),
		Quantity:   rsv.Quantity,
		GuestName:  rsv.GuestName,
		GuestEmail: rsv.GuestEmail,
		GuestPhone: rsv.GuestPhone,
		TotalPrice: rsv.TotalPrice,
		Currency:   rsv.Currency,
		Status:     rsv.Status.String(),
		CreatedAt:  rsv.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if rsv.CheckOut != nil {
		d.CheckOut = rsv.CheckOut.Format("2006-01-02")
	}
	return d
}
