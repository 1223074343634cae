package booking

import (
	"context"

	"github.com/xiebiao/hotelbooking/internal/domain/reservation"
)

// ListReservationsUseCase 查询我的预订列表用例
type ListReservationsUseCase struct {
	reservationRepo reservation.Repository
}

// NewListReservationsUseCase 创建预订列表用例
func NewListReservationsUseCase(reservationRepo reservation.Repository) *ListReservationsUseCase {
	return &ListReservationsUseCase{reservationRepo: reservationRepo}
}

// ListReservationsRequest 列表请求DTO
type ListReservationsRequest struct {
	UserID   uint // 从JWT中提取
	Page     int
	PageSize int
}

// ListReservationsResponse 列表响应DTO
type ListReservationsResponse struct {
	Total        int64                `json:"total"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
	Reservations []*ReservationDetail `json:"reservations"`
}

// Execute 分页查询当前用户的预订(最新的在前)
func (uc *ListReservationsUseCase) Execute(ctx context.Context, req ListReservationsRequest) (*ListReservationsResponse, error) {
	// 分页参数兜底
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 10
	}

	reservations, total, err := uc.reservationRepo.ListByOwnerID(ctx, req.UserID, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	details := make([]*ReservationDetail, len(reservations))
	for i, rsv := range reservations {
		details[i] = toDetail(rsv)
	}

	return &ListReservationsResponse{
		Total:        total,
		Page:         req.Page,
		PageSize:     req.PageSize,
		Reservations: details,
	}, nil
}
