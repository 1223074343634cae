package reservation

import (
	apperrors "github.com/xiebiao/hotelbooking/pkg/errors"
)

// 预订单领域错误定义
var (
	// ErrReservationNotFound 预订单不存在
	ErrReservationNotFound = apperrors.New(apperrors.ErrCodeReservationMissing, "预订单不存在")

	// ErrAlreadyCancelled 预订单已取消(终态,不可重复转换)
	ErrAlreadyCancelled = apperrors.New(apperrors.ErrCodeInvalidStatus, "预订单已取消")

	// ErrReferenceGenerate 预订号生成失败
	ErrReferenceGenerate = apperrors.New(apperrors.ErrCodeInternal, "预订号生成失败")

	// ErrInvalidQuantity 预订数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "预订数量必须大于0")

	// ErrInvalidGuestInfo 入住人信息不完整
	ErrInvalidGuestInfo = apperrors.New(apperrors.ErrCodeInvalidParams, "入住人信息不完整")
)
