package inventory

import (
	apperrors "github.com/xiebiao/hotelbooking/pkg/errors"
)

// 库存领域错误定义
var (
	// ErrNoInventory 当日未配置库存
	// 注意:这是"不可预订",不是系统故障(区别于数据库错误)
	ErrNoInventory = apperrors.New(apperrors.ErrCodeNoInventory, "当日未配置库存")

	// ErrNotAvailable 日期不可预订(预检失败,未发生任何扣减)
	ErrNotAvailable = apperrors.New(apperrors.ErrCodeNotAvailable, "所选日期不可预订")

	// ErrOverbook 扣减阶段检测到并发冲突(本次尝试的扣减已全部回滚)
	ErrOverbook = apperrors.New(apperrors.ErrCodeOverbook, "库存不足,请重新选择日期")

	// ErrCapacityBelowBooked 总容量不能调低到已售数量之下
	// 调用方需要先取消已有预订,再缩减容量
	ErrCapacityBelowBooked = apperrors.New(apperrors.ErrCodeCapacityBelowBooked, "总容量不能低于已售数量")

	// ErrCapacityConflict 并发配置同一天的库存,稍后重试即可
	ErrCapacityConflict = apperrors.New(apperrors.ErrCodeDuplicateEntry, "库存配置冲突,请重试")

	// ErrInvalidProductID 产品ID不合法
	ErrInvalidProductID = apperrors.New(apperrors.ErrCodeInvalidParams, "产品ID不合法")

	// ErrInvalidProductType 产品类型不合法
	ErrInvalidProductType = apperrors.New(apperrors.ErrCodeInvalidParams, "产品类型不合法")

	// ErrInvalidCapacity 容量不能为负数
	ErrInvalidCapacity = apperrors.New(apperrors.ErrCodeInvalidParams, "容量不能为负数")

	// ErrInvalidPrice 价格不能为负数
	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "价格不能为负数")

	// ErrInvalidQuantity 数量必须大于0
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "数量必须大于0")

	// ErrInvalidDateRange 日期区间不合法(离店日必须晚于入住日)
	ErrInvalidDateRange = apperrors.New(apperrors.ErrCodeInvalidParams, "日期区间不合法")

	// ErrQuantityInvariant 已售数量超出总量(数据异常,正常流程不应出现)
	ErrQuantityInvariant = apperrors.New(apperrors.ErrCodeInternal, "库存数据异常:已售数量超出总量")
)
