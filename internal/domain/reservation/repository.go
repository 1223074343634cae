package reservation

import (
	"context"
)

// Repository 预订单仓储接口(依赖倒置原则)
// 教学要点:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 预订单只在创建时写一次、取消时写一次,
//    每次写入都由处理该请求的线程独占,不存在并发写同一单的场景
// 3. 没有Delete方法:预订单是审计凭证,永不物理删除
type Repository interface {
	// Create 创建预订单
	// 注意:预订号冲突时应返回ErrReferenceGenerate(唯一索引兜底)
	Create(ctx context.Context, r *Reservation) error

	// FindByReference 根据预订号查找
	// 如果不存在,返回ErrReservationNotFound
	FindByReference(ctx context.Context, reference string) (*Reservation, error)

	// UpdateStatus 更新预订单状态(取消时使用)
	// 条件更新:只有当前状态仍为Confirmed时才会翻转,
	// 状态已被并发请求翻转时返回ErrAlreadyCancelled
	UpdateStatus(ctx context.Context, r *Reservation) error

	// ListByOwnerID 查询用户的预订列表,按创建时间降序(最新的在前)
	// 教学要点:支持分页,避免一次性查询大量数据
	ListByOwnerID(ctx context.Context, ownerID uint, page, pageSize int) ([]*Reservation, int64, error)
}
