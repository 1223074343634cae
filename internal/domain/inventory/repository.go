package inventory

import (
	"context"
	"time"
)

// Repository 库存仓储接口(依赖倒置原则)
// 教学要点:
// 1. 由domain层定义接口,infrastructure层实现
// 2. Debit/Credit必须是原子操作:检查和变更在一条语句中完成
//    (先SELECT再UPDATE的两段式写法存在竞态窗口,并发下会超卖)
// 3. 支持事务操作(通过context传递事务)
type Repository interface {
	// SetCapacity 配置单日库存(upsert语义)
	// 业务规则:如果记录已存在,且请求的TotalQuantity低于当前BookedQuantity,
	// 必须拒绝并返回ErrCapacityBelowBooked——总容量永远不能低于已售数量
	SetCapacity(ctx context.Context, day *InventoryDay) error

	// GetDay 查询某产品某天的库存
	// 当日未配置库存时返回ErrNoInventory(区别于"数量为0")
	GetDay(ctx context.Context, productID uint, date time.Time) (*InventoryDay, error)

	// GetRange 查询[from, to)区间内已配置的库存,按日期升序
	// 未配置的日期直接缺席于结果,调用方必须把"缺席"理解为
	// "没有库存数据",而不是"数量为0"
	GetRange(ctx context.Context, productID uint, from, to time.Time) ([]*InventoryDay, error)

	// Debit 扣减库存:BookedQuantity += quantity
	// 原子条件更新,扣减后超出TotalQuantity时返回ErrOverbook,
	// 当日未配置库存时返回ErrNoInventory
	Debit(ctx context.Context, productID uint, date time.Time, quantity int) error

	// Credit 回补库存:BookedQuantity -= quantity,下限为0
	// 教学要点:取消操作可能被重试,多补的部分静默容忍(不报错),
	// 已售数量永远不会变成负数
	Credit(ctx context.Context, productID uint, date time.Time, quantity int) error

	// LockDay 悲观锁查询单日库存(SELECT FOR UPDATE)
	// 必须在事务中调用(通过context传递事务)。SetCapacity的
	// 读-校验-写序列靠它锁行,Debit/Credit是单语句原子更新,不需要它
	LockDay(ctx context.Context, productID uint, date time.Time) (*InventoryDay, error)
}
