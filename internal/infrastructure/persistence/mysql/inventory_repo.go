package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/hotelbooking/internal/domain/inventory"
	"github.com/xiebiao/hotelbooking/internal/domain/product"
	apperrors "github.com/xiebiao/hotelbooking/pkg/errors"
)

// inventoryRepository 库存仓储实现(MySQL)
// 设计说明:
// 1. 实现domain/inventory/repository.go定义的接口
// 2. Debit/Credit使用原子条件UPDATE,检查和变更在一条语句中完成
// 3. 负责domain实体与GORM模型之间的转换
type inventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository 创建库存仓储
func NewInventoryRepository(db *gorm.DB) inventory.Repository {
	return &inventoryRepository{db: db}
}

// SetCapacity 配置单日库存(upsert语义)
// 教学要点:悲观锁upsert
// 1. 这是仓储里唯一的"先读后写"路径,必须在事务里先FOR UPDATE锁行,
//    锁定后查询和更新之间不再有并发Debit的窗口,
//    "容量不能低于已售"的校验在锁内做一次即可,结果不会过期
// 2. 当天还没有记录时直接插入,唯一索引兜底并发的重复配置
func (r *inventoryRepository) SetCapacity(ctx context.Context, day *inventory.InventoryDay) error {
	db := r.getDB(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, "tx", tx)

		existing, err := r.LockDay(txCtx, day.ProductID, day.Date)
		if err != nil {
			if !errors.Is(err, inventory.ErrNoInventory) {
				return err
			}
			// 当天还没有记录,直接插入
			model := toInventoryModel(day)
			if err := tx.Create(model).Error; err != nil {
				// 并发配置同一天:另一个请求先插入了
				if isDuplicateError(err) {
					return inventory.ErrCapacityConflict
				}
				return apperrors.Wrap(err, "创建库存失败")
			}
			day.ID = model.ID
			day.CreatedAt = model.CreatedAt
			day.UpdatedAt = model.UpdatedAt
			return nil
		}

		// 已有记录(行已锁定):总容量不能低于已售数量
		if day.TotalQuantity < existing.BookedQuantity {
			return inventory.ErrCapacityBelowBooked
		}

		// 注意:BookedQuantity不在更新列里,已售数量只能通过Debit/Credit变更
		err = tx.Model(&InventoryDayModel{}).
			Where("product_id = ? AND date = ?", day.ProductID, day.Date).
			Updates(map[string]interface{}{
				"total_quantity": day.TotalQuantity,
				"price":          day.Price,
				"currency":       day.Currency,
				"is_available":   day.IsAvailable,
			}).Error
		if err != nil {
			return apperrors.Wrap(err, "更新库存失败")
		}

		day.ID = existing.ID
		day.BookedQuantity = existing.BookedQuantity
		return nil
	})
}

// GetDay 查询某产品某天的库存
func (r *inventoryRepository) GetDay(ctx context.Context, productID uint, date time.Time) (*inventory.InventoryDay, error) {
	var model InventoryDayModel
	err := r.getDB(ctx).
		Where("product_id = ? AND date = ?", productID, inventory.NormalizeDate(date)).
		First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrNoInventory
		}
		return nil, apperrors.Wrap(err, "查询库存失败")
	}

	return toInventoryEntity(&model), nil
}

// GetRange 查询[from, to)区间内已配置的库存,按日期升序
// 未配置的日期缺席于结果,由调用方判断覆盖是否完整
func (r *inventoryRepository) GetRange(ctx context.Context, productID uint, from, to time.Time) ([]*inventory.InventoryDay, error) {
	var models []InventoryDayModel
	err := r.getDB(ctx).
		Where("product_id = ?", productID).
		Where("date >= ? AND date < ?", inventory.NormalizeDate(from), inventory.NormalizeDate(to)).
		Order("date ASC").
		Find(&models).Error

	if err != nil {
		return nil, apperrors.Wrap(err, "查询库存区间失败")
	}

	days := make([]*inventory.InventoryDay, len(models))
	for i := range models {
		days[i] = toInventoryEntity(&models[i])
	}

	return days, nil
}

// Debit 扣减库存(原子操作)
// UPDATE inventory_days SET booked_quantity = booked_quantity + q
// WHERE product_id = ? AND date = ?
//   AND booked_quantity + q <= total_quantity AND is_available = true
// 教学要点:
// 1. 检查和变更在一条语句中完成,数据库行锁保证并发安全
// 2. RowsAffected == 0时再查一次,区分"没有库存数据"和"余量不足"
// 3. 必须使用getDB(ctx)参与事务
func (r *inventoryRepository) Debit(ctx context.Context, productID uint, date time.Time, quantity int) error {
	db := r.getDB(ctx)
	day := inventory.NormalizeDate(date)

	result := db.Model(&InventoryDayModel{}).
		Where("product_id = ? AND date = ?", productID, day).
		Where("booked_quantity + ? <= total_quantity", quantity). // 防止超卖
		Where("is_available = ?", true).
		Update("booked_quantity", gorm.Expr("booked_quantity + ?", quantity))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "扣减库存失败")
	}

	if result.RowsAffected == 0 {
		// 可能是当天没有库存数据,或者余量不足
		// 再查一次确定原因
		var model InventoryDayModel
		err := db.Where("product_id = ? AND date = ?", productID, day).First(&model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return inventory.ErrNoInventory
			}
			return apperrors.Wrap(err, "查询库存失败")
		}
		// 记录存在,说明是余量不足或当天停售
		return inventory.ErrOverbook
	}

	return nil
}

// Credit 回补库存(原子操作,下限为0)
// UPDATE inventory_days SET booked_quantity = GREATEST(booked_quantity - q, 0)
// 教学要点:
// 1. GREATEST保证已售数量不会变成负数
// 2. 多补的部分静默容忍:取消重试时第二次回补落到0,不报错
// 3. 当天没有库存数据时也静默返回(回补是尽力而为的补偿动作)
func (r *inventoryRepository) Credit(ctx context.Context, productID uint, date time.Time, quantity int) error {
	db := r.getDB(ctx)

	result := db.Model(&InventoryDayModel{}).
		Where("product_id = ? AND date = ?", productID, inventory.NormalizeDate(date)).
		Update("booked_quantity", gorm.Expr("GREATEST(booked_quantity - ?, 0)", quantity))

	if result.Error != nil {
		return apperrors.Wrap(result.Error, "回补库存失败")
	}

	return nil
}

// LockDay 悲观锁查询单日库存(SetCapacity的读-校验-写在它的保护下进行)
func (r *inventoryRepository) LockDay(ctx context.Context, productID uint, date time.Time) (*inventory.InventoryDay, error) {
	var model InventoryDayModel
	// SELECT FOR UPDATE锁定行
	// 教学要点:必须使用getDB(ctx)从context获取事务DB
	db := r.getDB(ctx)
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND date = ?", productID, inventory.NormalizeDate(date)).
		First(&model).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrNoInventory
		}
		return nil, apperrors.Wrap(err, "锁定库存失败")
	}

	return toInventoryEntity(&model), nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toInventoryModel 领域实体 → GORM模型
func toInventoryModel(day *inventory.InventoryDay) *InventoryDayModel {
	return &InventoryDayModel{
		ID:             day.ID,
		ProductID:      day.ProductID,
		Date:           day.Date,
		ProductType:    int(day.ProductType),
		TotalQuantity:  day.TotalQuantity,
		BookedQuantity: day.BookedQuantity,
		Price:          day.Price,
		Currency:       day.Currency,
		IsAvailable:    day.IsAvailable,
	}
}

// toInventoryEntity GORM模型 → 领域实体
func toInventoryEntity(model *InventoryDayModel) *inventory.InventoryDay {
	return &inventory.InventoryDay{
		ID:             model.ID,
		ProductID:      model.ProductID,
		ProductType:    product.Type(model.ProductType),
		Date:           inventory.NormalizeDate(model.Date),
		TotalQuantity:  model.TotalQuantity,
		BookedQuantity: model.BookedQuantity,
		Price:          model.Price,
		Currency:       model.Currency,
		IsAvailable:    model.IsAvailable,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// getDB 从context获取事务DB,如果没有则使用默认DB
// 教学要点:事务传递机制
func (r *inventoryRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db
}
