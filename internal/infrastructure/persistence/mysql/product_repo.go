package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/hotelbooking/internal/domain/product"
	apperrors "github.com/xiebiao/hotelbooking/pkg/errors"
)

// productRepository 产品仓储实现(MySQL)
// 设计说明:预订流程只读产品,不提供Create/Update/Delete
// (产品的增删改由CMS系统负责,本服务只消费产品数据)
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建产品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepository{db: db}
}

// FindByID 根据ID查找产品
func (r *productRepository) FindByID(ctx context.Context, id uint) (*product.Product, error) {
	var model ProductModel
	err := r.getDB(ctx).First(&model, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "查询产品失败")
	}

	return toProductEntity(&model), nil
}

// ListByHotelID 查询某酒店下的所有产品
func (r *productRepository) ListByHotelID(ctx context.Context, hotelID uint) ([]*product.Product, error) {
	var models []ProductModel
	err := r.getDB(ctx).
		Where("hotel_id = ?", hotelID).
		Order("id ASC").
		Find(&models).Error

	if err != nil {
		return nil, apperrors.Wrap(err, "查询产品列表失败")
	}

	products := make([]*product.Product, len(models))
	for i := range models {
		products[i] = toProductEntity(&models[i])
	}

	return products, nil
}

// toProductEntity GORM模型 → 领域实体
func toProductEntity(model *ProductModel) *product.Product {
	return &product.Product{
		ID:        model.ID,
		HotelID:   model.HotelID,
		Name:      model.Name,
		Type:      product.Type(model.Type),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// getDB 从context获取事务DB,如果没有则使用默认DB
func (r *productRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value("tx").(*gorm.DB); ok {
		return tx
	}
	return r.db
}
