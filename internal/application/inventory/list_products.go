package inventory

import (
	"context"

	"github.com/xiebiao/hotelbooking/internal/domain/product"
)

// ListProductsUseCase 酒店产品列表用例(运营后台)
// 运营配置库存前,先列出该酒店下有哪些可配置的产品
// 产品的内容管理在CMS,这里只读类型和名称
type ListProductsUseCase struct {
	productRepo product.Repository
}

// NewListProductsUseCase 创建产品列表用例
func NewListProductsUseCase(productRepo product.Repository) *ListProductsUseCase {
	return &ListProductsUseCase{productRepo: productRepo}
}

// ProductItem 产品条目DTO
type ProductItem struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // 客房 | 活动
}

// ListProductsResponse 产品列表响应DTO
type ListProductsResponse struct {
	HotelID  uint           `json:"hotel_id"`
	Products []*ProductItem `json:"products"`
}

// Execute 查询酒店下的所有产品
func (uc *ListProductsUseCase) Execute(ctx context.Context, hotelID uint) (*ListProductsResponse, error) {
	products, err := uc.productRepo.ListByHotelID(ctx, hotelID)
	if err != nil {
		return nil, err
	}

	items := make([]*ProductItem, len(products))
	for i, p := range products {
		items[i] = &ProductItem{
			ID:   p.ID,
			Name: p.Name,
			Type: p.Type.String(),
		}
	}

	return &ListProductsResponse{
		HotelID:  hotelID,
		Products: items,
	}, nil
}
