package inventory

import (
	"context"
	"time"

	"github.com/xiebiao/hotelbooking/internal/domain/inventory"
	"github.com/xiebiao/hotelbooking/internal/domain/product"
)

// CheckAvailabilityUseCase 可用性查询用例
// 设计说明:
// 1. 纯读路径,不产生任何变更,不需要事务
// 2. 结果只是当时的快照:查询说"可订"不代表下单一定成功,
//    真正的裁决发生在下单时的原子扣减
type CheckAvailabilityUseCase struct {
	inventoryService inventory.Service
	productRepo      product.Repository
}

// NewCheckAvailabilityUseCase 创建可用性查询用例
func NewCheckAvailabilityUseCase(
	inventoryService inventory.Service,
	productRepo product.Repository,
) *CheckAvailabilityUseCase {
	return &CheckAvailabilityUseCase{
		inventoryService: inventoryService,
		productRepo:      productRepo,
	}
}

// CheckAvailabilityRequest 可用性查询请求DTO
type CheckAvailabilityRequest struct {
	ProductID uint
	CheckIn   time.Time
	CheckOut  *time.Time // 客房必填,活动传nil
	Quantity  int
}

// CheckAvailabilityResponse 可用性查询响应DTO
type CheckAvailabilityResponse struct {
	ProductID uint   `json:"product_id"`
	Available bool   `json:"available"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Execute 执行可用性查询
func (uc *CheckAvailabilityUseCase) Execute(ctx context.Context, req CheckAvailabilityRequest) (*CheckAvailabilityResponse, error) {
	// 产品类型从产品上取,决定日期语义
	prod, err := uc.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	available, err := uc.inventoryService.IsAvailableForStay(ctx, req.ProductID,
		prod.Type, req.CheckIn, req.CheckOut, req.Quantity)
	if err != nil {
		return nil, err
	}

	resp := &CheckAvailabilityResponse{
		ProductID: req.ProductID,
		Available: available,
		CheckIn:   req.CheckIn.Format("2006-01-02"),
		Quantity:  req.Quantity,
	}
	if req.CheckOut != nil {
		resp.CheckOut = req.CheckOut.Format("2006-01-02")
	}
	return resp, nil
}
