package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	appinventory "github.com/xiebiao/hotelbooking/internal/application/inventory"
	"github.com/xiebiao/hotelbooking/internal/interface/http/dto"
	"github.com/xiebiao/hotelbooking/pkg/response"
)

// dateLayout 所有接口统一的日期格式
const dateLayout = "2006-01-02"

// InventoryHandler 库存HTTP处理器
type InventoryHandler struct {
	setCapacityUseCase       *appinventory.SetCapacityUseCase
	checkAvailabilityUseCase *appinventory.CheckAvailabilityUseCase
	getCalendarUseCase       *appinventory.GetCalendarUseCase
	listProductsUseCase      *appinventory.ListProductsUseCase
}

// NewInventoryHandler 创建库存处理器
func NewInventoryHandler(
	setCapacityUseCase *appinventory.SetCapacityUseCase,
	checkAvailabilityUseCase *appinventory.CheckAvailabilityUseCase,
	getCalendarUseCase *appinventory.GetCalendarUseCase,
	listProductsUseCase *appinventory.ListProductsUseCase,
) *InventoryHandler {
	return &InventoryHandler{
		setCapacityUseCase:       setCapacityUseCase,
		checkAvailabilityUseCase: checkAvailabilityUseCase,
		getCalendarUseCase:       getCalendarUseCase,
		listProductsUseCase:      listProductsUseCase,
	}
}

// SetCapacity 配置单日库存
// @Summary      配置单日库存
// @Description  运营按天配置产品的容量、价格、可售开关（upsert语义，需要登录）
// @Tags         库存模块
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.SetCapacityRequest true "库存配置"
// @Success      200 {object} response.Response{data=dto.InventoryDayResponse} "配置成功"
// @Failure      400 {object} response.Response "参数错误（如总容量低于已售数量）"
// @Failure      401 {object} response.Response "未登录"
// @Failure      404 {object} response.Response "产品不存在"
// @Router       /inventory/capacity [put]
func (h *InventoryHandler) SetCapacity(c *gin.Context) {
	var req dto.SetCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		response.ErrorWithCode(c, 40900, "日期格式错误,应为2006-01-02")
		return
	}

	// 可售开关缺省为true
	isAvailable := true
	if req.IsAvailable != nil {
		isAvailable = *req.IsAvailable
	}

	result, err := h.setCapacityUseCase.Execute(c.Request.Context(), appinventory.SetCapacityRequest{
		ProductID:     req.ProductID,
		Date:          date,
		TotalQuantity: req.TotalQuantity,
		Price:         req.Price,
		Currency:      req.Currency,
		IsAvailable:   isAvailable,
	})

	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.InventoryDayResponse{
		ProductID:      result.ProductID,
		Date:           result.Date,
		TotalQuantity:  result.TotalQuantity,
		BookedQuantity: result.BookedQuantity,
		Price:          result.Price,
		Currency:       result.Currency,
		IsAvailable:    result.IsAvailable,
	})
}

// ListProducts 酒店产品列表
// @Summary      酒店产品列表
// @Description  列出某酒店下可配置库存的产品（客房/活动，需要登录）
// @Tags         库存模块
// @Produce      json
// @Security     BearerAuth
// @Param        hotel_id path int true "酒店ID"
// @Success      200 {object} response.Response{data=dto.ProductListResponse} "查询成功"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      401 {object} response.Response "未登录"
// @Router       /hotels/{hotel_id}/products [get]
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	hotelID, err := strconv.ParseUint(c.Param("hotel_id"), 10, 32)
	if err != nil {
		response.ErrorWithCode(c, 40900, "酒店ID不合法")
		return
	}

	result, err := h.listProductsUseCase.Execute(c.Request.Context(), uint(hotelID))
	if err != nil {
		response.Error(c, err)
		return
	}

	products := make([]*dto.ProductItemResponse, len(result.Products))
	for i, p := range result.Products {
		products[i] = &dto.ProductItemResponse{
			ID:   p.ID,
			Name: p.Name,
			Type: p.Type,
		}
	}

	response.Success(c, &dto.ProductListResponse{
		HotelID:  result.HotelID,
		Products: products,
	})
}

// CheckAvailability 可用性查询
// @Summary      可用性查询
// @Description  查询某产品在指定日期（客房为区间）是否还能订quantity份。结果只是当时的快照，最终裁决在下单时
// @Tags         库存模块
// @Produce      json
// @Param        product_id query int true "产品ID"
// @Param        check_in query string true "入住日/活动日(2006-01-02)"
// @Param        check_out query string false "离店日(客房必填)"
// @Param        quantity query int true "数量"
// @Success      200 {object} response.Response{data=dto.CheckAvailabilityResponse} "查询成功"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      404 {object} response.Response "产品不存在"
// @Router       /availability [get]
func (h *InventoryHandler) CheckAvailability(c *gin.Context) {
	var req dto.CheckAvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	checkIn, err := time.Parse(dateLayout, req.CheckIn)
	if err != nil {
		response.ErrorWithCode(c, 40900, "check_in格式错误,应为2006-01-02")
		return
	}

	var checkOut *time.Time
	if req.CheckOut != "" {
		out, err := time.Parse(dateLayout, req.CheckOut)
		if err != nil {
			response.ErrorWithCode(c, 40900, "check_out格式错误,应为2006-01-02")
			return
		}
		checkOut = &out
	}

	result, err := h.checkAvailabilityUseCase.Execute(c.Request.Context(), appinventory.CheckAvailabilityRequest{
		ProductID: req.ProductID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Quantity:  req.Quantity,
	})

	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.CheckAvailabilityResponse{
		ProductID: result.ProductID,
		Available: result.Available,
		CheckIn:   result.CheckIn,
		CheckOut:  result.CheckOut,
		Quantity:  result.Quantity,
	})
}

// GetCalendar 库存日历
// @Summary      库存日历
// @Description  查询[from, to)区间的逐日余量和价格（未配置的日期缺席于结果）
// @Tags         库存模块
// @Produce      json
// @Param        id path int true "产品ID"
// @Param        from query string true "起始日(含,2006-01-02)"
// @Param        to query string true "结束日(不含)"
// @Success      200 {object} response.Response{data=dto.CalendarResponse} "查询成功"
// @Failure      400 {object} response.Response "参数错误"
// @Router       /products/{id}/calendar [get]
func (h *InventoryHandler) GetCalendar(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithCode(c, 40900, "产品ID不合法")
		return
	}

	var req dto.GetCalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	from, err := time.Parse(dateLayout, req.From)
	if err != nil {
		response.ErrorWithCode(c, 40900, "from格式错误,应为2006-01-02")
		return
	}
	to, err := time.Parse(dateLayout, req.To)
	if err != nil {
		response.ErrorWithCode(c, 40900, "to格式错误,应为2006-01-02")
		return
	}

	result, err := h.getCalendarUseCase.Execute(c.Request.Context(), uint(productID), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	days := make([]*dto.CalendarDayResponse, len(result.Days))
	for i, day := range result.Days {
		days[i] = &dto.CalendarDayResponse{
			Date:              day.Date,
			TotalQuantity:     day.TotalQuantity,
			AvailableQuantity: day.AvailableQuantity,
			Price:             day.Price,
			Currency:          day.Currency,
			IsAvailable:       day.IsAvailable,
		}
	}

	response.Success(c, &dto.CalendarResponse{
		ProductID: result.ProductID,
		From:      result.From,
		To:        result.To,
		Days:      days,
	})
}
