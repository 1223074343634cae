package dto

// SetCapacityRequest 配置单日库存请求(运营后台)
// 日期格式统一为2006-01-02,时区歧义在入口处消灭
type SetCapacityRequest struct {
	ProductID     uint   `json:"product_id" binding:"required"`
	Date          string `json:"date" binding:"required"`
	TotalQuantity int    `json:"total_quantity" binding:"min=0"`
	Price         int64  `json:"price" binding:"min=0"`
	Currency      string `json:"currency" binding:"omitempty,len=3"`
	IsAvailable   *bool  `json:"is_available"` // 缺省为true,指针区分"没传"和"传false"
}

// InventoryDayResponse 单日库存响应
type InventoryDayResponse struct {
	ProductID      uint   `json:"product_id"`
	Date           string `json:"date"`
	TotalQuantity  int    `json:"total_quantity"`
	BookedQuantity int    `json:"booked_quantity"`
	Price          int64  `json:"price"`
	Currency       string `json:"currency"`
	IsAvailable    bool   `json:"is_available"`
}

// CheckAvailabilityRequest 可用性查询请求(query参数)
// 客房必须同时传check_in/check_out,活动只传check_in
type CheckAvailabilityRequest struct {
	ProductID uint   `form:"product_id" binding:"required"`
	CheckIn   string `form:"check_in" binding:"required"`
	CheckOut  string `form:"check_out"`
	Quantity  int    `form:"quantity" binding:"required,min=1"`
}

// CheckAvailabilityResponse 可用性查询响应
type CheckAvailabilityResponse struct {
	ProductID uint   `json:"product_id"`
	Available bool   `json:"available"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out,omitempty"`
	Quantity  int    `json:"quantity"`
}

// GetCalendarRequest 日历查询请求(query参数,半开区间[from, to))
type GetCalendarRequest struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// CalendarDayResponse 日历单日响应
// 只暴露剩余可售量,不暴露已售明细
type CalendarDayResponse struct {
	Date              string `json:"date"`
	TotalQuantity     int    `json:"total_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	Price             int64  `json:"price"`
	Currency          string `json:"currency"`
	IsAvailable       bool   `json:"is_available"`
}

// CalendarResponse 日历响应
type CalendarResponse struct {
	ProductID uint                   `json:"product_id"`
	From      string                 `json:"from"`
	To        string                 `json:"to"`
	Days      []*CalendarDayResponse `json:"days"`
}

// ProductItemResponse 酒店产品条目
type ProductItemResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ProductListResponse 酒店产品列表响应(运营配置库存前先选产品)
type ProductListResponse struct {
	HotelID  uint                   `json:"hotel_id"`
	Products []*ProductItemResponse `json:"products"`
}
