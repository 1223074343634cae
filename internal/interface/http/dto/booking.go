package dto

// CreateReservationRequest HTTP层预订请求
// 说明:支付必须在调用本接口前完成授权,payment_ref是网关返回的凭证号
type CreateReservationRequest struct {
	ProductID  uint   `json:"product_id" binding:"required"`
	CheckIn    string `json:"check_in" binding:"required"`
	CheckOut   string `json:"check_out"` // 客房必填(2006-01-02),活动不传
	Quantity   int    `json:"quantity" binding:"required,min=1,max=10"`
	GuestName  string `json:"guest_name" binding:"required,min=2,max=100"`
	GuestEmail string `json:"guest_email" binding:"required,email"`
	GuestPhone string `json:"guest_phone" binding:"omitempty,min=5,max=20"`
	PaymentRef string `json:"payment_ref" binding:"required"`
}

// ReservationResponse 预订响应
type ReservationResponse struct {
	Reference  string `json:"reference"`
	ProductID  uint   `json:"product_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out,omitempty"`
	Quantity   int    `json:"quantity"`
	TotalPrice int64  `json:"total_price"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// ReservationDetailResponse 预订详情响应
type ReservationDetailResponse struct {
	Reference  string `json:"reference"`
	ProductID  uint   `json:"product_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out,omitempty"`
	Quantity   int    `json:"quantity"`
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	GuestPhone string `json:"guest_phone,omitempty"`
	TotalPrice int64  `json:"total_price"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// CancelReservationResponse 取消响应
type CancelReservationResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// ListReservationsRequest 我的预订列表请求(query参数)
type ListReservationsRequest struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=10" binding:"min=1,max=100"`
}
