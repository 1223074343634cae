package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	appbooking "github.com/xiebiao/hotelbooking/internal/application/booking"
	"github.com/xiebiao/hotelbooking/internal/interface/http/dto"
	"github.com/xiebiao/hotelbooking/internal/interface/http/middleware"
	"github.com/xiebiao/hotelbooking/pkg/response"
)

// BookingHandler 预订HTTP处理器
type BookingHandler struct {
	createUseCase *appbooking.CreateReservationUseCase
	cancelUseCase *appbooking.CancelReservationUseCase
	getUseCase    *appbooking.GetReservationUseCase
	listUseCase   *appbooking.ListReservationsUseCase
}

// NewBookingHandler 创建预订处理器
func NewBookingHandler(
	createUseCase *appbooking.CreateReservationUseCase,
	cancelUseCase *appbooking.CancelReservationUseCase,
	getUseCase *appbooking.GetReservationUseCase,
	listUseCase *appbooking.ListReservationsUseCase,
) *BookingHandler {
	return &BookingHandler{
		createUseCase: createUseCase,
		cancelUseCase: cancelUseCase,
		getUseCase:    getUseCase,
		listUseCase:   listUseCase,
	}
}

// CreateReservation 创建预订
// @Summary      创建预订
// @Description  预订客房（区间）或活动（单日），跨天原子扣减库存，任何一天不足则全部回滚（需要登录）
// @Tags         预订模块
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateReservationRequest true "预订信息"
// @Success      200 {object} response.Response{data=dto.ReservationResponse} "预订成功"
// @Failure      400 {object} response.Response "参数错误或日期不可预订"
// @Failure      401 {object} response.Response "未登录"
// @Failure      404 {object} response.Response "产品不存在"
// @Router       /reservations [post]
//
// 教学说明:跨天扣减的原子性
// 住3晚要同时占用3个日历日的库存,实现上是逐天的原子条件UPDATE
// 加补偿回滚(Saga):第2天扣减失败时,第1天已扣的库存会自动补回。
// 对外只有两种结局:全部占用+成单,或一无所动+报错。
//
// 测试方法:
// 1. 配置某客房1月1日~1月3日各10间
// 2. 并发发起大量"住2晚订5间"的请求
// 3. 预期结果:每天的已售数量永远不超过10,失败请求不留下任何占用
func (h *BookingHandler) CreateReservation(c *gin.Context) {
	// 1. 参数绑定与验证
	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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

	// 2. 获取当前登录用户ID
	userID := middleware.MustGetUserID(c)

	// 3. 调用应用层用例
	result, err := h.createUseCase.Execute(c.Request.Context(), appbooking.CreateReservationRequest{
		OwnerID:    userID,
		ProductID:  req.ProductID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Quantity:   req.Quantity,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		GuestPhone: req.GuestPhone,
		PaymentRef: req.PaymentRef,
	})

	if err != nil {
		response.Error(c, err)
		return
	}

	// 4. 构建HTTP响应
	response.Success(c, &dto.ReservationResponse{
		Reference:  result.Reference,
		ProductID:  result.ProductID,
		CheckIn:    result.CheckIn,
		CheckOut:   result.CheckOut,
		Quantity:   result.Quantity,
		TotalPrice: result.TotalPrice,
		Currency:   result.Currency,
		Status:     result.Status,
		CreatedAt:  result.CreatedAt,
	})
}

// CancelReservation 取消预订
// @Summary      取消预订
// @Description  取消后逐天回补库存（幂等：重复取消返回成功，不重复回补；需要登录且是预订所有者）
// @Tags         预订模块
// @Produce      json
// @Security     BearerAuth
// @Param        reference path string true "预订号"
// @Success      200 {object} response.Response{data=dto.CancelReservationResponse} "取消成功"
// @Failure      401 {object} response.Response "未登录"
// @Failure      403 {object} response.Response "不是预订所有者"
// @Failure      404 {object} response.Response "预订单不存在"
// @Router       /reservations/{reference}/cancel [post]
func (h *BookingHandler) CancelReservation(c *gin.Context) {
	reference := c.Param("reference")
	userID := middleware.MustGetUserID(c)

	result, err := h.cancelUseCase.Execute(c.Request.Context(), appbooking.CancelReservationRequest{
		Reference: reference,
		UserID:    userID,
	})

	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.CancelReservationResponse{
		Reference: result.Reference,
		Status:    result.Status,
	})
}

// GetReservation 预订详情
// @Summary      预订详情
// @Description  根据预订号查询详情（需要登录且是预订所有者）
// @Tags         预订模块
// @Produce      json
// @Security     BearerAuth
// @Param        reference path string true "预订号"
// @Success      200 {object} response.Response{data=dto.ReservationDetailResponse} "查询成功"
// @Failure      401 {object} response.Response "未登录"
// @Failure      403 {object} response.Response "不是预订所有者"
// @Failure      404 {object} response.Response "预订单不存在"
// @Router       /reservations/{reference} [get]
func (h *BookingHandler) GetReservation(c *gin.Context) {
	reference := c.Param("reference")
	userID := middleware.MustGetUserID(c)

	result, err := h.getUseCase.Execute(c.Request.Context(), reference, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toDetailResponse(result))
}

// ListReservations 我的预订列表
// @Summary      我的预订列表
// @Description  分页查询当前用户的预订（最新的在前，需要登录）
// @Tags         预订模块
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码(默认1)"
// @Param        page_size query int false "每页数量(默认10,最大100)"
// @Success      200 {object} response.Response "查询成功"
// @Failure      401 {object} response.Response "未登录"
// @Router       /reservations [get]
func (h *BookingHandler) ListReservations(c *gin.Context) {
	var req dto.ListReservationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithCode(c, 40900, "参数错误: "+err.Error())
		return
	}

	userID := middleware.MustGetUserID(c)

	result, err := h.listUseCase.Execute(c.Request.Context(), appbooking.ListReservationsRequest{
		UserID:   userID,
		Page:     req.Page,
		PageSize: req.PageSize,
	})

	if err != nil {
		response.Error(c, err)
		return
	}

	details := make([]*dto.ReservationDetailResponse, len(result.Reservations))
	for i, rsv := range result.Reservations {
		details[i] = toDetailResponse(rsv)
	}

	response.SuccessWithPage(c, details, result.Total, result.Page, result.PageSize)
}

// toDetailResponse 应用层DTO → HTTP层DTO
func toDetailResponse(d *appbooking.ReservationDetail) *dto.ReservationDetailResponse {
	return &dto.ReservationDetailResponse{
		Reference:  d.Reference,
		ProductID:  d.ProductID,
		CheckIn:    d.CheckIn,
		CheckOut:   d.CheckOut,
		Quantity:   d.Quantity,
		GuestName:  d.GuestName,
		GuestEmail: d.GuestEmail,
		GuestPhone: d.GuestPhone,
		TotalPrice: d.TotalPrice,
		Currency:   d.Currency,
		Status:     d.Status,
		CreatedAt:  d.CreatedAt,
	}
}
