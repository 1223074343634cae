package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 教学说明：测试辅助工具
// 这个文件包含集成测试的通用辅助函数，遵循DRY原则（Don't Repeat Yourself）
// 将重复的代码（HTTP请求、JSON解析）封装成可复用的函数

const (
	// BaseURL API基础URL
	BaseURL = "http://localhost:8080/api/v1"
	// Timeout HTTP请求超时时间
	Timeout = 10 * time.Second

	// RoomProductID 种子数据中的客房产品ID
	// 产品的增删改属于CMS（外部协作方），测试环境通过种子脚本预先灌入：
	// ID=1 客房（按夜售卖）、ID=2 活动（按场次售卖）
	RoomProductID = 1
	// EventProductID 种子数据中的活动产品ID
	EventProductID = 2
)

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// RegisterData 注册响应数据
type RegisterData struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// LoginData 登录响应数据
type LoginData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CapacityData 库存配置响应数据
type CapacityData struct {
	ProductID      uint   `json:"product_id"`
	Date           string `json:"date"`
	TotalQuantity  int    `json:"total_quantity"`
	BookedQuantity int    `json:"booked_quantity"`
	Price          int64  `json:"price"`
	Currency       string `json:"currency"`
	IsAvailable    bool   `json:"is_available"`
}

// AvailabilityData 可用性查询响应数据
type AvailabilityData struct {
	ProductID uint   `json:"product_id"`
	Available bool   `json:"available"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Quantity  int    `json:"quantity"`
}

// ReservationData 预订响应数据
type ReservationData struct {
	Reference  string `json:"reference"`
	ProductID  uint   `json:"product_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Quantity   int    `json:"quantity"`
	TotalPrice int64  `json:"total_price"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`
}

// CalendarData 日历响应数据
type CalendarData struct {
	ProductID uint          `json:"product_id"`
	From      string        `json:"from"`
	To        string        `json:"to"`
	Days      []CalendarDay `json:"days"`
}

// CalendarDay 日历单日数据
type CalendarDay struct {
	Date              string `json:"date"`
	TotalQuantity     int    `json:"total_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
	Price             int64  `json:"price"`
	Currency          string `json:"currency"`
	IsAvailable       bool   `json:"is_available"`
}

// doJSON 发送带JSON体的请求并解析JSON响应
func doJSON(t *testing.T, method, url string, data interface{}, token string) *Response {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		require.NoError(t, err, "JSON序列化失败")
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err, "创建HTTP请求失败")

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败")
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	var result Response
	err = json.Unmarshal(respBody, &result)
	require.NoError(t, err, "解析JSON响应失败: %s", string(respBody))

	return &result
}

// PostJSON 发送POST请求并解析JSON响应
//
// 教学说明：
// - 使用*testing.T参数，可以在失败时立即终止测试
// - 使用require包进行断言，失败会立即停止（不继续执行）
// - 返回*Response而非error，简化调用方代码
func PostJSON(t *testing.T, url string, data interface{}, token string) *Response {
	return doJSON(t, "POST", url, data, token)
}

// PutJSON 发送PUT请求并解析JSON响应
func PutJSON(t *testing.T, url string, data interface{}, token string) *Response {
	return doJSON(t, "PUT", url, data, token)
}

// GetJSON 发送GET请求并解析JSON响应
func GetJSON(t *testing.T, url string, token string) *Response {
	return doJSON(t, "GET", url, nil, token)
}

// GenerateTestEmail 生成唯一的测试邮箱
//
// 教学说明：
// 使用时间戳确保邮箱唯一性，避免测试重复运行时邮箱冲突
// 确保邮箱格式正确（包含@和域名）
func GenerateTestEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@test.com", prefix, time.Now().UnixNano())
}

// GenerateTestPaymentRef 生成测试支付凭证号
//
// 教学说明：
// 测试环境的支付网关stub对"PAY-TEST-"开头的凭证一律返回已授权、大额度
// 生产环境的凭证由真实网关在预授权后下发
func GenerateTestPaymentRef() string {
	return fmt.Sprintf("PAY-TEST-%d", time.Now().UnixNano())
}

// FutureDate 生成距今offset天的日期字符串（2006-01-02格式）
//
// 教学说明：
// 库存按自然日配置，测试必须使用未来日期，避免不同测试日期互相踩踏
// 每个测试应使用不同的offset区间隔离数据
func FutureDate(offset int) string {
	return time.Now().AddDate(0, 0, offset).Format("2006-01-02")
}

// stayCursor 日期偏移游标
// 以启动时刻播种，保证重复运行测试时拿到不同的日期区间
// （库存行是(产品,日期)级别的共享状态，复用日期会让断言互相污染）
var stayCursor = time.Now().UnixNano() % 50000

// UniqueStay 分配一段未被其他测试使用过的连住区间[checkIn, checkOut)
func UniqueStay(nights int) (checkIn, checkOut string) {
	offset := atomic.AddInt64(&stayCursor, int64(nights)+1)
	checkIn = FutureDate(int(offset) + 30)
	checkOut = FutureDate(int(offset) + 30 + nights)
	return checkIn, checkOut
}

// RegisterTestUser 注册测试住客并返回Token
//
// 教学说明：
// 这是一个"高阶"辅助函数，封装了注册+登录的完整流程
// 简化了测试代码，让测试更关注业务逻辑而非基础设施
func RegisterTestUser(t *testing.T, nickname string) (email string, token string) {
	// 1. 注册
	email = GenerateTestEmail(nickname)
	registerReq := map[string]string{
		"email":    email,
		"password": "Test1234",
		"nickname": nickname,
	}

	registerResp := PostJSON(t, BaseURL+"/users/register", registerReq, "")
	require.Equal(t, 0, registerResp.Code, "注册失败: %s", registerResp.Message)

	// 2. 登录
	loginReq := map[string]string{
		"email":    email,
		"password": "Test1234",
	}

	loginResp := PostJSON(t, BaseURL+"/users/login", loginReq, "")
	require.Equal(t, 0, loginResp.Code, "登录失败: %s", loginResp.Message)

	var loginData LoginData
	err := json.Unmarshal(loginResp.Data, &loginData)
	require.NoError(t, err, "解析登录响应失败")

	return email, loginData.AccessToken
}

// SetTestCapacity 配置单日库存并返回响应数据
//
// 教学说明：
// 封装了库存配置流程（相当于运营后台的"开房态"操作）
// 预订测试前必须先配置对应日期的容量
func SetTestCapacity(t *testing.T, token string, productID uint, date string, total int, price int64) *CapacityData {
	capacityReq := map[string]interface{}{
		"product_id":     productID,
		"date":           date,
		"total_quantity": total,
		"price":          price,
	}

	resp := PutJSON(t, BaseURL+"/inventory/capacity", capacityReq, token)
	require.Equal(t, 0, resp.Code, "库存配置失败: %s", resp.Message)

	var data CapacityData
	err := json.Unmarshal(resp.Data, &data)
	require.NoError(t, err, "解析库存响应失败")

	return &data
}

// CreateTestReservation 创建单晚客房预订并返回响应数据
//
// 封装最常用的预订形态：RoomProductID产品、[checkIn, checkIn+1晚)、quantity间
func CreateTestReservation(t *testing.T, token string, checkIn, checkOut string, quantity int) *Response {
	reservationReq := map[string]interface{}{
		"product_id":  RoomProductID,
		"check_in":    checkIn,
		"check_out":   checkOut,
		"quantity":    quantity,
		"guest_name":  "测试住客",
		"guest_email": "guest@test.com",
		"payment_ref": GenerateTestPaymentRef(),
	}

	return PostJSON(t, BaseURL+"/reservations", reservationReq, token)
}
