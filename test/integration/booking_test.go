package integration

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 教学说明：预订模块集成测试
//
// 预订模块是本项目的核心，包含以下关键技术点：
// 1. 跨天原子扣减（任何一天不足则全部回滚）
// 2. 条件UPDATE防超订（booked + n <= total）
// 3. 并发控制
// 4. 可逆的幂等取消
//
// 这个测试文件验证了这些核心功能的正确性

// TestReservationCreate 测试预订创建功能
func TestReservationCreate(t *testing.T) {
	// 准备测试数据
	_, token := RegisterTestUser(t, "booking_creator")

	t.Run("正常创建连住预订", func(t *testing.T) {
		checkIn, checkOut := UniqueStay(2)
		mid := FutureDateAfter(checkIn, 1)

		// 配置2晚库存：第1晚299元，第2晚319元
		SetTestCapacity(t, token, RoomProductID, checkIn, 10, 29900)
		SetTestCapacity(t, token, RoomProductID, mid, 10, 31900)

		// 预订2间连住2晚
		resp := CreateTestReservation(t, token, checkIn, checkOut, 2)

		assert.Equal(t, 0, resp.Code, "创建预订应该成功: %s", resp.Message)

		var data ReservationData
		err := json.Unmarshal(resp.Data, &data)
		require.NoError(t, err, "解析响应数据失败")

		assert.NotEmpty(t, data.Reference, "预订号不应该为空")
		assert.Equal(t, "已确认", data.Status, "新预订状态应该是已确认")
		// 总价按每日价格逐天累加：(299+319)*2间 = 1236.00元
		assert.Equal(t, int64((29900+31900)*2), data.TotalPrice, "总价应该按每日价格*间数累加")
		assert.Equal(t, "CNY", data.Currency)

		t.Logf("✓ 预订创建成功")
		t.Logf("  预订号: %s", data.Reference)
		t.Logf("  总价: %d分", data.TotalPrice)
	})

	t.Run("未登录不能预订", func(t *testing.T) {
		checkIn, checkOut := UniqueStay(1)
		SetTestCapacity(t, token, RoomProductID, checkIn, 10, 29900)

		resp := CreateTestReservation(t, "", checkIn, checkOut, 1) // 空token

		assert.NotEqual(t, 0, resp.Code, "未登录应该失败")
		assert.Contains(t, resp.Message, "token", "错误信息应该提示token相关")

		t.Logf("✓ 未登录正确被拒绝: %s", resp.Message)
	})

	t.Run("产品不存在应失败", func(t *testing.T) {
		checkIn, checkOut := UniqueStay(1)
		reservationReq := map[string]interface{}{
			"product_id":  999999, // 不存在的产品ID
			"check_in":    checkIn,
			"check_out":   checkOut,
			"quantity":    1,
			"guest_name":  "测试住客",
			"guest_email": "guest@test.com",
			"payment_ref": GenerateTestPaymentRef(),
		}

		resp := PostJSON(t, BaseURL+"/reservations", reservationReq, token)

		assert.NotEqual(t, 0, resp.Code, "产品不存在应该失败")

		t.Logf("✓ 产品不存在正确返回错误: %s", resp.Message)
	})

	t.Run("离店日早于入住日应失败", func(t *testing.T) {
		checkIn, _ := UniqueStay(1)
		reservationReq := map[string]interface{}{
			"product_id":  RoomProductID,
			"check_in":    checkIn,
			"check_out":   FutureDateAfter(checkIn, -1), // 离店日在入住日之前
			"quantity":    1,
			"guest_name":  "测试住客",
			"guest_email": "guest@test.com",
			"payment_ref": GenerateTestPaymentRef(),
		}

		resp := PostJSON(t, BaseURL+"/reservations", reservationReq, token)

		assert.NotEqual(t, 0, resp.Code, "离店日早于入住日应该失败")

		t.Logf("✓ 日期区间非法正确返回错误: %s", resp.Message)
	})

	t.Run("预订数量为0应失败", func(t *testing.T) {
		checkIn, checkOut := UniqueStay(1)
		SetTestCapacity(t, token, RoomProductID, checkIn, 10, 29900)

		resp := CreateTestReservation(t, token, checkIn, checkOut, 0)

		assert.NotEqual(t, 0, resp.Code, "预订数量为0应该失败")

		t.Logf("✓ 预订数量为0正确返回错误: %s", resp.Message)
	})

	t.Run("活动预订只占当天", func(t *testing.T) {
		date, _ := UniqueStay(1)
		SetTestCapacity(t, token, EventProductID, date, 50, 9900)

		// 活动不传check_out
		reservationReq := map[string]interface{}{
			"product_id":  EventProductID,
			"check_in":    date,
			"quantity":    4,
			"guest_name":  "测试观众",
			"guest_email": "guest@test.com",
			"payment_ref": GenerateTestPaymentRef(),
		}

		resp := PostJSON(t, BaseURL+"/reservations", reservationReq, token)
		assert.Equal(t, 0, resp.Code, "活动预订应该成功: %s", resp.Message)

		var data ReservationData
		err := json.Unmarshal(resp.Data, &data)
		require.NoError(t, err, "解析响应数据失败")

		// 单日4个名额：99*4 = 396.00元
		assert.Equal(t, int64(9900*4), data.TotalPrice, "活动总价应该是单日价格*名额数")

		t.Logf("✓ 活动预订成功，预订号: %s", data.Reference)
	})
}

// TestReservationStockControl 测试库存控制（防超订核心功能）
func TestReservationStockControl(t *testing.T) {
	_, token := RegisterTestUser(t, "stock_tester")

	t.Run("库存不足应失败", func(t *testing.T) {
		checkIn, checkOut := UniqueStay(1)
		SetTestCapacity(t, token, RoomProductID, checkIn, 5, 29900)

		// 尝试订8间（超过容量5）
		resp := CreateTestReservation(t, token, checkIn, checkOut, 8)

		assert.NotEqual(t, 0, resp.Code, "库存不足应该失败")
		assert.Contains(t, resp.Message, "库存", "错误信息应该提示库存相关")

		t.Logf("✓ 库存不足正确返回错误: %s", resp.Message)
	})

	t.Run("库存恰好足够", func(t *testing.T) {
		checkIn, checkOut := UniqueStay(1)
		SetTestCapacity(t, token, RoomProductID, checkIn, 5, 29900)

		// 恰好订5间
		resp := CreateTestReservation(t, token, checkIn, checkOut, 5)

		assert.Equal(t, 0, resp.Code, "库存恰好足够应该成功")

		t.Logf("✓ 库存边界测试通过（订5间，容量5间）")
	})

	t.Run("中间一晚不足则整单失败且不留残扣", func(t *testing.T) {
		// 教学说明：这是跨天原子性的核心测试
		// 3晚区间，中间一晚只有1间，订2间必须整体失败
		// 且第1晚已扣的2间必须被补偿回来（逆序Credit）
		checkIn, checkOut := UniqueStay(3)
		day2 := FutureDateAfter(checkIn, 1)
		day3 := FutureDateAfter(checkIn, 2)

		SetTestCapacity(t, token, RoomProductID, checkIn, 10, 29900)
		SetTestCapacity(t, token, RoomProductID, day2, 1, 29900) // 瓶颈：只有1间
		SetTestCapacity(t, token, RoomProductID, day3, 10, 29900)

		// 订2间连住3晚，第2晚不足
		resp := CreateTestReservation(t, token, checkIn, checkOut, 2)
		assert.NotEqual(t, 0, resp.Code, "中间一晚不足应该整单失败")
		t.Logf("✓ 整单失败: %s", resp.Message)

		// 验证第1晚的扣减被补偿：订10间第1晚应该仍然成功
		resp2 := CreateTestReservation(t, token, checkIn, day2, 10)
		assert.Equal(t, 0, resp2.Code, "回滚后第1晚应该仍有全部10间: %s", resp2.Message)

		t.Logf("✓ 跨天回滚验证通过：失败预订未在第1晚留下残扣")
	})

	t.Run("多次预订逐步扣减库存", func(t *testing.T) {
		checkIn, checkOut := UniqueStay(1)
		SetTestCapacity(t, token, RoomProductID, checkIn, 10, 29900)

		// 第一次预订：3间
		resp1 := CreateTestReservation(t, token, checkIn, checkOut, 3)
		require.Equal(t, 0, resp1.Code, "第一次预订应该成功")
		t.Logf("✓ 第一次预订成功，订3间，剩余7间")

		// 第二次预订：4间
		resp2 := CreateTestReservation(t, token, checkIn, checkOut, 4)
		require.Equal(t, 0, resp2.Code, "第二次预订应该成功")
		t.Logf("✓ 第二次预订成功，订4间，剩余3间")

		// 第三次预订：5间（库存不足）
		resp3 := CreateTestReservation(t, token, checkIn, checkOut, 5)
		assert.NotEqual(t, 0, resp3.Code, "第三次预订应该失败（库存不足）")
		t.Logf("✓ 第三次预订正确失败（尝试订5间，实际剩余3间）")

		// 第四次预订：3间（恰好用完库存）
		resp4 := CreateTestReservation(t, token, checkIn, checkOut, 3)
		assert.Equal(t, 0, resp4.Code, "第四次预订应该成功（恰好用完库存）")
		t.Logf("✓ 第四次预订成功，订3间，库存清零")
	})
}

// TestReservationConcurrency 测试并发预订（防超订核心场景）
//
// 教学说明：
// 这是本项目最重要的测试之一，验证了条件UPDATE防超订的正确性
//
// 场景设计：
// - 某晚容量：10间
// - 并发请求：20个goroutine同时预订，每个订1间
// - 预期结果：10个成功，10个失败（库存不足）
//
// 技术要点：
// - 使用 sync.WaitGroup 等待所有goroutine完成
// - 使用 sync.Mutex 保护共享变量（成功/失败计数）
// - UPDATE ... WHERE booked + 1 <= total 确保扣减是原子的
func TestReservationConcurrency(t *testing.T) {
	_, token := RegisterTestUser(t, "concurrency_tester")

	t.Run("并发预订防超订（10间容量，20并发请求）", func(t *testing.T) {
		checkIn, checkOut := UniqueStay(1)
		SetTestCapacity(t, token, RoomProductID, checkIn, 10, 29900)

		t.Logf("\n========================================")
		t.Logf("开始并发测试：10间容量，20个并发请求")
		t.Logf("========================================")

		var (
			wg           sync.WaitGroup
			mu           sync.Mutex
			successCount int
			failCount    int
		)

		// 启动20个goroutine并发预订
		concurrency := 20
		for i := 0; i < concurrency; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()

				resp := CreateTestReservation(t, token, checkIn, checkOut, 1)

				mu.Lock()
				if resp.Code == 0 {
					successCount++
					t.Logf("  [请求%02d] ✓ 预订成功", idx+1)
				} else {
					failCount++
					t.Logf("  [请求%02d] ✗ 预订失败: %s", idx+1, resp.Message)
				}
				mu.Unlock()
			}(i)
		}

		// 等待所有goroutine完成
		wg.Wait()

		t.Logf("\n========================================")
		t.Logf("并发测试结果：")
		t.Logf("  成功预订: %d 个", successCount)
		t.Logf("  失败预订: %d 个", failCount)
		t.Logf("========================================")

		// 验证结果
		assert.Equal(t, 10, successCount, "成功预订数应该等于容量")
		assert.Equal(t, 10, failCount, "失败预订数应该是总请求数减去容量")
		assert.Equal(t, concurrency, successCount+failCount, "成功+失败应该等于总请求数")

		if successCount == 10 && failCount == 10 {
			t.Logf("\n✅ 防超订机制测试通过！")
			t.Logf("✅ 条件UPDATE(booked+n<=total)有效防止了超订")
			t.Logf("\n教学要点：")
			t.Logf("1. 扣减走单条条件UPDATE，数据库行锁保证原子性")
			t.Logf("2. 条件不满足时RowsAffected=0，业务层判定库存不足")
			t.Logf("3. 不需要先查后改，也就不存在检查与扣减之间的窗口")
			t.Logf("4. 成功预订数 = 容量，不会超订也不会少卖")
		} else {
			t.Errorf("❌ 防超订机制失败！")
			t.Errorf("   预期：成功10个，失败10个")
			t.Errorf("   实际：成功%d个，失败%d个", successCount, failCount)
		}
	})

	t.Run("不同住客并发抢订", func(t *testing.T) {
		// 教学说明：模拟真实场景，多个住客同时抢订同一晚
		_, token1 := RegisterTestUser(t, "guest1")
		checkIn, checkOut := UniqueStay(1)
		SetTestCapacity(t, token1, RoomProductID, checkIn, 5, 29900)

		// 注册多个住客
		tokens := []string{token1}
		for i := 2; i <= 10; i++ {
			_, tk := RegisterTestUser(t, fmt.Sprintf("guest%d", i))
			tokens = append(tokens, tk)
		}

		t.Logf("\n========================================")
		t.Logf("模拟多住客抢订：5间容量，10位住客")
		t.Logf("========================================")

		var (
			wg           sync.WaitGroup
			mu           sync.Mutex
			successCount int
		)

		// 10位住客同时预订
		for i, tk := range tokens {
			wg.Add(1)
			go func(idx int, guestToken string) {
				defer wg.Done()

				resp := CreateTestReservation(t, guestToken, checkIn, checkOut, 1)

				mu.Lock()
				if resp.Code == 0 {
					successCount++
					t.Logf("  [住客%02d] ✓ 抢订成功", idx+1)
				} else {
					t.Logf("  [住客%02d] ✗ 抢订失败: %s", idx+1, resp.Message)
				}
				mu.Unlock()
			}(i, tk)
		}

		wg.Wait()

		t.Logf("\n========================================")
		t.Logf("抢订结果：%d 位住客成功（容量5间）", successCount)
		t.Logf("========================================")

		assert.Equal(t, 5, successCount, "应该有5位住客抢订成功")

		t.Logf("\n✅ 多住客并发抢订测试通过！")
	})
}

// TestReservationCancel 测试取消预订（可逆、幂等）
func TestReservationCancel(t *testing.T) {
	_, token := RegisterTestUser(t, "cancel_tester")

	t.Run("取消后库存回补", func(t *testing.T) {
		checkIn, checkOut := UniqueStay(1)
		SetTestCapacity(t, token, RoomProductID, checkIn, 5, 29900)

		// 订满5间
		resp := CreateTestReservation(t, token, checkIn, checkOut, 5)
		require.Equal(t, 0, resp.Code, "预订失败: %s", resp.Message)

		var data ReservationData
		err := json.Unmarshal(resp.Data, &data)
		require.NoError(t, err)

		// 此时再订1间应该失败
		fullResp := CreateTestReservation(t, token, checkIn, checkOut, 1)
		require.NotEqual(t, 0, fullResp.Code, "订满后应该无法再订")

		// 取消预订
		cancelResp := PostJSON(t, BaseURL+"/reservations/"+data.Reference+"/cancel", nil, token)
		assert.Equal(t, 0, cancelResp.Code, "取消应该成功: %s", cancelResp.Message)

		// 库存回补后，再订5间应该成功
		retryResp := CreateTestReservation(t, token, checkIn, checkOut, 5)
		assert.Equal(t, 0, retryResp.Code, "取消后库存应该全部回补: %s", retryResp.Message)

		t.Logf("✓ 取消回补验证通过：订满5间 → 取消 → 再次订满5间")
	})

	t.Run("重复取消幂等", func(t *testing.T) {
		checkIn, checkOut := UniqueStay(1)
		SetTestCapacity(t, token, RoomProductID, checkIn, 5, 29900)

		resp := CreateTestReservation(t, token, checkIn, checkOut, 2)
		require.Equal(t, 0, resp.Code, "预订失败: %s", resp.Message)

		var data ReservationData
		err := json.Unmarshal(resp.Data, &data)
		require.NoError(t, err)

		// 第一次取消
		cancel1 := PostJSON(t, BaseURL+"/reservations/"+data.Reference+"/cancel", nil, token)
		require.Equal(t, 0, cancel1.Code, "第一次取消应该成功")

		// 第二次取消（重试），应该成功且不再回补库存
		cancel2 := PostJSON(t, BaseURL+"/reservations/"+data.Reference+"/cancel", nil, token)
		assert.Equal(t, 0, cancel2.Code, "重复取消应该幂等成功")

		// 验证库存没有被二次回补：容量5，已回补到剩5，订5间成功、订6间不可能
		retryResp := CreateTestReservation(t, token, checkIn, checkOut, 5)
		assert.Equal(t, 0, retryResp.Code, "库存应该恰好回到5间")

		t.Logf("✓ 幂等取消验证通过：重复取消不会把库存补成负已售")
	})

	t.Run("取消不存在的预订号幂等成功", func(t *testing.T) {
		// 重试的取消请求可能在单子处理完之后才到达,
		// 对查不到的预订号报错只会把无害重试变成告警
		cancelResp := PostJSON(t, BaseURL+"/reservations/RSV-20261001-ZZZZZZ/cancel", nil, token)

		assert.Equal(t, 0, cancelResp.Code, "取消不存在的预订号应该静默成功: %s", cancelResp.Message)

		var data ReservationData
		err := json.Unmarshal(cancelResp.Data, &data)
		require.NoError(t, err)
		assert.Equal(t, "已取消", data.Status, "响应状态应该是已取消")

		t.Logf("✓ 查不到的预订号取消返回成功（幂等no-op）")
	})

	t.Run("并发取消同一预订只回补一次", func(t *testing.T) {
		// 状态守卫的条件UPDATE(WHERE status=已确认)保证
		// 并发的多个取消里只有一个真正翻转并回补,其余幂等成功
		checkIn, checkOut := UniqueStay(1)
		SetTestCapacity(t, token, RoomProductID, checkIn, 5, 29900)

		resp := CreateTestReservation(t, token, checkIn, checkOut, 3)
		require.Equal(t, 0, resp.Code, "预订失败: %s", resp.Message)

		var data ReservationData
		err := json.Unmarshal(resp.Data, &data)
		require.NoError(t, err)

		var (
			wg           sync.WaitGroup
			mu           sync.Mutex
			successCount int
		)
		concurrency := 10
		for i := 0; i < concurrency; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				cancelResp := PostJSON(t, BaseURL+"/reservations/"+data.Reference+"/cancel", nil, token)
				mu.Lock()
				if cancelResp.Code == 0 {
					successCount++
				}
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, concurrency, successCount, "全部并发取消都应该幂等成功")

		// 库存恰好回到5间:订5间成功说明回补发生且只发生了一次
		// （多补的话已售会被GREATEST截在0,但总量仍是5,订6间不可能）
		retryResp := CreateTestReservation(t, token, checkIn, checkOut, 5)
		assert.Equal(t, 0, retryResp.Code, "并发取消后库存应该恰好回到5间: %s", retryResp.Message)

		overResp := CreateTestReservation(t, token, checkIn, checkOut, 1)
		assert.NotEqual(t, 0, overResp.Code, "库存应该已经订满,不能再多订")

		t.Logf("✓ %d个并发取消全部成功,库存恰好回补一次", concurrency)
	})

	t.Run("不能取消他人的预订", func(t *testing.T) {
		checkIn, checkOut := UniqueStay(1)
		SetTestCapacity(t, token, RoomProductID, checkIn, 5, 29900)

		resp := CreateTestReservation(t, token, checkIn, checkOut, 1)
		require.Equal(t, 0, resp.Code, "预订失败: %s", resp.Message)

		var data ReservationData
		err := json.Unmarshal(resp.Data, &data)
		require.NoError(t, err)

		// 另一个住客尝试取消
		_, otherToken := RegisterTestUser(t, "other_guest")
		cancelResp := PostJSON(t, BaseURL+"/reservations/"+data.Reference+"/cancel", nil, otherToken)

		assert.NotEqual(t, 0, cancelResp.Code, "取消他人预订应该被拒绝")

		t.Logf("✓ 归属校验通过: %s", cancelResp.Message)
	})
}

// TestBookingCompleteFlow 测试完整的预订流程
//
// 教学说明：
// 这是一个端到端(E2E)测试，验证从注册到取消的完整业务流程
func TestBookingCompleteFlow(t *testing.T) {
	t.Log("\n========================================")
	t.Log("完整预订流程测试")
	t.Log("========================================")

	// Step 1: 运营配置库存
	t.Log("\n➜ Step 1: 运营配置库存")
	_, adminToken := RegisterTestUser(t, "运营")
	checkIn, checkOut := UniqueStay(2)
	mid := FutureDateAfter(checkIn, 1)
	SetTestCapacity(t, adminToken, RoomProductID, checkIn, 20, 29900)
	SetTestCapacity(t, adminToken, RoomProductID, mid, 20, 29900)
	t.Logf("✓ 库存配置成功: [%s, %s) 每晚20间", checkIn, checkOut)

	// Step 2: 住客注册
	t.Log("\n➜ Step 2: 住客注册")
	guestEmail, guestToken := RegisterTestUser(t, "住客")
	t.Logf("✓ 住客注册成功: %s", guestEmail)

	// Step 3: 住客查询可用性
	t.Log("\n➜ Step 3: 住客查询可用性")
	availURL := fmt.Sprintf("%s/availability?product_id=%d&check_in=%s&check_out=%s&quantity=2",
		BaseURL, RoomProductID, checkIn, checkOut)
	availResp := GetJSON(t, availURL, "")
	require.Equal(t, 0, availResp.Code, "可用性查询失败")
	t.Logf("✓ 可用性查询成功")

	// Step 4: 住客创建预订
	t.Log("\n➜ Step 4: 住客创建预订（2间连住2晚）")
	resp := CreateTestReservation(t, guestToken, checkIn, checkOut, 2)
	require.Equal(t, 0, resp.Code, "创建预订失败: %s", resp.Message)

	var data ReservationData
	err := json.Unmarshal(resp.Data, &data)
	require.NoError(t, err, "解析预订响应失败")

	t.Logf("✓ 预订创建成功")
	t.Logf("  预订号: %s", data.Reference)
	t.Logf("  总价: %d分", data.TotalPrice)

	// Step 5: 住客查看预订详情
	t.Log("\n➜ Step 5: 住客查看预订详情")
	detailResp := GetJSON(t, BaseURL+"/reservations/"+data.Reference, guestToken)
	require.Equal(t, 0, detailResp.Code, "查询预订详情失败")
	t.Logf("✓ 预订详情查询成功")

	// Step 6: 住客查看自己的预订列表
	t.Log("\n➜ Step 6: 住客查看预订列表")
	listResp := GetJSON(t, BaseURL+"/reservations?page=1&page_size=10", guestToken)
	require.Equal(t, 0, listResp.Code, "查询预订列表失败")
	t.Logf("✓ 预订列表查询成功")

	// Step 7: 住客取消预订
	t.Log("\n➜ Step 7: 住客取消预订")
	cancelResp := PostJSON(t, BaseURL+"/reservations/"+data.Reference+"/cancel", nil, guestToken)
	require.Equal(t, 0, cancelResp.Code, "取消预订失败")
	t.Logf("✓ 预订取消成功，库存回补")

	t.Log("\n========================================")
	t.Log("✅ 完整预订流程测试通过")
	t.Log("========================================")
	t.Log("\n业务流程总结：")
	t.Log("1. 运营配置库存 → 每晚20间")
	t.Log("2. 住客注册 → 查询可用性")
	t.Log("3. 住客下单 → 逐天扣减库存（2间*2晚）")
	t.Log("4. 住客取消 → 逐天回补库存")
	t.Log("5. 预订状态 → 已确认 → 已取消（终态）")
}
