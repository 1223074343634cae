package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/xiebiao/hotelbooking/internal/domain/product"
	"github.com/xiebiao/hotelbooking/internal/domain/reservation"
	apperrors "github.com/xiebiao/hotelbooking/pkg/errors"
)

// ---------- 测试脚手架 ----------

type cancelFixture struct {
	uc        *CancelReservationUseCase
	invRepo   *fakeInventoryRepo
	rsvRepo   *fakeReservationRepo
	publisher *fakePublisher
	cache     *fakeInvalidator
}

// newCancelFixture 事务管理器传nil:
// 本文件只覆盖进入事务之前就返回的路径(查不到、无权限、已取消),
// 状态翻转+回补的完整事务路径由集成测试覆盖
func newCancelFixture() *cancelFixture {
	invRepo := newFakeInventoryRepo()
	rsvRepo := newFakeReservationRepo()
	publisher := &fakePublisher{}
	cache := &fakeInvalidator{}
	return &cancelFixture{
		uc:        NewCancelReservationUseCase(rsvRepo, invRepo, nil, publisher, cache),
		invRepo:   invRepo,
		rsvRepo:   rsvRepo,
		publisher: publisher,
		cache:     cache,
	}
}

func seedReservation(f *cancelFixture, reference string, ownerID uint) *reservation.Reservation {
	checkOut := day(2)
	rsv := reservation.NewReservation(reference, 1, product.TypeRoom, day(0), &checkOut, 2,
		ownerID, "测试住客", "guest@test.com", "", 59800, "CNY", "PAY-TEST-001")
	f.rsvRepo.byReference[reference] = rsv
	return rsv
}

// ---------- 用例测试 ----------

// TestCancelReservation_UnknownReference 测试查不到预订号时的幂等语义
// 重试的取消请求可能在单子处理完之后才到达,对它报错只会制造无害告警,
// 因此查不到的预订号直接视为已取消
func TestCancelReservation_UnknownReference(t *testing.T) {
	f := newCancelFixture()

	resp, err := f.uc.Execute(context.Background(), CancelReservationRequest{
		Reference: "RSV-20261001-XXXXXX",
		UserID:    100,
	})
	if err != nil {
		t.Fatalf("查不到的预订号取消不应报错: %v", err)
	}
	if resp.Status != reservation.StatusCancelled.String() {
		t.Errorf("状态期望已取消，实际%s", resp.Status)
	}
	if resp.Reference != "RSV-20261001-XXXXXX" {
		t.Errorf("响应应回显请求的预订号，实际%s", resp.Reference)
	}

	// 没有可回补的单,旁路动作不应触发
	if len(f.publisher.routingKeys) != 0 || len(f.cache.invalidated) != 0 {
		t.Error("查不到的取消不应发事件或失效缓存")
	}
	t.Log("✅ 查不到的预订号幂等返回已取消")
}

// TestCancelReservation_Forbidden 测试非所有者取消被拒绝
func TestCancelReservation_Forbidden(t *testing.T) {
	f := newCancelFixture()
	seedReservation(f, "RSV-20261001-ABC123", 100)

	_, err := f.uc.Execute(context.Background(), CancelReservationRequest{
		Reference: "RSV-20261001-ABC123",
		UserID:    101, // 不是预订单所有者
	})
	if !errors.Is(err, apperrors.ErrForbidden) {
		t.Errorf("期望ErrForbidden，实际: %v", err)
	}
}

// TestCancelReservation_AlreadyCancelled 测试重复取消的幂等语义
// 第二次取消直接返回当前状态,绝不能再回补一遍库存
func TestCancelReservation_AlreadyCancelled(t *testing.T) {
	f := newCancelFixture()
	rsv := seedReservation(f, "RSV-20261001-DEF456", 100)
	if err := rsv.Cancel(); err != nil {
		t.Fatalf("预置取消失败: %v", err)
	}
	// 记录取消后的库存基线(两晚各已回补到0)
	f.invRepo.seed(1, product.TypeRoom, day(0), 10, 29900)
	f.invRepo.seed(1, product.TypeRoom, day(1), 10, 29900)

	resp, err := f.uc.Execute(context.Background(), CancelReservationRequest{
		Reference: "RSV-20261001-DEF456",
		UserID:    100,
	})
	if err != nil {
		t.Fatalf("重复取消不应报错: %v", err)
	}
	if resp.Status != reservation.StatusCancelled.String() {
		t.Errorf("状态期望已取消，实际%s", resp.Status)
	}

	// 库存不能被二次回补(本就是0,回补会被GREATEST兜底,
	// 这里校验的是用例根本不发起回补)
	if f.invRepo.booked(1, day(0)) != 0 || f.invRepo.booked(1, day(1)) != 0 {
		t.Error("重复取消不应触碰库存")
	}
	if len(f.publisher.routingKeys) != 0 {
		t.Error("重复取消不应重复发事件")
	}
	t.Log("✅ 重复取消幂等成功且不重复回补")
}

// TestCancelReservation_ResponseDates 测试取消响应保留预订号原样
func TestCancelReservation_ResponseDates(t *testing.T) {
	f := newCancelFixture()
	rsv := seedReservation(f, "RSV-20261001-GHI789", 100)
	_ = rsv.Cancel()

	resp, err := f.uc.Execute(context.Background(), CancelReservationRequest{
		Reference: "RSV-20261001-GHI789",
		UserID:    100,
	})
	if err != nil {
		t.Fatalf("取消失败: %v", err)
	}
	if resp.Reference != rsv.Reference {
		t.Errorf("预订号期望%s，实际%s", rsv.Reference, resp.Reference)
	}
}
